package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/aniketthapawork/ai-tutor/internal/apperr"
)

type errorBody struct {
	Message string `json:"message"`
}

// fail writes err as a JSON error response. Server-side failures are
// logged with the full error and reported with a generic message.
func (s *Server) fail(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.String("kind", string(apperr.KindOf(err))),
			zap.Error(err),
		)
	}
	c.AbortWithStatusJSON(status, errorBody{Message: apperr.PublicMessage(err)})
}

// bind decodes the JSON body into dst and runs its binding rules.
func (s *Server) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			s.fail(c, apperr.Validation("%s", verrs.Error()))
		} else {
			s.fail(c, apperr.Validation("invalid request body: %v", err))
		}
		return false
	}
	return true
}
