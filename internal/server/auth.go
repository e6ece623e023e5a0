package server

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"github.com/aniketthapawork/ai-tutor/internal/apperr"
	"github.com/aniketthapawork/ai-tutor/internal/store"
)

// DevUserHeader carries the user id when header authentication is enabled.
const DevUserHeader = "X-User-Id"

const userIDKey = "user_id"

// Claims are the token claims the gate reads. The subject is the user id.
type Claims struct {
	jwt.RegisteredClaims
	Email      string `json:"email,omitempty"`
	GivenName  string `json:"given_name,omitempty"`
	FamilyName string `json:"family_name,omitempty"`
	Picture    string `json:"picture,omitempty"`
}

func (c *Claims) profile() store.Profile {
	p := store.Profile{ID: c.Subject}
	p.Email = optional(c.Email)
	p.FirstName = optional(c.GivenName)
	p.LastName = optional(c.FamilyName)
	p.ProfileImageURL = optional(c.Picture)
	return p
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Authenticator is the authentication gate.
type Authenticator struct {
	secret    []byte
	devHeader bool
	users     *store.Store
	log       *zap.Logger
}

// NewAuthenticator creates the gate. An empty secret disables bearer
// tokens; devHeader enables the X-User-Id header.
func NewAuthenticator(secret string, devHeader bool, users *store.Store, log *zap.Logger) *Authenticator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Authenticator{secret: []byte(secret), devHeader: devHeader, users: users, log: log}
}

// Middleware authenticates the request, upserts the user and stores the id
// in the context.
func (a *Authenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := a.authenticate(c)
		if err != nil {
			a.log.Debug("authentication failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
			c.AbortWithStatusJSON(apperr.HTTPStatus(err), errorBody{Message: apperr.PublicMessage(err)})
			return
		}
		if _, err := a.users.UpsertUser(c.Request.Context(), p); err != nil {
			a.log.Error("upsert user", zap.String("user_id", p.ID), zap.Error(err))
			c.AbortWithStatusJSON(apperr.HTTPStatus(err), errorBody{Message: apperr.PublicMessage(err)})
			return
		}
		c.Set(userIDKey, p.ID)
		c.Next()
	}
}

func (a *Authenticator) authenticate(c *gin.Context) (store.Profile, error) {
	if h := c.GetHeader("Authorization"); h != "" {
		token, ok := strings.CutPrefix(h, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			return store.Profile{}, apperr.Unauthorized("malformed authorization header")
		}
		claims, err := a.Parse(strings.TrimSpace(token))
		if err != nil {
			return store.Profile{}, err
		}
		return claims.profile(), nil
	}
	if a.devHeader {
		if id := strings.TrimSpace(c.GetHeader(DevUserHeader)); id != "" {
			return store.Profile{ID: id}, nil
		}
	}
	return store.Profile{}, apperr.Unauthorized("authentication required")
}

// Parse verifies an HS256 token and returns its claims.
func (a *Authenticator) Parse(token string) (*Claims, error) {
	if len(a.secret) == 0 {
		return nil, apperr.Unauthorized("bearer tokens are not accepted")
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		var verr *jwt.ValidationError
		if errors.As(err, &verr) && verr.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, apperr.Unauthorized("token expired")
		}
		return nil, apperr.Unauthorized("invalid token")
	}
	if claims.Subject == "" {
		return nil, apperr.Unauthorized("token has no subject")
	}
	return claims, nil
}

// Sign issues an HS256 token for claims. Used by tooling and tests.
func (a *Authenticator) Sign(claims *Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func userID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
