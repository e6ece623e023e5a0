package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/aniketthapawork/ai-tutor/internal/attempt"
	"github.com/aniketthapawork/ai-tutor/internal/catalog"
	"github.com/aniketthapawork/ai-tutor/internal/store"
)

func (s *Server) health(c *gin.Context) {
	if err := s.deps.Store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) currentUser(c *gin.Context) {
	u, err := s.deps.Store.GetUser(c.Request.Context(), userID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (s *Server) dashboard(c *gin.Context) {
	d, err := s.deps.Dashboard.Dashboard(c.Request.Context(), userID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (s *Server) listModules(c *gin.Context) {
	mods, err := s.deps.Catalog.Modules(c.Request.Context(), userID(c), "")
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, mods)
}

func (s *Server) listModulesByLevel(c *gin.Context) {
	mods, err := s.deps.Catalog.ModulesByLevel(c.Request.Context(), userID(c), c.Param("level"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, mods)
}

type progressRequest struct {
	Completed bool     `json:"completed"`
	Score     *float64 `json:"score"`
}

func (s *Server) updateModuleProgress(c *gin.Context) {
	var req progressRequest
	if !s.bind(c, &req) {
		return
	}
	p, err := s.deps.Catalog.UpdateProgress(c.Request.Context(), userID(c), c.Param("id"), catalog.ProgressUpdate{
		Completed: req.Completed,
		Score:     req.Score,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) listTests(c *gin.Context) {
	tests, err := s.deps.Catalog.Tests(c.Request.Context(), store.TestFilter{})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tests)
}

func (s *Server) listTestsByType(c *gin.Context) {
	tests, err := s.deps.Catalog.TestsByType(c.Request.Context(), c.Param("type"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tests)
}

func (s *Server) listTestsByLevel(c *gin.Context) {
	tests, err := s.deps.Catalog.TestsByLevel(c.Request.Context(), c.Param("level"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tests)
}

func (s *Server) getTest(c *gin.Context) {
	t, err := s.deps.Catalog.Test(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

type generateRequest struct {
	Type  string `json:"type" binding:"required,oneof=comprehension essay letter"`
	Level string `json:"level" binding:"required,oneof=beginner intermediate advanced"`
	Count int    `json:"count" binding:"omitempty,min=1,max=20"`
}

func (s *Server) generateTest(c *gin.Context) {
	var req generateRequest
	if !s.bind(c, &req) {
		return
	}
	t, err := s.deps.Catalog.GenerateTest(c.Request.Context(), catalog.GenerateRequest{
		Type:  req.Type,
		Level: req.Level,
		Count: req.Count,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

type submitRequest struct {
	AttemptID string          `json:"attemptId" binding:"omitempty,uuid"`
	Answers   json.RawMessage `json:"answers" binding:"required"`
	TimeSpent *int            `json:"timeSpent" binding:"omitempty,min=0"`
}

func (s *Server) submitTest(c *gin.Context) {
	var req submitRequest
	if !s.bind(c, &req) {
		return
	}
	sub, err := s.deps.Attempts.Submit(c.Request.Context(), attempt.SubmitRequest{
		UserID:    userID(c),
		TestID:    c.Param("id"),
		AttemptID: req.AttemptID,
		Answers:   req.Answers,
		TimeSpent: req.TimeSpent,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	status := http.StatusCreated
	if sub.Replayed {
		status = http.StatusOK
	}
	c.JSON(status, sub)
}

func (s *Server) listAttempts(c *gin.Context) {
	attempts, err := s.deps.Attempts.History(c.Request.Context(), userID(c), queryInt(c, "limit", 0))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, attempts)
}

func (s *Server) attemptFeedback(c *gin.Context) {
	fb, err := s.deps.Attempts.Feedback(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, fb)
}

func (s *Server) leaderboard(c *gin.Context) {
	entries, err := s.deps.Dashboard.Leaderboard(c.Request.Context(), queryInt(c, "limit", 0))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (s *Server) progress(c *gin.Context) {
	p, err := s.deps.Dashboard.Progress(c.Request.Context(), userID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

type activityRequest struct {
	ActivitiesCompleted *int `json:"activitiesCompleted" binding:"omitempty,min=0"`
	PointsEarned        *int `json:"pointsEarned" binding:"omitempty,min=0"`
}

func (s *Server) recordActivity(c *gin.Context) {
	var req activityRequest
	if c.Request.ContentLength != 0 && !s.bind(c, &req) {
		return
	}
	activities, points := 1, 0
	if req.ActivitiesCompleted != nil && *req.ActivitiesCompleted > 0 {
		activities = *req.ActivitiesCompleted
	}
	if req.PointsEarned != nil {
		points = *req.PointsEarned
	}
	logged, err := s.deps.Recorder.LogActivity(c.Request.Context(), userID(c), activities, points)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, logged)
}

// queryInt parses an integer query parameter, returning def when it is
// absent or malformed.
func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}
