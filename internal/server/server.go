// Package server is the HTTP presentation boundary: the search page and a
// small JSON API over one shared session.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"hn-frontpage/internal/algolia"
	"hn-frontpage/internal/model"
	"hn-frontpage/internal/render"
	"hn-frontpage/internal/session"
)

// Server holds dependencies for the HTTP handlers.
type Server struct {
	sess           *session.Session
	router         *gin.Engine
	refreshTimeout time.Duration
}

// New wires up routes and returns a ready-to-use Server.
func New(sess *session.Session, refreshTimeout time.Duration) *Server {
	if refreshTimeout <= 0 {
		refreshTimeout = 30 * time.Second
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	s := &Server{sess: sess, router: r, refreshTimeout: refreshTimeout}
	s.routes()
	return s
}

// ServeHTTP makes Server satisfy the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.GET("/", s.handlePage)

	api := s.router.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/status", s.handleStatus)
	api.GET("/stories", s.handleStories)
	api.POST("/refresh", s.handleRefresh)
}

// StoriesResponse is the body of GET /api/stories.
type StoriesResponse struct {
	Phase   string        `json:"phase"`
	Query   string        `json:"query"`
	Count   int           `json:"count"`
	Total   int           `json:"total"`
	Stories []model.Story `json:"stories"`
}

// StatusResponse is the body of GET /api/status and POST /api/refresh.
type StatusResponse struct {
	Phase     string     `json:"phase"`
	Count     int        `json:"count"`
	FetchedAt *time.Time `json:"fetched_at,omitempty"`
	Error     string     `json:"error,omitempty"`
	ErrorKind string     `json:"error_kind,omitempty"`
}

// ErrorResponse is returned whenever there is no batch to answer from.
type ErrorResponse struct {
	Phase     string `json:"phase"`
	Error     string `json:"error"`
	ErrorKind string `json:"error_kind,omitempty"`
}

func (s *Server) handlePage(c *gin.Context) {
	q := c.Query("q")
	stories, st := s.sess.Search(q)
	data := render.PageData{Query: q, Stories: stories, Total: len(st.Stories)}
	code := http.StatusOK
	switch st.Phase {
	case session.PhaseUninitialized, session.PhasePending:
		data.Pending = true
	case session.PhaseFailure:
		data.Error = render.ErrorMessage(st.Err)
		code = http.StatusBadGateway
	}
	c.Status(code)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := render.Page(c.Writer, data); err != nil {
		slog.Error("server: render page failed", "error", err)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, statusResponse(s.sess.Status()))
}

func (s *Server) handleStories(c *gin.Context) {
	q := c.Query("q")
	stories, st := s.sess.Search(q)
	switch st.Phase {
	case session.PhaseSuccess:
		c.JSON(http.StatusOK, StoriesResponse{
			Phase:   st.Phase.String(),
			Query:   q,
			Count:   len(stories),
			Total:   len(st.Stories),
			Stories: stories,
		})
	case session.PhaseFailure:
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Phase:     st.Phase.String(),
			Error:     render.ErrorMessage(st.Err),
			ErrorKind: errorKind(st.Err),
		})
	default:
		c.Header("Retry-After", "1")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Phase: st.Phase.String(),
			Error: "stories are still loading",
		})
	}
}

func (s *Server) handleRefresh(c *gin.Context) {
	// A client hanging up must not turn the shared fetch into a failure.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), s.refreshTimeout)
	defer cancel()
	st := s.sess.Refresh(ctx)
	code := http.StatusOK
	if st.Phase == session.PhaseFailure {
		code = http.StatusBadGateway
	}
	c.JSON(code, statusResponse(st))
}

func statusResponse(st session.Status) StatusResponse {
	resp := StatusResponse{Phase: st.Phase.String(), Count: len(st.Stories)}
	if !st.FetchedAt.IsZero() {
		t := st.FetchedAt.UTC()
		resp.FetchedAt = &t
	}
	if st.Err != nil {
		resp.Error = render.ErrorMessage(st.Err)
		resp.ErrorKind = errorKind(st.Err)
	}
	return resp
}

func errorKind(err error) string {
	var fe *algolia.FetchError
	if errors.As(err, &fe) {
		return fe.Kind.String()
	}
	if err != nil {
		return "unknown"
	}
	return ""
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("server: request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
		)
	}
}
