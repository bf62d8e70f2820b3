package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mateconpizza/marklet/internal/bookmarklet"
	"github.com/mateconpizza/marklet/internal/db"
)

// itemRequest is the body accepted by create and update.
type itemRequest struct {
	Title   string `json:"title"`
	MatchJS string `json:"match_js"`
	CodeJS  string `json:"code_js"`
}

func (r *itemRequest) item() *bookmarklet.Item {
	return bookmarklet.New(r.Title, r.MatchJS, r.CodeJS)
}

func (s *Server) registerAPI(e *gin.Engine) {
	e.GET("/healthz", s.handleHealth)

	api := e.Group("/api", cors(s.AllowedOrigins))
	{
		api.OPTIONS("/*path", s.handlePreflight)
		api.GET("/bookmarklets", s.handleList)
		api.POST("/bookmarklets", s.handleCreate)
		api.PUT("/bookmarklets/:id", s.handleUpdate)
		api.DELETE("/bookmarklets/:id", s.handleDelete)
		api.GET("/selector", s.handleSelector)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	jsonOK(c, gin.H{"status": "ok"})
}

func (s *Server) handlePreflight(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func (s *Server) handleList(c *gin.Context) {
	items, err := s.svc.List(c.Request.Context())
	if err != nil {
		s.fail(c, "listing bookmarklets", err)
		return
	}

	jsonOK(c, gin.H{"items": items})
}

func (s *Server) handleCreate(c *gin.Context) {
	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonBadRequest(c, "invalid JSON body")
		return
	}

	id, err := s.svc.Create(c.Request.Context(), req.item())
	if err != nil {
		s.fail(c, "creating bookmarklet", err)
		return
	}

	jsonCreated(c, gin.H{"id": id})
}

func (s *Server) handleUpdate(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		jsonNotFound(c)
		return
	}

	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonBadRequest(c, "invalid JSON body")
		return
	}

	if err := s.svc.Update(c.Request.Context(), id, req.item()); err != nil {
		s.fail(c, "updating bookmarklet", err)
		return
	}

	jsonOK(c, gin.H{"ok": true})
}

func (s *Server) handleDelete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		jsonNotFound(c)
		return
	}

	if err := s.svc.Delete(c.Request.Context(), id); err != nil {
		s.fail(c, "deleting bookmarklet", err)
		return
	}

	jsonOK(c, gin.H{"ok": true})
}

func (s *Server) handleSelector(c *gin.Context) {
	p, err := s.svc.Selector(c.Request.Context())
	if err != nil {
		s.fail(c, "building selector", err)
		return
	}

	jsonOK(c, p)
}

// fail maps err to a response.
func (s *Server) fail(c *gin.Context, msg string, err error) {
	switch {
	case errors.Is(err, bookmarklet.ErrInvalid):
		jsonBadRequest(c, bookmarklet.ErrInvalid.Error())
	case errors.Is(err, db.ErrRecordNotFound):
		jsonNotFound(c)
	default:
		slog.Error(msg, "error", err, "request_id", c.GetString(ctxRequestID))
		jsonServerErr(c, err.Error())
	}
}

// paramID parses the :id path parameter.
func paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}

	return id, true
}
