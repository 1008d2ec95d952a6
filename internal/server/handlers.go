package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/truthscan-ai/truthscan/internal/analysis"
	"github.com/truthscan-ai/truthscan/internal/view"
)

const sessionCookie = "truthscan_session"

type analyzeRequest struct {
	Text string `json:"text"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// session returns the form for the caller's cookie and refreshes the cookie.
func (s *Server) session(c *gin.Context) *view.Form {
	id, _ := c.Cookie(sessionCookie)
	id, form := s.sessions.Get(id)

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, id, int(s.cfg.Server.SessionTTL.Seconds()), "/", "", c.Request.TLS != nil, true)
	return form
}

func (s *Server) renderPage(c *gin.Context, status int, st view.State) {
	c.Header("Cache-Control", "no-store")
	c.HTML(status, "page", view.Page{State: st, Year: s.now().Year()})
}

func (s *Server) handleIndex(c *gin.Context) {
	form := s.session(c)
	s.renderPage(c, http.StatusOK, form.Snapshot())
}

func (s *Server) handleCheck(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		if tooLarge(err) {
			c.String(http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		c.String(http.StatusBadRequest, "invalid form body")
		return
	}

	form := s.session(c)
	status := http.StatusOK

	// The analysis outlives a closed browser tab; its outcome stays in the session.
	err := form.Submit(context.WithoutCancel(c.Request.Context()), c.Request.PostForm.Get("text"))
	if errors.Is(err, view.ErrInFlight) {
		status = http.StatusConflict
	}

	s.renderPage(c, status, form.Snapshot())
}

func (s *Server) handleAnalyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if tooLarge(err) {
			c.JSON(http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
			return
		}
		c.JSON(http.StatusBadRequest, errorResponse{Error: "request body must be a JSON object with a text field"})
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "text is required"})
		return
	}

	res, err := s.analyzer.Analyze(c.Request.Context(), req.Text)
	if err != nil {
		c.JSON(http.StatusBadGateway, errorResponse{
			Error: analysis.UserMessage(err),
			Kind:  string(errorKind(err)),
		})
		return
	}
	c.JSON(http.StatusOK, res)
}

func errorKind(err error) analysis.Kind {
	var ae *analysis.Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return analysis.KindAnalysisFailed
}

func tooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
