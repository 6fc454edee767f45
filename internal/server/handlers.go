package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/orgball2608/deso-feed/internal/domain"
	"github.com/orgball2608/deso-feed/pkg/errors"
)

type scrollRequest struct {
	ScrollY        int `json:"scrollY"`
	ViewportHeight int `json:"viewportHeight"`
}

func (s *Server) documentHandler(c *gin.Context) {
	html, err := s.document.HTML()
	if err != nil {
		s.logger.Error("Failed to render document", "error", err)
		c.String(http.StatusInternalServerError, "failed to render document")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

func (s *Server) healthCheckHandler(c *gin.Context) {
	s.logger.Info("Health check request received", "Method", c.Request.Method, "URL", c.Request.URL.String())
	c.String(http.StatusOK, "ok")
}

func (s *Server) postsPageHandler(c *gin.Context) {
	first, err := intQuery(c, "first")
	if err != nil {
		s.respondError(c, "fetch posts page", err)
		return
	}

	var after *string
	if v, ok := c.GetQuery("after"); ok && v != "" {
		after = &v
	}

	pg, err := s.posts.FetchPostsPage(c.Request.Context(), first, after)
	if err != nil {
		s.respondError(c, "fetch posts page", err)
		return
	}
	if pg.Posts == nil {
		pg.Posts = []domain.Post{}
	}
	c.JSON(http.StatusOK, pg)
}

func (s *Server) firstPageHandler(c *gin.Context) {
	limit, err := intQuery(c, "limit")
	if err != nil {
		s.respondError(c, "fetch posts", err)
		return
	}

	list, err := s.posts.FetchPosts(c.Request.Context(), limit)
	if err != nil {
		s.respondError(c, "fetch posts", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": nonNil(list)})
}

func (s *Server) searchHandler(c *gin.Context) {
	term, ok := c.GetQuery("q")
	if !ok {
		s.respondError(c, "search posts", errors.Wrap(errors.ErrInvalidInput, "missing q parameter"))
		return
	}
	limit, err := intQuery(c, "limit")
	if err != nil {
		s.respondError(c, "search posts", err)
		return
	}

	list, err := s.posts.SearchPostsByBody(c.Request.Context(), term, limit)
	if err != nil {
		s.respondError(c, "search posts", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": nonNil(list)})
}

func (s *Server) filterHandler(c *gin.Context) {
	limit, err := intQuery(c, "limit")
	if err != nil {
		s.respondError(c, "filter posts", err)
		return
	}

	var extra map[string]any
	if err := c.ShouldBindJSON(&extra); err != nil {
		s.respondError(c, "filter posts", errors.Wrap(errors.ErrInvalidInput, "extra data must be a JSON object"))
		return
	}

	list, err := s.posts.PostsByExtra(c.Request.Context(), extra, limit)
	if err != nil {
		s.respondError(c, "filter posts", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": nonNil(list)})
}

func (s *Server) loadHandler(c *gin.Context) {
	reset := false
	if v, ok := c.GetQuery("reset"); ok {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			s.respondError(c, "load feed", errors.Wrap(errors.ErrInvalidInput, "reset must be a boolean"))
			return
		}
		reset = parsed
	}

	c.JSON(http.StatusOK, s.feed.Load(c.Request.Context(), reset))
}

func (s *Server) loadMoreHandler(c *gin.Context) {
	c.JSON(http.StatusOK, s.feed.LoadMore(c.Request.Context()))
}

func (s *Server) resetHandler(c *gin.Context) {
	s.feed.ResetPagination()
	c.JSON(http.StatusOK, s.feed.State())
}

func (s *Server) scrollHandler(c *gin.Context) {
	var req scrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, "scroll", errors.Wrap(errors.ErrInvalidInput, "invalid scroll payload"))
		return
	}

	c.JSON(http.StatusOK, s.feed.OnScroll(c.Request.Context(), c.ClientIP(), req.ScrollY, req.ViewportHeight))
}

func (s *Server) stateHandler(c *gin.Context) {
	c.JSON(http.StatusOK, s.feed.State())
}

func (s *Server) sidebarToggleHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"open": s.document.ToggleSidebar()})
}

func (s *Server) respondError(c *gin.Context, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errors.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.IsCanceled(err):
		status = http.StatusServiceUnavailable
	case errors.IsUpstream(err):
		status = http.StatusBadGateway
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", "operation", op, "error", err, "code", errors.GetCode(err))
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": errors.GetCode(err)})
}

func intQuery(c *gin.Context, key string) (int, error) {
	v, ok := c.GetQuery(key)
	if !ok || v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.Wrap(errors.ErrInvalidInput, key+" must be a non-negative integer")
	}
	return n, nil
}

func nonNil(list []domain.Post) []domain.Post {
	if list == nil {
		return []domain.Post{}
	}
	return list
}
