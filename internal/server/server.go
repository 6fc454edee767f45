package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/orgball2608/deso-feed/internal/feed"
	"github.com/orgball2608/deso-feed/internal/page"
	"github.com/orgball2608/deso-feed/internal/posts"
	"github.com/orgball2608/deso-feed/pkg/config"
	"github.com/orgball2608/deso-feed/pkg/logger"
	"go.uber.org/fx"
)

type Opts struct {
	fx.In

	Config   *config.Config
	Logger   logger.Logger
	Posts    posts.Client
	Feed     feed.Client
	Document *page.Document
}

type Server struct {
	config   *config.Config
	logger   logger.Logger
	posts    posts.Client
	feed     feed.Client
	document *page.Document

	engine *gin.Engine
	http   *http.Server
}

func New(opts Opts) *Server {
	if opts.Config.App.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		config:   opts.Config,
		logger:   opts.Logger.WithComponent("Server"),
		posts:    opts.Posts,
		feed:     opts.Feed,
		document: opts.Document,
		engine:   gin.New(),
	}
	s.engine.Use(gin.Recovery(), s.requestLogger())
	s.routes()

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Config.App.Port),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.engine.GET("/", s.documentHandler)
	s.engine.GET("/healthz", s.healthCheckHandler)

	api := s.engine.Group("/api")

	postsGroup := api.Group("/posts")
	postsGroup.GET("", s.postsPageHandler)
	postsGroup.GET("/first", s.firstPageHandler)
	postsGroup.GET("/search", s.searchHandler)
	postsGroup.POST("/filter", s.filterHandler)

	feedGroup := api.Group("/feed")
	feedGroup.POST("/load", s.loadHandler)
	feedGroup.POST("/more", s.loadMoreHandler)
	feedGroup.POST("/reset", s.resetHandler)
	feedGroup.POST("/scroll", s.scrollHandler)
	feedGroup.GET("/state", s.stateHandler)

	api.POST("/sidebar/toggle", s.sidebarToggleHandler)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("Request handled",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
		)
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start binds the listener synchronously and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.http.Addr, err)
	}

	s.logger.Info(fmt.Sprintf("Starting server on %s", s.http.Addr))
	go func() {
		if err := s.http.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Server failed", "error", err)
		}
	}()
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping server")
	return s.http.Shutdown(ctx)
}
