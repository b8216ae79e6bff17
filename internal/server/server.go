// Package server is the web front end of the mapper: an upload form plus a
// small JSON API for mapping, download, chart and natural-language queries.
package server

import (
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/ginjaninja78/sku-mapper/internal/config"
	"github.com/ginjaninja78/sku-mapper/internal/converter"
	"github.com/ginjaninja78/sku-mapper/internal/llm"
	"github.com/ginjaninja78/sku-mapper/internal/session"
)

//go:embed templates/*.html
var templateFiles embed.FS

// resultStore keeps run results between requests. *session.Store is the
// production implementation.
type resultStore interface {
	Put(res *converter.Result) string
	Get(token string) (*converter.Result, error)
	Delete(token string)
	Len() int
}

// Server is the HTTP server.
type Server struct {
	router    *gin.Engine
	cfg       *config.Config
	converter *converter.Converter
	sessions  resultStore
	answerer  llm.Answerer
}

// NewServer builds the router. answerer handles POST /api/ask.
func NewServer(cfg *config.Config, answerer llm.Answerer) *Server {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		router:    gin.New(),
		cfg:       cfg,
		converter: converter.New(cfg),
		sessions:  session.NewStore(cfg.Server.SessionTTL),
		answerer:  answerer,
	}

	s.router.Use(gin.Recovery(), requestLogger())
	s.router.SetHTMLTemplate(template.Must(template.ParseFS(templateFiles, "templates/*.html")))
	s.setupRoutes()

	return s
}

// setupRoutes registers every route.
func (s *Server) setupRoutes() {
	s.router.GET("/", s.Index)
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": s.sessions.Len()})
	})

	api := s.router.Group("/api")
	{
		api.POST("/map", s.Map)
		api.GET("/download/:token", s.Download)
		api.GET("/chart/:token", s.Chart)
		api.POST("/ask", s.Ask)
		api.DELETE("/session/:token", s.Discard)
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the server on addr and blocks.
func (s *Server) Run(addr string) error {
	log.Info().Str("addr", addr).Msg("Starting web server")
	return s.router.Run(addr)
}

// requestLogger logs one line per request through zerolog.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		evt := log.Debug()
		if c.Writer.Status() >= http.StatusInternalServerError {
			evt = log.Warn()
		}
		evt.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("Request handled")
	}
}
