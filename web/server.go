// ABOUTME: Web form server with embedded templates, built on gin
// ABOUTME: Serves the lookup and correction form plus a small JSON API
package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/harperreed/contatos/config"
	"github.com/harperreed/contatos/session"
)

//go:embed templates/*
var templatesFS embed.FS

type Server struct {
	sess      *session.Session
	cfg       *config.Config
	templates *template.Template
	router    *gin.Engine
}

func NewServer(sess *session.Session, cfg *config.Config) (*Server, error) {
	funcMap := template.FuncMap{
		"orDash": func(s string) string {
			if strings.TrimSpace(s) == "" {
				return "-"
			}
			return s
		},
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		sess:      sess,
		cfg:       cfg,
		templates: tmpl,
		router:    gin.New(),
	}
	s.router.Use(gin.Recovery(), s.requestLogger())
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleIndex)
	s.router.GET("/lookup", s.handleLookup)
	s.router.POST("/submit", s.handleSubmit)
	s.router.GET("/healthz", s.handleHealth)

	api := s.router.Group("/api")
	{
		api.GET("/members", s.apiMembers)
		api.GET("/submissions", s.apiListSubmissions)
		api.POST("/submissions", s.apiSubmit)
		api.POST("/submissions/:id/retry", s.apiRetry)
		api.GET("/target", s.apiTarget)
	}
}

// Handler exposes the router for tests and custom listeners.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.sess.Logger().Info().Str("addr", addr).Msg("web server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("web server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down web server: %w", err)
		}
		return nil
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.sess.Logger().Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	}
}

func (s *Server) renderTemplate(c *gin.Context, status int, name string, data gin.H) {
	data["ContentTemplate"] = name
	data["Setoriais"] = s.cfg.Setoriais

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		s.sess.Logger().Error().Err(err).Str("template", name).Msg("template render failed")
		c.String(http.StatusInternalServerError, "Template error")
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}
