// SPDX-License-Identifier: MIT

// Package server exposes the session over HTTP: transport control, status,
// the waveform overview, preset selection and the live frame socket.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"audiovis/internal/config"
	applog "audiovis/internal/log"
	"audiovis/internal/preset"
	"audiovis/internal/session"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var logger = applog.For("server")

const shutdownTimeout = 5 * time.Second

// Server is the HTTP control surface for one session.
type Server struct {
	router *gin.Engine
	http   *http.Server
}

// New builds the router. frames, when non-nil, is mounted on /ws/frames.
// The gin mode is left to the caller.
func New(cfg config.ServerConfig, s *session.Session, presets preset.Source, frames http.Handler) *Server {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger())
	r.Use(corsFor(cfg.CORSOrigins))

	setupRoutes(r, &handler{session: s, presets: presets}, frames)

	return &Server{
		router: r,
		http: &http.Server{
			Addr:              cfg.Address,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func setupRoutes(r *gin.Engine, h *handler, frames http.Handler) {
	r.GET("/health", h.health)

	api := r.Group("/api")
	{
		api.GET("/status", h.status)
		api.GET("/waveform", h.waveform)

		tr := api.Group("/transport")
		{
			tr.POST("/play", h.play)
			tr.POST("/pause", h.pause)
			tr.POST("/stop", h.stop)
			tr.POST("/seek", h.seek)
			tr.POST("/volume", h.volume)
		}

		api.GET("/presets", h.listPresets)
		api.PUT("/preset/:name", h.setPreset)
	}

	if frames != nil {
		r.GET("/ws/frames", gin.WrapH(frames))
	}
}

// corsFor allows every origin when none are configured.
func corsFor(origins []string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Type"}
	return cors.New(cfg)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debugf("%s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// Handler returns the router for embedding or tests.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx is done and then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		logger.Infof("control API listening on %s", s.http.Addr)
		errc <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
