// Package server exposes the bridge's HTTP surface.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/withObsrvr/obsrvr-avro-bridge/internal/config"
	"github.com/withObsrvr/obsrvr-avro-bridge/internal/loader"
	"github.com/withObsrvr/obsrvr-avro-bridge/internal/logging"
	"github.com/withObsrvr/obsrvr-avro-bridge/internal/metrics"
	"github.com/withObsrvr/obsrvr-avro-bridge/internal/notify"
	"github.com/withObsrvr/obsrvr-avro-bridge/internal/storage"
)

// Loader runs the dual-load lifecycle for a notified object.
type Loader interface {
	Load(ctx context.Context, ref storage.ObjectRef) (loader.Result, error)
}

// Server routes push notifications to the load orchestrator.
type Server struct {
	cfg     config.Config
	loader  Loader
	metrics *metrics.Metrics
	engine  *gin.Engine
	log     *slog.Logger
}

// New builds the router.
func New(cfg config.Config, ld Loader, m *metrics.Metrics) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		cfg:     cfg,
		loader:  ld,
		metrics: m,
		log:     logging.Component("server"),
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), s.requestLogger())

	engine.GET("/", s.index)
	engine.POST("/load", s.load)
	if cfg.Metrics.Enabled {
		engine.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	s.engine = engine
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// index is the liveness probe.
func (s *Server) index(c *gin.Context) {
	c.String(http.StatusOK, "index")
}

// load handles a Pub/Sub push notification for an object-finalize event.
func (s *Server) load(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		s.reject(c, notify.ErrInvalidEnvelope.Error())
		return
	}

	ref, err := notify.Parse(body)
	if err != nil {
		s.reject(c, err.Error())
		return
	}

	if ref.Bucket != s.cfg.Load.Bucket {
		s.reject(c, fmt.Sprintf("Error: Invalid Cloud Storage notification: unexpected bucket %q", ref.Bucket))
		return
	}

	s.metrics.Notification("accepted")

	res, err := s.loader.Load(c.Request.Context(), ref)
	if err != nil {
		s.log.Error("load failed",
			"request_id", logging.RequestID(c.Request.Context()),
			"object", ref.String(),
			"state", string(res.State),
			"error", err,
		)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Status(http.StatusOK)
}

func (s *Server) reject(c *gin.Context, msg string) {
	s.metrics.Notification("rejected")
	s.log.Error(msg, "request_id", logging.RequestID(c.Request.Context()))
	c.String(http.StatusBadRequest, msg)
}

// requestLogger assigns each request an ID and logs its outcome.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := logging.GenerateRequestID()
		ctx := logging.WithRequestID(c.Request.Context(), id)
		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		c.Next()

		s.log.Info("request",
			"request_id", id,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
		)
	}
}
