// Package debugserver is an optional read-only status endpoint: a
// single GET /status route backed by gin, off by default
// (ClientConfig.DebugHTTPAddr == "").
package debugserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/sensorstim/capture2go/internal/session"
)

// Server serves the /status route over the configured address.
type Server struct {
	addr   string
	sess   *session.Session
	log    *logrus.Entry
	engine *gin.Engine
	http   *http.Server
}

// statusResponse is the JSON body of GET /status.
type statusResponse struct {
	State            string `json:"state"`
	SensorState      string `json:"sensorState"`
	QueueDepth       int    `json:"queueDepth"`
	DroppedFromQueue uint64 `json:"droppedFromQueue"`
	LastClockDelayNs int64  `json:"lastClockDelayNs"`
	LastClockOffsetNs int64 `json:"lastClockOffsetNs"`
}

// New builds a Server for sess, listening at addr once Start is called.
func New(addr string, sess *session.Session, log *logrus.Entry) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	s := &Server{addr: addr, sess: sess, log: log, engine: engine}

	engine.GET("/status", s.handleStatus)
	return s
}

func (s *Server) handleStatus(c *gin.Context) {
	sample := s.sess.LastClockSample()
	c.JSON(http.StatusOK, statusResponse{
		State:             s.sess.State().String(),
		SensorState:       s.sess.SensorState().String(),
		QueueDepth:        len(s.sess.Stream()),
		DroppedFromQueue:  s.sess.DroppedFromQueue(),
		LastClockDelayNs:  sample.DelayNs,
		LastClockOffsetNs: sample.OffsetNs,
	})
}

// Start begins serving in a background goroutine. Stop releases the
// listener.
func (s *Server) Start() error {
	s.http = &http.Server{Addr: s.addr, Handler: s.engine}
	errc := make(chan error, 1)
	go func() {
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()
	select {
	case err := <-errc:
		return fmt.Errorf("debugserver: listen on %s: %w", s.addr, err)
	case <-time.After(50 * time.Millisecond):
		return nil
	}
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
