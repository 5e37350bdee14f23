// Package rest exposes a stroming.StreamStore over HTTP.
//
//	GET  /stream/:name   read a stream (?direction=forwards|backwards)
//	POST /stream/:name   write to a stream
//	GET  /all            read every stream by global position (?from, ?direction, ?limit)
//	GET  /healthz        liveness
package rest

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/terraskye/stroming"
)

const shutdownTimeout = 5 * time.Second

// NewServer builds the HTTP surface for store.
func NewServer(store stroming.StreamStore, logger *logrus.Entry) *Server {
	router := gin.New()
	router.Use(gin.Recovery(), correlation(), requestLogger(logger))

	s := &Server{store: store, logger: logger, router: router}
	router.GET("/stream/:name", s.readStream)
	router.POST("/stream/:name", s.writeStream)
	router.GET("/all", s.readAll)
	router.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return s
}

// Server serves the stream store over HTTP.
type Server struct {
	store  stroming.StreamStore
	logger *logrus.Entry
	router *gin.Engine
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", ln.Addr().String()).Info("http transport listening")
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http transport: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Run listens on addr and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

func (s *Server) readStream(c *gin.Context) {
	direction, err := stroming.ParseDirection(c.Query("direction"))
	if err != nil {
		c.String(http.StatusBadRequest, "%s", err)
		return
	}

	ctx := s.streamContext(c)
	version, messages, err := s.store.ReadFromStream(ctx, c.Param("name"), direction)
	if err != nil {
		s.storeFailure(c, err)
		return
	}

	resp := readStreamResponse{
		Revision: stroming.FormatVersion(version),
		Messages: make([]streamMessageDTO, 0, len(messages)),
	}
	for i := range messages {
		resp.Messages = append(resp.Messages, toStreamMessageDTO(&messages[i], false))
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) writeStream(c *gin.Context) {
	var req writeStreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "Malformed request body: %v", err)
		return
	}

	expected, err := stroming.ParseExpectedVersion(req.ExpectedVersion)
	if err != nil {
		c.String(http.StatusBadRequest, "%s", err)
		return
	}

	messages := make([]stroming.MessageData, len(req.Messages))
	for i, m := range req.Messages {
		data, err := canonicalJSON(m.Data)
		if err != nil {
			c.String(http.StatusBadRequest, "Malformed data in message %d: %v", i, err)
			return
		}
		messages[i] = stroming.MessageData{MessageType: m.MessageType, Data: data}
	}

	res, err := s.store.WriteToStream(s.streamContext(c), c.Param("name"), expected, messages)
	if err != nil {
		s.storeFailure(c, err)
		return
	}

	switch r := res.(type) {
	case stroming.WrongExpectedVersion:
		c.String(http.StatusConflict, "Wrong expected version")
	case stroming.WriteOk:
		c.JSON(http.StatusOK, writeResultResponse{
			Position: strconv.FormatUint(r.Position.GlobalPosition, 10),
			Revision: strconv.FormatUint(r.Position.Revision, 10),
		})
	default:
		s.storeFailure(c, fmt.Errorf("unexpected write result %T", res))
	}
}

// streamContext tags the request with the stream it targets so the request
// log can name it.
func (s *Server) streamContext(c *gin.Context) context.Context {
	ctx := stroming.WithStreamName(c.Request.Context(), c.Param("name"))
	c.Request = c.Request.WithContext(ctx)
	return ctx
}

func (s *Server) readAll(c *gin.Context) {
	direction, err := stroming.ParseDirection(c.Query("direction"))
	if err != nil {
		c.String(http.StatusBadRequest, "%s", err)
		return
	}

	from := uint64(0)
	if direction == stroming.Backwards {
		from = ^uint64(0)
	}
	if v := c.Query("from"); v != "" {
		if from, err = strconv.ParseUint(v, 10, 64); err != nil {
			c.String(http.StatusBadRequest, "invalid from %q", v)
			return
		}
	}

	limit := -1
	if v := c.Query("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit < 0 {
			c.String(http.StatusBadRequest, "invalid limit %q", v)
			return
		}
	}

	ctx := c.Request.Context()
	iter, err := s.store.ReadAll(ctx, from, direction)
	if err != nil {
		s.storeFailure(c, err)
		return
	}
	defer iter.Close()

	resp := readAllResponse{Messages: make([]streamMessageDTO, 0)}
	for (limit < 0 || len(resp.Messages) < limit) && iter.Next(ctx) {
		resp.Messages = append(resp.Messages, toStreamMessageDTO(iter.Value(), true))
	}
	if err := iter.Err(); err != nil {
		s.storeFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) storeFailure(c *gin.Context, err error) {
	switch {
	case errors.Is(err, stroming.ErrInvalidStreamName):
		c.String(http.StatusBadRequest, "%s", err)
	case errors.Is(err, stroming.ErrStoreClosed):
		c.String(http.StatusServiceUnavailable, "Stream store unavailable")
	default:
		s.logger.WithContext(c.Request.Context()).WithError(err).Error("stream store operation failed")
		c.String(http.StatusInternalServerError, "Internal server error")
	}
}
