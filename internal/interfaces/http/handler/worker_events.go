package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Erickgiber/debts-my-clients/internal/domain/offline"
	"github.com/Erickgiber/debts-my-clients/internal/infrastructure/logger"
	"github.com/Erickgiber/debts-my-clients/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SSE event names
const (
	EventConnected        = "connected"
	EventMessage          = "message"
	EventControllerChange = "controllerchange"
	EventHeartbeat        = "heartbeat"
)

const sseBufferSize = 100

var errClientSlow = errors.New("sse client buffer full")

// SSEMessage is one server-sent event
type SSEMessage struct {
	Event string
	ID    string
	Data  string
}

// ControllerChangedEvent is the payload of a controllerchange event
type ControllerChangedEvent struct {
	Version offline.VersionTag `json:"version"`
}

// sseClient is a foreground context connected over an event stream. The
// registry delivers worker messages and controller changes through it.
type sseClient struct {
	id     string
	ch     chan SSEMessage
	seq    atomic.Uint64
	logger *zap.Logger

	mu     sync.Mutex
	closed bool
}

func newSSEClient(id string, logger *zap.Logger) *sseClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &sseClient{
		id:     id,
		ch:     make(chan SSEMessage, sseBufferSize),
		logger: logger,
	}
}

// ID implements offline.Client
func (s *sseClient) ID() string { return s.id }

// PostMessage implements offline.Client
func (s *sseClient) PostMessage(_ context.Context, msg offline.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	return s.push(EventMessage, string(data))
}

// ControllerChanged implements offline.ControllerObserver
func (s *sseClient) ControllerChanged(_ context.Context, version offline.VersionTag) {
	data, _ := json.Marshal(ControllerChangedEvent{Version: version})
	if err := s.push(EventControllerChange, string(data)); err != nil {
		s.logger.Warn("controller change dropped", zap.Error(err))
	}
}

func (s *sseClient) push(event, data string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	msg := SSEMessage{
		Event: event,
		ID:    strconv.FormatUint(s.seq.Add(1), 10),
		Data:  data,
	}
	select {
	case s.ch <- msg:
		return nil
	default:
		return errClientSlow
	}
}

func (s *sseClient) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// WorkerEventsHandler streams worker messages to connected foreground
// contexts. Each stream is registered with the registry as a client.
type WorkerEventsHandler struct {
	BaseHandler
	registry   WorkerRegistry
	logger     *zap.Logger
	heartbeat  time.Duration
	maxClients int

	active   atomic.Int64
	done     chan struct{}
	stopOnce sync.Once
}

// WorkerEventsOption configures a WorkerEventsHandler
type WorkerEventsOption func(*WorkerEventsHandler)

// WithEventsLogger sets the logger
func WithEventsLogger(logger *zap.Logger) WorkerEventsOption {
	return func(h *WorkerEventsHandler) {
		h.logger = logger
	}
}

// WithEventsHeartbeat sets the heartbeat interval
func WithEventsHeartbeat(interval time.Duration) WorkerEventsOption {
	return func(h *WorkerEventsHandler) {
		if interval > 0 {
			h.heartbeat = interval
		}
	}
}

// WithEventsMaxClients caps concurrent streams. Zero means unlimited.
func WithEventsMaxClients(n int) WorkerEventsOption {
	return func(h *WorkerEventsHandler) {
		h.maxClients = n
	}
}

// NewWorkerEventsHandler creates the event stream handler
func NewWorkerEventsHandler(registry WorkerRegistry, opts ...WorkerEventsOption) *WorkerEventsHandler {
	h := &WorkerEventsHandler{
		registry:   registry,
		logger:     zap.NewNop(),
		heartbeat:  30 * time.Second,
		maxClients: 1000,
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Stop ends every open stream. Call it before shutting the server down.
func (h *WorkerEventsHandler) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
		h.logger.Info("worker event streams stopped")
	})
}

// ClientCount returns the number of open streams
func (h *WorkerEventsHandler) ClientCount() int {
	return int(h.active.Load())
}

// Stream handles GET /sw/events
func (h *WorkerEventsHandler) Stream(c *gin.Context) {
	if h.maxClients > 0 && h.ClientCount() >= h.maxClients {
		h.ErrorWithCode(c, dto.ErrCodeUnavailable, "Maximum number of event streams reached")
		return
	}
	select {
	case <-h.done:
		h.ErrorWithCode(c, dto.ErrCodeUnavailable, "Server is shutting down")
		return
	default:
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	id := c.Query("client_id")
	if id == "" || len(id) > 64 {
		id = uuid.NewString()
	}
	ctx, log := logger.WithClientID(c.Request.Context(), h.logger, id)

	client := newSSEClient(id, log)
	h.active.Add(1)
	controller := h.registry.Connect(client)
	defer func() {
		h.registry.Disconnect(id)
		client.close()
		h.active.Add(-1)
	}()
	log.Info("event stream connected", zap.String("controller", controller.String()))

	hello, _ := json.Marshal(gin.H{
		"client_id":  id,
		"controller": controller,
		"timestamp":  time.Now().Unix(),
	})
	h.sendEvent(c.Writer, SSEMessage{Event: EventConnected, Data: string(hello)})
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("event stream disconnected")
			return
		case <-h.done:
			log.Info("event stream closed by server")
			return
		case <-ticker.C:
			h.sendEvent(c.Writer, SSEMessage{
				Event: EventHeartbeat,
				Data:  fmt.Sprintf(`{"timestamp":%d}`, time.Now().Unix()),
			})
			c.Writer.Flush()
		case msg, ok := <-client.ch:
			if !ok {
				return
			}
			h.sendEvent(c.Writer, msg)
			c.Writer.Flush()
		}
	}
}

func (h *WorkerEventsHandler) sendEvent(w io.Writer, msg SSEMessage) {
	if msg.Event != "" {
		fmt.Fprintf(w, "event: %s\n", msg.Event)
	}
	if msg.ID != "" {
		fmt.Fprintf(w, "id: %s\n", msg.ID)
	}
	fmt.Fprintf(w, "data: %s\n\n", msg.Data)
}
