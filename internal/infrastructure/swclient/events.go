package swclient

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Erickgiber/debts-my-clients/internal/domain/offline"
	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

// Event is one server-sent event
type Event struct {
	Name string
	ID   string
	Data string
}

// EventHandler consumes events. Returning an error ends the stream.
type EventHandler func(ctx context.Context, ev Event) error

// Events opens one event stream as clientID and feeds handler until the
// stream ends, handler fails or ctx is done. A clean end of stream returns
// nil.
func (c *Client) Events(ctx context.Context, clientID string, handler EventHandler) error {
	ref := "/sw/events"
	if clientID != "" {
		ref += "?" + url.Values{"client_id": {clientID}}.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolve(ref), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.stream.Do(req)
	if err != nil {
		return fmt.Errorf("open event stream: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	var ev Event
	var data []string
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			if len(data) > 0 || ev.Name != "" {
				ev.Data = strings.Join(data, "\n")
				if err := handler(ctx, ev); err != nil {
					return err
				}
			}
			ev, data = Event{}, nil
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			ev.Name = value
		case "id":
			ev.ID = value
		case "data":
			data = append(data, value)
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("read event stream: %w", err)
	}
	return ctx.Err()
}

// Watch keeps an event stream open, reconnecting with exponential backoff
// until ctx is done. Handler errors and 4xx answers are not retried.
func (c *Client) Watch(ctx context.Context, clientID string, handler EventHandler) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxInterval = 30 * time.Second

	var handlerErr error
	wrapped := func(ctx context.Context, ev Event) error {
		if err := handler(ctx, ev); err != nil {
			handlerErr = err
			return err
		}
		// a delivered event means the connection was healthy
		policy.Reset()
		return nil
	}

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := c.Events(ctx, clientID, wrapped)
		switch {
		case ctx.Err() != nil:
			return struct{}{}, backoff.Permanent(ctx.Err())
		case handlerErr != nil:
			return struct{}{}, backoff.Permanent(handlerErr)
		case isClientError(err):
			return struct{}{}, backoff.Permanent(err)
		case err == nil:
			err = errors.New("event stream closed")
		}
		c.logger.Warn("event stream lost, reconnecting", zap.Error(err))
		return struct{}{}, err
	}, backoff.WithBackOff(policy), backoff.WithMaxElapsedTime(0))
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func isClientError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500
}

// MessageSink receives worker traffic, e.g. an UpdateNotifier
type MessageSink interface {
	HandleMessage(ctx context.Context, msg offline.Message) error
	ControllerChanged(ctx context.Context, version offline.VersionTag)
}

// Dispatch decodes worker events into sink calls. Heartbeats and unknown
// events are skipped.
func Dispatch(sink MessageSink, logger *zap.Logger) EventHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, ev Event) error {
		switch ev.Name {
		case "message":
			var msg offline.Message
			if err := json.Unmarshal([]byte(ev.Data), &msg); err != nil {
				logger.Warn("malformed worker message", zap.String("data", ev.Data), zap.Error(err))
				return nil
			}
			return sink.HandleMessage(ctx, msg)
		case "controllerchange":
			var payload struct {
				Version offline.VersionTag `json:"version"`
			}
			if err := json.Unmarshal([]byte(ev.Data), &payload); err != nil {
				logger.Warn("malformed controller change", zap.String("data", ev.Data), zap.Error(err))
				return nil
			}
			sink.ControllerChanged(ctx, payload.Version)
		case "connected":
			logger.Debug("event stream connected", zap.String("data", ev.Data))
		}
		return nil
	}
}
