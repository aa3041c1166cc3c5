package wshost

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"chartcap/internal/chart"
	"chartcap/internal/logging"
)

// ErrClosed is returned for requests issued after the connection shut down.
var ErrClosed = errors.New("bridge connection closed")

type request struct {
	ID     int64  `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
}

type wireError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type wireEvent struct {
	Kind    string `json:"kind"`
	Surface int64  `json:"surface"`
	Name    string `json:"name"`
}

type envelope struct {
	ID     int64           `json:"id,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *wireError      `json:"error,omitempty"`
	Event  *wireEvent      `json:"event,omitempty"`
}

type wireSurface struct {
	Handle    int64  `json:"handle"`
	Symbol    string `json:"symbol"`
	Timeframe string `json:"timeframe"`
}

type wireAnnotation struct {
	Surface    int64   `json:"surface"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Color      string  `json:"color"`
	Width      int     `json:"width"`
	Style      int     `json:"style"`
	Label      string  `json:"label,omitempty"`
	Background bool    `json:"background"`
}

// Client is a chart.Host backed by the terminal's websocket bridge.
type Client struct {
	conn    *websocket.Conn
	timeout time.Duration
	logger  *slog.Logger

	writeMu sync.Mutex

	mu      sync.Mutex
	nextID  int64
	pending map[int64]chan envelope
	closed  bool

	events chan chart.Event
	done   chan struct{}
}

// Connect dials the bridge endpoint and starts the read loop.
func Connect(ctx context.Context, url string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial bridge %s: %w", url, err)
	}
	client := &Client{
		conn:    conn,
		timeout: timeout,
		logger:  logging.NewComponentLogger(logger, "wshost"),
		pending: make(map[int64]chan envelope),
		events:  make(chan chart.Event, 64),
		done:    make(chan struct{}),
	}
	go client.readLoop()
	return client, nil
}

// Shutdown closes the connection and fails any in-flight requests.
func (c *Client) Shutdown() error {
	err := c.conn.Close()
	<-c.done
	return err
}

func (c *Client) readLoop() {
	defer func() {
		c.mu.Lock()
		c.closed = true
		for id, ch := range c.pending {
			close(ch)
			delete(c.pending, id)
		}
		c.mu.Unlock()
		close(c.events)
		close(c.done)
	}()

	for {
		var env envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Warn("bridge read failed", logging.Error(err))
			}
			return
		}
		if env.Event != nil {
			c.dispatchEvent(*env.Event)
			continue
		}
		c.mu.Lock()
		ch, ok := c.pending[env.ID]
		if ok {
			delete(c.pending, env.ID)
		}
		c.mu.Unlock()
		if !ok {
			c.logger.Warn("unmatched bridge response", logging.Int64("id", env.ID))
			continue
		}
		ch <- env
	}
}

func (c *Client) dispatchEvent(event wireEvent) {
	out := chart.Event{
		Kind:    chart.EventKind(event.Kind),
		Surface: chart.Handle(event.Surface),
		Name:    event.Name,
	}
	select {
	case c.events <- out:
	default:
		// The exporter resnapshots on the next tick, so a dropped
		// notification only delays it.
		c.logger.Debug("event buffer full, notification dropped")
	}
}

func (c *Client) call(method string, params any, result any) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return fmt.Errorf("%s: %w", method, ErrClosed)
	}
	c.nextID++
	id := c.nextID
	ch := make(chan envelope, 1)
	c.pending[id] = ch
	c.mu.Unlock()

	c.writeMu.Lock()
	err := c.conn.WriteJSON(request{ID: id, Method: method, Params: params})
	c.writeMu.Unlock()
	if err != nil {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return fmt.Errorf("%s: write: %w", method, err)
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()
	select {
	case env, ok := <-ch:
		if !ok {
			return fmt.Errorf("%s: %w", method, ErrClosed)
		}
		if env.Error != nil {
			return &chart.HostError{Op: method, Code: env.Error.Code, Message: env.Error.Message}
		}
		if result != nil && len(env.Result) > 0 {
			if err := json.Unmarshal(env.Result, result); err != nil {
				return fmt.Errorf("%s: decode result: %w", method, err)
			}
		}
		return nil
	case <-timer.C:
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return fmt.Errorf("%s: bridge timeout after %s", method, c.timeout)
	}
}

// Surfaces implements chart.Host. Enumeration failures surface as an empty
// set; callers treat missing surfaces and absent surfaces alike.
func (c *Client) Surfaces() []chart.Surface {
	var wire []wireSurface
	if err := c.call("surfaces", nil, &wire); err != nil {
		c.logger.Warn("surface enumeration failed", logging.Error(err))
		return nil
	}
	surfaces := make([]chart.Surface, 0, len(wire))
	for _, s := range wire {
		timeframe, ok := chart.ParseTimeframe(s.Timeframe)
		if !ok {
			continue
		}
		surfaces = append(surfaces, chart.Surface{
			Handle:    chart.Handle(s.Handle),
			Symbol:    s.Symbol,
			Timeframe: timeframe,
		})
	}
	return surfaces
}

func (c *Client) Open(symbol string, timeframe chart.Timeframe) (chart.Handle, error) {
	var result struct {
		Handle int64 `json:"handle"`
	}
	err := c.call("open", map[string]any{
		"symbol":    symbol,
		"timeframe": string(timeframe),
	}, &result)
	if err != nil {
		return 0, err
	}
	return chart.Handle(result.Handle), nil
}

func (c *Client) Close(handle chart.Handle) error {
	return c.call("close", map[string]any{"surface": int64(handle)}, nil)
}

func (c *Client) Annotations(handle chart.Handle) ([]chart.Annotation, error) {
	var wire []wireAnnotation
	if err := c.call("annotations", map[string]any{"surface": int64(handle)}, &wire); err != nil {
		return nil, err
	}
	annotations := make([]chart.Annotation, 0, len(wire))
	for _, a := range wire {
		annotations = append(annotations, chart.Annotation{
			Surface:    chart.Handle(a.Surface),
			Name:       a.Name,
			Price:      a.Price,
			Color:      a.Color,
			Width:      a.Width,
			Style:      chart.LineStyle(a.Style),
			Label:      a.Label,
			Background: a.Background,
		})
	}
	return annotations, nil
}

func (c *Client) CreateAnnotation(annotation chart.Annotation) error {
	return c.call("annotation.create", wireAnnotation{
		Surface:    int64(annotation.Surface),
		Name:       annotation.Name,
		Price:      annotation.Price,
		Color:      annotation.Color,
		Width:      annotation.Width,
		Style:      int(annotation.Style),
		Label:      annotation.Label,
		Background: annotation.Background,
	}, nil)
}

func (c *Client) DeleteAnnotation(handle chart.Handle, name string) error {
	return c.call("annotation.delete", map[string]any{
		"surface": int64(handle),
		"name":    name,
	}, nil)
}

func (c *Client) Redraw(handle chart.Handle) error {
	return c.call("redraw", map[string]any{"surface": int64(handle)}, nil)
}

func (c *Client) CaptureImage(handle chart.Handle, width, height int, path string) error {
	return c.call("capture", map[string]any{
		"surface": int64(handle),
		"width":   width,
		"height":  height,
		"path":    path,
	}, nil)
}

func (c *Client) Events() <-chan chart.Event {
	return c.events
}
