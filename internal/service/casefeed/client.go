package casefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"EpiWatch/internal/domain/models"
	drepo "EpiWatch/internal/domain/repository"
	"EpiWatch/pkg/logger"

	"github.com/gorilla/websocket"
)

// Client implements a CaseStream backed by a surveillance-feed WebSocket.
// The feed pushes case reports for subscribed regions as they are filed.
type Client struct {
	apiKey         string
	websocketURL   string
	regions        []string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	log            *logger.Logger

	conn      *websocket.Conn
	connected bool
}

// New creates a new surveillance-feed CaseStream.
func New(apiKey, websocketURL string, regions []string, reconnectDelay, pingInterval time.Duration, l *logger.Logger) drepo.CaseStream {
	return &Client{
		apiKey:         apiKey,
		websocketURL:   websocketURL,
		regions:        regions,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		log:            l,
	}
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	u := fmt.Sprintf("%s?token=%s", c.websocketURL, c.apiKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("casefeed connect: %w", err)
	}
	c.conn = conn
	c.connected = true
	c.log.Info("casefeed connected")
	return nil
}

// Subscribe subscribes to configured regions.
func (c *Client) Subscribe(ctx context.Context) error {
	if c.conn == nil || !c.connected {
		return fmt.Errorf("casefeed not connected")
	}
	for _, r := range c.regions {
		msg := map[string]string{"type": "subscribe", "region": r}
		if err := c.conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", r, err)
		}
		c.log.Info("casefeed subscribed", logger.String("region", r))
	}
	return nil
}

type feedCase struct {
	ID       string `json:"id"`
	Disease  string `json:"disease"`
	Location string `json:"location"`
	Age      int    `json:"age"`
	Gender   string `json:"gender"`
	T        int64  `json:"t"` // ms
}

type feedMessage struct {
	Type string     `json:"type"`
	Data []feedCase `json:"data"`
}

// Read streams case reports and errors.
func (c *Client) Read(ctx context.Context) (<-chan *models.CaseRecord, <-chan error) {
	cases := make(chan *models.CaseRecord, 1024)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if c.conn != nil {
					_ = c.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(cases)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if c.conn == nil {
					errs <- fmt.Errorf("casefeed conn nil")
					return
				}
				_, b, err := c.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("casefeed read: %w", err)
					return
				}
				var m feedMessage
				if err := json.Unmarshal(b, &m); err != nil {
					// ignore non-case frames
					continue
				}
				if m.Type != "case" {
					continue
				}
				for _, d := range m.Data {
					if d.Disease == "" || d.Location == "" {
						continue
					}
					rec := &models.CaseRecord{
						ID:         d.ID,
						Disease:    d.Disease,
						Location:   d.Location,
						Age:        d.Age,
						Gender:     d.Gender,
						ReportedAt: time.UnixMilli(d.T).UTC(),
						Source:     "feed",
					}
					select {
					case cases <- rec:
					default:
						// drop on backpressure
					}
				}
			}
		}
	}()

	return cases, errs
}

// Reconnect closes and reconnects.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	time.Sleep(c.reconnectDelay)
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close closes the WS connection.
func (c *Client) Close() error {
	c.connected = false
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (c *Client) IsConnected() bool { return c.connected }
