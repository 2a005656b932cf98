package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/FACorreiaa/stock-alert/internal/domain/portal"
)

const (
	// DefaultChatworkURL is the API host used when api_base_url is unset.
	DefaultChatworkURL = "https://api.chatwork.com"

	// DefaultMessageEndpoint is the message path; {room_id} is substituted.
	DefaultMessageEndpoint = "/v2/rooms/{room_id}/messages"

	// MaxMessageLength is the longest body sent in one request, in characters.
	MaxMessageLength = 10000

	// RequestTimeout bounds each chunk request
	RequestTimeout = 30 * time.Second

	tokenHeader = "X-ChatWorkToken"
)

var (
	ErrMissingToken  = errors.New("CHATWORK_API_TOKEN is not set")
	ErrMissingRoomID = errors.New("chatwork room_id is not set")
)

// Notifier delivers a rendered message.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, message string) error
}

// DeliveryError reports the chunk that failed. Later chunks are not sent.
type DeliveryError struct {
	Chunk      int
	Chunks     int
	StatusCode int
	Body       string
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("chunk %d/%d: request failed: %v", e.Chunk, e.Chunks, e.Err)
	}
	return fmt.Sprintf("chunk %d/%d: HTTP %d: %s", e.Chunk, e.Chunks, e.StatusCode, e.Body)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Chatwork posts messages to one room.
type Chatwork struct {
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
	token   string
	url     string
}

// ChatworkOption customizes a Chatwork notifier.
type ChatworkOption func(*Chatwork)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ChatworkOption {
	return func(c *Chatwork) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

// WithRatePerMinute paces chunk requests. Zero disables pacing.
func WithRatePerMinute(n int) ChatworkOption {
	return func(c *Chatwork) {
		if n <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 1)
	}
}

// WithHTTPClient replaces the HTTP client, keeping its own timeout.
func WithHTTPClient(client *http.Client) ChatworkOption {
	return func(c *Chatwork) {
		c.client = client
	}
}

// NewChatwork builds a notifier from the chatwork settings block.
func NewChatwork(token string, settings portal.ChatworkSettings, logger *slog.Logger, opts ...ChatworkOption) (*Chatwork, error) {
	if token == "" {
		return nil, ErrMissingToken
	}
	roomID := strings.TrimSpace(settings.RoomID.String())
	if roomID == "" {
		return nil, ErrMissingRoomID
	}

	base := strings.TrimRight(settings.APIBaseURL, "/")
	if base == "" {
		base = DefaultChatworkURL
	}
	endpoint := settings.MessageEndpoint
	if endpoint == "" {
		endpoint = DefaultMessageEndpoint
	}

	c := &Chatwork{
		client: &http.Client{Timeout: RequestTimeout},
		logger: logger,
		token:  token,
		url:    base + strings.ReplaceAll(endpoint, "{room_id}", url.PathEscape(roomID)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Chatwork) Name() string {
	return "chatwork"
}

// Notify sends message split into MaxMessageLength chunks. Each chunk gets a
// single attempt; the first failure stops delivery.
func (c *Chatwork) Notify(ctx context.Context, message string) error {
	chunks := Chunk(message, MaxMessageLength)

	for i, body := range chunks {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return &DeliveryError{Chunk: i + 1, Chunks: len(chunks), Err: err}
			}
		}
		if de := c.post(ctx, body); de != nil {
			de.Chunk, de.Chunks = i+1, len(chunks)
			c.logger.Error("chatwork delivery failed",
				slog.Int("chunk", i+1),
				slog.Int("chunks", len(chunks)),
				slog.Any("error", de),
			)
			return de
		}
	}

	c.logger.Info("chatwork message sent", slog.Int("chunks", len(chunks)))
	return nil
}

func (c *Chatwork) post(ctx context.Context, body string) *DeliveryError {
	form := url.Values{"body": {body}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(form.Encode()))
	if err != nil {
		return &DeliveryError{Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(tokenHeader, c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return &DeliveryError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 500))
		return &DeliveryError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
