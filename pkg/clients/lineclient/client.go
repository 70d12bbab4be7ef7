// Package lineclient is the delivery channel adapter over the LINE
// Messaging API. Delivery failures are reported as booleans, never as
// errors: the calling business flow must not fail because a push did not go
// through.
package lineclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/siamclean/dispatch/pkg/core/model"
)

const (
	// DefaultBaseURL is the production LINE Messaging API endpoint.
	DefaultBaseURL = "https://api.line.me"

	// MaxMulticastRecipients is the per-call recipient cap of the multicast
	// endpoint. Larger sets are split into batches of this size.
	MaxMulticastRecipients = 500

	requestTimeout = 10 * time.Second
)

// Client wraps the LINE Messaging API push endpoints.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	channelToken string
	configured   bool
	logger       *zap.Logger
}

// NewClient creates a LINE client. An empty channelToken is tolerated: the
// misconfiguration is logged once here, and every subsequent send
// short-circuits to false instead of crashing the calling flow. baseURL is
// overridable for tests; pass "" for the production endpoint.
func NewClient(channelToken, baseURL string, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	configured := channelToken != ""
	if !configured {
		logger.Error("LINE channel token is not configured; all message sends will fail")
	}
	return &Client{
		httpClient:   &http.Client{Timeout: requestTimeout},
		baseURL:      baseURL,
		channelToken: channelToken,
		configured:   configured,
		logger:       logger,
	}
}

type textMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type pushRequest struct {
	To       string        `json:"to"`
	Messages []textMessage `json:"messages"`
}

type multicastRequest struct {
	To       []string      `json:"to"`
	Messages []textMessage `json:"messages"`
}

// PushOne sends the message to a single recipient. It returns false on any
// network or API failure, logging the recipient for reliability auditing.
func (c *Client) PushOne(ctx context.Context, recipientID string, msg model.NotificationMessage) bool {
	if recipientID == "" {
		return true
	}
	if !c.configured {
		return false
	}

	body := pushRequest{To: recipientID, Messages: []textMessage{{Type: "text", Text: msg.Text}}}
	if err := c.post(ctx, "/v2/bot/message/push", body); err != nil {
		c.logger.Warn("Failed to push message",
			zap.String("recipient_id", recipientID),
			zap.String("event_type", string(msg.EventType)),
			zap.Error(err))
		return false
	}
	return true
}

// Multicast fans the message out to recipientIDs in batches of at most
// MaxMulticastRecipients, one API call per batch. A failing batch does not
// stop the remaining batches; the result is true only when every batch
// succeeded. An empty recipient set is a no-op returning true.
func (c *Client) Multicast(ctx context.Context, recipientIDs []string, msg model.NotificationMessage) bool {
	if len(recipientIDs) == 0 {
		return true
	}
	if !c.configured {
		return false
	}

	allOK := true
	for start := 0; start < len(recipientIDs); start += MaxMulticastRecipients {
		end := start + MaxMulticastRecipients
		if end > len(recipientIDs) {
			end = len(recipientIDs)
		}
		batch := recipientIDs[start:end]

		body := multicastRequest{To: batch, Messages: []textMessage{{Type: "text", Text: msg.Text}}}
		if err := c.post(ctx, "/v2/bot/message/multicast", body); err != nil {
			c.logger.Warn("Failed to multicast batch",
				zap.Int("batch_start", start),
				zap.Int("batch_size", len(batch)),
				zap.String("event_type", string(msg.EventType)),
				zap.Error(err))
			allOK = false
		}
	}
	return allOK
}

func (c *Client) post(ctx context.Context, path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.channelToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &apiError{status: resp.StatusCode, body: string(detail)}
	}
	return nil
}

type apiError struct {
	status int
	body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("LINE API returned status %d: %s", e.status, e.body)
}
