package mailclient

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// Client wraps the Gmail API client used for operator audit mail. It runs
// headless: the refresh token is provisioned out of band and exchanged for
// access tokens automatically.
type Client struct {
	service      *gmail.Service
	sender       string
	opsInbox     string
	lastSendTime time.Time
	sendMutex    sync.Mutex
}

// Config holds everything needed to construct the mailer.
type Config struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	Sender       string
	OpsInbox     string
}

// NewClient creates a new Gmail client from a refresh token.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	oauthConfig := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gmail.GmailSendScope},
	}

	token := &oauth2.Token{RefreshToken: cfg.RefreshToken}
	httpClient := oauthConfig.Client(ctx, token)

	service, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}

	return &Client{
		service:  service,
		sender:   cfg.Sender,
		opsInbox: cfg.OpsInbox,
	}, nil
}
