package remote

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"time"

	"github.com/imroc/req/v3"
)

// Client is a single-attempt HTTP client for the remote service. It
// deliberately carries no retry-with-backoff loop: retries happen
// implicitly via the next scheduled task pass, not inside one request.
type Client struct {
	http   *req.Client
	logger *slog.Logger
}

// Config configures a Client.
type Config struct {
	BaseURL     string
	AccessToken string
	Timeout     time.Duration
}

// New builds a Client against baseURL, injecting the bearer token when one
// is configured.
func New(cfg Config, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := req.C().
		SetBaseURL(cfg.BaseURL).
		SetTLSClientConfig(&tls.Config{MinVersion: tls.VersionTLS12}).
		SetTimeout(timeout).
		SetJsonMarshal(jsonMarshal).
		SetJsonUnmarshal(jsonUnmarshal)

	if cfg.AccessToken != "" {
		c.SetCommonBearerAuthToken(cfg.AccessToken)
	}

	return &Client{http: c, logger: logger}
}

// SetAccessToken updates the bearer token used on subsequent requests, for
// collaborator layers that refresh tokens on an independent loop.
func (c *Client) SetAccessToken(token string) {
	c.http.SetCommonBearerAuthToken(token)
}

// Ping is a connectivity/auth probe: a list of the root with page 0 that
// only checks the envelope succeeds.
func (c *Client) Ping(ctx context.Context) error {
	_, _, err := c.List(ctx, "", 0)
	return err
}

// decodeEnvelope inspects env.Code after a request and returns the
// corresponding error, or nil on success.
func decodeEnvelope(env envelope, err error) error {
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}

	return classifyCode(env.Code, env.Msg)
}
