package intra

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// credentialsSource requests a fresh client-credentials token on every call.
// Caching is left to the ReuseTokenSourceWithExpiry wrapper.
type credentialsSource struct {
	ctx context.Context
	cfg *clientcredentials.Config
}

func (s credentialsSource) Token() (*oauth2.Token, error) {
	tok, err := s.cfg.Token(s.ctx)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, fmt.Errorf("%w: token request: %v", ErrTransient, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrAuth, err)
	}
	return tok, nil
}

// NewTokenSource returns a cached token source that refreshes the token
// TokenEarlyExpiry before it expires. Token requests are bounded by
// RequestTimeout. hc should not be the traffic-observing API client: token
// responses carry the bearer.
func NewTokenSource(cfg Config, hc *http.Client) oauth2.TokenSource {
	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	return oauth2.ReuseTokenSourceWithExpiry(nil, credentialsSource{
		ctx: context.WithValue(context.Background(), oauth2.HTTPClient, boundedClient(hc, cfg)),
		cfg: cc,
	}, cfg.TokenEarlyExpiry)
}

// boundedClient copies hc, or a plain client when nil, and applies
// RequestTimeout when no timeout is set.
func boundedClient(hc *http.Client, cfg Config) *http.Client {
	out := &http.Client{}
	if hc != nil {
		*out = *hc
	}
	if out.Timeout == 0 && cfg.RequestTimeout > 0 {
		out.Timeout = cfg.RequestTimeout
	}
	return out
}
