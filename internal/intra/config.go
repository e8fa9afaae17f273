package intra

import "time"

// Config holds the intra API endpoints, credentials and paging limits.
type Config struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	CampusID     int

	PerPage        int
	MaxPages       int
	ActiveMaxPages int

	RequestTimeout   time.Duration
	MaxRetries       int
	Backoff          time.Duration
	MaxBackoff       time.Duration
	TokenEarlyExpiry time.Duration
}

// DefaultConfig returns the production endpoints with no credentials.
func DefaultConfig() Config {
	return Config{
		BaseURL:          "https://api.intra.42.fr",
		TokenURL:         "https://api.intra.42.fr/oauth/token",
		CampusID:         1,
		PerPage:          100,
		MaxPages:         10,
		ActiveMaxPages:   5,
		RequestTimeout:   15 * time.Second,
		MaxRetries:       2,
		Backoff:          500 * time.Millisecond,
		MaxBackoff:       5 * time.Second,
		TokenEarlyExpiry: 60 * time.Second,
	}
}

// backoffFor returns the wait before the given retry (1-based).
func (c Config) backoffFor(retry int) time.Duration {
	d := c.Backoff
	for i := 1; i < retry; i++ {
		d *= 2
		if c.MaxBackoff > 0 && d >= c.MaxBackoff {
			return c.MaxBackoff
		}
	}
	if c.MaxBackoff > 0 && d > c.MaxBackoff {
		return c.MaxBackoff
	}
	return d
}
