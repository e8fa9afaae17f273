package netobs

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"time"
)

// interestingFragments select the calls worth logging: anything touching
// the API, locations or star claims.
var interestingFragments = []string{"api", "locations", "stars", "claims", "users", "matrix"}

// Token exchanges are never recorded: their responses carry the bearer.
var excludedFragments = []string{"/oauth/", "/token"}

// BodyExcerptLimit caps the response bytes copied into a TrafficRecord.
const BodyExcerptLimit = 1000

// Interesting reports whether a call would be recorded.
func Interesting(method, url string) bool {
	if strings.EqualFold(method, http.MethodGet) || method == "" {
		return false
	}
	for _, f := range excludedFragments {
		if strings.Contains(url, f) {
			return false
		}
	}
	for _, f := range interestingFragments {
		if strings.Contains(url, f) {
			return true
		}
	}
	return false
}

// Transport decorates an http.RoundTripper and reports non-GET calls to
// interesting endpoints. The response body is passed through untouched.
type Transport struct {
	Base     http.RoundTripper
	Observer Observer
}

func NewTransport(base http.RoundTripper, obs Observer) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{Base: base, Observer: obs}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Observer == nil || !Interesting(req.Method, req.URL.String()) {
		return t.Base.RoundTrip(req)
	}

	start := time.Now()
	resp, err := t.Base.RoundTrip(req)
	rec := TrafficRecord{
		Method:   strings.ToUpper(req.Method),
		URL:      req.URL.String(),
		Duration: time.Since(start),
	}
	if err != nil {
		rec.Err = err.Error()
		t.Observer.OnTrafficObserved(rec)
		return nil, err
	}

	rec.Status = resp.StatusCode
	if resp.Body != nil {
		head, readErr := io.ReadAll(io.LimitReader(resp.Body, BodyExcerptLimit))
		rec.Body = string(head)
		if readErr != nil {
			rec.Err = readErr.Error()
		}
		resp.Body = &replayBody{Reader: io.MultiReader(bytes.NewReader(head), resp.Body), closer: resp.Body}
	}
	t.Observer.OnTrafficObserved(rec)
	return resp, nil
}

type replayBody struct {
	io.Reader
	closer io.Closer
}

func (b *replayBody) Close() error { return b.closer.Close() }
