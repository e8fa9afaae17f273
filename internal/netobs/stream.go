package netobs

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// ActivityEventName is the SSE event type carrying login/logout activity.
const ActivityEventName = "activity"

// Event is one server-sent event.
type Event struct {
	ID   string
	Type string
	Data string
}

// ReadEvents parses a text/event-stream body and calls fn for each
// dispatched event. It returns when r is exhausted or fn returns an error.
func ReadEvents(r io.Reader, fn func(Event) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var ev Event
	var data []string
	dispatch := func() error {
		if len(data) == 0 {
			ev = Event{}
			return nil
		}
		ev.Data = strings.Join(data, "\n")
		if ev.Type == "" {
			ev.Type = "message"
		}
		out := ev
		ev, data = Event{}, nil
		return fn(out)
	}

	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			if err := dispatch(); err != nil {
				return err
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			ev.Type = value
		case "data":
			data = append(data, value)
		case "id":
			ev.ID = value
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return dispatch()
}

// Stream follows the cluster map's activity stream and forwards activity
// payloads to an Observer, reconnecting after failures.
type Stream struct {
	URL        string
	Cookie     string
	Client     *http.Client
	Observer   Observer
	Logger     *slog.Logger
	RetryDelay time.Duration
}

// Run blocks until ctx is done.
func (s *Stream) Run(ctx context.Context) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	delay := s.RetryDelay
	if delay <= 0 {
		delay = 5 * time.Second
	}
	for {
		err := s.once(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn("activity stream disconnected", "url", s.URL, "error", err)

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

func (s *Stream) once(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return fmt.Errorf("creating stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	if s.Cookie != "" {
		req.Header.Set("Cookie", s.Cookie)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stream returned status %d", resp.StatusCode)
	}

	err = ReadEvents(resp.Body, func(ev Event) error {
		if ev.Type == ActivityEventName && ev.Data != "" && s.Observer != nil {
			s.Observer.OnActivityEvent([]byte(ev.Data))
		}
		return nil
	})
	if err == nil {
		err = io.ErrUnexpectedEOF
	}
	return err
}
