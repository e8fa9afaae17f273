package tracker

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/clustertrack/internal/domain"
)

// ErrMalformedEvent marks an activity payload that could not be decoded.
var ErrMalformedEvent = errors.New("malformed activity event")

type wireEvent struct {
	User json.RawMessage `json:"user"`
	Host string          `json:"host"`
	Type string          `json:"type"`
	At   string          `json:"at"`
}

type wireUser struct {
	Login string `json:"login"`
}

// DecodeActivity decodes one activity payload. The payload may be a single
// event or an array of events; user may be a login string or an object with
// a login field. Items missing a user, host or valid timestamp are skipped.
func DecodeActivity(payload []byte) ([]domain.ActivityEvent, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrMalformedEvent)
	}

	var items []wireEvent
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
	} else {
		var one wireEvent
		if err := json.Unmarshal(trimmed, &one); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
		items = []wireEvent{one}
	}

	events := make([]domain.ActivityEvent, 0, len(items))
	for _, it := range items {
		login := decodeUser(it.User)
		host := domain.NormalizeHost(it.Host)
		if login == "" || host == "" {
			continue
		}
		at, err := domain.ParseTimestamp(it.At)
		if err != nil {
			continue
		}
		events = append(events, domain.ActivityEvent{
			User: login,
			Host: host,
			Type: domain.EventType(it.Type),
			At:   at,
		})
	}
	return events, nil
}

func decodeUser(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var u wireUser
	if err := json.Unmarshal(raw, &u); err == nil {
		return u.Login
	}
	return ""
}

// encodeEvent maps one event to its wire shape for EncodeActivity.
func encodeEvent(ev domain.ActivityEvent) wireEvent {
	user, _ := json.Marshal(ev.User)
	return wireEvent{User: user, Host: ev.Host, Type: string(ev.Type), At: ev.At.UTC().Format(time.RFC3339)}
}

// EncodeActivity renders events in the stream's wire format.
func EncodeActivity(events ...domain.ActivityEvent) ([]byte, error) {
	out := make([]wireEvent, len(events))
	for i, ev := range events {
		out[i] = encodeEvent(ev)
	}
	return json.Marshal(out)
}
