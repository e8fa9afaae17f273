package netobs

import (
	"log/slog"
	"time"
)

// TrafficRecord describes one outbound call seen by Transport.
type TrafficRecord struct {
	Method   string
	URL      string
	Status   int
	Duration time.Duration
	Body     string // response excerpt
	Err      string
}

// Observer receives what the network layer sees. Implementations must not
// block.
type Observer interface {
	OnActivityEvent(payload []byte)
	OnTrafficObserved(rec TrafficRecord)
}

// Funcs adapts plain functions to Observer. Nil fields are ignored.
type Funcs struct {
	Activity func(payload []byte)
	Traffic  func(rec TrafficRecord)
}

func (f Funcs) OnActivityEvent(payload []byte) {
	if f.Activity != nil {
		f.Activity(payload)
	}
}

func (f Funcs) OnTrafficObserved(rec TrafficRecord) {
	if f.Traffic != nil {
		f.Traffic(rec)
	}
}

// LogObserver logs traffic records; activity payloads are logged at debug.
type LogObserver struct {
	logger *slog.Logger
}

func NewLogObserver(l *slog.Logger) *LogObserver {
	if l == nil {
		l = slog.Default()
	}
	return &LogObserver{logger: l}
}

func (o *LogObserver) OnActivityEvent(payload []byte) {
	o.logger.Debug("activity event", "bytes", len(payload))
}

func (o *LogObserver) OnTrafficObserved(rec TrafficRecord) {
	attrs := []any{
		"method", rec.Method,
		"url", rec.URL,
		"status", rec.Status,
		"duration_ms", rec.Duration.Milliseconds(),
	}
	if rec.Err != "" {
		o.logger.Warn("intercepted call failed", append(attrs, "error", rec.Err)...)
		return
	}
	o.logger.Info("intercepted call", append(attrs, "response", rec.Body)...)
}

// Multi fans events out to several observers.
type Multi []Observer

func (m Multi) OnActivityEvent(payload []byte) {
	for _, o := range m {
		o.OnActivityEvent(payload)
	}
}

func (m Multi) OnTrafficObserved(rec TrafficRecord) {
	for _, o := range m {
		o.OnTrafficObserved(rec)
	}
}
