package app

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// UseCaseEvent captures lightweight execution telemetry for a controller
// operation (reload, scan, paint).
type UseCaseEvent struct {
	Name      string
	Duration  time.Duration
	Success   bool
	Err       error
	Fields    map[string]any
	StartedAt time.Time
}

// UseCaseObserver receives use-case execution events.
type UseCaseObserver interface {
	ObserveUseCase(ctx context.Context, event UseCaseEvent)
}

// NoopUseCaseObserver ignores all events.
type NoopUseCaseObserver struct{}

func (NoopUseCaseObserver) ObserveUseCase(context.Context, UseCaseEvent) {}

type logUseCaseObserver struct {
	logger *slog.Logger
}

// NewLogUseCaseObserver writes use-case events to w as text records.
func NewLogUseCaseObserver(w io.Writer) UseCaseObserver {
	if w == nil {
		return NoopUseCaseObserver{}
	}
	return &logUseCaseObserver{
		logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})),
	}
}

// NewSlogUseCaseObserver reuses an existing logger, so events also land in
// the log book when the logger is backed by one.
func NewSlogUseCaseObserver(l *slog.Logger) UseCaseObserver {
	if l == nil {
		return NoopUseCaseObserver{}
	}
	return &logUseCaseObserver{logger: l}
}

func (o *logUseCaseObserver) ObserveUseCase(ctx context.Context, event UseCaseEvent) {
	attrs := make([]any, 0, 6+len(event.Fields)*2)
	attrs = append(attrs,
		"use_case", event.Name,
		"duration_ms", event.Duration.Milliseconds(),
		"success", event.Success,
	)
	for k, v := range event.Fields {
		attrs = append(attrs, k, v)
	}
	if event.Err != nil {
		attrs = append(attrs, "error", event.Err.Error())
		o.logger.WarnContext(ctx, "tracker_use_case", attrs...)
		return
	}
	o.logger.InfoContext(ctx, "tracker_use_case", attrs...)
}

func (c *Controller) observe(ctx context.Context, name string, started time.Time, err error, fields map[string]any) {
	c.observer.ObserveUseCase(ctx, UseCaseEvent{
		Name:      name,
		Duration:  c.now().Sub(started),
		Success:   err == nil,
		Err:       err,
		Fields:    fields,
		StartedAt: started,
	})
}
