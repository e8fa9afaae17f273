package intra

import (
	"fmt"
	"io"
	"time"
)

// PageEvent records one paginated API call.
type PageEvent struct {
	Endpoint  string
	Page      int
	Attempt   int
	Records   int
	LatencyMs int64
	Success   bool
	ErrorCode string
}

// Observer receives events about API page fetches.
type Observer interface {
	OnPageFetched(event PageEvent)
}

// LogObserver writes page events to an io.Writer.
type LogObserver struct {
	w io.Writer
}

func NewLogObserver(w io.Writer) *LogObserver {
	return &LogObserver{w: w}
}

func (o *LogObserver) OnPageFetched(event PageEvent) {
	ts := time.Now().UTC().Format(time.RFC3339)
	status := "ok"
	if !event.Success {
		status = "err:" + event.ErrorCode
	}
	fmt.Fprintf(o.w, "[%s] intra_page endpoint=%s page=%d attempt=%d records=%d latency_ms=%d status=%s\n",
		ts, event.Endpoint, event.Page, event.Attempt, event.Records, event.LatencyMs, status)
}

// NoopObserver discards all events.
type NoopObserver struct{}

func (NoopObserver) OnPageFetched(PageEvent) {}
