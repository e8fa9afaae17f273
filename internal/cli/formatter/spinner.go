package formatter

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Braille dot spinner frames.
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner animates a message on w while a fetch runs. It writes to stderr
// in practice so piped stdout stays clean.
type Spinner struct {
	w        io.Writer
	mu       sync.Mutex
	message  string
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func NewSpinner(w io.Writer, message string) *Spinner {
	return &Spinner{
		w:       w,
		message: message,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// SetMessage swaps the text shown next to the spinner.
func (s *Spinner) SetMessage(msg string) {
	s.mu.Lock()
	s.message = msg
	s.mu.Unlock()
}

// Start begins the spinner animation. Call Stop() to end it.
func (s *Spinner) Start() {
	go func() {
		defer close(s.done)
		i := 0
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				fmt.Fprint(s.w, "\r\033[K")
				return
			case <-ticker.C:
				s.mu.Lock()
				msg := s.message
				s.mu.Unlock()
				frame := spinnerFrames[i%len(spinnerFrames)]
				fmt.Fprintf(s.w, "\r  %s %s", StylePurple.Render(frame), Dim(msg))
				i++
			}
		}
	}()
}

// Stop ends the spinner animation and clears the line. Safe to call twice.
func (s *Spinner) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
}

// StartSpinner starts a spinner on w and returns its stop function. A nil
// writer gets a no-op.
func StartSpinner(w io.Writer, message string) func() {
	if w == nil {
		return func() {}
	}
	s := NewSpinner(w, message)
	s.Start()
	return s.Stop
}
