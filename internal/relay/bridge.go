package relay

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/alexanderramin/clustertrack/internal/domain"
	"github.com/alexanderramin/clustertrack/internal/intra"
)

var (
	// ErrTimeout indicates no response arrived before the caller's deadline.
	ErrTimeout = errors.New("relay request timed out")

	// ErrTransport indicates the far side answered with a failure.
	ErrTransport = errors.New("relay transport failure")

	// ErrClosed indicates the bridge was shut down.
	ErrClosed = errors.New("relay closed")
)

// Action names a relayed operation.
type Action string

const (
	ActionFetchLocations    Action = "fetchLocations"
	ActionFetchCampusStatus Action = "fetchCampusStatus"
)

// Request is one relayed call. ID is assigned by Send.
type Request struct {
	ID     string
	Action Action
	Login  string
}

// Response answers the Request with the same ID.
type Response struct {
	ID        string
	Success   bool
	Locations []domain.RawLocation
	Hosts     []string
	Error     string
	// Code names the fetch error kind so the caller can match it with
	// errors.Is. Empty for bridge-level failures.
	Code string
}

// remoteError is a failure reported by the far side, unwrapping to the
// fetch sentinel named by its code.
type remoteError struct {
	msg  string
	kind error
}

func (e *remoteError) Error() string { return e.msg }
func (e *remoteError) Unwrap() error { return e.kind }

// Handler serves relayed requests on the far side of the bridge.
type Handler func(ctx context.Context, req Request) Response

// Bridge carries requests from a caller to a Handler running in another
// goroutine and matches responses by correlation id. Responses for
// requests that already timed out are dropped.
type Bridge struct {
	mu       sync.Mutex
	pending  map[string]chan Response
	requests chan Request
	done     chan struct{}
	once     sync.Once
}

func NewBridge() *Bridge {
	return &Bridge{
		pending:  make(map[string]chan Response),
		requests: make(chan Request),
		done:     make(chan struct{}),
	}
}

// Send relays req and waits for its response or ctx expiry.
func (b *Bridge) Send(ctx context.Context, req Request) (Response, error) {
	req.ID = uuid.NewString()
	ch := make(chan Response, 1)

	b.mu.Lock()
	if b.isClosed() {
		b.mu.Unlock()
		return Response{}, ErrClosed
	}
	b.pending[req.ID] = ch
	b.mu.Unlock()
	defer b.forget(req.ID)

	select {
	case b.requests <- req:
	case <-ctx.Done():
		return Response{}, fmt.Errorf("%w: %s %v", ErrTimeout, req.Action, ctx.Err())
	case <-b.done:
		return Response{}, ErrClosed
	}

	select {
	case resp := <-ch:
		if !resp.Success {
			if kind := intra.ErrorForCode(resp.Code); kind != nil {
				return resp, fmt.Errorf("%w: %s: %w", ErrTransport, req.Action, &remoteError{msg: resp.Error, kind: kind})
			}
			return resp, fmt.Errorf("%w: %s: %s", ErrTransport, req.Action, resp.Error)
		}
		return resp, nil
	case <-ctx.Done():
		return Response{}, fmt.Errorf("%w: %s %v", ErrTimeout, req.Action, ctx.Err())
	case <-b.done:
		return Response{}, ErrClosed
	}
}

// Serve runs h for every incoming request until ctx ends or the bridge is
// closed. Each request is handled in its own goroutine.
func (b *Bridge) Serve(ctx context.Context, h Handler) error {
	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.done:
			return nil
		case req := <-b.requests:
			wg.Add(1)
			go func() {
				defer wg.Done()
				resp := h(ctx, req)
				resp.ID = req.ID
				b.deliver(resp)
			}()
		}
	}
}

// Close unblocks every pending Send with ErrClosed.
func (b *Bridge) Close() {
	b.once.Do(func() {
		b.mu.Lock()
		close(b.done)
		b.mu.Unlock()
	})
}

// Pending reports the number of in-flight requests.
func (b *Bridge) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

func (b *Bridge) deliver(resp Response) {
	b.mu.Lock()
	ch, ok := b.pending[resp.ID]
	b.mu.Unlock()
	if !ok {
		return
	}
	select {
	case ch <- resp:
	default:
	}
}

func (b *Bridge) forget(id string) {
	b.mu.Lock()
	delete(b.pending, id)
	b.mu.Unlock()
}

func (b *Bridge) isClosed() bool {
	select {
	case <-b.done:
		return true
	default:
		return false
	}
}
