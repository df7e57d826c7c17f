package dispatcher

import (
	"errors"
	"io"
	"log"
	"net"
	"sync"
	"time"

	"github.com/pproenca/agent-tui/internal/rpcerr"
	"github.com/pproenca/agent-tui/internal/rpctransport"
	"github.com/pproenca/agent-tui/internal/usecase"
)

// QueueCapacity and WorkerCount are the default acceptor queue depth
// and worker pool size.
const (
	QueueCapacity = 128
	WorkerCount   = 64

	acceptPollInterval = 100 * time.Millisecond
	defaultGracePeriod = 5 * time.Second
)

// Dispatcher owns the listening socket, the bounded connection queue,
// and the fixed worker pool draining it. The bounded queue is what keeps
// a burst of client connections from spawning unbounded goroutines.
type Dispatcher struct {
	ln          net.Listener
	deps        *usecase.Deps
	idleTimeout time.Duration
	logger      *log.Logger

	queue chan net.Conn
	wg    sync.WaitGroup
}

// New builds a Dispatcher over an already-listening socket.
func New(ln net.Listener, deps *usecase.Deps, idleTimeout time.Duration, logger *log.Logger) *Dispatcher {
	return &Dispatcher{
		ln:          ln,
		deps:        deps,
		idleTimeout: idleTimeout,
		logger:      logger,
		queue:       make(chan net.Conn, QueueCapacity),
	}
}

// Run starts the acceptor and worker pool and blocks until the shutdown
// flag is set and the grace period elapses (or every connection drains
// first). The pool is built eagerly; a worker that panics is logged and
// exits, shrinking the pool, without stopping the daemon.
func (d *Dispatcher) Run() {
	for i := 0; i < WorkerCount; i++ {
		d.startWorker(i)
	}
	d.acceptLoop()

	d.drain()
}

// acceptLoop owns the listening socket. A single goroutine blocks on
// Accept and feeds results here, so shutdown is observed within one
// acceptPollInterval even while Accept itself is blocked; raising the
// flag closes the listener, which unblocks the pending Accept with
// net.ErrClosed.
func (d *Dispatcher) acceptLoop() {
	results := make(chan acceptResult)
	go func() {
		for {
			conn, err := d.ln.Accept()
			results <- acceptResult{conn, err}
			if errors.Is(err, net.ErrClosed) {
				return
			}
		}
	}()

	ticker := time.NewTicker(acceptPollInterval)
	defer ticker.Stop()

	for {
		select {
		case r := <-results:
			if r.err != nil {
				if errors.Is(r.err, net.ErrClosed) {
					return
				}
				d.logger.Printf("accept: %v", r.err)
				continue
			}
			// Queue submission honors shutdown so a full queue cannot
			// wedge the acceptor during drain.
			select {
			case d.queue <- r.conn:
			case <-d.deps.Shutdown.Done():
				r.conn.Close()
				d.closeAndDrainAccept(results)
				return
			}
		case <-d.deps.Shutdown.Done():
			d.closeAndDrainAccept(results)
			return
		case <-ticker.C:
			if d.deps.Shutdown.IsSet() {
				d.closeAndDrainAccept(results)
				return
			}
		}
	}
}

type acceptResult struct {
	conn net.Conn
	err  error
}

// closeAndDrainAccept closes the listener and consumes accept results
// until the pending Accept observes the close, so the accept goroutine
// never outlives the dispatcher. Connections accepted in the race window
// are closed unserved.
func (d *Dispatcher) closeAndDrainAccept(results <-chan acceptResult) {
	d.ln.Close()
	for r := range results {
		if r.conn != nil {
			r.conn.Close()
			continue
		}
		if errors.Is(r.err, net.ErrClosed) {
			return
		}
	}
}

// drain closes the queue so workers exit once it is empty, then waits up
// to defaultGracePeriod for them to finish their in-flight connections.
// If the grace period elapses first, it logs and returns without joining.
func (d *Dispatcher) drain() {
	close(d.queue)

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(defaultGracePeriod):
		d.logger.Printf("grace period elapsed with workers still active")
	}
}

// startWorker launches one worker goroutine, containing any panic so
// the pool's size shrinks rather than the whole process crashing.
func (d *Dispatcher) startWorker(id int) {
	d.deps.Metrics.WorkerStarted()
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.logger.Printf("worker %d panicked: %v", id, r)
			}
			d.deps.Metrics.WorkerExited()
		}()
		d.workerLoop()
	}()
}

// workerLoop consumes connections from the shared queue until it is
// closed, running the read-dispatch-write loop on each in turn.
func (d *Dispatcher) workerLoop() {
	for conn := range d.queue {
		d.handleConn(conn)
	}
}

// handleConn runs the framed read-dispatch-write loop until EOF, idle
// timeout, or a size-limit violation.
func (d *Dispatcher) handleConn(raw net.Conn) {
	d.deps.Metrics.ConnectionOpened()
	defer d.deps.Metrics.ConnectionClosed()

	conn := rpctransport.NewConn(raw, d.idleTimeout)
	defer conn.Close()

	for {
		if d.deps.Shutdown.IsSet() {
			return
		}

		req, err := conn.ReadRequest()
		if err != nil {
			var perr *rpctransport.ParseError
			if errors.Is(err, rpctransport.ErrLineTooLarge) {
				conn.WriteResponse(&rpctransport.Response{
					Error: &rpctransport.ErrorObject{
						Code:    rpcerr.CodeParseError,
						Message: err.Error(),
					},
				})
				return
			}
			if errors.As(err, &perr) {
				if werr := conn.WriteResponse(&rpctransport.Response{
					Error: &rpctransport.ErrorObject{
						Code:    rpcerr.CodeParseError,
						Message: err.Error(),
					},
				}); werr != nil {
					d.logger.Printf("write response: %v", werr)
					return
				}
				continue
			}
			if !errors.Is(err, io.EOF) {
				d.logger.Printf("read request: %v", err)
			}
			return
		}

		resp := d.dispatch(req)
		if err := conn.WriteResponse(resp); err != nil {
			d.logger.Printf("write response: %v", err)
			return
		}
	}
}

// dispatch routes one request to its use case and builds the response
// envelope, recording the attempt in metrics.
func (d *Dispatcher) dispatch(req *rpctransport.Request) *rpctransport.Response {
	handler, ok := lookup(req.Method)
	if !ok {
		d.deps.Metrics.RequestHandled(true)
		return errorResponse(req.ID, rpcerr.CodeMethodNotFound, "unknown method: "+req.Method, nil)
	}

	result, rerr := handler(d.deps, req.Params)
	if rerr != nil {
		d.deps.Metrics.RequestHandled(true)
		recordSessionError(d.deps, req.Params, rerr)
		return &rpctransport.Response{
			ID: req.ID,
			Error: &rpctransport.ErrorObject{
				Code:    rerr.Code,
				Message: rerr.Message,
				Data: &rpctransport.ErrorData{
					Category:   string(rerr.Category),
					Retryable:  rerr.Retryable(),
					Context:    rerr.Context,
					Suggestion: rerr.Suggestion,
				},
			},
		}
	}

	d.deps.Metrics.RequestHandled(false)
	return &rpctransport.Response{ID: req.ID, Result: result}
}

func errorResponse(id uint64, code int, message string, ctx map[string]any) *rpctransport.Response {
	return &rpctransport.Response{
		ID: id,
		Error: &rpctransport.ErrorObject{
			Code:    code,
			Message: message,
			Data:    &rpctransport.ErrorData{Context: ctx},
		},
	}
}
