package engine

import (
	"sync"

	"github.com/hearthbox/rulehub/internal/ast"
	"github.com/hearthbox/rulehub/internal/compiler"
	"github.com/hearthbox/rulehub/internal/deviceapi"
)

// Controller owns the lifetime of one running script. It is single-owner,
// single-script: Start fails with an AlreadyRunning StartStopError if
// called twice without an intervening Stop. There is no finalizer: a started
// Controller keeps its worker and subscriptions until Stop is called.
type Controller struct {
	mu      sync.Mutex
	running bool
	inbox   chan taskMessage
	done    chan struct{}
}

// New returns a fresh, not-running Controller.
func New() *Controller {
	return &Controller{}
}

// Start compiles script synchronously and, on success, spawns a worker
// goroutine that runs it against api, delivering events to sink. The first
// event sink ever observes is always a Starting event. Compile errors are
// returned both from Start and as the Starting event's Result.
func (c *Controller) Start(api deviceapi.API, script ast.Script, sink func(Event)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return &StartStopError{Code: ErrCodeAlreadyRunning, Message: "controller already running"}
	}

	clock := NewClock()
	compiledScript, err := compiler.Compile(script)
	if err != nil {
		sink(Event{Kind: Starting, Result: err, Seq: clock.Next()})
		return err
	}

	sink(Event{Kind: Starting, Result: nil, Seq: clock.Next()})

	task := newExecutionTask(compiledScript, api, sink, clock)
	task.subscribeAll()
	c.inbox = task.inbox
	c.done = make(chan struct{})
	c.running = true

	go func() {
		task.run()
		close(c.done)
	}()

	return nil
}

// Stop requests the worker exit after finishing its current message, waits
// for it to do so, and then invokes onResult with the worker's outcome
// (always nil; the worker does not recover panics, so none reach Stop).
// Stop returns a NotRunning StartStopError if the controller was never
// started or has already stopped.
func (c *Controller) Stop(onResult func(error)) error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return &StartStopError{Code: ErrCodeNotRunning, Message: "controller not running"}
	}
	inbox := c.inbox
	done := c.done
	c.running = false
	c.mu.Unlock()

	inbox <- taskMessage{kind: msgStop, onStop: onResult}
	<-done
	return nil
}
