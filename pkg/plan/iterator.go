package plan

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/beamplan-protocol/beamplan-go/pkg/msg"
)

// Iteration errors.
var (
	// ErrDone signals normal exhaustion of a plan's message sequence.
	ErrDone = errors.New("plan sequence exhausted")

	// ErrStopped is returned to the production routine when the driver has
	// stopped the plan. Cleanup emits are still delivered.
	ErrStopped = errors.New("plan stopped by driver")

	// ErrAbandoned is returned to the production routine when the driver has
	// closed the iterator without draining cleanup.
	ErrAbandoned = errors.New("plan abandoned by driver")

	// ErrNotImplemented is returned when a base plan with no production
	// routine is iterated.
	ErrNotImplemented = errors.New("plan declares no production routine")
)

// Emitter is handed to a plan's production routine. Emit sends one message to
// the driver and blocks until the driver supplies the response; production
// never runs concurrently with its own continuation.
type Emitter struct {
	out     chan *msg.Msg
	in      chan any
	abandon chan struct{}
	stopped atomic.Bool
}

// Emit yields a message to the driver and returns the driver's response
// (nil for commands that return nothing). Once the driver has stopped the
// plan, Emit fails with ErrStopped; production routines should unwind
// promptly, letting deferred cleanup run.
func (e *Emitter) Emit(m *msg.Msg) (any, error) {
	if e.stopped.Load() {
		return nil, ErrStopped
	}
	return e.deliver(m)
}

// emitCleanup yields a message even after a stop, so that scoped release
// (the deconfigure half of a configure bracket) reaches the driver. Only a
// hard Close prevents delivery.
func (e *Emitter) emitCleanup(m *msg.Msg) error {
	_, err := e.deliver(m)
	return err
}

func (e *Emitter) deliver(m *msg.Msg) (any, error) {
	select {
	case e.out <- m:
	case <-e.abandon:
		return nil, ErrAbandoned
	}
	select {
	case v := <-e.in:
		return v, nil
	case <-e.abandon:
		return nil, ErrAbandoned
	}
}

// ProduceFunc is a plan's production routine. It runs on its own goroutine
// and yields messages through the emitter until the sequence is complete.
type ProduceFunc func(e *Emitter) error

// Iterator drives one production of a plan. Exhausting it is destructive:
// a fresh production must be obtained from the plan itself.
//
// Iterator is not safe for concurrent use; the driver owns it.
type Iterator struct {
	em      *Emitter
	done    chan struct{}
	err     error // production error, valid once done is closed
	started bool
	final   error
	closing sync.Once
}

func newIterator(produce ProduceFunc) *Iterator {
	it := &Iterator{
		em: &Emitter{
			out:     make(chan *msg.Msg),
			in:      make(chan any),
			abandon: make(chan struct{}),
		},
		done: make(chan struct{}),
	}
	go func() {
		defer close(it.done)
		err := produce(it.em)
		if err != nil && !errors.Is(err, ErrStopped) && !errors.Is(err, ErrAbandoned) {
			it.err = err
		}
	}()
	return it
}

// Next answers the previous message with resp and returns the next message.
// resp is ignored on the first call. At exhaustion Next returns ErrDone; if
// production failed, the failure is returned instead and no further messages
// are produced.
func (it *Iterator) Next(resp any) (*msg.Msg, error) {
	if it.final != nil {
		return nil, it.final
	}
	if it.started {
		select {
		case it.em.in <- resp:
		case <-it.done:
			return nil, it.finish()
		}
	}
	it.started = true
	select {
	case m := <-it.em.out:
		return m, nil
	case <-it.done:
		return nil, it.finish()
	}
}

func (it *Iterator) finish() error {
	if it.err != nil {
		it.final = it.err
	} else {
		it.final = ErrDone
	}
	return it.final
}

// Stop asks the production to wind down early. Subsequent in-body emits fail
// with ErrStopped, but scoped cleanup messages are still delivered; the
// driver keeps calling Next until ErrDone to collect them.
func (it *Iterator) Stop() {
	it.em.stopped.Store(true)
}

// Close abandons the production without draining cleanup and waits for the
// production goroutine to exit. After Close, Next returns ErrDone or the
// production's failure.
func (it *Iterator) Close() error {
	it.em.stopped.Store(true)
	it.closing.Do(func() { close(it.em.abandon) })
	<-it.done
	if it.final == nil {
		it.finish()
	}
	return nil
}

// Drain runs the remaining sequence, answering every message with nil, and
// returns the collected messages. Useful for tests and for plans whose
// commands need no responses; plans containing a read that gates later
// messages need a real driver.
func (it *Iterator) Drain() ([]*msg.Msg, error) {
	var msgs []*msg.Msg
	for {
		m, err := it.Next(nil)
		if errors.Is(err, ErrDone) {
			return msgs, nil
		}
		if err != nil {
			return msgs, err
		}
		msgs = append(msgs, m)
	}
}
