package run

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/beamplan-protocol/beamplan-go/pkg/device"
	"github.com/beamplan-protocol/beamplan-go/pkg/log"
	"github.com/beamplan-protocol/beamplan-go/pkg/msg"
	"github.com/beamplan-protocol/beamplan-go/pkg/plan"
)

// Engine errors.
var (
	ErrNotSettable       = errors.New("device is not settable")
	ErrNotReadable       = errors.New("device is not readable")
	ErrNotTriggerable    = errors.New("device cannot be triggered")
	ErrNoOpenEvent       = errors.New("save without an open event")
	ErrEventAlreadyOpen  = errors.New("create while an event is open")
	ErrAlreadyConfigured = errors.New("configure while device is configured")
)

// Row is one committed event row: correlated readings between a create and
// the save that closed it.
type Row struct {
	// Data maps field name to value for every reading in the row.
	Data map[string]float64

	// Timestamps maps field name to acquisition time.
	Timestamps map[string]time.Time
}

// Result summarises one completed run.
type Result struct {
	// RunID uniquely identifies the run.
	RunID string

	// PlanClass is the class name of the plan that was driven.
	PlanClass string

	// Rows are the committed event rows, in order.
	Rows []Row
}

// Engine executes plan message sequences against devices.
//
// Engine is not safe for driving multiple plans concurrently; use one Engine
// per run or serialise access.
type Engine struct {
	// Logger receives run events. Nil disables logging.
	Logger log.Logger

	// SleepFunc handles sleep messages. Nil means time.Sleep; tests inject
	// a recorder instead.
	SleepFunc func(time.Duration)
}

// New creates an Engine with logging disabled.
func New() *Engine {
	return &Engine{}
}

// blockGroup tracks the outstanding asynchronous set/trigger calls joined by
// one wait.
type blockGroup struct {
	wg   sync.WaitGroup
	mu   sync.Mutex
	errs []error
}

func (g *blockGroup) launch(fn func() error) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		if err := fn(); err != nil {
			g.mu.Lock()
			g.errs = append(g.errs, err)
			g.mu.Unlock()
		}
	}()
}

func (g *blockGroup) join() error {
	g.wg.Wait()
	g.mu.Lock()
	defer g.mu.Unlock()
	return errors.Join(g.errs...)
}

// runState carries the mutable state of one run.
type runState struct {
	result     *Result
	groups     map[string]*blockGroup
	open       bool // an event row is open
	row        Row
	configured map[string]bool
}

// Run drives one production of the plan to completion. Cancelling ctx stops
// the plan at the next suspension point; the scoped deconfigure messages are
// still drained and executed before Run returns ctx.Err().
func (e *Engine) Run(ctx context.Context, p plan.Plan) (*Result, error) {
	st := &runState{
		result: &Result{
			RunID:     uuid.NewString(),
			PlanClass: p.PlanName(),
		},
		groups:     make(map[string]*blockGroup),
		configured: make(map[string]bool),
	}

	e.logState(st, "idle", "running", "")
	it := p.Iterate()
	defer it.Close()

	runErr := e.drive(ctx, it, st)
	if runErr != nil {
		// Stop the production and drain the scoped cleanup, executing only
		// the release half of configure brackets.
		it.Stop()
		e.drainCleanup(it, st)
		e.logError(st, runErr, "")
		e.logState(st, "running", "aborted", runErr.Error())
		return st.result, runErr
	}

	e.logState(st, "running", "idle", "")
	return st.result, nil
}

// drive pulls messages until exhaustion, answering reads with device data.
func (e *Engine) drive(ctx context.Context, it *plan.Iterator, st *runState) error {
	var resp any
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		m, err := it.Next(resp)
		if errors.Is(err, plan.ErrDone) {
			return nil
		}
		if err != nil {
			return err
		}
		resp, err = e.process(st, m)
		if err != nil {
			return err
		}
	}
}

// drainCleanup collects the messages still owed by a stopped plan and
// executes the deconfigure ones, ignoring secondary failures.
func (e *Engine) drainCleanup(it *plan.Iterator, st *runState) {
	for {
		m, err := it.Next(nil)
		if err != nil {
			return
		}
		if m.Command == msg.CmdDeconfigure {
			_, _ = e.process(st, m)
		}
	}
}

// process executes one message and returns the value owed to the plan.
func (e *Engine) process(st *runState, m *msg.Msg) (any, error) {
	e.logMessage(st, m)

	switch m.Command {
	case msg.CmdLogbook:
		e.logLogbook(st, m)
		return nil, nil

	case msg.CmdConfigure:
		name := m.Device.Name()
		if st.configured[name] {
			return nil, fmt.Errorf("%s: %w", name, ErrAlreadyConfigured)
		}
		st.configured[name] = true
		if c, ok := m.Device.(device.Configurable); ok {
			return nil, c.Configure()
		}
		return nil, nil

	case msg.CmdDeconfigure:
		delete(st.configured, m.Device.Name())
		if c, ok := m.Device.(device.Configurable); ok {
			return nil, c.Deconfigure()
		}
		return nil, nil

	case msg.CmdCheckpoint:
		// Recorded only; rewind support lives in a full scheduler.
		return nil, nil

	case msg.CmdCreate:
		if st.open {
			return nil, ErrEventAlreadyOpen
		}
		st.open = true
		st.row = Row{
			Data:       make(map[string]float64),
			Timestamps: make(map[string]time.Time),
		}
		return nil, nil

	case msg.CmdSet:
		s, ok := m.Device.(device.Settable)
		if !ok {
			return nil, fmt.Errorf("%s: %w", m.Device.Name(), ErrNotSettable)
		}
		pos, ok := m.Args[0].(float64)
		if !ok {
			return nil, fmt.Errorf("set %s: bad position %v", m.Device.Name(), m.Args[0])
		}
		e.group(st, m.BlockGroup).launch(func() error { return s.Set(pos) })
		return nil, nil

	case msg.CmdTrigger:
		r, ok := m.Device.(device.Readable)
		if !ok {
			return nil, fmt.Errorf("%s: %w", m.Device.Name(), ErrNotTriggerable)
		}
		e.group(st, m.BlockGroup).launch(r.Trigger)
		return nil, nil

	case msg.CmdWait:
		key, _ := m.Args[0].(string)
		g := st.groups[key]
		if g == nil {
			return nil, nil
		}
		delete(st.groups, key)
		return nil, g.join()

	case msg.CmdRead:
		rd, ok := m.Device.(interface {
			Read() (map[string]msg.Reading, error)
		})
		if !ok {
			return nil, fmt.Errorf("%s: %w", m.Device.Name(), ErrNotReadable)
		}
		readings, err := rd.Read()
		if err != nil {
			return nil, err
		}
		if st.open {
			for field, r := range readings {
				st.row.Data[field] = r.Value
				st.row.Timestamps[field] = r.Timestamp
			}
		}
		return readings, nil

	case msg.CmdSave:
		if !st.open {
			return nil, ErrNoOpenEvent
		}
		st.open = false
		st.result.Rows = append(st.result.Rows, st.row)
		e.logRow(st, len(st.result.Rows)-1, st.row)
		return nil, nil

	case msg.CmdSleep:
		secs, _ := m.Args[0].(float64)
		d := time.Duration(secs * float64(time.Second))
		if e.SleepFunc != nil {
			e.SleepFunc(d)
		} else if d > 0 {
			time.Sleep(d)
		}
		return nil, nil

	default:
		return nil, fmt.Errorf("unhandled command %q", m.Command)
	}
}

// group returns the block group for key, creating it on first use.
func (e *Engine) group(st *runState, key string) *blockGroup {
	g := st.groups[key]
	if g == nil {
		g = &blockGroup{}
		st.groups[key] = g
	}
	return g
}

func (e *Engine) logMessage(st *runState, m *msg.Msg) {
	if e.Logger == nil {
		return
	}
	me := &log.MessageEvent{Command: m.Command.String(), BlockGroup: m.BlockGroup}
	if m.Device != nil {
		me.Device = m.Device.Name()
	}
	e.Logger.Log(log.Event{
		Timestamp: time.Now(),
		RunID:     st.result.RunID,
		PlanClass: st.result.PlanClass,
		Category:  log.CategoryMessage,
		Message:   me,
	})
}

func (e *Engine) logLogbook(st *runState, m *msg.Msg) {
	if e.Logger == nil {
		return
	}
	text, _ := m.Args[0].(string)
	meta := make(map[string]string, len(m.KWArgs))
	for k, v := range m.KWArgs {
		meta[k] = fmt.Sprintf("%v", v)
	}
	e.Logger.Log(log.Event{
		Timestamp: time.Now(),
		RunID:     st.result.RunID,
		PlanClass: st.result.PlanClass,
		Category:  log.CategoryLogbook,
		Logbook:   &log.LogbookEvent{Text: text, Meta: meta},
	})
}

func (e *Engine) logRow(st *runState, seq int, row Row) {
	if e.Logger == nil {
		return
	}
	e.Logger.Log(log.Event{
		Timestamp: time.Now(),
		RunID:     st.result.RunID,
		PlanClass: st.result.PlanClass,
		Category:  log.CategoryRow,
		Row:       &log.RowEvent{Sequence: seq, Data: row.Data},
	})
}

func (e *Engine) logState(st *runState, from, to, reason string) {
	if e.Logger == nil {
		return
	}
	e.Logger.Log(log.Event{
		Timestamp: time.Now(),
		RunID:     st.result.RunID,
		PlanClass: st.result.PlanClass,
		Category:  log.CategoryState,
		State:     &log.StateEvent{OldState: from, NewState: to, Reason: reason},
	})
}

func (e *Engine) logError(st *runState, err error, command string) {
	if e.Logger == nil {
		return
	}
	e.Logger.Log(log.Event{
		Timestamp: time.Now(),
		RunID:     st.result.RunID,
		PlanClass: st.result.PlanClass,
		Category:  log.CategoryError,
		Error:     &log.ErrorEvent{Message: err.Error(), Command: command},
	})
}
