package run

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beamplan-protocol/beamplan-go/internal/simdev"
	"github.com/beamplan-protocol/beamplan-go/pkg/device"
	"github.com/beamplan-protocol/beamplan-go/pkg/log"
	"github.com/beamplan-protocol/beamplan-go/pkg/msg"
	"github.com/beamplan-protocol/beamplan-go/pkg/plan"
)

// captureLogger records events for assertions.
type captureLogger struct {
	events []log.Event
}

func (c *captureLogger) Log(event log.Event) {
	c.events = append(c.events, event)
}

func (c *captureLogger) categories() []log.Category {
	out := make([]log.Category, len(c.events))
	for i, e := range c.events {
		out[i] = e.Category
	}
	return out
}

// scripted wraps a fixed message list in a plan, for driving the engine
// through specific command sequences.
func scripted(msgs ...*msg.Msg) plan.Plan {
	b := plan.NewBase("Scripted", nil, func(e *plan.Emitter) error {
		for _, m := range msgs {
			if _, err := e.Emit(m); err != nil {
				return err
			}
		}
		return nil
	})
	return &b
}

func TestRunLinAscan(t *testing.T) {
	mtr := simdev.NewMotor("mtr1", -100, 100)
	det := simdev.NewDetector("det1", func() float64 {
		pos, _ := mtr.Position()
		return 2 * pos
	})
	p := plan.NewLinAscan(mtr, []device.Readable{det}, 0, 10, 5)

	logger := &captureLogger{}
	e := &Engine{Logger: logger}

	result, err := e.Run(context.Background(), p)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, "LinAscan", result.PlanClass)
	require.Len(t, result.Rows, 5)

	// Each row correlates the motor readback with the detector value taken
	// at that position.
	wantPos := []float64{0, 2.5, 5, 7.5, 10}
	for i, row := range result.Rows {
		assert.InDelta(t, wantPos[i], row.Data["mtr1"], 1e-9)
		assert.InDelta(t, 2*wantPos[i], row.Data["det1"], 1e-9)
		assert.Contains(t, row.Timestamps, "det1")
	}

	assert.Equal(t, 5, det.Triggers())
	assert.False(t, det.Configured(), "detector still configured after the run")

	cats := logger.categories()
	require.NotEmpty(t, cats)
	assert.Equal(t, log.CategoryState, cats[0])
	assert.Equal(t, log.CategoryState, cats[len(cats)-1])
	assert.Contains(t, cats, log.CategoryLogbook)
	assert.Contains(t, cats, log.CategoryRow)
}

func TestRunCountUsesSleepFunc(t *testing.T) {
	det := simdev.NewDetector("det1", func() float64 { return 42 })
	p := plan.NewCount([]device.Readable{det}, 3, 100*time.Millisecond)

	var slept []time.Duration
	e := &Engine{SleepFunc: func(d time.Duration) { slept = append(slept, d) }}

	result, err := e.Run(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, result.Rows, 3)
	assert.Equal(t, []time.Duration{
		100 * time.Millisecond, 100 * time.Millisecond, 100 * time.Millisecond,
	}, slept)
	for _, row := range result.Rows {
		assert.Equal(t, 42.0, row.Data["det1"])
	}
}

func TestRunCancelDrainsCleanup(t *testing.T) {
	det := simdev.NewDetector("det1", func() float64 { return 1 })
	p := plan.NewCount([]device.Readable{det}, 5, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	logger := &captureLogger{}
	e := &Engine{
		Logger:    logger,
		SleepFunc: func(time.Duration) { cancel() },
	}

	result, err := e.Run(ctx, p)
	require.ErrorIs(t, err, context.Canceled)

	// The cycle in flight when the cancel landed was committed, and the
	// scoped release still ran.
	assert.NotEmpty(t, result.Rows)
	assert.Less(t, len(result.Rows), 5)
	assert.False(t, det.Configured(), "detector not released on abort")

	last := logger.events[len(logger.events)-1]
	require.NotNil(t, last.State)
	assert.Equal(t, "aborted", last.State.NewState)
}

func TestRunRejectsSettingUnsettableDevice(t *testing.T) {
	det := simdev.NewDetector("det1", nil)
	e := New()

	_, err := e.Run(context.Background(), scripted(msg.Set(det, 1, "A")))
	require.ErrorIs(t, err, ErrNotSettable)
}

func TestRunRejectsNestedCreate(t *testing.T) {
	e := New()
	_, err := e.Run(context.Background(), scripted(msg.Create(), msg.Create()))
	require.ErrorIs(t, err, ErrEventAlreadyOpen)
}

func TestRunRejectsSaveWithoutCreate(t *testing.T) {
	e := New()
	_, err := e.Run(context.Background(), scripted(msg.Save()))
	require.ErrorIs(t, err, ErrNoOpenEvent)
}

func TestRunRejectsOverlappingConfigure(t *testing.T) {
	det := simdev.NewDetector("det1", nil)
	e := New()

	_, err := e.Run(context.Background(), scripted(
		msg.Configure(det), msg.Configure(det),
	))
	require.ErrorIs(t, err, ErrAlreadyConfigured)
}

func TestRunConfigureBracketAllowsReuse(t *testing.T) {
	det := simdev.NewDetector("det1", nil)
	e := New()

	_, err := e.Run(context.Background(), scripted(
		msg.Configure(det), msg.Deconfigure(det),
		msg.Configure(det), msg.Deconfigure(det),
	))
	require.NoError(t, err)
	assert.False(t, det.Configured())
}

func TestRunWaitWithoutGroupIsNoop(t *testing.T) {
	e := New()
	_, err := e.Run(context.Background(), scripted(msg.Wait("Z")))
	require.NoError(t, err)
}

func TestRunSetJoinsAtWait(t *testing.T) {
	mtr := simdev.NewMotor("mtr1", -100, 100)
	e := New()

	_, err := e.Run(context.Background(), scripted(
		msg.Set(mtr, 7.5, "A"),
		msg.Wait("A"),
	))
	require.NoError(t, err)

	pos, err := mtr.Position()
	require.NoError(t, err)
	assert.Equal(t, 7.5, pos)
}

func TestRunPropagatesTriggerFailure(t *testing.T) {
	det := simdev.NewDetector("det1", nil)
	det.TriggerErr = assert.AnError
	e := New()

	_, err := e.Run(context.Background(), scripted(
		msg.Trigger(det, "A"),
		msg.Wait("A"),
	))
	require.ErrorIs(t, err, assert.AnError)
}

func TestRunReadOutsideEventReturnsData(t *testing.T) {
	mtr := simdev.NewMotor("mtr1", -100, 100)
	require.NoError(t, mtr.Set(3))
	e := New()

	// A read outside a create..save bracket flows back into the plan but
	// lands in no row.
	result, err := e.Run(context.Background(), scripted(msg.Read(mtr)))
	require.NoError(t, err)
	assert.Empty(t, result.Rows)
}
