package graph

import (
	"context"
	"errors"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	id       string
	name     string
	dataType string
	value    func() (Value, error)
}

func (s *fakeSource) ID() string           { return s.id }
func (s *fakeSource) DisplayName() string  { return s.name }
func (s *fakeSource) DataTypeName() string { return s.dataType }
func (s *fakeSource) Value(context.Context) (Value, error) {
	return s.value()
}

func scalarSource(id string, v float64) *fakeSource {
	return &fakeSource{
		id: id, name: id, dataType: "Double",
		value: func() (Value, error) { return Scalar(v), nil },
	}
}

type fakeCurve struct {
	label    string
	color    color.Color
	xs, ys   []float64
	detached bool
	updates  int
}

func (c *fakeCurve) SetData(xs, ys []float64) {
	c.xs, c.ys = xs, ys
	c.updates++
}

func (c *fakeCurve) Detach() { c.detached = true }

type fakeChart struct {
	curves []*fakeCurve
}

func (f *fakeChart) AddCurve(label string, col color.Color) RenderHandle {
	c := &fakeCurve{label: label, color: col}
	f.curves = append(f.curves, c)
	return c
}

func newTestManager(t *testing.T, mode Mode, n int) (*Manager, *fakeChart) {
	t.Helper()
	chart := &fakeChart{}
	m := NewManager(mode, chart, n, t.Logf)
	return m, chart
}

func TestAddAssignsZeroBufferAndCurve(t *testing.T) {
	m, chart := newTestManager(t, ModeScalar, 5)

	require.NoError(t, m.Add(scalarSource("ns=2;s=a", 3.0)))
	assert.Equal(t, 1, m.Len())
	require.Len(t, chart.curves, 1)
	assert.Equal(t, "ns=2;s=a", chart.curves[0].label)
	assert.Equal(t, []float64{0, 0, 0, 0, 0}, chart.curves[0].ys)
}

func TestAddDuplicateIsRejected(t *testing.T) {
	m, _ := newTestManager(t, ModeScalar, 5)

	require.NoError(t, m.Add(scalarSource("ns=2;s=a", 1)))
	err := m.Add(scalarSource("ns=2;s=a", 2))
	assert.ErrorIs(t, err, ErrAlreadyTracked)
	assert.Equal(t, 1, m.Len())
}

func TestAddRejectsNonNumericDataType(t *testing.T) {
	m, chart := newTestManager(t, ModeScalar, 5)

	src := scalarSource("ns=2;s=str", 0)
	src.dataType = "String"
	err := m.Add(src)
	assert.ErrorIs(t, err, ErrNotPlottable)
	assert.Equal(t, 0, m.Len())
	assert.Empty(t, chart.curves)
}

func TestAddRejectsArrayValueInScalarMode(t *testing.T) {
	m, _ := newTestManager(t, ModeScalar, 5)

	src := &fakeSource{
		id: "ns=2;s=arr", name: "arr", dataType: "Double",
		value: func() (Value, error) { return Array([]float64{1, 2}), nil },
	}
	err := m.Add(src)
	assert.ErrorIs(t, err, ErrNotPlottable)
	assert.Equal(t, 0, m.Len())
}

func TestArrayModeRejectsScalarValue(t *testing.T) {
	m, _ := newTestManager(t, ModeArray, 5)

	err := m.Add(scalarSource("ns=2;s=a", 1))
	assert.ErrorIs(t, err, ErrNotPlottable)
	assert.Equal(t, 0, m.Len())
}

func TestArrayAddPlotsSnapshotVerbatim(t *testing.T) {
	m, chart := newTestManager(t, ModeArray, 5)

	src := &fakeSource{
		id: "ns=2;s=b", name: "B", dataType: "Double",
		value: func() (Value, error) { return Array([]float64{4, 5, 6}), nil },
	}
	require.NoError(t, m.Add(src))
	assert.Equal(t, 1, m.Len())
	require.Len(t, chart.curves, 1)
	assert.Equal(t, []float64{4, 5, 6}, chart.curves[0].ys)
	assert.Equal(t, []float64{0, 1, 2}, chart.curves[0].xs)
}

func TestScalarTickShiftsRingBuffer(t *testing.T) {
	m, chart := newTestManager(t, ModeScalar, 5)

	next := 3.0
	src := &fakeSource{
		id: "ns=2;s=a", name: "A", dataType: "Double",
		value: func() (Value, error) { return Scalar(next), nil },
	}
	require.NoError(t, m.Add(src))

	m.tick(context.Background())
	assert.Equal(t, []float64{0, 0, 0, 0, 3}, chart.curves[0].ys)

	next = 7.0
	m.tick(context.Background())
	assert.Equal(t, []float64{0, 0, 0, 3, 7}, chart.curves[0].ys)
	assert.Equal(t, []float64{0, 1, 2, 3, 4}, chart.curves[0].xs)

	require.True(t, m.Remove("ns=2;s=a"))
	assert.Equal(t, 0, m.Len())
	assert.True(t, chart.curves[0].detached)
}

func TestScalarTickHoldsLastNValues(t *testing.T) {
	m, chart := newTestManager(t, ModeScalar, 3)

	next := 0.0
	src := &fakeSource{
		id: "ns=2;s=a", name: "A", dataType: "Double",
		value: func() (Value, error) { return Scalar(next), nil },
	}
	require.NoError(t, m.Add(src))

	for i := 1; i <= 7; i++ {
		next = float64(i)
		m.tick(context.Background())
	}
	assert.Equal(t, []float64{5, 6, 7}, chart.curves[0].ys)
}

func TestTickSkipsFailingSource(t *testing.T) {
	m, chart := newTestManager(t, ModeScalar, 4)

	require.NoError(t, m.Add(scalarSource("ns=2;s=ok", 1)))
	bad := &fakeSource{
		id: "ns=2;s=bad", name: "bad", dataType: "Double",
		value: func() (Value, error) { return Scalar(2), nil },
	}
	require.NoError(t, m.Add(bad))
	bad.value = func() (Value, error) { return Value{}, errors.New("read timeout") }

	m.tick(context.Background())

	assert.Equal(t, []float64{0, 0, 0, 1}, chart.curves[0].ys)
	// failing source keeps its pre-tick buffer
	assert.Equal(t, []float64{0, 0, 0, 0}, chart.curves[1].ys)
	assert.Equal(t, 2, m.Len())
}

func TestArrayTickLeavesCurveOnShapeChange(t *testing.T) {
	m, chart := newTestManager(t, ModeArray, 4)

	arr := []float64{1, 2, 3}
	src := &fakeSource{
		id: "ns=2;s=b", name: "B", dataType: "Double",
		value: func() (Value, error) { return Array(arr), nil },
	}
	require.NoError(t, m.Add(src))

	src.value = func() (Value, error) { return Scalar(9), nil }
	updatesBefore := chart.curves[0].updates
	m.tick(context.Background())
	assert.Equal(t, updatesBefore, chart.curves[0].updates)
	assert.Equal(t, []float64{1, 2, 3}, chart.curves[0].ys)
}

func TestResizeAndResetClearsHistoryKeepsSources(t *testing.T) {
	m, chart := newTestManager(t, ModeScalar, 5)
	defer m.Stop()

	require.NoError(t, m.Add(scalarSource("ns=2;s=a", 3)))
	require.NoError(t, m.Add(scalarSource("ns=2;s=b", 4)))
	m.tick(context.Background())

	require.NoError(t, m.ResizeAndReset(8, time.Hour))

	assert.Equal(t, 2, m.Len())
	for _, cv := range chart.curves {
		assert.Equal(t, make([]float64, 8), cv.ys)
		assert.Len(t, cv.xs, 8)
	}
	for _, snap := range m.Snapshots() {
		assert.Len(t, snap.Samples, 8)
		assert.Equal(t, make([]float64, 8), snap.Samples)
	}
}

func TestResizeAndResetValidatesInputs(t *testing.T) {
	m, _ := newTestManager(t, ModeScalar, 5)

	assert.Error(t, m.ResizeAndReset(0, time.Second))
	assert.Error(t, m.ResizeAndReset(10, 0))
}

func TestRemoveKeepsRelativeOrder(t *testing.T) {
	m, chart := newTestManager(t, ModeScalar, 3)

	require.NoError(t, m.Add(scalarSource("a", 1)))
	require.NoError(t, m.Add(scalarSource("b", 2)))
	require.NoError(t, m.Add(scalarSource("c", 3)))

	require.True(t, m.Remove("b"))
	assert.False(t, m.Remove("b"))

	snaps := m.Snapshots()
	require.Len(t, snaps, 2)
	assert.Equal(t, "a", snaps[0].NodeID)
	assert.Equal(t, "c", snaps[1].NodeID)
	assert.True(t, chart.curves[1].detached)
	assert.False(t, chart.curves[0].detached)
	assert.False(t, chart.curves[2].detached)
}

func TestRemoveUntrackedIsNoOp(t *testing.T) {
	m, _ := newTestManager(t, ModeScalar, 3)

	require.NoError(t, m.Add(scalarSource("a", 1)))
	assert.False(t, m.Remove("zzz"))
	assert.Equal(t, 1, m.Len())
}

func TestOnTickEmitsFrames(t *testing.T) {
	m, _ := newTestManager(t, ModeScalar, 3)

	var got []SampleFrame
	m.OnTick = func(frames []SampleFrame) { got = frames }

	require.NoError(t, m.Add(scalarSource("a", 2.5)))
	m.tick(context.Background())

	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].NodeID)
	assert.Equal(t, 2.5, got[0].Value)
	assert.Equal(t, "scalar", got[0].Mode)
}

func TestPollingTicksOnInterval(t *testing.T) {
	m, chart := newTestManager(t, ModeScalar, 5)
	defer m.Stop()

	require.NoError(t, m.Add(scalarSource("a", 1)))
	require.NoError(t, m.ResizeAndReset(5, 10*time.Millisecond))

	assert.Eventually(t, func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		return chart.curves[0].ys[4] == 1
	}, time.Second, 5*time.Millisecond)
}
