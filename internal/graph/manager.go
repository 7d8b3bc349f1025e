package graph

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"sync"
	"time"
)

// Mode selects how a manager treats its sources: Scalar keeps a fixed-length
// rolling history per node, Array redraws the latest array snapshot.
type Mode int

const (
	ModeScalar Mode = iota
	ModeArray
)

func (m Mode) String() string {
	if m == ModeArray {
		return "array"
	}
	return "scalar"
}

// tango color schema (public domain), same cycle the reference client uses
var colorCycle = []color.NRGBA{
	{R: 0x4e, G: 0x9a, B: 0x06, A: 0xff},
	{R: 0xce, G: 0x5c, B: 0x00, A: 0xff},
	{R: 0x34, G: 0x65, B: 0xa4, A: 0xff},
	{R: 0x75, G: 0x50, B: 0x7b, A: 0xff},
	{R: 0xcc, G: 0x00, B: 0x00, A: 0xff},
	{R: 0xed, G: 0xd4, B: 0x00, A: 0xff},
}

// acceptedDataTypes is the allowlist for scalar plotting. Abstract Integer and
// UInteger cover servers that only report the abstract supertype.
var acceptedDataTypes = map[string]bool{
	"Decimal128": true,
	"Double":     true,
	"Float":      true,
	"SByte":      true,
	"Byte":       true,
	"Int16":      true,
	"UInt16":     true,
	"Int32":      true,
	"UInt32":     true,
	"Int64":      true,
	"UInt64":     true,
	"Integer":    true,
	"UInteger":   true,
}

var (
	ErrAlreadyTracked = errors.New("node is already on the graph")
	ErrNotPlottable   = errors.New("node value cannot be plotted in this mode")
)

// RenderHandle is an opaque reference to a plotted curve owned by the chart.
type RenderHandle interface {
	SetData(xs, ys []float64)
	Detach()
}

// CurveFactory creates labeled curves on the chart the manager renders to.
type CurveFactory interface {
	AddCurve(label string, col color.Color) RenderHandle
}

// SampleFrame is one source's contribution to a tick, as broadcast to API
// subscribers.
type SampleFrame struct {
	NodeID    string    `json:"node_id"`
	Name      string    `json:"name"`
	Mode      string    `json:"mode"`
	Value     float64   `json:"value,omitempty"`
	Values    []float64 `json:"values,omitempty"`
	Timestamp string    `json:"timestamp"`
}

// ChannelSnapshot is the buffered history of one tracked source.
type ChannelSnapshot struct {
	NodeID   string    `json:"node_id"`
	Name     string    `json:"name"`
	DataType string    `json:"data_type,omitempty"`
	Mode     string    `json:"mode"`
	Samples  []float64 `json:"samples"`
}

// Manager maintains the tracked set of a graph: for every source a history
// channel and a render handle, index-aligned across the three sequences. A
// ticker re-reads every source once per interval and pushes the updated
// buffers to the chart.
type Manager struct {
	mu      sync.Mutex
	mode    Mode
	factory CurveFactory
	logf    func(format string, args ...interface{})

	n        int
	interval time.Duration
	xs       []float64 // fixed axis [0, n) for scalar curves

	sources  []ValueSource
	channels [][]float64
	curves   []RenderHandle

	stop chan struct{}

	// OnTick, when set, receives the frames of each completed tick. Called
	// outside the manager lock.
	OnTick func(frames []SampleFrame)
}

// NewManager creates an idle manager with the given window length. No ticker
// runs until ResizeAndReset is called.
func NewManager(mode Mode, factory CurveFactory, n int, logf func(string, ...interface{})) *Manager {
	if n < 1 {
		n = 1
	}
	if logf == nil {
		logf = func(string, ...interface{}) {}
	}
	return &Manager{
		mode:    mode,
		factory: factory,
		logf:    logf,
		n:       n,
		xs:      axis(n),
	}
}

func axis(n int) []float64 {
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}
	return xs
}

// Add starts tracking a source. Scalar mode requires an accepted declared data
// type and a scalar current value; array mode requires an array current value.
func (m *Manager) Add(src ValueSource) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.sources {
		if s.ID() == src.ID() {
			m.logf("[yellow]Variable %s is already on the %s graph[-]", src.DisplayName(), m.mode)
			return ErrAlreadyTracked
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var channel []float64
	switch m.mode {
	case ModeScalar:
		if !acceptedDataTypes[src.DataTypeName()] {
			m.logf("[yellow]Variable %s cannot be added to graph: data type %s is not numeric[-]",
				src.DisplayName(), src.DataTypeName())
			return fmt.Errorf("%w: data type %s", ErrNotPlottable, src.DataTypeName())
		}
		v, err := src.Value(ctx)
		if err != nil {
			m.logf("[red]Variable %s cannot be added to graph: %v[-]", src.DisplayName(), err)
			return fmt.Errorf("%w: %v", ErrNotPlottable, err)
		}
		if v.Kind() != KindScalar {
			m.logf("[yellow]Variable %s cannot be added to graph: value is an array[-]", src.DisplayName())
			return fmt.Errorf("%w: value is an array", ErrNotPlottable)
		}
		channel = make([]float64, m.n)
	case ModeArray:
		v, err := src.Value(ctx)
		if err != nil {
			m.logf("[red]Variable %s cannot be added to array graph: %v[-]", src.DisplayName(), err)
			return fmt.Errorf("%w: %v", ErrNotPlottable, err)
		}
		if v.Kind() != KindArray {
			m.logf("[yellow]Variable %s cannot be added to array graph: value is not an array[-]", src.DisplayName())
			return fmt.Errorf("%w: value is not an array", ErrNotPlottable)
		}
		channel = append([]float64(nil), v.Array()...)
	}

	colorIndex := len(m.sources) % len(colorCycle)
	curve := m.factory.AddCurve(src.DisplayName(), colorCycle[colorIndex])

	m.sources = append(m.sources, src)
	m.channels = append(m.channels, channel)
	m.curves = append(m.curves, curve)

	if m.mode == ModeScalar {
		curve.SetData(m.xs, append([]float64(nil), channel...))
	} else {
		curve.SetData(axis(len(channel)), append([]float64(nil), channel...))
	}

	m.logf("[green]Variable %s added to %s graph[-]", src.DisplayName(), m.mode)
	return nil
}

// Remove stops tracking a source by ID. Silently a no-op when the source is
// not tracked. Reports whether a source was removed.
func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	idx := -1
	for i, s := range m.sources {
		if s.ID() == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		m.mu.Unlock()
		return false
	}
	curve := m.curves[idx]
	name := m.sources[idx].DisplayName()
	m.sources = append(m.sources[:idx], m.sources[idx+1:]...)
	m.channels = append(m.channels[:idx], m.channels[idx+1:]...)
	m.curves = append(m.curves[:idx], m.curves[idx+1:]...)
	m.mu.Unlock()

	curve.Detach()
	m.logf("[green]Variable %s removed from %s graph[-]", name, m.mode)
	return true
}

// ResizeAndReset applies a new window length and poll interval. Every scalar
// channel is reallocated to zeros of the new length and pushed to its curve,
// clearing visible history without dropping tracked sources. The ticker is
// restarted at the new interval.
func (m *Manager) ResizeAndReset(n int, interval time.Duration) error {
	if n < 1 {
		return fmt.Errorf("window length must be >= 1, got %d", n)
	}
	if interval < time.Millisecond {
		return fmt.Errorf("poll interval must be >= 1ms, got %v", interval)
	}

	m.mu.Lock()
	if m.stop != nil {
		close(m.stop)
		m.stop = nil
	}
	m.n = n
	m.interval = interval
	m.xs = axis(n)
	if m.mode == ModeScalar {
		for i := range m.channels {
			m.channels[i] = make([]float64, n)
			m.curves[i].SetData(m.xs, make([]float64, n))
		}
	}
	stop := make(chan struct{})
	m.stop = stop
	m.mu.Unlock()

	go m.run(interval, stop)
	return nil
}

// Stop halts polling. Tracked sources and their buffers are kept.
func (m *Manager) Stop() {
	m.mu.Lock()
	if m.stop != nil {
		close(m.stop)
		m.stop = nil
	}
	m.mu.Unlock()
}

func (m *Manager) run(interval time.Duration, stop chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.tick(context.Background())
		}
	}
}

// tick re-reads every tracked source once and updates its channel and curve.
// A failing or shape-changed source is skipped for this tick; the others are
// unaffected.
func (m *Manager) tick(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var frames []SampleFrame
	if m.OnTick != nil {
		frames = make([]SampleFrame, 0, len(m.sources))
	}
	now := time.Now().Format("15:04:05.000")

	for i, src := range m.sources {
		v, err := src.Value(ctx)
		if err != nil {
			m.logf("[red]Graph read failed for %s: %v[-]", src.DisplayName(), err)
			continue
		}
		switch m.mode {
		case ModeScalar:
			if v.Kind() != KindScalar {
				m.logf("[yellow]%s no longer returns a scalar value, skipping[-]", src.DisplayName())
				continue
			}
			ch := m.channels[i]
			copy(ch, ch[1:])
			ch[len(ch)-1] = v.Scalar()
			m.curves[i].SetData(m.xs, append([]float64(nil), ch...))
			if frames != nil {
				frames = append(frames, SampleFrame{
					NodeID:    src.ID(),
					Name:      src.DisplayName(),
					Mode:      m.mode.String(),
					Value:     v.Scalar(),
					Timestamp: now,
				})
			}
		case ModeArray:
			if v.Kind() != KindArray {
				m.logf("[yellow]%s no longer returns array data, skipping[-]", src.DisplayName())
				continue
			}
			arr := append([]float64(nil), v.Array()...)
			m.channels[i] = arr
			m.curves[i].SetData(axis(len(arr)), append([]float64(nil), arr...))
			if frames != nil {
				frames = append(frames, SampleFrame{
					NodeID:    src.ID(),
					Name:      src.DisplayName(),
					Mode:      m.mode.String(),
					Values:    arr,
					Timestamp: now,
				})
			}
		}
	}

	cb := m.OnTick
	if cb != nil && len(frames) > 0 {
		// Emit outside lock
		m.mu.Unlock()
		cb(frames)
		m.mu.Lock()
	}
}

// Len reports the number of tracked sources.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sources)
}

// Tracked reports whether the given node is on the graph.
func (m *Manager) Tracked(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sources {
		if s.ID() == id {
			return true
		}
	}
	return false
}

// Snapshots copies the current channel buffers for export and the API.
func (m *Manager) Snapshots() []ChannelSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ChannelSnapshot, 0, len(m.sources))
	for i, src := range m.sources {
		out = append(out, ChannelSnapshot{
			NodeID:   src.ID(),
			Name:     src.DisplayName(),
			DataType: src.DataTypeName(),
			Mode:     m.mode.String(),
			Samples:  append([]float64(nil), m.channels[i]...),
		})
	}
	return out
}
