package plot

import (
	"fmt"
	"image/color"
	"math"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// Chart is a light-weight line chart widget. Curves are added with a label
// and a pen color; each curve redraws when its data is replaced. The legend
// lists attached curves in insertion order.
type Chart struct {
	widget.BaseWidget

	mu     sync.RWMutex
	title  string
	curves []*Curve
}

var _ fyne.Widget = (*Chart)(nil)

func NewChart(title string) *Chart {
	c := &Chart{title: title}
	c.ExtendBaseWidget(c)
	return c
}

// Curve is one plotted series, owned by its chart until detached.
type Curve struct {
	chart *Chart
	label string
	color color.Color
	xs    []float64
	ys    []float64
}

// AddCurve attaches a new empty curve with the given legend label and pen.
func (c *Chart) AddCurve(label string, col color.Color) *Curve {
	cv := &Curve{chart: c, label: label, color: col}
	c.mu.Lock()
	c.curves = append(c.curves, cv)
	c.mu.Unlock()
	c.scheduleRefresh()
	return cv
}

// Curves returns the attached curve labels in display order.
func (c *Chart) Curves() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	labels := make([]string, len(c.curves))
	for i, cv := range c.curves {
		labels[i] = cv.label
	}
	return labels
}

// SetData replaces the curve's points. Safe to call from any goroutine; the
// visual update is marshalled to the UI thread.
func (cv *Curve) SetData(xs, ys []float64) {
	cv.chart.mu.Lock()
	cv.xs = append(cv.xs[:0], xs...)
	cv.ys = append(cv.ys[:0], ys...)
	cv.chart.mu.Unlock()
	cv.chart.scheduleRefresh()
}

// Data returns copies of the curve's current points.
func (cv *Curve) Data() (xs, ys []float64) {
	cv.chart.mu.RLock()
	defer cv.chart.mu.RUnlock()
	return append([]float64(nil), cv.xs...), append([]float64(nil), cv.ys...)
}

// Detach removes the curve and its legend entry from the chart.
func (cv *Curve) Detach() {
	c := cv.chart
	c.mu.Lock()
	for i, other := range c.curves {
		if other == cv {
			c.curves = append(c.curves[:i], c.curves[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
	c.scheduleRefresh()
}

func (c *Chart) scheduleRefresh() {
	fyne.Do(c.Refresh)
}

func (c *Chart) CreateRenderer() fyne.WidgetRenderer {
	return &chartRenderer{chart: c}
}

type chartRenderer struct {
	chart   *Chart
	objects []fyne.CanvasObject
}

func (r *chartRenderer) MinSize() fyne.Size { return fyne.NewSize(320, 200) }

func (r *chartRenderer) Layout(size fyne.Size) { r.rebuild(size) }

func (r *chartRenderer) Refresh() {
	r.rebuild(r.chart.Size())
	canvas.Refresh(r.chart)
}

func (r *chartRenderer) Objects() []fyne.CanvasObject { return r.objects }

func (r *chartRenderer) Destroy() {}

const (
	padLeft   float32 = 46
	padRight  float32 = 10
	padTop    float32 = 26
	padBottom float32 = 18
	gridSteps         = 4
)

var (
	gridColor  = color.NRGBA{R: 0, G: 0, B: 0, A: 40}
	labelColor = color.NRGBA{R: 90, G: 90, B: 90, A: 255}
)

func (r *chartRenderer) rebuild(size fyne.Size) {
	c := r.chart
	c.mu.RLock()
	defer c.mu.RUnlock()

	objs := make([]fyne.CanvasObject, 0, 64)

	bg := canvas.NewRectangle(theme.Color(theme.ColorNameInputBackground))
	bg.Resize(size)
	objs = append(objs, bg)

	w := size.Width - padLeft - padRight
	h := size.Height - padTop - padBottom
	if w <= 0 || h <= 0 {
		r.objects = objs
		return
	}

	xMin, xMax, yMin, yMax := bounds(c.curves)

	// grid
	for i := 0; i <= gridSteps; i++ {
		frac := float32(i) / gridSteps
		hl := canvas.NewLine(gridColor)
		hl.Position1 = fyne.NewPos(padLeft, padTop+frac*h)
		hl.Position2 = fyne.NewPos(padLeft+w, padTop+frac*h)
		vl := canvas.NewLine(gridColor)
		vl.Position1 = fyne.NewPos(padLeft+frac*w, padTop)
		vl.Position2 = fyne.NewPos(padLeft+frac*w, padTop+h)
		objs = append(objs, hl, vl)
	}

	// y axis labels
	yMaxText := canvas.NewText(formatAxis(yMax), labelColor)
	yMaxText.TextSize = theme.TextSize() - 2
	yMaxText.Move(fyne.NewPos(4, padTop-6))
	yMinText := canvas.NewText(formatAxis(yMin), labelColor)
	yMinText.TextSize = theme.TextSize() - 2
	yMinText.Move(fyne.NewPos(4, padTop+h-10))
	objs = append(objs, yMaxText, yMinText)

	if c.title != "" {
		title := canvas.NewText(c.title, labelColor)
		title.TextStyle = fyne.TextStyle{Bold: true}
		title.Move(fyne.NewPos(padLeft, 4))
		objs = append(objs, title)
	}

	toX := func(x float64) float32 {
		return padLeft + float32((x-xMin)/(xMax-xMin))*w
	}
	toY := func(y float64) float32 {
		return padTop + float32(1-(y-yMin)/(yMax-yMin))*h
	}

	for _, cv := range c.curves {
		n := len(cv.ys)
		if len(cv.xs) < n {
			n = len(cv.xs)
		}
		for i := 1; i < n; i++ {
			seg := canvas.NewLine(cv.color)
			seg.StrokeWidth = 2
			seg.Position1 = fyne.NewPos(toX(cv.xs[i-1]), toY(cv.ys[i-1]))
			seg.Position2 = fyne.NewPos(toX(cv.xs[i]), toY(cv.ys[i]))
			objs = append(objs, seg)
		}
	}

	// legend, top right, one entry per curve
	legendY := float32(4)
	for _, cv := range c.curves {
		entry := canvas.NewText("— "+cv.label, cv.color)
		entry.TextSize = theme.TextSize() - 2
		entry.Alignment = fyne.TextAlignTrailing
		entry.Move(fyne.NewPos(size.Width-padRight-entry.MinSize().Width, legendY))
		objs = append(objs, entry)
		legendY += entry.MinSize().Height + 2
	}

	r.objects = objs
}

// bounds computes the plotted extents over every curve, padded when degenerate
// so the mapping never divides by zero.
func bounds(curves []*Curve) (xMin, xMax, yMin, yMax float64) {
	xMin, yMin = math.Inf(1), math.Inf(1)
	xMax, yMax = math.Inf(-1), math.Inf(-1)
	for _, cv := range curves {
		for _, x := range cv.xs {
			xMin = math.Min(xMin, x)
			xMax = math.Max(xMax, x)
		}
		for _, y := range cv.ys {
			yMin = math.Min(yMin, y)
			yMax = math.Max(yMax, y)
		}
	}
	if math.IsInf(xMin, 1) {
		xMin, xMax = 0, 1
	}
	if math.IsInf(yMin, 1) {
		yMin, yMax = 0, 1
	}
	if xMax == xMin {
		xMax = xMin + 1
	}
	if yMax == yMin {
		yMin -= 1
		yMax += 1
	}
	return
}

func formatAxis(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e6 {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}
