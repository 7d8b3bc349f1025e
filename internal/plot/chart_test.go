package plot

import (
	"image/color"
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var green = color.NRGBA{R: 0x4e, G: 0x9a, B: 0x06, A: 0xff}

func TestAddCurveAppearsInLegendOrder(t *testing.T) {
	test.NewApp()
	c := NewChart("Graph")

	c.AddCurve("Temperature", green)
	c.AddCurve("Pressure", color.NRGBA{R: 0xcc, A: 0xff})

	assert.Equal(t, []string{"Temperature", "Pressure"}, c.Curves())
}

func TestSetDataCopiesPoints(t *testing.T) {
	test.NewApp()
	c := NewChart("")
	cv := c.AddCurve("A", green)

	xs := []float64{0, 1, 2}
	ys := []float64{1, 4, 9}
	cv.SetData(xs, ys)
	xs[0] = 100

	gotX, gotY := cv.Data()
	assert.Equal(t, []float64{0, 1, 2}, gotX)
	assert.Equal(t, []float64{1, 4, 9}, gotY)
}

func TestDetachRemovesCurveAndLegendEntry(t *testing.T) {
	test.NewApp()
	c := NewChart("")
	a := c.AddCurve("A", green)
	c.AddCurve("B", green)

	a.Detach()

	assert.Equal(t, []string{"B"}, c.Curves())
}

func TestBoundsPadDegenerateRanges(t *testing.T) {
	cv := &Curve{xs: []float64{2, 2}, ys: []float64{5, 5}}
	xMin, xMax, yMin, yMax := bounds([]*Curve{cv})
	assert.Less(t, xMin, xMax)
	assert.Less(t, yMin, yMax)
}

func TestBoundsEmptyChart(t *testing.T) {
	xMin, xMax, yMin, yMax := bounds(nil)
	require.Less(t, xMin, xMax)
	require.Less(t, yMin, yMax)
}
