package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uascope/internal/graph"
)

func TestAddErrorStatus(t *testing.T) {
	// The manager wraps its sentinels with context, e.g.
	// "node value cannot be plotted in this mode: data type String".
	notPlottable := fmt.Errorf("%w: data type String", graph.ErrNotPlottable)
	assert.Equal(t, http.StatusUnprocessableEntity, addErrorStatus(notPlottable))
	assert.Equal(t, http.StatusUnprocessableEntity, addErrorStatus(graph.ErrNotPlottable))

	assert.Equal(t, http.StatusConflict, addErrorStatus(graph.ErrAlreadyTracked))
	assert.Equal(t, http.StatusConflict, addErrorStatus(fmt.Errorf("add: %w", graph.ErrAlreadyTracked)))

	assert.Equal(t, http.StatusInternalServerError, addErrorStatus(errors.New("read attributes failed")))
}

func TestParseMode(t *testing.T) {
	mode, err := parseMode("")
	require.NoError(t, err)
	assert.Equal(t, graph.ModeScalar, mode)

	mode, err = parseMode("scalar")
	require.NoError(t, err)
	assert.Equal(t, graph.ModeScalar, mode)

	mode, err = parseMode(" Array ")
	require.NoError(t, err)
	assert.Equal(t, graph.ModeArray, mode)

	_, err = parseMode("histogram")
	assert.Error(t, err)
}

func TestClientFilterMatchesAllWhenEmpty(t *testing.T) {
	c := &Client{filter: make(map[string]bool)}
	assert.True(t, c.wants("ns=2;s=Demo.Temperature"))

	c.filter["ns=2;s=Demo.Temperature"] = true
	assert.True(t, c.wants("ns=2;s=Demo.Temperature"))
	assert.False(t, c.wants("ns=2;s=Demo.Pressure"))

	delete(c.filter, "ns=2;s=Demo.Temperature")
	assert.True(t, c.wants("ns=2;s=Demo.Pressure"))
}
