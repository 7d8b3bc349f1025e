package controller

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"uascope/internal/graph"
	"uascope/internal/opc"
)

// A disconnect swaps and closes the sample channel while graph ticks may
// still be broadcasting frames. The close must never hit a channel a
// broadcast is about to send on.
func TestDisconnectRacesBroadcastWithoutPanic(t *testing.T) {
	c := New()
	frames := []graph.SampleFrame{
		{NodeID: "ns=2;s=Demo.Temperature", Name: "Temperature", Mode: "scalar", Value: 21.5},
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 5000; i++ {
			c.broadcastFrames(frames)
		}
	}()

	assert.NotPanics(t, func() {
		for i := 0; i < 200; i++ {
			c.Disconnect()
		}
	})
	wg.Wait()
}

func TestDisconnectRearmsSampleChan(t *testing.T) {
	c := New()
	before := c.GetSampleChan()
	c.Disconnect()
	after := c.GetSampleChan()

	assert.NotEqual(t, before, after)
	// The old channel is closed so the hub sees the session end.
	_, open := <-before
	assert.False(t, open)
}

func TestUpdateApiServerStateTogglesServer(t *testing.T) {
	c := New()
	var status string
	started := 0
	c.SetApiStatus(&status)
	c.SetApiStarter(func(ctx context.Context, nm NodeManager, apiStatus *string, cfg *opc.Config) *http.Server {
		started++
		return &http.Server{}
	})

	c.UpdateApiServerState(&opc.Config{ApiEnabled: true, ApiPort: "8085"})
	assert.Equal(t, 1, started)

	// Restart while enabled, e.g. after a port change.
	c.UpdateApiServerState(&opc.Config{ApiEnabled: true, ApiPort: "8086"})
	assert.Equal(t, 2, started)

	c.UpdateApiServerState(&opc.Config{ApiEnabled: false})
	assert.Equal(t, "API Disabled", status)

	c.Shutdown()
}

func TestShutdownSafeConcurrentWithApiUpdates(t *testing.T) {
	c := New()
	var status string
	c.SetApiStatus(&status)
	c.SetApiStarter(func(ctx context.Context, nm NodeManager, apiStatus *string, cfg *opc.Config) *http.Server {
		return &http.Server{}
	})
	cfg := &opc.Config{ApiEnabled: true, ApiPort: "8087"}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			c.UpdateApiServerState(cfg)
		}
	}()
	assert.NotPanics(t, func() {
		for i := 0; i < 100; i++ {
			c.Shutdown()
		}
	})
	wg.Wait()
}
