package bridge

import (
	"context"
	"errors"
	"testing"
	"time"

	"rockerboo/mcp-bridge/session"
	"rockerboo/mcp-bridge/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartAllLaunchesEveryDefinition(t *testing.T) {
	factory := newFakeFactory()
	registry := NewRegistryWithFactory(factory.make)

	defs := []store.Definition{
		{Name: "alpha", Command: "alpha-server"},
		{Name: "beta", Command: "beta-server"},
		{Name: "gamma", Command: "gamma-server"},
	}

	StartAll(context.Background(), registry, defs, 0)

	statuses := registry.ListStatuses()
	require.Len(t, statuses, 3)

	for _, snap := range statuses {
		assert.Equal(t, session.StatusRunning, snap.Status)
	}
}

func TestStartAllToleratesFailures(t *testing.T) {
	factory := newFakeFactory()
	factory.next = func(name string) *fakeSession {
		sess := newFakeSession(name)
		if name == "broken" {
			sess.startErr = errors.New("no such binary")
		}

		return sess
	}

	registry := NewRegistryWithFactory(factory.make)

	defs := []store.Definition{
		{Name: "broken", Command: "missing"},
		{Name: "healthy", Command: "tool-server"},
	}

	StartAll(context.Background(), registry, defs, 0)

	snap, err := registry.GetStatus("broken")
	require.NoError(t, err)
	assert.Equal(t, session.StatusFailed, snap.Status)

	snap, err = registry.GetStatus("healthy")
	require.NoError(t, err)
	assert.Equal(t, session.StatusRunning, snap.Status)
}

func TestStartAllStaggersLaunches(t *testing.T) {
	factory := newFakeFactory()
	registry := NewRegistryWithFactory(factory.make)

	defs := []store.Definition{
		{Name: "first", Command: "a"},
		{Name: "second", Command: "b"},
		{Name: "third", Command: "c"},
	}

	started := time.Now()
	StartAll(context.Background(), registry, defs, 30*time.Millisecond)

	// The last launch waits (n-1)*stagger before spawning.
	assert.GreaterOrEqual(t, time.Since(started), 60*time.Millisecond)
	assert.Len(t, registry.ListStatuses(), 3)
}

func TestStartAllEmpty(t *testing.T) {
	registry := NewRegistryWithFactory(newFakeFactory().make)

	StartAll(context.Background(), registry, nil, time.Second)

	assert.Empty(t, registry.ListStatuses())
}
