package limiter

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFile(t *testing.T) {
	lim := New(filepath.Join(t.TempDir(), "next-req"), time.Second)
	require.NoError(t, lim.Load())
	assert.True(t, lim.nextAt.IsZero())
}

// A server-requested wait persists to the stamp file, and a fresh limiter
// picks it back up on Load.
func TestSetNextAtPersists(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "next-req")
	lim := New(filename, time.Second)

	before := time.Now()
	require.NoError(t, lim.SetNextAt(7))
	assert.False(t, lim.nextAt.Before(before.Add(7*time.Second)))

	restored := New(filename, time.Second)
	require.NoError(t, restored.Load())
	assert.WithinDuration(t, lim.nextAt, restored.nextAt, time.Second)
}

// Zero means the server didn't say how long; default to a minute.
func TestSetNextAtDefault(t *testing.T) {
	lim := New(filepath.Join(t.TempDir(), "next-req"), time.Second)
	require.NoError(t, lim.SetNextAt(0))
	assert.False(t, lim.nextAt.Before(time.Now().Add(59*time.Second)))
}

func TestWaitCanceled(t *testing.T) {
	lim := New(filepath.Join(t.TempDir(), "next-req"), time.Second)
	lim.nextAt = time.Now().Add(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, lim.Wait(ctx), context.Canceled)
}

func TestDelay(t *testing.T) {
	lim := New(filepath.Join(t.TempDir(), "next-req"), 5*time.Second)
	lim.Delay()
	assert.WithinDuration(t, time.Now().Add(5*time.Second), lim.nextAt, time.Second)
}
