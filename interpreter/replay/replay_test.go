package replay

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSnapshot = `{
  "threads": [
    {
      "id": 1,
      "frames": [
        {"file": "/home/u/myapp/worker.py", "line": 42, "lasti": 16},
        {"file": "/usr/lib/python3.11/threading.py", "line": 975, "lasti": 8}
      ]
    },
    {"id": 2, "frames": []}
  ]
}`

func TestLoad(t *testing.T) {
	rt, err := Load(strings.NewReader(sampleSnapshot))
	require.NoError(t, err)

	assert.True(t, rt.Running())
	require.Len(t, rt.Threads(), 2)

	// First thread in the snapshot is current by default.
	cur := rt.CurrentThread()
	require.NotNil(t, cur)
	assert.Equal(t, uint64(1), cur.ID())

	frame := cur.Frame()
	require.NotNil(t, frame)
	name, err := frame.Filename()
	require.NoError(t, err)
	assert.Equal(t, "/home/u/myapp/worker.py", name)
	assert.Equal(t, 42, frame.Line())
	assert.Equal(t, 16, frame.Lasti())

	// Walk outward: caller is the threading frame, then the chain ends.
	outer := frame.Back()
	require.NotNil(t, outer)
	name, err = outer.Filename()
	require.NoError(t, err)
	assert.Equal(t, "/usr/lib/python3.11/threading.py", name)
	assert.Nil(t, outer.Back())
}

func TestLoad_BadJSON(t *testing.T) {
	_, err := Load(strings.NewReader("{not json"))
	require.Error(t, err)
}

func TestSetCurrent(t *testing.T) {
	rt, err := Load(strings.NewReader(sampleSnapshot))
	require.NoError(t, err)

	rt.SetCurrent(2)
	cur := rt.CurrentThread()
	require.NotNil(t, cur)
	assert.Equal(t, uint64(2), cur.ID())
	// Thread 2 recorded no frames.
	assert.Nil(t, cur.Frame())

	// An unknown id simulates a native thread.
	rt.SetCurrent(99)
	assert.Nil(t, rt.CurrentThread())
}

func TestSetRunning(t *testing.T) {
	rt := New(Snapshot{})
	assert.True(t, rt.Running())
	rt.SetRunning(false)
	assert.False(t, rt.Running())
}
