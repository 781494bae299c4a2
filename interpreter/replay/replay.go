// Package replay implements interpreter.Runtime on top of a recorded
// snapshot of interpreter threads and frames. It stands in for a live
// runtime in tests and in the pywhere CLI.
package replay

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/pywhere/pywhere/interpreter"
)

// Snapshot is the serialized form of a runtime state capture.
type Snapshot struct {
	Threads []ThreadSnapshot `json:"threads"`
}

// ThreadSnapshot holds one thread's frame chain, innermost frame first.
type ThreadSnapshot struct {
	ID     uint64          `json:"id"`
	Frames []FrameSnapshot `json:"frames"`
}

// FrameSnapshot is one recorded frame.
type FrameSnapshot struct {
	File  string `json:"file"`
	Line  int    `json:"line"`
	Lasti int    `json:"lasti"`
}

// Runtime replays a snapshot through the interpreter.Runtime surface.
type Runtime struct {
	mu      sync.Mutex
	threads []*thread
	current uint64
	running bool
}

// New builds a runtime from a snapshot. The current thread defaults to the
// first thread in the snapshot; use SetCurrent to change it.
func New(snap Snapshot) *Runtime {
	rt := &Runtime{running: true}
	for _, ts := range snap.Threads {
		t := &thread{id: ts.ID}
		// Link frames innermost to outermost.
		var outer *frame
		for i := len(ts.Frames) - 1; i >= 0; i-- {
			fs := ts.Frames[i]
			outer = &frame{file: fs.File, line: fs.Line, lasti: fs.Lasti, back: outer}
		}
		t.top = outer
		rt.threads = append(rt.threads, t)
	}
	if len(rt.threads) > 0 {
		rt.current = rt.threads[0].id
	}
	return rt
}

// Load decodes a JSON snapshot and builds a runtime from it.
func Load(r io.Reader) (*Runtime, error) {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode stack snapshot: %w", err)
	}
	return New(snap), nil
}

// SetCurrent selects which thread the next sample is attributed from.
// An id that matches no snapshot thread simulates a sample taken on a
// native thread the runtime does not recognize.
func (r *Runtime) SetCurrent(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = id
}

// SetRunning toggles the initialized state of the replayed runtime.
func (r *Runtime) SetRunning(running bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = running
}

func (r *Runtime) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Runtime) ExecLock() sync.Locker {
	return &r.mu
}

func (r *Runtime) CurrentThread() interpreter.Thread {
	for _, t := range r.threads {
		if t.id == r.current {
			return t
		}
	}
	return nil
}

func (r *Runtime) Threads() []interpreter.Thread {
	out := make([]interpreter.Thread, 0, len(r.threads))
	for _, t := range r.threads {
		out = append(out, t)
	}
	return out
}

type thread struct {
	id  uint64
	top *frame
}

func (t *thread) ID() uint64 { return t.id }

func (t *thread) Frame() interpreter.Frame {
	if t.top == nil {
		return nil
	}
	return t.top
}

type frame struct {
	file  string
	line  int
	lasti int
	back  *frame
}

func (f *frame) Filename() (string, error) { return f.file, nil }
func (f *frame) Line() int                 { return f.line }
func (f *frame) Lasti() int                { return f.lasti }

func (f *frame) Back() interpreter.Frame {
	if f.back == nil {
		return nil
	}
	return f.back
}
