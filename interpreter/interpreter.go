// Package interpreter models the host language runtime that owns the frames
// a sample attribution walk inspects. The profiler core only ever borrows
// thread and frame handles for the duration of a single walk; the concrete
// runtime (live CPython embedding, replay snapshot, ...) stays in charge of
// their lifetime.
package interpreter

import "sync"

// Runtime is the capability surface the attribution core needs from the
// host interpreter.
type Runtime interface {
	// Running reports whether the runtime is initialized. When false there
	// are no frames to inspect and a walk returns the sentinel immediately.
	Running() bool

	// ExecLock returns the process-wide lock that must be held while frame
	// state is read. Frames are mutated concurrently by the running
	// program; holders must release on every exit path.
	ExecLock() sync.Locker

	// CurrentThread returns the thread state of the calling context, or
	// nil when the sample was taken on a thread the runtime does not know
	// about (for example a native worker thread).
	CurrentThread() Thread

	// Threads enumerates all live interpreter threads.
	Threads() []Thread
}

// Thread is a borrowed per-thread state handle, valid only while the
// execution lock is held.
type Thread interface {
	// ID is the runtime-assigned thread identifier.
	ID() uint64

	// Frame returns the thread's innermost frame, or nil if the thread is
	// not currently executing interpreted code.
	Frame() Frame
}

// Frame is a borrowed handle on one interpreter frame. Implementations must
// not require the caller to retain it past the walk that obtained it.
type Frame interface {
	// Filename returns the source file identifier of the frame's code
	// unit. An error means the identifier could not be decoded; callers
	// skip such frames rather than failing the walk.
	Filename() (string, error)

	// Line is the source line currently executing in this frame.
	Line() int

	// Lasti is the current bytecode instruction offset, 0 on runtimes
	// that cannot expose it.
	Lasti() int

	// Back returns the caller's frame, or nil at the outermost frame.
	Back() Frame
}
