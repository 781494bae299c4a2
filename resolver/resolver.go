// Package resolver walks a thread's interpreter frames on every sample tick
// and charges the sample to the innermost frame that belongs to profiled
// user code.
package resolver

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pywhere/pywhere/interpreter"
	"github.com/pywhere/pywhere/libpf"
	"github.com/pywhere/pywhere/tracefilter"
)

// ThreadSelector picks the thread a sample is attributed to when the
// sampling context has no interpreter frame of its own.
type ThreadSelector func(threads []interpreter.Thread) interpreter.Thread

// LowestID selects the thread with the numerically smallest identifier.
// This is a heuristic for "the main thread", which typically has id 1 and
// is the likeliest requester of whatever a native worker thread is doing.
func LowestID(threads []interpreter.Thread) interpreter.Thread {
	var main interpreter.Thread
	for _, t := range threads {
		if main == nil || t.ID() < main.ID() {
			main = t
		}
	}
	return main
}

// Resolver is the per-sample attribution routine. It retains no state
// between calls beyond its wiring.
type Resolver struct {
	rt     interpreter.Runtime
	filter func() *tracefilter.Config
	pick   ThreadSelector
	log    *logrus.Entry
}

// Option adjusts resolver wiring.
type Option func(*Resolver)

// WithFilterProvider overrides where the resolver reads its filter from.
// The default is tracefilter.Current.
func WithFilterProvider(f func() *tracefilter.Config) Option {
	return func(r *Resolver) { r.filter = f }
}

// WithThreadSelector overrides the fallback thread-selection strategy.
func WithThreadSelector(s ThreadSelector) Option {
	return func(r *Resolver) { r.pick = s }
}

func New(rt interpreter.Runtime, opts ...Option) *Resolver {
	r := &Resolver{
		rt:     rt,
		filter: tracefilter.Current,
		pick:   LowestID,
		log:    logrus.WithField("component", "resolver"),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// ResolveLocation walks outward from the sampled thread's innermost frame
// and returns the first location accepted by the trace filter. It returns
// the sentinel location and false when the runtime is down, no filter is
// installed, or the whole chain is excluded; that last case is the normal
// outcome for samples landing inside interpreter or library code.
func (r *Resolver) ResolveLocation() (libpf.Location, bool) {
	if !r.rt.Running() {
		return libpf.NoLocation(), false
	}

	// Frames are mutated by the running program; hold the runtime's
	// execution lock for the whole walk.
	lock := r.rt.ExecLock()
	lock.Lock()
	defer lock.Unlock()

	cfg := r.filter()
	if cfg == nil {
		return libpf.NoLocation(), false
	}

	for frame := r.sampledFrame(); frame != nil; frame = frame.Back() {
		name, err := frame.Filename()
		if err != nil {
			framesSkipped.WithLabelValues("undecodable").Inc()
			r.log.WithError(err).Debug("skipping frame with undecodable filename")
			continue
		}
		if name == "" {
			framesSkipped.WithLabelValues("empty").Inc()
			continue
		}
		// Cheap exclusions first: synthetic pseudo-files, interpreter
		// internals and the profiler itself never reach the filter.
		if strings.Contains(name, "<") ||
			strings.Contains(name, "/python") ||
			strings.Contains(name, tracefilter.SelfFragment) {
			framesSkipped.WithLabelValues("interpreter").Inc()
			continue
		}
		if cfg.ShouldTrace(name) {
			samplesResolved.Inc()
			return libpf.Location{
				File:        name,
				Line:        frame.Line(),
				Instruction: frame.Lasti(),
			}, true
		}
	}

	samplesUnattributed.Inc()
	return libpf.NoLocation(), false
}

// sampledFrame returns the frame the sample lands on: the calling thread's
// current frame, or a fallback thread's frame when the sample was taken on
// a thread the runtime does not recognize. Callers hold the exec lock.
func (r *Resolver) sampledFrame() interpreter.Frame {
	if t := r.rt.CurrentThread(); t != nil {
		if f := t.Frame(); f != nil {
			return f
		}
	}
	// Native threads have no frame of their own; attribute their work to
	// the thread most likely to have requested it.
	if t := r.pick(r.rt.Threads()); t != nil {
		return t.Frame()
	}
	return nil
}
