// Package pywhere ties the attribution core together: it registers the set
// of files to profile, installs the trace filter, and publishes the
// resolver entry point for the external sampling trigger to call.
package pywhere

import (
	"errors"
	"fmt"
	"sync/atomic"

	log "github.com/sirupsen/logrus"

	"github.com/pywhere/pywhere/interpreter"
	"github.com/pywhere/pywhere/libpf"
	"github.com/pywhere/pywhere/resolver"
	"github.com/pywhere/pywhere/tracefilter"
)

// ErrInvalidArgument is returned for malformed registration arguments.
var ErrInvalidArgument = errors.New("invalid argument")

// ResolveFunc is the published resolver entry point. It is safe to call
// from the sampling trigger at any time after successful registration.
type ResolveFunc func() (libpf.Location, bool)

var published atomic.Pointer[ResolveFunc]

// RegisterFilesToProfile installs a new trace filter built from patterns
// (a list of path fragments) and basePath, and publishes a resolver bound
// to rt. patterns must be list-like: []string, [][]byte, or []any holding
// strings or byte slices; anything else fails with ErrInvalidArgument.
// Calling it again replaces the previous filter.
func RegisterFilesToProfile(rt interpreter.Runtime, patterns any,
	basePath string, profileAll bool) error {
	if rt == nil {
		return fmt.Errorf("%w: no runtime to bind the resolver to", ErrInvalidArgument)
	}
	list, err := stringList(patterns)
	if err != nil {
		return err
	}
	cfg, err := tracefilter.New(list, basePath, profileAll)
	if err != nil {
		return err
	}
	tracefilter.Install(cfg)

	fn := ResolveFunc(resolver.New(rt).ResolveLocation)
	published.Store(&fn)

	log.WithFields(log.Fields{
		"patterns":    len(list),
		"base_path":   basePath,
		"profile_all": profileAll,
	}).Info("registered files to profile")
	return nil
}

// Published returns the resolver entry point installed by the last
// successful registration, or nil if none.
func Published() ResolveFunc {
	if p := published.Load(); p != nil {
		return *p
	}
	return nil
}

// PrintFilesToProfile logs the current filter configuration. No-op when no
// filter is installed.
func PrintFilesToProfile() {
	if cfg := tracefilter.Current(); cfg != nil {
		fmt.Print(cfg.Describe())
	}
}

func stringList(patterns any) ([]string, error) {
	switch v := patterns.(type) {
	case []string:
		return append([]string(nil), v...), nil
	case [][]byte:
		out := make([]string, len(v))
		for i, b := range v {
			out[i] = string(b)
		}
		return out, nil
	case []any:
		out := make([]string, len(v))
		for i, item := range v {
			switch s := item.(type) {
			case string:
				out[i] = s
			case []byte:
				out[i] = string(s)
			default:
				return nil, fmt.Errorf("%w: pattern %d is %T, want string",
					ErrInvalidArgument, i, item)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: requires a list of path fragments, got %T",
			ErrInvalidArgument, patterns)
	}
}
