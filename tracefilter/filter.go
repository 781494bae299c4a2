// Package tracefilter decides which source files belong to the code the
// user asked to profile. A single Config instance is installed at
// registration time and consulted on every sample walk; reconfiguration
// replaces the instance rather than mutating it.
package tracefilter

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	lru "github.com/elastic/go-freelru"
	"github.com/sirupsen/logrus"
	"github.com/zeebo/xxh3"
)

// SelfFragment identifies the profiler's own source tree. Files under it
// are never attributed to the user program.
const SelfFragment = "pywhere/pywhere"

// Canonicalizing a path hits the filesystem; sample walks see the same few
// filenames over and over, so cache the results.
const resolvedCacheSize = 4096

// Config is an immutable filter configuration. All matching is plain
// substring containment, no glob or regex semantics.
type Config struct {
	include    []string
	basePath   string
	profileAll bool
	resolved   *lru.SyncedLRU[string, string]
	log        *logrus.Entry
}

// New builds a filter from include fragments and a base path. The fragment
// strings are copied; the caller's backing storage is not retained.
func New(patterns []string, basePath string, profileAll bool) (*Config, error) {
	resolved, err := lru.NewSynced[string, string](resolvedCacheSize, hashString)
	if err != nil {
		return nil, err
	}
	include := make([]string, len(patterns))
	copy(include, patterns)
	return &Config{
		include:    include,
		basePath:   basePath,
		profileAll: profileAll,
		resolved:   resolved,
		log:        logrus.WithField("component", "tracefilter"),
	}, nil
}

// ShouldTrace reports whether filename belongs to profiled user code.
// Rules apply in fixed priority order, first match wins:
//
//  1. interpreter-provided library code is never traced
//  2. ipython/notebook cells are always traced
//  3. the profiler's own code is never traced
//  4. any include fragment match is traced
//  5. otherwise trace iff the canonicalized path contains the base path
func (c *Config) ShouldTrace(filename string) bool {
	if strings.Contains(filename, "site-packages") ||
		strings.Contains(filename, "/lib/python") {
		return false
	}
	if strings.HasPrefix(filename, "<") && strings.Contains(filename, "<ipython") {
		return true
	}
	if strings.Contains(filename, SelfFragment) {
		return false
	}
	for _, fragment := range c.include {
		if strings.Contains(filename, fragment) {
			return true
		}
	}
	resolved, ok := c.realpath(filename)
	if !ok {
		// Cannot classify the file; leave it untraced rather than
		// failing the sample.
		return false
	}
	return strings.Contains(resolved, c.basePath)
}

// realpath returns the symlink-free absolute form of filename.
func (c *Config) realpath(filename string) (string, bool) {
	if cached, ok := c.resolved.Get(filename); ok {
		return cached, true
	}
	abs, err := filepath.Abs(filename)
	if err == nil {
		abs, err = filepath.EvalSymlinks(abs)
	}
	if err != nil {
		c.log.WithError(err).WithField("file", filename).
			Debug("cannot canonicalize path")
		return "", false
	}
	c.resolved.Add(filename, abs)
	return abs, true
}

// ProfileAll reports the stored profile-all flag. The flag is not consulted
// by ShouldTrace; it is carried for the registration caller.
func (c *Config) ProfileAll() bool {
	return c.profileAll
}

// Describe renders the configuration for diagnostics.
func (c *Config) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "profile all? %v\nitems {\n", c.profileAll)
	for _, fragment := range c.include {
		fmt.Fprintf(&b, "\t%s\n", fragment)
	}
	b.WriteString("}\n")
	return b.String()
}

func hashString(s string) uint32 {
	return uint32(xxh3.HashString(s))
}

var (
	installMu sync.Mutex
	current   atomic.Pointer[Config]
)

// Install makes cfg the filter consulted by subsequent walks. A walk that
// already loaded the previous instance keeps using it until the walk ends;
// the instance stays alive as long as any reader holds it.
func Install(cfg *Config) {
	installMu.Lock()
	defer installMu.Unlock()
	current.Store(cfg)
}

// Current returns the installed filter, or nil if none has been installed.
func Current() *Config {
	return current.Load()
}
