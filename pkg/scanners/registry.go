// Package scanners provides the registry of built-in domain scanners.
package scanners

import (
	"sync"

	"github.com/exploopio/posture/pkg/core"
	"github.com/exploopio/posture/pkg/report"
	"github.com/exploopio/posture/pkg/scanners/configuration"
	"github.com/exploopio/posture/pkg/scanners/container"
	"github.com/exploopio/posture/pkg/scanners/dependency"
	"github.com/exploopio/posture/pkg/scanners/filesystem"
	"github.com/exploopio/posture/pkg/scanners/network"
	"github.com/exploopio/posture/pkg/scanners/process"
)

// Registry manages registered domain scanners, one per domain.
type Registry struct {
	scanners map[report.Domain]core.Scanner
	mu       sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{scanners: make(map[report.Domain]core.Scanner)}
}

// NewDefaultRegistry creates a registry with the built-in scanner for
// every domain. The configuration scanner inspects the given
// environment snapshot rather than ambient process state.
func NewDefaultRegistry(env []string) *Registry {
	r := NewRegistry()
	r.Register(network.NewScanner())
	r.Register(process.NewScanner())
	r.Register(filesystem.NewScanner())
	r.Register(dependency.NewScanner())
	r.Register(configuration.NewScanner(env))
	r.Register(container.NewScanner())
	return r
}

// Register adds a scanner to the registry, replacing any scanner
// previously registered for the same domain.
func (r *Registry) Register(s core.Scanner) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scanners[s.Domain()] = s
}

// Get returns the scanner registered for a domain, or nil.
func (r *Registry) Get(d report.Domain) core.Scanner {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.scanners[d]
}
