// Package orchestrator fans the domain scanners out as independent
// concurrent tasks, isolates their failures, and assembles the final
// scan report.
package orchestrator

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/exploopio/posture/pkg/core"
	"github.com/exploopio/posture/pkg/errors"
	"github.com/exploopio/posture/pkg/metrics"
	"github.com/exploopio/posture/pkg/report"
	"github.com/exploopio/posture/pkg/risk"
	"github.com/exploopio/posture/pkg/scanners"
)

// DefaultScannerTimeout is the per-scanner deadline. One slow domain
// must never delay the others beyond this bound.
const DefaultScannerTimeout = 10 * time.Second

// Option configures the orchestrator.
type Option func(*Orchestrator)

// WithTimeout overrides the per-scanner deadline.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l core.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

// WithMetrics attaches a metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithHostname overrides hostname resolution, for tests.
func WithHostname(fn func() (string, error)) Option {
	return func(o *Orchestrator) { o.hostname = fn }
}

// Orchestrator runs all registered domain scanners concurrently and
// collects their results at a synchronization barrier.
type Orchestrator struct {
	registry *scanners.Registry
	timeout  time.Duration
	log      core.Logger
	metrics  *metrics.Collector
	hostname func() (string, error)
}

// New creates an orchestrator over a scanner registry.
func New(registry *scanners.Registry, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry: registry,
		timeout:  DefaultScannerTimeout,
		log:      &core.NopLogger{},
		hostname: os.Hostname,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RunFullScan launches all six domain scanners concurrently, waits for
// every domain to resolve (success or degraded), and assembles the
// report. One failing or slow domain never aborts the run: it is
// substituted with an empty degraded result while the others proceed.
//
// Timestamp and hostname are stamped after the barrier, so two
// sequential scans are ordered by report timestamp.
func (o *Orchestrator) RunFullScan(ctx context.Context) (*report.ScanReport, error) {
	domains := report.Domains()
	results := make([]report.DomainResult, len(domains))

	var wg sync.WaitGroup
	for i, d := range domains {
		wg.Add(1)
		go func(i int, d report.Domain) {
			defer wg.Done()
			results[i] = o.runScanner(ctx, d)
		}(i, d)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rs report.ResultSet
	for _, dr := range results {
		rs.Set(dr)
	}

	hostname, err := o.hostname()
	if err != nil {
		o.log.Warn("hostname unavailable: %v", err)
		hostname = "unknown"
	}

	rep := &report.ScanReport{
		Timestamp: time.Now(),
		Hostname:  hostname,
		Results:   rs,
		Summary:   risk.Summarize(rs),
	}
	return rep, nil
}

// runScanner runs one domain scanner under the per-scanner deadline.
// On timeout the task is abandoned (its late result is discarded, not
// awaited) and the domain degrades; sibling tasks are unaffected.
func (o *Orchestrator) runScanner(ctx context.Context, d report.Domain) report.DomainResult {
	s := o.registry.Get(d)
	if s == nil {
		o.log.Warn("no scanner registered for domain %s", d)
		return report.DegradedResult(d)
	}

	start := time.Now()
	tctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	type outcome struct {
		res report.DomainResult
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := scanSafe(tctx, s)
		done <- outcome{res, err}
	}()

	select {
	case <-tctx.Done():
		o.log.Warn("scanner %s exceeded its %s deadline, degrading domain", s.Name(), o.timeout)
		o.observe(d, "degraded", time.Since(start), nil)
		return report.DegradedResult(d)

	case out := <-done:
		if out.err != nil {
			o.log.Warn("scanner %s failed (%s): %v", s.Name(), errors.KindOf(out.err), out.err)
			o.observe(d, "degraded", time.Since(start), nil)
			return report.DegradedResult(d)
		}
		if out.res == nil {
			o.log.Warn("scanner %s returned no result, degrading domain", s.Name())
			o.observe(d, "degraded", time.Since(start), nil)
			return report.DegradedResult(d)
		}
		o.observe(d, "ok", time.Since(start), out.res)
		return out.res
	}
}

// scanSafe shields the orchestrator from a panicking scanner.
func scanSafe(ctx context.Context, s core.Scanner) (res report.DomainResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = errors.E(errors.KindInternal, s.Name()+".Scan", "scanner panicked", nil)
		}
	}()
	return s.Scan(ctx)
}

func (o *Orchestrator) observe(d report.Domain, status string, elapsed time.Duration, res report.DomainResult) {
	if o.metrics == nil {
		return
	}
	o.metrics.ScanCompleted(string(d), status, elapsed)
	if res == nil {
		return
	}

	bySeverity := make(map[report.Severity]int)
	for _, f := range res.Findings() {
		bySeverity[f.Severity]++
	}
	for sev, n := range bySeverity {
		o.metrics.FindingsObserved(string(d), sev.String(), n)
	}
}
