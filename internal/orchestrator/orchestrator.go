// Package orchestrator implements C9: the single entry point that
// composes discovery, collapsing, and duplicate detection into one
// scan(roots) → []LogicalPhoto contract, driving the progress reporter
// and serializing overlapping scan requests.
//
// Grounded on the teacher's main.go Run()/runBackup() top-level
// composition (stat roots, walk, plan, execute, report), generalized
// from "one backup run" to "compose C2→C3→C5, publish progress,
// support cancellation and single-flight scan serialization."
package orchestrator

import (
	"context"
	"runtime"
	"sync"

	"github.com/user/photodupe/internal/collapse"
	"github.com/user/photodupe/internal/discover"
	"github.com/user/photodupe/internal/duplicate"
	"github.com/user/photodupe/internal/hasher"
	"github.com/user/photodupe/internal/model"
	"github.com/user/photodupe/internal/progress"
	"github.com/user/photodupe/internal/scanerr"
)

// Orchestrator composes C2→C3→C5 over C1 (via the Hasher passed to
// New) and C4, driving a Reporter and rejecting overlapping scans.
type Orchestrator struct {
	discoverer *discover.Discoverer
	hasher     *hasher.Hasher
	workers    int

	mu      sync.Mutex
	running bool
}

// New builds an Orchestrator accepting files with the given
// extensions, hashing through h.
func New(extensions map[string]bool, h *hasher.Hasher) *Orchestrator {
	return &Orchestrator{
		discoverer: discover.New(extensions),
		hasher:     h,
		workers:    duplicate.DefaultWorkers(runtime.NumCPU()),
	}
}

// Result is the return value of a Scan: the annotated photo set plus
// whether the scan was cancelled before completing (spec §4.9).
type Result struct {
	Photos    []model.LogicalPhoto
	Groups    []duplicate.Group
	Warnings  []discover.Warning
	Cancelled bool
}

// Scan runs one scan over roots, publishing progress to reporter if
// non-nil. Overlapping scans are rejected with ScanInProgress rather
// than queued, per spec §5's "serialise overlapping requests" option.
// On cancellation, the orchestrator finishes the hash in progress,
// emits a final cancelled phase event, and returns whatever is
// complete with is_duplicate=false for unfinished photos.
func (o *Orchestrator) Scan(ctx context.Context, roots []string, reporter *progress.Reporter) (Result, error) {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return Result{}, scanerr.New(scanerr.ScanInProgress, "Scan", "", nil)
	}
	o.running = true
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		o.running = false
		o.mu.Unlock()
	}()

	publish := func(ev progress.Event) {
		if reporter != nil {
			reporter.Publish(ev)
		}
	}

	publish(progress.Event{Phase: progress.PhaseStarting})

	publish(progress.Event{Phase: progress.PhaseDiscovery})
	files, warnings := o.discoverer.Walk(ctx, roots)
	var raw []model.RawFile
	var discoverWarnings []discover.Warning
	for files != nil || warnings != nil {
		select {
		case f, ok := <-files:
			if !ok {
				files = nil
				continue
			}
			raw = append(raw, f)
		case w, ok := <-warnings:
			if !ok {
				warnings = nil
				continue
			}
			discoverWarnings = append(discoverWarnings, w)
		}
	}

	if err := ctx.Err(); err != nil {
		publish(progress.Event{Phase: progress.PhaseCancelled})
		return Result{Warnings: discoverWarnings, Cancelled: true}, nil
	}

	publish(progress.Event{Phase: progress.PhaseGrouping, Total: len(raw)})
	photos := collapse.Collapse(raw)

	if err := ctx.Err(); err != nil {
		publish(progress.Event{Phase: progress.PhaseCancelled})
		return Result{Photos: photos, Warnings: discoverWarnings, Cancelled: true}, nil
	}

	detector := duplicate.New(o.hasher, o.workers, reporter)
	annotated, groups, hashWarnings, err := detector.Detect(ctx, photos)
	for _, w := range hashWarnings {
		discoverWarnings = append(discoverWarnings, discover.Warning{Path: w.Path, Err: w.Err})
	}
	if err != nil {
		publish(progress.Event{Phase: progress.PhaseCancelled})
		return Result{Photos: annotated, Warnings: discoverWarnings, Cancelled: true}, nil
	}

	publish(progress.Event{Phase: progress.PhasePreparing})
	publish(progress.Event{Phase: progress.PhaseRendering})
	publish(progress.Event{Phase: progress.PhaseComplete})

	return Result{Photos: annotated, Groups: groups, Warnings: discoverWarnings}, nil
}
