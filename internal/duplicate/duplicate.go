// Package duplicate implements C5: the three-pass size → trailing-hash
// → full-hash pipeline that partitions a scan's logical photos into
// duplicate groups and assigns each group a stable keeper.
//
// Grounded on the teacher's processFilesParallel job/result channel
// worker pool (pipeline.go) and the multi-stage size/hash partitioning
// idiom used by the dedup-focused reference files retrieved alongside
// it (e.g. other_examples' twpayne/find-duplicates dupfinder package),
// generalized from "files" to "logical photos" and from a flat
// pipeline into the explicit size→trailing→full passes spec §4.5 names.
package duplicate

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/user/photodupe/internal/hasher"
	"github.com/user/photodupe/internal/model"
	"github.com/user/photodupe/internal/progress"
)

// DefaultWorkers is the recommended worker-pool size: logical cores
// capped at 8, per spec §4.5.
func DefaultWorkers(numCPU int) int {
	if numCPU < 1 {
		return 1
	}
	if numCPU > 8 {
		return 8
	}
	return numCPU
}

// Group is a final duplicate group (size ≥ 2 after all three passes).
type Group struct {
	Photos []model.LogicalPhoto
	Keeper string // photo ID
}

// Warning is a per-item problem hit while hashing a candidate (spec
// §7: an IoError on a candidate produces a per-item warning and drops
// that item from candidacy, rather than aborting the pass).
type Warning struct {
	Path string
	Err  error
}

// Detector runs the three-pass pipeline over a set of logical photos.
type Detector struct {
	hasher   *hasher.Hasher
	workers  int
	reporter *progress.Reporter
}

// New builds a Detector that hashes through h with a bounded pool of
// workers goroutines (see DefaultWorkers), publishing progress to
// reporter if non-nil.
func New(h *hasher.Hasher, workers int, reporter *progress.Reporter) *Detector {
	if workers < 1 {
		workers = 1
	}
	return &Detector{hasher: h, workers: workers, reporter: reporter}
}

func (d *Detector) publish(ev progress.Event) {
	if d.reporter != nil {
		d.reporter.Publish(ev)
	}
}

// Detect runs passes A, B, and C over photos and returns the full set
// with IsDuplicate/DuplicateOf annotated in place, the list of
// duplicate groups found, and any per-item hashing warnings (spec §7).
// Cancellation is checked between sub-buckets and between files within
// a sub-bucket (spec §5), never mid-hash.
func (d *Detector) Detect(ctx context.Context, photos []model.LogicalPhoto) ([]model.LogicalPhoto, []Group, []Warning, error) {
	byID := make(map[string]*model.LogicalPhoto, len(photos))
	result := make([]model.LogicalPhoto, len(photos))
	copy(result, photos)
	for i := range result {
		byID[result[i].ID] = &result[i]
	}

	d.publish(progress.Event{Phase: progress.PhaseAnalyzing, Message: "grouping by size"})
	sizeBuckets := partitionBySize(result)

	var candidateIDs []string
	for _, bucket := range sizeBuckets {
		if len(bucket) >= 2 {
			for _, p := range bucket {
				candidateIDs = append(candidateIDs, p.ID)
			}
		}
	}

	d.publish(progress.Event{Phase: progress.PhaseTrailing, Current: 0, Total: len(candidateIDs)})
	trailingSubBuckets, trailingWarnings, err := d.passB(ctx, sizeBuckets, len(candidateIDs))
	if err != nil {
		return result, nil, trailingWarnings, err
	}

	var fullCandidateCount int
	for _, sub := range trailingSubBuckets {
		if len(sub) >= 2 {
			fullCandidateCount += len(sub)
		}
	}

	d.publish(progress.Event{Phase: progress.PhaseHashing, Current: 0, Total: fullCandidateCount})
	groups, hashingWarnings, err := d.passC(ctx, trailingSubBuckets, byID, fullCandidateCount)
	warnings := append(trailingWarnings, hashingWarnings...)
	if err != nil {
		return result, nil, warnings, err
	}

	d.publish(progress.Event{Phase: progress.PhaseDuplicates, Total: len(groups)})
	for _, g := range groups {
		keeper := selectKeeper(g)
		for i := range g {
			if g[i].ID == keeper.ID {
				continue
			}
			target := byID[g[i].ID]
			target.SetDuplicateOf(keeper.ID)
		}
	}

	var finalGroups []Group
	for _, g := range groups {
		ids := make([]model.LogicalPhoto, len(g))
		for i, p := range g {
			ids[i] = *byID[p.ID]
		}
		finalGroups = append(finalGroups, Group{Photos: ids, Keeper: selectKeeper(g).ID})
	}

	return result, finalGroups, warnings, nil
}

// partitionBySize groups photos by primary.size (pass A).
func partitionBySize(photos []model.LogicalPhoto) map[uint64][]model.LogicalPhoto {
	buckets := make(map[uint64][]model.LogicalPhoto)
	for _, p := range photos {
		buckets[p.Size] = append(buckets[p.Size], p)
	}
	return buckets
}

// passB computes trailing hashes for every non-placeholder member of
// each size≥2 bucket and sub-partitions by trailing hash. Work is
// spread across the bounded worker pool, one size-bucket at a time.
// total is the candidate count across all size≥2 buckets, used to
// publish periodic {current,total} progress as files complete (spec
// §4.5/§4.6).
func (d *Detector) passB(ctx context.Context, sizeBuckets map[uint64][]model.LogicalPhoto, total int) (map[string][]model.LogicalPhoto, []Warning, error) {
	trailingBuckets := make(map[string][]model.LogicalPhoto)
	var warnings []Warning
	var completed int64

	var sizes []uint64
	for size, bucket := range sizeBuckets {
		if len(bucket) >= 2 {
			sizes = append(sizes, size)
		}
	}
	sort.Slice(sizes, func(i, j int) bool { return sizes[i] < sizes[j] })

	for _, size := range sizes {
		if err := ctx.Err(); err != nil {
			return trailingBuckets, warnings, err
		}
		bucket := sizeBuckets[size]

		type hashed struct {
			photo model.LogicalPhoto
			hash  string
			err   error
		}
		results := make([]hashed, len(bucket))

		jobs := make(chan int)
		var wg sync.WaitGroup
		for w := 0; w < d.workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for idx := range jobs {
					p := bucket[idx]
					if p.Primary.IsCloudPlaceholder {
						results[idx] = hashed{photo: p}
					} else {
						h, err := d.hasher.TrailingHash(p.Primary)
						results[idx] = hashed{photo: p, hash: h, err: err}
					}
					n := atomic.AddInt64(&completed, 1)
					d.publish(progress.Event{Phase: progress.PhaseTrailing, Current: int(n), Total: total})
				}
			}()
		}
	feedB:
		for idx := range bucket {
			select {
			case jobs <- idx:
			case <-ctx.Done():
				break feedB
			}
		}
		close(jobs)
		wg.Wait()

		if err := ctx.Err(); err != nil {
			return trailingBuckets, warnings, err
		}

		for _, r := range results {
			if r.err != nil {
				warnings = append(warnings, Warning{Path: r.photo.Primary.Path, Err: r.err})
				continue
			}
			if r.hash == "" {
				continue // placeholder: left non-duplicate
			}
			trailingBuckets[r.hash] = append(trailingBuckets[r.hash], r.photo)
		}
	}

	return trailingBuckets, warnings, nil
}

// passC computes full hashes for every member of each trailing
// sub-bucket of size≥2 and partitions by full hash; each resulting
// group of size≥2 is a duplicate group. total is the candidate count
// across all sub-buckets, used to publish periodic {current,total}
// progress as files complete (spec §4.5/§4.6).
func (d *Detector) passC(ctx context.Context, trailingBuckets map[string][]model.LogicalPhoto, byID map[string]*model.LogicalPhoto, total int) ([][]model.LogicalPhoto, []Warning, error) {
	var keys []string
	for hash, bucket := range trailingBuckets {
		if len(bucket) >= 2 {
			keys = append(keys, hash)
		}
	}
	sort.Strings(keys)

	fullBuckets := make(map[string][]model.LogicalPhoto)
	var warnings []Warning
	var completed int64

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return nil, warnings, err
		}
		bucket := trailingBuckets[key]

		type hashed struct {
			photo model.LogicalPhoto
			hash  string
			err   error
		}
		results := make([]hashed, len(bucket))

		jobs := make(chan int)
		var wg sync.WaitGroup
		for w := 0; w < d.workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for idx := range jobs {
					p := bucket[idx]
					h, err := d.hasher.FullHash(p.Primary)
					results[idx] = hashed{photo: p, hash: h, err: err}
					n := atomic.AddInt64(&completed, 1)
					d.publish(progress.Event{Phase: progress.PhaseHashing, Current: int(n), Total: total})
				}
			}()
		}
	feedC:
		for idx := range bucket {
			select {
			case jobs <- idx:
			case <-ctx.Done():
				break feedC
			}
		}
		close(jobs)
		wg.Wait()

		if err := ctx.Err(); err != nil {
			return nil, warnings, err
		}

		for _, r := range results {
			if r.err != nil {
				warnings = append(warnings, Warning{Path: r.photo.Primary.Path, Err: r.err})
				continue
			}
			fullBuckets[r.hash] = append(fullBuckets[r.hash], r.photo)
			if p := byID[r.photo.ID]; p != nil {
				p.Hash = r.hash
			}
		}
	}

	var groups [][]model.LogicalPhoto
	var groupKeys []string
	for hash, bucket := range fullBuckets {
		if len(bucket) >= 2 {
			groupKeys = append(groupKeys, hash)
		}
	}
	sort.Strings(groupKeys)
	for _, hash := range groupKeys {
		groups = append(groups, fullBuckets[hash])
	}
	return groups, warnings, nil
}

// selectKeeper picks the stable representative of a duplicate group:
// shortest primary.path length, lexicographic tiebreak (spec §4.5).
func selectKeeper(group []model.LogicalPhoto) model.LogicalPhoto {
	keeper := group[0]
	for _, p := range group[1:] {
		if len(p.Primary.Path) < len(keeper.Primary.Path) ||
			(len(p.Primary.Path) == len(keeper.Primary.Path) && p.Primary.Path < keeper.Primary.Path) {
			keeper = p
		}
	}
	return keeper
}
