// Package smartselect implements C7: an ordered, narrowing rule engine
// that recommends which photos in a duplicate group to delete.
//
// Grounded on the teacher's evaluateFileForBackup-style sequential
// predicate checks (files.go), generalized from a single pass/fail
// predicate into an ordered chain of splitting rules, each narrowing
// the surviving candidate set the way spec §4.7 describes.
package smartselect

import (
	"regexp"
	"strings"

	"github.com/user/photodupe/internal/duplicate"
	"github.com/user/photodupe/internal/model"
)

// rule splits a group's surviving candidates into preferred/other. If
// every candidate lands on the same side, the rule is a no-op.
type rule struct {
	name    string
	prefers func(p model.LogicalPhoto) bool
}

var organizedYearFolder = regexp.MustCompile(`/Camera Uploads/\d{4}/`)
var humanDateName = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)

var rules = []rule{
	{
		name:    "organized-year-folder",
		prefers: func(p model.LogicalPhoto) bool { return organizedYearFolder.MatchString(p.Primary.Path) },
	},
	{
		name:    "human-date-named",
		prefers: func(p model.LogicalPhoto) bool { return humanDateName.MatchString(p.Primary.Name) },
	},
	{
		name: "inside-camera-uploads",
		prefers: func(p model.LogicalPhoto) bool {
			return strings.Contains(p.Primary.Path, "/Dropbox/Camera Uploads/") ||
				strings.Contains(p.Primary.Path, "/Camera Uploads/")
		},
	},
}

// Select applies the ordered rule chain to every duplicate group and
// returns the set of photo IDs recommended for deletion.
func Select(groups []duplicate.Group) map[string]bool {
	toDelete := make(map[string]bool)
	for _, g := range groups {
		deleted := applyRules(g.Photos)
		for id := range deleted {
			toDelete[id] = true
		}
	}
	return toDelete
}

// applyRules narrows one group's candidates rule by rule, moving the
// losing side into the deletion set at each splitting rule.
func applyRules(photos []model.LogicalPhoto) map[string]bool {
	deleted := make(map[string]bool)
	candidates := make([]model.LogicalPhoto, len(photos))
	copy(candidates, photos)

	for _, r := range rules {
		var preferred, other []model.LogicalPhoto
		for _, p := range candidates {
			if r.prefers(p) {
				preferred = append(preferred, p)
			} else {
				other = append(other, p)
			}
		}
		if len(preferred) == 0 || len(other) == 0 {
			continue // does not split: skip, per spec §4.7
		}
		for _, p := range other {
			deleted[p.ID] = true
		}
		candidates = preferred
	}

	return deleted
}

// SafetyCheckCount returns the number of groups whose every member is
// present in selected — such a selection would erase all copies in
// that group and must be surfaced as a blocking warning (spec §4.7).
func SafetyCheckCount(groups []duplicate.Group, selected map[string]bool) int {
	count := 0
	for _, g := range groups {
		allSelected := true
		for _, p := range g.Photos {
			if !selected[p.ID] {
				allSelected = false
				break
			}
		}
		if allSelected {
			count++
		}
	}
	return count
}
