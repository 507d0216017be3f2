package reconcile

import "github.com/trueheartapps/versesync/internal/annot"

// DeletedItem identifies one record removed by a tombstone during a merge.
type DeletedItem struct {
	Target annot.Target
	ID     string
}

// Report lists everything a merge removed, in application order. The UI
// layer uses it to drop stale records from open views.
type Report struct {
	Deleted []DeletedItem
}

func (r *Report) add(target annot.Target, id string) {
	r.Deleted = append(r.Deleted, DeletedItem{Target: target, ID: id})
}

// IDs returns the removed ids for one category.
func (r Report) IDs(target annot.Target) []string {
	var ids []string
	for _, d := range r.Deleted {
		if d.Target == target {
			ids = append(ids, d.ID)
		}
	}
	return ids
}

// Total is the number of removals across all categories.
func (r Report) Total() int { return len(r.Deleted) }
