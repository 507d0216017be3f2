// Package reconcile implements the merge algorithm that keeps annotation
// state consistent across devices.
//
// A merge takes the device's local snapshot, the remote snapshot, the
// device's pending deletion events and the remote event log, and produces a
// new snapshot plus a report of everything the tombstones removed. The
// algorithm is a sequence of pure steps over deep-copied values:
//
//  1. union all tombstones and drop those past the retention window
//  2. apply tombstones to both sides (a record survives its tombstone only
//     when its own timestamp is strictly newer)
//  3. last-write-wins merge per category, local copy winning ties
//  4. replay the remote event log over the merged state
//  5. refuse a merge that came out empty against a non-empty remote
//  6. bump version metadata
//
// Conflict resolution relies entirely on device wall clocks; there is no
// skew correction. Under skewed clocks a genuinely later edit can lose to
// an earlier one carrying a larger timestamp. Likewise the local tie-break
// means merging A into B is not guaranteed to equal merging B into A when
// timestamps collide exactly. Both are accepted limitations of the format.
package reconcile
