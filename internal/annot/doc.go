// Package annot defines the canonical annotation data model exchanged
// between devices: the four record categories (bookmarks, notes, edited
// verse cells, prompts), composite keys, deletion events, the replayable
// event-log entry, and the snapshot that bundles them with merge metadata.
//
// Everything in this package is a plain value. The reconciliation engine
// never mutates a snapshot it was given; it deep-copies first (see Clone).
package annot
