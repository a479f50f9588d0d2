// Package repository provides durable, file-backed persistence for the
// service's entity collections.
package repository

import "context"

// Collection names persisted by the service. Each one maps to a single
// JSON document under the store's data directory.
const (
	CollectionSkills        = "skills"
	CollectionUsageEvents   = "usage_events"
	CollectionDistributions = "distributions"
	CollectionBounties      = "bounties"
)

// Store provides atomic load/save of whole entity collections.
//
// Save replaces the entire collection document atomically; concurrent
// writers to the same collection are serialized and a reader never
// observes a partial write. Load of a collection that was never saved
// leaves v untouched, which callers treat as an empty collection.
type Store interface {
	Load(ctx context.Context, collection string, v any) error
	Save(ctx context.Context, collection string, v any) error
}
