package alert

import "context"

// Store is the persistence interface for alert records. Any keyed durable
// store satisfies it. Implementations must return copies from Get and List
// so readers never alias stored state; write atomicity across a full
// read-modify-write cycle is provided by the lifecycle manager's run lock,
// not by the store.
type Store interface {
	Create(ctx context.Context, r *Record) error
	Get(ctx context.Context, id string) (*Record, bool, error)
	List(ctx context.Context) ([]*Record, error)
	Update(ctx context.Context, r *Record) error
	Delete(ctx context.Context, id string) error
}
