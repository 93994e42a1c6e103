package analysis

import (
	"context"
	"time"
)

// Repository port (interface for persistence). Every owner-scoped method
// must filter on the owning principal; no operation may touch another
// owner's rows.
type Repository interface {
	Save(ctx context.Context, r *Record) error
	Get(ctx context.Context, owner string, id RecordID) (*Record, error)
	List(ctx context.Context, owner string, deleted bool) ([]*Record, error)
	SoftDelete(ctx context.Context, owner string, id RecordID, at time.Time) error
	Restore(ctx context.Context, owner string, id RecordID) error

	// PurgeExpired deletes every record whose deleted_at is older than the
	// cutoff, regardless of owner, and returns the count purged.
	PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error)

	// AdminList returns the sanitized projection across all owners.
	AdminList(ctx context.Context) ([]*AdminRecord, error)
}

// ReportArchive port (interface for object storage of exported reports).
type ReportArchive interface {
	PutReport(ctx context.Context, key string, data []byte) (string, error)
}
