package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/l1jgo/antilag/internal/audit"
)

const auditWriteTimeout = 5 * time.Second

// AuditRepo stores clearlag executions in clearlag_audit.
// It satisfies audit.Sink; the pool itself is closed by the owner of DB.
type AuditRepo struct {
	db *DB
}

func NewAuditRepo(db *DB) *AuditRepo {
	return &AuditRepo{db: db}
}

// Insert writes one audit row.
func (r *AuditRepo) Insert(ctx context.Context, e audit.Entry) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO clearlag_audit (operator, removed, broadcast, executed_at)
		 VALUES ($1, $2, $3, $4)`,
		e.Operator, e.Removed, e.Broadcast, e.At,
	)
	if err != nil {
		return fmt.Errorf("insert clearlag_audit: %w", err)
	}
	return nil
}

// Write implements audit.Sink.
func (r *AuditRepo) Write(e audit.Entry) error {
	ctx, cancel := context.WithTimeout(context.Background(), auditWriteTimeout)
	defer cancel()
	return r.Insert(ctx, e)
}

// Close implements audit.Sink.
func (r *AuditRepo) Close() error { return nil }
