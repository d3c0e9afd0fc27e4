package configstore

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quantfabric/meridian/errs"
)

// defaultTable holds the flat configuration rows written by the migrations
// under db/migrations.
const defaultTable = "market_defaults"

// LoadPostgres reads the full flat configuration map from PostgreSQL into an
// immutable MemoryStore. The store is a point-in-time copy; callers reload to
// pick up changes.
func LoadPostgres(ctx context.Context, pool *pgxpool.Pool) (*MemoryStore, error) {
	if pool == nil {
		return nil, errs.New("configstore/postgres", errs.CodeInvalid,
			errs.WithMessage("connection pool required"))
	}
	rows, err := pool.Query(ctx, "SELECT key, value FROM "+defaultTable)
	if err != nil {
		return nil, errs.New("configstore/postgres", errs.CodeUnavailable,
			errs.WithMessage("query flat configuration"), errs.WithCause(err))
	}
	defer rows.Close()

	entries := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, errs.New("configstore/postgres", errs.CodeUnavailable,
				errs.WithMessage("scan flat configuration row"), errs.WithCause(err))
		}
		entries[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, errs.New("configstore/postgres", errs.CodeUnavailable,
			errs.WithMessage("iterate flat configuration rows"), errs.WithCause(err))
	}
	return NewMemoryStore(entries), nil
}
