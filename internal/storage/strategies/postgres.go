package strategies

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/newthinker/stratbench/internal/core"
	"github.com/newthinker/stratbench/internal/strategy/custom"
)

const schema = `CREATE TABLE IF NOT EXISTS custom_strategies (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	definition JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`

const (
	selectOne = `SELECT definition FROM custom_strategies WHERE id = $1`
	selectAll = `SELECT definition FROM custom_strategies ORDER BY created_at, id`
	lockOne   = `SELECT created_at FROM custom_strategies WHERE id = $1 FOR UPDATE`
	deleteOne = `DELETE FROM custom_strategies WHERE id = $1`
)

const upsert = `INSERT INTO custom_strategies (id, name, definition, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, definition = EXCLUDED.definition, updated_at = EXCLUDED.updated_at`

// PostgresStore keeps definitions in the custom_strategies table.
type PostgresStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewPool opens a connection pool for dsn and checks it is reachable.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "opening postgres pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "pinging postgres")
	}
	return pool, nil
}

// NewPostgresStore creates the table if needed and returns a store using pool.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, errors.Wrap(err, "creating custom_strategies table")
	}
	return &PostgresStore{pool: pool, now: time.Now}, nil
}

// Close releases the pool.
func (p *PostgresStore) Close() {
	p.pool.Close()
}

func (p *PostgresStore) Get(ctx context.Context, id string) (def *custom.Strategy, err error) {
	defer func() {
		if err != nil && !errors.Is(err, core.ErrNotFound) {
			err = core.WrapError(core.ErrStorageFailed, fmt.Errorf("PostgresStore.Get: %w", err))
		}
	}()

	var data []byte
	err = p.pool.QueryRow(ctx, selectOne, id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, err
	}
	return decodeRow(data)
}

func (p *PostgresStore) List(ctx context.Context) (defs []*custom.Strategy, err error) {
	defer func() {
		if err != nil {
			err = core.WrapError(core.ErrStorageFailed, fmt.Errorf("PostgresStore.List: %w", err))
		}
	}()

	rows, err := p.pool.Query(ctx, selectAll)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	defs = []*custom.Strategy{}
	for rows.Next() {
		var data []byte
		if err = rows.Scan(&data); err != nil {
			return nil, err
		}
		def, err := decodeRow(data)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, rows.Err()
}

func (p *PostgresStore) Save(ctx context.Context, def *custom.Strategy) (stored *custom.Strategy, err error) {
	err = pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		var existing *custom.Strategy
		if def != nil && custom.IsCustomID(def.ID) {
			var created time.Time
			err := tx.QueryRow(ctx, lockOne, def.ID).Scan(&created)
			switch {
			case err == nil:
				existing = &custom.Strategy{ID: def.ID, CreatedAt: created}
			case !errors.Is(err, pgx.ErrNoRows):
				return err
			}
		}

		s, err := stamp(def, existing, p.now())
		if err != nil {
			return err
		}
		data, err := sonic.Marshal(s)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, upsert, s.ID, s.Name, data, s.CreatedAt, s.UpdatedAt); err != nil {
			return err
		}
		stored = s
		return nil
	})
	if err != nil {
		if errors.Is(err, core.ErrInvalidStrategy) {
			return nil, err
		}
		return nil, core.WrapError(core.ErrStorageFailed, fmt.Errorf("PostgresStore.Save: %w", err))
	}
	return stored, nil
}

func (p *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, deleteOne, id)
	if err != nil {
		return core.WrapError(core.ErrStorageFailed, fmt.Errorf("PostgresStore.Delete: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return notFound(id)
	}
	return nil
}

func decodeRow(data []byte) (*custom.Strategy, error) {
	var def custom.Strategy
	if err := sonic.Unmarshal(data, &def); err != nil {
		return nil, errors.Wrap(err, "decoding definition")
	}
	return &def, nil
}
