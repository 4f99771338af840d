package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ValentinKolb/dUID/lib/cond"
	"github.com/ValentinKolb/dUID/lib/db"
	"github.com/ValentinKolb/dUID/lib/store"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var log = logger.GetLogger("store")

// Config configures the PostgreSQL store.
type Config struct {
	DSN     string        // connection string, e.g. postgres://user:pw@host:5432/db?sslmode=disable
	Table   string        // row table, DefaultTable if empty
	Timeout time.Duration // timeout of a single store operation
}

type storeImpl struct {
	pool      *pgxpool.Pool
	table     string
	timeout   time.Duration
	sequences *xsync.MapOf[string, string] // sequence name -> created identifier
}

// NewPostgresStore connects to PostgreSQL, creates the row table if needed and returns the store.
// The returned close function releases the connection pool.
func NewPostgresStore(ctx context.Context, cfg Config) (store.IStore, func(), error) {
	if cfg.Table == "" {
		cfg.Table = DefaultTable
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err = pool.Exec(ctx, schemaSQL(cfg.Table)); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to create table %s: %w", cfg.Table, err)
	}

	log.Infof("postgres store ready (table=%s)", cfg.Table)
	return &storeImpl{
		pool:      pool,
		table:     pgx.Identifier{cfg.Table}.Sanitize(),
		timeout:   cfg.Timeout,
		sequences: xsync.NewMapOf[string, string](),
	}, pool.Close, nil
}

func (s *storeImpl) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

func internalError(err error) error {
	return store.NewError(store.RetCInternalError, err.Error())
}

// inTx runs fn inside a transaction. The transaction is committed only if fn returns nil.
func (s *storeImpl) inTx(fn func(ctx context.Context, tx pgx.Tx) error) error {
	ctx, cancel := s.ctx()
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return internalError(err)
	}
	if err = fn(ctx, tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return internalError(err)
	}
	return nil
}

// --------------------------------------------------------------------------
// Interface Methods (docs see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Insert(payloads []db.Row) error {
	for _, row := range payloads {
		if row.Type == "" || row.ID == "" {
			return store.NewError(store.RetCInvalidOperation, "row without type or id")
		}
	}
	sql := fmt.Sprintf(`INSERT INTO %s (type, id, fields) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`, s.table)
	return s.inTx(func(ctx context.Context, tx pgx.Tx) error {
		for _, row := range payloads {
			tag, err := tx.Exec(ctx, sql, row.Type, row.ID, fieldsOf(row))
			if err != nil {
				return internalError(err)
			}
			if tag.RowsAffected() != 1 {
				return store.NewError(store.RetCConflict, fmt.Sprintf("%s: type=%s id=%s", db.ErrConflict, row.Type, row.ID))
			}
		}
		return nil
	})
}

func (s *storeImpl) BatchUpdate(payloads []db.Row, conditions []cond.Condition) error {
	return s.conditional(payloads, conditions, func(b *whereBuilder, row db.Row) string {
		set := b.arg(fieldsOf(row))
		return fmt.Sprintf(`UPDATE %s SET fields = %s, idx = idx + 1 WHERE type = %s AND id = %s`,
			s.table, set, b.arg(row.Type), b.arg(row.ID))
	})
}

func (s *storeImpl) BatchDelete(payloads []db.Row, conditions []cond.Condition) error {
	return s.conditional(payloads, conditions, func(b *whereBuilder, row db.Row) string {
		return fmt.Sprintf(`DELETE FROM %s WHERE type = %s AND id = %s`, s.table, b.arg(row.Type), b.arg(row.ID))
	})
}

// conditional executes one statement per payload, each restricted by its condition.
// Every statement must affect exactly one row, otherwise the whole batch is rolled back.
func (s *storeImpl) conditional(payloads []db.Row, conditions []cond.Condition, stmt func(b *whereBuilder, row db.Row) string) error {
	if err := store.CheckBatch(payloads, conditions); err != nil {
		return err
	}
	for _, c := range conditions {
		if err := c.Validate(); err != nil {
			return store.NewError(store.RetCInvalidOperation, err.Error())
		}
	}
	return s.inTx(func(ctx context.Context, tx pgx.Tx) error {
		for i, row := range payloads {
			b := &whereBuilder{}
			sql := stmt(b, row)
			sql += " AND " + b.build(conditions[i])
			tag, err := tx.Exec(ctx, sql, b.args...)
			if err != nil {
				return internalError(err)
			}
			if tag.RowsAffected() != 1 {
				return store.NewError(store.RetCNotFound,
					fmt.Sprintf("%s: type=%s id=%s condition=%s", db.ErrNotFound, row.Type, row.ID, conditions[i]))
			}
		}
		return nil
	})
}

func (s *storeImpl) Get(objType, id string) (db.Row, bool, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	row := db.Row{Type: objType, ID: id}
	var idx int64
	err := s.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT fields, idx FROM %s WHERE type = $1 AND id = $2`, s.table), objType, id,
	).Scan(&row.Fields, &idx)
	if errors.Is(err, pgx.ErrNoRows) {
		return db.Row{}, false, nil
	}
	if err != nil {
		return db.Row{}, false, internalError(err)
	}
	row.Index = uint64(idx)
	return normalize(row), true, nil
}

func (s *storeImpl) Select(objType string, c cond.Condition) ([]db.Row, error) {
	if err := c.Validate(); err != nil {
		return nil, store.NewError(store.RetCInvalidOperation, err.Error())
	}
	ctx, cancel := s.ctx()
	defer cancel()

	b := &whereBuilder{}
	sql := fmt.Sprintf(`SELECT id, fields, idx FROM %s WHERE type = %s AND %s ORDER BY id COLLATE "C"`,
		s.table, b.arg(objType), b.build(c))
	rows, err := s.pool.Query(ctx, sql, b.args...)
	if err != nil {
		return nil, internalError(err)
	}
	defer rows.Close()

	result := make([]db.Row, 0)
	for rows.Next() {
		row := db.Row{Type: objType}
		var idx int64
		if err := rows.Scan(&row.ID, &row.Fields, &idx); err != nil {
			return nil, internalError(err)
		}
		row.Index = uint64(idx)
		result = append(result, normalize(row))
	}
	if err := rows.Err(); err != nil {
		return nil, internalError(err)
	}
	return result, nil
}

func (s *storeImpl) NextValue(sequence string) (int64, error) {
	ident, err := s.sequence(sequence)
	if err != nil {
		return 0, err
	}
	ctx, cancel := s.ctx()
	defer cancel()

	var v int64
	if err := s.pool.QueryRow(ctx, `SELECT nextval($1::regclass)`, ident).Scan(&v); err != nil {
		return 0, internalError(err)
	}
	return v, nil
}

// sequence returns the identifier of a named sequence, creating it on first use.
func (s *storeImpl) sequence(name string) (string, error) {
	if ident, ok := s.sequences.Load(name); ok {
		return ident, nil
	}
	ident, err := sequenceIdent(name)
	if err != nil {
		return "", store.NewError(store.RetCInvalidOperation, err.Error())
	}
	ctx, cancel := s.ctx()
	defer cancel()
	if _, err := s.pool.Exec(ctx, fmt.Sprintf(`CREATE SEQUENCE IF NOT EXISTS %s START WITH 1`, ident)); err != nil {
		return "", internalError(err)
	}
	s.sequences.Store(name, ident)
	return ident, nil
}

func (s *storeImpl) GetDBInfo() (db.DatabaseInfo, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	var rows int64
	var size int
	err := s.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT count(*), COALESCE(sum(pg_column_size(fields)), 0)::int FROM %s`, s.table),
	).Scan(&rows, &size)
	if err != nil {
		return db.DatabaseInfo{}, internalError(err)
	}

	stat := s.pool.Stat()
	return db.DatabaseInfo{
		SizeBytes: size,
		DbType:    db.ImplPostgres,
		SupportedFeatures: []db.Feature{
			db.FeatureInsert, db.FeatureUpdate, db.FeatureDelete,
			db.FeatureGet, db.FeatureSelect, db.FeatureSequence,
		},
		Metadata: map[string]any{
			"rows":             rows,
			"total_conns":      stat.TotalConns(),
			"idle_conns":       stat.IdleConns(),
			"known_sequences":  s.sequences.Size(),
			"acquire_count":    stat.AcquireCount(),
			"acquire_duration": stat.AcquireDuration().String(),
		},
	}, nil
}

func fieldsOf(row db.Row) map[string]string {
	if row.Fields == nil {
		return map[string]string{}
	}
	return row.Fields
}

// normalize maps empty field sets to nil.
func normalize(row db.Row) db.Row {
	if len(row.Fields) == 0 {
		row.Fields = nil
	}
	return row
}
