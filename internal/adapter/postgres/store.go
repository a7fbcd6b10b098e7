package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/hydrograph-etl/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultPingTimeout = 5 * time.Second

// Tables names the destination tables.
type Tables struct {
	Floodplain  string
	SDHMetadata string
}

// Store writes floodplains and hydrograph metadata to PostgreSQL.
// It implements pipeline.Loader.
type Store struct {
	pool     *pgxpool.Pool
	tables   Tables
	truncate bool
	logger   *slog.Logger
}

// NewPool creates a pgx pool and validates the connection.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	if dsn == "" {
		return nil, errors.New("postgres: empty DSN")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return pool, nil
}

// NewStore creates a Store. With truncate set, every Load empties the metadata
// table and restarts its identity before inserting.
func NewStore(pool *pgxpool.Pool, tables Tables, truncate bool, logger *slog.Logger) *Store {
	return &Store{pool: pool, tables: tables, truncate: truncate, logger: logger}
}

// Load inserts the floodplains of hs, resolves their ids and inserts one
// metadata row per hydrograph, all in a single transaction.
func (s *Store) Load(ctx context.Context, hs []domain.Hydrograph) error {
	if len(hs) == 0 {
		return nil
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		floodplains := distinctFloodplains(hs)
		if err := s.insertFloodplains(ctx, tx, floodplains); err != nil {
			return err
		}

		ids, err := s.floodplainIDs(ctx, tx)
		if err != nil {
			return err
		}

		if s.truncate {
			s.logger.Info("truncating metadata table", "table", s.tables.SDHMetadata)
			if _, err := tx.Exec(ctx, truncateSQL(s.tables.SDHMetadata)); err != nil {
				return fmt.Errorf("truncate %s: %w", s.tables.SDHMetadata, err)
			}
		}

		rows, err := metadataRows(hs, ids)
		if err != nil {
			return err
		}
		return s.insertMetadata(ctx, tx, rows)
	})
}

// ExecScript runs a multi-statement SQL script, such as shp2pgsql output,
// over the simple query protocol.
func (s *Store) ExecScript(ctx context.Context, script string) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Conn().PgConn().Exec(ctx, script).ReadAll(); err != nil {
		return fmt.Errorf("exec script: %w", err)
	}
	return nil
}

func (s *Store) insertFloodplains(ctx context.Context, tx pgx.Tx, floodplains []floodplain) error {
	s.logger.Info("inserting floodplains", "table", s.tables.Floodplain, "count", len(floodplains))

	query := insertFloodplainSQL(s.tables.Floodplain)
	batch := &pgx.Batch{}
	for _, fp := range floodplains {
		batch.Queue(query, fp.Name, string(fp.Type))
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert floodplains into %s: %w", s.tables.Floodplain, err)
	}
	return nil
}

func (s *Store) floodplainIDs(ctx context.Context, tx pgx.Tx) (map[string]int64, error) {
	rows, err := tx.Query(ctx, selectFloodplainsSQL(s.tables.Floodplain))
	if err != nil {
		return nil, fmt.Errorf("read floodplains from %s: %w", s.tables.Floodplain, err)
	}

	ids := make(map[string]int64)
	var (
		id   int64
		name string
	)
	_, err = pgx.ForEachRow(rows, []any{&id, &name}, func() error {
		ids[name] = id
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read floodplains from %s: %w", s.tables.Floodplain, err)
	}
	return ids, nil
}

func (s *Store) insertMetadata(ctx context.Context, tx pgx.Tx, rows []metadataRow) error {
	s.logger.Info("inserting hydrograph metadata", "table", s.tables.SDHMetadata, "count", len(rows))

	query := insertMetadataSQL(s.tables.SDHMetadata)
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(query, r.Volume, r.Peak, r.TableName, r.FloodplainID)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert metadata into %s: %w", s.tables.SDHMetadata, err)
	}
	return nil
}
