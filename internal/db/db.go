package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"notes-rag/internal/config"
	"notes-rag/internal/index"
)

const defaultSnapshotKey = "default"

// IndexSnapshot is a single keyed row holding the whole chunk index
type IndexSnapshot struct {
	bun.BaseModel `bun:"table:subject_index,alias:si"`
	ID            string           `bun:"id,pk"`
	Payload       index.Partitions `bun:"payload,type:jsonb,notnull"`
	UpdatedAt     time.Time        `bun:"updated_at,notnull"`
}

func ConnectDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	if cfg.DSN == "" {
		return nil, errors.New("database dsn is required")
	}
	return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN))), nil
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

func InitDB(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*IndexSnapshot)(nil)).IfNotExists().Exec(ctx)
	return err
}

// Snapshot stores the index mapping in Postgres. Every Save rewrites the
// row in full, same as the file backend.
type Snapshot struct {
	db  *bun.DB
	key string
}

func NewSnapshot(db *bun.DB, key string) *Snapshot {
	if key == "" {
		key = defaultSnapshotKey
	}
	return &Snapshot{db: db, key: key}
}

func (s *Snapshot) Load(ctx context.Context) (index.Partitions, error) {
	row := new(IndexSnapshot)
	err := s.db.NewSelect().Model(row).Where("id = ?", s.key).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug().Str("key", s.key).Msg("No stored index yet")
		return index.Partitions{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select index %s: %w", s.key, err)
	}
	if row.Payload == nil {
		row.Payload = index.Partitions{}
	}
	return row.Payload, nil
}

func (s *Snapshot) Save(ctx context.Context, parts index.Partitions) error {
	row := &IndexSnapshot{
		ID:        s.key,
		Payload:   parts,
		UpdatedAt: time.Now().UTC(),
	}
	_, err := s.db.NewInsert().
		Model(row).
		On("CONFLICT (id) DO UPDATE").
		Set("payload = EXCLUDED.payload").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert index %s: %w", s.key, err)
	}
	return nil
}

// drop the snapshot table
func DropIndex(ctx context.Context, db *bun.DB) error {
	_, err := db.NewDropTable().Model((*IndexSnapshot)(nil)).IfExists().Exec(ctx)
	return err
}
