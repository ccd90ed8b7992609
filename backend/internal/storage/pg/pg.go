package pg

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"github.com/itchan-dev/forum/backend/internal/access"
	"github.com/itchan-dev/forum/shared/config"
	"github.com/itchan-dev/forum/shared/logger"
	sharedpg "github.com/itchan-dev/forum/shared/storage/pg"
	"gorm.io/gorm"
)

type Querier = sharedpg.Querier

//go:embed migrations/init.sql
var initSQL string

type Options struct {
	FulltextLanguage string
	FulltextLimit    int // discussions returned by one fulltext match
}

// Storage implements the discussion, post, read state and user repositories.
// Writes go through database/sql, visibility-scoped reads through gorm.
type Storage struct {
	db     *sql.DB
	gorm   *gorm.DB
	policy *access.Policy
	opts   Options
}

func New(db *sql.DB, gdb *gorm.DB, policy *access.Policy, opts Options) *Storage {
	if opts.FulltextLanguage == "" {
		opts.FulltextLanguage = "english"
	}
	if opts.FulltextLimit <= 0 {
		opts.FulltextLimit = 500
	}
	return &Storage{db: db, gorm: gdb, policy: policy, opts: opts}
}

// Open connects to the database from cfg with the given pool settings.
func Open(cfg *config.Config, policy *access.Policy, connCfg sharedpg.ConnectionConfig) (*Storage, error) {
	logger.Log.Info("connecting to database", "component", "storage", "host", cfg.Private.Pg.Host, "db", cfg.Private.Pg.Dbname)
	db, err := sharedpg.Connect(cfg, connCfg)
	if err != nil {
		return nil, err
	}
	gdb, err := sharedpg.OpenGorm(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	logger.Log.Info("connected to database", "component", "storage")
	return New(db, gdb, policy, Options{FulltextLanguage: cfg.Public.FulltextLanguage}), nil
}

// Migrate creates the schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, initSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func (s *Storage) DB() *sql.DB {
	return s.db
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Storage) Cleanup() error {
	return s.db.Close()
}

func (s *Storage) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	return sharedpg.WithTx(ctx, s.db, fn)
}
