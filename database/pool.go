package database

import (
	"context"
	"log"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/aigenthix/cms-backend/errs"
)

// PoolConfig bounds the set of live connections to the store. MaxConns is the
// primary backpressure mechanism: once that many connections are in flight,
// further acquisitions block until one frees up.
type PoolConfig struct {
	DSN      string
	MinConns int
	MaxConns int
}

// Pool owns the shared database handle. Initialization failure at process
// start is non-fatal; Get retries initialization on first use.
type Pool struct {
	mu     sync.Mutex
	db     *gorm.DB
	cfg    PoolConfig
	logger zerolog.Logger
}

// NewPool attempts an eager open so misconfiguration surfaces at startup, but
// a failed open only logs a warning. The process still starts and acquisition
// retries lazily.
func NewPool(cfg PoolConfig, logger zerolog.Logger) *Pool {
	if cfg.MinConns <= 0 {
		cfg.MinConns = 2
	}
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = 20
	}

	p := &Pool{
		cfg:    cfg,
		logger: logger.With().Str("component", "pool").Logger(),
	}

	if err := p.open(); err != nil {
		p.logger.Warn().Err(err).Msg("Failed to initialize database pool, will retry on first use")
	} else {
		p.logger.Info().Int("maxConns", cfg.MaxConns).Msg("Database pool initialized")
	}

	return p
}

// open dials the store and bounds the underlying sql.DB pool. Caller must
// hold p.mu or be the constructor.
func (p *Pool) open() error {
	newLogger := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             10 * time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  p.cfg.DSN,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		PrepareStmt:    false,
		TranslateError: true,
		Logger:         newLogger,
	})
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(p.cfg.MaxConns)
	sqlDB.SetMaxIdleConns(p.cfg.MinConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	p.db = db
	return nil
}

// NewPoolWithDB wraps an already-open handle. Used by tests and by callers
// that manage the connection lifecycle themselves.
func NewPoolWithDB(db *gorm.DB, logger zerolog.Logger) *Pool {
	return &Pool{
		db:     db,
		logger: logger.With().Str("component", "pool").Logger(),
	}
}

// Get returns the shared handle, lazily (re)initializing the pool. Returns
// ErrPoolUnavailable when initialization keeps failing.
func (p *Pool) Get(ctx context.Context) (*gorm.DB, error) {
	p.mu.Lock()
	if p.db == nil {
		if err := p.open(); err != nil {
			p.mu.Unlock()
			return nil, errs.NewPoolUnavailable(err)
		}
		p.logger.Info().Msg("Database pool initialized on first use")
	}
	db := p.db
	p.mu.Unlock()

	return db.WithContext(ctx), nil
}

// HealthCheck acquires a connection, runs a trivial round trip and reports
// liveness. Used by the health endpoint, never by the hot path.
func (p *Pool) HealthCheck(ctx context.Context) bool {
	db, err := p.Get(ctx)
	if err != nil {
		p.logger.Error().Err(err).Msg("Database health check failed")
		return false
	}

	var result int
	if err := db.Raw("SELECT 1").Scan(&result).Error; err != nil {
		p.logger.Error().Err(err).Msg("Database health check failed")
		return false
	}
	return true
}

// Close releases the underlying connections. Safe to call when the pool was
// never initialized.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.db == nil {
		return
	}
	if sqlDB, err := p.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			p.logger.Error().Err(err).Msg("Error closing database pool")
		}
	}
	p.db = nil
}
