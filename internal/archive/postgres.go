package archive

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/avollmer/starpipe/internal/log"
	"go.uber.org/zap"
)

// PostgresStore archives runs in a PostgreSQL or TimescaleDB database.
type PostgresStore struct {
	DB *gorm.DB
}

// NewPostgresStore connects to the database and migrates the runs table.
func NewPostgresStore(connectionString string) (*PostgresStore, error) {
	dbLogger := logger.New(
		zap.NewStdLog(log.GetZapLogger()),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: false,
			Colorful:                  true,
		},
	)

	log.Info("connecting to run archive database...")
	db, err := gorm.Open(postgres.Open(connectionString), &gorm.Config{Logger: dbLogger})
	if err != nil {
		return nil, fmt.Errorf("unable to create an archive database connection: %w", err)
	}
	if err := db.AutoMigrate(&Run{}); err != nil {
		return nil, fmt.Errorf("error migrating runs table: %w", err)
	}
	log.Info("run archive database connection successful")

	return &PostgresStore{DB: db}, nil
}

func (p *PostgresStore) SaveRun(ctx context.Context, run *Run) error {
	err := p.DB.WithContext(ctx).Save(run).Error
	if err != nil {
		return fmt.Errorf("could not store run %s: %w", run.ID, err)
	}
	return nil
}

func (p *PostgresStore) ListRuns(ctx context.Context) ([]Run, error) {
	var runs []Run
	err := p.DB.WithContext(ctx).Order("finished_at DESC").Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("could not list runs: %w", err)
	}
	return runs, nil
}

func (p *PostgresStore) GetRun(ctx context.Context, id string) (*Run, error) {
	var run Run
	err := p.DB.WithContext(ctx).First(&run, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("could not fetch run %s: %w", id, err)
	}
	return &run, nil
}

func (p *PostgresStore) Close() error {
	sqlDB, err := p.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
