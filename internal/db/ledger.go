package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/inkwave/teamsync-backend/internal/platform/envutil"
	"github.com/inkwave/teamsync-backend/internal/platform/logger"
	"github.com/inkwave/teamsync-backend/internal/types"
)

// LedgerService opens the local ledger database. A single-node deployment
// runs on sqlite; TEAM_DB_DRIVER=postgres switches to a shared instance.
type LedgerService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLedgerService(log *logger.Logger) (*LedgerService, error) {
	serviceLog := log.With("service", "LedgerService")

	driver := envutil.String("TEAM_DB_DRIVER", "sqlite")

	var (
		db  *gorm.DB
		err error
	)
	switch driver {
	case "postgres":
		host := envutil.String("POSTGRES_HOST", "localhost")
		port := envutil.String("POSTGRES_PORT", "5432")
		user := envutil.String("POSTGRES_USER", "postgres")
		password := envutil.String("POSTGRES_PASSWORD", "")
		name := envutil.String("POSTGRES_NAME", "teamsync")
		dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	case "sqlite":
		path := envutil.String("TEAM_DB_PATH", "teamsync.db")
		db, err = gorm.Open(sqlite.Open(path), &gorm.Config{})
	default:
		return nil, fmt.Errorf("unsupported TEAM_DB_DRIVER %q", driver)
	}
	if err != nil {
		serviceLog.Error("Failed to open ledger database", "driver", driver, "error", err)
		return nil, fmt.Errorf("open ledger database: %w", err)
	}

	serviceLog.Info("Ledger database connected", "driver", driver)
	return &LedgerService{db: db, log: serviceLog}, nil
}

func (s *LedgerService) AutoMigrateAll() error {
	s.log.Info("Auto migrating ledger tables...")
	if err := s.db.AutoMigrate(&types.LedgerEntry{}); err != nil {
		s.log.Error("Auto migration failed for ledger tables", "error", err)
		return err
	}
	return nil
}

func (s *LedgerService) DB() *gorm.DB {
	return s.db
}
