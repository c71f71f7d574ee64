package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenGorm connects a gorm handle for repositories that use the ORM. Pool
// limits mirror the pgx settings of the other services.
func OpenGorm(ctx context.Context, dsn string, maxConns, minConns int32) (*gorm.DB, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open gorm postgres: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("resolve postgres sql db handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(int(maxConns))
	sqlDB.SetMaxIdleConns(int(minConns))
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return gdb, nil
}

// CloseGorm closes the connection pool behind gdb.
func CloseGorm(gdb *gorm.DB) error {
	if gdb == nil {
		return nil
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GormHealth builds the health check of a gorm handle.
func GormHealth(gdb *gorm.DB) HealthCheck {
	return HealthCheck{
		Ping: func(ctx context.Context) error {
			sqlDB, err := gdb.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		Stats: func() *PoolStats {
			sqlDB, err := gdb.DB()
			if err != nil {
				return &PoolStats{}
			}
			stat := sqlDB.Stats()
			return &PoolStats{
				TotalConns:      int32(stat.OpenConnections),
				IdleConns:       int32(stat.Idle),
				AcquiredConns:   int32(stat.InUse),
				MaxConns:        int32(stat.MaxOpenConnections),
				AcquireCount:    stat.WaitCount,
				AcquireDuration: stat.WaitDuration.String(),
				Healthy:         stat.OpenConnections > 0,
			}
		},
	}
}
