package core

import (
	"fmt"
	"net/url"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB connects to the database described by cfg.
func InitDB(cfg DatabaseConfig, development bool) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	gormConfig := &gorm.Config{}
	if !development {
		gormConfig.Logger = logger.Default.LogMode(logger.Warn)
	}

	return gorm.Open(dialector, gormConfig)
}

func dialectorFor(cfg DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "postgres", "":
		return postgres.Open(postgresDSN(cfg)), nil
	case "sqlserver":
		return sqlserver.Open(sqlserverDSN(cfg)), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %v", cfg.Driver)
	}
}

func postgresDSN(cfg DatabaseConfig) string {
	sslmode := cfg.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}

	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		cfg.Host,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.Port,
		sslmode,
	)
}

func sqlserverDSN(cfg DatabaseConfig) string {
	u := url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		RawQuery: url.Values{"database": {cfg.Name}}.Encode(),
	}
	return u.String()
}
