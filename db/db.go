package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dpyhq/cryptobill/lib/service"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
	sqltrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/database/sql"
)

const applicationName = "cryptobill"

var postgresSchemes = []string{"postgres://", "postgresql://", "unix://"}

func isPostgresDSN(dsn string) bool {
	for _, scheme := range postgresSchemes {
		if strings.HasPrefix(dsn, scheme) {
			return true
		}
	}
	return false
}

// Open returns the bun handle behind Store. Only Postgres is supported: the
// store relies on its unique violation codes and conditional updates.
func Open(config *service.Config) (*bun.DB, error) {
	dsn := config.DatabaseUri
	if !isPostgresDSN(dsn) {
		return nil, fmt.Errorf("invalid database connection string %q, only postgres, postgresql and unix are supported", dsn)
	}

	connector := pgdriver.NewConnector(
		pgdriver.WithDSN(dsn),
		pgdriver.WithApplicationName(applicationName),
	)
	var sqlDB *sql.DB
	if config.DatadogAgentUrl != "" {
		sqltrace.Register("postgres", pgdriver.Driver{}, sqltrace.WithServiceName(applicationName))
		sqlDB = sqltrace.OpenDB(connector)
	} else {
		sqlDB = sql.OpenDB(connector)
	}
	sqlDB.SetMaxOpenConns(config.DatabaseMaxConns)
	sqlDB.SetMaxIdleConns(config.DatabaseMaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(config.DatabaseConnMaxLifetime) * time.Second)

	db := bun.NewDB(sqlDB, pgdialect.New())
	// BUNDEBUG=1 logs failed queries, BUNDEBUG=2 every query
	db.AddQueryHook(bundebug.NewQueryHook(
		bundebug.WithEnabled(false),
		bundebug.FromEnv("BUNDEBUG"),
	))
	return db, nil
}
