package migrations

import (
	"embed"
	"log"

	"github.com/uptrace/bun/migrate"
)

// Migrations holds the Go migrations registered from init functions in this
// package together with the plain SQL files next to them.
var Migrations = migrate.NewMigrations()

//go:embed *.sql
var sqlMigrations embed.FS

func init() {
	if err := Migrations.Discover(sqlMigrations); err != nil {
		log.Fatalf("Error discovering migrations: %v", err)
	}
}
