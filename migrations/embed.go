// Package migrations embeds the SQLite schema files into the binary and
// registers them with the database package on import.
package migrations

import (
	"embed"

	"github.com/huangfengdan/hwlight-ha-component/internal/infrastructure/database"
)

//go:embed *.sql
var files embed.FS

func init() {
	database.MigrationsFS = files
	database.MigrationsDir = "."
}
