package store

import (
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// sqlitePragmas are applied to every connection opened for a SQLite file.
var sqlitePragmas = []string{
	"foreign_keys(1)",
	"busy_timeout(5000)",
	"journal_mode(WAL)",
}

func sqliteDialector(path string) gorm.Dialector {
	return sqlite.Open(SQLiteDSN(path))
}

// SQLiteDSN appends the connection pragmas to a database file path.
func SQLiteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}

	params := make([]string, 0, len(sqlitePragmas))
	for _, pragma := range sqlitePragmas {
		params = append(params, "_pragma="+pragma)
	}
	return path + sep + strings.Join(params, "&")
}
