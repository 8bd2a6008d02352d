package migrations

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed mysql/*.sql sqlite/*.sql
var embedded embed.FS

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Up применяет встроенные миграции для указанного драйвера.
func Up(db *sql.DB, driver string) error {
	dialect, dir, err := dialectFor(driver)
	if err != nil {
		return err
	}

	goose.SetBaseFS(embedded)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("run goose up migrations: %w", err)
	}

	return nil
}

func dialectFor(driver string) (dialect, dir string, err error) {
	switch driver {
	case DriverMySQL:
		return "mysql", "mysql", nil
	case DriverSQLite:
		return "sqlite3", "sqlite", nil
	default:
		return "", "", fmt.Errorf("неизвестный драйвер хранилища %q", driver)
	}
}
