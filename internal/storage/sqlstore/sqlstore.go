package sqlstore

import (
	"database/sql"
	"fmt"
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"stroy-calc/internal/config"
	"stroy-calc/internal/migrations"
)

// Storage хранит настройки калькулятора в MySQL (прод) или SQLite (локально и в тестах).
// Запросы общие для обоих драйверов.
type Storage struct {
	db     *sql.DB
	driver string
}

func New(cfg config.Config) (*Storage, error) {
	const op = "storage.sqlstore.New"

	var (
		db  *sql.DB
		err error
	)

	switch cfg.StorageDriver {
	case migrations.DriverMySQL:
		db, err = sql.Open("mysql", mysqlDSN(cfg))
	case migrations.DriverSQLite:
		db, err = openSQLite(cfg.StoragePath)
	default:
		return nil, fmt.Errorf("%s: неизвестный драйвер хранилища %q", op, cfg.StorageDriver)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}

	return &Storage{db: db, driver: cfg.StorageDriver}, nil
}

// NewWithDB оборачивает уже открытое соединение.
func NewWithDB(db *sql.DB, driver string) *Storage {
	return &Storage{db: db, driver: driver}
}

func (s *Storage) Migrate() error {
	const op = "storage.sqlstore.Migrate"

	if err := migrations.Up(s.db, s.driver); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func mysqlDSN(cfg config.Config) string {
	mc := mysql.NewConfig()
	mc.User = cfg.DBUser
	mc.Passwd = cfg.DBPassword
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.DBHost, strconv.Itoa(cfg.DBPort))
	mc.DBName = cfg.DBName
	mc.ParseTime = cfg.ParseTime
	return mc.FormatDSN()
}

// openSQLite открывает базу SQLite с нужными прагмами. Путь ":memory:" годится для тестов.
func openSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// прагмы действуют на соединение, поэтому соединение одно
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`
		PRAGMA journal_mode = WAL;
		PRAGMA foreign_keys = ON;
		PRAGMA busy_timeout = 5000;
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set sqlite pragmas: %w", err)
	}

	return db, nil
}
