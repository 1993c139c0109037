package providers

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"translate-cache-service/internal/cache/config"
)

// SQL хранит записи в таблице (cache_key PRIMARY KEY, value, expires_at).
// cache_key хранится как бинарная строка: ключ содержит байт 0x00, который
// postgres не допускает в TEXT. expires_at — UnixNano или NULL для записей без срока жизни.
// Поддерживаются sqlite3 и postgres; повторная запись ключа перезаписывает значение.
type SQL struct {
	db     *sql.DB
	driver config.SQLDriver
	table  string
	now    func() time.Time
}

const (
	sqlMinChunk = 100
	sqlMaxChunk = 300
)

func NewSQL(ctx context.Context, cfg config.SQL) (*SQL, error) {
	db, err := sql.Open(string(cfg.Driver), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%s open: %w", cfg.Driver, err)
	}
	switch {
	case cfg.Driver == config.SQLDriverSqlite && strings.Contains(cfg.DSN, ":memory:"):
		// у каждого соединения своя in-memory база
		db.SetMaxOpenConns(1)
	case cfg.MaxOpenConns > 0:
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s ping: %w", cfg.Driver, err)
	}

	s := NewSQLFromDB(db, cfg.Driver, cfg.TableName())
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s migrate: %w", cfg.Driver, err)
	}
	zap.S().Infow("sql cache store ready", "driver", cfg.Driver, "table", s.table)
	return s, nil
}

// NewSQLFromDB оборачивает уже открытое соединение; схему не создаёт.
func NewSQLFromDB(db *sql.DB, driver config.SQLDriver, table string) *SQL {
	return &SQL{db: db, driver: driver, table: table, now: time.Now}
}

func (s *SQL) migrate(ctx context.Context) error {
	keyType := "BLOB"
	if s.driver == config.SQLDriverPostgres {
		keyType = "BYTEA"
	}
	schema := `CREATE TABLE IF NOT EXISTS ` + s.table + ` (
		cache_key ` + keyType + ` PRIMARY KEY,
		value TEXT NOT NULL,
		expires_at BIGINT
	)`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// placeholder возвращает n-й (с 1) параметр запроса в синтаксисе драйвера.
func (s *SQL) placeholder(n int) string {
	if s.driver == config.SQLDriverPostgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

func (s *SQL) placeholders(from, count int) string {
	parts := make([]string, count)
	for i := range parts {
		parts[i] = s.placeholder(from + i)
	}
	return strings.Join(parts, ", ")
}

func (s *SQL) BatchGet(ctx context.Context, keys []string) (result map[string]string, err error) {
	start := time.Now()
	defer func() { observe("sql", "get", start, err) }()

	result = make(map[string]string, len(keys))
	now := s.now().UnixNano()

	for _, chunk := range splitKeysToChunks(keys, sqlMinChunk, sqlMaxChunk) {
		query := fmt.Sprintf(
			"SELECT cache_key, value FROM %s WHERE cache_key IN (%s) AND (expires_at IS NULL OR expires_at > %s)",
			s.table, s.placeholders(1, len(chunk)), s.placeholder(len(chunk)+1),
		)
		args := make([]any, 0, len(chunk)+1)
		for _, k := range chunk {
			args = append(args, []byte(k))
		}
		args = append(args, now)

		if err = s.collect(ctx, query, args, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (s *SQL) collect(ctx context.Context, query string, args []any, into map[string]string) error {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("sql batch get: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key   []byte
			value string
		)
		if err := rows.Scan(&key, &value); err != nil {
			return fmt.Errorf("sql scan: %w", err)
		}
		into[string(key)] = value
	}
	return rows.Err()
}

func (s *SQL) BatchPut(ctx context.Context, items map[string]string, ttl time.Duration) (err error) {
	start := time.Now()
	defer func() { observe("sql", "put", start, err) }()

	var expiresAt sql.NullInt64
	if ttl > 0 {
		expiresAt = sql.NullInt64{Int64: s.now().Add(ttl).UnixNano(), Valid: true}
	}

	for _, chunk := range splitKeyValueToChunks(items, sqlMinChunk, sqlMaxChunk) {
		values := make([]string, 0, len(chunk))
		args := make([]any, 0, len(chunk)*3)
		for key, value := range chunk {
			values = append(values, "("+s.placeholders(len(args)+1, 3)+")")
			args = append(args, []byte(key), value, expiresAt)
		}
		query := fmt.Sprintf(
			"INSERT INTO %s (cache_key, value, expires_at) VALUES %s "+
				"ON CONFLICT (cache_key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at",
			s.table, strings.Join(values, ", "),
		)
		if _, err = s.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("sql batch put: %w", err)
		}
	}
	return nil
}

func (s *SQL) BatchDelete(ctx context.Context, keys []string) (err error) {
	start := time.Now()
	defer func() { observe("sql", "delete", start, err) }()

	for _, chunk := range splitKeysToChunks(keys, sqlMinChunk, sqlMaxChunk) {
		query := fmt.Sprintf("DELETE FROM %s WHERE cache_key IN (%s)", s.table, s.placeholders(1, len(chunk)))
		args := make([]any, len(chunk))
		for i, k := range chunk {
			args[i] = []byte(k)
		}
		if _, err = s.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("sql batch delete: %w", err)
		}
	}
	return nil
}

// PurgeExpired удаляет просроченные строки и возвращает их количество.
func (s *SQL) PurgeExpired(ctx context.Context) (int64, error) {
	query := fmt.Sprintf("DELETE FROM %s WHERE expires_at IS NOT NULL AND expires_at <= %s", s.table, s.placeholder(1))
	res, err := s.db.ExecContext(ctx, query, s.now().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("sql purge expired: %w", err)
	}
	return res.RowsAffected()
}

// StartTTLCollector периодически вызывает PurgeExpired до отмены ctx.
func (s *SQL) StartTTLCollector(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.PurgeExpired(ctx); err != nil {
					zap.S().Warnw("sql ttl collector failed", "table", s.table, "error", err)
				}
			}
		}
	}()
}

func (s *SQL) Close() error {
	return s.db.Close()
}

var _ CacheProvider = (*SQL)(nil)
