//go:build !rocksdb

package providers

import (
	"context"
	"errors"
	"time"

	"translate-cache-service/internal/cache/config"
)

// ErrRocksDBUnavailable возвращается, если бинарь собран без тега rocksdb.
var ErrRocksDBUnavailable = errors.New("rocksdb provider requires building with -tags rocksdb")

type RocksDB struct{}

func NewRocksDB(config.RocksDB) (*RocksDB, error) {
	return nil, ErrRocksDBUnavailable
}

func (c *RocksDB) BatchGet(context.Context, []string) (map[string]string, error) {
	return nil, ErrRocksDBUnavailable
}

func (c *RocksDB) BatchPut(context.Context, map[string]string, time.Duration) error {
	return ErrRocksDBUnavailable
}

func (c *RocksDB) BatchDelete(context.Context, []string) error { return ErrRocksDBUnavailable }

func (c *RocksDB) StartTTLCollector(context.Context, time.Duration) {}

func (c *RocksDB) Close() error { return nil }
