//go:build rocksdb

package providers

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/linxGnu/grocksdb"
	"go.uber.org/zap"

	"translate-cache-service/internal/cache/config"
)

// RocksDB — локальное персистентное хранилище.
//
// Формат значения: 8 байт срока истечения (UnixNano, big endian, 0 — без срока)
// и затем сами данные. Просроченные записи удаляются лениво при чтении и
// фоновым сборщиком (StartTTLCollector).
type RocksDB struct {
	db        *grocksdb.DB
	readOpts  *grocksdb.ReadOptions
	writeOpts *grocksdb.WriteOptions
	now       func() time.Time
}

const expiryHeaderLen = 8

func NewRocksDB(cfg config.RocksDB) (*RocksDB, error) {
	opts := grocksdb.NewDefaultOptions()
	opts.SetCreateIfMissing(cfg.CreateIfMissing)
	if cfg.MaxOpenFiles > 0 {
		opts.SetMaxOpenFiles(cfg.MaxOpenFiles)
	}
	if cfg.WriteBufferSize != "" {
		if n, err := cfg.WriteBufferSizeBytes(); err == nil && n > 0 {
			opts.SetWriteBufferSize(n)
		}
	}

	if cfg.BlockCache != "" {
		blockCache, err := cfg.BlockCacheBytes()
		if err != nil {
			return nil, err
		}
		bbto := grocksdb.NewDefaultBlockBasedTableOptions()
		bbto.SetBlockCache(grocksdb.NewLRUCache(blockCache))
		if cfg.BlockSize != "" {
			if blockSize, err := cfg.BlockSizeBytes(); err == nil && blockSize > 0 {
				bbto.SetBlockSize(int(blockSize))
			}
		}
		opts.SetBlockBasedTableFactory(bbto)
	}

	db, err := grocksdb.OpenDb(opts, cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open rocksdb %q: %w", cfg.Path, err)
	}
	zap.S().Infow("rocksdb opened", "path", cfg.Path)

	return &RocksDB{
		db:        db,
		readOpts:  grocksdb.NewDefaultReadOptions(),
		writeOpts: grocksdb.NewDefaultWriteOptions(),
		now:       time.Now,
	}, nil
}

func encodeValue(value string, expiresAt int64) []byte {
	buf := make([]byte, expiryHeaderLen+len(value))
	binary.BigEndian.PutUint64(buf, uint64(expiresAt))
	copy(buf[expiryHeaderLen:], value)
	return buf
}

// decodeValue возвращает данные и срок истечения; ok=false для повреждённой записи.
func decodeValue(raw []byte) (value string, expiresAt int64, ok bool) {
	if len(raw) < expiryHeaderLen {
		return "", 0, false
	}
	return string(raw[expiryHeaderLen:]), int64(binary.BigEndian.Uint64(raw)), true
}

func (c *RocksDB) BatchGet(ctx context.Context, keys []string) (result map[string]string, err error) {
	start := time.Now()
	defer func() { observe("rocksdb", "get", start, err) }()

	result = make(map[string]string, len(keys))
	now := c.now().UnixNano()
	stale := make([]string, 0)

	for _, chunk := range splitKeysToChunks(keys, minChunk, maxChunk) {
		if err = checkCtx(ctx, 0); err != nil {
			return nil, err
		}
		raw := make([][]byte, len(chunk))
		for i, k := range chunk {
			raw[i] = []byte(k)
		}
		slices, getErr := c.db.MultiGet(c.readOpts, raw...)
		if getErr != nil {
			err = fmt.Errorf("rocksdb multiget: %w", getErr)
			return nil, err
		}
		for i, s := range slices {
			if !s.Exists() {
				continue
			}
			value, expiresAt, ok := decodeValue(s.Data())
			if !ok || (expiresAt > 0 && now > expiresAt) {
				stale = append(stale, chunk[i])
				continue
			}
			result[chunk[i]] = value
		}
		slices.Destroy()
	}

	if len(stale) > 0 {
		_ = c.BatchDelete(ctx, stale)
	}
	return result, nil
}

func (c *RocksDB) BatchPut(ctx context.Context, items map[string]string, ttl time.Duration) (err error) {
	start := time.Now()
	defer func() { observe("rocksdb", "put", start, err) }()

	if len(items) == 0 {
		return nil
	}

	var expiresAt int64
	if ttl > 0 {
		expiresAt = c.now().Add(ttl).UnixNano()
	}

	batch := grocksdb.NewWriteBatch()
	defer batch.Destroy()

	count := 0
	for key, val := range items {
		if err = checkCtx(ctx, count); err != nil {
			return err
		}
		count++
		batch.Put([]byte(key), encodeValue(val, expiresAt))
	}
	if err = c.db.Write(c.writeOpts, batch); err != nil {
		return fmt.Errorf("rocksdb batch put: %w", err)
	}
	return nil
}

func (c *RocksDB) BatchDelete(ctx context.Context, keys []string) (err error) {
	start := time.Now()
	defer func() { observe("rocksdb", "delete", start, err) }()

	if len(keys) == 0 {
		return nil
	}
	batch := grocksdb.NewWriteBatch()
	defer batch.Destroy()

	for i, key := range keys {
		if err = checkCtx(ctx, i); err != nil {
			return err
		}
		batch.Delete([]byte(key))
	}
	if err = c.db.Write(c.writeOpts, batch); err != nil {
		return fmt.Errorf("rocksdb batch delete: %w", err)
	}
	return nil
}

// StartTTLCollector раз в interval удаляет просроченные записи, до которых не дошли чтения.
// Останавливается при отмене ctx.
func (c *RocksDB) StartTTLCollector(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := c.collectOnce(); err != nil {
					zap.S().Warnw("rocksdb ttl collector failed", "error", err)
				} else if n > 0 {
					zap.S().Debugw("rocksdb ttl collector removed keys", "count", n)
				}
			}
		}
	}()
}

func (c *RocksDB) collectOnce() (int, error) {
	now := c.now().UnixNano()
	it := c.db.NewIterator(c.readOpts)
	defer it.Close()

	batch := grocksdb.NewWriteBatch()
	defer batch.Destroy()

	for it.SeekToFirst(); it.Valid(); it.Next() {
		k := it.Key()
		v := it.Value()
		_, expiresAt, ok := decodeValue(v.Data())
		if !ok || (expiresAt > 0 && now > expiresAt) {
			batch.Delete(k.Data())
		}
		k.Free()
		v.Free()
	}
	if err := it.Err(); err != nil {
		return 0, err
	}

	n := batch.Count()
	if n == 0 {
		return 0, nil
	}
	return n, c.db.Write(c.writeOpts, batch)
}

func (c *RocksDB) Close() error {
	c.readOpts.Destroy()
	c.writeOpts.Destroy()
	c.db.Close()
	return nil
}

var _ CacheProvider = (*RocksDB)(nil)
