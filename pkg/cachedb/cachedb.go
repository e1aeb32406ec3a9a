// Package cachedb persists cache identity records in BadgerDB.
//
// One record exists per cached object, mapping the remote content identity
// to the logical path it was fetched for. Records are bookkeeping for
// statistics and diagnostics only - cache validity is never decided from
// them, and purging drops them alongside the cached files.
package cachedb

import (
	"context"
	"errors"

	badger "github.com/dgraph-io/badger/v4"
)

// ErrRecordNotFound indicates no record exists for the identity.
var ErrRecordNotFound = errors.New("cache record not found")

var keyPrefix = []byte("identity/")

// DB is a badger-backed identity record store.
type DB struct {
	db *badger.DB
}

// Open opens (or creates) the record store in the given directory.
func Open(dir string) (*DB, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &DB{db: db}, nil
}

// Close closes the underlying database.
func (d *DB) Close() error {
	return d.db.Close()
}

func recordKey(identity string) []byte {
	return append(append([]byte{}, keyPrefix...), identity...)
}

// Put stores the identity -> logical path record, overwriting any previous
// record for the identity.
func (d *DB) Put(ctx context.Context, identity, logicalPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return d.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recordKey(identity), []byte(logicalPath))
	})
}

// Get returns the logical path recorded for the identity.
// Returns ErrRecordNotFound if no record exists.
func (d *DB) Get(ctx context.Context, identity string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var path string
	err := d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(identity))
		if err == badger.ErrKeyNotFound {
			return ErrRecordNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			path = string(val)
			return nil
		})
	})
	if err != nil {
		return "", err
	}
	return path, nil
}

// Count returns the number of identity records.
func (d *DB) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	count := 0
	err := d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = keyPrefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Purge drops every identity record. Idempotent.
func (d *DB) Purge(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.db.DropPrefix(keyPrefix)
}
