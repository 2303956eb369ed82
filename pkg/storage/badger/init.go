package badger

import (
	"errors"
	"fmt"

	pkgerrors "github.com/absmach/flock/pkg/errors"
	"github.com/dgraph-io/badger/v4"
)

var (
	ErrDBConnection = errors.New("badger database connection error")
	ErrDBQuery      = errors.New("database query error")
	ErrDBScan       = errors.New("database scan error")
	ErrCreate       = errors.New("create error")
	ErrUpdate       = errors.New("update error")
	ErrDelete       = errors.New("delete error")
)

type Database struct {
	db *badger.DB
}

func NewDatabase(path string) (*Database, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDBConnection, err)
	}

	return &Database{db: db}, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) get(key []byte) ([]byte, error) {
	var val []byte
	err := d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)

		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, pkgerrors.ErrNotFound
		}

		return nil, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	return val, nil
}

// insert writes val under key unless the key is already present.
func (d *Database) insert(key, val []byte) error {
	err := d.db.Update(func(txn *badger.Txn) error {
		switch _, err := txn.Get(key); {
		case err == nil:
			return pkgerrors.ErrEntityExists
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}

		return txn.Set(key, val)
	})
	switch {
	case errors.Is(err, pkgerrors.ErrEntityExists):
		return err
	case err != nil:
		return fmt.Errorf("%w: %w", ErrCreate, err)
	}

	return nil
}

// replace overwrites an existing key.
func (d *Database) replace(key, val []byte) error {
	err := d.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err != nil {
			return err
		}

		return txn.Set(key, val)
	})
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return pkgerrors.ErrNotFound
	case err != nil:
		return fmt.Errorf("%w: %w", ErrUpdate, err)
	}

	return nil
}

func (d *Database) delete(key []byte) error {
	err := d.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err != nil {
			return err
		}

		return txn.Delete(key)
	})
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return pkgerrors.ErrNotFound
	case err != nil:
		return fmt.Errorf("%w: %w", ErrDelete, err)
	}

	return nil
}

func (d *Database) listWithPrefix(prefix []byte, offset, limit uint64) ([][]byte, error) {
	items := make([][]byte, 0)
	err := d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchSize = int(min(limit, 1000))
		it := txn.NewIterator(opts)
		defer it.Close()

		skipped := uint64(0)
		count := uint64(0)

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if skipped < offset {
				skipped++

				continue
			}
			if count >= limit {
				break
			}

			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			items = append(items, val)
			count++
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	return items, nil
}

func (d *Database) countWithPrefix(prefix []byte) (uint64, error) {
	count := uint64(0)
	err := d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	return count, nil
}
