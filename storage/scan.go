package storage

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// DB exposes the underlying handle for read-only tooling.
func (s *BadgerStore) DB() *badger.DB {
	return s.db
}

// ScanBadger walks every document of collection in insertion order without
// going through a BadgerStore, so it also works on a database opened read-only.
func ScanBadger(db *badger.DB, collection string, fn func(doc Document) error) error {
	prefix := []byte(fmt.Sprintf("doc:%s:", collection))
	return db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			doc, err := decodeItem(it.Item(), len(prefix))
			if err != nil {
				return err
			}
			if err = fn(doc); err != nil {
				return err
			}
		}
		return nil
	})
}
