package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/skillswap/backend/internal/models"
)

var connectionsKey = []byte("connections")

// BadgerConnectionStore persists the connection collection in an embedded
// Badger database. The collection is stored as one value so the store keeps
// the same whole-collection read/replace semantics as the file store.
type BadgerConnectionStore struct {
	db *badger.DB
}

// OpenBadgerConnectionStore opens (or creates) a Badger database at dir.
func OpenBadgerConnectionStore(dir string) (*BadgerConnectionStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}
	return &BadgerConnectionStore{db: db}, nil
}

// Close releases the underlying database.
func (s *BadgerConnectionStore) Close() error {
	return s.db.Close()
}

// LoadAll reads the full connection collection. An absent key is an empty
// collection.
func (s *BadgerConnectionStore) LoadAll(_ context.Context) ([]models.Connection, error) {
	var conns []models.Connection

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(connectionsKey)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &conns)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("load connections from badger: %w", err)
	}

	return conns, nil
}

// ReplaceAll overwrites the collection inside a single transaction.
func (s *BadgerConnectionStore) ReplaceAll(_ context.Context, conns []models.Connection) error {
	if conns == nil {
		conns = []models.Connection{}
	}

	data, err := json.Marshal(conns)
	if err != nil {
		return fmt.Errorf("encode connections: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(connectionsKey, data)
	})
	if err != nil {
		return fmt.Errorf("replace connections in badger: %w", err)
	}

	return nil
}
