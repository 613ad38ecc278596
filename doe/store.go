package doe

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// Store persists search tree nodes keyed by their 64-bit identifiers.
// Only the training driver touches the store; workers never do.
type Store interface {
	// Read returns the node stored under a key, or nil when the key
	// does not resolve.
	Read(key uint64) (*Node, error)

	// Write stores a node under its key.
	Write(node *Node) error

	// Values visits every stored node. Iteration stops at the first
	// error returned by the visitor.
	Values(visit func(node *Node) error) error

	// Close releases the store.
	Close() error
}

// BadgerStore keeps nodes in a badger database, one JSON-encoded
// value per node under its big-endian key.
type BadgerStore struct {
	db *badger.DB
}

var _ Store = (*BadgerStore)(nil)

// OpenStore opens or creates a node database at the given directory.
func OpenStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)

	if err != nil {
		return nil, fmt.Errorf("doe: open store: %w", err)
	}

	return &BadgerStore{db: db}, nil
}

// OpenMemoryStore creates a store that lives in memory only. Training
// on it is not recoverable across runs; tests use it.
func OpenMemoryStore() (*BadgerStore, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil

	db, err := badger.Open(opts)

	if err != nil {
		return nil, fmt.Errorf("doe: open store: %w", err)
	}

	return &BadgerStore{db: db}, nil
}

// Read returns the node stored under a key.
func (s *BadgerStore) Read(key uint64) (*Node, error) {
	if key == 0 {
		return nil, nil
	}

	var node *Node

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(storeKey(key))

		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		} else if err != nil {
			return err
		}

		return item.Value(func(value []byte) error {
			node = new(Node)
			return json.Unmarshal(value, node)
		})
	})

	if err != nil {
		return nil, fmt.Errorf("doe: read node %d: %w", key, err)
	}

	return node, nil
}

// Write stores a node under its key.
func (s *BadgerStore) Write(node *Node) error {
	value, err := json.Marshal(node)

	if err != nil {
		return fmt.Errorf("doe: encode node %d: %w", node.Key, err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(storeKey(node.Key), value)
	})

	if err != nil {
		return fmt.Errorf("doe: write node %d: %w", node.Key, err)
	}

	return nil
}

// Values visits every stored node.
func (s *BadgerStore) Values(visit func(node *Node) error) error {
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				node := new(Node)

				if err := json.Unmarshal(value, node); err != nil {
					return err
				}

				return visit(node)
			})

			if err != nil {
				return err
			}
		}

		return nil
	})

	if err != nil {
		return fmt.Errorf("doe: scan store: %w", err)
	}

	return nil
}

// Close releases the database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func storeKey(key uint64) []byte {
	encoded := make([]byte, 8)
	binary.BigEndian.PutUint64(encoded, key)
	return encoded
}
