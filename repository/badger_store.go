package repository

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"fairbook/domain/interfaces"

	badger "github.com/dgraph-io/badger/v4"
	log "github.com/sirupsen/logrus"
)

// Key prefixes keep the three value shapes from colliding in one keyspace
const (
	badgerValuePrefix = "v!"
	badgerListPrefix  = "l!"
	badgerSetPrefix   = "s!"

	// The counter key must sort outside the element prefix "l!<key>!" so
	// list iteration never picks it up
	badgerSeqSuffix = "#seq"
)

// BadgerStore is a KVStore backed by an embedded Badger database. TTLs use
// Badger's native entry expiry.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens (or creates) a Badger database at dir
func NewBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database at %s: %w", dir, err)
	}

	log.WithField("dir", dir).Info("Opened badger store")
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerValuePrefix + key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, interfaces.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("badger get failed: %w", err)
	}
	return value, nil
}

func (s *BadgerStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(badgerValuePrefix+key), value)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("badger set failed: %w", err)
	}
	return nil
}

func (s *BadgerStore) AppendToList(ctx context.Context, key string, value []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		seqKey := []byte(badgerListPrefix + key + badgerSeqSuffix)

		var seq uint64
		item, err := txn.Get(seqKey)
		if err == nil {
			raw, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			seq = binary.BigEndian.Uint64(raw)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		// Zero-padded sequence keeps lexicographic key order == append order
		elementKey := []byte(fmt.Sprintf("%s%s!%016d", badgerListPrefix, key, seq))
		if err := txn.Set(elementKey, value); err != nil {
			return err
		}

		next := make([]byte, 8)
		binary.BigEndian.PutUint64(next, seq+1)
		return txn.Set(seqKey, next)
	})
	if err != nil {
		return fmt.Errorf("badger list append failed: %w", err)
	}
	return nil
}

func (s *BadgerStore) GetList(ctx context.Context, key string) ([][]byte, error) {
	var values [][]byte
	prefix := []byte(badgerListPrefix + key + "!")

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
			value, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			values = append(values, value)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badger list read failed: %w", err)
	}
	return values, nil
}

func (s *BadgerStore) AddToSet(ctx context.Context, key string, value string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(badgerSetPrefix+key+"!"+value), nil)
	})
	if err != nil {
		return fmt.Errorf("badger set add failed: %w", err)
	}
	return nil
}

func (s *BadgerStore) GetSet(ctx context.Context, key string) ([]string, error) {
	var members []string
	prefix := []byte(badgerSetPrefix + key + "!")

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
			members = append(members, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badger set read failed: %w", err)
	}
	return members, nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
