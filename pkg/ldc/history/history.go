// Package history keeps a local index of the manifests ldc has saved.
//
// The index only records metadata. Manifest files are never moved or
// deleted through it.
package history

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/jamesainslie/ldc/pkg/ldc/logging"
	"github.com/jamesainslie/ldc/pkg/ldc/types"
)

var logger = logging.Get("history")

// ErrAmbiguous is returned when an ID prefix matches more than one record.
var ErrAmbiguous = errors.New("ambiguous record id")

// DefaultPath returns $XDG_DATA_HOME/ldc/history.
func DefaultPath() string {
	return filepath.Join(xdg.DataHome, "ldc", "history")
}

// Store is a badger-backed history index.
type Store struct {
	db  *badger.DB
	now func() time.Time
}

// Open opens or creates the index at path.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening history at %s: %w", path, err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the index.
func (s *Store) Close() error {
	return s.db.Close()
}

// Add stores rec, assigning an ID and timestamp when they are unset.
func (s *Store) Add(rec *Record) error {
	if rec.Name == "" {
		return fmt.Errorf("%w: history record has no name", types.ErrConfiguration)
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now().UTC()
	}

	value, err := rec.encode()
	if err != nil {
		return fmt.Errorf("encoding history record: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(makeKey(rec.Name, rec.ID), value)
	})
	if err != nil {
		return fmt.Errorf("writing history record: %w", err)
	}

	logger.Debug("history record added", "id", rec.ID, "name", rec.Name)
	return nil
}

// List returns records newest first. A limit of zero or less returns all.
func (s *Store) List(limit int) ([]Record, error) {
	records, err := s.scan(allPrefix())
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// FindByName returns the records for a manifest file name, newest first.
func (s *Store) FindByName(name string) ([]Record, error) {
	return s.scan(namePrefix(name))
}

// Get returns the record whose ID equals or starts with idOrPrefix.
func (s *Store) Get(idOrPrefix string) (*Record, error) {
	if idOrPrefix == "" {
		return nil, fmt.Errorf("%w: empty record id", types.ErrConfiguration)
	}

	records, err := s.scan(allPrefix())
	if err != nil {
		return nil, err
	}

	var match *Record
	for i := range records {
		rec := &records[i]
		if rec.ID == idOrPrefix {
			return rec, nil
		}
		if strings.HasPrefix(rec.ID, idOrPrefix) {
			if match != nil {
				return nil, fmt.Errorf("%w: %s", ErrAmbiguous, idOrPrefix)
			}
			match = rec
		}
	}
	if match == nil {
		return nil, fmt.Errorf("history record %s: %w", idOrPrefix, types.ErrNotFound)
	}
	return match, nil
}

// Prune removes records created more than olderThan ago and returns how
// many were removed.
func (s *Store) Prune(olderThan time.Duration) (int, error) {
	cutoff := s.now().Add(-olderThan)
	prefix := allPrefix()
	removed := 0

	err := s.db.Update(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		var stale [][]byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var rec Record
			if err := item.Value(rec.decode); err != nil {
				return err
			}
			if rec.CreatedAt.Before(cutoff) {
				stale = append(stale, item.KeyCopy(nil))
			}
		}

		for _, key := range stale {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		removed = len(stale)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("pruning history: %w", err)
	}

	if removed > 0 {
		logger.Info("history pruned", "removed", removed, "cutoff", cutoff)
	}
	return removed, nil
}

func (s *Store) scan(prefix []byte) ([]Record, error) {
	var records []Record

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec Record
			if err := it.Item().Value(rec.decode); err != nil {
				return err
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}

	slices.SortStableFunc(records, func(a, b Record) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return records, nil
}
