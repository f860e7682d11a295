// Package store is the persistent store: one JSON document per collection,
// guarded by a per-collection lock. Every durable mutation in the system goes
// through Store.WithTx; no other component touches the data files.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"telegram-credential-broker/internal/domain"
	"telegram-credential-broker/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

// Ensure compile-time conformance
var _ repository.TxRunner = (*Store)(nil)

const defaultLockTimeout = 3 * time.Second

// Store owns the data directory and one lock per collection.
type Store struct {
	dir     string
	timeout time.Duration
	locks   map[string]chan struct{}
	order   map[string]int
	log     *zerolog.Logger
}

// Open prepares the data directory and the collection locks.
// lockTimeout bounds how long a transaction waits for a contended
// collection before failing with domain.ErrBusy.
func Open(dir string, lockTimeout time.Duration, logger *zerolog.Logger) (*Store, error) {
	if dir == "" {
		return nil, domain.ErrInvalidArgument
	}
	if lockTimeout <= 0 {
		lockTimeout = defaultLockTimeout
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	l := logger.With().Str("component", "store").Logger()
	s := &Store{
		dir:     dir,
		timeout: lockTimeout,
		locks:   make(map[string]chan struct{}, len(repository.LockOrder)),
		order:   make(map[string]int, len(repository.LockOrder)),
		log:     &l,
	}
	for i, col := range repository.LockOrder {
		s.locks[col] = make(chan struct{}, 1)
		s.order[col] = i
	}
	return s, nil
}

// Tx is a snapshot of the locked collections. Mutations are staged in memory
// and written out only when the transaction function returns nil.
type Tx struct {
	data  map[string]map[string]json.RawMessage
	dirty map[string]bool
}

// WithTx locks the named collections (in the fixed global order, regardless
// of the order given), loads them, runs fn, and persists every modified
// collection atomically. An error from fn discards all staged changes.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error, collections ...string) error {
	if len(collections) == 0 {
		return domain.ErrInvalidArgument
	}
	cols := append([]string(nil), collections...)
	sort.Slice(cols, func(i, j int) bool { return s.order[cols[i]] < s.order[cols[j]] })

	held := make([]string, 0, len(cols))
	defer func() {
		// release in reverse acquisition order
		for i := len(held) - 1; i >= 0; i-- {
			<-s.locks[held[i]]
		}
	}()

	for _, col := range cols {
		lk, ok := s.locks[col]
		if !ok {
			return fmt.Errorf("unknown collection %q: %w", col, domain.ErrInvalidArgument)
		}
		if err := s.acquire(ctx, col, lk); err != nil {
			return err
		}
		held = append(held, col)
	}

	tx := &Tx{
		data:  make(map[string]map[string]json.RawMessage, len(cols)),
		dirty: make(map[string]bool, len(cols)),
	}
	for _, col := range cols {
		docs, err := s.load(col)
		if err != nil {
			return err
		}
		tx.data[col] = docs
	}

	if err := fn(ctx, tx); err != nil {
		return err
	}

	for _, col := range cols {
		if !tx.dirty[col] {
			continue
		}
		if err := s.persist(col, tx.data[col]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) acquire(ctx context.Context, col string, lk chan struct{}) error {
	timer := time.NewTimer(s.timeout)
	defer timer.Stop()
	select {
	case lk <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		s.log.Warn().Str("collection", col).Dur("timeout", s.timeout).Msg("lock wait timed out")
		return domain.ErrBusy
	}
}

func (s *Store) path(col string) string {
	return filepath.Join(s.dir, col+".json")
}

func (s *Store) load(col string) (map[string]json.RawMessage, error) {
	b, err := os.ReadFile(s.path(col))
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]json.RawMessage{}, nil
		}
		return nil, fmt.Errorf("read collection %s: %w", col, err)
	}
	docs := map[string]json.RawMessage{}
	if len(b) > 0 {
		if err := json.Unmarshal(b, &docs); err != nil {
			return nil, fmt.Errorf("decode collection %s: %w", col, err)
		}
	}
	return docs, nil
}

// persist writes the whole collection to a temp file and renames it into
// place, so readers never observe a partially written document.
func (s *Store) persist(col string, docs map[string]json.RawMessage) error {
	b, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode collection %s: %w", col, err)
	}
	tmp := s.path(col) + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("write collection %s: %w", col, err)
	}
	if err := os.Rename(tmp, s.path(col)); err != nil {
		return fmt.Errorf("commit collection %s: %w", col, err)
	}
	return nil
}

// ---- typed access helpers used by the repositories ----

func asTx(tx repository.Tx) (*Tx, error) {
	t, ok := tx.(*Tx)
	if !ok || t == nil {
		return nil, domain.ErrInvalidArgument
	}
	return t, nil
}

func (t *Tx) collection(col string) (map[string]json.RawMessage, error) {
	docs, ok := t.data[col]
	if !ok {
		return nil, fmt.Errorf("collection %q not part of this transaction: %w", col, domain.ErrInvalidArgument)
	}
	return docs, nil
}

func get[T any](tx repository.Tx, col, id string) (*T, error) {
	t, err := asTx(tx)
	if err != nil {
		return nil, err
	}
	docs, err := t.collection(col)
	if err != nil {
		return nil, err
	}
	raw, ok := docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	rec := new(T)
	if err := json.Unmarshal(raw, rec); err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", col, id, err)
	}
	return rec, nil
}

func put[T any](tx repository.Tx, col, id string, rec *T) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}
	docs, err := t.collection(col)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", col, id, err)
	}
	docs[id] = raw
	t.dirty[col] = true
	return nil
}

func remove(tx repository.Tx, col, id string) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}
	docs, err := t.collection(col)
	if err != nil {
		return err
	}
	if _, ok := docs[id]; !ok {
		return domain.ErrNotFound
	}
	delete(docs, id)
	t.dirty[col] = true
	return nil
}

// all decodes every record of the collection, in unspecified order.
func all[T any](tx repository.Tx, col string) ([]*T, error) {
	t, err := asTx(tx)
	if err != nil {
		return nil, err
	}
	docs, err := t.collection(col)
	if err != nil {
		return nil, err
	}
	out := make([]*T, 0, len(docs))
	for id, raw := range docs {
		rec := new(T)
		if err := json.Unmarshal(raw, rec); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", col, id, err)
		}
		out = append(out, rec)
	}
	return out, nil
}
