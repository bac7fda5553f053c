// Package badgerstore implements ports.Store on an embedded Badger KV store.
//
// Key layout:
//
//	users/<id>                 user document
//	email/<email>              user id
//	portfolios/<userID>        portfolio document
//	bots/<userID>/<botID>      bot document
//
// Bot ids are ULIDs, so a prefix scan over bots/<userID>/ yields insertion order.
package badgerstore

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
	pkgerrors "github.com/pkg/errors"

	"github.com/betbot/tradedesk/internal/ports"
)

const maxTxnRetries = 16

var _ ports.Store = (*Store)(nil)

type Store struct {
	db *badger.DB
}

type Options struct {
	Path          string
	InMemory      bool
	EncryptionKey []byte // 32 bytes; nil opens without encryption
}

func Open(opts Options) (*Store, error) {
	if !opts.InMemory && strings.TrimSpace(opts.Path) == "" {
		return nil, errors.New("badgerstore: path is required")
	}
	bopts := badger.DefaultOptions(opts.Path).
		WithLogger(nil).
		WithInMemory(opts.InMemory)
	if opts.InMemory {
		bopts = bopts.WithDir("").WithValueDir("")
	}
	if len(opts.EncryptionKey) > 0 {
		// Badger requires an index cache for encrypted workloads
		bopts = bopts.
			WithEncryptionKey(opts.EncryptionKey).
			WithIndexCacheSize(100 << 20)
	}
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "open badger")
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// update runs fn in a read-write transaction, retrying on write conflicts.
func (s *Store) update(fn func(txn *badger.Txn) error) error {
	var err error
	for i := 0; i < maxTxnRetries; i++ {
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

func getJSON(txn *badger.Txn, key string, dst any) error {
	item, err := txn.Get([]byte(key))
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, dst)
	})
}

func setJSON(txn *badger.Txn, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set([]byte(key), b)
}

func userKey(id string) string          { return "users/" + id }
func emailKey(email string) string      { return "email/" + email }
func portfolioKey(userID string) string { return "portfolios/" + userID }
func botPrefix(userID string) string    { return "bots/" + userID + "/" }
func botKey(userID, botID string) string {
	return botPrefix(userID) + botID
}

// ParseKey accepts a 32-byte key as hex (optionally 0x-prefixed) or base64.
// An empty input returns nil.
func ParseKey(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if b, err := hex.DecodeString(strings.TrimPrefix(raw, "0x")); err == nil {
		if len(b) != 32 {
			return nil, fmt.Errorf("decoded key length must be 32, got %d", len(b))
		}
		return b, nil
	}
	if b, err := base64.StdEncoding.DecodeString(raw); err == nil {
		if len(b) != 32 {
			return nil, fmt.Errorf("decoded key length must be 32, got %d", len(b))
		}
		return b, nil
	}
	return nil, errors.New("key must be base64(32 bytes) or hex(32 bytes)")
}
