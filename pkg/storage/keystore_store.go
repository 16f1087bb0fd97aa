package storage

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"

	"github.com/uhyunpark/cfxkit/pkg/crypto"
	"github.com/uhyunpark/cfxkit/pkg/util"
)

var ErrInvalidAddress = errors.New("keystore address must be 20 bytes")

// KeystoreStore persists sealed keys in Pebble, keyed by raw address.
// Only encrypted keystores are written; plaintext keys never reach disk.
type KeystoreStore struct {
	db    *pebble.DB
	clock util.Clock
}

// NewKeystoreStore opens a Pebble database at the given path
func NewKeystoreStore(path string, clock util.Clock) (*KeystoreStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble db at %s: %w", path, err)
	}
	return newKeystoreStore(db, clock), nil
}

// NewInMemoryKeystoreStore opens a Pebble database backed by memory (tests, ephemeral CLI runs)
func NewInMemoryKeystoreStore(clock util.Clock) (*KeystoreStore, error) {
	db, err := pebble.Open("", &pebble.Options{FS: vfs.NewMem()})
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory pebble db: %w", err)
	}
	return newKeystoreStore(db, clock), nil
}

func newKeystoreStore(db *pebble.DB, clock util.Clock) *KeystoreStore {
	if clock == nil {
		clock = util.RealClock{}
	}
	return &KeystoreStore{db: db, clock: clock}
}

func (s *KeystoreStore) Close() error { return s.db.Close() }

// Save persists a keystore under its embedded address, replacing any
// previous record for that address.
func (s *KeystoreStore) Save(label string, ks *crypto.Keystore) (*Record, error) {
	addr, err := hex.DecodeString(ks.Address)
	if err != nil || len(addr) != crypto.AddressLength {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, ks.Address)
	}

	rec := &Record{Label: label, CreatedAt: s.clock.Now().UTC(), Keystore: ks}
	data, err := encodeRecord(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal keystore: %w", err)
	}
	if err := s.db.Set(keystoreKey(addr), data, pebble.Sync); err != nil {
		return nil, fmt.Errorf("failed to save keystore: %w", err)
	}
	return rec, nil
}

// Load loads the record for a raw address
// Returns nil if the address has no keystore
func (s *KeystoreStore) Load(addr []byte) (*Record, error) {
	if len(addr) != crypto.AddressLength {
		return nil, ErrInvalidAddress
	}
	data, closer, err := s.db.Get(keystoreKey(addr))
	if err == pebble.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get keystore: %w", err)
	}
	defer closer.Close()

	rec, err := decodeRecord(data)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal keystore: %w", err)
	}
	return rec, nil
}

func (s *KeystoreStore) Has(addr []byte) (bool, error) {
	rec, err := s.Load(addr)
	if err != nil {
		return false, err
	}
	return rec != nil, nil
}

// Delete removes the record for a raw address; missing records are not an error
func (s *KeystoreStore) Delete(addr []byte) error {
	if len(addr) != crypto.AddressLength {
		return ErrInvalidAddress
	}
	if err := s.db.Delete(keystoreKey(addr), pebble.Sync); err != nil {
		return fmt.Errorf("failed to delete keystore: %w", err)
	}
	return nil
}

// List returns all records ordered by address
func (s *KeystoreStore) List() ([]*Record, error) {
	prefix := keystorePrefix()
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open iterator: %w", err)
	}
	defer iter.Close()

	var records []*Record
	for iter.First(); iter.Valid(); iter.Next() {
		if _, err := addressFromKey(iter.Key()); err != nil {
			continue // Skip foreign keys
		}
		rec, err := decodeRecord(iter.Value())
		if err != nil {
			continue // Skip invalid entries
		}
		records = append(records, rec)
	}
	return records, iter.Error()
}
