package wallet

import (
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/uhyunpark/cfxkit/pkg/address"
	"github.com/uhyunpark/cfxkit/pkg/crypto"
	"github.com/uhyunpark/cfxkit/pkg/storage"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountExists   = errors.New("account already exists")
	ErrLocked          = errors.New("account is locked")
)

// Account is the public view of a stored key
type Account struct {
	Address   address.ChecksumAddress `json:"address"`
	Hex       string                  `json:"hex"`
	Label     string                  `json:"label,omitempty"`
	CreatedAt time.Time               `json:"createdAt"`
	Unlocked  bool                    `json:"unlocked"`
}

type Options struct {
	NetName string
	Scrypt  crypto.ScryptParams
	Logger  *zap.SugaredLogger
}

// Manager manages sealed keys in a thread-safe manner
// Keystores live in Pebble; decrypted signers are held in memory only
// between Unlock and Lock.
type Manager struct {
	mu       sync.RWMutex
	unlocked map[string]*crypto.Signer // hex address -> signer
	store    *storage.KeystoreStore
	netName  string
	scrypt   crypto.ScryptParams
	logger   *zap.SugaredLogger
}

// NewManager creates a manager on top of an opened store
func NewManager(store *storage.KeystoreStore, opts Options) (*Manager, error) {
	if opts.NetName == "" {
		opts.NetName = address.NetMain
	}
	if opts.Scrypt.N == 0 {
		opts.Scrypt = crypto.DefaultScryptParams()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	// Rendering the null address validates and normalises the net name
	zero, err := address.FromBuffer(make([]byte, crypto.AddressLength), opts.NetName)
	if err != nil {
		return nil, err
	}

	return &Manager{
		unlocked: make(map[string]*crypto.Signer),
		store:    store,
		netName:  zero.NetName(),
		scrypt:   opts.Scrypt,
		logger:   opts.Logger,
	}, nil
}

// NetName returns the network label addresses are rendered with
func (m *Manager) NetName() string { return m.netName }

// Close locks every account and closes the store
func (m *Manager) Close() error {
	m.mu.Lock()
	m.unlocked = make(map[string]*crypto.Signer)
	m.mu.Unlock()
	return m.store.Close()
}

// NewAccount generates a random key and stores it sealed under password
func (m *Manager) NewAccount(label, password string) (Account, error) {
	key, err := crypto.RandomPrivateKey(nil)
	if err != nil {
		return Account{}, err
	}
	return m.ImportPrivateKey(key, label, password)
}

// ImportPrivateKey seals and stores an existing key
func (m *Manager) ImportPrivateKey(key []byte, label, password string) (Account, error) {
	signer, err := crypto.FromPrivateKey(key)
	if err != nil {
		return Account{}, err
	}
	if err := m.checkAbsent(signer); err != nil {
		return Account{}, err
	}

	// Sealing runs scrypt; keep it outside the lock
	ks, err := signer.Keystore(password, m.scrypt)
	if err != nil {
		return Account{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Another import may have stored the same key while this one was sealing
	if err := m.checkAbsent(signer); err != nil {
		return Account{}, err
	}
	rec, err := m.store.Save(label, ks)
	if err != nil {
		return Account{}, err
	}

	acc, err := m.accountFromRecord(rec)
	if err != nil {
		return Account{}, err
	}
	m.logger.Infow("keystore_saved", "address", acc.Address.String(), "label", label)
	return acc, nil
}

// ImportKeystore decrypts a keystore from another wallet and re-seals it
// with this manager's parameters, so the stored address is always the one
// derived from the key.
func (m *Manager) ImportKeystore(data []byte, label, password string) (Account, error) {
	ks, err := crypto.ParseKeystore(data)
	if err != nil {
		return Account{}, err
	}
	key, err := crypto.Decrypt(ks, password)
	if err != nil {
		return Account{}, err
	}
	return m.ImportPrivateKey(key, label, password)
}

// Accounts lists every stored account
func (m *Manager) Accounts() ([]Account, error) {
	records, err := m.store.List()
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	accounts := make([]Account, 0, len(records))
	for _, rec := range records {
		acc, err := m.accountFromRecord(rec)
		if err != nil {
			m.logger.Warnw("keystore_skipped", "address", rec.Keystore.Address, "err", err)
			continue
		}
		accounts = append(accounts, acc)
	}
	return accounts, nil
}

// Account returns one stored account
func (m *Manager) Account(addr address.ChecksumAddress) (Account, error) {
	rec, err := m.load(addr)
	if err != nil {
		return Account{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.accountFromRecord(rec)
}

// Export returns the sealed keystore for addr
func (m *Manager) Export(addr address.ChecksumAddress) (*crypto.Keystore, error) {
	rec, err := m.load(addr)
	if err != nil {
		return nil, err
	}
	return rec.Keystore, nil
}

// Unlock decrypts the key for addr and keeps its signer in memory
func (m *Manager) Unlock(addr address.ChecksumAddress, password string) error {
	rec, err := m.load(addr)
	if err != nil {
		return err
	}
	key, err := crypto.Decrypt(rec.Keystore, password)
	if err != nil {
		m.logger.Warnw("unlock_failed", "address", addr.String(), "err", err)
		return err
	}
	signer, err := crypto.FromPrivateKey(key)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.unlocked[rec.Keystore.Address] = signer
	m.mu.Unlock()

	m.logger.Infow("account_unlocked", "address", addr.String())
	return nil
}

// Lock drops the in-memory signer for addr
func (m *Manager) Lock(addr address.ChecksumAddress) error {
	raw, err := addr.Bytes()
	if err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.unlocked, hex.EncodeToString(raw))
	m.mu.Unlock()
	return nil
}

// SignHash signs a 32-byte digest with an unlocked account
func (m *Manager) SignHash(addr address.ChecksumAddress, hash []byte) (crypto.Signature, error) {
	raw, err := addr.Bytes()
	if err != nil {
		return crypto.Signature{}, err
	}

	m.mu.RLock()
	signer, ok := m.unlocked[hex.EncodeToString(raw)]
	m.mu.RUnlock()
	if !ok {
		return crypto.Signature{}, fmt.Errorf("%w: %s", ErrLocked, addr)
	}
	return signer.Sign(hash)
}

// Delete removes a stored account after checking its password
func (m *Manager) Delete(addr address.ChecksumAddress, password string) error {
	rec, err := m.load(addr)
	if err != nil {
		return err
	}
	if _, err := crypto.Decrypt(rec.Keystore, password); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	raw, _ := hex.DecodeString(rec.Keystore.Address)
	if err := m.store.Delete(raw); err != nil {
		return err
	}
	delete(m.unlocked, rec.Keystore.Address)

	m.logger.Infow("keystore_deleted", "address", addr.String())
	return nil
}

func (m *Manager) checkAbsent(signer *crypto.Signer) error {
	exists, err := m.store.Has(signer.AddressBytes())
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrAccountExists, signer.HexAddress())
	}
	return nil
}

func (m *Manager) load(addr address.ChecksumAddress) (*storage.Record, error) {
	raw, err := addr.Bytes()
	if err != nil {
		return nil, err
	}
	rec, err := m.store.Load(raw)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, addr)
	}
	return rec, nil
}

// accountFromRecord builds the public view; caller holds m.mu
func (m *Manager) accountFromRecord(rec *storage.Record) (Account, error) {
	addr, err := rec.Keystore.ChecksumAddress(m.netName)
	if err != nil {
		return Account{}, err
	}
	_, unlocked := m.unlocked[rec.Keystore.Address]
	return Account{
		Address:   addr,
		Hex:       "0x" + rec.Keystore.Address,
		Label:     rec.Label,
		CreatedAt: rec.CreatedAt,
		Unlocked:  unlocked,
	}, nil
}
