package storage

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/uhyunpark/cfxkit/pkg/crypto"
)

var errMissingKeystore = errors.New("record has no keystore")

// Record is the persisted form of one sealed key.
type Record struct {
	Label     string           `json:"label,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
	Keystore  *crypto.Keystore `json:"keystore"`
}

func encodeRecord(r *Record) ([]byte, error) {
	return json.Marshal(r)
}

func decodeRecord(b []byte) (*Record, error) {
	var r Record
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, err
	}
	if r.Keystore == nil {
		return nil, errMissingKeystore
	}
	return &r, nil
}
