package audit

import (
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/zeebo/blake3"
)

// KeySize is the length of a sealing key.
const KeySize = 32

// Sealer computes keyed BLAKE3 digests over entries so that edits made
// directly in storage are detectable.
type Sealer struct {
	key []byte
}

func NewSealer(key []byte) (*Sealer, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("audit: sealing key must be %d bytes, got %d", KeySize, len(key))
	}
	k := make([]byte, KeySize)
	copy(k, key)
	return &Sealer{key: k}, nil
}

// NewSealerFromHex parses a hex encoded key.
func NewSealerFromHex(s string) (*Sealer, error) {
	key, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("audit: sealing key: %w", err)
	}
	return NewSealer(key)
}

// Seal returns the hex digest of e, ignoring any existing seal.
func (s *Sealer) Seal(e Entry) (string, error) {
	hasher, err := blake3.NewKeyed(s.key)
	if err != nil {
		return "", err
	}
	ctx, err := json.Marshal(e.Context)
	if err != nil {
		return "", fmt.Errorf("audit: encoding context: %w", err)
	}
	fields := []string{
		e.ID,
		e.Category.String(),
		e.ActorID,
		e.TargetUserID,
		e.CompanyID,
		e.Resource,
		e.Action,
		e.Effect,
		e.ResourceID,
		e.Description,
		string(ctx),
		strconv.FormatBool(e.Success),
		strconv.Itoa(e.RiskScore),
		strconv.Itoa(int(e.Level)),
		e.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	for _, f := range fields {
		// length prefix keeps field boundaries unambiguous
		_, _ = hasher.Write([]byte(strconv.Itoa(len(f))))
		_, _ = hasher.Write([]byte{':'})
		_, _ = hasher.Write([]byte(f))
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// Verify reports whether e still carries the seal computed at write time.
func (s *Sealer) Verify(e Entry) bool {
	if e.Seal == "" {
		return false
	}
	want, err := s.Seal(e)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(want), []byte(e.Seal)) == 1
}
