// Package enode handles the node identifier a governance member advertises:
// the 64-byte uncompressed secp256k1 public key found in enode:// URLs, without
// the 0x04 prefix. Keys can be converted between their binary, hex string and
// object representations.
package enode

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Size is the length in bytes of a raw node ID.
const Size = 64

// ErrEmpty is returned when parsing an empty node ID.
var ErrEmpty = errors.New("empty enode")

// ID is a node public key as carried in enode URLs.
type ID struct {
	Raw []byte
}

// Empty reports whether the ID is uninitialized.
func (id ID) Empty() bool {
	return len(id.Raw) == 0
}

// String returns the ID as a 0x-prefixed hex string.
func (id ID) String() string {
	return "0x" + common.Bytes2Hex(id.Raw)
}

// Bytes returns the raw key bytes.
func (id ID) Bytes() []byte {
	return id.Raw
}

// Copy returns a deep copy; Raw is a slice and would otherwise be shared.
func (id ID) Copy() ID {
	return ID{Raw: common.CopyBytes(id.Raw)}
}

// PubKey returns the ECDSA public key. It fails when the point is not on the curve.
func (id ID) PubKey() (*ecdsa.PublicKey, error) {
	return crypto.UnmarshalPubkey(append([]byte{0x04}, id.Raw...))
}

// FromPubKey builds the ID of a public key.
func FromPubKey(pub *ecdsa.PublicKey) ID {
	return ID{Raw: crypto.FromECDSAPub(pub)[1:]}
}

// FromString parses a hex string, with or without 0x prefix.
func FromString(str string) (ID, error) {
	return FromBytes(common.FromHex(str))
}

// FromBytes validates length and curve membership of b.
func FromBytes(b []byte) (ID, error) {
	if len(b) == 0 {
		return ID{}, ErrEmpty
	}
	if len(b) != Size {
		return ID{}, fmt.Errorf("enode must be %d bytes, got %d", Size, len(b))
	}
	id := ID{Raw: common.CopyBytes(b)}
	if _, err := id.PubKey(); err != nil {
		return ID{}, fmt.Errorf("invalid enode: %w", err)
	}
	return id, nil
}

// MarshalText implements encoding.TextMarshaler.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler; used by the TOML config and JSON.
func (id *ID) UnmarshalText(input []byte) error {
	res, err := FromString(string(input))
	if err != nil {
		return err
	}
	*id = res
	return nil
}
