// Package manifest persists the addresses of a finished deployment for
// downstream tooling. The manifest is a convenience cache; the network state
// stays authoritative.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"
)

// DefaultPath is where the manifest is written unless configured otherwise.
const DefaultPath = "contracts.json"

// Manifest is the snapshot of the final addresses.
type Manifest struct {
	Registry      common.Address `json:"REGISTRY_ADDRESS"`
	Staking       common.Address `json:"STAKING_ADDRESS"`
	EnvStorage    common.Address `json:"ENV_STORAGE_ADDRESS"`
	BallotStorage common.Address `json:"BALLOT_STORAGE_ADDRESS"`
	Gov           common.Address `json:"GOV_ADDRESS"`
}

// Keys lists the manifest keys in file order.
var Keys = []string{
	"REGISTRY_ADDRESS",
	"STAKING_ADDRESS",
	"ENV_STORAGE_ADDRESS",
	"BALLOT_STORAGE_ADDRESS",
	"GOV_ADDRESS",
}

// Validate fails on the first missing address, in Keys order.
func (m Manifest) Validate() error {
	entries := m.Entries()
	for _, key := range Keys {
		if entries[key] == (common.Address{}) {
			return fmt.Errorf("manifest: %s is empty", key)
		}
	}
	return nil
}

// Entries returns the manifest as key -> address.
func (m Manifest) Entries() map[string]common.Address {
	return map[string]common.Address{
		"REGISTRY_ADDRESS":       m.Registry,
		"STAKING_ADDRESS":        m.Staking,
		"ENV_STORAGE_ADDRESS":    m.EnvStorage,
		"BALLOT_STORAGE_ADDRESS": m.BallotStorage,
		"GOV_ADDRESS":            m.Gov,
	}
}

// Writer persists a manifest.
type Writer interface {
	Write(m Manifest) error
}

// File writes the manifest as JSON at Path, replacing any previous one.
type File struct {
	Path string
}

// Write replaces the file atomically: the manifest goes to a temporary file
// in the same directory which is then renamed over Path.
func (f File) Write(m Manifest) error {
	if f.Path == "" {
		return errors.New("manifest: no path")
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(f.Path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.Path)+".*")
	if err != nil {
		return fmt.Errorf("manifest: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("manifest: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("manifest: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("manifest: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.Path); err != nil {
		return fmt.Errorf("manifest: %w", err)
	}
	return nil
}

// Stream writes the manifest as indented JSON to W.
type Stream struct {
	W io.Writer
}

func (s Stream) Write(m Manifest) error {
	enc := json.NewEncoder(s.W)
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}

// Read loads a manifest from path.
func Read(path string) (Manifest, error) {
	var m Manifest
	raw, err := os.ReadFile(path)
	if err != nil {
		return m, err
	}
	if err := json.Unmarshal(raw, &m); err != nil {
		return m, fmt.Errorf("manifest %s: %w", path, err)
	}
	return m, nil
}
