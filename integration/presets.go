package integration

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/params"
)

// Package integration provides named target-network profiles for the
// deployer. A preset bundles the connection and gas settings of one network
// so operators can pick it with --network instead of repeating flags.
//
// Usage:
//   p := integration.DevelopmentPreset()   // local node on :8545
//   p, err := integration.GetPresetByName("coverage")
//
// Presets are applied on top of the launcher defaults, before config-file
// values and CLI overrides.

// PresetConfig captures the settings that vary across target networks.
// Zero values mean "not set by the preset"; ApplyPreset skips them.
type PresetConfig struct {
	Name     string   // identifier used by --network
	Endpoint string   // JSON-RPC endpoint, empty when it must be supplied
	ChainID  uint64   // 0: ask the node
	GasLimit uint64   // 0: estimate per transaction
	GasPrice *big.Int // nil: node suggestion
}

// DevelopmentPreset targets a local development node.
func DevelopmentPreset() PresetConfig {
	return PresetConfig{
		Name:     "development",
		Endpoint: "http://localhost:8545",
		GasLimit: 7984452,
		GasPrice: big.NewInt(2 * params.GWei),
	}
}

// CoveragePreset targets the instrumented coverage node: effectively
// unlimited gas at the lowest price.
func CoveragePreset() PresetConfig {
	return PresetConfig{
		Name:     "coverage",
		Endpoint: "http://localhost:8555",
		GasLimit: 0xfffffffffff,
		GasPrice: big.NewInt(1),
	}
}

// MetadiumTestnetPreset targets the Metadium test network. The endpoint is
// operator supplied.
func MetadiumTestnetPreset() PresetConfig {
	return PresetConfig{
		Name:    "metadiumTestnet",
		ChainID: 12,
	}
}

// RopstenPreset targets the Ropsten test network. The endpoint is operator
// supplied.
func RopstenPreset() PresetConfig {
	return PresetConfig{
		Name:    "ropsten",
		ChainID: 3,
	}
}

var presets = map[string]func() PresetConfig{
	"development":     DevelopmentPreset,
	"coverage":        CoveragePreset,
	"metadiumTestnet": MetadiumTestnetPreset,
	"ropsten":         RopstenPreset,
}

// PresetNames lists the known presets, sorted.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetPresetByName looks up a preset by its identifier.
//
// Example:
//
//	preset, err := integration.GetPresetByName("development")
//	if err != nil {
//	    log.Fatal(err)
//	}
func GetPresetByName(name string) (PresetConfig, error) {
	mk, ok := presets[name]
	if !ok {
		return PresetConfig{}, fmt.Errorf("unknown network preset: %q (valid: %v)", name, PresetNames())
	}
	return mk(), nil
}

// ApplyPreset merges preset into target. Only the fields the preset sets are
// copied, so unrelated settings already in target survive.
func ApplyPreset(target *PresetConfig, preset PresetConfig) {
	if preset.Endpoint != "" {
		target.Endpoint = preset.Endpoint
	}
	if preset.ChainID != 0 {
		target.ChainID = preset.ChainID
	}
	if preset.GasLimit != 0 {
		target.GasLimit = preset.GasLimit
	}
	if preset.GasPrice != nil {
		target.GasPrice = new(big.Int).Set(preset.GasPrice)
	}
	if preset.Name != "" {
		target.Name = preset.Name
	}
}
