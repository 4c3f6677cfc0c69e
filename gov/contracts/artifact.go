package contracts

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ErrUnlinked is returned for bytecode that still carries library placeholders.
var ErrUnlinked = errors.New("bytecode has unlinked libraries")

// Artifact is a deployable contract: its ABI and creation bytecode.
// Builtin artifacts carry no bytecode and can only be deployed on a
// simulated network.
type Artifact struct {
	Name     string
	ABI      abi.ABI
	Bytecode []byte
}

// Source resolves contract names to artifacts.
type Source interface {
	Artifact(name string) (*Artifact, error)
}

// truffleArtifact is the subset of a truffle build/contracts/<Name>.json file we read.
type truffleArtifact struct {
	ContractName string          `json:"contractName"`
	ABI          json.RawMessage `json:"abi"`
	Bytecode     string          `json:"bytecode"`
}

// DirSource loads truffle artifacts from a build directory.
type DirSource struct {
	Dir string
}

// Artifact reads <Dir>/<name>.json.
func (s DirSource) Artifact(name string) (*Artifact, error) {
	path := filepath.Join(s.Dir, name+".json")
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", name, err)
	}
	return ParseArtifact(name, raw)
}

// ParseArtifact decodes a truffle artifact JSON document.
func ParseArtifact(name string, raw []byte) (*Artifact, error) {
	var ta truffleArtifact
	if err := json.Unmarshal(raw, &ta); err != nil {
		return nil, fmt.Errorf("decode artifact %s: %w", name, err)
	}
	if len(ta.ABI) == 0 {
		return nil, fmt.Errorf("artifact %s: missing abi", name)
	}
	parsed, err := abi.JSON(bytes.NewReader(ta.ABI))
	if err != nil {
		return nil, fmt.Errorf("artifact %s: parse abi: %w", name, err)
	}
	code := strings.TrimSpace(ta.Bytecode)
	if strings.Contains(code, "__") {
		return nil, fmt.Errorf("artifact %s: %w", name, ErrUnlinked)
	}
	bytecode := common.FromHex(code)
	if len(bytecode) == 0 {
		return nil, fmt.Errorf("artifact %s: empty bytecode", name)
	}
	return &Artifact{Name: name, ABI: parsed, Bytecode: bytecode}, nil
}

// Builtin serves the embedded ABIs without bytecode.
type Builtin struct{}

func (Builtin) Artifact(name string) (*Artifact, error) {
	parsed, err := ABI(name)
	if err != nil {
		return nil, err
	}
	return &Artifact{Name: name, ABI: parsed}, nil
}

// PackConstructor encodes constructor arguments against the artifact ABI.
func (a *Artifact) PackConstructor(args ...interface{}) ([]byte, error) {
	input, err := a.ABI.Pack("", args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s constructor: %w", a.Name, err)
	}
	return input, nil
}
