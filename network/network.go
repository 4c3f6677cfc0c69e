// Package network defines the connection the deployer submits transactions
// through. Implementations block until each transaction is mined; transient
// retries, if any, belong to the implementation and never to its callers.
package network

import (
	"context"
	"errors"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/rony4d/gov-deployer/gov/contracts"
)

var (
	// ErrReverted marks a transaction or call rejected by the EVM.
	ErrReverted = errors.New("execution reverted")

	// ErrNoBytecode is returned when deploying an artifact without creation code.
	ErrNoBytecode = errors.New("artifact has no bytecode")
)

// Call is a state-changing transaction against a deployed contract.
type Call struct {
	Label string // human readable, for logs and errors
	To    common.Address
	Value *big.Int
	Data  []byte
}

// Backend submits transactions on behalf of a single sender.
type Backend interface {
	// From is the sender identity.
	From() common.Address

	// Deploy creates a contract and blocks until it is live.
	Deploy(ctx context.Context, artifact *contracts.Artifact, args ...interface{}) (common.Address, *types.Receipt, error)

	// Submit sends a call and blocks until it is mined successfully.
	Submit(ctx context.Context, call Call) (*types.Receipt, error)

	// Query performs a read-only call at the latest block.
	Query(ctx context.Context, to common.Address, data []byte) ([]byte, error)
}

// IsRevert reports whether err is (or looks like) an EVM revert. Node
// implementations surface reverts during gas estimation as plain strings.
func IsRevert(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrReverted) {
		return true
	}
	return strings.Contains(err.Error(), ErrReverted.Error())
}
