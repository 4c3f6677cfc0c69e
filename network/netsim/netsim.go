// Package netsim is an in-memory network that emulates the bootstrap
// behaviour of the governance contracts closely enough to exercise a full
// deployment without a node.
//
// Emulated behaviour:
//   - contract addresses derive from sender and nonce, as on chain
//   - constructor arguments are packed and checked against the artifact ABI;
//     address arguments must reference contracts already deployed
//   - Registry.setContractDomain / getContractAddress (owner only, last write wins)
//   - Staking.deposit moves value out of the sender balance
//   - Gov.init and EnvStorageImp.initialize (through the EnvStorage proxy)
//     succeed once and revert afterwards
//   - implementation() on proxies returns the current logic address
//
// Faults can be injected per contract (deploy) or per method (call).
package netsim

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/rony4d/gov-deployer/gov/contracts"
	"github.com/rony4d/gov-deployer/network"
)

// ErrInsufficientFunds mirrors the node error for an unaffordable value transfer.
var ErrInsufficientFunds = errors.New("insufficient funds for gas * price + value")

// Tx records one submission, successful or not.
type Tx struct {
	From     common.Address
	To       common.Address // zero for deployments
	Contract string         // deployed artifact name, deployments only
	Method   string         // called method, calls only
	Label    string
	Value    *big.Int
	Err      error
}

type contract struct {
	name        string
	abi         abi.ABI
	owner       common.Address
	logic       common.Address // proxies only
	initialized bool
	domains     map[[32]byte]common.Address
	deposits    map[common.Address]*big.Int
	initArgs    []interface{}
}

// Network is the shared simulated chain state.
type Network struct {
	mu         sync.Mutex
	block      uint64
	nonces     map[common.Address]uint64
	balances   map[common.Address]*big.Int
	contracts  map[common.Address]*contract
	failDeploy map[string]error
	failCall   map[string]error
	history    []Tx
}

// New creates a network with the given genesis balances.
func New(balances map[common.Address]*big.Int) *Network {
	n := &Network{
		nonces:     make(map[common.Address]uint64),
		balances:   make(map[common.Address]*big.Int),
		contracts:  make(map[common.Address]*contract),
		failDeploy: make(map[string]error),
		failCall:   make(map[string]error),
	}
	for addr, b := range balances {
		n.balances[addr] = new(big.Int).Set(b)
	}
	return n
}

// FailDeploy makes every deployment of the named contract fail with err.
func (n *Network) FailDeploy(contract string, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failDeploy[contract] = err
}

// FailCall makes every call to method fail with err.
func (n *Network) FailCall(method string, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failCall[method] = err
}

// Backend returns a sender bound to from.
func (n *Network) Backend(from common.Address) *Sender {
	return &Sender{net: n, from: from}
}

// History returns a copy of all submissions so far.
func (n *Network) History() []Tx {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Tx(nil), n.history...)
}

// Balance returns the balance of addr.
func (n *Network) Balance(addr common.Address) *big.Int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return new(big.Int).Set(n.balanceOf(addr))
}

// ContractAt returns the artifact name deployed at addr.
func (n *Network) ContractAt(addr common.Address) (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	c, ok := n.contracts[addr]
	if !ok {
		return "", false
	}
	return c.name, true
}

// Domains returns the registry directory at registry keyed by domain name.
func (n *Network) Domains(registry common.Address) map[string]common.Address {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make(map[string]common.Address)
	if c, ok := n.contracts[registry]; ok {
		for k, v := range c.domains {
			out[contracts.DomainName(k)] = v
		}
	}
	return out
}

// Deposited returns the amount depositor has put into the staking contract.
func (n *Network) Deposited(staking, depositor common.Address) *big.Int {
	n.mu.Lock()
	defer n.mu.Unlock()
	if c, ok := n.contracts[staking]; ok && c.deposits[depositor] != nil {
		return new(big.Int).Set(c.deposits[depositor])
	}
	return new(big.Int)
}

// Initialized reports whether the one-shot initializer at addr has run, and its arguments.
func (n *Network) Initialized(addr common.Address) (bool, []interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	c, ok := n.contracts[addr]
	if !ok {
		return false, nil
	}
	return c.initialized, append([]interface{}(nil), c.initArgs...)
}

func (n *Network) balanceOf(addr common.Address) *big.Int {
	b, ok := n.balances[addr]
	if !ok {
		b = new(big.Int)
		n.balances[addr] = b
	}
	return b
}

// receipt advances the block and builds a successful receipt for from's current nonce.
func (n *Network) receipt(from common.Address, created common.Address) *types.Receipt {
	var nonce [8]byte
	binary.BigEndian.PutUint64(nonce[:], n.nonces[from])
	n.nonces[from]++
	n.block++
	return &types.Receipt{
		Status:          types.ReceiptStatusSuccessful,
		TxHash:          crypto.Keccak256Hash(from.Bytes(), nonce[:]),
		ContractAddress: created,
		BlockNumber:     new(big.Int).SetUint64(n.block),
	}
}

func revert(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", network.ErrReverted, fmt.Sprintf(format, args...))
}

// Sender is a network.Backend for one account of a Network.
type Sender struct {
	net  *Network
	from common.Address
}

var _ network.Backend = (*Sender)(nil)

func (s *Sender) From() common.Address {
	return s.from
}

func (s *Sender) Deploy(_ context.Context, artifact *contracts.Artifact, args ...interface{}) (common.Address, *types.Receipt, error) {
	n := s.net
	n.mu.Lock()
	defer n.mu.Unlock()

	tx := Tx{From: s.from, Contract: artifact.Name, Label: "deploy " + artifact.Name}
	addr, receipt, err := n.deploy(s.from, artifact, args)
	tx.Err = err
	n.history = append(n.history, tx)
	return addr, receipt, err
}

func (n *Network) deploy(from common.Address, artifact *contracts.Artifact, args []interface{}) (common.Address, *types.Receipt, error) {
	if err := n.failDeploy[artifact.Name]; err != nil {
		return common.Address{}, nil, err
	}
	input, err := artifact.PackConstructor(args...)
	if err != nil {
		return common.Address{}, nil, err
	}
	values, err := artifact.ABI.Constructor.Inputs.Unpack(input)
	if err != nil {
		return common.Address{}, nil, err
	}
	for _, v := range values {
		if ref, ok := v.(common.Address); ok {
			if _, known := n.contracts[ref]; !known {
				return common.Address{}, nil, revert("%s constructor references unknown contract %s", artifact.Name, ref.Hex())
			}
		}
	}

	parsed, err := contracts.ABI(artifact.Name)
	if err != nil {
		parsed = artifact.ABI
	}
	c := &contract{
		name:     artifact.Name,
		abi:      parsed,
		owner:    from,
		domains:  make(map[[32]byte]common.Address),
		deposits: make(map[common.Address]*big.Int),
	}
	if artifact.Name == contracts.EnvStorage {
		c.logic = values[1].(common.Address)
	}

	addr := crypto.CreateAddress(from, n.nonces[from])
	n.contracts[addr] = c
	return addr, n.receipt(from, addr), nil
}

func (s *Sender) Submit(_ context.Context, call network.Call) (*types.Receipt, error) {
	n := s.net
	n.mu.Lock()
	defer n.mu.Unlock()

	tx := Tx{From: s.from, To: call.To, Label: call.Label, Value: call.Value}
	receipt, method, err := n.submit(s.from, call)
	tx.Method, tx.Err = method, err
	n.history = append(n.history, tx)
	return receipt, err
}

// resolve finds the method called by data on c, delegating to the logic
// contract when c is a proxy that does not declare it.
func (n *Network) resolve(c *contract, data []byte) (*abi.Method, error) {
	if len(data) < 4 {
		return nil, revert("%s: missing selector", c.name)
	}
	if m, err := c.abi.MethodById(data[:4]); err == nil {
		return m, nil
	}
	if logic, ok := n.contracts[c.logic]; ok {
		if m, err := logic.abi.MethodById(data[:4]); err == nil {
			return m, nil
		}
	}
	return nil, revert("%s: unknown selector %x", c.name, data[:4])
}

func (n *Network) submit(from common.Address, call network.Call) (*types.Receipt, string, error) {
	c, ok := n.contracts[call.To]
	if !ok {
		return nil, "", fmt.Errorf("no contract at %s", call.To.Hex())
	}
	m, err := n.resolve(c, call.Data)
	if err != nil {
		return nil, "", err
	}
	if err := n.failCall[m.Name]; err != nil {
		return nil, m.Name, err
	}
	args, err := m.Inputs.Unpack(call.Data[4:])
	if err != nil {
		return nil, m.Name, revert("%s.%s: %v", c.name, m.Name, err)
	}

	value := new(big.Int)
	if call.Value != nil {
		value.Set(call.Value)
	}
	if value.Sign() > 0 && !m.IsPayable() {
		return nil, m.Name, revert("%s.%s is not payable", c.name, m.Name)
	}
	if n.balanceOf(from).Cmp(value) < 0 {
		return nil, m.Name, ErrInsufficientFunds
	}

	switch m.Name {
	case contracts.MethodSetContractDomain:
		if from != c.owner {
			return nil, m.Name, revert("registry: caller is not the owner")
		}
		c.domains[args[0].([32]byte)] = args[1].(common.Address)
	case contracts.MethodDeposit:
		if value.Sign() == 0 {
			return nil, m.Name, revert("staking: zero deposit")
		}
		if c.deposits[from] == nil {
			c.deposits[from] = new(big.Int)
		}
		c.deposits[from].Add(c.deposits[from], value)
	case contracts.MethodInit:
		if from != c.owner {
			return nil, m.Name, revert("gov: caller is not the owner")
		}
		if c.initialized {
			return nil, m.Name, revert("gov: already initialized")
		}
		c.logic = args[1].(common.Address)
		c.initialized, c.initArgs = true, args
	case contracts.MethodInitialize:
		if c.initialized {
			return nil, m.Name, revert("%s: already initialized", c.name)
		}
		c.initialized, c.initArgs = true, args
	default:
		return nil, m.Name, revert("%s.%s is not emulated", c.name, m.Name)
	}

	n.balanceOf(from).Sub(n.balanceOf(from), value)
	n.balanceOf(call.To).Add(n.balanceOf(call.To), value)
	return n.receipt(from, common.Address{}), m.Name, nil
}

func (s *Sender) Query(_ context.Context, to common.Address, data []byte) ([]byte, error) {
	n := s.net
	n.mu.Lock()
	defer n.mu.Unlock()

	c, ok := n.contracts[to]
	if !ok {
		// calls to accounts without code succeed with empty output
		return nil, nil
	}
	m, err := n.resolve(c, data)
	if err != nil {
		return nil, err
	}
	args, err := m.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, revert("%s.%s: %v", c.name, m.Name, err)
	}
	switch m.Name {
	case contracts.MethodGetContractAddress:
		return m.Outputs.Pack(c.domains[args[0].([32]byte)])
	case contracts.MethodImplementation:
		return m.Outputs.Pack(c.logic)
	}
	return nil, revert("%s.%s is not a view", c.name, m.Name)
}
