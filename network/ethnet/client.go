// Package ethnet implements network.Backend on top of a JSON-RPC node using
// go-ethereum's ethclient and bind packages.
package ethnet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/gov-deployer/gov/contracts"
	"github.com/rony4d/gov-deployer/network"
)

// Config holds the connection settings of one target network.
type Config struct {
	Endpoint string   // http(s), ws(s) or ipc path
	ChainID  *big.Int // nil: ask the node
	GasLimit uint64   // 0: estimate
	GasPrice *big.Int // nil: suggested by the node
}

// Node is the part of a node's API the client uses. *ethclient.Client and
// go-ethereum's simulated backend both satisfy it.
type Node interface {
	bind.ContractBackend
	bind.DeployBackend
}

// Client is a network.Backend bound to one sender key.
type Client struct {
	eth   Node
	cfg   Config
	auth  *bind.TransactOpts
	log   logrus.FieldLogger
	close func()
}

var (
	_ network.Backend = (*Client)(nil)
	_ Node            = (*ethclient.Client)(nil)
)

// Dial connects to cfg.Endpoint and prepares a transactor for key.
func Dial(ctx context.Context, cfg Config, key *ecdsa.PrivateKey, log logrus.FieldLogger) (*Client, error) {
	if key == nil {
		return nil, errors.New("no sender key configured")
	}
	eth, err := ethclient.DialContext(ctx, cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.Endpoint, err)
	}
	chainID := cfg.ChainID
	if chainID == nil {
		if chainID, err = eth.ChainID(ctx); err != nil {
			eth.Close()
			return nil, fmt.Errorf("query chain id: %w", err)
		}
	}
	cfg.ChainID = chainID

	c, err := NewClient(eth, cfg, key, log)
	if err != nil {
		eth.Close()
		return nil, err
	}
	c.close = eth.Close
	return c, nil
}

// NewClient binds key to an already connected node. cfg.ChainID must be set;
// the caller keeps ownership of node.
func NewClient(node Node, cfg Config, key *ecdsa.PrivateKey, log logrus.FieldLogger) (*Client, error) {
	if key == nil {
		return nil, errors.New("no sender key configured")
	}
	if cfg.ChainID == nil {
		return nil, errors.New("no chain id configured")
	}
	auth, err := bind.NewKeyedTransactorWithChainID(key, cfg.ChainID)
	if err != nil {
		return nil, err
	}
	auth.GasLimit = cfg.GasLimit
	auth.GasPrice = cfg.GasPrice

	return &Client{eth: node, cfg: cfg, auth: auth, log: log}, nil
}

// Close releases the RPC connection opened by Dial.
func (c *Client) Close() {
	if c.close != nil {
		c.close()
	}
}

func (c *Client) From() common.Address {
	return c.auth.From
}

// opts returns a per-transaction copy of the transactor.
func (c *Client) opts(ctx context.Context, value *big.Int) *bind.TransactOpts {
	opts := *c.auth
	opts.Context = ctx
	opts.Value = value
	return &opts
}

// Deploy sends the creation transaction, waits for it to be mined and checks
// that code is present at the new address.
func (c *Client) Deploy(ctx context.Context, artifact *contracts.Artifact, args ...interface{}) (common.Address, *types.Receipt, error) {
	if len(artifact.Bytecode) == 0 {
		return common.Address{}, nil, fmt.Errorf("%s: %w", artifact.Name, network.ErrNoBytecode)
	}
	addr, tx, _, err := bind.DeployContract(c.opts(ctx, nil), artifact.ABI, artifact.Bytecode, c.eth, args...)
	if err != nil {
		return common.Address{}, nil, classify(err)
	}
	c.log.WithFields(logrus.Fields{"contract": artifact.Name, "tx": tx.Hash().Hex()}).Debug("Deployment sent")

	receipt, err := c.wait(ctx, tx)
	if err != nil {
		return common.Address{}, receipt, err
	}
	code, err := c.eth.CodeAt(ctx, addr, nil)
	if err != nil {
		return common.Address{}, receipt, fmt.Errorf("check code at %s: %w", addr.Hex(), err)
	}
	if len(code) == 0 {
		return common.Address{}, receipt, bind.ErrNoCodeAfterDeploy
	}
	return addr, receipt, nil
}

// Submit sends raw calldata (and value) to call.To.
func (c *Client) Submit(ctx context.Context, call network.Call) (*types.Receipt, error) {
	bound := bind.NewBoundContract(call.To, abi.ABI{}, c.eth, c.eth, c.eth)
	tx, err := bound.RawTransact(c.opts(ctx, call.Value), call.Data)
	if err != nil {
		return nil, classify(err)
	}
	c.log.WithFields(logrus.Fields{"call": call.Label, "tx": tx.Hash().Hex()}).Debug("Transaction sent")
	return c.wait(ctx, tx)
}

func (c *Client) Query(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	out, err := c.eth.CallContract(ctx, ethereum.CallMsg{From: c.auth.From, To: &to, Data: data}, nil)
	if err != nil {
		return nil, classify(err)
	}
	return out, nil
}

// wait blocks until tx is mined and fails on a reverted receipt.
func (c *Client) wait(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	receipt, err := bind.WaitMined(ctx, c.eth, tx)
	if err != nil {
		return nil, fmt.Errorf("wait for %s: %w", tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("tx %s: %w", tx.Hash().Hex(), network.ErrReverted)
	}
	return receipt, nil
}

// classify maps node error strings to network sentinels.
func classify(err error) error {
	if network.IsRevert(err) && !errors.Is(err, network.ErrReverted) {
		return fmt.Errorf("%w: %v", network.ErrReverted, err)
	}
	return err
}

// LoadKey reads the sender key from a hex string or an encrypted keystore file.
func LoadKey(hexKey, keyFile, passwordFile string) (*ecdsa.PrivateKey, error) {
	if hexKey != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
		if err != nil {
			return nil, fmt.Errorf("parse key: %w", err)
		}
		return key, nil
	}
	if keyFile == "" {
		return nil, errors.New("neither key nor keystore file given")
	}
	blob, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("read keystore: %w", err)
	}
	var password string
	if passwordFile != "" {
		raw, err := os.ReadFile(passwordFile)
		if err != nil {
			return nil, fmt.Errorf("read password file: %w", err)
		}
		password = strings.TrimRight(string(raw), "\r\n")
	}
	k, err := keystore.DecryptKey(blob, password)
	if err != nil {
		return nil, fmt.Errorf("decrypt keystore: %w", err)
	}
	return k.PrivateKey, nil
}
