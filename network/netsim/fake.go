package netsim

import (
	"crypto/ecdsa"
	"encoding/binary"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/params"
)

// FakeKey returns the n-th deterministic test key. The same n always yields
// the same key, so fake accounts are stable across runs.
func FakeKey(n int) *ecdsa.PrivateKey {
	var seed [8]byte
	binary.BigEndian.PutUint64(seed[:], uint64(n))
	key, err := crypto.ToECDSA(crypto.Keccak256([]byte("fakekey"), seed[:]))
	if err != nil {
		panic(err)
	}
	return key
}

// FakeAddress is the address of FakeKey(n).
func FakeAddress(n int) common.Address {
	return crypto.PubkeyToAddress(FakeKey(n).PublicKey)
}

// FakeBalance is the genesis balance of every fake account: 1e9 coins, well
// above the default staking bounds.
var FakeBalance = new(big.Int).Mul(big.NewInt(1e9), big.NewInt(params.Ether))

// NewFakeNet creates a network whose genesis funds FakeAddress(0..accounts-1)
// with FakeBalance each.
func NewFakeNet(accounts int) *Network {
	balances := make(map[common.Address]*big.Int, accounts)
	for i := 0; i < accounts; i++ {
		balances[FakeAddress(i)] = new(big.Int).Set(FakeBalance)
	}
	return New(balances)
}
