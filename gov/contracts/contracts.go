// Package contracts describes the on-chain surfaces of the governance
// components the deployer creates and talks to.
//
// Overview:
//
//	Only the parts of each component's ABI the deployer actually uses are
//	declared here: constructors (so constructor arguments can be packed and
//	checked) and the bootstrap entry points. Business logic of the components
//	(voting, staking accounting, parameter checks) lives on chain and is not
//	modelled.
//
// Components:
//   - Registry: directory of domain name -> address
//   - Staking: payable deposit entry point
//   - BallotStorage: ballot/governance storage
//   - EnvStorageImp / EnvStorage: environment parameter logic and its proxy
//   - GovImp / Gov: governance logic and its proxy
package contracts

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Contract (artifact) names, as produced by the truffle build.
const (
	Registry      = "Registry"
	Staking       = "Staking"
	BallotStorage = "BallotStorage"
	EnvStorageImp = "EnvStorageImp"
	EnvStorage    = "EnvStorage"
	GovImp        = "GovImp"
	Gov           = "Gov"
)

// Names lists every known contract in deployment order.
var Names = []string{Registry, Staking, BallotStorage, EnvStorageImp, EnvStorage, GovImp, Gov}

var (
	// RegistryABI:
	//   - setContractDomain(bytes32 _name, address _addr) returns (bool)
	//   - getContractAddress(bytes32 _name) view returns (address)
	RegistryABI = `[{"inputs":[],"payable":false,"stateMutability":"nonpayable","type":"constructor"},{"constant":false,"inputs":[{"name":"_name","type":"bytes32"},{"name":"_addr","type":"address"}],"name":"setContractDomain","outputs":[{"name":"success","type":"bool"}],"payable":false,"stateMutability":"nonpayable","type":"function"},{"constant":true,"inputs":[{"name":"_name","type":"bytes32"}],"name":"getContractAddress","outputs":[{"name":"addr","type":"address"}],"payable":false,"stateMutability":"view","type":"function"}]`

	// StakingABI:
	//   - constructor(address registry, bytes data)
	//   - deposit() payable
	StakingABI = `[{"inputs":[{"name":"registry","type":"address"},{"name":"data","type":"bytes"}],"payable":false,"stateMutability":"nonpayable","type":"constructor"},{"constant":false,"inputs":[],"name":"deposit","outputs":[],"payable":true,"stateMutability":"payable","type":"function"}]`

	// BallotStorageABI:
	//   - constructor(address _registry)
	BallotStorageABI = `[{"inputs":[{"name":"_registry","type":"address"}],"payable":false,"stateMutability":"nonpayable","type":"constructor"}]`

	// EnvStorageImpABI:
	//   - initialize(uint256 x 7)
	EnvStorageImpABI = `[{"inputs":[],"payable":false,"stateMutability":"nonpayable","type":"constructor"},{"constant":false,"inputs":[{"name":"_blocksPer","type":"uint256"},{"name":"_ballotDurationMin","type":"uint256"},{"name":"_ballotDurationMax","type":"uint256"},{"name":"_stakingMin","type":"uint256"},{"name":"_stakingMax","type":"uint256"},{"name":"_gasPrice","type":"uint256"},{"name":"_maxIdleBlockInterval","type":"uint256"}],"name":"initialize","outputs":[],"payable":false,"stateMutability":"nonpayable","type":"function"}]`

	// EnvStorageABI:
	//   - constructor(address _registry, address _implementation)
	//   - implementation() view returns (address)
	EnvStorageABI = `[{"inputs":[{"name":"_registry","type":"address"},{"name":"_implementation","type":"address"}],"payable":false,"stateMutability":"nonpayable","type":"constructor"},{"constant":true,"inputs":[],"name":"implementation","outputs":[{"name":"","type":"address"}],"payable":false,"stateMutability":"view","type":"function"}]`

	// GovImpABI carries no entry point the deployer calls directly.
	GovImpABI = `[{"inputs":[],"payable":false,"stateMutability":"nonpayable","type":"constructor"}]`

	// GovABI:
	//   - init(address registry, address implementation, uint256 lockAmount,
	//     bytes name, bytes enode, bytes ip, uint256 port)
	//   - implementation() view returns (address)
	GovABI = `[{"inputs":[],"payable":false,"stateMutability":"nonpayable","type":"constructor"},{"constant":false,"inputs":[{"name":"registry","type":"address"},{"name":"implementation","type":"address"},{"name":"lockAmount","type":"uint256"},{"name":"name","type":"bytes"},{"name":"enode","type":"bytes"},{"name":"ip","type":"bytes"},{"name":"port","type":"uint256"}],"name":"init","outputs":[],"payable":false,"stateMutability":"nonpayable","type":"function"},{"constant":true,"inputs":[],"name":"implementation","outputs":[{"name":"","type":"address"}],"payable":false,"stateMutability":"view","type":"function"}]`
)

// builtin holds the parsed ABI of every known contract.
var builtin = map[string]abi.ABI{}

func init() {
	for name, def := range map[string]string{
		Registry:      RegistryABI,
		Staking:       StakingABI,
		BallotStorage: BallotStorageABI,
		EnvStorageImp: EnvStorageImpABI,
		EnvStorage:    EnvStorageABI,
		GovImp:        GovImpABI,
		Gov:           GovABI,
	} {
		parsed, err := abi.JSON(strings.NewReader(def))
		if err != nil {
			panic(fmt.Sprintf("contracts: invalid %s ABI: %v", name, err))
		}
		builtin[name] = parsed
	}
}

// ABI returns the builtin ABI of the named contract.
func ABI(name string) (abi.ABI, error) {
	parsed, ok := builtin[name]
	if !ok {
		return abi.ABI{}, fmt.Errorf("unknown contract %q", name)
	}
	return parsed, nil
}

// MustABI is like ABI but panics on unknown names.
func MustABI(name string) abi.ABI {
	parsed, err := ABI(name)
	if err != nil {
		panic(err)
	}
	return parsed
}
