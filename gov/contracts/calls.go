package contracts

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Method names used by the deployer.
const (
	MethodSetContractDomain  = "setContractDomain"
	MethodGetContractAddress = "getContractAddress"
	MethodDeposit            = "deposit"
	MethodInit               = "init"
	MethodInitialize         = "initialize"
	MethodImplementation     = "implementation"
)

// DomainKey encodes a registry domain name as a right-padded bytes32.
func DomainKey(name string) ([32]byte, error) {
	var key [32]byte
	if len(name) == 0 || len(name) > len(key) {
		return key, fmt.Errorf("domain name %q must be 1..32 bytes", name)
	}
	copy(key[:], name)
	return key, nil
}

// DomainName decodes a bytes32 domain key back to its string form.
func DomainName(key [32]byte) string {
	n := len(key)
	for n > 0 && key[n-1] == 0 {
		n--
	}
	return string(key[:n])
}

// PackSetContractDomain encodes Registry.setContractDomain(name, addr).
func PackSetContractDomain(name string, addr common.Address) ([]byte, error) {
	key, err := DomainKey(name)
	if err != nil {
		return nil, err
	}
	return builtin[Registry].Pack(MethodSetContractDomain, key, addr)
}

// PackGetContractAddress encodes Registry.getContractAddress(name).
func PackGetContractAddress(name string) ([]byte, error) {
	key, err := DomainKey(name)
	if err != nil {
		return nil, err
	}
	return builtin[Registry].Pack(MethodGetContractAddress, key)
}

// UnpackAddress decodes a single address return value of method on contract.
func UnpackAddress(contract, method string, data []byte) (common.Address, error) {
	parsed, err := ABI(contract)
	if err != nil {
		return common.Address{}, err
	}
	out, err := parsed.Unpack(method, data)
	if err != nil {
		return common.Address{}, fmt.Errorf("unpack %s.%s: %w", contract, method, err)
	}
	if len(out) != 1 {
		return common.Address{}, fmt.Errorf("unpack %s.%s: %d values", contract, method, len(out))
	}
	addr, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("unpack %s.%s: unexpected %T", contract, method, out[0])
	}
	return addr, nil
}

// PackDeposit encodes Staking.deposit().
func PackDeposit() ([]byte, error) {
	return builtin[Staking].Pack(MethodDeposit)
}

// GovInitArgs are the arguments of Gov.init.
type GovInitArgs struct {
	Registry       common.Address
	Implementation common.Address
	LockAmount     *big.Int
	Name           []byte
	Enode          []byte
	IP             []byte
	Port           *big.Int
}

// PackGovInit encodes Gov.init.
func PackGovInit(a GovInitArgs) ([]byte, error) {
	return builtin[Gov].Pack(MethodInit, a.Registry, a.Implementation, a.LockAmount, a.Name, a.Enode, a.IP, a.Port)
}

// EnvInitArgs are the arguments of EnvStorageImp.initialize.
type EnvInitArgs struct {
	BlocksPer            *big.Int
	BallotDurationMin    *big.Int
	BallotDurationMax    *big.Int
	StakingMin           *big.Int
	StakingMax           *big.Int
	GasPrice             *big.Int
	MaxIdleBlockInterval *big.Int
}

// PackEnvInitialize encodes EnvStorageImp.initialize. The call is sent to the
// EnvStorage proxy, which forwards it to its implementation.
func PackEnvInitialize(a EnvInitArgs) ([]byte, error) {
	return builtin[EnvStorageImp].Pack(MethodInitialize,
		a.BlocksPer,
		a.BallotDurationMin,
		a.BallotDurationMax,
		a.StakingMin,
		a.StakingMax,
		a.GasPrice,
		a.MaxIdleBlockInterval,
	)
}

// PackImplementation encodes implementation() on a proxy contract.
func PackImplementation(proxy string) ([]byte, error) {
	parsed, err := ABI(proxy)
	if err != nil {
		return nil, err
	}
	return parsed.Pack(MethodImplementation)
}
