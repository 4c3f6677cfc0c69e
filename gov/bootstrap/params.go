// Package bootstrap defines the one-time initialization parameters applied to
// freshly deployed governance components.
//
// Params is an immutable configuration value: it is built once (defaults,
// config file, CLI), validated, and handed to the orchestrator by value.
// Nothing in the deployer mutates it afterwards.
package bootstrap

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"

	"github.com/rony4d/gov-deployer/gov/contracts"
	"github.com/rony4d/gov-deployer/gov/enode"
)

// ErrInvalid wraps every parameter validation failure.
var ErrInvalid = errors.New("invalid bootstrap parameters")

var validate = validator.New()

// Member identifies the first governance member and how its node can be reached.
type Member struct {
	Name  string   `toml:"name" validate:"required,max=64"`
	Enode enode.ID `toml:"enode"`
	IP    string   `toml:"ip" validate:"required,ip"`
	Port  uint16   `toml:"port" validate:"required"`
}

// Env is the environment-parameter bundle passed to EnvStorageImp.initialize.
// Durations are in seconds, staking bounds and gas price in wei.
type Env struct {
	BlocksPer            idx.Block `toml:"blocks_per"`
	BallotDurationMin    uint64    `toml:"ballot_duration_min" validate:"ltefield=BallotDurationMax"`
	BallotDurationMax    uint64    `toml:"ballot_duration_max"`
	StakingMin           *big.Int  `toml:"staking_min"`
	StakingMax           *big.Int  `toml:"staking_max"`
	GasPrice             *big.Int  `toml:"gas_price"`
	MaxIdleBlockInterval idx.Block `toml:"max_idle_block_interval"`
}

// Params bundles everything the bootstrap step needs.
type Params struct {
	// StakeAmount is both the seed deposit into Staking and the lock amount
	// passed to Gov.init.
	StakeAmount *big.Int `toml:"stake_amount"`
	Member      Member   `toml:"member"`
	Env         Env      `toml:"env"`
}

// Validate checks the local invariants so an invalid bundle never costs a transaction.
func (p Params) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalid, describe(err))
	}
	if p.Member.Enode.Empty() {
		return fmt.Errorf("%w: member enode is required", ErrInvalid)
	}
	for _, f := range []struct {
		name string
		v    *big.Int
	}{
		{"stake amount", p.StakeAmount},
		{"staking min", p.Env.StakingMin},
		{"staking max", p.Env.StakingMax},
		{"gas price", p.Env.GasPrice},
	} {
		if f.v == nil {
			return fmt.Errorf("%w: %s is required", ErrInvalid, f.name)
		}
		if f.v.Sign() < 0 {
			return fmt.Errorf("%w: %s is negative", ErrInvalid, f.name)
		}
	}
	if p.Env.StakingMin.Cmp(p.Env.StakingMax) > 0 {
		return fmt.Errorf("%w: staking min %s exceeds max %s", ErrInvalid, p.Env.StakingMin, p.Env.StakingMax)
	}
	return nil
}

// describe flattens validator errors into one line.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "ltefield":
			msgs = append(msgs, fmt.Sprintf("%s must not exceed %s", fe.Namespace(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

// Copy returns a deep copy.
func (p Params) Copy() Params {
	cp := p
	cp.StakeAmount = copyBig(p.StakeAmount)
	cp.Member.Enode = p.Member.Enode.Copy()
	cp.Env.StakingMin = copyBig(p.Env.StakingMin)
	cp.Env.StakingMax = copyBig(p.Env.StakingMax)
	cp.Env.GasPrice = copyBig(p.Env.GasPrice)
	return cp
}

func copyBig(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}

// EnvInitArgs converts the bundle to the EnvStorageImp.initialize arguments.
func (e Env) EnvInitArgs() contracts.EnvInitArgs {
	return contracts.EnvInitArgs{
		BlocksPer:            new(big.Int).SetUint64(uint64(e.BlocksPer)),
		BallotDurationMin:    new(big.Int).SetUint64(e.BallotDurationMin),
		BallotDurationMax:    new(big.Int).SetUint64(e.BallotDurationMax),
		StakingMin:           copyBig(e.StakingMin),
		StakingMax:           copyBig(e.StakingMax),
		GasPrice:             copyBig(e.GasPrice),
		MaxIdleBlockInterval: new(big.Int).SetUint64(uint64(e.MaxIdleBlockInterval)),
	}
}

// GovInitArgs builds the Gov.init arguments for the given registry and governance logic.
func (p Params) GovInitArgs(registry, implementation common.Address) contracts.GovInitArgs {
	return contracts.GovInitArgs{
		Registry:       registry,
		Implementation: implementation,
		LockAmount:     copyBig(p.StakeAmount),
		Name:           []byte(p.Member.Name),
		Enode:          p.Member.Enode.Copy().Bytes(),
		IP:             []byte(p.Member.IP),
		Port:           new(big.Int).SetUint64(uint64(p.Member.Port)),
	}
}
