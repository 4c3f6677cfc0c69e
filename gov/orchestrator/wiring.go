package orchestrator

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/gov-deployer/gov/contracts"
	"github.com/rony4d/gov-deployer/network"
)

// Registry domain names.
const (
	DomainStaking       = "Staking"
	DomainBallotStorage = "BallotStorage"
	DomainEnvStorage    = "EnvStorage"
	DomainGovernance    = "GovernanceContract"
	DomainMaintenance   = "Maintenance"
	DomainRewardPool    = "RewardPool"
)

// Operators are the externally supplied identities registered next to the
// deployed components.
type Operators struct {
	Maintenance common.Address
	RewardPool  common.Address
}

// Validate rejects missing operator addresses.
func (o Operators) Validate() error {
	if o.Maintenance == (common.Address{}) {
		return fmt.Errorf("%w: maintenance address is required", ErrInvalidParams)
	}
	if o.RewardPool == (common.Address{}) {
		return fmt.Errorf("%w: reward pool address is required", ErrInvalidParams)
	}
	return nil
}

// RegistryEntry maps a domain to the address registered for it.
type RegistryEntry struct {
	Domain  string
	Address common.Address
}

// Entries lists the registrations of a full run, in submission order.
func Entries(set *DeploymentSet, ops Operators) []RegistryEntry {
	return []RegistryEntry{
		{DomainStaking, set.Address(Staking)},
		{DomainBallotStorage, set.Address(BallotStorage)},
		{DomainEnvStorage, set.Address(EnvStorage)},
		{DomainGovernance, set.Address(Gov)},
		{DomainMaintenance, ops.Maintenance},
		{DomainRewardPool, ops.RewardPool},
	}
}

// Resolver looks up peers by domain name.
type Resolver interface {
	Resolve(ctx context.Context, domain string) (common.Address, error)
}

// RegistryResolver resolves domains through the deployed registry.
type RegistryResolver struct {
	Backend  network.Backend
	Registry common.Address
}

func (r RegistryResolver) Resolve(ctx context.Context, domain string) (common.Address, error) {
	data, err := contracts.PackGetContractAddress(domain)
	if err != nil {
		return common.Address{}, err
	}
	out, err := r.Backend.Query(ctx, r.Registry, data)
	if err != nil {
		return common.Address{}, fmt.Errorf("resolve %s: %w", domain, err)
	}
	return contracts.UnpackAddress(contracts.Registry, contracts.MethodGetContractAddress, out)
}

// Wire registers every entry in the registry and reads each one back.
// Registering the same domain again overwrites the previous address, so
// wiring the same set twice leaves the registry as wiring it once.
func (o *Orchestrator) Wire(ctx context.Context, set *DeploymentSet) error {
	registry, ok := set.Get(Registry)
	if !ok {
		return stepError("wire", ErrWiring, set, fmt.Errorf("registry is not deployed"))
	}
	entries := Entries(set, o.cfg.Operators)
	for _, e := range entries {
		step := "wire:" + e.Domain
		if e.Address == (common.Address{}) {
			return stepError(step, ErrWiring, set, fmt.Errorf("no address for %s", e.Domain))
		}
		data, err := contracts.PackSetContractDomain(e.Domain, e.Address)
		if err != nil {
			return stepError(step, ErrWiring, set, err)
		}
		if _, err := o.cfg.Backend.Submit(ctx, network.Call{Label: step, To: registry.Address, Data: data}); err != nil {
			return stepError(step, ErrWiring, set, err)
		}
		o.log.WithFields(logrus.Fields{"step": step, "address": e.Address.Hex()}).Info("Registered domain")
	}

	resolver := o.resolver(set)
	for _, e := range entries {
		got, err := resolver.Resolve(ctx, e.Domain)
		if err != nil {
			return stepError("verify:"+e.Domain, ErrWiring, set, err)
		}
		if got != e.Address {
			return stepError("verify:"+e.Domain, ErrWiring, set,
				fmt.Errorf("registry resolves %s to %s, want %s", e.Domain, got.Hex(), e.Address.Hex()))
		}
	}
	return nil
}

func (o *Orchestrator) resolver(set *DeploymentSet) Resolver {
	if o.cfg.Resolver != nil {
		return o.cfg.Resolver
	}
	return RegistryResolver{Backend: o.cfg.Backend, Registry: set.Address(Registry)}
}
