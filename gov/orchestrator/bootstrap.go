package orchestrator

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/gov-deployer/gov/contracts"
	"github.com/rony4d/gov-deployer/network"
)

// Bootstrap step names.
const (
	StepDeposit     = "bootstrap:staking-deposit"
	StepGovInit     = "bootstrap:gov-init"
	StepEnvInit     = "bootstrap:env-initialize"
	StepVerifyProxy = "bootstrap:verify-proxies"
)

// Bootstrap runs the three one-time calls in their reference order and then
// checks that every proxy points at its logic component.
func (o *Orchestrator) Bootstrap(ctx context.Context, set *DeploymentSet) error {
	for _, step := range []func(context.Context, *DeploymentSet) error{
		o.DepositStake,
		o.InitGovernance,
		o.InitEnvironment,
		o.VerifyProxies,
	} {
		if err := step(ctx, set); err != nil {
			return err
		}
	}
	return nil
}

// DepositStake seeds the staking contract from the funding identity. The
// target is resolved through the registry, so staking must be registered.
func (o *Orchestrator) DepositStake(ctx context.Context, set *DeploymentSet) error {
	staking, err := o.resolver(set).Resolve(ctx, DomainStaking)
	if err != nil {
		return stepError(StepDeposit, ErrBootstrap, set, err)
	}
	if staking == (common.Address{}) {
		return stepError(StepDeposit, ErrBootstrap, set, fmt.Errorf("%s is not registered", DomainStaking))
	}
	if want := set.Address(Staking); staking != want {
		return stepError(StepDeposit, ErrWiring, set, fmt.Errorf("registry resolves %s to %s, deployed %s", DomainStaking, staking.Hex(), want.Hex()))
	}
	data, err := contracts.PackDeposit()
	if err != nil {
		return stepError(StepDeposit, ErrBootstrap, set, err)
	}
	amount := o.cfg.Params.StakeAmount
	if _, err := o.funder().Submit(ctx, network.Call{Label: StepDeposit, To: staking, Value: amount, Data: data}); err != nil {
		return stepError(StepDeposit, ErrBootstrap, set, err)
	}
	o.log.WithFields(logrus.Fields{"step": StepDeposit, "from": o.funder().From().Hex(), "amount": amount}).Info("Staking deposit done")
	return nil
}

// InitGovernance calls Gov.init once. A revert is reported as
// ErrBootstrapRejected and is never retried.
func (o *Orchestrator) InitGovernance(ctx context.Context, set *DeploymentSet) error {
	gov, ok1 := set.Get(Gov)
	govImp, ok2 := set.Get(GovImp)
	registry, ok3 := set.Get(Registry)
	if !ok1 || !ok2 || !ok3 {
		return stepError(StepGovInit, ErrBootstrap, set, fmt.Errorf("governance components are not deployed"))
	}
	data, err := contracts.PackGovInit(o.cfg.Params.GovInitArgs(registry.Address, govImp.Address))
	if err != nil {
		return stepError(StepGovInit, ErrBootstrap, set, err)
	}
	if _, err := o.cfg.Backend.Submit(ctx, network.Call{Label: StepGovInit, To: gov.Address, Data: data}); err != nil {
		return stepError(StepGovInit, bootstrapKind(err), set, err)
	}
	o.log.WithFields(logrus.Fields{
		"step":  StepGovInit,
		"name":  o.cfg.Params.Member.Name,
		"ip":    o.cfg.Params.Member.IP,
		"port":  o.cfg.Params.Member.Port,
		"enode": o.cfg.Params.Member.Enode.String(),
	}).Info("Governance initialized")
	return nil
}

// InitEnvironment validates the parameter bundle locally and then calls
// initialize through the EnvStorage proxy.
func (o *Orchestrator) InitEnvironment(ctx context.Context, set *DeploymentSet) error {
	if err := o.cfg.Params.Validate(); err != nil {
		return stepError(StepEnvInit, ErrInvalidParams, set, err)
	}
	env, ok := set.Get(EnvStorage)
	if !ok {
		return stepError(StepEnvInit, ErrBootstrap, set, fmt.Errorf("%s is not deployed", EnvStorage))
	}
	data, err := contracts.PackEnvInitialize(o.cfg.Params.Env.EnvInitArgs())
	if err != nil {
		return stepError(StepEnvInit, ErrBootstrap, set, err)
	}
	if _, err := o.cfg.Backend.Submit(ctx, network.Call{Label: StepEnvInit, To: env.Address, Data: data}); err != nil {
		return stepError(StepEnvInit, bootstrapKind(err), set, err)
	}
	p := o.cfg.Params.Env
	o.log.WithFields(logrus.Fields{
		"step":        StepEnvInit,
		"blocksPer":   p.BlocksPer,
		"ballotMin":   p.BallotDurationMin,
		"ballotMax":   p.BallotDurationMax,
		"stakingMin":  p.StakingMin,
		"stakingMax":  p.StakingMax,
		"gasPrice":    p.GasPrice,
		"maxIdleBlks": p.MaxIdleBlockInterval,
	}).Info("Environment initialized")
	return nil
}

// VerifyProxies reads implementation() on every proxy and compares it to the
// deployed logic component.
func (o *Orchestrator) VerifyProxies(ctx context.Context, set *DeploymentSet) error {
	for _, rel := range set.Proxies() {
		proxy, _ := set.Get(rel.Proxy)
		data, err := contracts.PackImplementation(proxy.Contract)
		if err != nil {
			return stepError(StepVerifyProxy, ErrBootstrap, set, err)
		}
		out, err := o.cfg.Backend.Query(ctx, proxy.Address, data)
		if err != nil {
			return stepError(StepVerifyProxy, ErrBootstrap, set, err)
		}
		logic, err := contracts.UnpackAddress(proxy.Contract, contracts.MethodImplementation, out)
		if err != nil {
			return stepError(StepVerifyProxy, ErrBootstrap, set, err)
		}
		if want := set.Address(rel.Logic); logic != want {
			return stepError(StepVerifyProxy, ErrBootstrap, set,
				fmt.Errorf("%s points at %s, want %s (%s)", rel.Proxy, logic.Hex(), rel.Logic, want.Hex()))
		}
		o.log.WithFields(logrus.Fields{"proxy": rel.Proxy, "logic": rel.Logic, "binding": rel.Binding}).Debug("Proxy verified")
	}
	return nil
}

// bootstrapKind classifies a failed one-time initializer.
func bootstrapKind(err error) error {
	if network.IsRevert(err) {
		return ErrBootstrapRejected
	}
	return ErrBootstrap
}

func (o *Orchestrator) funder() network.Backend {
	if o.cfg.Funder != nil {
		return o.cfg.Funder
	}
	return o.cfg.Backend
}
