// Package orchestrator deploys the governance components, wires them into
// the registry, bootstraps them and writes the address manifest.
//
// A run is a strictly sequential pipeline:
//
//	Start → Deploying → Wiring → Bootstrapping → WritingManifest → Done
//
// The first unrecoverable error moves the run to Failed. Nothing is retried:
// resubmitting a deployment could leave duplicate live components, and the
// bootstrap initializers are single-use. Every failure carries the step name
// and the components deployed so far so an operator can resume by hand.
//
// Only one run may target a given network state at a time.
package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/gov-deployer/gov/bootstrap"
	"github.com/rony4d/gov-deployer/gov/contracts"
	"github.com/rony4d/gov-deployer/gov/manifest"
	"github.com/rony4d/gov-deployer/network"
)

// Config wires an Orchestrator to its collaborators.
type Config struct {
	// Backend deploys, owns and configures every component.
	Backend network.Backend
	// Funder sends the staking seed deposit. Defaults to Backend.
	Funder network.Backend
	// Resolver overrides the registry-backed peer lookup.
	Resolver Resolver

	Artifacts contracts.Source
	Operators Operators
	Params    bootstrap.Params
	Manifest  manifest.Writer

	Log logrus.FieldLogger
}

// Result describes a finished run.
type Result struct {
	RunID    string
	State    State
	Set      *DeploymentSet
	Manifest manifest.Manifest
	// Trace lists every state the run went through, starting with Start.
	Trace []State
}

// Orchestrator performs deployment runs.
type Orchestrator struct {
	cfg Config
	log logrus.FieldLogger
}

// New checks cfg and builds an Orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Backend == nil {
		return nil, errors.New("orchestrator: no network backend")
	}
	if cfg.Artifacts == nil {
		return nil, errors.New("orchestrator: no artifact source")
	}
	if cfg.Manifest == nil {
		return nil, errors.New("orchestrator: no manifest writer")
	}
	if cfg.Log == nil {
		cfg.Log = logrus.StandardLogger()
	}
	cfg.Params = cfg.Params.Copy()
	return &Orchestrator{cfg: cfg, log: cfg.Log}, nil
}

// Deploy creates every planned component in dependency order, adding each
// to set as soon as it is live. It stops at the first failure.
func (o *Orchestrator) Deploy(ctx context.Context, set *DeploymentSet) error {
	for _, c := range Components {
		step := "deploy:" + string(c.Name)
		artifact, err := o.cfg.Artifacts.Artifact(c.Contract)
		if err != nil {
			return stepError(step, ErrDeployment, set, err)
		}
		args, err := set.constructorArgs(c)
		if err != nil {
			return stepError(step, ErrDeployment, set, err)
		}
		addr, receipt, err := o.cfg.Backend.Deploy(ctx, artifact, args...)
		if err != nil {
			return stepError(step, ErrDeployment, set, err)
		}
		if err := set.Add(c.Name, addr, receipt); err != nil {
			return stepError(step, ErrDeployment, set, err)
		}
		fields := logrus.Fields{"step": step, "address": addr.Hex()}
		if receipt != nil {
			fields["tx"] = receipt.TxHash.Hex()
		}
		o.log.WithFields(fields).Info("Component deployed")
	}
	return nil
}

// Run executes one full orchestration. The returned Result is never nil.
//
// A manifest write failure does not undo the deployment: the run still ends
// in Done and the returned *StepError (kind ErrManifestWrite) is not Fatal.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	res := &Result{
		RunID: uuid.New().String(),
		State: Start,
		Set:   NewDeploymentSet(),
		Trace: []State{Start},
	}
	prevLog := o.log
	o.log = o.cfg.Log.WithField("run", res.RunID)
	defer func() { o.log = prevLog }()

	o.log.WithField("from", o.cfg.Backend.From().Hex()).Info("Deployment run started")

	if err := o.cfg.Operators.Validate(); err != nil {
		return o.fail(res, stepError("validate", ErrInvalidParams, res.Set, err))
	}
	if err := o.cfg.Params.Validate(); err != nil {
		return o.fail(res, stepError("validate", ErrInvalidParams, res.Set, err))
	}

	o.advance(res, Deploying)
	if err := o.Deploy(ctx, res.Set); err != nil {
		return o.fail(res, err)
	}

	o.advance(res, Wiring)
	if err := o.Wire(ctx, res.Set); err != nil {
		return o.fail(res, err)
	}

	o.advance(res, Bootstrapping)
	if err := o.Bootstrap(ctx, res.Set); err != nil {
		return o.fail(res, err)
	}

	o.advance(res, WritingManifest)
	res.Manifest = res.Set.Manifest()
	werr := res.Manifest.Validate()
	if werr == nil {
		werr = o.cfg.Manifest.Write(res.Manifest)
	}
	o.advance(res, Done)
	if werr != nil {
		o.log.WithFields(manifestFields(res.Manifest)).WithError(werr).Error("Manifest not written, record these addresses manually")
		return res, stepError("manifest", ErrManifestWrite, res.Set, werr)
	}
	o.log.WithFields(manifestFields(res.Manifest)).Info("Deployment run finished")
	return res, nil
}

func (o *Orchestrator) advance(res *Result, to State) {
	if !canTransition(res.State, to) {
		panic(fmt.Sprintf("orchestrator: illegal transition %s -> %s", res.State, to))
	}
	o.log.WithFields(logrus.Fields{"from": res.State, "to": to}).Debug("State transition")
	res.State = to
	res.Trace = append(res.Trace, to)
}

func (o *Orchestrator) fail(res *Result, err error) (*Result, error) {
	fields := logrus.Fields{"state": res.State, "deployed": res.Set.Len()}
	var se *StepError
	if errors.As(err, &se) {
		fields["step"] = se.Step
	}
	o.advance(res, Failed)
	o.log.WithFields(fields).WithError(err).Error("Deployment run failed")
	return res, err
}

func manifestFields(m manifest.Manifest) logrus.Fields {
	fields := logrus.Fields{}
	for k, v := range m.Entries() {
		fields[k] = v.Hex()
	}
	return fields
}
