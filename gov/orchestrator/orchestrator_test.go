package orchestrator

import (
	"context"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/rony4d/gov-deployer/gov/bootstrap"
	"github.com/rony4d/gov-deployer/gov/contracts"
	"github.com/rony4d/gov-deployer/gov/manifest"
	"github.com/rony4d/gov-deployer/network/netsim"
)

var (
	maintenance = common.HexToAddress("0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA")
	rewardPool  = common.HexToAddress("0xBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB")
)

type harness struct {
	net      *netsim.Network
	cfg      Config
	path     string
	logHook  *logtest.Hook
	deployer common.Address
}

// newHarness builds an orchestrator config against a fresh fake network.
func newHarness(t *testing.T) *harness {
	t.Helper()
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	net := netsim.NewFakeNet(5)
	path := filepath.Join(t.TempDir(), manifest.DefaultPath)
	return &harness{
		net:      net,
		path:     path,
		logHook:  hook,
		deployer: netsim.FakeAddress(0),
		cfg: Config{
			Backend:   net.Backend(netsim.FakeAddress(0)),
			Artifacts: contracts.Builtin{},
			Operators: Operators{Maintenance: maintenance, RewardPool: rewardPool},
			Params:    bootstrap.Defaults(),
			Manifest:  manifest.File{Path: path},
			Log:       logger,
		},
	}
}

func (h *harness) orchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	o, err := New(h.cfg)
	require.NoError(t, err)
	return o
}

// calledMethods returns the methods of all submitted calls, in order.
func (h *harness) calledMethods() []string {
	var out []string
	for _, tx := range h.net.History() {
		if tx.Method != "" {
			out = append(out, tx.Method)
		}
	}
	return out
}

// TestRun_endToEnd deploys all seven components on a fresh network, wires the
// registry, bootstraps and checks the manifest.
func TestRun_endToEnd(t *testing.T) {
	require := require.New(t)
	h := newHarness(t)

	res, err := h.orchestrator(t).Run(context.Background())
	require.NoError(err)
	require.Equal(Done, res.State)
	require.Equal([]State{Start, Deploying, Wiring, Bootstrapping, WritingManifest, Done}, res.Trace)
	require.NotEmpty(res.RunID)

	set := res.Set
	require.True(set.Complete())
	require.Equal([]Name{Registry, Staking, BallotStorage, EnvStorageImp, EnvStorage, GovImp, Gov}, set.Names())
	for _, name := range set.Names() {
		d, _ := set.Get(name)
		contract, ok := h.net.ContractAt(d.Address)
		require.True(ok, name)
		require.Equal(d.Contract, contract)
	}

	// Registry holds exactly the six domains, each pointing at the deployed component.
	require.Equal(map[string]common.Address{
		"Staking":            set.Address(Staking),
		"BallotStorage":      set.Address(BallotStorage),
		"EnvStorage":         set.Address(EnvStorage),
		"GovernanceContract": set.Address(Gov),
		"Maintenance":        maintenance,
		"RewardPool":         rewardPool,
	}, h.net.Domains(set.Address(Registry)))

	// Seed deposit of 1e18 from the deployer.
	require.Equal(0, big.NewInt(1e18).Cmp(h.net.Deposited(set.Address(Staking), h.deployer)))

	// Governance bootstrap.
	done, args := h.net.Initialized(set.Address(Gov))
	require.True(done)
	require.Equal(set.Address(Registry), args[0])
	require.Equal(set.Address(GovImp), args[1])
	require.Equal([]byte("miner"), args[3])
	require.Equal(int64(8542), args[6].(*big.Int).Int64())

	// Environment bootstrap through the proxy.
	done, args = h.net.Initialized(set.Address(EnvStorage))
	require.True(done)
	require.Equal(int64(100), args[0].(*big.Int).Int64())
	require.Equal(int64(86400), args[1].(*big.Int).Int64())
	require.Equal(int64(604800), args[2].(*big.Int).Int64())

	// Bootstrap calls happen once each, in reference order, after the wiring.
	require.Equal([]string{
		contracts.MethodSetContractDomain, contracts.MethodSetContractDomain, contracts.MethodSetContractDomain,
		contracts.MethodSetContractDomain, contracts.MethodSetContractDomain, contracts.MethodSetContractDomain,
		contracts.MethodDeposit, contracts.MethodInit, contracts.MethodInitialize,
	}, h.calledMethods())

	// Manifest on disk matches the set.
	m, err := manifest.Read(h.path)
	require.NoError(err)
	require.Equal(set.Manifest(), m)
	require.Equal(res.Manifest, m)
	require.NoError(m.Validate())
	require.Equal(set.Address(Registry), m.Registry)
	require.Equal(set.Address(Staking), m.Staking)
	require.Equal(set.Address(EnvStorage), m.EnvStorage)
	require.Equal(set.Address(BallotStorage), m.BallotStorage)
	require.Equal(set.Address(Gov), m.Gov)

	// Every log line of the run carries the run id.
	for _, e := range h.logHook.AllEntries() {
		require.Equal(res.RunID, e.Data["run"])
	}
}

// TestRun_stakingDeploymentFailure aborts on the second deployment: nothing
// is wired or bootstrapped and no manifest is written.
func TestRun_stakingDeploymentFailure(t *testing.T) {
	require := require.New(t)
	h := newHarness(t)
	h.net.FailDeploy(contracts.Staking, errors.New("out of gas"))

	res, err := h.orchestrator(t).Run(context.Background())
	require.Error(err)
	require.ErrorIs(err, ErrDeployment)
	require.Equal(Failed, res.State)
	require.Equal([]State{Start, Deploying, Failed}, res.Trace)

	var se *StepError
	require.True(errors.As(err, &se))
	require.Equal("deploy:staking", se.Step)
	require.True(se.Fatal())
	require.Equal([]Name{Registry}, se.Set.Names())

	require.Empty(h.calledMethods())
	_, statErr := os.Stat(h.path)
	require.True(os.IsNotExist(statErr))
}

// TestRun_invalidParamsSubmitsNothing checks the local bounds check fires
// before any network submission.
func TestRun_invalidParamsSubmitsNothing(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(h *harness)
	}{
		{"ballot bounds", func(h *harness) { h.cfg.Params.Env.BallotDurationMin = h.cfg.Params.Env.BallotDurationMax + 1 }},
		{"staking bounds", func(h *harness) { h.cfg.Params.Env.StakingMax = big.NewInt(1) }},
		{"missing reward pool", func(h *harness) { h.cfg.Operators.RewardPool = common.Address{} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			tt.mutate(h)

			res, err := h.orchestrator(t).Run(context.Background())
			require.ErrorIs(t, err, ErrInvalidParams)
			require.Equal(t, Failed, res.State)
			require.Empty(t, h.net.History())
		})
	}
}

func TestRun_wiringFailure(t *testing.T) {
	require := require.New(t)
	h := newHarness(t)
	h.net.FailCall(contracts.MethodSetContractDomain, errors.New("nonce too low"))

	res, err := h.orchestrator(t).Run(context.Background())
	require.ErrorIs(err, ErrWiring)
	require.Equal(Failed, res.State)
	require.True(res.Set.Complete())
	require.NotContains(h.calledMethods(), contracts.MethodDeposit)
	require.NotContains(h.calledMethods(), contracts.MethodInit)
}

// TestRun_depositFailure uses an unfunded funding identity: the deposit fails
// as a plain bootstrap failure and governance is never initialized.
func TestRun_depositFailure(t *testing.T) {
	require := require.New(t)
	h := newHarness(t)
	h.cfg.Funder = h.net.Backend(netsim.FakeAddress(9))

	res, err := h.orchestrator(t).Run(context.Background())
	require.ErrorIs(err, ErrBootstrap)
	require.False(errors.Is(err, ErrBootstrapRejected))
	require.ErrorIs(err, netsim.ErrInsufficientFunds)
	require.Equal(Failed, res.State)
	require.NotContains(h.calledMethods(), contracts.MethodInit)
	require.NotContains(h.calledMethods(), contracts.MethodInitialize)
}

func TestRun_separateFunder(t *testing.T) {
	require := require.New(t)
	h := newHarness(t)
	h.cfg.Funder = h.net.Backend(netsim.FakeAddress(1))

	res, err := h.orchestrator(t).Run(context.Background())
	require.NoError(err)
	staking := res.Set.Address(Staking)
	require.Equal(0, big.NewInt(1e18).Cmp(h.net.Deposited(staking, netsim.FakeAddress(1))))
	require.Equal(0, h.net.Deposited(staking, h.deployer).Sign())
}

type brokenWriter struct{}

func (brokenWriter) Write(manifest.Manifest) error { return errors.New("read-only file system") }

// TestRun_manifestWriteFailure keeps the on-chain outcome and reports the
// addresses with a non-fatal error.
func TestRun_manifestWriteFailure(t *testing.T) {
	require := require.New(t)
	h := newHarness(t)
	h.cfg.Manifest = brokenWriter{}

	res, err := h.orchestrator(t).Run(context.Background())
	require.ErrorIs(err, ErrManifestWrite)
	require.Equal(Done, res.State)

	var se *StepError
	require.True(errors.As(err, &se))
	require.False(se.Fatal())
	require.NoError(res.Manifest.Validate())
	require.Equal(res.Set.Address(Gov), res.Manifest.Gov)
}

// TestWire_idempotent wires the same set twice; the registry ends up as after
// a single pass.
func TestWire_idempotent(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	h := newHarness(t)
	o := h.orchestrator(t)

	set := NewDeploymentSet()
	require.NoError(o.Deploy(ctx, set))

	require.NoError(o.Wire(ctx, set))
	once := h.net.Domains(set.Address(Registry))

	require.NoError(o.Wire(ctx, set))
	require.Equal(once, h.net.Domains(set.Address(Registry)))
	require.Len(once, 6)

	resolver := RegistryResolver{Backend: h.cfg.Backend, Registry: set.Address(Registry)}
	for _, e := range Entries(set, h.cfg.Operators) {
		got, err := resolver.Resolve(ctx, e.Domain)
		require.NoError(err)
		require.Equal(e.Address, got, e.Domain)
	}
}

type staleResolver struct{}

func (staleResolver) Resolve(context.Context, string) (common.Address, error) {
	return common.HexToAddress("0x0123"), nil
}

func TestWire_detectsMismatch(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	h := newHarness(t)
	h.cfg.Resolver = staleResolver{}
	o := h.orchestrator(t)

	set := NewDeploymentSet()
	require.NoError(o.Deploy(ctx, set))

	err := o.Wire(ctx, set)
	require.ErrorIs(err, ErrWiring)

	var se *StepError
	require.True(errors.As(err, &se))
	require.Equal("verify:"+DomainStaking, se.Step)
}

func TestWire_requiresRegistry(t *testing.T) {
	h := newHarness(t)
	err := h.orchestrator(t).Wire(context.Background(), NewDeploymentSet())
	require.ErrorIs(t, err, ErrWiring)
}

// TestBootstrap_singleUse re-invokes the one-time initializers after a full
// run: both are rejected distinctly and the first effect is kept.
func TestBootstrap_singleUse(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	h := newHarness(t)
	o := h.orchestrator(t)

	res, err := o.Run(ctx)
	require.NoError(err)
	_, first := h.net.Initialized(res.Set.Address(Gov))

	err = o.InitGovernance(ctx, res.Set)
	require.ErrorIs(err, ErrBootstrapRejected)
	var se *StepError
	require.True(errors.As(err, &se))
	require.Equal(StepGovInit, se.Step)

	_, after := h.net.Initialized(res.Set.Address(Gov))
	require.Equal(first, after)

	err = o.InitEnvironment(ctx, res.Set)
	require.ErrorIs(err, ErrBootstrapRejected)
}

func TestInitEnvironment_validatesBeforeSubmitting(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	h := newHarness(t)
	h.cfg.Params.Env.StakingMin = new(big.Int).Add(h.cfg.Params.Env.StakingMax, common.Big1)
	o := h.orchestrator(t)

	set := NewDeploymentSet()
	require.NoError(o.Deploy(ctx, set))
	before := len(h.net.History())

	err := o.InitEnvironment(ctx, set)
	require.ErrorIs(err, ErrInvalidParams)
	require.ErrorIs(err, bootstrap.ErrInvalid)
	require.Len(h.net.History(), before)
}

func TestDepositStake_requiresRegistration(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	h := newHarness(t)
	o := h.orchestrator(t)

	set := NewDeploymentSet()
	require.NoError(o.Deploy(ctx, set))

	err := o.DepositStake(ctx, set)
	require.ErrorIs(err, ErrBootstrap)
	require.NotContains(h.calledMethods(), contracts.MethodDeposit)
}

func TestNew_requiresCollaborators(t *testing.T) {
	h := newHarness(t)

	cfg := h.cfg
	cfg.Backend = nil
	_, err := New(cfg)
	require.Error(t, err)

	cfg = h.cfg
	cfg.Artifacts = nil
	_, err = New(cfg)
	require.Error(t, err)

	cfg = h.cfg
	cfg.Manifest = nil
	_, err = New(cfg)
	require.Error(t, err)
}

// TestNew_copiesParams shows later changes to the caller's bundle do not
// reach a configured orchestrator.
func TestNew_copiesParams(t *testing.T) {
	require := require.New(t)
	h := newHarness(t)
	o := h.orchestrator(t)

	h.cfg.Params.StakeAmount.SetInt64(1)

	res, err := o.Run(context.Background())
	require.NoError(err)
	require.Equal(0, big.NewInt(1e18).Cmp(h.net.Deposited(res.Set.Address(Staking), h.deployer)))
}
