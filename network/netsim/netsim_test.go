package netsim

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/rony4d/gov-deployer/gov/contracts"
	"github.com/rony4d/gov-deployer/network"
)

func artifact(t *testing.T, name string) *contracts.Artifact {
	t.Helper()
	a, err := contracts.Builtin{}.Artifact(name)
	require.NoError(t, err)
	return a
}

// TestFakeKey_deterministic verifies the same index always yields the same key.
func TestFakeKey_deterministic(t *testing.T) {
	require := require.New(t)

	require.Equal(crypto.FromECDSA(FakeKey(3)), crypto.FromECDSA(FakeKey(3)))
	require.NotEqual(FakeAddress(0), FakeAddress(1))

	net := NewFakeNet(2)
	require.Equal(0, FakeBalance.Cmp(net.Balance(FakeAddress(1))))
	require.Equal(0, net.Balance(FakeAddress(2)).Sign())
}

func TestDeploy_addressesFollowNonce(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	net := NewFakeNet(1)
	be := net.Backend(FakeAddress(0))

	a0, r0, err := be.Deploy(ctx, artifact(t, contracts.Registry))
	require.NoError(err)
	require.Equal(crypto.CreateAddress(FakeAddress(0), 0), a0)
	require.Equal(a0, r0.ContractAddress)

	a1, _, err := be.Deploy(ctx, artifact(t, contracts.BallotStorage), a0)
	require.NoError(err)
	require.Equal(crypto.CreateAddress(FakeAddress(0), 1), a1)

	name, ok := net.ContractAt(a1)
	require.True(ok)
	require.Equal(contracts.BallotStorage, name)
}

func TestDeploy_rejectsUnknownReferencesAndBadArgs(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	be := NewFakeNet(1).Backend(FakeAddress(0))

	_, _, err := be.Deploy(ctx, artifact(t, contracts.BallotStorage), common.HexToAddress("0xdead"))
	require.ErrorIs(err, network.ErrReverted)

	_, _, err = be.Deploy(ctx, artifact(t, contracts.BallotStorage))
	require.Error(err)
}

func TestFailDeploy(t *testing.T) {
	net := NewFakeNet(1)
	boom := errors.New("boom")
	net.FailDeploy(contracts.Staking, boom)

	_, _, err := net.Backend(FakeAddress(0)).Deploy(context.Background(), artifact(t, contracts.Staking), common.Address{}, []byte{})
	require.ErrorIs(t, err, boom)
	require.Len(t, net.History(), 1)
	require.Equal(t, boom, net.History()[0].Err)
}

// TestRegistry_lastWriteWins checks owner-only writes and reads through Query.
func TestRegistry_lastWriteWins(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	net := NewFakeNet(2)
	owner := net.Backend(FakeAddress(0))
	registry, _, err := owner.Deploy(ctx, artifact(t, contracts.Registry))
	require.NoError(err)

	set := func(be *Sender, name string, addr common.Address) error {
		data, err := contracts.PackSetContractDomain(name, addr)
		require.NoError(err)
		_, err = be.Submit(ctx, network.Call{To: registry, Data: data})
		return err
	}
	require.NoError(set(owner, "Staking", common.HexToAddress("0x01")))
	require.NoError(set(owner, "Staking", common.HexToAddress("0x02")))
	require.ErrorIs(set(net.Backend(FakeAddress(1)), "Staking", common.HexToAddress("0x03")), network.ErrReverted)

	require.Equal(map[string]common.Address{"Staking": common.HexToAddress("0x02")}, net.Domains(registry))

	q, err := contracts.PackGetContractAddress("Staking")
	require.NoError(err)
	out, err := owner.Query(ctx, registry, q)
	require.NoError(err)
	got, err := contracts.UnpackAddress(contracts.Registry, contracts.MethodGetContractAddress, out)
	require.NoError(err)
	require.Equal(common.HexToAddress("0x02"), got)
}

func TestDeposit_balanceChecked(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	net := NewFakeNet(1)
	be := net.Backend(FakeAddress(0))
	registry, _, err := be.Deploy(ctx, artifact(t, contracts.Registry))
	require.NoError(err)
	staking, _, err := be.Deploy(ctx, artifact(t, contracts.Staking), registry, []byte{})
	require.NoError(err)

	data, err := contracts.PackDeposit()
	require.NoError(err)

	_, err = be.Submit(ctx, network.Call{To: staking, Data: data, Value: big.NewInt(1000)})
	require.NoError(err)
	require.Equal(int64(1000), net.Deposited(staking, FakeAddress(0)).Int64())
	require.Equal(int64(1000), net.Balance(staking).Int64())

	tooMuch := new(big.Int).Add(FakeBalance, common.Big1)
	_, err = be.Submit(ctx, network.Call{To: staking, Data: data, Value: tooMuch})
	require.ErrorIs(err, ErrInsufficientFunds)

	// A poor account cannot deposit at all.
	_, err = net.Backend(FakeAddress(5)).Submit(ctx, network.Call{To: staking, Data: data, Value: big.NewInt(1)})
	require.ErrorIs(err, ErrInsufficientFunds)
}

// TestProxyInitialize_once deploys EnvStorage over EnvStorageImp and checks
// that initialize is forwarded to the logic ABI and runs only once.
func TestProxyInitialize_once(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	net := NewFakeNet(1)
	be := net.Backend(FakeAddress(0))
	registry, _, err := be.Deploy(ctx, artifact(t, contracts.Registry))
	require.NoError(err)
	imp, _, err := be.Deploy(ctx, artifact(t, contracts.EnvStorageImp))
	require.NoError(err)
	proxy, _, err := be.Deploy(ctx, artifact(t, contracts.EnvStorage), registry, imp)
	require.NoError(err)

	q, err := contracts.PackImplementation(contracts.EnvStorage)
	require.NoError(err)
	out, err := be.Query(ctx, proxy, q)
	require.NoError(err)
	logic, err := contracts.UnpackAddress(contracts.EnvStorage, contracts.MethodImplementation, out)
	require.NoError(err)
	require.Equal(imp, logic)

	one := big.NewInt(1)
	data, err := contracts.PackEnvInitialize(contracts.EnvInitArgs{
		BlocksPer: one, BallotDurationMin: one, BallotDurationMax: one,
		StakingMin: one, StakingMax: one, GasPrice: one, MaxIdleBlockInterval: one,
	})
	require.NoError(err)

	_, err = be.Submit(ctx, network.Call{To: proxy, Data: data})
	require.NoError(err)
	done, args := net.Initialized(proxy)
	require.True(done)
	require.Len(args, 7)

	_, err = be.Submit(ctx, network.Call{To: proxy, Data: data})
	require.ErrorIs(err, network.ErrReverted)
}

func TestSubmit_unknownTargetAndSelector(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	net := NewFakeNet(1)
	be := net.Backend(FakeAddress(0))

	_, err := be.Submit(ctx, network.Call{To: common.HexToAddress("0x01"), Data: []byte{1, 2, 3, 4}})
	require.Error(err)

	registry, _, err := be.Deploy(ctx, artifact(t, contracts.Registry))
	require.NoError(err)
	_, err = be.Submit(ctx, network.Call{To: registry, Data: []byte{1, 2, 3, 4}})
	require.ErrorIs(err, network.ErrReverted)

	boom := errors.New("rpc down")
	net.FailCall(contracts.MethodSetContractDomain, boom)
	data, err := contracts.PackSetContractDomain("Staking", registry)
	require.NoError(err)
	_, err = be.Submit(ctx, network.Call{To: registry, Data: data})
	require.ErrorIs(err, boom)
}
