package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/urfave/cli.v1"

	"github.com/rony4d/gov-deployer/flags"
	"github.com/rony4d/gov-deployer/gov/contracts"
	"github.com/rony4d/gov-deployer/gov/manifest"
	"github.com/rony4d/gov-deployer/gov/orchestrator"
	"github.com/rony4d/gov-deployer/network"
	"github.com/rony4d/gov-deployer/network/ethnet"
	"github.com/rony4d/gov-deployer/network/netsim"
)

var app = flags.NewApp()

func init() {
	app.Action = deployAction
}

// Launch loads an optional .env file, parses args and performs one run.
func Launch(args []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return app.Run(args)
}

func deployAction(ctx *cli.Context) error {
	cfg, err := MakeAllConfigs(ctx)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Logging, os.Stderr)
	if err != nil {
		return err
	}

	// A run is not cancellable once started; an interrupted process leaves
	// the network in whatever state the completed steps produced.
	_, err = Deploy(context.Background(), cfg, logger, ctx.App.Writer)
	return err
}

// Deploy runs one orchestration with cfg. When the run succeeds on chain but
// the manifest cannot be written, the addresses are printed to out so the
// operator can record them by hand; the error is still returned.
func Deploy(ctx context.Context, cfg Config, log logrus.FieldLogger, out io.Writer) (*orchestrator.Result, error) {
	b, err := openBackends(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	defer b.close()

	ocfg := orchestrator.Config{
		Backend:   b.deployer,
		Funder:    b.funder,
		Artifacts: b.artifacts,
		Operators: orchestrator.Operators{
			Maintenance: cfg.Deploy.Maintenance,
			RewardPool:  cfg.Deploy.RewardPool,
		},
		Params:   cfg.Bootstrap,
		Manifest: manifest.File{Path: cfg.Deploy.Manifest},
		Log:      log,
	}
	if cfg.DryRun {
		ocfg.Manifest = manifest.Stream{W: out}
	}
	o, err := orchestrator.New(ocfg)
	if err != nil {
		return nil, err
	}

	res, err := o.Run(ctx)
	var se *orchestrator.StepError
	if errors.As(err, &se) && !se.Fatal() {
		if perr := (manifest.Stream{W: out}).Write(res.Manifest); perr != nil {
			log.WithError(perr).Error("Failed to print manifest")
		}
	}
	return res, err
}

// backends are the network identities of one run.
type backends struct {
	deployer  network.Backend
	funder    network.Backend // nil: deployer funds the deposit
	artifacts contracts.Source
	closers   []func()
}

func (b *backends) close() {
	for _, c := range b.closers {
		c()
	}
}

// openBackends dials the configured node, or builds an in-memory network for
// a dry run.
func openBackends(ctx context.Context, cfg Config, log logrus.FieldLogger) (*backends, error) {
	if cfg.DryRun {
		return openDryRun(cfg, log)
	}

	key, err := ethnet.LoadKey(cfg.Account.Key, cfg.Account.Keystore, cfg.Account.PasswordFile)
	if err != nil {
		return nil, err
	}
	client, err := ethnet.Dial(ctx, cfg.Network.clientConfig(), key, log)
	if err != nil {
		return nil, err
	}
	b := &backends{
		deployer:  client,
		artifacts: contracts.DirSource{Dir: cfg.Deploy.Artifacts},
		closers:   []func(){client.Close},
	}

	if cfg.Account.FunderKey != "" {
		fkey, err := ethnet.LoadKey(cfg.Account.FunderKey, "", "")
		if err != nil {
			b.close()
			return nil, fmt.Errorf("funder: %w", err)
		}
		funder, err := ethnet.Dial(ctx, cfg.Network.clientConfig(), fkey, log)
		if err != nil {
			b.close()
			return nil, fmt.Errorf("funder: %w", err)
		}
		b.funder = funder
		b.closers = append(b.closers, funder.Close)
	}
	log.WithFields(logrus.Fields{"rpc": cfg.Network.Endpoint, "preset": cfg.Network.Preset, "from": client.From().Hex()}).Info("Connected")
	return b, nil
}

// openDryRun builds an in-memory network. The deployer is a fake account; a
// configured funder key keeps its own address and is funded at genesis.
func openDryRun(cfg Config, log logrus.FieldLogger) (*backends, error) {
	deployer := netsim.FakeAddress(0)
	balances := map[common.Address]*big.Int{deployer: netsim.FakeBalance}
	fields := logrus.Fields{"from": deployer.Hex()}

	var funder common.Address
	if cfg.Account.FunderKey != "" {
		fkey, err := ethnet.LoadKey(cfg.Account.FunderKey, "", "")
		if err != nil {
			return nil, fmt.Errorf("funder: %w", err)
		}
		funder = crypto.PubkeyToAddress(fkey.PublicKey)
		balances[funder] = netsim.FakeBalance
		fields["funder"] = funder.Hex()
	}

	net := netsim.New(balances)
	b := &backends{
		deployer:  net.Backend(deployer),
		artifacts: contracts.Builtin{},
	}
	if funder != (common.Address{}) {
		b.funder = net.Backend(funder)
	}
	log.WithFields(fields).Warn("Dry run on an in-memory network, nothing is sent to a node")
	return b, nil
}
