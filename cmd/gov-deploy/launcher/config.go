// This file maps defaults, presets, the TOML config file and CLI flags to the
// launcher Config.

package launcher

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
	"gopkg.in/urfave/cli.v1"

	"github.com/rony4d/gov-deployer/gov/bootstrap"
	"github.com/rony4d/gov-deployer/gov/enode"
	"github.com/rony4d/gov-deployer/integration"
	"github.com/rony4d/gov-deployer/network/ethnet"
)

// Config aggregates everything one deployment run needs.
type Config struct {
	Network   NetworkConfig    `toml:"network"`
	Account   AccountConfig    `toml:"account"`
	Deploy    DeployConfig     `toml:"deploy"`
	Bootstrap bootstrap.Params `toml:"bootstrap" validate:"-"`
	Logging   LoggingConfig    `toml:"logging"`
	DryRun    bool             `toml:"dryrun"`
}

type NetworkConfig struct {
	Preset   string   `toml:"preset"`
	Endpoint string   `toml:"rpc" validate:"required"`
	ChainID  uint64   `toml:"chain_id"`
	GasLimit uint64   `toml:"gas"`
	GasPrice *big.Int `toml:"gas_price"`
}

type AccountConfig struct {
	Key          string `toml:"key"`
	Keystore     string `toml:"keystore"`
	PasswordFile string `toml:"password_file"`
	FunderKey    string `toml:"funder_key"`
}

type DeployConfig struct {
	Artifacts   string         `toml:"artifacts" validate:"required"`
	Manifest    string         `toml:"manifest" validate:"required"`
	Maintenance common.Address `toml:"maintenance"`
	RewardPool  common.Address `toml:"reward_pool"`
}

type LoggingConfig struct {
	Verbosity int    `toml:"verbosity" validate:"min=0,max=5"`
	Format    string `toml:"format" validate:"oneof=text json"`
	Color     bool   `toml:"color"`
	SentryDSN string `toml:"sentry_dsn"`
}

var validate = validator.New()

// Validate checks the launcher settings. Bootstrap parameters and operator
// addresses are checked by the orchestrator before the first transaction.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if !c.DryRun && c.Account.Key == "" && c.Account.Keystore == "" {
		return fmt.Errorf("invalid configuration: one of --key or --keystore is required")
	}
	return nil
}

// clientConfig converts the network section for ethnet.Dial.
func (n NetworkConfig) clientConfig() ethnet.Config {
	c := ethnet.Config{Endpoint: n.Endpoint, GasLimit: n.GasLimit, GasPrice: n.GasPrice}
	if n.ChainID != 0 {
		c.ChainID = new(big.Int).SetUint64(n.ChainID)
	}
	return c
}

// -----------------------------------------------------------------------------
// Default config + builders
// -----------------------------------------------------------------------------

func defaultConfig() Config {
	d := DefaultConfig()
	return Config{
		Network: NetworkConfig{
			Preset:   d.Network.Preset,
			Endpoint: d.Network.Endpoint,
			ChainID:  d.Network.ChainID,
			GasLimit: d.Network.GasLimit,
		},
		Deploy: DeployConfig{
			Artifacts: d.Deploy.Artifacts,
			Manifest:  d.Deploy.Manifest,
		},
		Bootstrap: bootstrap.Defaults(),
		Logging: LoggingConfig{
			Verbosity: d.Logging.Verbosity,
			Format:    d.Logging.Format,
			Color:     d.Logging.Color,
		},
	}
}

// MakeAllConfigs merges defaults, the network preset, config-file values and
// CLI overrides into a single config struct, in that order of precedence.
func MakeAllConfigs(ctx *cli.Context) (Config, error) {
	cfg := defaultConfig()

	var meta toml.MetaData
	if file := ctx.String("config"); file != "" {
		m, err := loadConfigFile(resolvePath(file), &cfg)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config file %s: %w", file, err)
		}
		meta = m
	}

	if ctx.IsSet("network") {
		cfg.Network.Preset = ctx.String("network")
	}
	if cfg.Network.Preset != "" {
		if err := applyNetworkPreset(&cfg.Network, meta); err != nil {
			return cfg, err
		}
	}

	if err := applyCLIOverrides(ctx, &cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// -----------------------------------------------------------------------------
// Config-file / CLI wiring
// -----------------------------------------------------------------------------

func loadConfigFile(path string, cfg *Config) (toml.MetaData, error) {
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return meta, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return meta, fmt.Errorf("unknown keys %v", undecoded)
	}
	return meta, nil
}

// applyNetworkPreset fills the network section from the named preset. Values
// spelled out in the config file win over the preset.
func applyNetworkPreset(n *NetworkConfig, meta toml.MetaData) error {
	preset, err := integration.GetPresetByName(n.Preset)
	if err != nil {
		return err
	}
	if meta.IsDefined("network", "rpc") {
		preset.Endpoint = ""
	}
	if meta.IsDefined("network", "chain_id") {
		preset.ChainID = 0
	}
	if meta.IsDefined("network", "gas") {
		preset.GasLimit = 0
	}
	if meta.IsDefined("network", "gas_price") {
		preset.GasPrice = nil
	}

	target := integration.PresetConfig{
		Name:     n.Preset,
		Endpoint: n.Endpoint,
		ChainID:  n.ChainID,
		GasLimit: n.GasLimit,
		GasPrice: n.GasPrice,
	}
	integration.ApplyPreset(&target, preset)

	n.Endpoint = target.Endpoint
	n.ChainID = target.ChainID
	n.GasLimit = target.GasLimit
	n.GasPrice = target.GasPrice
	return nil
}

func applyCLIOverrides(ctx *cli.Context, cfg *Config) error {
	var err error

	if ctx.IsSet("rpc") {
		cfg.Network.Endpoint = ctx.String("rpc")
	}
	if ctx.IsSet("chainid") {
		cfg.Network.ChainID = ctx.Uint64("chainid")
	}
	if ctx.IsSet("gas") {
		cfg.Network.GasLimit = ctx.Uint64("gas")
	}
	if ctx.IsSet("gasprice") {
		if cfg.Network.GasPrice, err = parseBig("gasprice", ctx.String("gasprice")); err != nil {
			return err
		}
	}

	if ctx.IsSet("key") {
		cfg.Account.Key = ctx.String("key")
	}
	if ctx.IsSet("keystore") {
		cfg.Account.Keystore = resolvePath(ctx.String("keystore"))
	}
	if ctx.IsSet("password") {
		cfg.Account.PasswordFile = resolvePath(ctx.String("password"))
	}
	if ctx.IsSet("funder.key") {
		cfg.Account.FunderKey = ctx.String("funder.key")
	}

	if ctx.IsSet("artifacts") {
		cfg.Deploy.Artifacts = resolvePath(ctx.String("artifacts"))
	}
	if ctx.IsSet("manifest") {
		cfg.Deploy.Manifest = resolvePath(ctx.String("manifest"))
	}
	if ctx.IsSet("maintenance") {
		if cfg.Deploy.Maintenance, err = parseAddress("maintenance", ctx.String("maintenance")); err != nil {
			return err
		}
	}
	if ctx.IsSet("rewardpool") {
		if cfg.Deploy.RewardPool, err = parseAddress("rewardpool", ctx.String("rewardpool")); err != nil {
			return err
		}
	}
	if ctx.IsSet("dryrun") {
		cfg.DryRun = ctx.Bool("dryrun")
	}

	b := &cfg.Bootstrap
	if ctx.IsSet("stake") {
		if b.StakeAmount, err = parseBig("stake", ctx.String("stake")); err != nil {
			return err
		}
	}
	if ctx.IsSet("member.name") {
		b.Member.Name = ctx.String("member.name")
	}
	if ctx.IsSet("member.enode") {
		if b.Member.Enode, err = enode.FromString(ctx.String("member.enode")); err != nil {
			return fmt.Errorf("--member.enode: %w", err)
		}
	}
	if ctx.IsSet("member.ip") {
		b.Member.IP = ctx.String("member.ip")
	}
	if ctx.IsSet("member.port") {
		port := ctx.Uint("member.port")
		if port > 0xffff {
			return fmt.Errorf("--member.port: %d out of range", port)
		}
		b.Member.Port = uint16(port)
	}
	if ctx.IsSet("env.blocksper") {
		b.Env.BlocksPer = idx.Block(ctx.Uint64("env.blocksper"))
	}
	if ctx.IsSet("env.ballotmin") {
		b.Env.BallotDurationMin = ctx.Uint64("env.ballotmin")
	}
	if ctx.IsSet("env.ballotmax") {
		b.Env.BallotDurationMax = ctx.Uint64("env.ballotmax")
	}
	if ctx.IsSet("env.stakingmin") {
		if b.Env.StakingMin, err = parseBig("env.stakingmin", ctx.String("env.stakingmin")); err != nil {
			return err
		}
	}
	if ctx.IsSet("env.stakingmax") {
		if b.Env.StakingMax, err = parseBig("env.stakingmax", ctx.String("env.stakingmax")); err != nil {
			return err
		}
	}
	if ctx.IsSet("env.gasprice") {
		if b.Env.GasPrice, err = parseBig("env.gasprice", ctx.String("env.gasprice")); err != nil {
			return err
		}
	}
	if ctx.IsSet("env.maxidle") {
		b.Env.MaxIdleBlockInterval = idx.Block(ctx.Uint64("env.maxidle"))
	}

	if ctx.IsSet("log.format") {
		cfg.Logging.Format = ctx.String("log.format")
	}
	if ctx.IsSet("log.verbosity") {
		cfg.Logging.Verbosity = ctx.Int("log.verbosity")
	}
	if ctx.IsSet("log.color") {
		cfg.Logging.Color = ctx.Bool("log.color")
	}
	if ctx.IsSet("log.sentry") {
		cfg.Logging.SentryDSN = ctx.String("log.sentry")
	}
	return nil
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func parseBig(flag, raw string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(strings.TrimSpace(raw), 0)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("--%s: invalid amount %q", flag, raw)
	}
	return v, nil
}

func parseAddress(flag, raw string) (common.Address, error) {
	raw = strings.TrimSpace(raw)
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("--%s: invalid address %q", flag, raw)
	}
	return common.HexToAddress(raw), nil
}

func resolvePath(p string) string {
	if strings.HasPrefix(p, "~") {
		return filepath.Join(GuessHomeDir(), strings.TrimPrefix(p, "~"))
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(GuessWorkDir(), p)
}

func GuessWorkDir() string {
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

func GuessHomeDir() string {
	if dir, err := os.UserHomeDir(); err == nil {
		return dir
	}
	return "."
}
