package flags

import (
	"gopkg.in/urfave/cli.v1"
)

// DeployFlags holds the inputs and outputs of a deployment run.

func DeployFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "artifacts",
			Usage: "Directory of compiled contract artifacts (<Name>.json)",
			Value: "build/contracts",
		},
		cli.StringFlag{
			Name:  "manifest",
			Usage: "Path of the address manifest written after a successful run",
			Value: "contracts.json",
		},
		cli.StringFlag{
			Name:   "maintenance",
			Usage:  "Address registered under the Maintenance domain",
			EnvVar: "GOV_DEPLOY_MAINTENANCE",
		},
		cli.StringFlag{
			Name:   "rewardpool",
			Usage:  "Address registered under the RewardPool domain",
			EnvVar: "GOV_DEPLOY_REWARDPOOL",
		},
	}
}

// BootstrapFlags override single fields of the bootstrap parameter bundle.
func BootstrapFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "stake",
			Usage: "Seed staking deposit and governance lock amount, in wei",
		},
		cli.StringFlag{
			Name:  "member.name",
			Usage: "Name of the first governance member",
		},
		cli.StringFlag{
			Name:  "member.enode",
			Usage: "Hex node id (64 bytes) of the first member",
		},
		cli.StringFlag{
			Name:  "member.ip",
			Usage: "IP address of the first member's node",
		},
		cli.UintFlag{
			Name:  "member.port",
			Usage: "P2P port of the first member's node",
		},
		cli.Uint64Flag{
			Name:  "env.blocksper",
			Usage: "Blocks per governance period",
		},
		cli.Uint64Flag{
			Name:  "env.ballotmin",
			Usage: "Minimum ballot duration in seconds",
		},
		cli.Uint64Flag{
			Name:  "env.ballotmax",
			Usage: "Maximum ballot duration in seconds",
		},
		cli.StringFlag{
			Name:  "env.stakingmin",
			Usage: "Minimum staking amount in wei",
		},
		cli.StringFlag{
			Name:  "env.stakingmax",
			Usage: "Maximum staking amount in wei",
		},
		cli.StringFlag{
			Name:  "env.gasprice",
			Usage: "Governed gas price in wei",
		},
		cli.Uint64Flag{
			Name:  "env.maxidle",
			Usage: "Maximum idle block interval",
		},
	}
}
