package flags

import (
	"gopkg.in/urfave/cli.v1"
)

// NetworkFlags covers the target network and gas settings.

func NetworkFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:   "network",
			Usage:  "Named network preset (development|coverage|metadiumTestnet|ropsten)",
			EnvVar: "GOV_DEPLOY_NETWORK",
		},
		cli.StringFlag{
			Name:   "rpc",
			Usage:  "JSON-RPC endpoint of the target node (http, ws or ipc path)",
			EnvVar: "GOV_DEPLOY_RPC",
		},
		cli.Uint64Flag{
			Name:  "chainid",
			Usage: "Chain id used to sign transactions (0 = ask the node)",
		},
		cli.Uint64Flag{
			Name:  "gas",
			Usage: "Gas limit per transaction (0 = estimate)",
		},
		cli.StringFlag{
			Name:  "gasprice",
			Usage: "Gas price in wei (empty = node suggestion)",
		},
	}
}

// AccountFlags isolates the deployer identity.
func AccountFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:   "key",
			Usage:  "Hex-encoded private key of the deployer",
			EnvVar: "GOV_DEPLOY_KEY",
		},
		cli.StringFlag{
			Name:   "keystore",
			Usage:  "Encrypted keystore file of the deployer",
			EnvVar: "GOV_DEPLOY_KEYSTORE",
		},
		cli.StringFlag{
			Name:   "password",
			Usage:  "File containing the keystore password",
			EnvVar: "GOV_DEPLOY_PASSWORD",
		},
		cli.StringFlag{
			Name:   "funder.key",
			Usage:  "Hex-encoded private key sending the staking deposit (default: deployer)",
			EnvVar: "GOV_DEPLOY_FUNDER_KEY",
		},
	}
}
