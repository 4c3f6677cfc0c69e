package launcher

// Defaults bundles the baseline configuration values the launcher uses
// before network presets, config files and flags override them.

type Defaults struct {
	Network NetworkDefaults
	Deploy  DeployDefaults
	Logging LoggingDefaults
}

// NetworkDefaults describes the node the deployer talks to.
type NetworkDefaults struct {
	Preset   string //	Named network preset applied when neither the config file nor --network picks one. Empty means none.
	Endpoint string //	JSON-RPC endpoint (http, ws or ipc path). Every transaction of a run goes through it.
	ChainID  uint64 //	Chain id used for EIP-155 signing. 0 asks the node once at startup.
	GasLimit uint64 //	Gas limit attached to every transaction. 0 lets the node estimate each one.
}

// DeployDefaults locates the run inputs and outputs.
type DeployDefaults struct {
	Artifacts string //	Directory of truffle build artifacts (<Name>.json carrying abi and linked bytecode).
	Manifest  string //	Where the address manifest is written. Downstream tooling reads this file, the chain stays authoritative.
}

// LoggingDefaults controls log verbosity/format.
type LoggingDefaults struct {
	Verbosity int    //	Log level numeric (0=fatal, 1=error, 2=warn, 3=info, 4=debug, 5=trace).
	Format    string //	Log output format (text vs json).
	Color     bool   //	Whether to use ANSI color codes in logs (helpful on terminals, best disabled when piping to files).
}

// DefaultConfig returns a fully populated Defaults instance.

func DefaultConfig() Defaults {
	return Defaults{
		Network: NetworkDefaults{
			Endpoint: "http://localhost:8545",
		},
		Deploy: DeployDefaults{
			Artifacts: "build/contracts",
			Manifest:  "contracts.json",
		},
		Logging: LoggingDefaults{
			Verbosity: 3,
			Format:    "text",
			Color:     false,
		},
	}
}
