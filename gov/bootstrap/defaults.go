package bootstrap

import (
	"math/big"

	"github.com/ethereum/go-ethereum/params"

	"github.com/rony4d/gov-deployer/gov/enode"
)

// DefaultEnode is the node key of the reference "miner" member.
const DefaultEnode = "0x6f8a80d14311c39f35f516fa664deaaaa13e85b2f7493f37f6144d86991ec012937307647bd3b9a82abe2974e1407241d54947bbb39763a4cac9f77166ad92a0"

// Defaults returns the reference bootstrap bundle.
func Defaults() Params {
	id, err := enode.FromString(DefaultEnode)
	if err != nil {
		panic(err)
	}
	return Params{
		StakeAmount: big.NewInt(params.Ether), // 1 coin
		Member: Member{
			Name:  "miner",
			Enode: id,
			IP:    "127.0.0.1",
			Port:  8542,
		},
		Env: Env{
			BlocksPer:            100,
			BallotDurationMin:    86400,  // 1 day
			BallotDurationMax:    604800, // 7 days
			StakingMin:           mustBig("4980000000000000000000000"),
			StakingMax:           mustBig("39840000000000000000000000"),
			GasPrice:             big.NewInt(80 * params.GWei),
			MaxIdleBlockInterval: 5,
		},
	}
}

func mustBig(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bootstrap: bad integer " + s)
	}
	return v
}
