package orchestrator

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/rony4d/gov-deployer/gov/contracts"
	"github.com/rony4d/gov-deployer/gov/manifest"
)

// Name is the logical name of a component within one run.
type Name string

const (
	Registry      Name = "registry"
	Staking       Name = "staking"
	BallotStorage Name = "ballotStorage"
	EnvStorageImp Name = "envStorageImp"
	EnvStorage    Name = "envStorage"
	GovImp        Name = "govImp"
	Gov           Name = "gov"
)

// ProxyBinding tells how a proxy learns its logic address.
type ProxyBinding uint8

const (
	BindConstructor ProxyBinding = iota // passed to the proxy constructor
	BindInit                            // passed to the proxy's one-time init
)

func (b ProxyBinding) String() string {
	if b == BindInit {
		return "init"
	}
	return "constructor"
}

// ProxyRelation links a stable-address proxy to its replaceable logic component.
type ProxyRelation struct {
	Proxy   Name
	Logic   Name
	Binding ProxyBinding
}

// Component describes one deployable unit.
type Component struct {
	Name     Name
	Contract string
	// Deps must be deployed before this component; their addresses are the
	// leading constructor arguments, in order.
	Deps  []Name
	Extra []interface{} // constructor arguments following Deps
	Proxy *ProxyRelation
}

// Components is the fixed deployment plan, in dependency order.
var Components = []Component{
	{Name: Registry, Contract: contracts.Registry},
	{Name: Staking, Contract: contracts.Staking, Deps: []Name{Registry}, Extra: []interface{}{[]byte{}}},
	{Name: BallotStorage, Contract: contracts.BallotStorage, Deps: []Name{Registry}},
	{Name: EnvStorageImp, Contract: contracts.EnvStorageImp},
	{
		Name: EnvStorage, Contract: contracts.EnvStorage, Deps: []Name{Registry, EnvStorageImp},
		Proxy: &ProxyRelation{Proxy: EnvStorage, Logic: EnvStorageImp, Binding: BindConstructor},
	},
	{Name: GovImp, Contract: contracts.GovImp},
	{
		Name: Gov, Contract: contracts.Gov,
		Proxy: &ProxyRelation{Proxy: Gov, Logic: GovImp, Binding: BindInit},
	},
}

// component looks up the plan entry for name.
func component(name Name) (Component, bool) {
	for _, c := range Components {
		if c.Name == name {
			return c, true
		}
	}
	return Component{}, false
}

// DeployedComponent is a component live on the network.
type DeployedComponent struct {
	Name     Name
	Contract string
	Address  common.Address
	Receipt  *types.Receipt
}

// DeploymentSet is the ordered, append-only collection of components
// deployed in one run.
type DeploymentSet struct {
	order  []Name
	byName map[Name]DeployedComponent
}

// NewDeploymentSet returns an empty set.
func NewDeploymentSet() *DeploymentSet {
	return &DeploymentSet{byName: make(map[Name]DeployedComponent)}
}

// constructorArgs builds the constructor arguments of c from the set.
func (s *DeploymentSet) constructorArgs(c Component) ([]interface{}, error) {
	args := make([]interface{}, 0, len(c.Deps)+len(c.Extra))
	for _, dep := range c.Deps {
		d, ok := s.byName[dep]
		if !ok {
			return nil, fmt.Errorf("%s depends on %s which is not deployed", c.Name, dep)
		}
		args = append(args, d.Address)
	}
	return append(args, c.Extra...), nil
}

// Add records a deployed component. Each name may be added once, only if it
// is part of the plan and all of its dependencies are already present.
func (s *DeploymentSet) Add(name Name, addr common.Address, receipt *types.Receipt) error {
	c, ok := component(name)
	if !ok {
		return fmt.Errorf("unknown component %q", name)
	}
	if _, dup := s.byName[name]; dup {
		return fmt.Errorf("component %s already deployed", name)
	}
	if addr == (common.Address{}) {
		return fmt.Errorf("component %s has zero address", name)
	}
	for _, dep := range c.Deps {
		if _, ok := s.byName[dep]; !ok {
			return fmt.Errorf("%s depends on %s which is not deployed", name, dep)
		}
	}
	s.order = append(s.order, name)
	s.byName[name] = DeployedComponent{Name: name, Contract: c.Contract, Address: addr, Receipt: receipt}
	return nil
}

// Get returns the deployed component called name.
func (s *DeploymentSet) Get(name Name) (DeployedComponent, bool) {
	d, ok := s.byName[name]
	return d, ok
}

// Address returns the address of name, or the zero address.
func (s *DeploymentSet) Address(name Name) common.Address {
	return s.byName[name].Address
}

// Names lists deployed components in deployment order.
func (s *DeploymentSet) Names() []Name {
	return append([]Name(nil), s.order...)
}

// Len returns the number of components deployed so far.
func (s *DeploymentSet) Len() int {
	return len(s.order)
}

// Complete reports whether every planned component is deployed.
func (s *DeploymentSet) Complete() bool {
	return len(s.order) == len(Components)
}

// Proxies lists the proxy relations whose both ends are deployed.
func (s *DeploymentSet) Proxies() []ProxyRelation {
	var out []ProxyRelation
	for _, c := range Components {
		if c.Proxy == nil {
			continue
		}
		_, p := s.byName[c.Proxy.Proxy]
		_, l := s.byName[c.Proxy.Logic]
		if p && l {
			out = append(out, *c.Proxy)
		}
	}
	return out
}

// Clone returns an independent copy of the set.
func (s *DeploymentSet) Clone() *DeploymentSet {
	cp := NewDeploymentSet()
	cp.order = append(cp.order, s.order...)
	for k, v := range s.byName {
		cp.byName[k] = v
	}
	return cp
}

// Manifest builds the address snapshot persisted at the end of a run.
func (s *DeploymentSet) Manifest() manifest.Manifest {
	return manifest.Manifest{
		Registry:      s.Address(Registry),
		Staking:       s.Address(Staking),
		EnvStorage:    s.Address(EnvStorage),
		BallotStorage: s.Address(BallotStorage),
		Gov:           s.Address(Gov),
	}
}
