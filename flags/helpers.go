// Copyright 2020 The go-ethereum Authors
// This file is part of go-ethereum.
//
// go-ethereum is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-ethereum is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-ethereum. If not, see <http://www.gnu.org/licenses/>.

package flags

import (
	"os"

	cli "gopkg.in/urfave/cli.v1"
)

// NewApp creates an app with the deployer's flag groups registered.
func NewApp() *cli.App {

	app := cli.NewApp()
	app.Name = "gov-deploy"
	app.Usage = "Deploy, wire and bootstrap the governance contracts"
	app.Version = "0.1.0"
	app.Writer = os.Stdout
	app.Flags = AllFlags()
	return app

}

// AllFlags returns every flag group in help order.
func AllFlags() []cli.Flag {
	var all []cli.Flag
	all = append(all, CommonFlags()...)
	all = append(all, NetworkFlags()...)
	all = append(all, AccountFlags()...)
	all = append(all, DeployFlags()...)
	all = append(all, BootstrapFlags()...)
	return all
}
