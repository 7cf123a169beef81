// deployer runs the contract deployment scripts against a configured network.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/cryptocoin-airdrop/deployer/internal/debug"
	"github.com/cryptocoin-airdrop/deployer/internal/flags"
)

var (
	// Git information set by linker when building with ci.go.
	gitCommit string
	gitDate   string
)

var (
	configFileFlag = &cli.StringFlag{
		Name:     "config",
		Usage:    "TOML or YAML configuration file",
		Category: flags.MiscCategory,
	}
	networkFlag = &cli.StringFlag{
		Name:     "network",
		Usage:    "Name of the network to deploy to (default \"hardhat\")",
		Category: flags.NetworkCategory,
	}
	rpcFlag = &cli.StringFlag{
		Name:     "rpc",
		Usage:    "Override the RPC endpoint of the selected network",
		Category: flags.NetworkCategory,
	}
	keystoreFlag = &cli.StringFlag{
		Name:     "keystore",
		Usage:    "Encrypted key file used to sign deployments",
		Category: flags.NetworkCategory,
	}
	passwordFileFlag = &cli.StringFlag{
		Name:     "password",
		Usage:    "File holding the keystore password",
		Category: flags.NetworkCategory,
	}
	confirmationsFlag = &cli.Uint64Flag{
		Name:     "confirmations",
		Usage:    "Blocks to wait for after a deployment is mined",
		Category: flags.DeployCategory,
	}
	timeoutFlag = &cli.DurationFlag{
		Name:     "timeout",
		Usage:    "Maximum duration of a script run",
		Category: flags.DeployCategory,
	}
	artifactsFlag = &cli.StringFlag{
		Name:     "artifacts",
		Usage:    "Directory holding the compiled contract artifacts",
		Category: flags.DeployCategory,
	}
	deploymentsFlag = &cli.StringFlag{
		Name:     "deployments",
		Usage:    "Directory where deployment records are written",
		Category: flags.DeployCategory,
	}
	libraryFlag = &cli.StringSliceFlag{
		Name:     "library",
		Usage:    "Library address to link, as Name=0x... (repeatable)",
		Category: flags.DeployCategory,
	}
)

var appFlags = []cli.Flag{
	configFileFlag,
	networkFlag,
	rpcFlag,
	keystoreFlag,
	passwordFileFlag,
	confirmationsFlag,
	timeoutFlag,
	artifactsFlag,
	deploymentsFlag,
	libraryFlag,
}

func newApp() *cli.App {
	app := flags.NewApp(gitCommit, gitDate, "deploys the CryptoCoin, CryptoToken and Airdrop contracts")
	app.Flags = flags.Merge(appFlags, debug.Flags)
	app.Commands = []*cli.Command{
		runCommand,
		scriptsCommand,
		accountsCommand,
		deploymentsCommand,
		verifyCommand,
		dumpConfigCommand,
	}
	app.Before = debug.Setup
	app.After = func(ctx *cli.Context) error {
		debug.Exit()
		return nil
	}
	return app
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
