package main

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/params"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"

	"github.com/cryptocoin-airdrop/deployer/artifacts"
	"github.com/cryptocoin-airdrop/deployer/deployments"
	"github.com/cryptocoin-airdrop/deployer/internal/flags"
	"github.com/cryptocoin-airdrop/deployer/network"
	"github.com/cryptocoin-airdrop/deployer/scripts"
)

var (
	runCommand = &cli.Command{
		Action:    runScript,
		Name:      "run",
		Usage:     "Run a deployment script",
		ArgsUsage: "<script>",
		Category:  flags.DeployCategory,
		Description: `
The run command deploys the contracts of a script on the selected network and
prints the address of each one as it is confirmed. A failed deployment stops
the script and makes the command exit with a non-zero status.`,
	}
	scriptsCommand = &cli.Command{
		Action:   listScripts,
		Name:     "scripts",
		Usage:    "List the available deployment scripts",
		Category: flags.DeployCategory,
	}
	accountsCommand = &cli.Command{
		Action:   listAccounts,
		Name:     "accounts",
		Usage:    "Show the signer accounts of the selected network and their balances",
		Category: flags.NetworkCategory,
	}
)

// dial connects to the network selected by the configuration and flags.
func dial(ctx *cli.Context, cfg *deployerConfig) (*network.Conn, error) {
	name, netcfg, err := networkConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return network.Dial(ctx.Context, name, netcfg)
}

func runScript(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.New("expected exactly one script name")
	}
	script := ctx.Args().First()
	if !scripts.Has(script) {
		return fmt.Errorf("unknown script %q", script)
	}
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	libs, err := parseLibraries(ctx.StringSlice(libraryFlag.Name))
	if err != nil {
		return err
	}
	store, err := artifacts.NewStore(cfg.Paths.Artifacts)
	if err != nil {
		return err
	}
	conn, err := dial(ctx, cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	rt := &scripts.Runtime{
		Network:     conn,
		Artifacts:   store,
		Deployments: deployments.NewStore(cfg.Paths.Deployments),
		Libraries:   libs,
		Out:         ctx.App.Writer,
	}
	return rt.Run(ctx.Context, script)
}

func listScripts(ctx *cli.Context) error {
	for _, name := range scripts.Names() {
		fmt.Fprintln(ctx.App.Writer, name)
	}
	return nil
}

func listAccounts(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	conn, err := dial(ctx, cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	table := tablewriter.NewWriter(ctx.App.Writer)
	table.SetHeader([]string{"#", "Address", "Balance (ETH)"})
	for i, addr := range conn.Accounts {
		balance, err := conn.Backend.BalanceAt(ctx.Context, addr, nil)
		if err != nil {
			return err
		}
		table.Append([]string{fmt.Sprint(i), addr.Hex(), formatEther(balance)})
	}
	table.Render()
	return nil
}

// formatEther renders a wei amount in ether.
func formatEther(wei *big.Int) string {
	f := new(big.Float).SetInt(wei)
	f.Quo(f, big.NewFloat(params.Ether))
	return f.Text('f', 4)
}
