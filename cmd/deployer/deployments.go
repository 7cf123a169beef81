package main

import (
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"

	"github.com/cryptocoin-airdrop/deployer/artifacts"
	"github.com/cryptocoin-airdrop/deployer/contracts"
	"github.com/cryptocoin-airdrop/deployer/deployments"
	"github.com/cryptocoin-airdrop/deployer/internal/flags"
)

var (
	deploymentsCommand = &cli.Command{
		Action:   listDeployments,
		Name:     "deployments",
		Usage:    "Show the recorded deployments of the selected network",
		Category: flags.DeployCategory,
	}
	verifyCommand = &cli.Command{
		Action:   verifyDeployments,
		Name:     "verify",
		Usage:    "Check recorded deployments against the code on chain",
		Category: flags.DeployCategory,
		Description: `
The verify command compares the runtime code at every recorded address with the
deployed bytecode of the matching artifact. It fails if any contract differs.`,
	}
)

// records loads the deployment records of the selected network.
func records(ctx *cli.Context, cfg *deployerConfig) (string, []*deployments.Record, error) {
	env, err := readEnv()
	if err != nil {
		return "", nil, err
	}
	name, _, err := resolveNetwork(cfg, env, ctx.String(networkFlag.Name))
	if err != nil {
		return "", nil, err
	}
	recs, err := deployments.NewStore(cfg.Paths.Deployments).List(name)
	return name, recs, err
}

func listDeployments(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	name, recs, err := records(ctx, cfg)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Fprintf(ctx.App.Writer, "No deployments recorded on %s\n", name)
		return nil
	}
	table := tablewriter.NewWriter(ctx.App.Writer)
	table.SetHeader([]string{"Contract", "Address", "Block", "Transaction", "Deployed"})
	for _, rec := range recs {
		table.Append([]string{
			rec.ContractName,
			rec.Address.Hex(),
			fmt.Sprint(rec.BlockNumber),
			rec.TransactionHash.Hex(),
			rec.DeployedAt.Format(time.RFC3339),
		})
	}
	table.Render()
	return nil
}

func verifyDeployments(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	name, recs, err := records(ctx, cfg)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Fprintf(ctx.App.Writer, "No deployments recorded on %s\n", name)
		return nil
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

	table := tablewriter.NewWriter(ctx.App.Writer)
	table.SetHeader([]string{"Contract", "Address", "Result"})
	var failed int
	for _, rec := range recs {
		lookup := rec.ContractName
		if rec.SourceName != "" {
			lookup = rec.SourceName + ":" + rec.ContractName
		}
		artifact, err := store.Lookup(lookup)
		if err != nil {
			return err
		}
		check, err := contracts.VerifyCode(ctx.Context, conn.Backend, artifact, rec.Address)
		if err != nil {
			return err
		}
		result := "MATCH"
		switch {
		case check.Empty:
			result = "NO CODE"
		case !check.Match():
			result = "MISMATCH"
		}
		if result != "MATCH" {
			failed++
		}
		table.Append([]string{rec.ContractName, rec.Address.Hex(), result})
	}
	table.Render()
	if failed > 0 {
		return fmt.Errorf("%d of %d contracts on %s differ from their artifacts", failed, len(recs), name)
	}
	return nil
}
