// Package scripts holds the deployment scripts and the environment they run
// in: artifact lookup, a connected network and the deployment records.
package scripts

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"

	"github.com/cryptocoin-airdrop/deployer/artifacts"
	"github.com/cryptocoin-airdrop/deployer/contracts"
	"github.com/cryptocoin-airdrop/deployer/deployments"
	"github.com/cryptocoin-airdrop/deployer/network"
)

// Func is a deployment script.
type Func func(ctx context.Context, rt *Runtime) error

var registry = make(map[string]Func)

// Register makes a script available by name. It panics on duplicates.
func Register(name string, fn Func) {
	if _, ok := registry[name]; ok {
		panic("scripts: duplicate script " + name)
	}
	registry[name] = fn
}

// Names lists the registered scripts in order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether a script is registered under name.
func Has(name string) bool {
	_, ok := registry[name]
	return ok
}

// Runtime is the environment handed to a script.
type Runtime struct {
	Network     *network.Conn
	Artifacts   *artifacts.Store
	Deployments *deployments.Store // nil disables records
	Libraries   map[string]common.Address
	Out         io.Writer
}

// Run executes a registered script, bounded by the network timeout.
func (rt *Runtime) Run(ctx context.Context, name string) error {
	fn, ok := registry[name]
	if !ok {
		return fmt.Errorf("unknown script %q", name)
	}
	ctx, cancel := context.WithTimeout(ctx, rt.Network.Timeout())
	defer cancel()

	start := time.Now()
	log.Info("Running script", "script", name, "network", rt.Network.Name)
	if err := fn(ctx, rt); err != nil {
		log.Error("Script failed", "script", name, "network", rt.Network.Name, "err", err)
		return errors.Wrapf(err, "script %s", name)
	}
	log.Info("Script finished", "script", name, "elapsed", time.Since(start))
	return nil
}

// GetContractFactory resolves a contract by name into a factory bound to the
// runtime's network and signer.
func (rt *Runtime) GetContractFactory(name string) (*contracts.Factory, error) {
	artifact, err := rt.Artifacts.Lookup(name)
	if err != nil {
		return nil, err
	}
	conn := rt.Network
	return contracts.NewFactory(artifact, conn.Backend, conn.Signer, contracts.Options{
		Libraries:     rt.Libraries,
		GasLimit:      conn.Config.GasLimit,
		GasPrice:      conn.Config.GasPrice,
		Confirmations: conn.Confirmations(),
	}), nil
}

// Publish records a confirmed deployment and prints its address.
func (rt *Runtime) Publish(c *contracts.Contract) error {
	receipt := c.Receipt()
	if receipt == nil {
		return fmt.Errorf("%s is not deployed yet", c.Name)
	}
	if rt.Deployments != nil && !rt.Network.InProcess() {
		rec := &deployments.Record{
			ContractName:    c.Name,
			SourceName:      c.Artifact.SourceName,
			Address:         c.Address(),
			TransactionHash: receipt.TxHash,
			BlockNumber:     receipt.BlockNumber.Uint64(),
			Deployer:        c.Deployer(),
			ChainID:         rt.Network.ChainID.Uint64(),
			Args:            deployments.FormatArgs(c.Args),
			ABI:             c.Artifact.RawABI,
			DeployedAt:      time.Now().UTC(),
		}
		if err := rt.Deployments.Save(rt.Network.Name, rec); err != nil {
			return errors.Wrapf(err, "recording %s deployment", c.Name)
		}
	}
	_, err := fmt.Fprintf(rt.Out, "Endereço do %s %s\n", c.Name, c.Address().Hex())
	return err
}

// deploy resolves, deploys, confirms and publishes one contract.
func deploy(ctx context.Context, rt *Runtime, name string, args ...interface{}) (*contracts.Contract, error) {
	factory, err := rt.GetContractFactory(name)
	if err != nil {
		return nil, err
	}
	c, err := factory.Deploy(ctx, args...)
	if err != nil {
		return nil, err
	}
	if _, err := c.Deployed(ctx); err != nil {
		return nil, err
	}
	return c, rt.Publish(c)
}
