// Package contracts deploys compiled artifacts and tracks the resulting
// contract instances until their creation is confirmed on chain.
package contracts

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"

	"github.com/cryptocoin-airdrop/deployer/artifacts"
)

// Backend is the chain access needed to deploy and confirm contracts.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	ethereum.BlockNumberReader
}

// Options tune how a factory sends its creation transactions.
type Options struct {
	Libraries     map[string]common.Address // library addresses to link, by bare or qualified name
	GasLimit      uint64                    // zero estimates the limit
	GasPrice      *big.Int                  // nil lets the backend suggest fees
	Confirmations uint64                    // blocks to wait for, at least one
}

// Factory creates instances of one compiled contract.
type Factory struct {
	artifact *artifacts.Artifact
	backend  Backend
	signer   *bind.TransactOpts
	opts     Options
}

func NewFactory(artifact *artifacts.Artifact, backend Backend, signer *bind.TransactOpts, opts Options) *Factory {
	return &Factory{
		artifact: artifact,
		backend:  backend,
		signer:   signer,
		opts:     opts,
	}
}

func (f *Factory) Name() string                  { return f.artifact.ContractName }
func (f *Factory) Artifact() *artifacts.Artifact { return f.artifact }

// Deploy sends the creation transaction with the given constructor arguments.
// The returned contract already knows its address; call Deployed to wait for
// the transaction to be mined.
func (f *Factory) Deploy(ctx context.Context, args ...interface{}) (*Contract, error) {
	name := f.artifact.ContractName

	bytecode, err := f.artifact.Link(f.opts.Libraries)
	if err != nil {
		return nil, err
	}
	params, err := coerceArgs(f.artifact.ABI.Constructor.Inputs, args)
	if err != nil {
		return nil, errors.Wrapf(err, "encoding %s constructor", name)
	}
	auth := *f.signer
	auth.Context = ctx
	if f.opts.GasLimit != 0 {
		auth.GasLimit = f.opts.GasLimit
	}
	if f.opts.GasPrice != nil {
		auth.GasPrice = f.opts.GasPrice
	}
	log.Debug("Deploying contract", "name", name, "from", auth.From, "args", len(params))

	addr, tx, _, err := bind.DeployContract(&auth, f.artifact.ABI, bytecode, f.backend, params...)
	if err != nil {
		return nil, errors.Wrapf(err, "deploying %s", name)
	}
	log.Info("Submitted contract creation", "name", name, "address", addr, "tx", tx.Hash(), "nonce", tx.Nonce())

	confs := f.opts.Confirmations
	if confs == 0 {
		confs = 1
	}
	return &Contract{
		Name:          name,
		Artifact:      f.artifact,
		Args:          params,
		address:       addr,
		deployer:      auth.From,
		tx:            tx,
		backend:       f.backend,
		confirmations: confs,
	}, nil
}
