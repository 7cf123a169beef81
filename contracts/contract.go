package contracts

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"

	"github.com/cryptocoin-airdrop/deployer/artifacts"
)

var confirmationPollInterval = time.Second

// Contract is a contract instance created by a Factory.
type Contract struct {
	Name     string
	Artifact *artifacts.Artifact
	Args     []interface{} // constructor arguments as encoded

	address       common.Address
	deployer      common.Address
	tx            *types.Transaction
	receipt       *types.Receipt
	backend       Backend
	confirmations uint64
}

func (c *Contract) Address() common.Address          { return c.address }
func (c *Contract) Deployer() common.Address         { return c.deployer }
func (c *Contract) Transaction() *types.Transaction { return c.tx }

// Receipt returns the creation receipt, or nil before Deployed succeeded.
func (c *Contract) Receipt() *types.Receipt { return c.receipt }

// Deployed blocks until the creation transaction is mined with code at the
// contract address and the configured number of confirmations reached.
func (c *Contract) Deployed(ctx context.Context) (*types.Receipt, error) {
	if c.receipt != nil {
		return c.receipt, nil
	}
	addr, err := bind.WaitDeployed(ctx, c.backend, c.tx)
	if err != nil {
		return nil, errors.Wrapf(err, "waiting for %s deployment %s", c.Name, c.tx.Hash().Hex())
	}
	if addr != c.address {
		return nil, fmt.Errorf("%s deployed at %s, expected %s", c.Name, addr.Hex(), c.address.Hex())
	}
	receipt, err := c.backend.TransactionReceipt(ctx, c.tx.Hash())
	if err != nil {
		return nil, errors.Wrapf(err, "fetching %s deployment receipt", c.Name)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%s deployment %s failed", c.Name, c.tx.Hash().Hex())
	}
	if c.confirmations > 1 {
		log.Info("Waiting for confirmations", "name", c.Name, "block", receipt.BlockNumber, "confirmations", c.confirmations)
		if err := waitConfirmations(ctx, c.backend, receipt.BlockNumber.Uint64(), c.confirmations); err != nil {
			return nil, errors.Wrapf(err, "confirming %s deployment", c.Name)
		}
	}
	log.Info("Contract deployed", "name", c.Name, "address", c.address, "block", receipt.BlockNumber, "gas", receipt.GasUsed)
	c.receipt = receipt
	return receipt, nil
}

// waitConfirmations polls the chain head until the block holding the
// transaction has confs-1 descendants.
func waitConfirmations(ctx context.Context, chain ethereum.BlockNumberReader, block, confs uint64) error {
	target := block + confs - 1
	ticker := time.NewTicker(confirmationPollInterval)
	defer ticker.Stop()

	for {
		head, err := chain.BlockNumber(ctx)
		if err != nil {
			log.Trace("Failed to retrieve chain head", "err", err)
		} else if head >= target {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
