// Package devnet runs an in-process development chain that seals a block for
// every transaction it accepts.
package devnet

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/eth/ethconfig"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/node"
	"github.com/ethereum/go-ethereum/params"
	"github.com/pkg/errors"

	"github.com/cryptocoin-airdrop/deployer/internal/hdwallet"
)

const (
	ChainID         = 31337
	DefaultAccounts = 20
	DefaultGasLimit = 30_000_000
)

// DefaultBalance is the genesis balance of every development account.
var DefaultBalance = new(big.Int).Mul(big.NewInt(10_000), big.NewInt(params.Ether))

// Config describes the development chain.
type Config struct {
	Mnemonic string
	Accounts int
	Balance  *big.Int
	GasLimit uint64
}

func (c *Config) sanitize() {
	if c.Mnemonic == "" {
		c.Mnemonic = hdwallet.DevMnemonic
	}
	if c.Accounts <= 0 {
		c.Accounts = DefaultAccounts
	}
	if c.Balance == nil {
		c.Balance = DefaultBalance
	}
	if c.GasLimit == 0 {
		c.GasLimit = DefaultGasLimit
	}
}

// Chain is a running development chain.
type Chain struct {
	backend *simulated.Backend
	client  *Client
	keys    []*ecdsa.PrivateKey
}

// New derives the funded accounts and starts the chain.
func New(cfg Config) (*Chain, error) {
	cfg.sanitize()

	wallet, err := hdwallet.New(cfg.Mnemonic, "")
	if err != nil {
		return nil, err
	}
	keys, err := wallet.Keys(accounts.DefaultBaseDerivationPath, cfg.Accounts)
	if err != nil {
		return nil, errors.Wrap(err, "deriving development accounts")
	}
	alloc := make(types.GenesisAlloc, len(keys))
	for _, key := range keys {
		alloc[crypto.PubkeyToAddress(key.PublicKey)] = types.Account{Balance: new(big.Int).Set(cfg.Balance)}
	}
	backend := simulated.NewBackend(alloc, simulated.WithBlockGasLimit(cfg.GasLimit), withChainID(ChainID))

	log.Debug("Started development chain", "chainid", ChainID, "accounts", len(keys))
	return &Chain{
		backend: backend,
		client:  &Client{Client: backend.Client(), backend: backend},
		keys:    keys,
	}, nil
}

func withChainID(id int64) func(*node.Config, *ethconfig.Config) {
	return func(_ *node.Config, ethConf *ethconfig.Config) {
		chainConfig := *ethConf.Genesis.Config
		chainConfig.ChainID = big.NewInt(id)
		ethConf.Genesis.Config = &chainConfig
		ethConf.NetworkId = uint64(id)
	}
}

// Client returns the auto-mining RPC client of the chain.
func (c *Chain) Client() *Client { return c.client }

// Keys returns the private keys of the funded accounts.
func (c *Chain) Keys() []*ecdsa.PrivateKey { return c.keys }

// Accounts returns the addresses of the funded accounts.
func (c *Chain) Accounts() []common.Address {
	addrs := make([]common.Address, len(c.keys))
	for i, key := range c.keys {
		addrs[i] = crypto.PubkeyToAddress(key.PublicKey)
	}
	return addrs
}

// Mine seals a block with whatever is pending.
func (c *Chain) Mine() common.Hash {
	c.client.mu.Lock()
	defer c.client.mu.Unlock()
	return c.backend.Commit()
}

func (c *Chain) Close() error {
	return c.backend.Close()
}

// Client wraps the simulated client so that every submitted transaction is
// mined before SendTransaction returns.
type Client struct {
	simulated.Client

	mu      sync.Mutex
	backend *simulated.Backend
}

func (c *Client) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.Client.SendTransaction(ctx, tx); err != nil {
		return err
	}
	block := c.backend.Commit()
	log.Trace("Mined development block", "hash", block, "tx", tx.Hash())
	return nil
}
