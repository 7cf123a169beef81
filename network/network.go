// Package network connects to a named chain and prepares the accounts that
// sign deployment transactions on it.
package network

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"

	"github.com/cryptocoin-airdrop/deployer/devnet"
	"github.com/cryptocoin-airdrop/deployer/internal/hdwallet"
)

var (
	ErrNoSigner      = errors.New("no signer account configured")
	ErrChainMismatch = errors.New("chain id mismatch")
)

// Backend is the chain access shared by deployments and account queries.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	ethereum.ChainIDReader
	ethereum.BlockNumberReader
	ethereum.ChainStateReader
}

// Conn is an open connection to a named network.
type Conn struct {
	Name     string
	Config   Config
	Backend  Backend
	ChainID  *big.Int
	Signer   *bind.TransactOpts
	Accounts []common.Address

	chain *devnet.Chain
	close func()
}

// Dial opens the network: the in-process development chain for the
// "hardhat" network without a URL, an RPC connection otherwise.
func Dial(ctx context.Context, name string, cfg Config) (*Conn, error) {
	conn := &Conn{Name: name, Config: cfg}
	if name == InProcess && cfg.URL == "" {
		chain, err := devnet.New(devnet.Config{Mnemonic: cfg.Mnemonic})
		if err != nil {
			return nil, errors.Wrap(err, "starting development chain")
		}
		conn.chain = chain
		conn.Backend = chain.Client()
		conn.close = func() { chain.Close() }
	} else {
		if cfg.URL == "" {
			return nil, fmt.Errorf("network %q has no URL", name)
		}
		client, err := ethclient.DialContext(ctx, cfg.URL)
		if err != nil {
			return nil, errors.Wrapf(err, "connecting to %s", cfg.URL)
		}
		conn.Backend = client
		conn.close = client.Close
	}
	if err := conn.init(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	log.Info("Connected to network", "network", name, "chainid", conn.ChainID, "deployer", conn.Signer.From)
	return conn, nil
}

func (c *Conn) init(ctx context.Context) error {
	chainID, err := c.Backend.ChainID(ctx)
	if err != nil {
		return errors.Wrapf(err, "retrieving chain id of %s", c.Name)
	}
	if c.Config.ChainID != 0 && c.Config.ChainID != chainID.Uint64() {
		return errors.Wrapf(ErrChainMismatch, "network %s is configured for %d but the node reports %d", c.Name, c.Config.ChainID, chainID)
	}
	c.ChainID = chainID

	keys, err := c.keys()
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return errors.Wrapf(ErrNoSigner, "network %s", c.Name)
	}
	c.Accounts = make([]common.Address, len(keys))
	for i, key := range keys {
		c.Accounts[i] = crypto.PubkeyToAddress(key.PublicKey)
	}
	c.Signer, err = bind.NewKeyedTransactorWithChainID(keys[0], chainID)
	return err
}

// keys returns the accounts of the first configured signer source.
func (c *Conn) keys() ([]*ecdsa.PrivateKey, error) {
	cfg := c.Config
	switch {
	case len(cfg.Accounts) > 0:
		keys := make([]*ecdsa.PrivateKey, 0, len(cfg.Accounts))
		for i, hexkey := range cfg.Accounts {
			key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexkey), "0x"))
			if err != nil {
				return nil, errors.Wrapf(err, "account #%d of network %s", i, c.Name)
			}
			keys = append(keys, key)
		}
		return keys, nil

	case cfg.Keystore != "":
		key, err := decryptKeystore(cfg.Keystore, cfg.Password, cfg.PasswordFile)
		if err != nil {
			return nil, err
		}
		return []*ecdsa.PrivateKey{key}, nil

	case cfg.Mnemonic != "" && c.chain == nil:
		wallet, err := hdwallet.New(cfg.Mnemonic, "")
		if err != nil {
			return nil, err
		}
		base := accounts.DefaultBaseDerivationPath
		if cfg.HDPath != "" {
			if base, err = accounts.ParseDerivationPath(cfg.HDPath); err != nil {
				return nil, errors.Wrapf(err, "hd path of network %s", c.Name)
			}
		}
		return wallet.Keys(base, devnet.DefaultAccounts)

	case c.chain != nil:
		return c.chain.Keys(), nil
	}
	return nil, nil
}

func decryptKeystore(path, password, passwordFile string) (*ecdsa.PrivateKey, error) {
	keyjson, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading keystore")
	}
	if password == "" && passwordFile != "" {
		blob, err := os.ReadFile(passwordFile)
		if err != nil {
			return nil, errors.Wrap(err, "reading password file")
		}
		password = strings.TrimRight(string(blob), "\r\n")
	}
	key, err := keystore.DecryptKey(keyjson, password)
	if err != nil {
		return nil, errors.Wrapf(err, "decrypting %s", path)
	}
	return key.PrivateKey, nil
}

// InProcess reports whether the network is the development chain running
// inside this process. Its state is discarded on Close.
func (c *Conn) InProcess() bool { return c.chain != nil }

// Confirmations is the number of blocks a deployment waits for.
func (c *Conn) Confirmations() uint64 {
	if c.chain != nil || c.Config.Confirmations == 0 {
		return 1
	}
	return c.Config.Confirmations
}

// Timeout bounds the time a script may spend on this network.
func (c *Conn) Timeout() time.Duration {
	if c.Config.Timeout > 0 {
		return time.Duration(c.Config.Timeout)
	}
	return DefaultTimeout
}

func (c *Conn) Close() {
	if c.close != nil {
		c.close()
		c.close = nil
	}
}
