package network

import (
	"math/big"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cryptocoin-airdrop/deployer/devnet"
	"github.com/cryptocoin-airdrop/deployer/internal/hdwallet"
)

const (
	// InProcess names the development chain that runs inside the deployer.
	InProcess = "hardhat"
	// Localhost names a development node listening on the default port.
	Localhost = "localhost"

	DefaultTimeout = 5 * time.Minute
)

// Config describes how to reach a network and who signs transactions on it.
type Config struct {
	URL     string `toml:",omitempty" yaml:"url,omitempty"`
	ChainID uint64 `toml:",omitempty" yaml:"chainId,omitempty"`

	// Signer sources, tried in this order.
	Accounts     []string `toml:",omitempty" yaml:"accounts,omitempty"` // hex encoded private keys
	Keystore     string   `toml:",omitempty" yaml:"keystore,omitempty"`
	PasswordFile string   `toml:",omitempty" yaml:"passwordFile,omitempty"`
	Password     string   `toml:"-" yaml:"-"`
	Mnemonic     string   `toml:",omitempty" yaml:"mnemonic,omitempty"`
	HDPath       string   `toml:",omitempty" yaml:"hdPath,omitempty"`

	GasPrice      *big.Int      `toml:",omitempty" yaml:"gasPrice,omitempty"`
	GasLimit      uint64        `toml:",omitempty" yaml:"gasLimit,omitempty"`
	Confirmations uint64        `toml:",omitempty" yaml:"confirmations,omitempty"`
	Timeout       Duration      `toml:",omitempty" yaml:"timeout,omitempty"`
}

// Merge overlays the fields set in o onto c.
func (c *Config) Merge(o *Config) {
	if o.URL != "" {
		c.URL = o.URL
	}
	if o.ChainID != 0 {
		c.ChainID = o.ChainID
	}
	if len(o.Accounts) > 0 {
		c.Accounts = o.Accounts
	}
	if o.Keystore != "" {
		c.Keystore = o.Keystore
	}
	if o.PasswordFile != "" {
		c.PasswordFile = o.PasswordFile
	}
	if o.Password != "" {
		c.Password = o.Password
	}
	if o.Mnemonic != "" {
		c.Mnemonic = o.Mnemonic
	}
	if o.HDPath != "" {
		c.HDPath = o.HDPath
	}
	if o.GasPrice != nil {
		c.GasPrice = o.GasPrice
	}
	if o.GasLimit != 0 {
		c.GasLimit = o.GasLimit
	}
	if o.Confirmations != 0 {
		c.Confirmations = o.Confirmations
	}
	if o.Timeout != 0 {
		c.Timeout = o.Timeout
	}
}

// Duration is a time.Duration written as text ("2m30s") in config files.
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalYAML and UnmarshalYAML keep YAML on the same text form.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	return d.UnmarshalText([]byte(value.Value))
}

// Defaults returns the built-in network configurations.
func Defaults() map[string]*Config {
	return map[string]*Config{
		InProcess: {
			ChainID: devnet.ChainID,
		},
		Localhost: {
			URL:      "http://127.0.0.1:8545",
			Mnemonic: hdwallet.DevMnemonic,
		},
	}
}
