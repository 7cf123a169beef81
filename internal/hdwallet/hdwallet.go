// Package hdwallet derives secp256k1 account keys from a BIP-39 mnemonic.
package hdwallet

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"
)

// DevMnemonic is the well known mnemonic development chains fund by default.
const DevMnemonic = "test test test test test test test test test test test junk"

var ErrInvalidMnemonic = errors.New("invalid mnemonic")

// Wallet is a BIP-32 master key created from a mnemonic seed.
type Wallet struct {
	master *bip32.Key
}

// New validates the mnemonic and builds the master key from its seed.
func New(mnemonic, passphrase string) (*Wallet, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	master, err := bip32.NewMasterKey(bip39.NewSeed(mnemonic, passphrase))
	if err != nil {
		return nil, errors.Wrap(err, "creating master key")
	}
	return &Wallet{master: master}, nil
}

// Derive returns the private key at the given derivation path.
func (w *Wallet) Derive(path accounts.DerivationPath) (*ecdsa.PrivateKey, error) {
	key := w.master
	for _, index := range path {
		child, err := key.NewChildKey(index)
		if err != nil {
			return nil, errors.Wrapf(err, "deriving %s", path)
		}
		key = child
	}
	return crypto.ToECDSA(common.LeftPadBytes(key.Key, 32))
}

// Keys derives n consecutive keys, incrementing the last component of base.
func (w *Wallet) Keys(base accounts.DerivationPath, n int) ([]*ecdsa.PrivateKey, error) {
	next := accounts.DefaultIterator(base)
	keys := make([]*ecdsa.PrivateKey, 0, n)
	for i := 0; i < n; i++ {
		key, err := w.Derive(next())
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}
