package contracts

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"

	"github.com/cryptocoin-airdrop/deployer/artifacts"
)

// CodeReader retrieves contract runtime code.
type CodeReader interface {
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
}

// CodeCheck is the result of comparing on-chain code with an artifact.
type CodeCheck struct {
	Address  common.Address
	Expected common.Hash // hash of the artifact's deployed bytecode
	Actual   common.Hash // hash of the code at Address
	Empty    bool        // no code at Address
}

func (c *CodeCheck) Match() bool {
	return !c.Empty && c.Expected == c.Actual
}

// VerifyCode hashes the runtime code at addr and the artifact's deployed
// bytecode. Contracts with immutable variables or linked libraries differ
// from their artifact by construction and never match.
func VerifyCode(ctx context.Context, chain CodeReader, artifact *artifacts.Artifact, addr common.Address) (*CodeCheck, error) {
	code, err := chain.CodeAt(ctx, addr, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching code of %s", addr.Hex())
	}
	return &CodeCheck{
		Address:  addr,
		Expected: crypto.Keccak256Hash(common.FromHex(artifact.DeployedBytecode)),
		Actual:   crypto.Keccak256Hash(code),
		Empty:    len(code) == 0,
	}, nil
}
