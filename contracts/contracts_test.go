package contracts

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptocoin-airdrop/deployer/artifacts"
	"github.com/cryptocoin-airdrop/deployer/devnet"
)

const (
	// Creation code copying a ten byte runtime that returns 42.
	okBytecode = "0x600a600c600039600a6000f3602a60005260206000f3"
	// Creation code that always reverts.
	revertBytecode = "0x60006000fd"
)

func testArtifact(t *testing.T, name, constructorInputs, bytecode string) *artifacts.Artifact {
	t.Helper()
	a, err := artifacts.Parse([]byte(`{
		"_format": "hh-sol-artifact-1",
		"contractName": "` + name + `",
		"sourceName": "contracts/` + name + `.sol",
		"abi": [{"inputs": ` + constructorInputs + `, "stateMutability": "nonpayable", "type": "constructor"}],
		"bytecode": "` + bytecode + `",
		"deployedBytecode": "0x602a60005260206000f3",
		"linkReferences": {},
		"deployedLinkReferences": {}
	}`))
	require.NoError(t, err)
	return a
}

func newTestBackend(t *testing.T) (*devnet.Chain, *bind.TransactOpts) {
	t.Helper()
	chain, err := devnet.New(devnet.Config{Accounts: 1})
	require.NoError(t, err)
	t.Cleanup(func() { chain.Close() })

	signer, err := bind.NewKeyedTransactorWithChainID(chain.Keys()[0], big.NewInt(devnet.ChainID))
	require.NoError(t, err)
	return chain, signer
}

func TestDeployAndWait(t *testing.T) {
	chain, signer := newTestBackend(t)
	ctx := context.Background()

	token := NewFactory(testArtifact(t, "CryptoToken", `[{"name":"initialSupply","type":"uint256"}]`, okBytecode), chain.Client(), signer, Options{})
	require.Equal(t, "CryptoToken", token.Name())

	c, err := token.Deploy(ctx, 1000)
	require.NoError(t, err)
	require.Equal(t, crypto.CreateAddress(signer.From, 0), c.Address())
	require.Equal(t, signer.From, c.Deployer())
	require.Equal(t, []interface{}{big.NewInt(1000)}, c.Args)
	require.Nil(t, c.Receipt())

	receipt, err := c.Deployed(ctx)
	require.NoError(t, err)
	require.Equal(t, c.Address(), receipt.ContractAddress)
	require.Same(t, receipt, c.Receipt())

	code, err := chain.Client().CodeAt(ctx, c.Address(), nil)
	require.NoError(t, err)
	require.Equal(t, common.FromHex("0x602a60005260206000f3"), code)

	// A second contract takes the first one as its address argument.
	airdrop := NewFactory(testArtifact(t, "Airdrop", `[{"name":"_token","type":"address"}]`, okBytecode), chain.Client(), signer, Options{})
	a, err := airdrop.Deploy(ctx, c)
	require.NoError(t, err)
	require.Equal(t, []interface{}{c.Address()}, a.Args)
	require.Equal(t, crypto.CreateAddress(signer.From, 1), a.Address())
	_, err = a.Deployed(ctx)
	require.NoError(t, err)
}

func TestDeployWithGasOverrides(t *testing.T) {
	chain, signer := newTestBackend(t)
	ctx := context.Background()

	f := NewFactory(testArtifact(t, "CryptoCoin", `[{"name":"initialSupply","type":"uint256"}]`, okBytecode), chain.Client(), signer, Options{
		GasLimit: 200_000,
		GasPrice: big.NewInt(2_000_000_000),
	})
	c, err := f.Deploy(ctx, "1000")
	require.NoError(t, err)
	require.Equal(t, uint64(200_000), c.Transaction().Gas())
	require.Equal(t, big.NewInt(2_000_000_000), c.Transaction().GasPrice())
	require.Equal(t, uint8(types.LegacyTxType), c.Transaction().Type())
}

func TestDeployReverted(t *testing.T) {
	chain, signer := newTestBackend(t)

	f := NewFactory(testArtifact(t, "CryptoToken", `[{"name":"initialSupply","type":"uint256"}]`, revertBytecode), chain.Client(), signer, Options{})
	_, err := f.Deploy(context.Background(), 1000)
	require.Error(t, err)
	require.Contains(t, err.Error(), "deploying CryptoToken")
}

func TestDeployBadArguments(t *testing.T) {
	chain, signer := newTestBackend(t)
	f := NewFactory(testArtifact(t, "Airdrop", `[{"name":"_token","type":"address"}]`, okBytecode), chain.Client(), signer, Options{})

	_, err := f.Deploy(context.Background())
	require.ErrorContains(t, err, "takes 1 arguments, got 0")

	_, err = f.Deploy(context.Background(), "not-an-address")
	require.ErrorContains(t, err, "_token")
}

func TestCoerce(t *testing.T) {
	uint8T, _ := abi.NewType("uint8", "", nil)
	int8T, _ := abi.NewType("int8", "", nil)
	int64T, _ := abi.NewType("int64", "", nil)
	int256T, _ := abi.NewType("int256", "", nil)
	uint256T, _ := abi.NewType("uint256", "", nil)
	addrT, _ := abi.NewType("address", "", nil)
	strT, _ := abi.NewType("string", "", nil)

	tests := []struct {
		typ  abi.Type
		in   interface{}
		want interface{}
		err  bool
	}{
		{typ: uint8T, in: 18, want: uint8(18)},
		{typ: uint8T, in: 256, err: true},
		{typ: uint8T, in: -1, err: true},
		{typ: uint8T, in: 255, want: uint8(255)},
		{typ: int8T, in: -128, want: int8(-128)},
		{typ: int8T, in: 127, want: int8(127)},
		{typ: int8T, in: 128, err: true},
		{typ: int8T, in: -129, err: true},
		{typ: int64T, in: -5, want: int64(-5)},
		{typ: int256T, in: new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 255)), want: new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 255))},
		{typ: int256T, in: new(big.Int).Lsh(big.NewInt(1), 255), err: true},
		{typ: uint256T, in: (*big.Int)(nil), err: true},
		{typ: uint256T, in: "0x10", want: big.NewInt(16)},
		{typ: uint256T, in: uint64(7), want: big.NewInt(7)},
		{typ: uint256T, in: 1.5, err: true},
		{typ: addrT, in: "0x5FbDB2315678afecb367f032d93F642f64180aa3", want: common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")},
		{typ: addrT, in: "0x5FbD", err: true},
		{typ: strT, in: "CryptoCoin", want: "CryptoCoin"},
	}
	for i, tt := range tests {
		got, err := coerce(tt.typ, tt.in)
		if tt.err {
			assert.Error(t, err, "test %d", i)
			continue
		}
		if assert.NoError(t, err, "test %d", i) {
			assert.Equal(t, tt.want, got, "test %d", i)
		}
	}
}

type fakeHead struct {
	heads []uint64
	calls int
}

func (f *fakeHead) BlockNumber(context.Context) (uint64, error) {
	if f.calls >= len(f.heads) {
		return 0, errors.New("no more heads")
	}
	head := f.heads[f.calls]
	f.calls++
	return head, nil
}

func TestWaitConfirmations(t *testing.T) {
	defer func(d time.Duration) { confirmationPollInterval = d }(confirmationPollInterval)
	confirmationPollInterval = time.Millisecond

	chain := &fakeHead{heads: []uint64{10, 10, 11, 12}}
	require.NoError(t, waitConfirmations(context.Background(), chain, 10, 3))
	require.Equal(t, 4, chain.calls)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	stuck := &fakeHead{heads: []uint64{5}}
	require.ErrorIs(t, waitConfirmations(ctx, stuck, 10, 1), context.DeadlineExceeded)
}

func TestVerifyCode(t *testing.T) {
	chain, signer := newTestBackend(t)
	ctx := context.Background()

	artifact := testArtifact(t, "CryptoCoin", `[{"name":"initialSupply","type":"uint256"}]`, okBytecode)
	c, err := NewFactory(artifact, chain.Client(), signer, Options{}).Deploy(ctx, 1000)
	require.NoError(t, err)
	_, err = c.Deployed(ctx)
	require.NoError(t, err)

	check, err := VerifyCode(ctx, chain.Client(), artifact, c.Address())
	require.NoError(t, err)
	require.True(t, check.Match())

	check, err = VerifyCode(ctx, chain.Client(), artifact, common.Address{0x42})
	require.NoError(t, err)
	require.True(t, check.Empty)
	require.False(t, check.Match())
}
