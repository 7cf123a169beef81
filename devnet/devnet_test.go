package devnet

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/params"
	"github.com/stretchr/testify/require"
)

func newTestChain(t *testing.T) *Chain {
	t.Helper()
	chain, err := New(Config{Accounts: 2})
	require.NoError(t, err)
	t.Cleanup(func() { chain.Close() })
	return chain
}

func TestChainAccounts(t *testing.T) {
	chain := newTestChain(t)
	ctx := context.Background()

	id, err := chain.Client().ChainID(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(ChainID), id.Int64())

	accs := chain.Accounts()
	require.Len(t, accs, 2)
	require.Equal(t, common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"), accs[0])

	balance, err := chain.Client().BalanceAt(ctx, accs[1], nil)
	require.NoError(t, err)
	require.Equal(t, DefaultBalance, balance)
}

func TestSendTransactionMines(t *testing.T) {
	chain := newTestChain(t)
	ctx := context.Background()
	client := chain.Client()

	head, err := client.BlockNumber(ctx)
	require.NoError(t, err)

	from, to := chain.Keys()[0], chain.Accounts()[1]
	nonce, err := client.PendingNonceAt(ctx, chain.Accounts()[0])
	require.NoError(t, err)
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   big.NewInt(ChainID),
		Nonce:     nonce,
		GasTipCap: big.NewInt(params.GWei),
		GasFeeCap: big.NewInt(10 * params.GWei),
		Gas:       params.TxGas,
		To:        &to,
		Value:     big.NewInt(1),
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(big.NewInt(ChainID)), from)
	require.NoError(t, err)
	require.NoError(t, client.SendTransaction(ctx, signed))

	receipt, err := client.TransactionReceipt(ctx, signed.Hash())
	require.NoError(t, err)
	require.Equal(t, types.ReceiptStatusSuccessful, receipt.Status)
	require.Equal(t, head+1, receipt.BlockNumber.Uint64())
}
