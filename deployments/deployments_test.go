package deployments

import (
	"encoding/json"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestSaveAndList(t *testing.T) {
	s := NewStore(t.TempDir())

	recs, err := s.List("sepolia")
	require.NoError(t, err)
	require.Empty(t, recs)

	token := &Record{
		ContractName:    "CryptoToken",
		SourceName:      "contracts/CryptoToken.sol",
		Address:         common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"),
		TransactionHash: common.HexToHash("0x01"),
		BlockNumber:     1,
		ChainID:         11155111,
		Args:            []string{"1000"},
		ABI:             json.RawMessage(`[]`),
		DeployedAt:      time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	airdrop := &Record{
		ContractName: "Airdrop",
		Address:      common.HexToAddress("0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512"),
		Args:         []string{token.Address.Hex()},
		DeployedAt:   token.DeployedAt,
	}
	require.NoError(t, s.Save("sepolia", token))
	require.NoError(t, s.Save("sepolia", airdrop))

	recs, err = s.List("sepolia")
	require.NoError(t, err)
	require.Equal(t, []*Record{airdrop, token}, recs)

	_, err = os.Stat(filepath.Join(s.root, "sepolia", "CryptoToken.json.tmp"))
	require.True(t, os.IsNotExist(err))

	// Redeploying replaces the record.
	token.BlockNumber = 7
	require.NoError(t, s.Save("sepolia", token))
	got, err := s.Load("sepolia", "CryptoToken")
	require.NoError(t, err)
	require.Equal(t, uint64(7), got.BlockNumber)
}

func TestFormatArgs(t *testing.T) {
	addr := common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	require.Equal(t,
		[]string{"1000", addr.Hex(), "true", "CryptoCoin"},
		FormatArgs([]interface{}{big.NewInt(1000), addr, true, "CryptoCoin"}),
	)
}
