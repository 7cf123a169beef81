// Package deployments keeps a JSON record of every contract deployed to a
// persistent network, one file per contract.
package deployments

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// Record describes a confirmed deployment.
type Record struct {
	ContractName    string          `json:"contractName"`
	SourceName      string          `json:"sourceName"`
	Address         common.Address  `json:"address"`
	TransactionHash common.Hash     `json:"transactionHash"`
	BlockNumber     uint64          `json:"blockNumber"`
	Deployer        common.Address  `json:"deployer"`
	ChainID         uint64          `json:"chainId"`
	Args            []string        `json:"args"`
	ABI             json.RawMessage `json:"abi,omitempty"`
	DeployedAt      time.Time       `json:"deployedAt"`
}

// FormatArgs renders encoded constructor arguments for a record.
func FormatArgs(args []interface{}) []string {
	out := make([]string, len(args))
	for i, arg := range args {
		switch v := arg.(type) {
		case common.Address:
			out[i] = v.Hex()
		case fmt.Stringer:
			out[i] = v.String()
		default:
			out[i] = fmt.Sprint(v)
		}
	}
	return out
}

// Store reads and writes records below a root directory, grouped by network.
type Store struct {
	root string
}

func NewStore(root string) *Store {
	return &Store{root: root}
}

func (s *Store) path(network, contract string) string {
	return filepath.Join(s.root, network, contract+".json")
}

// Save writes the record, replacing any earlier deployment of the contract.
func (s *Store) Save(network string, rec *Record) error {
	path := s.path(network, rec.ContractName)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "creating deployments directory")
	}
	blob, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(blob, '\n'), 0644); err != nil {
		return errors.Wrapf(err, "writing %s", tmp)
	}
	return os.Rename(tmp, path)
}

// Load returns the record of a contract on a network.
func (s *Store) Load(network, contract string) (*Record, error) {
	blob, err := os.ReadFile(s.path(network, contract))
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(blob, &rec); err != nil {
		return nil, errors.Wrapf(err, "decoding %s deployment", contract)
	}
	return &rec, nil
}

// List returns all records of a network sorted by contract name. A network
// without deployments yields an empty list.
func (s *Store) List(network string) ([]*Record, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, network))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var recs []*Record
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		rec, err := s.Load(network, strings.TrimSuffix(name, ".json"))
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].ContractName < recs[j].ContractName })
	return recs, nil
}
