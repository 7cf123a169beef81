// Package artifacts reads compiled contract artifacts from a Hardhat style
// artifacts directory.
package artifacts

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// formatPrefix identifies artifact files among the other JSON files of a
// compilation output.
const formatPrefix = "hh-sol-artifact-"

var (
	ErrNotFound  = errors.New("artifact not found")
	ErrAmbiguous = errors.New("ambiguous contract name")
	ErrUnlinked  = errors.New("bytecode has unlinked libraries")
)

// LinkReference marks a library address placeholder inside bytecode.
type LinkReference struct {
	Start  int `json:"start"`
	Length int `json:"length"`
}

// LinkReferences maps source name to library name to placeholder positions.
type LinkReferences map[string]map[string][]LinkReference

// Artifact is a compiled contract: its ABI and creation bytecode.
type Artifact struct {
	Format                 string          `json:"_format"`
	ContractName           string          `json:"contractName"`
	SourceName             string          `json:"sourceName"`
	RawABI                 json.RawMessage `json:"abi"`
	Bytecode               string          `json:"bytecode"`
	DeployedBytecode       string          `json:"deployedBytecode"`
	LinkReferences         LinkReferences  `json:"linkReferences"`
	DeployedLinkReferences LinkReferences  `json:"deployedLinkReferences"`

	ABI abi.ABI `json:"-"`
}

// FullyQualifiedName returns the "source:Name" form of the contract name.
func (a *Artifact) FullyQualifiedName() string {
	return a.SourceName + ":" + a.ContractName
}

// Load reads and parses a single artifact file.
func Load(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes an artifact and its ABI.
func Parse(data []byte) (*Artifact, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, errors.Wrap(err, "decoding artifact")
	}
	if !strings.HasPrefix(a.Format, formatPrefix) {
		return nil, fmt.Errorf("unsupported artifact format %q", a.Format)
	}
	if len(a.RawABI) > 0 {
		if err := json.Unmarshal(a.RawABI, &a.ABI); err != nil {
			return nil, errors.Wrapf(err, "decoding ABI of %s", a.ContractName)
		}
	}
	return &a, nil
}

// Libraries returns the fully qualified names of the libraries the creation
// bytecode must be linked against.
func (a *Artifact) Libraries() []string {
	var names []string
	for source, libs := range a.LinkReferences {
		for name := range libs {
			names = append(names, source+":"+name)
		}
	}
	return names
}

// Link substitutes library addresses into the creation bytecode and returns
// it decoded. Libraries may be keyed by bare or fully qualified name.
func (a *Artifact) Link(libraries map[string]common.Address) ([]byte, error) {
	code := []byte(strings.TrimPrefix(a.Bytecode, "0x"))

	var missing []string
	for source, libs := range a.LinkReferences {
		for name, refs := range libs {
			addr, ok := libraries[source+":"+name]
			if !ok {
				addr, ok = libraries[name]
			}
			if !ok {
				missing = append(missing, source+":"+name)
				continue
			}
			enc := hex.EncodeToString(addr.Bytes())
			for _, ref := range refs {
				start, end := 2*ref.Start, 2*(ref.Start+ref.Length)
				if ref.Length != common.AddressLength || end > len(code) {
					return nil, fmt.Errorf("bad link reference for %s at %d", name, ref.Start)
				}
				copy(code[start:end], enc)
			}
		}
	}
	if len(missing) > 0 {
		return nil, errors.Wrapf(ErrUnlinked, "%s needs %s", a.ContractName, strings.Join(missing, ", "))
	}
	// Placeholders not described by linkReferences.
	if i := strings.Index(string(code), "__"); i >= 0 {
		return nil, errors.Wrapf(ErrUnlinked, "%s has an unresolved library placeholder at byte %d", a.ContractName, i/2)
	}
	bytecode, err := hex.DecodeString(string(code))
	if err != nil {
		return nil, errors.Wrapf(err, "decoding bytecode of %s", a.ContractName)
	}
	if len(bytecode) == 0 {
		return nil, fmt.Errorf("%s has no creation bytecode, is it abstract or an interface?", a.ContractName)
	}
	return bytecode, nil
}
