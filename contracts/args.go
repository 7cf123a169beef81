package contracts

import (
	"errors"
	"fmt"
	"math/big"
	"reflect"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
)

// Addressable is anything with an on-chain address, such as a deployed
// Contract. It can be passed wherever an address argument is expected.
type Addressable interface {
	Address() common.Address
}

// coerceArgs converts loosely typed values into the Go types the ABI encoder
// expects for the given arguments.
func coerceArgs(args abi.Arguments, values []interface{}) ([]interface{}, error) {
	if len(args) != len(values) {
		return nil, fmt.Errorf("constructor takes %d arguments, got %d", len(args), len(values))
	}
	out := make([]interface{}, len(values))
	for i, v := range values {
		c, err := coerce(args[i].Type, v)
		if err != nil {
			name := args[i].Name
			if name == "" {
				name = fmt.Sprintf("#%d", i)
			}
			return nil, fmt.Errorf("argument %s (%s): %v", name, args[i].Type, err)
		}
		out[i] = c
	}
	return out, nil
}

func coerce(t abi.Type, v interface{}) (interface{}, error) {
	switch t.T {
	case abi.AddressTy:
		switch a := v.(type) {
		case common.Address:
			return a, nil
		case Addressable:
			return a.Address(), nil
		case string:
			if !common.IsHexAddress(a) {
				return nil, fmt.Errorf("invalid address %q", a)
			}
			return common.HexToAddress(a), nil
		}
	case abi.IntTy, abi.UintTy:
		n, err := toBig(v)
		if err != nil {
			return nil, err
		}
		if t.T == abi.UintTy && n.Sign() < 0 {
			return nil, fmt.Errorf("negative value %v", n)
		}
		lo, hi := intBounds(t)
		if n.Cmp(lo) < 0 || n.Cmp(hi) > 0 {
			return nil, fmt.Errorf("value %v overflows %s", n, t)
		}
		if t.Size > 64 {
			return n, nil
		}
		goType := t.GetType()
		if t.T == abi.UintTy {
			return reflect.ValueOf(n.Uint64()).Convert(goType).Interface(), nil
		}
		return reflect.ValueOf(n.Int64()).Convert(goType).Interface(), nil
	}
	return v, nil
}

// intBounds returns the inclusive range of an intN or uintN type.
func intBounds(t abi.Type) (lo, hi *big.Int) {
	if t.T == abi.UintTy {
		hi = new(big.Int).Lsh(common.Big1, uint(t.Size))
		return new(big.Int), hi.Sub(hi, common.Big1)
	}
	half := new(big.Int).Lsh(common.Big1, uint(t.Size-1))
	return new(big.Int).Neg(half), new(big.Int).Sub(half, common.Big1)
}

func toBig(v interface{}) (*big.Int, error) {
	switch n := v.(type) {
	case *big.Int:
		if n == nil {
			return nil, errors.New("nil number")
		}
		return n, nil
	case int:
		return big.NewInt(int64(n)), nil
	case int64:
		return big.NewInt(n), nil
	case int32:
		return big.NewInt(int64(n)), nil
	case uint:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint64:
		return new(big.Int).SetUint64(n), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(n)), nil
	case string:
		b, ok := math.ParseBig256(n)
		if !ok {
			return nil, fmt.Errorf("invalid number %q", n)
		}
		return b, nil
	}
	return nil, fmt.Errorf("cannot use %T as a number", v)
}
