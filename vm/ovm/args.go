// Copyright © 2019 Annchain Authors <EMAIL ADDRESS>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package ovm

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/annchain/badium/types"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ParseArgs converts textual arguments, as received over RPC, into the Go
// values the ABI packer expects. Integers are decimal, addresses are hex.
func ParseArgs(args abi.Arguments, raw []string) ([]interface{}, error) {
	if len(args) != len(raw) {
		return nil, types.NewExecError(types.KindInvalidArgument, "expected %d arguments, got %d", len(args), len(raw))
	}
	values := make([]interface{}, len(raw))
	for i, arg := range args {
		v, err := parseArg(arg.Type, raw[i])
		if err != nil {
			return nil, types.NewExecError(types.KindInvalidArgument, "argument %s: %v", arg.Name, err)
		}
		values[i] = v
	}
	return values, nil
}

func parseArg(t abi.Type, s string) (interface{}, error) {
	switch t.T {
	case abi.AddressTy:
		if !common.IsHexAddress(s) {
			return nil, fmt.Errorf("invalid address %q", s)
		}
		return common.HexToAddress(s), nil
	case abi.BoolTy:
		return strconv.ParseBool(s)
	case abi.StringTy:
		return s, nil
	case abi.UintTy:
		switch t.Size {
		case 8:
			v, err := strconv.ParseUint(s, 10, 8)
			return uint8(v), err
		case 16:
			v, err := strconv.ParseUint(s, 10, 16)
			return uint16(v), err
		case 32:
			v, err := strconv.ParseUint(s, 10, 32)
			return uint32(v), err
		case 64:
			return strconv.ParseUint(s, 10, 64)
		default:
			v, err := uint256.FromDecimal(s)
			if err != nil {
				return nil, fmt.Errorf("invalid uint%d %q: %v", t.Size, s, err)
			}
			if v.BitLen() > t.Size {
				return nil, fmt.Errorf("%s overflows uint%d", s, t.Size)
			}
			return v.ToBig(), nil
		}
	default:
		return nil, fmt.Errorf("unsupported argument type %s", t.String())
	}
}

// FormatValues renders unpacked ABI values for JSON output. Big integers
// become decimal strings so that no precision is lost.
func FormatValues(values []interface{}) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		switch x := v.(type) {
		case *big.Int:
			out[i] = x.String()
		case common.Address:
			out[i] = x.Hex()
		default:
			out[i] = v
		}
	}
	return out
}

// BigToUint256 converts an ABI decoded uint256 argument.
func BigToUint256(b *big.Int) (*uint256.Int, error) {
	if b == nil {
		return new(uint256.Int), nil
	}
	v, overflow := uint256.FromBig(b)
	if overflow || b.Sign() < 0 {
		return nil, types.NewExecError(types.KindArithmeticOverflow, "%s does not fit in uint256", b.String())
	}
	return v, nil
}
