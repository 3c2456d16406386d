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
package math

import (
	"github.com/annchain/badium/types"
	"github.com/holiman/uint256"
)

// MaxDecimals is the largest exponent whose power of ten fits in 256 bits.
const MaxDecimals = 77

// Zero returns a fresh zero value. Callers own the result.
func Zero() *uint256.Int {
	return new(uint256.Int)
}

// Copy returns x, or zero if x is nil, as a value the caller may mutate.
func Copy(x *uint256.Int) *uint256.Int {
	if x == nil {
		return new(uint256.Int)
	}
	return x.Clone()
}

// SafeAdd returns x + y or ErrArithmeticOverflow.
func SafeAdd(x, y *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).AddOverflow(x, y)
	if overflow {
		return nil, types.NewExecError(types.KindArithmeticOverflow, "%s + %s", x.Dec(), y.Dec())
	}
	return z, nil
}

// SafeSub returns x - y or ErrArithmeticUnderflow.
func SafeSub(x, y *uint256.Int) (*uint256.Int, error) {
	z, underflow := new(uint256.Int).SubOverflow(x, y)
	if underflow {
		return nil, types.NewExecError(types.KindArithmeticUnderflow, "%s - %s", x.Dec(), y.Dec())
	}
	return z, nil
}

// SafeMul returns x * y or ErrArithmeticOverflow.
func SafeMul(x, y *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).MulOverflow(x, y)
	if overflow {
		return nil, types.NewExecError(types.KindArithmeticOverflow, "%s * %s", x.Dec(), y.Dec())
	}
	return z, nil
}

// MulDiv computes x * y / d with a 512-bit intermediate product, so the
// multiplication never overflows before the division. Only a quotient wider
// than 256 bits fails.
func MulDiv(x, y, d *uint256.Int) (*uint256.Int, error) {
	if d.IsZero() {
		return nil, types.NewExecError(types.KindInvalidArgument, "division by zero")
	}
	z, overflow := new(uint256.Int).MulDivOverflow(x, y, d)
	if overflow {
		return nil, types.NewExecError(types.KindArithmeticOverflow, "%s * %s / %s", x.Dec(), y.Dec(), d.Dec())
	}
	return z, nil
}

// Pow10 returns 10^exp. Exponents above MaxDecimals do not fit and fail.
func Pow10(exp uint8) (*uint256.Int, error) {
	if exp > MaxDecimals {
		return nil, types.NewExecError(types.KindArithmeticOverflow, "10^%d", exp)
	}
	return new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(uint64(exp))), nil
}

// FromDecimal parses a base 10 string.
func FromDecimal(s string) (*uint256.Int, error) {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, types.NewExecError(types.KindInvalidArgument, "bad amount %q: %v", s, err)
	}
	return v, nil
}

// Units scales a whole-token count to token units: whole * 10^decimals.
func Units(whole uint64, decimals uint8) (*uint256.Int, error) {
	scale, err := Pow10(decimals)
	if err != nil {
		return nil, err
	}
	return SafeMul(uint256.NewInt(whole), scale)
}
