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
package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a contract call was aborted. The kind travels in the
// receipt so that callers can react without parsing messages.
type ErrorKind int8

const (
	KindUnknown ErrorKind = iota
	KindNotOwner
	KindInsufficientBalance
	KindInsufficientAllowance
	KindRecipientNotEligible
	KindIndexOutOfBounds
	KindInsufficientPayment
	KindNoFundsToWithdraw
	KindArithmeticOverflow
	KindArithmeticUnderflow

	KindZeroAddress
	KindNotConfigured
	KindAlreadyConfigured
	KindReentrantCall
	KindInsufficientFunds
	KindNonPayable
	KindUnknownContract
	KindUnknownMethod
	KindInvalidArgument
	KindWriteProtection
	KindCallDepthExceeded
)

var kindNames = map[ErrorKind]string{
	KindUnknown:               "Unknown",
	KindNotOwner:              "NotOwner",
	KindInsufficientBalance:   "InsufficientBalance",
	KindInsufficientAllowance: "InsufficientAllowance",
	KindRecipientNotEligible:  "RecipientNotEligible",
	KindIndexOutOfBounds:      "IndexOutOfBounds",
	KindInsufficientPayment:   "InsufficientPayment",
	KindNoFundsToWithdraw:     "NoFundsToWithdraw",
	KindArithmeticOverflow:    "ArithmeticOverflow",
	KindArithmeticUnderflow:   "ArithmeticUnderflow",
	KindZeroAddress:           "ZeroAddress",
	KindNotConfigured:         "NotConfigured",
	KindAlreadyConfigured:     "AlreadyConfigured",
	KindReentrantCall:         "ReentrantCall",
	KindInsufficientFunds:     "InsufficientFunds",
	KindNonPayable:            "NonPayable",
	KindUnknownContract:       "UnknownContract",
	KindUnknownMethod:         "UnknownMethod",
	KindInvalidArgument:       "InvalidArgument",
	KindWriteProtection:       "WriteProtection",
	KindCallDepthExceeded:     "CallDepthExceeded",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unrecognized"
}

// ParseErrorKind is the inverse of String. Unknown names map to KindUnknown.
func ParseErrorKind(name string) ErrorKind {
	for k, n := range kindNames {
		if n == name {
			return k
		}
	}
	return KindUnknown
}

// ExecError is the failure signal of a contract entry point.
type ExecError struct {
	Kind ErrorKind
	Msg  string
}

func (e *ExecError) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Is reports kind equality so that errors.Is(err, ErrNotOwner) holds for any
// message.
func (e *ExecError) Is(target error) bool {
	t, ok := target.(*ExecError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// NewExecError builds an error of the given kind with a formatted message.
func NewExecError(kind ErrorKind, format string, args ...interface{}) *ExecError {
	return &ExecError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// KindOf extracts the kind of err. Errors outside the taxonomy are KindUnknown.
func KindOf(err error) ErrorKind {
	var e *ExecError
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

var (
	ErrNotOwner              = &ExecError{Kind: KindNotOwner}
	ErrInsufficientBalance   = &ExecError{Kind: KindInsufficientBalance}
	ErrInsufficientAllowance = &ExecError{Kind: KindInsufficientAllowance}
	ErrRecipientNotEligible  = &ExecError{Kind: KindRecipientNotEligible}
	ErrIndexOutOfBounds      = &ExecError{Kind: KindIndexOutOfBounds}
	ErrInsufficientPayment   = &ExecError{Kind: KindInsufficientPayment}
	ErrNoFundsToWithdraw     = &ExecError{Kind: KindNoFundsToWithdraw}
	ErrArithmeticOverflow    = &ExecError{Kind: KindArithmeticOverflow}
	ErrArithmeticUnderflow   = &ExecError{Kind: KindArithmeticUnderflow}

	ErrZeroAddress       = &ExecError{Kind: KindZeroAddress}
	ErrNotConfigured     = &ExecError{Kind: KindNotConfigured}
	ErrAlreadyConfigured = &ExecError{Kind: KindAlreadyConfigured}
	ErrReentrantCall     = &ExecError{Kind: KindReentrantCall}
	ErrInsufficientFunds = &ExecError{Kind: KindInsufficientFunds}
	ErrNonPayable        = &ExecError{Kind: KindNonPayable}
	ErrUnknownContract   = &ExecError{Kind: KindUnknownContract}
	ErrUnknownMethod     = &ExecError{Kind: KindUnknownMethod}
	ErrInvalidArgument   = &ExecError{Kind: KindInvalidArgument}
	ErrWriteProtection   = &ExecError{Kind: KindWriteProtection}
	ErrCallDepthExceeded = &ExecError{Kind: KindCallDepthExceeded}
)
