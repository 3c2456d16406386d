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
	"sort"
	"sync"

	"github.com/annchain/badium/core/state"
	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Contract is a deployed contract instance. Run is handed the decoded
// arguments of one ABI method and returns the values to be packed as the
// method outputs.
type Contract interface {
	state.Object
	Run(ctx *Context, method *abi.Method, args []interface{}) ([]interface{}, error)
}

// Receiver is implemented by contracts that accept plain native currency
// transfers. Contracts without it reject them with NonPayable.
type Receiver interface {
	Receive(ctx *Context) error
}

// ContractType describes a deployable contract kind.
type ContractType struct {
	Kind string
	ABI  abi.ABI
	// Construct builds a fresh instance from the decoded constructor arguments.
	// ctx.Self is the address the instance will live at.
	Construct func(ctx *Context, args []interface{}) (Contract, error)
	// Decode restores an instance from its Encode output.
	Decode func(data []byte) (Contract, error)
}

var (
	typesMu       sync.RWMutex
	contractTypes = make(map[string]*ContractType)
)

// Register makes a contract kind deployable and loadable from the state
// database. It panics on duplicate kinds.
func Register(ct *ContractType) {
	typesMu.Lock()
	defer typesMu.Unlock()

	if _, ok := contractTypes[ct.Kind]; ok {
		panic(fmt.Sprintf("contract kind %q registered twice", ct.Kind))
	}
	contractTypes[ct.Kind] = ct
	decode := ct.Decode
	state.RegisterObject(ct.Kind, func(data []byte) (state.Object, error) {
		return decode(data)
	})
}

func LookupType(kind string) (*ContractType, bool) {
	typesMu.RLock()
	defer typesMu.RUnlock()

	ct, ok := contractTypes[kind]
	return ct, ok
}

// Kinds lists the registered contract kinds in lexical order.
func Kinds() []string {
	typesMu.RLock()
	defer typesMu.RUnlock()

	kinds := make([]string, 0, len(contractTypes))
	for k := range contractTypes {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
