package wserver

import (
	"github.com/annchain/badium/types"
	"github.com/annchain/badium/vm/ovm"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// Envelope wraps every message pushed to clients.
type Envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// LogData is a contract event decoded with the ABI of its emitter.
type LogData struct {
	Address common.Address         `json:"address"`
	Kind    string                 `json:"kind"`
	Event   string                 `json:"event"`
	Args    map[string]interface{} `json:"args"`
	TxHash  common.Hash            `json:"tx_hash"`
	Index   uint                   `json:"index"`
}

// ABIResolver finds the contract type deployed at an address.
type ABIResolver interface {
	ContractABI(addr common.Address) (*ovm.ContractType, error)
}

// decodeLog unpacks the indexed and plain arguments of l.
func decodeLog(resolver ABIResolver, l *types.Log) (*LogData, error) {
	if len(l.Topics) == 0 {
		return nil, errors.New("anonymous log")
	}
	ct, err := resolver.ContractABI(l.Address)
	if err != nil {
		return nil, err
	}
	event, err := ct.ABI.EventByID(l.Topics[0])
	if err != nil {
		return nil, errors.Wrapf(err, "%s event", ct.Kind)
	}
	args := map[string]interface{}{}
	if len(l.Data) > 0 {
		if err := event.Inputs.NonIndexed().UnpackIntoMap(args, l.Data); err != nil {
			return nil, errors.Wrapf(err, "unpack %s data", event.Name)
		}
	}
	var indexed abi.Arguments
	for _, arg := range event.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	if err := abi.ParseTopicsIntoMap(args, indexed, l.Topics[1:]); err != nil {
		return nil, errors.Wrapf(err, "parse %s topics", event.Name)
	}
	for k, v := range args {
		args[k] = ovm.FormatValues([]interface{}{v})[0]
	}
	return &LogData{
		Address: l.Address,
		Kind:    ct.Kind,
		Event:   event.Name,
		Args:    args,
		TxHash:  l.TxHash,
		Index:   l.Index,
	}, nil
}
