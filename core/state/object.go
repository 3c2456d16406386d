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
package state

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"github.com/tinylib/msgp/msgp"
)

// Object is the persistent state of a deployed contract. Objects are kept in
// memory by the StateDB and written back on Commit when a journal entry
// dirtied their address.
type Object interface {
	Kind() string
	Encode() ([]byte, error)
}

// ObjectDecoder rebuilds an Object from the bytes its Encode produced.
type ObjectDecoder func(data []byte) (Object, error)

var (
	decodersMu sync.RWMutex
	decoders   = make(map[string]ObjectDecoder)
)

// RegisterObject makes objects of kind loadable from the database. It panics
// if the kind is registered twice.
func RegisterObject(kind string, decoder ObjectDecoder) {
	decodersMu.Lock()
	defer decodersMu.Unlock()

	if _, ok := decoders[kind]; ok {
		panic(fmt.Sprintf("state object kind %q registered twice", kind))
	}
	decoders[kind] = decoder
}

func lookupDecoder(kind string) (ObjectDecoder, bool) {
	decodersMu.RLock()
	defer decodersMu.RUnlock()

	d, ok := decoders[kind]
	return d, ok
}

// encodeObject wraps the object payload as [kind, payload].
func encodeObject(obj Object) ([]byte, error) {
	payload, err := obj.Encode()
	if err != nil {
		return nil, errors.Wrapf(err, "encode %s object", obj.Kind())
	}
	o := msgp.Require(nil, msgp.ArrayHeaderSize+msgp.StringPrefixSize+len(obj.Kind())+msgp.BytesPrefixSize+len(payload))
	o = msgp.AppendArrayHeader(o, 2)
	o = msgp.AppendString(o, obj.Kind())
	o = msgp.AppendBytes(o, payload)
	return o, nil
}

func decodeObject(b []byte) (Object, error) {
	sz, b, err := msgp.ReadArrayHeaderBytes(b)
	if err != nil {
		return nil, err
	}
	if sz != 2 {
		return nil, msgp.ArrayError{Wanted: 2, Got: sz}
	}
	kind, b, err := msgp.ReadStringBytes(b)
	if err != nil {
		return nil, msgp.WrapError(err, "Kind")
	}
	payload, _, err := msgp.ReadBytesBytes(b, nil)
	if err != nil {
		return nil, msgp.WrapError(err, "Payload")
	}
	decoder, ok := lookupDecoder(kind)
	if !ok {
		return nil, fmt.Errorf("no decoder registered for object kind %q", kind)
	}
	return decoder(payload)
}
