////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

//go:build js && wasm

// This file contains the conversions between Javascript keys/values and
// their Go forms.

package indexeddb

import (
	"encoding/json"
	"syscall/js"

	"github.com/pkg/errors"
	"gitlab.com/elixxir/wasm-utils/utils"

	"github.com/eli-fin/idb-inspect/engine"
)

// keyToJS converts a key to its Javascript form. Composite keys become
// Javascript arrays.
func keyToJS(key any) (js.Value, error) {
	norm, err := engine.NormalizeKey(key)
	if err != nil {
		return js.Undefined(), err
	}
	return js.ValueOf(norm), nil
}

// keyToGo converts a Javascript key to its Go form. Date and binary keys are
// valid in the browser but have no place in the documents this toolkit
// reads, so they are rejected rather than approximated.
func keyToGo(key js.Value) (any, error) {
	switch {
	case key.Type() == js.TypeString:
		return key.String(), nil
	case key.Type() == js.TypeNumber:
		return key.Float(), nil
	case isJsArray(key):
		tuple := make([]any, key.Length())
		for i := range tuple {
			component, err := keyToGo(key.Index(i))
			if err != nil {
				return nil, errors.WithMessagef(err, "tuple component %d", i)
			}
			tuple[i] = component
		}
		return tuple, nil
	default:
		return nil, errors.Errorf("%s is not a supported key type", key.Type())
	}
}

// valueToGo decodes a Javascript document into Go maps, slices, and scalars
// via its JSON form.
func valueToGo(value js.Value) (any, error) {
	valueJson := utils.JsToJson(value)
	var doc any
	if err := json.Unmarshal([]byte(valueJson), &doc); err != nil {
		return nil, errors.WithMessagef(err, "failed to decode %s", valueJson)
	}
	return doc, nil
}

// valueToJS encodes a Go document as a Javascript value via its JSON form.
func valueToJS(value any) (js.Value, error) {
	valueJson, err := json.Marshal(value)
	if err != nil {
		return js.Undefined(), errors.WithMessagef(err, "failed to encode value")
	}
	return utils.JsonToJS(valueJson)
}

func isJsArray(v js.Value) bool {
	return js.Global().Get("Array").Call("isArray", v).Bool()
}
