////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

//go:build js && wasm

// Package wasm exposes the inspection toolkit to Javascript. Every binding is
// a func(js.Value, []js.Value) any registered on the global scope by main.
package wasm

import (
	"encoding/json"
	"strings"
	"syscall/js"

	"gitlab.com/elixxir/wasm-utils/exception"
	"gitlab.com/elixxir/wasm-utils/utils"

	"github.com/eli-fin/idb-inspect/engine/indexeddb"
	"github.com/eli-fin/idb-inspect/inspect"
)

// newConnector wires the generic inspection layers to the browser's real
// IndexedDB engine. Each binding builds its own connector; none of them share
// open handles.
func newConnector() *inspect.Connector {
	return inspect.NewConnector(indexeddb.NewFactory())
}

// Search scans every database and object store in the origin for a keyword
// and builds a plain-text report.
//
// Parameters:
//   - args[0] - Keyword to match case-insensitively against each record's
//     serialized value (string).
//   - args[1] - If true, the report lists the key of each matching record
//     (bool).
//   - args[2] - If true, the report also lists each matching record's
//     serialized value; only honored when keys are listed (bool).
//
// Returns a promise:
//   - Resolves to the report text (string).
//   - Rejected with an error if the databases cannot be enumerated.
func Search(_ js.Value, args []js.Value) any {
	keyword := args[0].String()
	printKeys := args[1].Bool()
	printValues := args[2].Bool()

	promiseFn := func(resolve, reject func(args ...any) js.Value) {
		var report strings.Builder
		err := inspect.NewSearchEngine(newConnector(), &report).
			FindInAll(keyword, printKeys, printValues)
		if err != nil {
			reject(exception.NewTrace(err))
		} else {
			resolve(report.String())
		}
	}

	return utils.CreatePromise(promiseFn)
}

// ListDatabases enumerates every database in the origin along with its
// version and object store names.
//
// Returns a promise:
//   - Resolves to the JSON of an array of [inspect.DatabaseDescriptor]
//     (Uint8Array).
//   - Rejected with an error if the databases cannot be enumerated.
func ListDatabases(js.Value, []js.Value) any {
	promiseFn := func(resolve, reject func(args ...any) js.Value) {
		descriptors, err := newConnector().ListAll()
		if err != nil {
			reject(exception.NewTrace(err))
			return
		}

		descriptorsJSON, err := json.Marshal(descriptors)
		if err != nil {
			reject(exception.NewTrace(err))
			return
		}

		resolve(utils.CopyBytesToJS(descriptorsJSON))
	}

	return utils.CreatePromise(promiseFn)
}

// DumpStore returns every record of one object store in ascending key order.
//
// Parameters:
//   - args[0] - Database name (string).
//   - args[1] - Database version; 0 opens whatever version is stored (int).
//   - args[2] - Object store name (string).
//
// Returns a promise:
//   - Resolves to the JSON of an array of [inspect.Record] (Uint8Array).
//   - Rejected with an error if the database cannot be opened or the store
//     cannot be scanned.
func DumpStore(_ js.Value, args []js.Value) any {
	dbName := args[0].String()
	version := uint(args[1].Int())
	storeName := args[2].String()

	promiseFn := func(resolve, reject func(args ...any) js.Value) {
		db, _, err := newConnector().Open(dbName, version, "")
		if err != nil {
			reject(exception.NewTrace(err))
			return
		}

		records, err := inspect.ScanAll(db, storeName)
		if err != nil {
			reject(exception.NewTrace(err))
			return
		}

		recordsJSON, err := json.Marshal(records)
		if err != nil {
			reject(exception.NewTrace(err))
			return
		}

		resolve(utils.CopyBytesToJS(recordsJSON))
	}

	return utils.CreatePromise(promiseFn)
}

// StoreKeyValue adds a single key/value pair to an object store, creating the
// database and the store first when they do not exist.
//
// Parameters:
//   - args[0] - Database name (string).
//   - args[1] - Object store name (string).
//   - args[2] - JSON of the key (Uint8Array).
//   - args[3] - JSON of the value (Uint8Array).
//
// Returns a promise:
//   - Resolves on success (void).
//   - Rejected with an error if the pair cannot be stored.
func StoreKeyValue(_ js.Value, args []js.Value) any {
	dbName := args[0].String()
	storeName := args[1].String()
	keyJSON := utils.CopyBytesToGo(args[2])
	valueJSON := utils.CopyBytesToGo(args[3])

	promiseFn := func(resolve, reject func(args ...any) js.Value) {
		var key, value any
		if err := json.Unmarshal(keyJSON, &key); err != nil {
			reject(exception.NewTrace(err))
			return
		}
		if err := json.Unmarshal(valueJSON, &value); err != nil {
			reject(exception.NewTrace(err))
			return
		}

		err := inspect.StoreKeyValue(
			newConnector(), dbName, storeName, key, value)
		if err != nil {
			reject(exception.NewTrace(err))
		} else {
			resolve()
		}
	}

	return utils.CreatePromise(promiseFn)
}
