////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

//go:build js && wasm

// Package indexeddb adapts the browser's IndexedDB to the engine capability
// surface. Values cross the Javascript boundary in their JSON form; keys are
// converted structurally so composite keys keep their components.
package indexeddb

import (
	"context"
	"syscall/js"

	"github.com/hack-pad/go-indexeddb/idb"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/wasm-utils/utils"

	"github.com/eli-fin/idb-inspect/engine"
)

// Factory is the [engine.Factory] backed by the browser's IndexedDB.
type Factory struct{}

// NewFactory returns the browser engine.
func NewFactory() Factory { return Factory{} }

// Open connects to the named database. Version 0 opens at the currently
// stored version (or creates at version 1); anything that would fire the
// browser's upgrade step without an upgrade callback aborts the open instead
// of silently changing the schema.
func (f Factory) Open(ctx context.Context, name string, version uint,
	upgrade engine.UpgradeFunc) (engine.Database, error) {
	parentErr := errors.Errorf("failed to open %s", name)

	if version == 0 {
		var err error
		if version, err = f.currentVersion(ctx, name); err != nil {
			return nil, errors.WithMessagef(parentErr,
				"Unable to determine current version: %+v", err)
		}
	}

	openRequest, err := idb.Global().Open(ctx, name, version,
		func(db *idb.Database, oldVersion, newVersion uint) error {
			if upgrade == nil {
				return errors.Errorf("unexpected upgrade v%d -> v%d during "+
					"a plain open", oldVersion, newVersion)
			}
			jww.INFO.Printf("IndexDb upgrade required for %s: v%d -> v%d",
				name, oldVersion, newVersion)
			return upgrade(&database{db: db}, oldVersion, newVersion)
		})
	if err != nil {
		return nil, errors.WithMessagef(parentErr,
			"Unable to start open request: %+v", err)
	}

	db, err := openRequest.Await(ctx)
	if err != nil {
		return nil, errors.WithMessagef(parentErr,
			"Unable to complete open request: %+v", err)
	}
	return &database{db: db}, nil
}

// Databases enumerates every database in the origin via the
// indexedDB.databases() browser API, which the idb package does not wrap.
func (Factory) Databases(context.Context) ([]engine.DatabaseInfo, error) {
	idbJS := js.Global().Get("indexedDB")
	if idbJS.Get("databases").IsUndefined() {
		return nil, errors.New(
			"indexedDB.databases() is not supported by this browser")
	}

	result, awaitErr := utils.Await(idbJS.Call("databases"))
	if awaitErr != nil {
		return nil, errors.Errorf("failed to list databases: %s",
			utils.JsToJson(awaitErr[0]))
	}

	list := result[0]
	infos := make([]engine.DatabaseInfo, list.Length())
	for i := range infos {
		entry := list.Index(i)
		infos[i] = engine.DatabaseInfo{
			Name:    entry.Get("name").String(),
			Version: uint(entry.Get("version").Int()),
		}
	}
	return infos, nil
}

// currentVersion reports the stored version of the named database, or 1 if
// it does not exist yet.
func (f Factory) currentVersion(ctx context.Context, name string) (uint, error) {
	infos, err := f.Databases(ctx)
	if err != nil {
		return 0, err
	}
	for _, info := range infos {
		if info.Name == name {
			return info.Version, nil
		}
	}
	return 1, nil
}

// database wraps one open [idb.Database] connection.
type database struct {
	db *idb.Database
}

func (d *database) ObjectStoreNames() ([]string, error) {
	return d.db.ObjectStoreNames()
}

func (d *database) CreateObjectStore(name string) (engine.ObjectStore, error) {
	storeOpts := idb.ObjectStoreOptions{AutoIncrement: false}
	store, err := d.db.CreateObjectStore(name, storeOpts)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to create store %s", name)
	}
	return &objectStore{store: store, name: name}, nil
}

func (d *database) Transaction(mode engine.TransactionMode, storeName string,
	storeNames ...string) (engine.Transaction, error) {
	idbMode := idb.TransactionReadOnly
	if mode == engine.TransactionReadWrite {
		idbMode = idb.TransactionReadWrite
	}
	txn, err := d.db.Transaction(idbMode, storeName, storeNames...)
	if err != nil {
		return nil, errors.WithMessagef(err,
			"failed to create transaction on %s", storeName)
	}
	return &transaction{txn: txn}, nil
}

func (d *database) Close() error {
	return d.db.Close()
}

// transaction wraps one [idb.Transaction].
type transaction struct {
	txn *idb.Transaction
}

func (t *transaction) ObjectStore(name string) (engine.ObjectStore, error) {
	store, err := t.txn.ObjectStore(name)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to get ObjectStore %s", name)
	}
	return &objectStore{store: store, name: name}, nil
}

// objectStore wraps one [idb.ObjectStore].
type objectStore struct {
	store *idb.ObjectStore
	name  string
}

func (o *objectStore) Get(ctx context.Context, key any) (any, error) {
	parentErr := errors.Errorf("failed to Get %s", o.name)

	jsKey, err := keyToJS(key)
	if err != nil {
		return nil, errors.WithMessagef(parentErr, "Invalid key: %+v", err)
	}

	getRequest, err := o.store.Get(jsKey)
	if err != nil {
		return nil, errors.WithMessagef(parentErr,
			"Unable to Get from ObjectStore: %+v", err)
	}

	resultObj, err := getRequest.Await(ctx)
	if err != nil {
		return nil, errors.WithMessagef(parentErr,
			"Unable to get from ObjectStore: %+v", err)
	} else if resultObj.IsUndefined() {
		return nil, errors.WithMessagef(engine.ErrDoesNotExist,
			"failed to Get %s/%v", o.name, key)
	}

	jww.DEBUG.Printf("Got from %s: %s", o.name, utils.JsToJson(resultObj))
	return valueToGo(resultObj)
}

// Iterate walks the store with a forward cursor. Records whose key or value
// cannot be represented on the Go side are skipped with a warning so one odd
// record does not hide the rest of the store.
func (o *objectStore) Iterate(ctx context.Context, fn engine.IterFunc) error {
	parentErr := errors.Errorf("failed to iterate %s", o.name)

	cursorRequest, err := o.store.OpenCursor(idb.CursorNext)
	if err != nil {
		return errors.WithMessagef(parentErr, "Unable to open Cursor: %+v", err)
	}

	err = cursorRequest.Iter(ctx,
		func(cursor *idb.CursorWithValue) error {
			jsKey, err := cursor.PrimaryKey()
			if err != nil {
				return err
			}
			jsValue, err := cursor.Value()
			if err != nil {
				return err
			}

			key, err := keyToGo(jsKey)
			if err != nil {
				jww.WARN.Printf("Skipping record with unsupported key in %s: %+v",
					o.name, err)
				return nil
			}
			value, err := valueToGo(jsValue)
			if err != nil {
				jww.WARN.Printf("Skipping record %v in %s: %+v", key, o.name, err)
				return nil
			}
			return fn(key, value)
		})
	if err != nil {
		return errors.WithMessagef(parentErr,
			"Unable to iterate over ObjectStore: %+v", err)
	}
	return nil
}

func (o *objectStore) Add(ctx context.Context, key, value any) error {
	parentErr := errors.Errorf("failed to Add %s", o.name)

	jsKey, err := keyToJS(key)
	if err != nil {
		return errors.WithMessagef(parentErr, "Invalid key: %+v", err)
	}
	jsValue, err := valueToJS(value)
	if err != nil {
		return errors.WithMessagef(parentErr, "Invalid value: %+v", err)
	}

	addRequest, err := o.store.AddKey(jsKey, jsValue)
	if err != nil {
		return errors.WithMessagef(parentErr,
			"Unable to Add to ObjectStore: %+v", err)
	}
	if _, err = addRequest.Request.Await(ctx); err != nil {
		return errors.WithMessagef(parentErr,
			"Unable to add to ObjectStore: %+v", err)
	}

	jww.DEBUG.Printf("Successfully added value in %s/%v", o.name, key)
	return nil
}
