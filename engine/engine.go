////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package engine declares the capability surface this toolkit needs from an
// IndexedDB-style storage engine: open databases by name and version,
// enumerate them, and read object stores through transactions and forward
// cursors.
//
// The engine is always injected (see [Factory]); nothing in the toolkit
// reaches for a global. The real browser engine lives in engine/indexeddb and
// a deterministic in-memory engine for tests lives in engine/memdb.
//
// Keys and documents are represented as JSON-like Go trees: documents are
// map[string]any / []any / scalars, and keys are strings, numbers (float64),
// or ordered tuples of those ([]any). See [ValidKey] and [CompareKeys] for
// the key rules.
package engine

import (
	"context"

	"github.com/pkg/errors"
)

// ErrDoesNotExist is reported by [ObjectStore.Get] when no record has the
// requested key. The browser engine answers such a get with undefined; this
// sentinel keeps the miss an explicit value on the Go side.
var ErrDoesNotExist = errors.New("result is undefined")

// TransactionMode is the access mode of a [Transaction].
type TransactionMode int

const (
	// TransactionReadOnly allows concurrent read access to the stores in
	// scope. All scans and point reads use this mode.
	TransactionReadOnly TransactionMode = iota

	// TransactionReadWrite additionally allows [ObjectStore.Add]. Only the
	// scratch-store helper uses this mode.
	TransactionReadWrite
)

// DatabaseInfo is one row of the engine's database listing.
type DatabaseInfo struct {
	Name    string `json:"name"`
	Version uint   `json:"version"`
}

// UpgradeFunc runs inside the version-change transaction of a [Factory.Open]
// call whose requested version exceeds the stored one. oldVersion is 0 when
// the database did not exist before this open. The Database handle is only
// valid for the duration of the callback.
type UpgradeFunc func(db Database, oldVersion, newVersion uint) error

// Factory opens and enumerates databases. It mirrors the browser's IDBFactory
// and is the single injection point for substituting engines.
type Factory interface {
	// Open opens the named database at the given version and returns a
	// connection that the caller must Close exactly once.
	//
	// The upgrade callback runs when the requested version exceeds the
	// stored one. A nil upgrade creates new databases empty and refuses to
	// upgrade existing ones, so a read path can never rewrite a foreign
	// database's schema by opening it with too high a version. Requesting a
	// version below the stored one is an error.
	Open(ctx context.Context, name string, version uint,
		upgrade UpgradeFunc) (Database, error)

	// Databases enumerates every database known to the engine. Callers must
	// not assume an order.
	Databases(ctx context.Context) ([]DatabaseInfo, error)
}

// Database is one open connection. Connections are not shared; the call that
// opened one owns it and must close it on every exit path, or later opens at
// a higher version will block waiting on it.
type Database interface {
	// ObjectStoreNames lists the stores of the database as of the version
	// this connection opened.
	ObjectStoreNames() ([]string, error)

	// CreateObjectStore creates a store with out-of-line keys. It is only
	// valid inside an [UpgradeFunc].
	CreateObjectStore(name string) (ObjectStore, error)

	// Transaction starts a transaction scoped to the named stores.
	Transaction(mode TransactionMode, storeName string,
		storeNames ...string) (Transaction, error)

	// Close releases the connection.
	Close() error
}

// Transaction is a transaction scoped to one or more object stores.
type Transaction interface {
	ObjectStore(name string) (ObjectStore, error)
}

// IterFunc receives one record per cursor step. Returning an error stops the
// iteration and propagates out of [ObjectStore.Iterate].
type IterFunc func(key, value any) error

// ObjectStore is a named, key-ordered collection of documents reached through
// a transaction (or an upgrade callback).
type ObjectStore interface {
	// Get returns the document stored under key, or [ErrDoesNotExist].
	Get(ctx context.Context, key any) (any, error)

	// Iterate walks a forward cursor over the whole store in ascending key
	// order, calling fn once per record.
	Iterate(ctx context.Context, fn IterFunc) error

	// Add inserts a document under an explicit key. Duplicate keys are an
	// error; there is deliberately no update or delete.
	Add(ctx context.Context, key, value any) error
}
