////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// This file contains the store reading operations. They take an open
// database, perform one read-only transaction, and close the database on
// every path, success or failure.

package inspect

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aquilax/truncate"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"

	"github.com/eli-fin/idb-inspect/engine"
)

// scratchVersion is the version [StoreKeyValue] creates its database at.
const scratchVersion = 1

// Record is one key/value pair read from a store.
type Record struct {
	Key   any `json:"key"`
	Value any `json:"value"`
}

// ScanAll returns every record in the store in ascending key order. The scan
// materializes the whole store into memory at once; consumers filter with
// random access, so store size is capped by available memory and that is the
// accepted trade-off. The connection is closed before returning.
func ScanAll(db engine.Database, storeName string) ([]Record, error) {
	defer closeDatabase(db, storeName)
	parentErr := errors.Errorf("failed to scan %s", storeName)

	txn, err := db.Transaction(engine.TransactionReadOnly, storeName)
	if err != nil {
		return nil, errors.WithMessagef(parentErr,
			"Unable to create Transaction: %+v", err)
	}
	store, err := txn.ObjectStore(storeName)
	if err != nil {
		return nil, errors.WithMessagef(parentErr,
			"Unable to get ObjectStore: %+v", err)
	}

	records := make([]Record, 0)
	err = store.Iterate(context.Background(), func(key, value any) error {
		jww.TRACE.Printf("Scanned %s/%v: %s",
			storeName, key, truncated(fmt.Sprintf("%v", value)))
		records = append(records, Record{Key: key, Value: value})
		return nil
	})
	if err != nil {
		return nil, errors.WithMessagef(parentErr,
			"Unable to iterate over ObjectStore: %+v", err)
	}

	jww.DEBUG.Printf("Scanned %d record(s) from %s", len(records), storeName)
	return records, nil
}

// Get returns the value stored under key. A missing key reports an error
// wrapping [engine.ErrDoesNotExist]. The connection is closed before
// returning.
func Get(db engine.Database, storeName string, key any) (any, error) {
	defer closeDatabase(db, storeName)
	parentErr := errors.Errorf("failed to get %s/%v", storeName, key)

	txn, err := db.Transaction(engine.TransactionReadOnly, storeName)
	if err != nil {
		return nil, errors.WithMessagef(parentErr,
			"Unable to create Transaction: %+v", err)
	}
	store, err := txn.ObjectStore(storeName)
	if err != nil {
		return nil, errors.WithMessagef(parentErr,
			"Unable to get ObjectStore: %+v", err)
	}

	value, err := store.Get(context.Background(), key)
	if err != nil {
		if errors.Is(err, engine.ErrDoesNotExist) {
			return nil, err
		}
		return nil, errors.WithMessagef(parentErr,
			"Unable to get from ObjectStore: %+v", err)
	}
	return value, nil
}

// StoreKeyValue writes one key/value pair into the named database and store,
// creating both at version 1 if the database does not exist. It is the only
// write path in the toolkit and exists so the read path can be proven against
// a value of known provenance.
func StoreKeyValue(c *Connector, dbName, storeName string, key, value any) error {
	parentErr := errors.Errorf("failed to store %s/%s/%v",
		dbName, storeName, key)

	db, created, err := c.Open(dbName, scratchVersion, storeName)
	if err != nil {
		return errors.WithMessagef(parentErr,
			"Unable to open database: %+v", err)
	}
	defer closeDatabase(db, dbName)
	if !created {
		jww.DEBUG.Printf("Database %s already exists", dbName)
	}

	txn, err := db.Transaction(engine.TransactionReadWrite, storeName)
	if err != nil {
		return errors.WithMessagef(parentErr,
			"Unable to create Transaction: %+v", err)
	}
	store, err := txn.ObjectStore(storeName)
	if err != nil {
		return errors.WithMessagef(parentErr,
			"Unable to get ObjectStore: %+v", err)
	}

	if err = store.Add(context.Background(), key, value); err != nil {
		return errors.WithMessagef(parentErr,
			"Unable to Add to ObjectStore: %+v", err)
	}
	return nil
}

// CanonicalJSON renders a document in its stable textual form: compact JSON
// with object keys sorted. Every document read through an engine serializes
// totally, so a failure here marks a record that cannot be searched.
func CanonicalJSON(value any) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", errors.WithMessage(err, "failed to serialize value")
	}
	return string(data), nil
}

// truncated shortens long strings for log lines.
func truncated(s string) string {
	return truncate.Truncate(s, 64, "...", truncate.PositionMiddle)
}
