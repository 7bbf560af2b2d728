////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package inspect holds the schema-agnostic inspection machinery: database
// enumeration, whole-store scans, point reads, and the keyword search that
// drives them across every database in the origin.
package inspect

import (
	"context"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"

	"github.com/eli-fin/idb-inspect/engine"
)

// DatabaseDescriptor is an immutable snapshot of one database taken during
// enumeration. Store names are accurate only for the version recorded here.
type DatabaseDescriptor struct {
	Name       string   `json:"name"`
	Version    uint     `json:"version"`
	StoreNames []string `json:"storeNames"`
}

// Connector opens and enumerates databases. It owns no connections itself;
// every Open hands ownership to the caller, who must close exactly once, on
// every path. A leaked connection blocks any later open of the same database
// that needs a version change.
type Connector struct {
	factory engine.Factory
}

// NewConnector returns a Connector over the given engine.
func NewConnector(factory engine.Factory) *Connector {
	return &Connector{factory: factory}
}

// Open opens the named database for reading. Version 0 means the currently
// stored version. If the database does not exist and createStore is not
// empty, the database is created with exactly that store and created reports
// it; with an empty createStore the open of a missing database fails rather
// than leaving an empty database behind. An existing database is never
// upgraded.
func (c *Connector) Open(name string, version uint, createStore string) (
	db engine.Database, created bool, err error) {
	parentErr := errors.Errorf("failed to open database %s", name)

	db, err = c.factory.Open(context.Background(), name, version,
		func(db engine.Database, oldVersion, newVersion uint) error {
			if oldVersion != 0 {
				return errors.Errorf(
					"refusing to upgrade existing schema: v%d -> v%d",
					oldVersion, newVersion)
			}
			if createStore == "" {
				return errors.New("database does not exist")
			}
			if _, err := db.CreateObjectStore(createStore); err != nil {
				return err
			}
			jww.INFO.Printf("Created database %s with store %s",
				name, createStore)
			created = true
			return nil
		})
	if err != nil {
		return nil, false, errors.WithMessagef(parentErr,
			"Unable to open database: %+v", err)
	}
	return db, created, nil
}

// ListAll enumerates every database known to the engine along with its store
// names. Databases are opened one at a time, each at its own reported
// version, and closed before the next open; a database that fails to open is
// skipped with a warning so it cannot hide the rest. Callers must not assume
// any particular order.
func (c *Connector) ListAll() ([]DatabaseDescriptor, error) {
	infos, err := c.factory.Databases(context.Background())
	if err != nil {
		return nil, errors.WithMessage(err, "failed to enumerate databases")
	}

	descriptors := make([]DatabaseDescriptor, 0, len(infos))
	for _, info := range infos {
		db, _, err := c.Open(info.Name, info.Version, "")
		if err != nil {
			jww.WARN.Printf("Skipping database %s: %+v", info.Name, err)
			continue
		}
		storeNames, err := db.ObjectStoreNames()
		closeDatabase(db, info.Name)
		if err != nil {
			jww.WARN.Printf(
				"Skipping database %s: failed to list stores: %+v",
				info.Name, err)
			continue
		}
		descriptors = append(descriptors, DatabaseDescriptor{
			Name:       info.Name,
			Version:    info.Version,
			StoreNames: storeNames,
		})
	}
	jww.DEBUG.Printf("Enumerated %d of %d database(s)",
		len(descriptors), len(infos))
	return descriptors, nil
}

// closeDatabase closes db, logging a failure instead of returning it. Used
// on paths where a close error must not displace the read result.
func closeDatabase(db engine.Database, name string) {
	if err := db.Close(); err != nil {
		jww.ERROR.Printf("Failed to close database %s: %+v", name, err)
	}
}
