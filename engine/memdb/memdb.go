////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package memdb is a deterministic in-memory implementation of the engine
// capability surface. It backs the test suites and native builds, where the
// browser engine does not exist, and it is stricter than the real engine on
// purpose: connection leaks and double closes, which the browser punishes by
// stalling a later versioned open forever, fail loudly here instead.
//
// The package is not safe for concurrent use. The toolkit runs strictly
// sequentially, and this fake checks that discipline rather than hiding
// races behind locks.
package memdb

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"

	"github.com/eli-fin/idb-inspect/engine"
)

// Factory is an in-memory [engine.Factory]. Use NewFactory; the zero value
// has nowhere to keep databases.
type Factory struct {
	dbs map[string]*database
}

// NewFactory returns an empty in-memory engine.
func NewFactory() *Factory {
	return &Factory{dbs: make(map[string]*database)}
}

// database is the stored state of one database, as opposed to a connection
// onto it.
type database struct {
	name    string
	version uint
	stores  map[string]*store

	// conns counts open connections. A versioned open that needs an upgrade
	// is refused while this is non-zero; the real engine would block it
	// until every other connection closes.
	conns int
}

// store keeps records sorted ascending by key. Writes replace the slice
// (copy-on-write) so read transactions keep the snapshot they started with.
type store struct {
	records []record
}

type record struct {
	key   any
	value any
}

// Open opens or creates the named database. Version 0 means "whatever version
// is stored", the way an unversioned open does in the browser. See
// [engine.Factory] for the upgrade rules.
func (f *Factory) Open(_ context.Context, name string, version uint,
	upgrade engine.UpgradeFunc) (engine.Database, error) {
	db, exists := f.dbs[name]
	if !exists {
		if version == 0 {
			version = 1
		}
		db = &database{
			name:    name,
			version: version,
			stores:  make(map[string]*store),
		}
		conn := &connection{db: db, upgrading: true}
		if upgrade != nil {
			jww.INFO.Printf("memdb: creating database %q at v%d", name, version)
			if err := upgrade(conn, 0, version); err != nil {
				// Nothing is kept; the database never existed.
				return nil, errors.WithMessagef(err,
					"upgrade of new database %q failed", name)
			}
		}
		conn.upgrading = false
		f.dbs[name] = db
		db.conns++
		return conn, nil
	}

	if version == 0 || version == db.version {
		db.conns++
		return &connection{db: db}, nil
	}
	if version < db.version {
		return nil, errors.Errorf("requested version %d of database %q is "+
			"below stored version %d", version, name, db.version)
	}

	// version > db.version: a schema upgrade is required.
	if db.conns > 0 {
		return nil, errors.Errorf("upgrade of database %q to v%d blocked by "+
			"%d open connection(s)", name, version, db.conns)
	}
	if upgrade == nil {
		return nil, errors.Errorf("database %q is at v%d and no upgrade to "+
			"v%d was provided", name, db.version, version)
	}

	// Stage the upgrade on a copy so a failed callback changes nothing,
	// mirroring the engine's aborted version-change transaction.
	staged := db.clone()
	conn := &connection{db: staged, upgrading: true}
	jww.INFO.Printf("memdb: upgrade required for %q: v%d -> v%d",
		name, db.version, version)
	if err := upgrade(conn, db.version, version); err != nil {
		return nil, errors.WithMessagef(err,
			"upgrade of database %q to v%d failed", name, version)
	}
	staged.version = version
	conn.upgrading = false
	f.dbs[name] = staged
	staged.conns++
	return conn, nil
}

// Databases lists every stored database, sorted by name so tests see a fixed
// order. Callers outside tests must not rely on it.
func (f *Factory) Databases(context.Context) ([]engine.DatabaseInfo, error) {
	infos := make([]engine.DatabaseInfo, 0, len(f.dbs))
	for _, db := range f.dbs {
		infos = append(infos, engine.DatabaseInfo{
			Name:    db.name,
			Version: db.version,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// clone returns a copy of the database whose stores share record slices with
// the original; copy-on-write keeps both views consistent.
func (d *database) clone() *database {
	stores := make(map[string]*store, len(d.stores))
	for name, s := range d.stores {
		stores[name] = &store{records: s.records}
	}
	return &database{name: d.name, version: d.version, stores: stores}
}

// connection is one open handle onto a database. The call that opened it owns
// it and must close it exactly once.
type connection struct {
	db        *database
	upgrading bool
	closed    bool
}

func (c *connection) ObjectStoreNames() ([]string, error) {
	if c.closed {
		return nil, errors.Errorf("connection to %q is closed", c.db.name)
	}
	names := make([]string, 0, len(c.db.stores))
	for name := range c.db.stores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (c *connection) CreateObjectStore(name string) (engine.ObjectStore, error) {
	if !c.upgrading {
		return nil, errors.Errorf("store %q can only be created during an "+
			"upgrade of %q", name, c.db.name)
	}
	if _, exists := c.db.stores[name]; exists {
		return nil, errors.Errorf("database %q already has a store %q",
			c.db.name, name)
	}
	s := &store{}
	c.db.stores[name] = s
	return &objectStore{db: c.db, name: name, data: s, writable: true}, nil
}

func (c *connection) Transaction(mode engine.TransactionMode, storeName string,
	storeNames ...string) (engine.Transaction, error) {
	if c.closed {
		return nil, errors.Errorf("connection to %q is closed", c.db.name)
	}
	if c.upgrading {
		return nil, errors.Errorf("database %q is mid-upgrade", c.db.name)
	}

	txn := &transaction{stores: make(map[string]*objectStore)}
	for _, name := range append([]string{storeName}, storeNames...) {
		s, exists := c.db.stores[name]
		if !exists {
			return nil, errors.Errorf("database %q has no store %q",
				c.db.name, name)
		}
		txn.stores[name] = &objectStore{
			db:   c.db,
			name: name,
			data: s,
			// The slice header is the snapshot: later copy-on-write
			// appends to the live store cannot reach it.
			snapshot: s.records,
			writable: mode == engine.TransactionReadWrite,
		}
	}
	return txn, nil
}

func (c *connection) Close() error {
	if c.closed {
		return errors.Errorf("connection to %q closed twice", c.db.name)
	}
	c.closed = true
	c.db.conns--
	return nil
}

// transaction scopes object stores opened together.
type transaction struct {
	stores map[string]*objectStore
}

func (t *transaction) ObjectStore(name string) (engine.ObjectStore, error) {
	s, exists := t.stores[name]
	if !exists {
		return nil, errors.Errorf("store %q is not in this transaction's scope",
			name)
	}
	return s, nil
}

// objectStore is the view of one store inside a transaction or an upgrade.
// Read-only views iterate their snapshot; writable views work on the live
// store.
type objectStore struct {
	db       *database
	name     string
	data     *store
	snapshot []record
	writable bool
}

func (o *objectStore) view() []record {
	if o.writable {
		return o.data.records
	}
	return o.snapshot
}

func (o *objectStore) Get(_ context.Context, key any) (any, error) {
	norm, err := engine.NormalizeKey(key)
	if err != nil {
		return nil, errors.WithMessagef(err, "invalid key for %q", o.name)
	}
	records := o.view()
	i := sort.Search(len(records), func(i int) bool {
		return engine.CompareKeys(records[i].key, norm) >= 0
	})
	if i == len(records) || engine.CompareKeys(records[i].key, norm) != 0 {
		return nil, errors.WithMessagef(engine.ErrDoesNotExist,
			"store %q has no record with key %v", o.name, norm)
	}
	return cloneValue(records[i].value), nil
}

func (o *objectStore) Iterate(_ context.Context, fn engine.IterFunc) error {
	for _, r := range o.view() {
		if err := fn(cloneValue(r.key), cloneValue(r.value)); err != nil {
			return err
		}
	}
	return nil
}

func (o *objectStore) Add(_ context.Context, key, value any) error {
	if !o.writable {
		return errors.Errorf("store %q is in a read-only transaction", o.name)
	}
	norm, err := engine.NormalizeKey(key)
	if err != nil {
		return errors.WithMessagef(err, "invalid key for %q", o.name)
	}

	records := o.data.records
	i := sort.Search(len(records), func(i int) bool {
		return engine.CompareKeys(records[i].key, norm) >= 0
	})
	if i < len(records) && engine.CompareKeys(records[i].key, norm) == 0 {
		return errors.Errorf("store %q already has a record with key %v",
			o.name, norm)
	}

	// Copy-on-write insert keeps earlier read snapshots intact.
	inserted := make([]record, 0, len(records)+1)
	inserted = append(inserted, records[:i]...)
	inserted = append(inserted, record{key: norm, value: cloneValue(value)})
	inserted = append(inserted, records[i:]...)
	o.data.records = inserted
	jww.TRACE.Printf("memdb: added %s/%v", o.name, norm)
	return nil
}

// cloneValue deep-copies the JSON-like subset of a document tree, standing in
// for the structured clone the real engine performs on both writes and reads.
// Anything else is shared by reference.
func cloneValue(v any) any {
	switch value := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(value))
		for k, elem := range value {
			m[k] = cloneValue(elem)
		}
		return m
	case []any:
		s := make([]any, len(value))
		for i, elem := range value {
			s[i] = cloneValue(elem)
		}
		return s
	default:
		return value
	}
}
