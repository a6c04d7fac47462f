// Copyright 2025 Certen Protocol
//
// DBAdapter wraps CometBFT's dbm.DB interface to implement kvstore.KV.

package kvstore

import (
	dbm "github.com/cometbft/cometbft-db"
)

// DBAdapter wraps a CometBFT dbm.DB and exposes the KV interface, so the
// domain stores never import cometbft-db directly.
type DBAdapter struct {
	db dbm.DB
}

// NewDBAdapter wraps db, a GoLevelDB instance opened by the caller.
func NewDBAdapter(db dbm.DB) *DBAdapter {
	return &DBAdapter{db: db}
}

func (a *DBAdapter) Get(key []byte) ([]byte, error) {
	v, err := a.db.Get(key)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Set writes synchronously: every domain store's persisted state must
// survive a crash immediately after Commit returns.
func (a *DBAdapter) Set(key, value []byte) error {
	return a.db.SetSync(key, value)
}

func (a *DBAdapter) Delete(key []byte) error {
	return a.db.DeleteSync(key)
}

func (a *DBAdapter) Iterator(start, end []byte) (Iterator, error) {
	it, err := a.db.Iterator(start, end)
	if err != nil {
		return nil, err
	}
	return &dbmIterator{it: it}, nil
}

// Close releases the underlying database handle.
func (a *DBAdapter) Close() error {
	return a.db.Close()
}

type dbmIterator struct {
	it dbm.Iterator
}

func (d *dbmIterator) Valid() bool   { return d.it.Valid() }
func (d *dbmIterator) Next()         { d.it.Next() }
func (d *dbmIterator) Key() []byte   { return d.it.Key() }
func (d *dbmIterator) Value() []byte { return d.it.Value() }
func (d *dbmIterator) Close() error  { return d.it.Close() }
