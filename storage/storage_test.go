// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2021 MfgLedger Project
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage_test

import (
	"bytes"
	"os"
	"testing"

	"github.com/mfgledger/mfgledgerd/storage"
)

// test database file
const (
	databaseFileName = "test"
)

// remove all files created by test
func removeFiles() {
	os.RemoveAll(databaseFileName + "-state.leveldb")
}

// configure for testing
func setup(t *testing.T) {
	removeFiles()
	err := storage.Initialise(databaseFileName, storage.ReadWrite)
	if nil != err {
		t.Fatalf("storage initialise error: %s", err)
	}
}

// post test cleanup
func teardown(t *testing.T) {
	storage.Finalise()
	removeFiles()
}

// a string data item
type stringElement struct {
	key   string
	value string
}

// this is the expected order after all puts and deletes
var expectedElements = []stringElement{
	{"key-five", "data-five"},
	{"key-four", "data-four"},
	{"key-one", "data-one(NEW)"},
	{"key-seven", "data-seven"},
	{"key-six", "data-six"},
	{"key-three", "data-three"},
	{"key-two", "data-two"},
}

func TestPool(t *testing.T) {
	setup(t)
	defer teardown(t)

	p := storage.Pool.TestData

	p.Put([]byte("key-one"), []byte("data-one"))
	p.Put([]byte("key-two"), []byte("data-two"))
	p.Put([]byte("key-remove-me"), []byte("to be deleted"))
	p.Delete([]byte("key-remove-me"))
	p.Put([]byte("key-three"), []byte("data-three"))
	p.Put([]byte("key-four"), []byte("data-four"))
	p.Put([]byte("key-delete-this"), []byte("to be deleted"))
	p.Put([]byte("key-five"), []byte("data-five"))
	p.Put([]byte("key-six"), []byte("data-six"))
	p.Delete([]byte("key-delete-this"))
	p.Put([]byte("key-seven"), []byte("data-seven"))
	p.Put([]byte("key-one"), []byte("data-one(NEW)")) // duplicate

	checkResults(t, p)

	// check that restarting database keeps data
	storage.Finalise()
	err := storage.Initialise(databaseFileName, storage.ReadWrite)
	if nil != err {
		t.Fatalf("storage re-initialise error: %s", err)
	}
	checkResults(t, storage.Pool.TestData)
}

func checkResults(t *testing.T, p *storage.PoolHandle) {

	// ensure that a missing key is detected
	if p.Has([]byte("no-such-key")) {
		t.Errorf("Has('no-such-key') returned true")
	}
	if nil != p.Get([]byte("no-such-key")) {
		t.Errorf("Get('no-such-key') returned data")
	}

	// scan the pool and compare against the expected key order
	i := 0
	p.Scan(func(key []byte, value []byte) bool {
		if i >= len(expectedElements) {
			t.Errorf("extra element: %q -> %q", key, value)
			return false
		}
		e := expectedElements[i]
		if !bytes.Equal(key, []byte(e.key)) {
			t.Errorf("element: %d  key: %q  expected: %q", i, key, e.key)
		}
		if !bytes.Equal(value, []byte(e.value)) {
			t.Errorf("element: %d  value: %q  expected: %q", i, value, e.value)
		}
		i += 1
		return true
	})
	if i != len(expectedElements) {
		t.Errorf("element count: %d  expected: %d", i, len(expectedElements))
	}

	// last element in key order
	last, found := p.LastElement()
	if !found {
		t.Fatalf("LastElement not found")
	}
	e := expectedElements[len(expectedElements)-1]
	if !bytes.Equal(last.Key, []byte(e.key)) {
		t.Errorf("last key: %q  expected: %q", last.Key, e.key)
	}
	if !bytes.Equal(last.Value, []byte(e.value)) {
		t.Errorf("last value: %q  expected: %q", last.Value, e.value)
	}
}

func TestPoolIsolation(t *testing.T) {
	setup(t)
	defer teardown(t)

	storage.Pool.Batches.Put([]byte("shared-key"), []byte("batch data"))
	storage.Pool.Journal.Put([]byte("shared-key"), []byte("journal data"))

	b := storage.Pool.Batches.Get([]byte("shared-key"))
	j := storage.Pool.Journal.Get([]byte("shared-key"))

	if !bytes.Equal(b, []byte("batch data")) {
		t.Errorf("batches pool value: %q  expected: %q", b, "batch data")
	}
	if !bytes.Equal(j, []byte("journal data")) {
		t.Errorf("journal pool value: %q  expected: %q", j, "journal data")
	}

	storage.Pool.Batches.Delete([]byte("shared-key"))
	if storage.Pool.Batches.Has([]byte("shared-key")) {
		t.Errorf("batches pool still has deleted key")
	}
	if !storage.Pool.Journal.Has([]byte("shared-key")) {
		t.Errorf("journal pool lost its key")
	}
}
