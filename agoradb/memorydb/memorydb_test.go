// Copyright 2024 The go-agora Authors
// This file is part of the go-agora library.
//
// The go-agora library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-agora library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-agora library. If not, see <http://www.gnu.org/licenses/>.

package memorydb

import (
	"bytes"
	"testing"
)

func TestMemoryDBBasics(t *testing.T) {
	db := New()
	defer db.Close()

	if has, _ := db.Has([]byte("key")); has {
		t.Fatal("empty database reports key")
	}
	if err := db.Put([]byte("key"), []byte("value")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if has, _ := db.Has([]byte("key")); !has {
		t.Fatal("stored key not reported")
	}
	value, err := db.Get([]byte("key"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !bytes.Equal(value, []byte("value")) {
		t.Fatalf("value mismatch: have %q, want %q", value, "value")
	}
	if err := db.Delete([]byte("key")); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if has, _ := db.Has([]byte("key")); has {
		t.Fatal("deleted key still reported")
	}
}

func TestMemoryDBIterator(t *testing.T) {
	db := New()
	defer db.Close()

	content := map[string]string{"ka": "va", "kb": "vb", "kc": "vc", "la": "wa"}
	for key, value := range content {
		if err := db.Put([]byte(key), []byte(value)); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	// Prefix iteration returns only matching keys in sorted order.
	it := db.NewIterator([]byte("k"), nil)
	defer it.Release()

	var keys []string
	for it.Next() {
		keys = append(keys, string(it.Key()))
	}
	if len(keys) != 3 {
		t.Fatalf("key count: have %d, want 3", len(keys))
	}
	for i, want := range []string{"ka", "kb", "kc"} {
		if keys[i] != want {
			t.Errorf("key %d: have %s, want %s", i, keys[i], want)
		}
	}

	// Start offsets skip keys below the seek position.
	it = db.NewIterator([]byte("k"), []byte("b"))
	defer it.Release()

	keys = keys[:0]
	for it.Next() {
		keys = append(keys, string(it.Key()))
	}
	if len(keys) != 2 || keys[0] != "kb" || keys[1] != "kc" {
		t.Fatalf("offset iteration mismatch: %v", keys)
	}
}

func TestMemoryDBBatch(t *testing.T) {
	db := New()
	defer db.Close()

	if err := db.Put([]byte("doomed"), []byte("x")); err != nil {
		t.Fatalf("put: %v", err)
	}
	batch := db.NewBatch()
	if err := batch.Put([]byte("k1"), []byte("v1")); err != nil {
		t.Fatalf("batch put: %v", err)
	}
	if err := batch.Put([]byte("k2"), []byte("v2")); err != nil {
		t.Fatalf("batch put: %v", err)
	}
	if err := batch.Delete([]byte("doomed")); err != nil {
		t.Fatalf("batch delete: %v", err)
	}
	// Nothing lands before Write.
	if db.Len() != 1 {
		t.Fatalf("premature batch application: %d entries", db.Len())
	}
	if err := batch.Write(); err != nil {
		t.Fatalf("batch write: %v", err)
	}
	if db.Len() != 2 {
		t.Fatalf("entry count: have %d, want 2", db.Len())
	}
	if has, _ := db.Has([]byte("doomed")); has {
		t.Fatal("batched delete not applied")
	}

	// Replay copies the batch into another store.
	other := New()
	defer other.Close()
	if err := batch.Replay(other); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if value, _ := other.Get([]byte("k2")); !bytes.Equal(value, []byte("v2")) {
		t.Fatal("replayed value missing")
	}

	batch.Reset()
	if batch.ValueSize() != 0 {
		t.Fatal("reset batch retains size")
	}
}

func TestMemoryDBClose(t *testing.T) {
	db := New()
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := db.Put([]byte("k"), []byte("v")); err != errMemorydbClosed {
		t.Fatalf("put after close: have %v, want %v", err, errMemorydbClosed)
	}
	if _, err := db.Get([]byte("k")); err != errMemorydbClosed {
		t.Fatalf("get after close: have %v, want %v", err, errMemorydbClosed)
	}
}
