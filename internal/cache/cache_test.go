package cache

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestKey_Distinct(t *testing.T) {
	a := Key("colbert", "skagen painters", 15)
	b := Key("colbert", "skagen painters", 7)
	c := Key("wiki", "skagen painters", 15)

	if a == b || a == c || b == c {
		t.Errorf("expected distinct keys, got %q %q %q", a, b, c)
	}
	if a != Key("colbert", "skagen painters", 15) {
		t.Error("same request should produce the same key")
	}
}

func TestDisk_RoundTrip(t *testing.T) {
	d := NewDisk(t.TempDir(), time.Minute)
	key := Key("colbert", "q", 5)

	if _, found := d.Get(key); found {
		t.Fatal("unexpected hit on empty cache")
	}

	if err := d.Set(key, []byte("payload"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	val, found := d.Get(key)
	if !found || !bytes.Equal(val, []byte("payload")) {
		t.Fatalf("expected payload back, got %q (found=%v)", val, found)
	}

	if err := d.Delete(key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, found := d.Get(key); found {
		t.Error("expected miss after delete")
	}
	if err := d.Delete(key); err != nil {
		t.Errorf("deleting a missing key should not error, got %v", err)
	}
}

func TestDisk_Expiry(t *testing.T) {
	d := NewDisk(t.TempDir(), time.Minute)

	if err := d.Set("k", []byte("v"), -time.Second); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, found := d.Get("k"); found {
		t.Error("expected expired entry to miss")
	}
}

func TestDisk_CorruptEntryEvicted(t *testing.T) {
	dir := t.TempDir()
	d := NewDisk(dir, time.Minute)

	path := filepath.Join(dir, "ab", "keyab.json")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("not json"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, found := d.Get("keyab"); found {
		t.Fatal("corrupt entry should miss")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt entry should be removed")
	}
}

func TestLayered_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()

	// Seed only the disk layer, then read through a fresh layered cache
	seed := NewDisk(dir, time.Minute)
	if err := seed.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("seed: %v", err)
	}

	l := NewLayered(time.Minute, dir, time.Minute)
	val, found := l.Get("k")
	if !found || !bytes.Equal(val, []byte("v")) {
		t.Fatalf("expected disk hit through layered cache, got %q (found=%v)", val, found)
	}

	// A promoted entry survives the disk copy going away
	if err := seed.Delete("k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, found := l.Get("k"); !found {
		t.Error("expected promoted entry in memory layer")
	}
}
