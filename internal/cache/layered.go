package cache

import (
	"fmt"
	"time"
)

// Layered combines the memory and disk layers. Reads try memory first
// and promote disk hits; writes go to both.
type Layered struct {
	memory Cache
	disk   Cache
}

// NewLayered creates the standard memory-over-disk cache
func NewLayered(memoryTTL time.Duration, diskDir string, diskTTL time.Duration) *Layered {
	return &Layered{
		memory: NewMemory(memoryTTL),
		disk:   NewDisk(diskDir, diskTTL),
	}
}

// Get checks memory, then disk. A disk hit is promoted into memory with
// the memory layer's default TTL.
func (l *Layered) Get(key string) ([]byte, bool) {
	if val, found := l.memory.Get(key); found {
		return val, true
	}

	if val, found := l.disk.Get(key); found {
		_ = l.memory.Set(key, val, 0)
		return val, true
	}

	return nil, false
}

// Set writes to both layers. The memory write cannot fail; a disk
// failure surfaces so callers can decide whether to care.
func (l *Layered) Set(key string, value []byte, ttl time.Duration) error {
	if err := l.memory.Set(key, value, ttl); err != nil {
		return err
	}
	if err := l.disk.Set(key, value, ttl); err != nil {
		return fmt.Errorf("disk layer: %w", err)
	}
	return nil
}

// Delete removes key from both layers
func (l *Layered) Delete(key string) error {
	memErr := l.memory.Delete(key)
	diskErr := l.disk.Delete(key)
	if memErr != nil {
		return memErr
	}
	return diskErr
}

// Clear empties both layers
func (l *Layered) Clear() error {
	memErr := l.memory.Clear()
	diskErr := l.disk.Clear()
	if memErr != nil {
		return memErr
	}
	return diskErr
}
