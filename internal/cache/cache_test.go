package cache

import (
	"fmt"
	"sync"
	"testing"
)

func TestCache_BasicOperations(t *testing.T) {
	cache := NewCache[string, string]()

	t.Run("Set and Get", func(t *testing.T) {
		cache.Set("key", "value")

		got, exists := cache.Get("key")
		if !exists {
			t.Error("Expected key to exist")
		}
		if got != "value" {
			t.Errorf("Expected %q, got %q", "value", got)
		}
	})

	t.Run("Get non-existent key", func(t *testing.T) {
		if _, exists := cache.Get("non-existent"); exists {
			t.Error("Expected key to not exist")
		}
	})

	t.Run("Overwrite existing key", func(t *testing.T) {
		cache.Set("overwrite", "value1")
		cache.Set("overwrite", "value2")

		got, _ := cache.Get("overwrite")
		if got != "value2" {
			t.Errorf("Expected %q, got %q", "value2", got)
		}
	})
}

func TestCache_Delete(t *testing.T) {
	cache := NewCache[string, int]()
	cache.Set("a", 1)

	if !cache.Delete("a") {
		t.Error("Expected Delete to report an existing key")
	}
	if cache.Delete("a") {
		t.Error("Expected second Delete to report a missing key")
	}
	if cache.Len() != 0 {
		t.Errorf("Expected empty cache, got %d items", cache.Len())
	}
}

func TestCache_Swap(t *testing.T) {
	cache := NewCache[string, int]()

	if _, ok := cache.Swap("slot", 1); ok {
		t.Error("Expected no previous value on first Swap")
	}

	prev, ok := cache.Swap("slot", 2)
	if !ok || prev != 1 {
		t.Errorf("Expected previous value 1, got %d (ok=%v)", prev, ok)
	}

	got, _ := cache.Get("slot")
	if got != 2 {
		t.Errorf("Expected 2, got %d", got)
	}
}

func TestCache_Clear(t *testing.T) {
	cache := NewCache[string, string]()
	cache.Set("key1", "value1")
	cache.Set("key2", "value2")

	cache.Clear()

	if cache.Len() != 0 {
		t.Errorf("Expected all keys to be cleared, %d remain", cache.Len())
	}
}

func TestCache_Concurrency(t *testing.T) {
	cache := NewCache[int, string]()
	const numGoroutines = 50
	const numOperations = 200

	var wg sync.WaitGroup
	for i := 0; i < numGoroutines; i++ {
		wg.Add(2)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < numOperations; j++ {
				cache.Set(id*numOperations+j, fmt.Sprintf("value-%d-%d", id, j))
			}
		}(i)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < numOperations; j++ {
				cache.Get(id*numOperations + j)
				cache.Delete(id*numOperations + j)
			}
		}(i)
	}
	wg.Wait()
}
