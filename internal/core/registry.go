package core

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ErrUnknownFormat is returned when no registered format handles a file.
var ErrUnknownFormat = errors.New("unknown format")

var (
	registry   = make(map[string]FormatDefinition)
	registryMu sync.RWMutex
)

// Register adds a format definition to the registry.
// Panics if a format with the same key is already registered, or if an
// extension is already claimed by another format.
func Register(def FormatDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if def.Key == "" || def.NewParser == nil {
		panic("format registration needs a key and a parser constructor")
	}
	if _, exists := registry[def.Key]; exists {
		panic(fmt.Sprintf("format already registered: %s", def.Key))
	}

	for i, ext := range def.Extensions {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		def.Extensions[i] = ext
		for _, other := range registry {
			for _, taken := range other.Extensions {
				if taken == ext {
					panic(fmt.Sprintf("extension %s already registered by %s", ext, other.Key))
				}
			}
		}
	}

	registry[def.Key] = def
}

// Get returns a format definition by key.
// Returns false if not found.
func Get(key string) (FormatDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[key]
	return def, ok
}

// ForFile returns the format handling fileName's extension.
func ForFile(fileName string) (FormatDefinition, error) {
	ext := strings.ToLower(filepath.Ext(fileName))

	registryMu.RLock()
	defer registryMu.RUnlock()

	for _, def := range registry {
		for _, e := range def.Extensions {
			if e == ext {
				return def, nil
			}
		}
	}
	return FormatDefinition{}, fmt.Errorf("%w: no format handles %q files", ErrUnknownFormat, ext)
}

// All returns all registered format definitions sorted by key.
func All() []FormatDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]FormatDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})

	return result
}

// FormatCount returns the number of registered formats.
func FormatCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}
