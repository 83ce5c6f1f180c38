package schema

import (
	"fmt"
	"sort"
	"sync"
)

// registry of extraction schemas by name, populated by init() in builtin.go
// or explicitly via Register. A deployment selects one by name at startup.
var (
	mu      sync.RWMutex
	schemas = map[string]*Schema{}
)

// Register makes a schema selectable by name. A later registration replaces
// an earlier one with the same name.
func Register(s *Schema) {
	mu.Lock()
	defer mu.Unlock()
	schemas[s.Name] = s
}

// Lookup returns the schema registered under name.
func Lookup(name string) (*Schema, error) {
	mu.RLock()
	defer mu.RUnlock()
	s, ok := schemas[name]
	if !ok {
		return nil, fmt.Errorf("unknown extraction schema: %s", name)
	}
	return s, nil
}

// Names lists registered schema names in sorted order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(schemas))
	for n := range schemas {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
