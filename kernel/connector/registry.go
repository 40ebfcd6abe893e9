package connector

import (
	"fmt"
	"sync"
)

// Settings holds the connector-type specific configuration carried alongside a
// node definition.
type Settings map[string]interface{}

func (s Settings) String(key, fallback string) string {
	if v, ok := s[key]; ok {
		if str, ok := v.(string); ok {
			return str
		}
	}
	return fallback
}

func (s Settings) Int(key string, fallback int) int {
	if v, ok := s[key]; ok {
		if i, ok := v.(int); ok {
			return i
		}
	}
	return fallback
}

// Factory creates a new instance of a Connector type from its settings.
type Factory func(settings Settings) (Connector, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register registers a factory for a given connector type name.
// e.g. Register("ssh", func(settings Settings) (Connector, error) { ... })
func Register(typeName string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[typeName]; dup {
		panic("connector.Register called twice for " + typeName)
	}
	registry[typeName] = factory
}

// NewConnector creates a new connector of the named type.
func NewConnector(typeName string, settings Settings) (Connector, error) {
	registryMu.RLock()
	factory, ok := registry[typeName]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("connector type '%s' not found in registry", typeName)
	}
	return factory(settings)
}

// Types returns the registered connector type names.
func Types() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}
