package dl

import (
	"fmt"
	"sort"
	"sync"
)

// The process-wide extension registry. Extensions register themselves by
// name, usually from an init function; the session driver preloads them by
// the names its manifest lists.

var (
	registryMu sync.RWMutex
	registry   = make(map[string]*DLL)
)

// Register makes an extension available under its name. Registering two
// extensions with the same name is a programming error.
func Register(d *DLL) error {
	if d == nil || d.Name == "" {
		return fmt.Errorf("dl: register: extension must have a name")
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[d.Name]; dup {
		return fmt.Errorf("dl: register: extension %q already registered", d.Name)
	}
	registry[d.Name] = d
	return nil
}

// Lookup returns the registered extension named name.
func Lookup(name string) (*DLL, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	d, ok := registry[name]
	return d, ok
}

// Names returns the registered extension names, sorted.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
