package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultCatalog []byte

// Registry indexes catalog entries by quota code.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]Entry),
	}
}

// Default returns a registry populated with the built-in EC2 catalog.
func Default() (*Registry, error) {
	f, err := LoadFromBytes(defaultCatalog)
	if err != nil {
		return nil, fmt.Errorf("built-in catalog: %w", err)
	}
	return FromFile(f)
}

// FromFile builds a registry from a parsed catalog file.
func FromFile(f *File) (*Registry, error) {
	r := NewRegistry()
	for _, e := range f.Quotas {
		if err := r.Register(e); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds an entry to the registry.
func (r *Registry) Register(e Entry) error {
	if e.QuotaCode == "" {
		return fmt.Errorf("catalog entry %q: missing quota code", e.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[e.QuotaCode]; exists {
		return fmt.Errorf("quota %q already registered", e.QuotaCode)
	}
	r.entries[e.QuotaCode] = e
	return nil
}

// Get returns the entry for a quota code.
func (r *Registry) Get(quotaCode string) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[quotaCode]
	if !ok {
		return Entry{}, fmt.Errorf("quota %q not found", quotaCode)
	}
	return e, nil
}

// All returns every entry sorted by quota code.
func (r *Registry) All() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].QuotaCode < entries[j].QuotaCode })
	return entries
}

// FindQuotaForInstanceType searches the catalog for the quota limiting the given instance type.
func (r *Registry) FindQuotaForInstanceType(instanceType string) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.entries {
		if e.Covers(instanceType) {
			return e, nil
		}
	}
	return Entry{}, fmt.Errorf("no quota found for instance type %q", instanceType)
}

// Load reads a YAML catalog file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file %s: %w", path, err)
	}

	f, err := LoadFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("catalog file %s: %w", path, err)
	}
	return f, nil
}

// LoadFromBytes parses YAML catalog data from raw bytes.
func LoadFromBytes(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog data: %w", err)
	}
	if len(f.Quotas) == 0 {
		return nil, fmt.Errorf("no quotas defined")
	}
	return &f, nil
}
