package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	vperrors "vulture/pkg/errors"
)

// ServerEntry is one selectable VPN location.
type ServerEntry struct {
	Name     string `yaml:"name"`
	ConfigID string `yaml:"config"`
	FlagURL  string `yaml:"flag"`
	Address  string `yaml:"ip"`
}

// sameDisplay reports whether two entries render identically.
func (e ServerEntry) sameDisplay(o ServerEntry) bool {
	return e.Name == o.Name && e.FlagURL == o.FlagURL && e.Address == o.Address
}

// Catalog is an immutable, ordered list of server entries.
type Catalog struct {
	entries []ServerEntry
}

// New builds a catalog from entries, preserving their order.
func New(entries []ServerEntry) (*Catalog, error) {
	if len(entries) == 0 {
		return nil, vperrors.ErrEmptyCatalog
	}
	for i, e := range entries {
		if strings.TrimSpace(e.Name) == "" {
			return nil, fmt.Errorf("entry %d: empty name: %w", i, vperrors.ErrInvalidEntry)
		}
		if strings.TrimSpace(e.ConfigID) == "" {
			return nil, fmt.Errorf("entry %d (%s): empty config: %w", i, e.Name, vperrors.ErrInvalidEntry)
		}
	}
	cp := make([]ServerEntry, len(entries))
	copy(cp, entries)
	return &Catalog{entries: cp}, nil
}

// Entries returns a copy of all entries in catalog order.
func (c *Catalog) Entries() []ServerEntry {
	cp := make([]ServerEntry, len(c.entries))
	copy(cp, c.entries)
	return cp
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// First returns the first entry.
func (c *Catalog) First() ServerEntry {
	return c.entries[0]
}

// Lookup returns the first entry with the given config identifier.
func (c *Catalog) Lookup(configID string) (ServerEntry, bool) {
	for _, e := range c.entries {
		if e.ConfigID == configID {
			return e, true
		}
	}
	return ServerEntry{}, false
}

// LookupName finds an entry by display name (case-insensitive) or, failing
// that, by config identifier.
func (c *Catalog) LookupName(name string) (ServerEntry, bool) {
	for _, e := range c.entries {
		if strings.EqualFold(e.Name, name) {
			return e, true
		}
	}
	return c.Lookup(name)
}

// ConfigIDs returns the distinct config identifiers in first-seen order.
func (c *Catalog) ConfigIDs() []string {
	seen := make(map[string]bool, len(c.entries))
	var ids []string
	for _, e := range c.entries {
		if seen[e.ConfigID] {
			continue
		}
		seen[e.ConfigID] = true
		ids = append(ids, e.ConfigID)
	}
	return ids
}

// Warning describes a suspicious but non-fatal catalog condition.
type Warning struct {
	ConfigID string
	Entries  []ServerEntry
}

func (w Warning) String() string {
	names := make([]string, 0, len(w.Entries))
	for _, e := range w.Entries {
		names = append(names, fmt.Sprintf("%s (%s)", e.Name, e.Address))
	}
	return fmt.Sprintf("config %s is shared by entries with different display data: %s",
		w.ConfigID, strings.Join(names, ", "))
}

// Validate reports config identifiers that are reused by entries whose
// display metadata differ. Identical duplicates are treated as aliases.
func (c *Catalog) Validate() []Warning {
	groups := make(map[string][]ServerEntry)
	for _, e := range c.entries {
		groups[e.ConfigID] = append(groups[e.ConfigID], e)
	}

	var warnings []Warning
	for _, id := range c.ConfigIDs() {
		group := groups[id]
		for _, e := range group[1:] {
			if !e.sameDisplay(group[0]) {
				warnings = append(warnings, Warning{ConfigID: id, Entries: group})
				break
			}
		}
	}
	return warnings
}

type catalogFile struct {
	Servers []ServerEntry `yaml:"servers"`
}

// LoadFile reads a catalog override from a YAML file.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog file: %w", err)
	}
	defer f.Close()

	var cf catalogFile
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cf); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file %s: %w", path, err)
	}
	return New(cf.Servers)
}

// LoadOrDefault returns the catalog at path if it exists, otherwise the
// built-in catalog.
func LoadOrDefault(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return LoadFile(path)
}
