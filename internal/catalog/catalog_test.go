package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	vperrors "vulture/pkg/errors"
)

func TestDefault(t *testing.T) {
	c := Default()

	if c.Len() != 9 {
		t.Fatalf("Len() = %d, want 9", c.Len())
	}
	if got := c.First().ConfigID; got != "Sweden1.ovpn" {
		t.Errorf("First().ConfigID = %v, want Sweden1.ovpn", got)
	}
	if w := c.Validate(); len(w) != 0 {
		t.Errorf("Validate() on default catalog = %v, want no warnings", w)
	}
}

func TestNew_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		entries []ServerEntry
		want    error
	}{
		{"empty", nil, vperrors.ErrEmptyCatalog},
		{"no name", []ServerEntry{{ConfigID: "a.ovpn"}}, vperrors.ErrInvalidEntry},
		{"no config", []ServerEntry{{Name: "A"}}, vperrors.ErrInvalidEntry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.entries)
			if !errors.Is(err, tt.want) {
				t.Errorf("New() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCatalog_Immutable(t *testing.T) {
	src := []ServerEntry{{Name: "Sweden", ConfigID: "Sweden1.ovpn"}}
	c, err := New(src)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	src[0].Name = "Changed"
	entries := c.Entries()
	entries[0].Name = "Changed again"

	if got := c.First().Name; got != "Sweden" {
		t.Errorf("First().Name = %v, want Sweden", got)
	}
}

func TestCatalog_Lookup(t *testing.T) {
	c, _ := New([]ServerEntry{
		{Name: "Sweden", ConfigID: "Sweden1.ovpn"},
		{Name: "Norway", ConfigID: "Sweden1.ovpn"},
		{Name: "Poland", ConfigID: "Poland1.ovpn"},
	})

	tests := []struct {
		query string
		name  string
		ok    bool
	}{
		{"Sweden1.ovpn", "Sweden", true},
		{"Poland1.ovpn", "Poland", true},
		{"Missing.ovpn", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			e, ok := c.Lookup(tt.query)
			if ok != tt.ok || e.Name != tt.name {
				t.Errorf("Lookup(%q) = (%v, %v), want (%v, %v)", tt.query, e.Name, ok, tt.name, tt.ok)
			}
		})
	}

	if e, ok := c.LookupName("poland"); !ok || e.ConfigID != "Poland1.ovpn" {
		t.Errorf("LookupName(poland) = (%v, %v)", e, ok)
	}
	if e, ok := c.LookupName("Poland1.ovpn"); !ok || e.Name != "Poland" {
		t.Errorf("LookupName(Poland1.ovpn) = (%v, %v)", e, ok)
	}

	ids := c.ConfigIDs()
	if len(ids) != 2 || ids[0] != "Sweden1.ovpn" || ids[1] != "Poland1.ovpn" {
		t.Errorf("ConfigIDs() = %v", ids)
	}
}

func TestCatalog_Validate(t *testing.T) {
	tests := []struct {
		name    string
		entries []ServerEntry
		want    int
	}{
		{
			name: "unique",
			entries: []ServerEntry{
				{Name: "Sweden", ConfigID: "Sweden1.ovpn"},
				{Name: "Poland", ConfigID: "Poland1.ovpn"},
			},
			want: 0,
		},
		{
			name: "identical alias",
			entries: []ServerEntry{
				{Name: "Sweden", ConfigID: "Sweden1.ovpn", Address: "1.1.1.1"},
				{Name: "Sweden", ConfigID: "Sweden1.ovpn", Address: "1.1.1.1"},
			},
			want: 0,
		},
		{
			name: "divergent metadata",
			entries: []ServerEntry{
				{Name: "China", ConfigID: "HongKong1.ovpn", Address: "119.28.45.12"},
				{Name: "Hong Kong", ConfigID: "HongKong1.ovpn", Address: "119.28.45.12"},
				{Name: "Poland", ConfigID: "Poland1.ovpn"},
			},
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.entries)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			got := c.Validate()
			if len(got) != tt.want {
				t.Errorf("Validate() returned %d warnings, want %d: %v", len(got), tt.want, got)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "servers.yaml")
	data := `servers:
  - name: Sweden
    config: Sweden1.ovpn
    flag: https://flagcdn.com/w320/se.png
    ip: 132.225.2.234
  - name: Poland
    config: Poland1.ovpn
`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	c, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
	if e, _ := c.Lookup("Sweden1.ovpn"); e.Address != "132.225.2.234" {
		t.Errorf("Address = %v, want 132.225.2.234", e.Address)
	}

	bad := filepath.Join(dir, "bad.yaml")
	os.WriteFile(bad, []byte("servers:\n  - name: X\n    config: x.ovpn\n    port: 1\n"), 0600)
	if _, err := LoadFile(bad); err == nil {
		t.Error("LoadFile() with unknown field should fail")
	}
}

func TestLoadOrDefault_Missing(t *testing.T) {
	c, err := LoadOrDefault(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if c.Len() != Default().Len() {
		t.Errorf("LoadOrDefault() len = %d, want default", c.Len())
	}
}
