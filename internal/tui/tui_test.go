package tui

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"vulture/internal/catalog"
	"vulture/internal/core"
	"vulture/internal/core/types"
	vperrors "vulture/pkg/errors"
)

type fakeController struct {
	mu       sync.Mutex
	cat      *catalog.Catalog
	snap     core.Snapshot
	toggles  int
	selected []string
	busy     bool
}

func (f *fakeController) Snapshot() core.Snapshot       { return f.snap }
func (f *fakeController) Subscribe(func(core.Snapshot)) {}
func (f *fakeController) Catalog() *catalog.Catalog     { return f.cat }

func (f *fakeController) TryToggle(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.busy {
		return vperrors.ErrBusy
	}
	f.toggles++
	return nil
}

func (f *fakeController) SelectServer(ctx context.Context, configID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selected = append(f.selected, configID)
	return nil
}

type fakeSettings struct {
	values map[string]string
}

func (s *fakeSettings) GetAllSettings(ctx context.Context) (map[string]string, error) {
	return s.values, nil
}

func (s *fakeSettings) SetSetting(ctx context.Context, key, value string) error {
	s.values[key] = value
	return nil
}

func newTestModel() (*Model, *fakeController, *fakeSettings) {
	notifyFor, alertFor = time.Millisecond, time.Millisecond

	ctrl := &fakeController{cat: catalog.Default()}
	store := &fakeSettings{values: map[string]string{}}
	m := NewModel(Deps{Controller: ctrl, Settings: store})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m, ctrl, store
}

// run executes cmd and feeds every resulting message back into m,
// skipping timers.
func run(m *Model, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			run(m, c)
		}
	case clearNotificationMsg, nil:
	default:
		_, next := m.Update(msg)
		run(m, next)
	}
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{0, "00:00:00"},
		{5, "00:00:05"},
		{65, "00:01:05"},
		{3599, "00:59:59"},
		{3661, "01:01:01"},
		{-3, "00:00:00"},
	}
	for _, tt := range tests {
		if got := FormatClock(tt.seconds); got != tt.want {
			t.Errorf("FormatClock(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestFormatKbps(t *testing.T) {
	tests := []struct {
		kbps float64
		want string
	}{
		{0, "--"},
		{-1, "--"},
		{2.25, "2.2 Kbps"},
		{12, "12 Kbps"},
		{340.6, "341 Kbps"},
	}
	for _, tt := range tests {
		if got := FormatKbps(tt.kbps); got != tt.want {
			t.Errorf("FormatKbps(%v) = %q, want %q", tt.kbps, got, tt.want)
		}
	}

	up, down := FormatSpeeds(nil)
	if up != "--" || down != "--" {
		t.Errorf("FormatSpeeds(nil) = %q, %q", up, down)
	}
	up, down = FormatSpeeds(&types.Sample{UploadKbps: 12, DownloadKbps: 0})
	if up != "12 Kbps" || down != "--" {
		t.Errorf("FormatSpeeds() = %q, %q", up, down)
	}
}

func TestProjectCatalogCountries(t *testing.T) {
	for _, e := range catalog.Default().Entries() {
		p, ok := countryCoords[strings.ToLower(e.Name)]
		if !ok {
			t.Errorf("no map position for %s", e.Name)
			continue
		}
		row, col := project(p)
		if row < 0 || row >= len(worldRows) || col < 0 || col >= mapWidth {
			t.Errorf("%s projected off map: (%d, %d)", e.Name, row, col)
		}
	}
}

func TestRenderMap(t *testing.T) {
	if strings.ContainsRune(renderMap(""), marker) {
		t.Error("plain map should have no marker")
	}
	if strings.ContainsRune(renderMap("Atlantis"), marker) {
		t.Error("unknown country should have no marker")
	}
	got := renderMap("Sweden")
	if strings.Count(got, string(marker)) != 1 {
		t.Errorf("map should have exactly one marker, got %q", got)
	}
	if lines := strings.Split(got, "\n"); len(lines) != len(worldRows) {
		t.Errorf("map has %d lines, want %d", len(lines), len(worldRows))
	}
}

func TestTabNavigation(t *testing.T) {
	m, _, _ := newTestModel()

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.activeTab != tabCountries {
		t.Fatalf("activeTab = %d, want countries", m.activeTab)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.activeTab != tabHome {
		t.Errorf("activeTab = %d, want wrap to home", m.activeTab)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.activeTab != tabSettings {
		t.Errorf("activeTab = %d, want settings", m.activeTab)
	}
}

func TestCountrySelectionNavigatesHome(t *testing.T) {
	m, ctrl, _ := newTestModel()

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	run(m, cmd)
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	run(m, cmd)

	if m.activeTab != tabHome {
		t.Errorf("activeTab = %d, want home", m.activeTab)
	}
	if len(ctrl.selected) != 1 || ctrl.selected[0] != "Turkey1.ovpn" {
		t.Errorf("selected = %v, want [Turkey1.ovpn]", ctrl.selected)
	}
	if !strings.Contains(m.notification, "Turkey") {
		t.Errorf("notification = %q", m.notification)
	}
}

func TestPowerKey(t *testing.T) {
	m, ctrl, _ := newTestModel()

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	run(m, cmd)
	if ctrl.toggles != 1 {
		t.Errorf("toggles = %d, want 1", ctrl.toggles)
	}

	// Ignored while an operation is pending.
	m.Update(snapshotMsg{snap: core.Snapshot{Pending: types.OpConnect}})
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})
	run(m, cmd)
	if ctrl.toggles != 1 {
		t.Errorf("toggles = %d, want 1 while pending", ctrl.toggles)
	}
}

func TestPowerKeyBusy(t *testing.T) {
	m, ctrl, _ := newTestModel()
	ctrl.busy = true

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})
	run(m, cmd)
	if !m.notificationErr || m.notification == "" {
		t.Errorf("busy toggle should notify, got %q", m.notification)
	}
}

func TestAlertShowsNotification(t *testing.T) {
	m, _, _ := newTestModel()

	_, cmd := m.Update(alertMsg{title: "Connection Failed", message: "openvpn binary not found"})
	if cmd == nil {
		t.Error("alert should schedule auto-clear")
	}
	if m.notification != "Connection Failed: openvpn binary not found" || !m.notificationErr {
		t.Errorf("notification = %q (err=%v)", m.notification, m.notificationErr)
	}

	m.Update(clearNotificationMsg{version: m.notifVersion})
	if m.notification != "" {
		t.Errorf("notification not cleared: %q", m.notification)
	}
}

func TestSettingsToggleSaves(t *testing.T) {
	m, _, store := newTestModel()

	m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	run(m, cmd)

	if store.values["auto_select_first"] != "true" {
		t.Errorf("auto_select_first = %q, want true", store.values["auto_select_first"])
	}
}

func TestHomeView(t *testing.T) {
	m, _, _ := newTestModel()
	sweden, _ := catalog.Default().Lookup("Sweden1.ovpn")

	m.Update(snapshotMsg{snap: core.Snapshot{
		State:    types.Connected,
		Selected: &sweden,
		Elapsed:  75,
		Sample:   &types.Sample{UploadKbps: 12, DownloadKbps: 340},
	}})
	view := m.View()
	for _, want := range []string{"Connected", "00:01:15", "12 Kbps", "340 Kbps", "132.225.2.234"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	m.Update(snapshotMsg{snap: core.Snapshot{Selected: &sweden}})
	view = m.View()
	if strings.Contains(view, "Session Time") {
		t.Error("session time shown while disconnected")
	}
}

func TestStaleSnapshotIgnored(t *testing.T) {
	m, _, _ := newTestModel()
	sweden, _ := catalog.Default().Lookup("Sweden1.ovpn")

	m.Update(snapshotMsg{snap: core.Snapshot{State: types.Connected, Selected: &sweden, Elapsed: 9, Seq: 7}})
	m.Update(snapshotMsg{snap: core.Snapshot{State: types.Disconnected, Selected: &sweden, Seq: 5}})

	if m.snap.State != types.Connected || m.snap.Seq != 7 {
		t.Errorf("stale snapshot applied: state=%v seq=%d", m.snap.State, m.snap.Seq)
	}

	m.Update(snapshotMsg{snap: core.Snapshot{State: types.Disconnected, Selected: &sweden, Seq: 8}})
	if m.snap.State != types.Disconnected {
		t.Errorf("newer snapshot not applied: state=%v", m.snap.State)
	}
}
