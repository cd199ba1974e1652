package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestSetup(t *testing.T) {
	dir := t.TempDir()
	defer Logger.SetOutput(os.Stderr)

	closer, err := Setup("debug", dir)
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if Logger.GetLevel() != logrus.DebugLevel {
		t.Errorf("level = %v, want debug", Logger.GetLevel())
	}

	Logger.WithField("server", "Sweden").Info("connected")
	closer.Close()

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), "server=Sweden") {
		t.Errorf("log = %q, want server field", data)
	}
}

func TestSetup_BadLevel(t *testing.T) {
	if _, err := Setup("loud", t.TempDir()); err == nil {
		t.Error("Setup() with unknown level should fail")
	}
}
