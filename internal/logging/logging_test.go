package logging

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew_WritesToFile(t *testing.T) {
	dir := t.TempDir()

	logger, err := New(dir, true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Debug("hello")
	_ = logger.Sync()

	data, err := os.ReadFile(filepath.Join(dir, "lumina.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("log file is empty")
	}
}

func TestNew_EmptyDirIsNop(t *testing.T) {
	logger, err := New("", false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("discarded")
}
