package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWeekKey(t *testing.T) {
	got := weekKey(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	if got != "2026-W01" {
		t.Errorf("Expected 2026-W01, got %s", got)
	}
}

func TestRotatingLoggerSizeRollover(t *testing.T) {
	dir := t.TempDir()
	rl, err := NewRotatingLogger(dir, 1, 100)
	if err != nil {
		t.Fatalf("NewRotatingLogger failed: %v", err)
	}
	defer rl.Close()

	line := []byte(strings.Repeat("x", 60) + "\n")
	for i := 0; i < 3; i++ {
		if _, err := rl.Write(line); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}

	matches, _ := filepath.Glob(filepath.Join(dir, "advisor-*.log"))
	if len(matches) != 3 {
		t.Errorf("Expected 3 files after rollover, got %v", matches)
	}
	numbered, _ := filepath.Glob(filepath.Join(dir, "advisor-*_0?.log"))
	if len(numbered) != 2 {
		t.Errorf("Expected 2 numbered files, got %v", numbered)
	}
}

func TestRotatingLoggerCleanup(t *testing.T) {
	dir := t.TempDir()
	rl, err := NewRotatingLogger(dir, 1, 0)
	if err != nil {
		t.Fatalf("NewRotatingLogger failed: %v", err)
	}
	defer rl.Close()

	old := filepath.Join(dir, "advisor-2020-W01.log")
	other := filepath.Join(dir, "notes.txt")
	for _, p := range []string{old, other} {
		if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
		past := time.Now().Add(-30 * 24 * time.Hour)
		_ = os.Chtimes(p, past, past)
	}

	deleted, err := rl.cleanupOldLogs()
	if err != nil {
		t.Fatalf("cleanupOldLogs failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Expected 1 deleted file, got %d", deleted)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("Expected old log to be removed")
	}
	if _, err := os.Stat(other); err != nil {
		t.Error("Non-log files must be kept")
	}
}
