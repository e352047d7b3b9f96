package version

import (
	"strings"
	"testing"
)

func TestVersion(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if BuildTime == "" || GitCommit == "" {
		t.Error("build metadata should be initialized")
	}
}

func TestString(t *testing.T) {
	s := String()
	if !strings.HasPrefix(s, "tgbot ") {
		t.Errorf("unexpected version line %q", s)
	}
	if !strings.Contains(s, "commit="+GitCommit) {
		t.Errorf("version line %q missing commit", s)
	}
}
