package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestReadBuildInfo(t *testing.T) {
	t.Parallel()

	info := readBuildInfo()
	if info.Version == "" {
		t.Error("expected non-empty version")
	}
	if info.Commit == "" {
		t.Error("expected non-empty commit")
	}
	if info.Date == "" {
		t.Error("expected non-empty date")
	}
	if !strings.HasPrefix(info.GoVersion, "go") {
		t.Errorf("expected Go version, got %q", info.GoVersion)
	}
	if getVersion() != info.Version {
		t.Errorf("expected getVersion to return %q, got %q", info.Version, getVersion())
	}
}

func TestNewVersionCmd(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	cmd := NewVersionCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	for _, want := range []string{"phrasecrawl version", "commit:", "built:", "go:"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q, got %q", want, output)
		}
	}
}
