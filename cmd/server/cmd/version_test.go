package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersionCommandOutput(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	versionCmd.Run(versionCmd, nil)

	out := buf.String()
	if !strings.Contains(out, "Growth Compass Server") {
		t.Fatalf("missing product name in output: %q", out)
	}
	if !strings.Contains(out, "Version:") || !strings.Contains(out, "Go version:") {
		t.Fatalf("missing version fields in output: %q", out)
	}
}
