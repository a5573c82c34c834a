package buildinfo

import (
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	old := Version
	defer func() { Version = old }()

	Version = "v1.2.3"
	if got := Get().Version; got != "v1.2.3" {
		t.Errorf("Version = %q, want ldflags value", got)
	}
}

func TestTemplate(t *testing.T) {
	tmpl := Template()
	if !strings.HasPrefix(tmpl, "{{.Name}} version ") || !strings.Contains(tmpl, "commit: "+Commit) {
		t.Errorf("Template() = %q", tmpl)
	}
	if !strings.Contains(String(), "built: "+Date) {
		t.Errorf("String() = %q", String())
	}
}
