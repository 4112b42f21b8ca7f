package buildinfo

import (
	"strings"
	"testing"
)

func TestTemplate(t *testing.T) {
	tmpl := Template()
	if !strings.HasPrefix(tmpl, "{{.Name}} version "+Version) {
		t.Errorf("Template() = %q, want version prefix", tmpl)
	}
}

func TestCurrent(t *testing.T) {
	old := Version
	Version = "v9.9.9"
	defer func() { Version = old }()

	if got := Current().Version; got != "v9.9.9" {
		t.Errorf("Current().Version = %q, want v9.9.9", got)
	}
	if !strings.Contains(String(), "v9.9.9") {
		t.Errorf("String() = %q, want version", String())
	}
}
