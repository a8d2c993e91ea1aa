package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/apex/log"
)

// TestExecute tests the Execute function
func TestExecute(t *testing.T) {
	// Just make sure the function doesn't panic
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Execute() panicked: %v", r)
		}
	}()

	RootCmd = NewRootCmd()
	RootCmd.SetArgs([]string{"--help"})
	RootCmd.SetOut(&bytes.Buffer{})
	if err := Execute(); err != nil {
		t.Errorf("Execute() error = %v", err)
	}
}

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := NewRootCmd()

	for _, name := range []string{"get", "post", "put", "patch", "delete", "options"} {
		sub, _, err := cmd.Find([]string{name})
		if err != nil || sub.Name() != name {
			t.Errorf("Expected a %q subcommand, got %v (%v)", name, sub, err)
			continue
		}

		hasData := sub.Flags().Lookup("data") != nil
		wantData := name == "post" || name == "put" || name == "patch"
		if hasData != wantData {
			t.Errorf("%s: --data flag present = %v, want %v", name, hasData, wantData)
		}
	}
}

func TestRootCmd_VerboseLogging(t *testing.T) {
	defer log.SetLevel(log.InfoLevel)

	cmd := NewRootCmd()
	var stderr bytes.Buffer
	cmd.SetErr(&stderr)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"-v"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(stderr.String(), "sttp version "+version) {
		t.Errorf("Expected a debug log line, got %q", stderr.String())
	}
}
