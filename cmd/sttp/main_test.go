package main

import (
	"io"
	"os"
	"testing"

	"github.com/wesleyorama2/sttp/internal/cli"
	"github.com/wesleyorama2/sttp/internal/testserver"
)

func TestMain_ExitCodes(t *testing.T) {
	server := testserver.New()
	defer server.Close()

	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"success", []string{"get", server.URLFor("/ok")}, 0},
		{"error status", []string{"get", server.URLFor("/status/404")}, cli.ExitErrorStatus},
		{"bad flag value", []string{"get", "--repeat", "0", server.URLFor("/ok")}, cli.ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli.RootCmd = cli.NewRootCmd()
			cli.RootCmd.SetOut(io.Discard)
			cli.RootCmd.SetErr(io.Discard)
			os.Args = append([]string{"sttp", "--no-color"}, tt.args...)

			if got := Main(); got != tt.want {
				t.Errorf("Main() = %d, want %d", got, tt.want)
			}
		})
	}
}
