package cmd

import (
	"bytes"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	want := map[string]bool{
		"serve":         false,
		"exec <job-id>": false,
		"migrate":       false,
		"enqueue":       false,
	}
	for _, cmd := range rootCmd.Commands() {
		if _, ok := want[cmd.Use]; ok {
			want[cmd.Use] = true
		}
	}
	for use, found := range want {
		if !found {
			t.Errorf("expected %q subcommand to be registered", use)
		}
	}
}

func TestRootCommand_Help(t *testing.T) {
	if _, err := execute(t, "--help"); err != nil {
		t.Errorf("help should not error: %v", err)
	}
}

func TestExecute_UnknownCommand(t *testing.T) {
	if _, err := execute(t, "unknown-command-xyz"); err == nil {
		t.Error("expected error for unknown command")
	}
}

func TestExecCommand_RejectsInvalidJobID(t *testing.T) {
	if _, err := execute(t, "exec", "not-a-uuid"); err == nil {
		t.Error("expected error for malformed job id")
	}
}

func TestExecCommand_RequiresJobID(t *testing.T) {
	if _, err := execute(t, "exec"); err == nil {
		t.Error("expected error when job id argument is missing")
	}
}
