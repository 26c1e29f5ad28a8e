package main

import (
	"context"
	"testing"
)

func TestRun_UnknownCommandReturnsNonZero(t *testing.T) {
	code := Run(context.Background(), []string{"bogus-command"})
	if code == 0 {
		t.Fatal("expected non-zero exit code for an unknown command")
	}
}

func TestRun_VersionFlagSucceeds(t *testing.T) {
	code := Run(context.Background(), []string{"--version"})
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
}
