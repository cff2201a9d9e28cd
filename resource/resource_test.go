package resource

import (
	"bytes"
	"log"
	"runtime"
	"testing"
)

func TestResolveWorkersPositive(t *testing.T) {
	if got := ResolveWorkers(4); got != 4 {
		t.Fatalf("ResolveWorkers(4) = %d, want 4", got)
	}
}

func TestResolveWorkersZeroUsesNumCPU(t *testing.T) {
	if got := ResolveWorkers(0); got != runtime.NumCPU() {
		t.Fatalf("ResolveWorkers(0) = %d, want %d", got, runtime.NumCPU())
	}
}

func TestResolveWorkersNegativeUsesNumCPU(t *testing.T) {
	if got := ResolveWorkers(-1); got != runtime.NumCPU() {
		t.Fatalf("ResolveWorkers(-1) = %d, want %d", got, runtime.NumCPU())
	}
}

func TestUnameReturnsNonEmptySysname(t *testing.T) {
	info, err := Uname()
	if err != nil {
		t.Fatal(err)
	}
	if info.Sysname == "" {
		t.Fatal("expected non-empty Sysname")
	}
}

func TestRaiseNoFileDoesNotPanic(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)
	RaiseNoFile(logger)
}
