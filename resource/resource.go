// Copyright 2017, Kerby Shedden and the Muscato contributors.
// Copyright the entromask contributors.

// Package resource prepares the process environment before a run
// starts, in the same role as cmd/muscato's setupEnvs: it raises the
// open-file-descriptor limit and resolves how much parallelism to
// use, before any pipeline work begins. Unlike setupEnvs, it never
// mutates GOPATH/PATH, since entromask is a single binary that shells
// out to nothing.
package resource

import (
	"fmt"
	"log"
	"runtime"

	"golang.org/x/sys/unix"
)

// ResolveWorkers turns a configured worker count into the count the
// pipeline should actually use: a positive value is used as-is, and
// zero or negative means "use all available hardware threads",
// mirroring GOMAXPROCS(0)'s own sentinel convention.
func ResolveWorkers(configured int) int {
	if configured > 0 {
		return configured
	}
	return runtime.NumCPU()
}

// RaiseNoFile raises RLIMIT_NOFILE to its hard limit, the same
// resource-preparation step setupEnvs performs before muscato's
// multi-stage pipeline opens its window/sort/bmatch files. entromask
// itself opens only a handful of files (input, output, audit), but a
// high worker count run under a restrictive default soft limit can
// still starve on descriptors once OS-level buffering and the gzip
// layers are counted, so the raise is attempted unconditionally and
// any failure is logged rather than fatal.
func RaiseNoFile(logger *log.Logger) {
	var rl unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rl); err != nil {
		logger.Printf("could not read RLIMIT_NOFILE: %v", err)
		return
	}
	if rl.Cur >= rl.Max {
		return
	}
	want := rl
	want.Cur = rl.Max
	if err := unix.Setrlimit(unix.RLIMIT_NOFILE, &want); err != nil {
		logger.Printf("could not raise RLIMIT_NOFILE from %d to %d: %v", rl.Cur, rl.Max, err)
		return
	}
	logger.Printf("raised RLIMIT_NOFILE from %d to %d", rl.Cur, want.Cur)
}

// HostInfo is a short description of the machine a run executed on,
// sourced from uname(2).
type HostInfo struct {
	Sysname string
	Release string
	Machine string
}

// Uname reads the host's uname(2) information via golang.org/x/sys/unix.
func Uname() (HostInfo, error) {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return HostInfo{}, fmt.Errorf("resource: uname: %w", err)
	}
	return HostInfo{
		Sysname: cstr(u.Sysname[:]),
		Release: cstr(u.Release[:]),
		Machine: cstr(u.Machine[:]),
	}, nil
}

// LogHostInfo writes the host's uname(2) fields and the resolved
// worker count to logger, the same "Starting ...\n" idiom
// cmd/muscato's run() sequence uses to open each log file with a
// record of what is about to happen. A failure to read uname is
// logged, not fatal: it never prevents a run from proceeding.
func LogHostInfo(logger *log.Logger, workers int) {
	info, err := Uname()
	if err != nil {
		logger.Printf("could not read host info: %v", err)
	} else {
		logger.Printf("host: %s %s (%s)", info.Sysname, info.Release, info.Machine)
	}
	logger.Printf("workers: %d", workers)
}

// cstr converts a NUL-padded uname byte array to a Go string.
func cstr(b []byte) string {
	n := 0
	for n < len(b) && b[n] != 0 {
		n++
	}
	return string(b[:n])
}
