package main

import rtdebug "runtime/debug"

// Set via ldflags at release time.
var version = "dev"

// buildVersionString returns the release version, falling back to module
// build info for go-installed binaries.
func buildVersionString() string {
	if version != "dev" {
		return version
	}
	if info, ok := rtdebug.ReadBuildInfo(); ok {
		if v := info.Main.Version; v != "" && v != "(devel)" {
			return v
		}
	}
	return version
}
