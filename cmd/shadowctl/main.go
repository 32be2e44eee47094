package main

import (
	"os"
	"runtime/debug"
)

// Version may be set at build time via -ldflags "-X main.Version=...".
var Version = "dev"

func effectiveVersion(v string) string {
	if v != "" && v != "dev" {
		return v
	}
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Version == "" || info.Main.Version == "(devel)" {
		return "dev"
	}
	return info.Main.Version
}

func main() {
	if err := newRootCmd(effectiveVersion(Version)).Execute(); err != nil {
		os.Exit(1)
	}
}
