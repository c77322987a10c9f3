// Package main is the entry point for the pitchside CLI.
package main

import "github.com/pitchside/pitchside/cmd/pitchside/cmd"

// Version information populated by the build.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cmd.Execute(version, commit, date)
}
