// ============================================================================
// chomsky - Grammar Conformance Checker
// ============================================================================
//
// Package:     version
// Description: Central version management for the checker and its services
// Author:      Mike Stoffels
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package version

import (
	"fmt"
	"runtime"
)

// Version constants for all chomsky components
const (
	// Release version of the CLI
	Release = "1.0.0"

	// Component versions
	Grammar = "1.0.0"
	Service = "1.0.0"
	Store   = "1.0.0"

	// API is the gRPC package version served by the network service
	API = "v1"
)

// Build information, injected with -ldflags "-X ...".
var (
	Commit    = "unknown"
	BuildDate = "unknown"
)

// ComponentVersion returns the version for a given component name
func ComponentVersion(name string) string {
	switch name {
	case "grammar":
		return Grammar
	case "service", "server":
		return Service
	case "store":
		return Store
	default:
		return Release
	}
}

// Info describes the running binary
type Info struct {
	Version   string `json:"version"`
	API       string `json:"api"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get returns the build information of the running binary
func Get() Info {
	return Info{
		Version:   Release,
		API:       API,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// String formats the build information on one line
func (i Info) String() string {
	return fmt.Sprintf("chomsky %s (api %s, commit %s, built %s, %s %s)",
		i.Version, i.API, i.Commit, i.BuildDate, i.GoVersion, i.Platform)
}
