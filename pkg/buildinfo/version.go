// Package buildinfo holds the version stamped into hiweave binaries.
//
// The variables are set with ldflags:
//
//	go build -ldflags "-X github.com/matzehuels/hiweave/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/matzehuels/hiweave/pkg/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	    -X github.com/matzehuels/hiweave/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)" ./cmd/hiweave
package buildinfo

import (
	"fmt"
	"runtime"
)

var (
	// Version is the semantic version, "dev" for local builds.
	Version = "dev"

	// Commit is the git commit SHA.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// String returns the build information as "key: value" lines.
func String() string {
	return fmt.Sprintf("version: %s\ncommit: %s\nbuilt: %s\ngo: %s", Version, Commit, Date, runtime.Version())
}

// Template returns the cobra version template.
func Template() string {
	return fmt.Sprintf("{{.Name}} version %s\ncommit: %s\nbuilt: %s\n", Version, Commit, Date)
}

// KeyVals returns the build information as logger key/value pairs.
func KeyVals() []any {
	return []any{"version", Version, "commit", Commit, "go", runtime.Version()}
}
