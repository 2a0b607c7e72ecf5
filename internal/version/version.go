// Package version exposes build metadata injected through ldflags:
//
//	-ldflags "-X textembedder/internal/version.version=v1.0.0 -X textembedder/internal/version.commit=abc123 -X textembedder/internal/version.buildTime=2025-01-01T00:00:00Z"
package version

import (
	"fmt"
	"io"
	"strings"
	"time"
)

//nolint:gochecknoglobals // Required for build-time injection via ldflags.
var (
	version   string
	commit    string
	buildTime string
)

// ApplicationName is printed as the first line of the full version output.
const ApplicationName = "textembedder"

const (
	DefaultVersion   = "dev"
	DefaultCommit    = "unknown"
	DefaultBuildTime = "unknown"
)

// Info holds the resolved build metadata.
type Info struct {
	Version   string
	Commit    string
	BuildTime string
}

// Get returns the build metadata with defaults substituted for empty values.
func Get() Info {
	return Info{
		Version:   withDefault(version, DefaultVersion),
		Commit:    withDefault(commit, DefaultCommit),
		BuildTime: withDefault(buildTime, DefaultBuildTime),
	}
}

func withDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// Short returns the version only.
func (i Info) Short() string {
	return i.Version
}

// Full returns a multi-line description of the build.
func (i Info) Full() string {
	var b strings.Builder
	b.WriteString(ApplicationName + "\n")
	fmt.Fprintf(&b, "Version: %s\n", i.Version)
	fmt.Fprintf(&b, "Commit: %s\n", i.Commit)
	fmt.Fprintf(&b, "Built: %s\n", i.BuildTime)
	return b.String()
}

// Write prints either the short or the full form.
func (i Info) Write(w io.Writer, short bool) error {
	if short {
		_, err := fmt.Fprintln(w, i.Short())
		return err
	}
	_, err := fmt.Fprint(w, i.Full())
	return err
}

// IsDevelopment reports whether no version was injected at build time.
func (i Info) IsDevelopment() bool {
	return i.Version == DefaultVersion
}

// BuiltAt parses the build time; it returns the zero time when unknown or malformed.
func (i Info) BuiltAt() time.Time {
	t, err := time.Parse(time.RFC3339, i.BuildTime)
	if err != nil {
		return time.Time{}
	}
	return t
}

// SetBuildVars overrides the injected values. Used by tests.
func SetBuildVars(ver, com, bt string) {
	version = ver
	commit = com
	buildTime = bt
}
