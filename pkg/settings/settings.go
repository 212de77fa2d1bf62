// Package settings provides build metadata, runtime configuration, and
// context helpers shared by the dbdrill command and its packages.
package settings

import "time"

// CliBinaryName is the canonical binary name for this tool.
const CliBinaryName = "dbdrill"

// DSNEnvVars are consulted in order when no --dsn flag is given.
var DSNEnvVars = []string{"DBDRILL_DSN", "DATABASE_URL"}

// DefaultQueryTimeout bounds a single query unless --timeout says otherwise.
const DefaultQueryTimeout = 30 * time.Second

// VersionInformation is populated at build time via ldflags and holds the
// commit hash, semantic version, and build timestamp of the running binary.
var VersionInformation = VersionInfo{
	Commit:       "unknown",
	BuildVersion: "v0.0.0-nightly",
	BuildTime:    "unknown",
}

// VersionInfo holds metadata about the build, including the commit hash,
// build version, and build timestamp.
type VersionInfo struct {
	Commit       string
	BuildVersion string
	BuildTime    string
}

// Run holds the settings of one invocation.
type Run struct {
	MinLogLevel  int8
	ConfigPath   string
	DSN          string
	LogFile      string
	Mnemonics    string
	QueryTimeout time.Duration
	NoColor      bool
	ExitOnError  bool
}

// NewCliParams returns the defaults used by the command line.
func NewCliParams() *Run {
	return &Run{
		MinLogLevel:  0,
		Mnemonics:    "greedy",
		QueryTimeout: DefaultQueryTimeout,
		NoColor:      false,
		ExitOnError:  true,
	}
}
