// Package model defines the domain types for env-exec.
//
// All entities in this package are transient in-memory representations.
// The library owns no persisted state: the backing environment manager
// (Conda, Mamba, or the Docker daemon) is the source of truth for which
// environments exist and which packages are installed in them. Existence
// and installed-package queries always go to the manager, never to a cache.
package model

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// SessionState represents the lifecycle state of a scoped environment session.
// The state transitions are strictly linear:
//
//	uninitialized → ensured → in-use → torn-down
//
// A session enters "ensured" once the environment exists and its dependency
// set has been reconciled, "in-use" on the first exec, and "torn-down" after
// Close has run (whether or not the environment was actually removed).
type SessionState string

const (
	// StateUninitialized is the zero state before the environment has been
	// created or verified.
	StateUninitialized SessionState = "uninitialized"

	// StateEnsured indicates the environment exists and its requested
	// dependencies are present (installed or verified).
	StateEnsured SessionState = "ensured"

	// StateInUse indicates at least one command has been executed inside
	// the environment during this session.
	StateInUse SessionState = "in-use"

	// StateTornDown indicates the session has been closed. Ephemeral
	// environments no longer exist once this state is reached.
	StateTornDown SessionState = "torn-down"
)

// String returns the string representation of SessionState.
// This method satisfies the fmt.Stringer interface, enabling
// human-readable output in CLI commands and logging.
func (s SessionState) String() string {
	return string(s)
}

// IsValid checks whether the SessionState value is one of the
// predefined valid states.
func (s SessionState) IsValid() bool {
	switch s {
	case StateUninitialized, StateEnsured, StateInUse, StateTornDown:
		return true
	default:
		return false
	}
}

// VersionOp is the comparison operator of a dependency version constraint.
// The accepted operators mirror what conda's match specifications allow for
// simple pins; "=" and "==" are treated identically.
type VersionOp string

const (
	// OpNone means the dependency has no version constraint at all —
	// any installed version satisfies it.
	OpNone VersionOp = ""

	// OpEqual pins the dependency to an exact version string.
	// Both "=" and "==" in the input parse to this operator.
	OpEqual VersionOp = "="

	// OpNotEqual excludes a single version.
	OpNotEqual VersionOp = "!="

	// OpGreaterEqual, OpGreater, OpLessEqual and OpLess are ordering
	// constraints compared component-wise on dotted numeric versions.
	OpGreaterEqual VersionOp = ">="
	OpGreater      VersionOp = ">"
	OpLessEqual    VersionOp = "<="
	OpLess         VersionOp = "<"
)

// Dependency is a single requested package: a name plus an optional version
// constraint. The grammar is:
//
//	dependency = name [ op version ]
//	op         = "==" | "=" | "!=" | ">=" | "<=" | ">" | "<"
//
// Examples: "numpy", "pandas=2.0.0", "python>=3.11".
//
// Membership against the live environment is decided by SatisfiedBy, which
// compares against the (name, version) pairs reported by the backend.
type Dependency struct {
	// Name is the package name as understood by the backing manager.
	Name string `json:"name"`

	// Op is the version comparison operator. OpNone when no version
	// constraint was given.
	Op VersionOp `json:"op,omitempty"`

	// Version is the version string of the constraint. Empty when Op
	// is OpNone.
	Version string `json:"version,omitempty"`
}

// depOps lists the recognized operators in match order. Two-character
// operators come first so that ">=" is not consumed as ">" with a version
// of "=1.2".
var depOps = []string{"==", ">=", "<=", "!=", ">", "<", "="}

// ParseDependency parses a dependency string into its structured form.
//
// The parser splits on the first recognized operator. Everything before the
// operator is the package name; everything after is the version. Both parts
// must be non-empty when an operator is present. A string with no operator
// is an unconstrained dependency.
func ParseDependency(s string) (Dependency, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Dependency{}, fmt.Errorf("dependency must not be empty")
	}

	for _, op := range depOps {
		idx := strings.Index(s, op)
		if idx < 0 {
			continue
		}

		name := strings.TrimSpace(s[:idx])
		version := strings.TrimSpace(s[idx+len(op):])
		if name == "" {
			return Dependency{}, fmt.Errorf("invalid dependency %q: missing package name before %q", s, op)
		}
		if version == "" {
			return Dependency{}, fmt.Errorf("invalid dependency %q: missing version after %q", s, op)
		}

		parsedOp := VersionOp(op)
		// "==" and "=" are the same constraint; normalize to "=".
		if parsedOp == "==" {
			parsedOp = OpEqual
		}

		return Dependency{Name: name, Op: parsedOp, Version: version}, nil
	}

	return Dependency{Name: s}, nil
}

// ParseDependencies parses a slice of dependency strings, preserving order.
// The first invalid entry aborts parsing and is returned as the error.
func ParseDependencies(specs []string) ([]Dependency, error) {
	deps := make([]Dependency, 0, len(specs))
	for _, s := range specs {
		d, err := ParseDependency(s)
		if err != nil {
			return nil, err
		}
		deps = append(deps, d)
	}
	return deps, nil
}

// String renders the dependency back to its textual form
// (e.g. "pandas=2.0.0"). This is the form passed to the manager CLI.
func (d Dependency) String() string {
	if d.Op == OpNone {
		return d.Name
	}
	return d.Name + string(d.Op) + d.Version
}

// SatisfiedBy reports whether an installed package with the given name and
// version satisfies this dependency.
//
// Name matching is case-insensitive because conda and pip both normalize
// package names. Version matching depends on the operator: equality is a
// strict string comparison (matching what the manager reports verbatim),
// while ordering operators compare dotted numeric components.
func (d Dependency) SatisfiedBy(name, version string) bool {
	if !strings.EqualFold(d.Name, name) {
		return false
	}

	switch d.Op {
	case OpNone:
		return true
	case OpEqual:
		return version == d.Version
	case OpNotEqual:
		return version != d.Version
	case OpGreaterEqual:
		return compareVersions(version, d.Version) >= 0
	case OpGreater:
		return compareVersions(version, d.Version) > 0
	case OpLessEqual:
		return compareVersions(version, d.Version) <= 0
	case OpLess:
		return compareVersions(version, d.Version) < 0
	default:
		return false
	}
}

// compareVersions compares two dotted version strings component by component.
// Numeric components are compared numerically; non-numeric components fall
// back to lexicographic comparison. A missing component counts as zero, so
// "1.2" and "1.2.0" compare equal.
//
// Returns -1, 0, or 1 when a is less than, equal to, or greater than b.
func compareVersions(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")

	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}

	for i := 0; i < n; i++ {
		var ac, bc string
		if i < len(as) {
			ac = as[i]
		}
		if i < len(bs) {
			bc = bs[i]
		}

		an, aerr := parseNumeric(ac)
		bn, berr := parseNumeric(bc)
		if aerr == nil && berr == nil {
			if an != bn {
				if an < bn {
					return -1
				}
				return 1
			}
			continue
		}

		// Non-numeric component (e.g. "1.2.rc1") — lexicographic fallback.
		if ac != bc {
			if ac < bc {
				return -1
			}
			return 1
		}
	}
	return 0
}

// parseNumeric converts a version component to an integer. An empty
// component is treated as zero so shorter versions pad out cleanly.
func parseNumeric(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("non-numeric version component %q", s)
		}
		n = n*10 + int(r-'0')
	}
	return n, nil
}

// InstalledPackage is a single (name, version) pair as reported by a backend
// when listing an environment's contents.
type InstalledPackage struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Missing computes the dependency-reconciliation set difference: every
// requested dependency that no installed package satisfies, in request order.
//
// This drives the install-missing / fail-fast policy in the session
// lifecycle. An empty result means the live environment already satisfies
// the full requested set.
func Missing(requested []Dependency, installed []InstalledPackage) []Dependency {
	var missing []Dependency

	for _, dep := range requested {
		satisfied := false
		for _, pkg := range installed {
			if dep.SatisfiedBy(pkg.Name, pkg.Version) {
				satisfied = true
				break
			}
		}
		if !satisfied {
			missing = append(missing, dep)
		}
	}
	return missing
}

// ExecResult captures the outcome of a completed process invocation.
// Stdout and Stderr are only populated when output capture was requested;
// otherwise the child inherited the parent's streams and the fields are empty.
type ExecResult struct {
	// Command is the full argv that was executed, including the program name.
	Command []string `json:"command"`

	// ExitCode is the process exit status. Zero on success.
	ExitCode int `json:"exitCode"`

	// Stdout is the decoded standard output text, if captured.
	Stdout string `json:"stdout,omitempty"`

	// Stderr is the decoded standard error text, if captured.
	Stderr string `json:"stderr,omitempty"`
}

// nameRegex validates environment names: alphanumeric plus hyphens and
// underscores, starting with an alphanumeric character. This is the
// intersection of what conda and Docker accept as names.
var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)

// ValidateName checks if the given name is a valid environment name.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("environment name must not be empty")
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("invalid environment name %q: must contain only alphanumeric characters, hyphens and underscores, and start with an alphanumeric", name)
	}
	return nil
}

// RandomName generates a unique name for an ephemeral environment.
// The "env-exec-" prefix makes these environments easy to spot (and to
// clean up manually) in `conda env list` output should a teardown ever
// be interrupted by a kill signal.
func RandomName() string {
	// The first 8 hex characters of a UUID are plenty of uniqueness here:
	// ephemeral environments are short-lived and scoped to one machine.
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return "env-exec-" + id
}
