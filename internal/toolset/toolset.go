// Package toolset maps abstract compiler settings onto the flags of a
// concrete compiler family.
package toolset

import (
	"fmt"
	"slices"
	"strings"

	"github.com/qobs-build/qobsgen/internal/model"
)

// Family groups toolsets sharing a command line syntax.
type Family int

const (
	FamilyGCC Family = iota // gcc and clang
	FamilyMSC               // Microsoft cl
)

// Toolset is an immutable descriptor of a compiler suite.
type Toolset interface {
	Name() string
	Family() Family
	// CFlags returns the flags for C sources.
	CFlags(s model.Settings) []string
	// CxxFlags returns the flags for C++ sources.
	CxxFlags(s model.Settings) []string
	// ForceIncludes renders one option per force-included file.
	ForceIncludes(files []string) []string
}

// IsGCC reports whether ts uses the GCC command line syntax.
func IsGCC(ts Toolset) bool {
	return ts != nil && ts.Family() == FamilyGCC
}

// UnknownToolsetError is returned when a toolset name has no registered descriptor.
type UnknownToolsetError struct {
	Name string
}

func (e *UnknownToolsetError) Error() string {
	return fmt.Sprintf("unknown toolset %q, known toolsets: %s", e.Name, strings.Join(Names(), ", "))
}

var registry = map[string]Toolset{
	"gcc":   GCC,
	"clang": Clang,
	"msc":   MSC,
}

var aliases = map[string]string{
	"msvc":     "msc",
	"cl":       "msc",
	"clang-cl": "msc",
	"g++":      "gcc",
}

// Names lists the registered toolsets in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for k := range registry {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

// Lookup returns the toolset for name. A version suffix ("msc-v143",
// "gcc-13") is ignored.
func Lookup(name string) (Toolset, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if alias, ok := aliases[name]; ok {
		name = alias
	} else if base, _, ok := strings.Cut(name, "-"); ok {
		name = base
		if alias, ok := aliases[name]; ok {
			name = alias
		}
	}
	ts, ok := registry[name]
	return ts, ok
}

// Default returns the toolset name used when nothing else selects one: the
// native suite when targeting Windows, clang everywhere else.
func Default(system string) string {
	if system == "windows" {
		return "msc"
	}
	return "clang"
}

// Resolve picks the toolset of cfg. A non-empty override (the user's choice)
// wins over the configuration's own toolset, which wins over fallback, then
// the system default.
func Resolve(cfg *model.Config, override, fallback string) (Toolset, error) {
	name := override
	if name == "" {
		name = cfg.Toolset
	}
	if name == "" {
		name = fallback
	}
	if name == "" {
		name = Default(cfg.System)
	}
	ts, ok := Lookup(name)
	if !ok {
		return nil, &UnknownToolsetError{Name: name}
	}
	return ts, nil
}
