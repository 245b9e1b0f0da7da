package builder

import (
	"os"
	"path"
	"strings"

	"github.com/qobs-build/qobsgen/internal/paths"
	"github.com/qobs-build/qobsgen/internal/toolset"
)

// ToolsetAuto lets every configuration pick its toolset, with the CC
// environment variable filling in for configurations that do not.
const ToolsetAuto = "auto"

// compilerToolsets maps compiler executables to the toolset generating for them
var compilerToolsets = map[string]string{
	"cc":       "gcc",
	"c++":      "gcc",
	"gcc":      "gcc",
	"g++":      "gcc",
	"clang":    "clang",
	"clang++":  "clang",
	"cl":       "msc",
	"clang-cl": "msc",
}

// toolsetFromEnv derives a toolset from $CC or $CXX. It returns "" when
// neither names a known compiler.
func toolsetFromEnv() string {
	for _, v := range []string{"CC", "CXX"} {
		if name := compilerToolset(os.Getenv(v)); name != "" {
			return name
		}
	}
	return ""
}

// compilerToolset maps a compiler command such as "/usr/bin/gcc-13" or
// "clang++ -m32" to a toolset name.
func compilerToolset(cc string) string {
	fields := strings.Fields(cc)
	if len(fields) == 0 {
		return ""
	}
	base := strings.ToLower(path.Base(paths.ToSlash(fields[0])))
	base = strings.TrimSuffix(base, ".exe")
	if name, ok := compilerToolsets[base]; ok {
		return name
	}
	if ts, ok := toolset.Lookup(base); ok {
		return ts.Name()
	}
	// versioned C++ drivers, e.g. g++-13 or clang++-18
	if prefix, _, ok := strings.Cut(base, "-"); ok {
		if name, ok := compilerToolsets[prefix]; ok {
			return name
		}
	}
	return ""
}

// ResolveToolset turns the --cc flag into the toolset overriding every
// configuration and the one used by configurations that name none.
func ResolveToolset(flag string) (override, fallback string) {
	if flag == "" || flag == ToolsetAuto {
		return "", toolsetFromEnv()
	}
	return flag, ""
}
