package toolset

import "github.com/qobs-build/qobsgen/internal/model"

type gccToolset struct {
	name       string
	everything []string
}

var (
	GCC   Toolset = gccToolset{name: "gcc", everything: []string{"-Wall", "-Wextra", "-Wpedantic"}}
	Clang Toolset = gccToolset{name: "clang", everything: []string{"-Weverything"}}
)

var gccOptimize = map[string][]string{
	"Off":   {"-O0"},
	"On":    {"-O2"},
	"Debug": {"-Og"},
	"Size":  {"-Os"},
	"Speed": {"-O3"},
	"Full":  {"-O3"},
}

var gccArchitecture = map[string][]string{
	"x86":    {"-m32"},
	"x86_64": {"-m64"},
}

func (g gccToolset) Name() string   { return g.name }
func (g gccToolset) Family() Family { return FamilyGCC }

func (g gccToolset) CFlags(s model.Settings) []string {
	var flags []string
	flags = append(flags, gccArchitecture[s.Architecture]...)
	if s.FatalWarnings {
		flags = append(flags, "-Werror")
	}
	flags = append(flags, gccOptimize[s.Optimize]...)
	switch s.Warnings {
	case "Off":
		flags = append(flags, "-w")
	case "Extra":
		flags = append(flags, "-Wall", "-Wextra")
	case "Everything":
		flags = append(flags, g.everything...)
	}
	if s.Symbols {
		flags = append(flags, "-g")
	}
	return flags
}

func (g gccToolset) CxxFlags(s model.Settings) []string {
	flags := g.CFlags(s)
	if s.Exceptions == "Off" {
		flags = append(flags, "-fno-exceptions")
	}
	if s.RTTI == "Off" {
		flags = append(flags, "-fno-rtti")
	}
	return flags
}

func (g gccToolset) ForceIncludes(files []string) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = "SHELL:-include " + f
	}
	return out
}
