package toolset

import "github.com/qobs-build/qobsgen/internal/model"

type mscToolset struct{}

var MSC Toolset = mscToolset{}

var mscOptimize = map[string][]string{
	"Off":   {"/Od"},
	"On":    {"/Ot"},
	"Debug": {"/Od"},
	"Size":  {"/O1"},
	"Speed": {"/O2"},
	"Full":  {"/Ox"},
}

var mscWarnings = map[string][]string{
	"Off":        {"/W0"},
	"Extra":      {"/W4"},
	"Everything": {"/Wall"},
}

func (mscToolset) Name() string   { return "msc" }
func (mscToolset) Family() Family { return FamilyMSC }

func (mscToolset) CFlags(s model.Settings) []string {
	var flags []string
	if s.FatalWarnings {
		flags = append(flags, "/WX")
	}
	flags = append(flags, mscOptimize[s.Optimize]...)
	flags = append(flags, mscWarnings[s.Warnings]...)
	if s.Symbols {
		flags = append(flags, "/Z7")
	}
	return flags
}

func (m mscToolset) CxxFlags(s model.Settings) []string {
	flags := m.CFlags(s)
	if s.Exceptions == "Off" {
		flags = append(flags, "/EHs-c-")
	}
	if s.RTTI == "Off" {
		flags = append(flags, "/GR-")
	}
	return flags
}

func (mscToolset) ForceIncludes(files []string) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = "/FI" + f
	}
	return out
}
