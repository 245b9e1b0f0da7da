package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(nodes []*Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Path
	}
	return out
}

func TestSourceTreeLeaves(t *testing.T) {
	tree := NewSourceTree("/ws/core")
	tree.Add("/ws/core/src/b.cpp")
	tree.Add("/ws/core/include/core.h")
	tree.Add("/ws/core/src/a.cpp")
	tree.Add("/ws/core/main.cpp")
	tree.Add("/ws/core/src/detail/x.cpp")

	assert.Equal(t, []string{
		"/ws/core/include/core.h",
		"/ws/core/main.cpp",
		"/ws/core/src/a.cpp",
		"/ws/core/src/b.cpp",
		"/ws/core/src/detail/x.cpp",
	}, names(tree.Leaves()))
}

func TestSourceTreeAddTwice(t *testing.T) {
	tree := NewSourceTree("/ws")
	a := tree.Add("/ws/a.c")
	b := tree.Add(`/ws/a.c`)
	assert.Same(t, a, b)
	assert.Len(t, tree.Leaves(), 1)
	assert.Same(t, a, tree.Find("/ws/a.c"))
	assert.Nil(t, tree.Find("/ws/missing.c"))
}

func TestSourceTreeNil(t *testing.T) {
	var tree *SourceTree
	assert.Empty(t, tree.Leaves())
}

func TestFileConfigHasSettings(t *testing.T) {
	var nilCfg *FileConfig
	assert.False(t, nilCfg.HasSettings())
	assert.False(t, (&FileConfig{}).HasSettings())
	assert.False(t, (&FileConfig{Properties: map[string]string{"a": "b"}}).HasSettings())
	assert.True(t, (&FileConfig{BuildOptions: []string{"-O3"}}).HasSettings())
	assert.True(t, (&FileConfig{BuildStep: BuildStep{Outputs: []string{"x"}}}).HasSettings())
	assert.True(t, (&FileConfig{Settings: Settings{Optimize: "Speed"}}).HasSettings())
}

func TestResolvedKind(t *testing.T) {
	prj := &Project{Name: "p"}
	prj.Configs = []*Config{{Name: "Debug"}, {Name: "Release", Kind: KindSharedLib}}
	assert.Equal(t, KindSharedLib, prj.ResolvedKind())

	prj.Kind = KindStaticLib
	assert.Equal(t, KindStaticLib, prj.ResolvedKind())

	empty := &Project{Configs: []*Config{{Name: "Debug"}}}
	assert.Equal(t, KindUnset, empty.ResolvedKind())
}

func TestHasTarget(t *testing.T) {
	assert.True(t, (&Project{Kind: KindStaticLib}).HasTarget())
	assert.True(t, (&Project{Configs: []*Config{{Kind: KindConsoleApp}}}).HasTarget())
	assert.False(t, (&Project{Kind: KindUtility}).HasTarget())
	assert.False(t, (&Project{Configs: []*Config{{Name: "Debug"}}}).HasTarget())
}

func TestKind(t *testing.T) {
	assert.True(t, KindStaticLib.IsLibrary())
	assert.False(t, KindUtility.IsLibrary())
	assert.False(t, Kind("Bogus").Valid())
	assert.True(t, KindUnset.Valid())
}

func TestConfigLinks(t *testing.T) {
	util := &Project{Name: "util"}
	cfg := &Config{Links: []Link{{System: "m"}, {Project: util}, {System: "pthread"}}}
	assert.Equal(t, []*Project{util}, cfg.ProjectLinks())
	assert.Equal(t, []string{"m", "pthread"}, cfg.SystemLinks())
}

func TestRuleMatches(t *testing.T) {
	r := &Rule{Name: "protoc", Match: []string{"*.proto", "schemas/**/*.fbs"}}
	assert.True(t, r.Matches("api/msg.proto"))
	assert.True(t, r.Matches("schemas/v1/a.fbs"))
	assert.False(t, r.Matches("other/a.fbs"))
	assert.False(t, r.Matches("main.cpp"))

	rs := RuleSet{{Name: "x", Match: []string{"*.x"}}, r}
	assert.Same(t, r, rs.ForFile("msg.proto"))
	assert.Nil(t, rs.ForFile("msg.cpp"))
	assert.Same(t, r, rs.Lookup("protoc"))
	assert.Nil(t, rs.Lookup("nope"))
}

func TestRuleApply(t *testing.T) {
	wks := &Workspace{Name: "w", Location: "/ws"}
	prj := &Project{Name: "core", BaseDir: "/ws/core", Location: "/ws", Workspace: wks}
	cfg := &Config{Project: prj, Name: "Debug", System: "linux", Properties: map[string]string{"outdir": "gen/debug"}}
	prj.Configs = []*Config{cfg}

	tree := NewSourceTree("/ws/core")
	node := tree.Add("/ws/core/api/msg.proto")
	node.SetConfig("Debug", &FileConfig{Properties: map[string]string{"lite": "yes"}})

	r := &Rule{
		Name:  "protoc",
		Match: []string{"*.proto"},
		Step: BuildStep{
			Message:  "protoc {{ file.name }} ({{ cfg.name }})",
			Commands: []string{"protoc --out={{ props.outdir }} --lite={{ props.lite }} {{ file.relpath }}"},
			Outputs:  []string{"{{ props.outdir }}/{{ file.basename }}.pb.cc"},
		},
		Properties: []RuleProperty{{Name: "outdir", Default: "gen"}, {Name: "lite", Default: "no"}},
	}

	step, err := r.Apply(r.Environ(node, cfg))
	require.NoError(t, err)
	assert.Equal(t, BuildStep{
		Message:  "protoc msg.proto (Debug)",
		Commands: []string{"protoc --out=gen/debug --lite=yes core/api/msg.proto"},
		Outputs:  []string{"gen/debug/msg.pb.cc"},
	}, step)
}

func TestRuleApplyError(t *testing.T) {
	r := &Rule{Name: "bad", Step: BuildStep{Outputs: []string{"{{ 1 + }}"}}}
	_, err := r.Apply(Environ{"props": map[string]any{}})
	assert.ErrorContains(t, err, `rule "bad": outputs`)
}
