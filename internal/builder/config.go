package builder

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"reflect"
	"runtime"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/qobs-build/qobsgen/internal/expand"
	"github.com/qobs-build/qobsgen/internal/model"
)

const WorkspaceFileName = "Workspace.toml"

var defaultConfigurations = []string{"Debug", "Release"}

// Manifest is a parsed Workspace.toml. Project tables are kept raw until a
// configuration environment is known, because their conditional sections
// depend on it.
type Manifest struct {
	Workspace WorkspaceSection
	Rules     []RuleSection

	projects []map[string]any
}

// WorkspaceSection defines the [workspace] section
type WorkspaceSection struct {
	Name           string   `toml:"name"`
	Location       string   `toml:"location"`
	Configurations []string `toml:"configurations"`
}

// RuleSection defines a [[rule]]. Its strings are templates expanded per file
// at generation time.
type RuleSection struct {
	Name       string            `toml:"name"`
	Match      []string          `toml:"match"`
	Message    string            `toml:"message"`
	Commands   []string          `toml:"commands"`
	Inputs     []string          `toml:"inputs"`
	Outputs    []string          `toml:"outputs"`
	Properties map[string]string `toml:"properties"`
}

// ProjectSection holds the unconditional keys of a [[project]].
type ProjectSection struct {
	Name            string   `toml:"name"`
	Kind            string   `toml:"kind"`
	BaseDir         string   `toml:"basedir"`
	Location        string   `toml:"location"`
	TargetExtension string   `toml:"targetextension"`
	Files           []string `toml:"files"`
	DependsOn       []string `toml:"dependson"`
	Rules           []string `toml:"rules"`
}

// SettingsSection defines [project.settings] and its conditional sub-tables
type SettingsSection struct {
	Kind    string `toml:"kind"`
	Toolset string `toml:"toolset"`

	TargetDir  string `toml:"targetdir"`
	TargetName string `toml:"targetname"`

	IncludeDirs    []string `toml:"includedirs"`
	SysIncludeDirs []string `toml:"sysincludedirs"`
	LibDirs        []string `toml:"libdirs"`
	ForceIncludes  []string `toml:"forceincludes"`
	Defines        []string `toml:"defines"`
	BuildOptions   []string `toml:"buildoptions"`
	LinkOptions    []string `toml:"linkoptions"`
	Links          []string `toml:"links"`

	PIC        bool `toml:"pic"`
	LTO        bool `toml:"lto"`
	LinkGroups bool `toml:"linkgroups"`
	NoPCH      bool `toml:"nopch"`

	CppDialect string `toml:"cppdialect"`
	PCHHeader  string `toml:"pchheader"`

	PreBuildMessage   string   `toml:"prebuildmessage"`
	PreBuildCommands  []string `toml:"prebuildcommands"`
	PostBuildMessage  string   `toml:"postbuildmessage"`
	PostBuildCommands []string `toml:"postbuildcommands"`

	BuildMessage  string   `toml:"buildmessage"`
	BuildCommands []string `toml:"buildcommands"`
	BuildInputs   []string `toml:"buildinputs"`
	BuildOutputs  []string `toml:"buildoutputs"`

	Properties map[string]string `toml:"properties"`

	Optimize      string `toml:"optimize"`
	Warnings      string `toml:"warnings"`
	Symbols       bool   `toml:"symbols"`
	FatalWarnings bool   `toml:"fatalwarnings"`
	Architecture  string `toml:"architecture"`
	Exceptions    string `toml:"exceptions"`
	RTTI          string `toml:"rtti"`
}

func (s *SettingsSection) settings() model.Settings {
	return model.Settings{
		Optimize:      s.Optimize,
		Warnings:      s.Warnings,
		Symbols:       s.Symbols,
		FatalWarnings: s.FatalWarnings,
		Architecture:  s.Architecture,
		Exceptions:    s.Exceptions,
		RTTI:          s.RTTI,
	}
}

// FileSection defines [project.file."<glob>"] and its conditional sub-tables
type FileSection struct {
	BuildMessage  string            `toml:"buildmessage"`
	BuildCommands []string          `toml:"buildcommands"`
	BuildInputs   []string          `toml:"buildinputs"`
	BuildOutputs  []string          `toml:"buildoutputs"`
	BuildOptions  []string          `toml:"buildoptions"`
	Properties    map[string]string `toml:"properties"`

	Optimize      string `toml:"optimize"`
	Warnings      string `toml:"warnings"`
	Symbols       bool   `toml:"symbols"`
	FatalWarnings bool   `toml:"fatalwarnings"`
	Architecture  string `toml:"architecture"`
	Exceptions    string `toml:"exceptions"`
	RTTI          string `toml:"rtti"`
}

func (f *FileSection) fileConfig() *model.FileConfig {
	return &model.FileConfig{
		BuildStep: model.BuildStep{
			Message:  f.BuildMessage,
			Commands: f.BuildCommands,
			Inputs:   f.BuildInputs,
			Outputs:  f.BuildOutputs,
		},
		BuildOptions: f.BuildOptions,
		Properties:   f.Properties,
		Settings: model.Settings{
			Optimize:      f.Optimize,
			Warnings:      f.Warnings,
			Symbols:       f.Symbols,
			FatalWarnings: f.FatalWarnings,
			Architecture:  f.Architecture,
			Exceptions:    f.Exceptions,
			RTTI:          f.RTTI,
		},
	}
}

// ConfigEnv is the environment conditional sections and `{{ }}` expressions
// of project tables are evaluated against.
type ConfigEnv struct {
	Configuration string            `expr:"configuration"`
	System        string            `expr:"system"`
	Arch          string            `expr:"arch"`
	Environ       map[string]string `expr:"environ"`
}

// NewConfigEnv creates the environment for one configuration. An empty system
// selects the host's.
func NewConfigEnv(configuration, system string) ConfigEnv {
	environ := make(map[string]string)
	for _, e := range os.Environ() {
		if k, v, ok := strings.Cut(e, "="); ok {
			environ[k] = v
		}
	}
	if system == "" {
		system = HostSystem()
	}
	return ConfigEnv{
		Configuration: configuration,
		System:        system,
		Arch:          hostArch(),
		Environ:       environ,
	}
}

// HostSystem names the running OS the way configurations do.
func HostSystem() string {
	if runtime.GOOS == "darwin" {
		return "macosx"
	}
	return runtime.GOOS
}

func hostArch() string {
	switch runtime.GOARCH {
	case "amd64":
		return "x86_64"
	case "386":
		return "x86"
	}
	return runtime.GOARCH
}

// mergeStructs merges the fields of the src struct into the dst struct
func mergeStructs(dst, src any) error {
	dstVal := reflect.ValueOf(dst)
	if dstVal.Kind() != reflect.Pointer || dstVal.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("dst must be a pointer to a struct")
	}

	dstElem := dstVal.Elem()
	srcVal := reflect.ValueOf(src)
	if srcVal.Kind() == reflect.Pointer {
		srcVal = srcVal.Elem()
	}
	if srcVal.Kind() != reflect.Struct {
		return fmt.Errorf("src must be a struct or a pointer to a struct")
	}
	if dstElem.Type() != srcVal.Type() {
		return fmt.Errorf("dst and src must be of the same struct type")
	}

	for i := range srcVal.NumField() {
		srcField := srcVal.Field(i)
		dstField := dstElem.Field(i)
		if !dstField.CanSet() {
			continue
		}

		switch dstField.Kind() {
		case reflect.Slice:
			if !srcField.IsNil() {
				dstField.Set(reflect.AppendSlice(dstField, srcField))
			}
		case reflect.Map:
			if !srcField.IsNil() {
				if dstField.IsNil() {
					dstField.Set(reflect.MakeMap(dstField.Type()))
				}
				for _, key := range srcField.MapKeys() {
					dstField.SetMapIndex(key, srcField.MapIndex(key))
				}
			}
		case reflect.Bool:
			dstField.SetBool(dstField.Bool() || srcField.Bool())
		default:
			if !srcField.IsZero() {
				dstField.Set(srcField)
			}
		}
	}
	return nil
}

func mustMarshal(v any) []byte {
	b, err := toml.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

// cloneTable deep-copies a decoded table so every configuration can evaluate
// its own expressions.
func cloneTable(t map[string]any) map[string]any {
	var out map[string]any
	if err := toml.Unmarshal(mustMarshal(t), &out); err != nil {
		panic(err)
	}
	return out
}

// unmarshalConditionalSection parses a section and merges every sub-table whose
// key is an expression evaluating to true. Conditional sub-tables are merged in
// key order so the result does not depend on map iteration.
func unmarshalConditionalSection[T any](rawCfg map[string]any, name string, dst *T, env ConfigEnv) error {
	sectionData, ok := rawCfg[name]
	if !ok {
		return nil
	}

	sectionMap, ok := sectionData.(map[string]any)
	if !ok {
		return fmt.Errorf("invalid [%s] section format: expected a table", name)
	}

	baseFields := make(map[string]any)
	conditionalFields := make(map[string]map[string]any)
	for key, val := range sectionMap {
		if subMap, ok := val.(map[string]any); ok && expand.Compiles(key, env) {
			conditionalFields[key] = subMap
		} else {
			baseFields[key] = val
		}
	}

	if len(baseFields) > 0 {
		if err := toml.Unmarshal(mustMarshal(baseFields), dst); err != nil {
			return fmt.Errorf("failed to parse base [%s] section: %w", name, err)
		}
	}

	for _, expression := range slices.Sorted(maps.Keys(conditionalFields)) {
		matched, err := expand.Bool(expression, env)
		if err != nil {
			return fmt.Errorf("conditional section [%s.%q]: %w", name, expression, err)
		}
		if !matched {
			continue
		}

		var condSection T
		if err := toml.Unmarshal(mustMarshal(conditionalFields[expression]), &condSection); err != nil {
			return fmt.Errorf("failed to parse conditional section [%s.%q]: %w", name, expression, err)
		}
		if err := mergeStructs(dst, condSection); err != nil {
			return fmt.Errorf("failed to merge conditional section [%s.%q]: %w", name, expression, err)
		}
	}

	return nil
}

// processExpressions recursively walks the parsed TOML data and evaluates expressions in strings
func processExpressions(data any, env ConfigEnv) (any, error) {
	switch v := data.(type) {
	case map[string]any:
		for key, val := range v {
			processedVal, err := processExpressions(val, env)
			if err != nil {
				return nil, err
			}
			v[key] = processedVal
		}
		return v, nil
	case []any:
		for i, item := range v {
			processedItem, err := processExpressions(item, env)
			if err != nil {
				return nil, err
			}
			v[i] = processedItem
		}
		return v, nil
	case string:
		if !expand.Has(v) {
			return v, nil
		}
		return expand.String(v, env)
	default:
		return data, nil
	}
}

// manifestFile holds the sections of a Workspace.toml that have no
// conditional parts and can be decoded directly.
type manifestFile struct {
	Workspace WorkspaceSection `toml:"workspace"`
	Rules     []RuleSection    `toml:"rule"`
}

func decodeError(err error) error {
	var derr *toml.DecodeError
	if errors.As(err, &derr) {
		return errors.New(derr.String())
	}
	return err
}

// ParseManifest decodes a Workspace.toml.
func ParseManifest(rdr io.Reader) (*Manifest, error) {
	data, err := io.ReadAll(rdr)
	if err != nil {
		return nil, err
	}

	var file manifestFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, decodeError(err)
	}
	var rawConfig map[string]any
	if err := toml.Unmarshal(data, &rawConfig); err != nil {
		return nil, decodeError(err)
	}

	m := &Manifest{Workspace: file.Workspace, Rules: file.Rules}

	if raw, ok := rawConfig["project"]; ok {
		list, ok := raw.([]any)
		if !ok {
			return nil, errors.New("invalid [[project]] section format: expected an array of tables")
		}
		for i, item := range list {
			table, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("invalid [[project]] #%d: expected a table", i+1)
			}
			m.projects = append(m.projects, table)
		}
	}

	if m.Workspace.Name == "" {
		return nil, ErrNoWorkspaceName
	}
	if len(m.projects) == 0 {
		return nil, ErrNoProjects
	}
	if len(m.Workspace.Configurations) == 0 {
		m.Workspace.Configurations = defaultConfigurations
	}
	return m, nil
}

// ParseManifestFromFile parses a manifest from a filepath
func ParseManifestFromFile(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ParseManifest(f)
}
