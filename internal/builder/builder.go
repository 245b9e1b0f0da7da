package builder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/qobs-build/qobsgen/internal/builder/gen"
	"github.com/qobs-build/qobsgen/internal/model"
	"github.com/qobs-build/qobsgen/internal/msg"
)

var (
	ErrOutOfDate   = errors.New("generated files are out of date")
	ErrForeignFile = errors.New("refusing to overwrite a file qobsgen did not generate")
)

// Options are the command line choices applied to a workspace.
type Options struct {
	// System overrides the target system of every configuration.
	System string
	// Toolset overrides the toolset of every configuration.
	Toolset string
	// DefaultToolset is used by configurations that do not pick a toolset.
	DefaultToolset string
}

// Output is one generated file.
type Output struct {
	Path string
	Data []byte
	// Old is the current content on disk, nil when the file does not exist.
	Old     []byte
	Changed bool

	// guarded outputs may only replace files the generator wrote itself.
	guarded bool
}

type Builder struct {
	manifest *Manifest
	basedir  string
	opts     Options
	gen      gen.Generator
}

// NewBuilderInDirectory loads the Workspace.toml in path.
func NewBuilderInDirectory(path string, opts Options) (*Builder, error) {
	var err error
	path, err = filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	m, err := ParseManifestFromFile(filepath.Join(path, WorkspaceFileName))
	if err != nil {
		return nil, err
	}

	g := gen.NewCMakeGen()
	g.Toolset = opts.Toolset
	g.DefaultToolset = opts.DefaultToolset
	return &Builder{manifest: m, basedir: path, opts: opts, gen: g}, nil
}

// Workspace resolves the manifest into the model handed to the generator.
func (b *Builder) Workspace() (*model.Workspace, error) {
	return b.manifest.Resolve(ResolveOptions{
		Dir:    b.basedir,
		System: b.opts.System,
	})
}

// Render emits every project in parallel, then the workspace script. If any
// project fails, every error is returned and no output is.
func (b *Builder) Render(ctx context.Context) ([]Output, error) {
	wks, err := b.Workspace()
	if err != nil {
		return nil, err
	}

	scripts := make([][]byte, len(wks.Projects))
	errs := make([]error, len(wks.Projects))

	var eg errgroup.Group
	eg.SetLimit(runtime.NumCPU())
	for i, prj := range wks.Projects {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			scripts[i], errs[i] = b.gen.Project(prj)
			return nil
		})
	}
	_ = eg.Wait()
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	var (
		outputs  []Output
		included []*model.Project
	)
	for i, prj := range wks.Projects {
		if scripts[i] == nil {
			msg.Debug("skipped %s (utility or no kind)", prj.Name)
			continue
		}
		included = append(included, prj)
		outputs = append(outputs, Output{Path: b.gen.ProjectFile(prj), Data: scripts[i]})
	}

	data, err := b.gen.Workspace(wks, included)
	if err != nil {
		return nil, err
	}
	outputs = append(outputs, Output{Path: b.gen.WorkspaceFile(wks), Data: data, guarded: true})

	for i := range outputs {
		out := &outputs[i]
		if err := out.compare(); err != nil {
			return nil, err
		}
		if out.guarded && out.Old != nil && !b.gen.Generated(out.Old) {
			return nil, fmt.Errorf("%w: %s", ErrForeignFile, out.Path)
		}
	}
	return outputs, nil
}

func (o *Output) compare() error {
	old, err := os.ReadFile(filepath.FromSlash(o.Path))
	switch {
	case errors.Is(err, os.ErrNotExist):
		o.Changed = true
		return nil
	case err != nil:
		return err
	}
	o.Old = old
	o.Changed = !bytes.Equal(old, o.Data)
	return nil
}

// Generate renders the workspace and writes the files that changed.
func (b *Builder) Generate(ctx context.Context) error {
	outputs, err := b.Render(ctx)
	if err != nil {
		return err
	}
	for _, out := range outputs {
		if !out.Changed {
			msg.Debug("unchanged %s", out.Path)
			continue
		}
		if err := writeFileAtomic(filepath.FromSlash(out.Path), out.Data); err != nil {
			return fmt.Errorf("failed to write %s: %w", out.Path, err)
		}
		msg.Info("generated %s", out.Path)
	}
	return nil
}

// Check reports the files Generate would change, and fails if there are any.
func (b *Builder) Check(ctx context.Context) error {
	outputs, err := b.Render(ctx)
	if err != nil {
		return err
	}
	stale := 0
	for _, out := range outputs {
		if out.Changed {
			stale++
			msg.Warn("%s is out of date (%s)", out.Path, diffStat(out.Old, out.Data))
			if msg.Verbose {
				if err := writeDiff(&msg.IndentWriter{Indent: "    ", W: os.Stdout}, out.Path, out.Old, out.Data); err != nil {
					return err
				}
			}
		}
	}
	if stale > 0 {
		return fmt.Errorf("%w: %d file(s)", ErrOutOfDate, stale)
	}
	return nil
}

// Diff writes a line diff of every file Generate would change.
func (b *Builder) Diff(ctx context.Context, w io.Writer) error {
	outputs, err := b.Render(ctx)
	if err != nil {
		return err
	}
	for _, out := range outputs {
		if !out.Changed {
			continue
		}
		if err := writeDiff(w, out.Path, out.Old, out.Data); err != nil {
			return err
		}
	}
	return nil
}

// writeFileAtomic writes data to a temporary file next to name and renames
// it into place.
func writeFileAtomic(name string, data []byte) error {
	dir := filepath.Dir(name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(name)+".*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Chmod(tmp, 0644); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, name); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
