package model

import (
	"path"
	"slices"
	"strings"

	"github.com/qobs-build/qobsgen/internal/paths"
)

// FileConfig overrides how a single file is built in one configuration.
type FileConfig struct {
	BuildStep
	BuildOptions []string
	// Properties override rule properties for this file.
	Properties map[string]string
	Settings
}

// HasSettings reports whether the file configuration declares anything that
// takes precedence over a matching rule.
func (fc *FileConfig) HasSettings() bool {
	if fc == nil {
		return false
	}
	return fc.Message != "" ||
		len(fc.Commands) > 0 ||
		len(fc.Inputs) > 0 ||
		len(fc.Outputs) > 0 ||
		len(fc.BuildOptions) > 0 ||
		fc.Settings != Settings{}
}

// Node is a directory or a file of a source tree. Only leaves are files.
type Node struct {
	Name string
	// Path is absolute, with forward slashes.
	Path     string
	Parent   *Node
	Children []*Node
	// Configs maps a configuration name to this file's overrides.
	Configs map[string]*FileConfig

	isDir bool
}

// IsLeaf reports whether the node is a file.
func (n *Node) IsLeaf() bool { return !n.isDir }

// Config returns the file configuration for cfg, or nil.
func (n *Node) Config(cfg *Config) *FileConfig {
	if n.Configs == nil || cfg == nil {
		return nil
	}
	return n.Configs[cfg.Name]
}

// SetConfig attaches a file configuration for the named configuration.
func (n *Node) SetConfig(name string, fc *FileConfig) {
	if n.Configs == nil {
		n.Configs = make(map[string]*FileConfig)
	}
	n.Configs[name] = fc
}

// SourceTree is the hierarchical file list of a project.
type SourceTree struct {
	Root *Node
}

// NewSourceTree creates an empty tree rooted at the absolute directory root.
func NewSourceTree(root string) *SourceTree {
	root = path.Clean(paths.ToSlash(root))
	return &SourceTree{Root: &Node{Name: path.Base(root), Path: root, isDir: true}}
}

// Add inserts the file at the absolute path file, creating intermediate
// directories. Files outside of the root are attached under their own
// directory chain starting at the root. Adding a file twice returns the
// existing node.
func (t *SourceTree) Add(file string) *Node {
	file = path.Clean(paths.ToSlash(file))
	rel := paths.Slash.Rel(t.Root.Path, file)

	parent := t.Root
	parts := strings.Split(rel, "/")
	dir := t.Root.Path
	for _, part := range parts[:len(parts)-1] {
		dir = path.Join(dir, part)
		parent = parent.child(part, dir, true)
	}
	return parent.child(parts[len(parts)-1], file, false)
}

func (n *Node) child(name, p string, isDir bool) *Node {
	i, found := slices.BinarySearchFunc(n.Children, name, func(c *Node, name string) int {
		return strings.Compare(c.Name, name)
	})
	if found {
		return n.Children[i]
	}
	c := &Node{Name: name, Path: p, Parent: n, isDir: isDir}
	n.Children = slices.Insert(n.Children, i, c)
	return c
}

// Leaves returns every file of the tree in depth-first order. Children are
// visited in name order.
func (t *SourceTree) Leaves() []*Node {
	if t == nil || t.Root == nil {
		return nil
	}
	var out []*Node
	var walk func(n *Node)
	walk = func(n *Node) {
		for _, c := range n.Children {
			if c.IsLeaf() {
				out = append(out, c)
			} else {
				walk(c)
			}
		}
	}
	walk(t.Root)
	return out
}

// Find returns the leaf at the absolute path file, or nil.
func (t *SourceTree) Find(file string) *Node {
	file = path.Clean(paths.ToSlash(file))
	for _, n := range t.Leaves() {
		if n.Path == file {
			return n
		}
	}
	return nil
}
