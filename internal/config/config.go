// Package config loads the weft.hcl project configuration.
package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/weft/internal/cache"
	"github.com/vk/weft/internal/claim"
	"github.com/vk/weft/internal/ctxlog"
	"github.com/vk/weft/internal/fsutil"
)

// file is the gohcl schema of weft.hcl. Both blocks are optional.
type file struct {
	Project  *projectBlock  `hcl:"project,block"`
	Analyzer *analyzerBlock `hcl:"analyzer,block"`
}

type projectBlock struct {
	Root      *string  `hcl:"root,optional"`
	Templates []string `hcl:"templates,optional"`
	Manifests []string `hcl:"manifests,optional"`
}

type analyzerBlock struct {
	ConvergenceBudget *int `hcl:"convergence_budget,optional"`
	ParseCacheSize    *int `hcl:"parse_cache_size,optional"`
}

// Model is the resolved configuration.
type Model struct {
	// Root is the project root directory, absolute or relative to the
	// process working directory.
	Root string
	// TemplateGlobs and ManifestGlobs are doublestar patterns applied
	// against Root.
	TemplateGlobs []string
	ManifestGlobs []string

	ConvergenceBudget int
	ParseCacheSize    int
}

// Default returns the configuration used when no weft.hcl exists: the
// given root with convention globs.
func Default(root string) *Model {
	return &Model{
		Root:              root,
		TemplateGlobs:     []string{"**/*.html"},
		ManifestGlobs:     []string{"**/*.weft.hcl"},
		ConvergenceBudget: claim.DefaultConvergenceBudget,
		ParseCacheSize:    cache.DefaultSize,
	}
}

// Load parses a weft.hcl file and resolves its settings against the file's
// directory.
func Load(ctx context.Context, path string) (*Model, error) {
	logger := ctxlog.FromContext(ctx)

	hclFile, diags := hclparse.NewParser().ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing %s: %w", path, diags)
	}

	var f file
	if diags := gohcl.DecodeBody(hclFile.Body, nil, &f); diags.HasErrors() {
		return nil, fmt.Errorf("decoding %s: %w", path, diags)
	}

	model := Default(filepath.Dir(path))
	if f.Project != nil {
		if f.Project.Root != nil {
			model.Root = filepath.Join(filepath.Dir(path), filepath.FromSlash(*f.Project.Root))
		}
		if len(f.Project.Templates) > 0 {
			model.TemplateGlobs = f.Project.Templates
		}
		if len(f.Project.Manifests) > 0 {
			model.ManifestGlobs = f.Project.Manifests
		}
	}
	if f.Analyzer != nil {
		if f.Analyzer.ConvergenceBudget != nil {
			model.ConvergenceBudget = *f.Analyzer.ConvergenceBudget
		}
		if f.Analyzer.ParseCacheSize != nil {
			model.ParseCacheSize = *f.Analyzer.ParseCacheSize
		}
	}

	logger.Debug("Configuration loaded.",
		"root", model.Root,
		"template_globs", model.TemplateGlobs,
		"manifest_globs", model.ManifestGlobs,
		"convergence_budget", model.ConvergenceBudget,
	)
	return model, nil
}

// TemplateFiles expands the template globs against the project root.
func (m *Model) TemplateFiles() ([]string, error) {
	return fsutil.GlobAll(m.Root, m.TemplateGlobs)
}

// ManifestFiles expands the manifest globs against the project root.
func (m *Model) ManifestFiles() ([]string, error) {
	return fsutil.GlobAll(m.Root, m.ManifestGlobs)
}
