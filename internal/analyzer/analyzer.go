// Package analyzer wires template lowering, resource discovery, and binding
// resolution onto the claim graph, one graph per session. All methods must
// be called from a single goroutine.
package analyzer

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/vk/weft/internal/binding"
	"github.com/vk/weft/internal/cache"
	"github.com/vk/weft/internal/claim"
	"github.com/vk/weft/internal/config"
	"github.com/vk/weft/internal/ctxlog"
	"github.com/vk/weft/internal/diag"
	"github.com/vk/weft/internal/digest"
	"github.com/vk/weft/internal/report"
	"github.com/vk/weft/internal/resource"
	"github.com/vk/weft/internal/template"
)

// Analyzer owns one analysis session: the claim graph, the parse cache, and
// the current file sets.
type Analyzer struct {
	cfg   *config.Model
	graph *claim.Graph[string, any]

	parseCache    *cache.Parse[*template.Document]
	manifestCache *cache.Parse[manifestResult]

	templates []string
	manifests []string

	// dirty accumulates nodes reported stale since the last Analyze, used
	// by watch mode to re-resolve only affected templates.
	dirty map[claim.NodeID]struct{}
}

// manifestResult bundles what one manifest file contributes.
type manifestResult struct {
	set   *resource.Set
	diags []diag.Diagnostic
}

// projectValue is the red value of the project-resources node.
type projectValue struct {
	set   *resource.Set
	diags []diag.Diagnostic
}

// New creates an analyzer session for the given configuration.
func New(cfg *config.Model) *Analyzer {
	a := &Analyzer{
		cfg:           cfg,
		graph:         claim.New[string, any](claim.Options{ConvergenceBudget: cfg.ConvergenceBudget}),
		parseCache:    cache.NewParse[*template.Document](cfg.ParseCacheSize),
		manifestCache: cache.NewParse[manifestResult](cfg.ParseCacheSize),
		dirty:         make(map[claim.NodeID]struct{}),
	}
	a.registerCallbacks()
	a.graph.OnStale(a)
	return a
}

// Graph exposes the underlying claim graph for observation. Tests and the
// report use it; collaborators must not mutate through it.
func (a *Analyzer) Graph() *claim.Graph[string, any] { return a.graph }

// OnNodesStale implements claim.StalenessHandler.
func (a *Analyzer) OnNodesStale(batch []claim.NodeID) {
	for _, id := range batch {
		a.dirty[id] = struct{}{}
	}
}

// SetFiles replaces the scanned file sets. Lists are seeded as input nodes
// so that adding or removing a file invalidates exactly the aggregations
// that read the lists.
func (a *Analyzer) SetFiles(templates, manifests []string) {
	a.templates = append([]string(nil), templates...)
	a.manifests = append([]string(nil), manifests...)
	sort.Strings(a.templates)
	sort.Strings(a.manifests)

	tID := a.graph.CreateNode(KindFileList, keyTemplates)
	mID := a.graph.CreateNode(KindFileList, keyManifests)
	// Errors are impossible for ids produced by CreateNode.
	_ = a.graph.SetInputValue(tID, digest.Parts(a.templates...), a.templates)
	_ = a.graph.SetInputValue(mID, digest.Parts(a.manifests...), a.manifests)
}

// UpdateFile pushes new contents for one file. An unchanged digest is a
// no-op for the rest of the graph (cutoff).
func (a *Analyzer) UpdateFile(path string, contents []byte) {
	id := a.graph.CreateNode(KindFile, path)
	_ = a.graph.SetInputValue(id, digest.Bytes(contents), string(contents))
}

// LoadProject scans the configured globs and seeds every discovered file.
func (a *Analyzer) LoadProject(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	templates, err := a.cfg.TemplateFiles()
	if err != nil {
		return fmt.Errorf("scanning templates: %w", err)
	}
	manifests, err := a.cfg.ManifestFiles()
	if err != nil {
		return fmt.Errorf("scanning manifests: %w", err)
	}
	a.SetFiles(templates, manifests)

	for _, path := range append(append([]string(nil), templates...), manifests...) {
		contents, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		a.UpdateFile(path, contents)
	}

	logger.Info("Project scanned.", "templates", len(templates), "manifests", len(manifests))
	return nil
}

// Analyze pulls the resolution of every template and assembles the report.
func (a *Analyzer) Analyze(ctx context.Context) (*report.Report, error) {
	logger := ctxlog.FromContext(ctx)
	rep := &report.Report{}

	projID := a.graph.CreateNode(KindProjectResources, keyProject)
	projRes, err := a.graph.Pull(projID)
	if err != nil {
		return nil, fmt.Errorf("aggregating project resources: %w", err)
	}
	if pv, ok := projRes.Value.(*projectValue); ok {
		for _, def := range pv.set.All() {
			rep.Resources = append(rep.Resources, report.ResourceEntry{
				Kind:      string(def.Kind),
				Name:      def.Name,
				Source:    def.Source,
				Bindables: bindableNames(def),
			})
		}
		rep.Diagnostics = append(rep.Diagnostics, pv.diags...)
	}

	for _, path := range a.templates {
		entry, err := a.analyzeTemplate(path)
		if err != nil {
			return nil, err
		}
		rep.Templates = append(rep.Templates, entry)
	}

	a.dirty = make(map[claim.NodeID]struct{})

	rep.Stats = report.Stats{
		Nodes: a.graph.NodeCount(),
		Edges: a.graph.EdgeCount(),
		Stale: a.graph.StaleCount(),
	}
	if conv := a.graph.LastConvergence(); conv != nil {
		rep.Stats.Convergence = &report.Convergence{
			Converged:    conv.Converged,
			Iterations:   conv.Iterations,
			Participants: len(conv.Participants),
		}
		if !conv.Converged {
			logger.Warn("Cyclic requires did not stabilize within budget; last computed scopes are in use.",
				"iterations", conv.Iterations)
		}
	}

	logger.Debug("Analysis complete.",
		"templates", len(rep.Templates),
		"resources", len(rep.Resources),
		"nodes", rep.Stats.Nodes,
		"edges", rep.Stats.Edges,
	)
	return rep, nil
}

// DirtyTemplates returns the template paths whose resolution became stale
// since the last Analyze, sorted.
func (a *Analyzer) DirtyTemplates() []string {
	var paths []string
	for id := range a.dirty {
		info, err := a.graph.GetNode(id)
		if err != nil {
			continue
		}
		if info.Kind == KindResolved {
			paths = append(paths, info.Key)
		}
	}
	sort.Strings(paths)
	return paths
}

func (a *Analyzer) analyzeTemplate(path string) (report.TemplateEntry, error) {
	id := a.graph.CreateNode(KindResolved, path)
	res, err := a.graph.Pull(id)
	if err != nil {
		return report.TemplateEntry{}, fmt.Errorf("resolving %s: %w", path, err)
	}

	entry := report.TemplateEntry{Path: path}
	resolved, ok := res.Value.(*binding.Resolved)
	if !ok {
		return entry, nil
	}
	entry.Matches = len(resolved.Matches)
	entry.Bindings = len(resolved.Bindings)
	entry.Diagnostics = resolved.Diagnostics
	return entry, nil
}

func bindableNames(def resource.Definition) []string {
	names := make([]string, 0, len(def.Bindables))
	for _, b := range def.Bindables {
		names = append(names, b.Name+":"+strings.ToLower(b.Type.FriendlyName()))
	}
	return names
}
