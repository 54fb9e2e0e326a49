package analyzer

import (
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/weft/internal/binding"
	"github.com/vk/weft/internal/claim"
	"github.com/vk/weft/internal/diag"
	"github.com/vk/weft/internal/digest"
	"github.com/vk/weft/internal/resource"
	"github.com/vk/weft/internal/template"
)

func (a *Analyzer) registerCallbacks() {
	a.graph.RegisterCallback(KindTemplateIR, a.evalTemplateIR)
	a.graph.RegisterCallback(KindManifest, a.evalManifest)
	a.graph.RegisterCallback(KindLocalResources, a.evalLocalResources)
	a.graph.RegisterCallback(KindProjectResources, a.evalProjectResources)
	a.graph.RegisterCallback(KindScope, a.evalScope)
	a.graph.RegisterCallback(KindResolved, a.evalResolved)
}

// key returns the (kind, key) identity of a node through the observation
// API; callbacks use it to recover the path they were invoked for.
func (a *Analyzer) key(id claim.NodeID) string {
	info, err := a.graph.GetNode(id)
	if err != nil {
		return ""
	}
	return info.Key
}

type evalContext = claim.EvaluationContext[string, any]
type outcome = claim.Outcome[string, any]

// evalTemplateIR lowers one template file. The parse cache is keyed by the
// content digest, so reverting a file to previous contents skips the HTML
// parser even before graph cutoff applies.
func (a *Analyzer) evalTemplateIR(id claim.NodeID, ec *evalContext) (outcome, error) {
	path := a.key(id)
	fileRes, err := ec.Pull(ec.CreateNode(KindFile, path), claim.EdgeData)
	if err != nil {
		return outcome{}, err
	}
	contents, _ := fileRes.Value.(string)

	doc := a.parseCache.GetOrCompute(fileRes.Green+":"+path, func() *template.Document {
		return template.Parse(path, []byte(contents))
	})
	return outcome{Green: doc.Fingerprint(), Red: doc}, nil
}

// evalManifest decodes one resource manifest.
func (a *Analyzer) evalManifest(id claim.NodeID, ec *evalContext) (outcome, error) {
	path := a.key(id)
	fileRes, err := ec.Pull(ec.CreateNode(KindFile, path), claim.EdgeData)
	if err != nil {
		return outcome{}, err
	}
	contents, _ := fileRes.Value.(string)

	mr := a.manifestCache.GetOrCompute(fileRes.Green+":"+path, func() manifestResult {
		set, diags := resource.ParseManifest(path, []byte(contents))
		return manifestResult{set: set, diags: diags}
	})
	return outcome{Green: fingerprintWithDiags(mr.set, mr.diags), Red: mr}, nil
}

// evalLocalResources extracts the inline custom elements a template
// declares.
func (a *Analyzer) evalLocalResources(id claim.NodeID, ec *evalContext) (outcome, error) {
	path := a.key(id)
	irRes, err := ec.Pull(ec.CreateNode(KindTemplateIR, path), claim.EdgeData)
	if err != nil {
		return outcome{}, err
	}

	set := resource.NewSet()
	if doc, ok := irRes.Value.(*template.Document); ok {
		for _, def := range doc.LocalDefs {
			bindables := make([]resource.Bindable, 0, len(def.Bindables))
			for _, name := range def.Bindables {
				bindables = append(bindables, resource.Bindable{Name: name, Type: dynamicType()})
			}
			set.Add(resource.Definition{
				Kind:      resource.KindElement,
				Name:      resource.Kebab(def.Name),
				Bindables: bindables,
				Origin:    resource.OriginLocal,
				Source:    path,
			})
		}
	}
	return outcome{Green: set.Fingerprint(), Red: set}, nil
}

// evalProjectResources merges every manifest into the project-wide set.
func (a *Analyzer) evalProjectResources(id claim.NodeID, ec *evalContext) (outcome, error) {
	listRes, err := ec.Pull(ec.CreateNode(KindFileList, keyManifests), claim.EdgeData)
	if err != nil {
		return outcome{}, err
	}
	paths, _ := listRes.Value.([]string)

	pv := &projectValue{set: resource.NewSet()}
	for _, path := range paths {
		mRes, err := ec.Pull(ec.CreateNode(KindManifest, path), claim.EdgeData)
		if err != nil {
			return outcome{}, err
		}
		if mr, ok := mRes.Value.(manifestResult); ok {
			pv.set.Merge(mr.set)
			pv.diags = append(pv.diags, mr.diags...)
		}
	}
	return outcome{Green: fingerprintWithDiags(pv.set, pv.diags), Red: pv}, nil
}

// evalScope assembles the resource set visible inside one template:
// project-wide resources, the exports of every required template
// (transitively, which is what makes mutual requires cyclic), and the
// template's own local definitions shadowing everything else.
func (a *Analyzer) evalScope(id claim.NodeID, ec *evalContext) (outcome, error) {
	path := a.key(id)
	merged := resource.NewSet()

	projRes, err := ec.Pull(ec.CreateNode(KindProjectResources, keyProject), claim.EdgeData)
	if err != nil {
		return outcome{}, err
	}
	if pv, ok := projRes.Value.(*projectValue); ok {
		merged.Merge(pv.set)
	}

	irRes, err := ec.Pull(ec.CreateNode(KindTemplateIR, path), claim.EdgeData)
	if err != nil {
		return outcome{}, err
	}
	if doc, ok := irRes.Value.(*template.Document); ok {
		for _, req := range doc.Requires {
			reqRes, err := ec.Pull(ec.CreateNode(KindScope, req.Path), claim.EdgeData)
			if err != nil {
				return outcome{}, err
			}
			// On a cycle the forward reference carries the last-known
			// (possibly nil) scope; convergence re-runs this callback until
			// the union stabilizes.
			if reqSet, ok := reqRes.Value.(*resource.Set); ok {
				merged.Merge(reqSet)
			}
		}
	}

	localRes, err := ec.Pull(ec.CreateNode(KindLocalResources, path), claim.EdgeData)
	if err != nil {
		return outcome{}, err
	}
	if localSet, ok := localRes.Value.(*resource.Set); ok {
		merged.Merge(localSet)
	}

	return outcome{Green: merged.Fingerprint(), Red: merged}, nil
}

// evalResolved resolves one template's bindings against its scope. Required
// templates are recorded as completeness dependencies: resolution needs
// them analyzed, but reads their contents only through the scope node.
func (a *Analyzer) evalResolved(id claim.NodeID, ec *evalContext) (outcome, error) {
	path := a.key(id)

	irRes, err := ec.Pull(ec.CreateNode(KindTemplateIR, path), claim.EdgeData)
	if err != nil {
		return outcome{}, err
	}
	doc, ok := irRes.Value.(*template.Document)
	if !ok {
		doc = &template.Document{Path: path}
	}

	scopeRes, err := ec.Pull(ec.CreateNode(KindScope, path), claim.EdgeData)
	if err != nil {
		return outcome{}, err
	}
	scope, ok := scopeRes.Value.(*resource.Set)
	if !ok {
		scope = resource.NewSet()
	}

	resolved := binding.Resolve(doc, scope)

	if len(doc.Requires) > 0 {
		listRes, err := ec.Pull(ec.CreateNode(KindFileList, keyTemplates), claim.EdgeData)
		if err != nil {
			return outcome{}, err
		}
		known := make(map[string]struct{})
		if paths, ok := listRes.Value.([]string); ok {
			for _, p := range paths {
				known[p] = struct{}{}
			}
		}
		for _, req := range doc.Requires {
			if _, ok := known[req.Path]; !ok {
				resolved.Diagnostics = append(resolved.Diagnostics,
					diag.Errorf(path, req.From, "required template %q is not part of the project", req.Path))
				continue
			}
			if _, err := ec.Pull(ec.CreateNode(KindTemplateIR, req.Path), claim.EdgeCompleteness); err != nil {
				return outcome{}, err
			}
		}
	}

	return outcome{Green: resolved.Fingerprint(), Red: resolved}, nil
}

// fingerprintWithDiags folds diagnostics into a set fingerprint so that a
// diagnostic-only change still propagates.
func fingerprintWithDiags(set *resource.Set, diags []diag.Diagnostic) string {
	parts := []string{set.Fingerprint()}
	for _, d := range diags {
		parts = append(parts, d.String())
	}
	return digest.Parts(parts...)
}

// dynamicType returns the unconstrained bindable type for inline
// declarations, which carry no type information.
func dynamicType() cty.Type { return cty.DynamicPseudoType }
