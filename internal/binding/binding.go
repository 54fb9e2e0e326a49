// Package binding resolves a lowered template against the resource set in
// scope: matching elements to custom element definitions, bound attributes
// to bindable properties, converter pipes to value converters, and type
// checking literal expressions against declared bindable types.
package binding

import (
	"fmt"
	"sort"

	"github.com/zclconf/go-cty/cty/convert"

	"github.com/vk/weft/internal/diag"
	"github.com/vk/weft/internal/digest"
	"github.com/vk/weft/internal/resource"
	"github.com/vk/weft/internal/template"
)

// Target is what a binding resolved to.
type Target string

const (
	// TargetBindable means the binding writes a bindable property of a
	// matched custom element or custom attribute.
	TargetBindable Target = "bindable"
	// TargetEvent means the binding attaches an event listener.
	TargetEvent Target = "event"
	// TargetDOM means the binding falls through to a plain DOM property.
	TargetDOM Target = "dom"
)

// BoundAttribute is the resolution of one binding.
type BoundAttribute struct {
	Element string
	Attr    string
	Target  Target
	// Resource is the matched definition's name, empty for TargetDOM and
	// TargetEvent.
	Resource string
}

// ElementMatch records one element that resolved to a custom element.
type ElementMatch struct {
	Tag    string
	Source string
}

// Resolved is the result of resolving one template.
type Resolved struct {
	Path        string
	Matches     []ElementMatch
	Bindings    []BoundAttribute
	Diagnostics []diag.Diagnostic
}

// Fingerprint digests everything downstream consumers can observe, for use
// as the resolved node's green value.
func (r *Resolved) Fingerprint() string {
	parts := []string{r.Path}
	for _, m := range r.Matches {
		parts = append(parts, "match:"+m.Tag+"@"+m.Source)
	}
	for _, b := range r.Bindings {
		parts = append(parts, fmt.Sprintf("bound:%s.%s→%s/%s", b.Element, b.Attr, b.Target, b.Resource))
	}
	diags := make([]string, 0, len(r.Diagnostics))
	for _, d := range r.Diagnostics {
		diags = append(diags, d.String())
	}
	sort.Strings(diags)
	parts = append(parts, diags...)
	return digest.Parts(parts...)
}

// Resolve matches doc against the resources visible in scope. It is total:
// every problem becomes a diagnostic on the result.
func Resolve(doc *template.Document, scope *resource.Set) *Resolved {
	res := &Resolved{Path: doc.Path}
	// Lowering diagnostics ride along so a consumer of the resolution sees
	// the full picture for the file.
	res.Diagnostics = append(res.Diagnostics, doc.Diagnostics...)

	for _, el := range doc.Elements() {
		def, matched := scope.Lookup(resource.KindElement, el.Tag)
		if matched {
			res.Matches = append(res.Matches, ElementMatch{Tag: el.Tag, Source: def.Source})
		}

		for _, b := range el.Bindings {
			res.resolveBinding(doc.Path, el.Tag, b, def, matched, scope)
		}
		for _, ip := range el.Interpolations {
			res.checkConverters(doc.Path, el.Tag, ip.Expr, scope)
		}
	}
	return res
}

func (r *Resolved) resolveBinding(path, tag string, b template.Binding, def resource.Definition, matched bool, scope *resource.Set) {
	r.checkConverters(path, tag, b.Expr, scope)
	subject := tag + "/" + b.Target

	if b.Mode == template.ModeTrigger || b.Mode == template.ModeDelegate {
		r.Bindings = append(r.Bindings, BoundAttribute{Element: tag, Attr: b.Target, Target: TargetEvent})
		return
	}

	if matched {
		if bindable, ok := def.Bindable(b.Target); ok {
			r.Bindings = append(r.Bindings, BoundAttribute{Element: tag, Attr: b.Target, Target: TargetBindable, Resource: def.Name})
			r.checkLiteralType(path, subject, b.Expr, bindable)
			return
		}
	}

	// A custom attribute can claim the binding on any element.
	if attrDef, ok := scope.Lookup(resource.KindAttribute, b.Target); ok {
		r.Bindings = append(r.Bindings, BoundAttribute{Element: tag, Attr: b.Target, Target: TargetBindable, Resource: attrDef.Name})
		// Single-bindable attributes type check against their only
		// property; multi-bindable forms take an object and stay unchecked.
		if len(attrDef.Bindables) == 1 {
			r.checkLiteralType(path, subject, b.Expr, attrDef.Bindables[0])
		}
		return
	}

	if matched {
		r.Diagnostics = append(r.Diagnostics, diag.Errorf(path, subject, "element %q has no bindable property %q", tag, b.Target))
		return
	}

	r.Bindings = append(r.Bindings, BoundAttribute{Element: tag, Attr: b.Target, Target: TargetDOM})
}

// checkLiteralType constant-evaluates literal expressions and verifies the
// value converts to the bindable's declared type. Expressions that read
// view-model state are left unchecked: reflection over view models is
// outside the analyzer's scope.
func (r *Resolved) checkLiteralType(path, subject string, expr template.Expression, bindable resource.Bindable) {
	if expr.Expr == nil || len(expr.Refs) > 0 {
		return
	}
	val, diags := expr.Expr.Value(nil)
	if diags.HasErrors() {
		return
	}
	if _, err := convert.Convert(val, bindable.Type); err != nil {
		r.Diagnostics = append(r.Diagnostics, diag.Errorf(path, subject,
			"cannot bind %s to %q (%s): %v", val.Type().FriendlyName(), bindable.Name, bindable.Type.FriendlyName(), err))
	}
}

// checkConverters verifies every pipe in the expression names a known value
// converter.
func (r *Resolved) checkConverters(path, tag string, expr template.Expression, scope *resource.Set) {
	for _, name := range expr.Converters {
		if _, ok := scope.Lookup(resource.KindValueConverter, name); !ok {
			r.Diagnostics = append(r.Diagnostics, diag.Errorf(path, tag, "unknown value converter %q", name))
		}
	}
}
