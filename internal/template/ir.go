// Package template lowers HTML component templates into the intermediate
// representation consumed by binding resolution. Lowering is total: syntax
// problems become diagnostics on the document, never errors.
package template

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"

	"github.com/vk/weft/internal/diag"
	"github.com/vk/weft/internal/digest"
)

// BindingMode is how a bound attribute synchronizes with its source.
type BindingMode string

const (
	ModeOneTime  BindingMode = "one-time"
	ModeOneWay   BindingMode = "one-way"
	ModeTwoWay   BindingMode = "two-way"
	ModeDefault  BindingMode = "bind"
	ModeTrigger  BindingMode = "trigger"
	ModeDelegate BindingMode = "delegate"
)

// Expression is a parsed binding or interpolation expression.
type Expression struct {
	// Src is the raw expression text, pipes stripped.
	Src string
	// Expr is the parsed form; nil when parsing failed (a diagnostic is
	// recorded on the document instead).
	Expr hcl.Expression
	// Refs are the root identifiers the expression reads, sorted.
	Refs []string
	// Converters are the value-converter names applied via pipes, in
	// application order.
	Converters []string
}

// Binding is one bound attribute on an element, e.g. value.bind="firstName".
type Binding struct {
	// Target is the attribute or event name left of the command.
	Target string
	// Mode is the binding command right of the dot.
	Mode BindingMode
	Expr Expression
}

// Interpolation is one ${...} occurrence in text content or a plain
// attribute value.
type Interpolation struct {
	// Attr is the attribute carrying the interpolation, or "" for text.
	Attr string
	Expr Expression
}

// Element is one lowered element with its bindings.
type Element struct {
	Tag            string
	Bindings       []Binding
	Interpolations []Interpolation
	Children       []*Element
}

// Require records a cross-template dependency introduced by
// <require from="..."> or <import from="...">.
type Require struct {
	// From is the raw attribute value.
	From string
	// Path is From resolved against the requiring file's directory.
	Path string
}

// LocalDef is an inline custom element declared by a nested
// <template name="..." bindable="a, b"> block.
type LocalDef struct {
	Name      string
	Bindables []string
}

// Document is the lowered form of one template file.
type Document struct {
	Path        string
	Root        *Element
	Requires    []Require
	LocalDefs   []LocalDef
	Diagnostics []diag.Diagnostic
}

// Bindings returns every binding in the document, depth-first.
func (d *Document) Bindings() []Binding {
	var out []Binding
	walkElements(d.Root, func(el *Element) {
		out = append(out, el.Bindings...)
	})
	return out
}

// Elements returns every element in the document, depth-first.
func (d *Document) Elements() []*Element {
	var out []*Element
	walkElements(d.Root, func(el *Element) { out = append(out, el) })
	return out
}

func walkElements(el *Element, fn func(*Element)) {
	if el == nil {
		return
	}
	fn(el)
	for _, child := range el.Children {
		walkElements(child, fn)
	}
}

// Fingerprint returns a stable digest of everything downstream analysis can
// observe about the document. Two lowerings with the same fingerprint are
// interchangeable, which makes this the document's green value.
func (d *Document) Fingerprint() string {
	var parts []string
	parts = append(parts, d.Path)
	for _, r := range d.Requires {
		parts = append(parts, "require:"+r.Path)
	}
	for _, l := range d.LocalDefs {
		parts = append(parts, "local:"+l.Name+":"+strings.Join(l.Bindables, ","))
	}
	walkElements(d.Root, func(el *Element) {
		parts = append(parts, "el:"+el.Tag)
		for _, b := range el.Bindings {
			parts = append(parts, fmt.Sprintf("bind:%s.%s=%s|%s", b.Target, b.Mode, b.Expr.Src, strings.Join(b.Expr.Converters, "|")))
		}
		for _, ip := range el.Interpolations {
			parts = append(parts, fmt.Sprintf("interp:%s=%s|%s", ip.Attr, ip.Expr.Src, strings.Join(ip.Expr.Converters, "|")))
		}
	})
	diags := make([]string, 0, len(d.Diagnostics))
	for _, dg := range d.Diagnostics {
		diags = append(diags, dg.String())
	}
	sort.Strings(diags)
	parts = append(parts, diags...)
	return digest.Parts(parts...)
}
