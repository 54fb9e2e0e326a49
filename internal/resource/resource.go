// Package resource models the framework resources the analyzer discovers:
// custom elements, custom attributes, value converters, and binding
// behaviors, wherever they are declared.
package resource

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/weft/internal/digest"
)

// Kind classifies a framework resource.
type Kind string

const (
	KindElement         Kind = "element"
	KindAttribute       Kind = "attribute"
	KindValueConverter  Kind = "value-converter"
	KindBindingBehavior Kind = "binding-behavior"
)

// Origin records where a definition came from.
type Origin string

const (
	// OriginManifest means the definition was declared in a *.weft.hcl
	// manifest.
	OriginManifest Origin = "manifest"
	// OriginLocal means the definition is an inline template declaration
	// visible only where its file is required.
	OriginLocal Origin = "local"
)

// Bindable is one bindable property of an element or attribute.
type Bindable struct {
	Name string
	// Type is the declared value type, used for literal type checking.
	// cty.DynamicPseudoType means unconstrained.
	Type cty.Type
}

// Definition is one discovered resource.
type Definition struct {
	Kind      Kind
	Name      string
	Bindables []Bindable
	Origin    Origin
	// Source is the file the definition was found in.
	Source string
}

// Bindable looks up a bindable property by name.
func (d Definition) Bindable(name string) (Bindable, bool) {
	for _, b := range d.Bindables {
		if b.Name == name {
			return b, true
		}
	}
	return Bindable{}, false
}

// key is the identity under which definitions shadow each other.
type key struct {
	kind Kind
	name string
}

// Set is an ordered collection of definitions keyed by (kind, name). Later
// insertions shadow earlier ones, which is how local definitions override
// project-wide manifests.
type Set struct {
	order []key
	byKey map[key]Definition
}

// NewSet creates an empty set.
func NewSet() *Set {
	return &Set{byKey: make(map[key]Definition)}
}

// Add inserts or shadows a definition.
func (s *Set) Add(def Definition) {
	k := key{kind: def.Kind, name: def.Name}
	if _, exists := s.byKey[k]; !exists {
		s.order = append(s.order, k)
	}
	s.byKey[k] = def
}

// Merge inserts every definition of other, shadowing on collision.
func (s *Set) Merge(other *Set) {
	if other == nil {
		return
	}
	for _, k := range other.order {
		s.Add(other.byKey[k])
	}
}

// Lookup finds a definition by kind and name.
func (s *Set) Lookup(kind Kind, name string) (Definition, bool) {
	def, ok := s.byKey[key{kind: kind, name: name}]
	return def, ok
}

// Len returns the number of definitions.
func (s *Set) Len() int { return len(s.order) }

// All returns the definitions sorted by kind then name, for deterministic
// reporting.
func (s *Set) All() []Definition {
	defs := make([]Definition, 0, len(s.order))
	for _, k := range s.order {
		defs = append(defs, s.byKey[k])
	}
	sort.Slice(defs, func(i, j int) bool {
		if defs[i].Kind != defs[j].Kind {
			return defs[i].Kind < defs[j].Kind
		}
		return defs[i].Name < defs[j].Name
	})
	return defs
}

// Fingerprint returns a stable digest of the set's observable contents,
// suitable as a green value.
func (s *Set) Fingerprint() string {
	defs := s.All()
	parts := make([]string, 0, len(defs))
	for _, d := range defs {
		bindables := make([]string, 0, len(d.Bindables))
		for _, b := range d.Bindables {
			bindables = append(bindables, b.Name+":"+b.Type.FriendlyName())
		}
		parts = append(parts, fmt.Sprintf("%s/%s[%s]", d.Kind, d.Name, strings.Join(bindables, ",")))
	}
	return digest.Parts(parts...)
}

// Kebab normalizes a resource name to its kebab-case canonical form, the
// convention under which templates reference resources. "UserCard" and
// "userCard" both become "user-card"; names already in kebab case pass
// through unchanged.
func Kebab(name string) string {
	var sb strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				sb.WriteByte('-')
			}
			sb.WriteRune(r - 'A' + 'a')
			continue
		}
		if r == '_' || r == ' ' {
			sb.WriteByte('-')
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
