package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestKebab(t *testing.T) {
	assert.Equal(t, "user-card", Kebab("UserCard"))
	assert.Equal(t, "user-card", Kebab("userCard"))
	assert.Equal(t, "user-card", Kebab("user-card"))
	assert.Equal(t, "user-card", Kebab("user_card"))
	assert.Equal(t, "x", Kebab("X"))
}

func TestSetShadowing(t *testing.T) {
	s := NewSet()
	s.Add(Definition{Kind: KindElement, Name: "user-card", Source: "manifest.weft.hcl", Origin: OriginManifest})
	s.Add(Definition{Kind: KindElement, Name: "user-card", Source: "inline.html", Origin: OriginLocal})
	s.Add(Definition{Kind: KindValueConverter, Name: "user-card"})

	assert.Equal(t, 2, s.Len(), "same name under a different kind is distinct")

	def, ok := s.Lookup(KindElement, "user-card")
	require.True(t, ok)
	assert.Equal(t, OriginLocal, def.Origin, "later insertion shadows")
}

func TestSetMergeAndFingerprint(t *testing.T) {
	a := NewSet()
	a.Add(Definition{Kind: KindElement, Name: "b-el"})
	a.Add(Definition{Kind: KindElement, Name: "a-el"})

	b := NewSet()
	b.Add(Definition{Kind: KindElement, Name: "a-el"})
	b.Add(Definition{Kind: KindElement, Name: "b-el"})

	// Fingerprints are order-insensitive.
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	b.Add(Definition{Kind: KindAttribute, Name: "tooltip"})
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())

	a.Merge(b)
	assert.Equal(t, 3, a.Len())
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
}

func TestParseManifest(t *testing.T) {
	src := `
element "UserAvatar" {
  bindable "source" { type = "string" }
  bindable "size"   { type = "number" }
  bindable "meta"   {}
}

attribute "tooltip" {
  bindable "text" { type = "string" }
}

value_converter "currency" {}
binding_behavior "throttle" {}
`
	set, diags := ParseManifest("resources.weft.hcl", []byte(src))
	require.Empty(t, diags)
	assert.Equal(t, 4, set.Len())

	el, ok := set.Lookup(KindElement, "user-avatar")
	require.True(t, ok, "manifest names are normalized to kebab case")
	require.Len(t, el.Bindables, 3)

	source, ok := el.Bindable("source")
	require.True(t, ok)
	assert.Equal(t, cty.String, source.Type)

	meta, ok := el.Bindable("meta")
	require.True(t, ok)
	assert.Equal(t, cty.DynamicPseudoType, meta.Type, "untyped bindable is unconstrained")

	_, ok = set.Lookup(KindValueConverter, "currency")
	assert.True(t, ok)
}

func TestParseManifestDiagnostics(t *testing.T) {
	t.Run("unknown type", func(t *testing.T) {
		set, diags := ParseManifest("m.weft.hcl", []byte(`
element "badge" {
  bindable "tone" { type = "color" }
}
`))
		require.Len(t, diags, 1)
		assert.Contains(t, diags[0].Summary, "unknown bindable type")

		// The definition is still usable, with the bindable unconstrained.
		el, ok := set.Lookup(KindElement, "badge")
		require.True(t, ok)
		tone, ok := el.Bindable("tone")
		require.True(t, ok)
		assert.Equal(t, cty.DynamicPseudoType, tone.Type)
	})

	t.Run("syntax error is total", func(t *testing.T) {
		set, diags := ParseManifest("m.weft.hcl", []byte(`element "x" {`))
		assert.NotEmpty(t, diags)
		assert.Equal(t, 0, set.Len())
	})
}
