package binding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/weft/internal/resource"
	"github.com/vk/weft/internal/template"
)

func testScope() *resource.Set {
	s := resource.NewSet()
	s.Add(resource.Definition{
		Kind:   resource.KindElement,
		Name:   "user-avatar",
		Source: "resources.weft.hcl",
		Bindables: []resource.Bindable{
			{Name: "source", Type: cty.String},
			{Name: "size", Type: cty.Number},
		},
	})
	s.Add(resource.Definition{
		Kind:   resource.KindAttribute,
		Name:   "tooltip",
		Source: "resources.weft.hcl",
		Bindables: []resource.Bindable{
			{Name: "text", Type: cty.String},
		},
	})
	s.Add(resource.Definition{Kind: resource.KindValueConverter, Name: "upper"})
	return s
}

func resolve(t *testing.T, src string) *Resolved {
	t.Helper()
	doc := template.Parse("src/page.html", []byte(src))
	return Resolve(doc, testScope())
}

func TestResolveMatchesCustomElement(t *testing.T) {
	res := resolve(t, `<template><user-avatar source.bind="user.url" size.bind="48"></user-avatar></template>`)
	require.Empty(t, res.Diagnostics)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, "user-avatar", res.Matches[0].Tag)

	require.Len(t, res.Bindings, 2)
	for _, b := range res.Bindings {
		assert.Equal(t, TargetBindable, b.Target)
		assert.Equal(t, "user-avatar", b.Resource)
	}
}

func TestResolveUnknownBindable(t *testing.T) {
	res := resolve(t, `<template><user-avatar shape.bind="x"></user-avatar></template>`)
	require.Len(t, res.Diagnostics, 1)
	assert.Contains(t, res.Diagnostics[0].Summary, `no bindable property "shape"`)
}

func TestResolvePlainElementBindingsAreDOM(t *testing.T) {
	res := resolve(t, `<template><input value.two-way="user.name"></template>`)
	require.Empty(t, res.Diagnostics)
	require.Len(t, res.Bindings, 1)
	assert.Equal(t, TargetDOM, res.Bindings[0].Target)
}

func TestResolveCustomAttribute(t *testing.T) {
	res := resolve(t, `<template><div tooltip.bind='"Saved!"'></div></template>`)
	require.Empty(t, res.Diagnostics)
	require.Len(t, res.Bindings, 1)
	assert.Equal(t, TargetBindable, res.Bindings[0].Target)
	assert.Equal(t, "tooltip", res.Bindings[0].Resource)
}

func TestResolveEvents(t *testing.T) {
	res := resolve(t, `<template><button click.trigger="save()">Go</button></template>`)
	require.Empty(t, res.Diagnostics)
	require.Len(t, res.Bindings, 1)
	assert.Equal(t, TargetEvent, res.Bindings[0].Target)
}

func TestLiteralTypeChecking(t *testing.T) {
	t.Run("convertible literal passes", func(t *testing.T) {
		// HCL numbers convert to string bindables.
		res := resolve(t, `<template><user-avatar source.bind="42"></user-avatar></template>`)
		assert.Empty(t, res.Diagnostics)
	})

	t.Run("inconvertible literal fails", func(t *testing.T) {
		res := resolve(t, `<template><user-avatar size.bind='"large"'></user-avatar></template>`)
		require.Len(t, res.Diagnostics, 1)
		assert.Contains(t, res.Diagnostics[0].Summary, "cannot bind")
	})

	t.Run("view-model expressions are unchecked", func(t *testing.T) {
		res := resolve(t, `<template><user-avatar size.bind="user.size"></user-avatar></template>`)
		assert.Empty(t, res.Diagnostics)
	})
}

func TestConverterResolution(t *testing.T) {
	res := resolve(t, `<template><span>${user.name | upper}</span></template>`)
	assert.Empty(t, res.Diagnostics)

	res = resolve(t, `<template><span>${user.name | shout}</span></template>`)
	require.Len(t, res.Diagnostics, 1)
	assert.Contains(t, res.Diagnostics[0].Summary, `unknown value converter "shout"`)
}

func TestResolvedFingerprint(t *testing.T) {
	a := resolve(t, `<template><user-avatar source.bind="u.a"></user-avatar></template>`)
	b := resolve(t, `<template><user-avatar source.bind="u.a"></user-avatar></template>`)
	c := resolve(t, `<template><user-avatar source.bind="u.b"></user-avatar></template>`)

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	// The bound attribute set is identical; the fingerprint still reflects
	// the document it came from only through observable resolution facts.
	assert.Equal(t, c.Fingerprint(), a.Fingerprint())
}
