package resource

import (
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/weft/internal/diag"
)

// manifestFile is the gohcl schema for *.weft.hcl resource manifests.
type manifestFile struct {
	Elements         []manifestResource `hcl:"element,block"`
	Attributes       []manifestResource `hcl:"attribute,block"`
	ValueConverters  []manifestSimple   `hcl:"value_converter,block"`
	BindingBehaviors []manifestSimple   `hcl:"binding_behavior,block"`
}

type manifestResource struct {
	Name      string             `hcl:"name,label"`
	Bindables []manifestBindable `hcl:"bindable,block"`
}

type manifestBindable struct {
	Name string  `hcl:"name,label"`
	Type *string `hcl:"type,optional"`
}

type manifestSimple struct {
	Name string `hcl:"name,label"`
}

// bindableTypes is the manifest type vocabulary.
var bindableTypes = map[string]cty.Type{
	"string": cty.String,
	"number": cty.Number,
	"bool":   cty.Bool,
	"any":    cty.DynamicPseudoType,
}

// ParseManifest decodes one resource manifest. Parsing is total: HCL errors
// and unknown types become diagnostics and the valid remainder is returned.
func ParseManifest(path string, src []byte) (*Set, []diag.Diagnostic) {
	set := NewSet()
	var diags []diag.Diagnostic

	file, hclDiags := hclparse.NewParser().ParseHCL(src, path)
	if hclDiags.HasErrors() {
		for _, d := range hclDiags.Errs() {
			diags = append(diags, diag.Errorf(path, "", "manifest: %v", d))
		}
		return set, diags
	}

	var mf manifestFile
	if decodeDiags := gohcl.DecodeBody(file.Body, nil, &mf); decodeDiags.HasErrors() {
		for _, d := range decodeDiags.Errs() {
			diags = append(diags, diag.Errorf(path, "", "manifest: %v", d))
		}
		return set, diags
	}

	addResource := func(kind Kind, res manifestResource) {
		def := Definition{
			Kind:   kind,
			Name:   Kebab(res.Name),
			Origin: OriginManifest,
			Source: path,
		}
		for _, b := range res.Bindables {
			bt := cty.DynamicPseudoType
			if b.Type != nil {
				known, ok := bindableTypes[*b.Type]
				if !ok {
					diags = append(diags, diag.Errorf(path, res.Name+"."+b.Name, "unknown bindable type %q", *b.Type))
				} else {
					bt = known
				}
			}
			def.Bindables = append(def.Bindables, Bindable{Name: b.Name, Type: bt})
		}
		set.Add(def)
	}

	for _, el := range mf.Elements {
		addResource(KindElement, el)
	}
	for _, at := range mf.Attributes {
		addResource(KindAttribute, at)
	}
	for _, vc := range mf.ValueConverters {
		set.Add(Definition{Kind: KindValueConverter, Name: Kebab(vc.Name), Origin: OriginManifest, Source: path})
	}
	for _, bb := range mf.BindingBehaviors {
		set.Add(Definition{Kind: KindBindingBehavior, Name: Kebab(bb.Name), Origin: OriginManifest, Source: path})
	}

	return set, diags
}
