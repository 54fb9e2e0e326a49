package analyzer

import "github.com/vk/weft/internal/claim"

// Node kinds of the analysis graph. Keys are project-relative file paths
// unless noted otherwise.
const (
	// KindFile holds raw file contents. It is an input kind: no callback is
	// registered, values arrive through SetInputValue.
	KindFile claim.Kind = "file"
	// KindFileList holds the scanned file sets; keys are "templates" and
	// "manifests". Also an input kind.
	KindFileList claim.Kind = "file-list"
	// KindTemplateIR is the lowered form of one template file.
	KindTemplateIR claim.Kind = "template-ir"
	// KindManifest is the resource set declared by one *.weft.hcl file.
	KindManifest claim.Kind = "manifest"
	// KindLocalResources is the resource set declared inline by one
	// template file.
	KindLocalResources claim.Kind = "local-resources"
	// KindProjectResources is the merged manifest set, visible everywhere.
	KindProjectResources claim.Kind = "project-resources"
	// KindScope is the full resource set visible inside one template:
	// project resources, its own local definitions, and the exports of
	// every template it requires, transitively. Mutual requires make this
	// kind cyclic; the graph's convergence machinery computes the set
	// union fixed point.
	KindScope claim.Kind = "scope"
	// KindResolved is the binding resolution of one template against its
	// scope.
	KindResolved claim.Kind = "resolved"
)

const (
	keyTemplates = "templates"
	keyManifests = "manifests"
	keyProject   = ""
)
