package template

import (
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/vk/weft/internal/diag"
)

var interpolationPattern = regexp.MustCompile(`\$\{([^}]*)\}`)

// bindingCommands maps the attribute suffix to the binding mode.
var bindingCommands = map[string]BindingMode{
	"bind":     ModeDefault,
	"one-way":  ModeOneWay,
	"two-way":  ModeTwoWay,
	"one-time": ModeOneTime,
	"trigger":  ModeTrigger,
	"delegate": ModeDelegate,
}

// Parse lowers one template file into its IR. It never fails: malformed
// HTML is repaired by the parser and malformed expressions become
// diagnostics on the returned document.
func Parse(path string, src []byte) *Document {
	doc := &Document{Path: path}

	root, err := html.Parse(strings.NewReader(string(src)))
	if err != nil {
		// html.Parse only errors on reader failure; a string reader cannot.
		doc.Diagnostics = append(doc.Diagnostics, diag.Errorf(path, "", "unreadable template: %v", err))
		return doc
	}

	container := findElement(root, "template")
	if container == nil {
		// Templates written without an outer <template> land in <body>.
		container = findElement(root, "body")
	}
	if container == nil {
		container = root
	}
	doc.Root = lowerElement(doc, container)
	return doc
}

// findElement returns the first element with the given tag, depth-first.
func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findElement(child, tag); found != nil {
			return found
		}
	}
	return nil
}

// lowerElement converts one html.Node subtree into an IR element, peeling
// off requires and local element definitions along the way.
func lowerElement(doc *Document, n *html.Node) *Element {
	el := &Element{Tag: n.Data}

	for _, attr := range n.Attr {
		doc.lowerAttr(el, attr)
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		switch child.Type {
		case html.TextNode:
			doc.lowerText(el, child.Data)
		case html.ElementNode:
			switch {
			case child.Data == "require" || child.Data == "import":
				doc.lowerRequire(child)
			case child.Data == "template" && attrValue(child, "name") != "":
				doc.lowerLocalDef(child)
				el.Children = append(el.Children, lowerElement(doc, child))
			default:
				el.Children = append(el.Children, lowerElement(doc, child))
			}
		}
	}
	return el
}

// lowerAttr classifies one attribute as a binding, an interpolated plain
// attribute, or inert markup.
func (d *Document) lowerAttr(el *Element, attr html.Attribute) {
	if dot := strings.LastIndexByte(attr.Key, '.'); dot > 0 {
		target, command := attr.Key[:dot], attr.Key[dot+1:]
		mode, known := bindingCommands[command]
		if !known {
			d.Diagnostics = append(d.Diagnostics, diag.Warnf(d.Path, attr.Key, "unknown binding command %q", command))
			return
		}
		expr, ok := parseExpression(attr.Val, d.Path)
		if !ok {
			d.Diagnostics = append(d.Diagnostics, diag.Errorf(d.Path, attr.Key, "invalid binding expression %q", attr.Val))
		}
		el.Bindings = append(el.Bindings, Binding{Target: target, Mode: mode, Expr: expr})
		return
	}

	d.lowerInterpolations(el, attr.Key, attr.Val)
}

// lowerText extracts interpolations from a text node.
func (d *Document) lowerText(el *Element, text string) {
	d.lowerInterpolations(el, "", text)
}

func (d *Document) lowerInterpolations(el *Element, attrName, value string) {
	for _, match := range interpolationPattern.FindAllStringSubmatch(value, -1) {
		src := strings.TrimSpace(match[1])
		if src == "" {
			d.Diagnostics = append(d.Diagnostics, diag.Warnf(d.Path, attrName, "empty interpolation"))
			continue
		}
		expr, ok := parseExpression(src, d.Path)
		if !ok {
			d.Diagnostics = append(d.Diagnostics, diag.Errorf(d.Path, attrName, "invalid interpolation expression %q", src))
		}
		el.Interpolations = append(el.Interpolations, Interpolation{Attr: attrName, Expr: expr})
	}
}

// lowerRequire records a <require from="..."> / <import from="..."> edge.
func (d *Document) lowerRequire(n *html.Node) {
	from := attrValue(n, "from")
	if from == "" {
		d.Diagnostics = append(d.Diagnostics, diag.Errorf(d.Path, n.Data, "<%s> is missing its from attribute", n.Data))
		return
	}
	resolved := filepath.Clean(filepath.Join(filepath.Dir(d.Path), filepath.FromSlash(from)))
	if filepath.Ext(resolved) == "" {
		resolved += ".html"
	}
	d.Requires = append(d.Requires, Require{From: from, Path: resolved})
}

// lowerLocalDef records an inline custom element declared by a nested
// <template name="..." bindable="a, b"> block.
func (d *Document) lowerLocalDef(n *html.Node) {
	def := LocalDef{Name: attrValue(n, "name")}
	if raw := attrValue(n, "bindable"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				def.Bindables = append(def.Bindables, b)
			}
		}
	}
	d.LocalDefs = append(d.LocalDefs, def)
}

func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
