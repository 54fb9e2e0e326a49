package template

import (
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
)

// parseExpression lowers one expression source string, splitting off value
// converter pipes first. An unparseable head yields an Expression with a
// nil Expr and ok false; the caller records the diagnostic.
func parseExpression(src, filename string) (Expression, bool) {
	head, converters := splitPipes(src)
	out := Expression{Src: head, Converters: converters}

	expr, diags := hclsyntax.ParseExpression([]byte(head), filename, hcl.InitialPos)
	if diags.HasErrors() {
		return out, false
	}
	out.Expr = expr
	out.Refs = rootRefs(expr)
	return out, true
}

// splitPipes separates "expr | conv1 | conv2" into the head expression and
// the converter chain. Pipes inside quotes are left alone.
func splitPipes(src string) (string, []string) {
	segments := splitTopLevel(src, '|')
	head := strings.TrimSpace(segments[0])
	var converters []string
	for _, seg := range segments[1:] {
		name := strings.TrimSpace(seg)
		if name != "" {
			converters = append(converters, name)
		}
	}
	return head, converters
}

// splitTopLevel splits on sep outside of single/double quotes. A "||"
// operator is not a pipe and keeps its segment intact.
func splitTopLevel(src string, sep byte) []string {
	var segments []string
	var quote byte
	start := 0
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == sep:
			if i+1 < len(src) && src[i+1] == sep {
				i++ // logical-or, not a pipe
				continue
			}
			segments = append(segments, src[start:i])
			start = i + 1
		}
	}
	segments = append(segments, src[start:])
	return segments
}

// rootRefs collects the sorted, de-duplicated root identifiers an
// expression reads.
func rootRefs(expr hcl.Expression) []string {
	seen := make(map[string]struct{})
	for _, traversal := range expr.Variables() {
		seen[traversal.RootName()] = struct{}{}
	}
	refs := make([]string, 0, len(seen))
	for name := range seen {
		refs = append(refs, name)
	}
	sort.Strings(refs)
	return refs
}
