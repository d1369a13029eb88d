package grain

import (
	"strings"

	"github.com/rivo/uniseg"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Composite is the value a mixin stores under its target: one entry per
// source module, keyed by [Proper] of the source's name.
type Composite map[string]any

// Proper converts a slash-separated module name into the property name used
// for it within a [Composite]. Segments after the first have their leading
// character upper-cased, then all segments are concatenated, so "my/button"
// becomes "myButton".
func Proper(source string) string {
	segments := strings.Split(source, "/")
	if len(segments) == 1 {
		return source
	}
	// casers are stateful, one per call
	upper := cases.Upper(language.Und)
	var b strings.Builder
	b.Grow(len(source))
	b.WriteString(segments[0])
	for _, segment := range segments[1:] {
		if segment == "" {
			continue
		}
		first, rest, _, _ := uniseg.FirstGraphemeClusterInString(segment, -1)
		b.WriteString(upper.String(first))
		b.WriteString(rest)
	}
	return b.String()
}
