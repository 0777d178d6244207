// Package scan locates media references in markdown text. Three passes exist:
// wiki embeds, inline image links, and an escaped-name fallback for content
// pasted as a bare file name. Scanning never mutates the text; matches carry
// spans so rewrites apply in a single pass afterwards.
package scan

import (
	"regexp"
	"sort"
	"strings"
)

var (
	wikiEmbedRE   = regexp.MustCompile(`!\[\[([^\]]+)\]\]`)
	inlineImageRE = regexp.MustCompile(`!\[[^\]]*\]\(([^)]+)\)`)
)

// Reference is one located media mention: the span of the full matched syntax
// and the resolution target with alias and anchor suffixes already stripped.
type Reference struct {
	Start  int
	End    int
	Target string
}

// WikiEmbeds finds ![[target]] references. The target may carry a |alias
// and/or #anchor suffix; both are stripped.
func WikiEmbeds(text string) []Reference {
	var refs []Reference
	for _, m := range wikiEmbedRE.FindAllStringSubmatchIndex(text, -1) {
		raw := text[m[2]:m[3]]
		target, _, _ := strings.Cut(raw, "|")
		target, _, _ = strings.Cut(target, "#")
		refs = append(refs, Reference{
			Start:  m[0],
			End:    m[1],
			Target: strings.TrimSpace(target),
		})
	}
	return refs
}

// InlineImages finds ![alt](target) references. Alt text is discarded; a
// trailing #anchor is stripped from the target.
func InlineImages(text string) []Reference {
	var refs []Reference
	for _, m := range inlineImageRE.FindAllStringSubmatchIndex(text, -1) {
		raw := strings.TrimSpace(text[m[2]:m[3]])
		target, _, _ := strings.Cut(raw, "#")
		refs = append(refs, Reference{
			Start:  m[0],
			End:    m[1],
			Target: strings.TrimSpace(target),
		})
	}
	return refs
}

// NamePatterns builds the fallback-pass patterns for one exact file name:
// a wiki embed of that name (optionally aliased) and an inline image link
// whose target contains it.
func NamePatterns(fileName string) (wiki, inline *regexp.Regexp) {
	esc := regexp.QuoteMeta(fileName)
	wiki = regexp.MustCompile(`!\[\[` + esc + `(?:\|[^\]]*)?\]\]`)
	inline = regexp.MustCompile(`!\[[^\]]*\]\([^)]*` + esc + `[^)]*\)`)
	return wiki, inline
}

// ImageLink renders the replacement for a successful upload. Alt text is
// never preserved.
func ImageLink(url string) string {
	return "![](" + url + ")"
}

// Edit replaces text[Start:End] with Replacement.
type Edit struct {
	Start       int
	End         int
	Replacement string
}

// Apply performs all edits against the text they were scanned from in one
// pass. Spans must not overlap; they come from non-overlapping regexp matches
// of the same input.
func Apply(text string, edits []Edit) string {
	if len(edits) == 0 {
		return text
	}
	sorted := make([]Edit, len(edits))
	copy(sorted, edits)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })
	var b strings.Builder
	pos := 0
	for _, e := range sorted {
		b.WriteString(text[pos:e.Start])
		b.WriteString(e.Replacement)
		pos = e.End
	}
	b.WriteString(text[pos:])
	return b.String()
}
