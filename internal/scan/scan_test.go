package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWikiEmbeds(t *testing.T) {
	text := "intro ![[Pasted image 20251215111931.png]] middle ![[photo.jpg|800]] end ![[doc.png#section|alias]]"
	refs := WikiEmbeds(text)
	require.Len(t, refs, 3)

	assert.Equal(t, "Pasted image 20251215111931.png", refs[0].Target)
	assert.Equal(t, "![[Pasted image 20251215111931.png]]", text[refs[0].Start:refs[0].End])

	assert.Equal(t, "photo.jpg", refs[1].Target, "alias suffix stripped")
	assert.Equal(t, "doc.png", refs[2].Target, "anchor and alias stripped")
}

func TestWikiEmbedsNoMatches(t *testing.T) {
	assert.Empty(t, WikiEmbeds("plain text [[not an embed]] ![not](this one is inline)"))
}

func TestInlineImages(t *testing.T) {
	text := "a ![alt text](img/photo one.png) b ![](bare.gif#top) c"
	refs := InlineImages(text)
	require.Len(t, refs, 2)

	assert.Equal(t, "img/photo one.png", refs[0].Target)
	assert.Equal(t, "![alt text](img/photo one.png)", text[refs[0].Start:refs[0].End])
	assert.Equal(t, "bare.gif", refs[1].Target, "anchor stripped")
}

func TestApply(t *testing.T) {
	text := "x ![[a.png]] y ![[b.png]] z"
	refs := WikiEmbeds(text)
	require.Len(t, refs, 2)

	got := Apply(text, []Edit{
		// Deliberately out of order; Apply sorts by span.
		{Start: refs[1].Start, End: refs[1].End, Replacement: ImageLink("https://cdn/b")},
		{Start: refs[0].Start, End: refs[0].End, Replacement: ImageLink("https://cdn/a")},
	})
	assert.Equal(t, "x ![](https://cdn/a) y ![](https://cdn/b) z", got)
}

func TestApplyNoEdits(t *testing.T) {
	assert.Equal(t, "unchanged", Apply("unchanged", nil))
}

func TestNamePatterns(t *testing.T) {
	wiki, inline := NamePatterns("800x800 3.jpg")

	assert.True(t, wiki.MatchString("![[800x800 3.jpg]]"))
	assert.True(t, wiki.MatchString("![[800x800 3.jpg|alias]]"))
	assert.False(t, wiki.MatchString("![[other.jpg]]"))

	assert.True(t, inline.MatchString("![alt](800x800 3.jpg)"))
	assert.True(t, inline.MatchString("![](img/800x800 3.jpg)"))
	assert.False(t, inline.MatchString("![alt](other.jpg)"))
}

func TestNamePatternsEscapesMetaCharacters(t *testing.T) {
	wiki, _ := NamePatterns("a+b (1).png")
	assert.True(t, wiki.MatchString("![[a+b (1).png]]"))
	assert.False(t, wiki.MatchString("![[aab (1).png]]"))
}

func TestImageLink(t *testing.T) {
	assert.Equal(t, "![](https://cdn.example.com/x.png)", ImageLink("https://cdn.example.com/x.png"))
}

func TestRewrittenTextHasNoRemainingReferences(t *testing.T) {
	text := "![[a.png]] and ![old alt](a.png)"
	for _, pass := range [][]Reference{WikiEmbeds(text)} {
		var edits []Edit
		for _, ref := range pass {
			edits = append(edits, Edit{Start: ref.Start, End: ref.End, Replacement: ImageLink("https://cdn/a.png")})
		}
		text = Apply(text, edits)
	}
	assert.Empty(t, WikiEmbeds(text))
}
