package htmlutil

import (
	"context"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	require.Equal(t, "AP Physics 1 B204", CleanText("\n\t AP Physics\u0000 1\n   B204  "))
}

func TestGetAnchors(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`
		<div>
			<a href="/guardian/scores.html?frn=100">Physics<br>B204</a>
			<a href="%zz">broken</a>
			<a>no link</a>
		</div>`))
	require.NoError(t, err)

	anchors := GetAnchors(context.Background(), doc.Find("a"))
	require.Equal(t, []Anchor{
		{Name: "Physics B204", Href: "/guardian/scores.html?frn=100"},
		{Name: "no link", Href: ""},
	}, anchors)
}
