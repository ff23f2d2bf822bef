package htmlutil

import (
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, contents string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(contents))
	require.NoError(t, err)
	return doc
}

func TestClean(t *testing.T) {
	require.Equal(t, "Linear Algebra I", Clean("  Linear\n\t  Algebra   I ​"))
	require.Equal(t, "", Clean(" \n\t"))
}

func TestOwnText(t *testing.T) {
	doc := parse(t, `<div id="t">
		<span class="badge">NEW</span>
		Course evaluation
		<span>extra</span>
	</div>`)
	require.Equal(t, "Course evaluation", OwnText(doc.Find("#t")))
}

func TestResolveHref(t *testing.T) {
	base, err := url.Parse("https://portal.example.ac.jp/lms/")
	require.NoError(t, err)

	doc := parse(t, `<ul>
		<li><a href=" task?classId=C1&reportId=R1 ">Report 1</a></li>
		<li><a href="https://other.example.com/x">External</a></li>
		<li><a>No href</a></li>
	</ul>`)
	anchors := doc.Find("a")

	link, ok := ResolveHref(base, anchors.Eq(0))
	require.True(t, ok)
	require.Equal(t, "https://portal.example.ac.jp/lms/task?classId=C1&reportId=R1", link.String())

	link, ok = ResolveHref(base, anchors.Eq(1))
	require.True(t, ok)
	require.Equal(t, "other.example.com", link.Host)

	_, ok = ResolveHref(base, anchors.Eq(2))
	require.False(t, ok)

	require.Equal(t, "R1", QueryParam(base, anchors.Eq(0), "reportId"))
	require.Equal(t, "", QueryParam(base, anchors.Eq(1), "reportId"))
	require.Equal(t, "", QueryParam(base, anchors.Eq(2), "reportId"))
}
