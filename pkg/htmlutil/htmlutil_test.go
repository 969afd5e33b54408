package htmlutil

import (
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestNormalizeText(t *testing.T) {
	table := []struct {
		input    string
		expected string
	}{
		{input: "  CMPUT 174 -\n\t Introduction ", expected: "CMPUT 174 - Introduction"},
		{input: "", expected: ""},
		{input: " a  b", expected: "a b"},
		{input: "one", expected: "one"},
	}

	for _, row := range table {
		require.Equal(t, row.expected, NormalizeText(row.input))
	}
}

func TestGetAnchors(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`
		<ul>
			<li><a href="/catalogue/faculty/sc">SC - <b>Faculty of Science</b></a></li>
			<li><a>no href</a></li>
			<li><a href="https://other.example/x"> Other </a></li>
		</ul>
	`))
	require.NoError(t, err)

	base, err := url.Parse("https://apps.ualberta.ca/catalogue")
	require.NoError(t, err)

	anchors := GetAnchors(base, doc.Find("a"))
	require.Len(t, anchors, 2)
	require.Equal(t, "SC - Faculty of Science", anchors[0].Name)
	require.Equal(t, "https://apps.ualberta.ca/catalogue/faculty/sc", anchors[0].Url.String())
	require.Equal(t, "Other", anchors[1].Name)
	require.Equal(t, "https://other.example/x", anchors[1].Url.String())

	_, ok := GetAnchor(base, doc.Find("table"))
	require.False(t, ok)
}
