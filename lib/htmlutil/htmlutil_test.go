package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

const page = `<html>
<head>
<meta name="csrf-param" content="authenticity_token" />
<meta name="csrf-token" content="secret==" />
</head>
<body>
<table><tr><td>  Chain
	KMC   X11 </td></tr></table>
</body>
</html>`

func TestMetaContent(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	require.NoError(t, err)

	require.Equal(t, "authenticity_token", MetaContent(doc, "csrf-param"))
	require.Equal(t, "secret==", MetaContent(doc, "csrf-token"))
	require.Equal(t, "", MetaContent(doc, "csrf-nonexistent"))
}

func TestCleanText(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	require.NoError(t, err)

	require.Equal(t, "Chain KMC X11", CleanText(doc.Find("td").Text()))
}
