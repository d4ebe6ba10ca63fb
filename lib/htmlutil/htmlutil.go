package htmlutil

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

var innerWhitespace = regexp.MustCompile(`\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// CleanText collapses the formatting whitespace the site embeds in
// table cells and headings into single spaces.
func CleanText(s string) string {
	s = innerWhitespace.ReplaceAllString(s, " ")
	s = removeNonPrintable(s)
	return strings.Trim(s, " ")
}

// MetaContent returns the content attribute of a <meta name=...> tag in
// the document head, or "" if the tag is missing.
func MetaContent(doc *goquery.Document, name string) string {
	return doc.Find(`head meta[name="` + name + `"]`).AttrOr("content", "")
}
