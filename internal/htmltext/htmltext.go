// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package htmltext flattens forum HTML into plain text for the extraction
// engine. Markup collapses to text content with line breaks at block-element
// boundaries, so each record row in the page's table layout comes out as
// its own line.
package htmltext

import (
	"strings"

	"golang.org/x/net/html"
)

// blockTags break the output into lines at their boundaries.
var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"br": true, "dd": true, "div": true, "dl": true, "dt": true,
	"fieldset": true, "footer": true, "form": true, "h1": true, "h2": true,
	"h3": true, "h4": true, "h5": true, "h6": true, "header": true,
	"hr": true, "li": true, "ol": true, "p": true, "pre": true,
	"section": true, "table": true, "td": true, "th": true, "tr": true,
	"ul": true,
}

// skipTags contribute no text content.
var skipTags = map[string]bool{
	"head": true, "noscript": true, "script": true, "style": true,
}

// Flatten collapses HTML markup to plain text. Text inside script, style,
// and head elements is dropped; character entities are decoded; runs of
// spaces and tabs within a line collapse to single spaces. The function is
// total: malformed markup is flattened as far as the tokenizer can read it.
func Flatten(doc string) string {
	z := html.NewTokenizer(strings.NewReader(doc))
	var b strings.Builder
	skipDepth := 0

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			// io.EOF or malformed tail; either way, what we have is
			// the flattened text.
			return collapse(b.String())

		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if tt == html.StartTagToken && skipTags[tag] {
				skipDepth++
			}
			if blockTags[tag] {
				b.WriteByte('\n')
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if skipTags[tag] && skipDepth > 0 {
				skipDepth--
			}
			if blockTags[tag] {
				b.WriteByte('\n')
			}

		case html.TextToken:
			if skipDepth == 0 {
				b.Write(z.Text())
			}
		}
	}
}

// collapse normalizes each line: interior whitespace runs become single
// spaces and edges are trimmed. Empty lines are kept; the segmenter
// discards them.
func collapse(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	return strings.Join(lines, "\n")
}
