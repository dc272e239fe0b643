package collector

import (
	"strings"

	"golang.org/x/net/html"
)

type matcher func(*html.Node) bool

// element matches tag nodes carrying every class in classes
// (space separated; empty matches any).
func element(tag, classes string) matcher {
	want := strings.Fields(classes)
	return func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.Data != tag {
			return false
		}
		have := strings.Fields(attr(n, "class"))
		for _, w := range want {
			found := false
			for _, h := range have {
				if h == w {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	}
}

func withID(tag, id string) matcher {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == tag && attr(n, "id") == id
	}
}

// findAll returns the descendants of n matching m in document order.
func findAll(n *html.Node, m matcher) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(p *html.Node) {
		for c := p.FirstChild; c != nil; c = c.NextSibling {
			if m(c) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

// findFirst returns the first descendant of n matching m, or nil.
func findFirst(n *html.Node, m matcher) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if m(c) {
			return c
		}
		if found := findFirst(c, m); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

// text returns the concatenated text of n, trimmed.
func text(n *html.Node) string {
	var b strings.Builder
	eachText(n, func(s string) { b.WriteString(s) })
	return strings.TrimSpace(b.String())
}

// strippedText concatenates every text node of n after trimming each one.
func strippedText(n *html.Node) string {
	var b strings.Builder
	eachText(n, func(s string) { b.WriteString(strings.TrimSpace(s)) })
	return b.String()
}

func eachText(n *html.Node, fn func(string)) {
	if n.Type == html.TextNode {
		fn(n.Data)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		eachText(c, fn)
	}
}
