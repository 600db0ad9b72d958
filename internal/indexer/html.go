package indexer

import (
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type page struct {
	title    string
	sections []section
}

type section struct {
	heading    string // latest h2 seen so far on the page
	text       string
	parameters []parameter
}

type parameter struct {
	name string
	text string
}

func parsePage(r io.Reader) (*page, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	content := find(doc, func(n *html.Node) bool { return isElem(n, atom.Div, "content") })
	if content == nil {
		return nil, nil
	}
	h1 := find(content, func(n *html.Node) bool { return n.Type == html.ElementNode && n.DataAtom == atom.H1 })
	if h1 == nil {
		return nil, nil
	}

	p := &page{title: textOf(h1)}
	heading := ""
	for _, sec := range findAll(content, func(n *html.Node) bool { return isElem(n, atom.Div, "section") }) {
		for c := sec.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.DataAtom == atom.H2 {
				heading = textOf(c)
				break
			}
		}
		p.sections = append(p.sections, section{
			heading:    heading,
			text:       textOf(sec),
			parameters: parameters(sec, ""),
		})
	}
	return p, nil
}

// parameters lists the direct parameter blocks of n, followed by their
// children with dotted names
func parameters(n *html.Node, prefix string) []parameter {
	var out []parameter
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !isElem(c, atom.Div, "parameter") {
			continue
		}

		nameDiv := find(c, func(n *html.Node) bool { return isElem(n, atom.Div, "parameter__name") })
		if nameDiv == nil {
			continue
		}
		code := find(nameDiv, func(n *html.Node) bool { return n.Type == html.ElementNode && n.DataAtom == atom.Code })
		if code == nil {
			continue
		}

		name := textOf(code)
		if prefix != "" {
			name = prefix + "." + name
		}
		out = append(out, parameter{
			name: name,
			text: textOf(find(c, func(n *html.Node) bool { return isElem(n, atom.Div, "parameter__description") })),
		})

		if children := find(c, func(n *html.Node) bool { return isElem(n, atom.Div, "parameter__children") }); children != nil {
			out = append(out, parameters(children, name)...)
		}
	}
	return out
}

var headingTag = regexp.MustCompile(`^h[0-9]$`)

// textOf returns the readable text of n. Direct headings, nested blocks and
// UI chrome are dropped; admonitions are inlined with "Title:" prefixes.
func textOf(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	writeChildren(&b, n, true, true)
	return strings.TrimSpace(strings.ReplaceAll(b.String(), "\n", " "))
}

// writeChildren writes the children of n. direct marks children of the
// element being extracted.
func writeChildren(b *strings.Builder, n *html.Node, direct, dropHeadings bool) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeNode(b, c, direct, dropHeadings)
	}
}

// writeNode writes one node. Headings are only dropped at the first level,
// not inside an inlined admonition.
func writeNode(b *strings.Builder, c *html.Node, direct, dropHeadings bool) {
	switch c.Type {
	case html.TextNode:
		b.WriteString(c.Data)
		return
	case html.ElementNode:
	default:
		return
	}

	switch {
	case isElem(c, atom.A, "headerlink"), isElem(c, atom.Span, "api-name__beta"):
		return
	case direct && dropHeadings && headingTag.MatchString(c.Data):
		return
	case direct && dropHeadings && isElem(c, atom.Div, "admonition"):
		writeAdmonition(b, c)
		return
	case direct && isElem(c, atom.P, "parameter__children-button"):
		return
	case direct && c.DataAtom == atom.Div:
		return
	}
	writeChildren(b, c, false, false)
}

// writeAdmonition inlines an admonition; its children count as direct
// children of the outer element
func writeAdmonition(b *strings.Builder, n *html.Node) {
	title := find(n, func(n *html.Node) bool { return isElem(n, atom.P, "admonition-title") })
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c == title {
			writeChildren(b, c, false, false)
			b.WriteString(":")
			continue
		}
		writeNode(b, c, true, false)
	}
}

func isElem(n *html.Node, a atom.Atom, class string) bool {
	if n.Type != html.ElementNode || n.DataAtom != a {
		return false
	}
	for _, attr := range n.Attr {
		if attr.Key == "class" {
			for _, c := range strings.Fields(attr.Val) {
				if c == class {
					return true
				}
			}
		}
	}
	return false
}

// find returns the first descendant of n matching fn in document order
func find(n *html.Node, fn func(*html.Node) bool) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if fn(c) {
			return c
		}
		if m := find(c, fn); m != nil {
			return m
		}
	}
	return nil
}

func findAll(n *html.Node, fn func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if fn(c) {
			out = append(out, c)
		}
		out = append(out, findAll(c, fn)...)
	}
	return out
}
