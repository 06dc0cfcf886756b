package browser

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// FormSnapshot is a compact view of the interactive controls on a page,
// attached to page-contract failures so a changed DOM can be diagnosed
// without opening a browser.
type FormSnapshot struct {
	Title    string
	Controls []Control
}

// Control is one form control or label found in the document.
type Control struct {
	Tag     string
	Type    string
	ID      string
	Name    string
	Title   string
	For     string
	Text    string
	Checked bool
}

// SummarizeForm parses rawHTML and collects inputs, buttons, labels, selects
// and textareas in document order. Script, style and other noise elements
// are skipped together with their children.
func SummarizeForm(rawHTML string) (*FormSnapshot, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	snapshot := &FormSnapshot{Title: extractTitle(doc)}
	collectControls(doc, &snapshot.Controls)
	return snapshot, nil
}

func collectControls(n *html.Node, controls *[]Control) {
	if n.Type == html.ElementNode {
		tag := strings.ToLower(n.Data)
		if isSkippedElement(tag) {
			return
		}
		if isControlElement(tag) {
			*controls = append(*controls, newControl(n, tag))
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectControls(c, controls)
	}
}

func newControl(n *html.Node, tag string) Control {
	control := Control{Tag: tag}
	for _, attr := range n.Attr {
		switch strings.ToLower(attr.Key) {
		case "type":
			control.Type = attr.Val
		case "id":
			control.ID = attr.Val
		case "name":
			control.Name = attr.Val
		case "title", "aria-label":
			if control.Title == "" {
				control.Title = attr.Val
			}
		case "for":
			control.For = attr.Val
		case "checked":
			control.Checked = true
		}
	}
	if tag == "button" || tag == "label" {
		control.Text = textContent(n)
	}
	return control
}

func textContent(n *html.Node) string {
	var builder strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && isSkippedElement(strings.ToLower(n.Data)) {
			return
		}
		if n.Type == html.TextNode {
			builder.WriteString(n.Data)
			builder.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(builder.String()), " ")
}

func isControlElement(tagName string) bool {
	switch tagName {
	case "input", "button", "label", "select", "textarea":
		return true
	}
	return false
}

func isSkippedElement(tagName string) bool {
	switch tagName {
	case "script", "style", "noscript", "iframe", "embed", "object", "svg", "template":
		return true
	}
	return false
}

func extractTitle(doc *html.Node) string {
	var title string
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "title" {
			if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				title = strings.TrimSpace(n.FirstChild.Data)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
			if title != "" {
				return
			}
		}
	}
	traverse(doc)
	return title
}

// String renders the control the way it would be targeted by a selector.
func (c Control) String() string {
	var b strings.Builder
	b.WriteString(c.Tag)
	if c.ID != "" {
		b.WriteString("#" + c.ID)
	}
	for _, attr := range []struct{ key, val string }{
		{"type", c.Type},
		{"name", c.Name},
		{"title", c.Title},
		{"for", c.For},
	} {
		if attr.val != "" {
			fmt.Fprintf(&b, "[%s=%q]", attr.key, attr.val)
		}
	}
	if c.Checked {
		b.WriteString(" checked")
	}
	if c.Text != "" {
		fmt.Fprintf(&b, " %q", c.Text)
	}
	return b.String()
}

// Format lists the controls one per line, at most limit of them (0 means
// all), noting how many were left out.
func (s *FormSnapshot) Format(limit int) string {
	var b strings.Builder
	if s.Title != "" {
		fmt.Fprintf(&b, "title: %q\n", s.Title)
	}
	fmt.Fprintf(&b, "controls: %d\n", len(s.Controls))

	shown := s.Controls
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	for _, c := range shown {
		b.WriteString("  ")
		b.WriteString(c.String())
		b.WriteString("\n")
	}
	if omitted := len(s.Controls) - len(shown); omitted > 0 {
		fmt.Fprintf(&b, "  ... %d more\n", omitted)
	}
	return b.String()
}
