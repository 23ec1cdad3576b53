package dom_test

import (
	"testing"

	"github.com/vango-dev/resume/pkg/dom"
	"github.com/vango-dev/resume/pkg/dom/htmldom"
)

func TestHelpers(t *testing.T) {
	doc := htmldom.New()
	body := doc.Body()
	ul := doc.CreateElement("ul")
	body.AppendChild(ul)
	li1 := doc.CreateElement("li")
	li2 := doc.CreateElement("li")
	li2.SetAttr("data-x", "1")
	ul.AppendChild(li1)
	ul.AppendChild(li2)

	if got := len(dom.Children(ul)); got != 2 {
		t.Fatalf("Children = %d, want 2", got)
	}
	if !dom.HasAttr(li2, "data-x") || dom.HasAttr(li1, "data-x") {
		t.Error("HasAttr mismatch")
	}
	if !dom.Contains(body, li1) || dom.Contains(li1, body) {
		t.Error("Contains mismatch")
	}

	var tags []string
	dom.Walk(body, func(n dom.Node) bool {
		if n.Type() == dom.ElementNode {
			tags = append(tags, n.Tag())
		}
		return n.Tag() != "ul"
	})
	if len(tags) != 2 || tags[0] != "body" || tags[1] != "ul" {
		t.Errorf("Walk visited %v, want [body ul]", tags)
	}
}
