package xmltree

import (
	"strings"
	"testing"
)

func TestParseNested(t *testing.T) {
	doc := `<A id="a0"><B q="2"/><B q="3"/></A>`
	root, err := Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if root.Tag != "A" {
		t.Errorf("root.Tag = %s, want A", root.Tag)
	}
	if v, ok := root.Attribute("id"); !ok || v != "a0" {
		t.Errorf("root id = %q, %v", v, ok)
	}
	if len(root.Children) != 2 {
		t.Fatalf("len(root.Children) = %d, want 2", len(root.Children))
	}
	for i, want := range []string{"2", "3"} {
		if v, _ := root.Children[i].Attribute("q"); v != want {
			t.Errorf("Children[%d].q = %s, want %s", i, v, want)
		}
	}
}

func TestParseUnbalanced(t *testing.T) {
	if _, err := Parse(strings.NewReader(`<A><B></A>`)); err == nil {
		t.Errorf("expected parse error for unbalanced document")
	}
}
