package svginspect

import (
	"reflect"
	"testing"
)

func TestParseStyle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  StyleBlock
	}{
		{"empty", "", nil},
		{"only separators", " ; ;; ", nil},
		{"single", "fill:red", StyleBlock{{"fill", "red"}}},
		{"spaces", "  fill :  red ; opacity: 0.5;", StyleBlock{{"fill", "red"}, {"opacity", "0.5"}}},
		{"colon in value", "background: url(http://x/y.png)", StyleBlock{{"background", "url(http://x/y.png)"}}},
		{"no colon", "fill", StyleBlock{{"fill", ""}}},
		{"important", "fill: red !important", StyleBlock{{"fill", "red !important"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseStyle(tt.input); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseStyle(%q) = %#v, want %#v", tt.input, got, tt.want)
			}
		})
	}
}

func TestStyleBlockString(t *testing.T) {
	b := StyleBlock{{"fill", "red"}, {"opacity", "0.5"}}
	if got := b.String(); got != "fill: red; opacity: 0.5" {
		t.Errorf("String() = %q", got)
	}
	if got := StyleBlock(nil).String(); got != "" {
		t.Errorf("Empty block String() = %q", got)
	}
}

func TestStyleProperties(t *testing.T) {
	n := NewElement("rect", Attribute{Key: "style", Val: "fill: red; opacity: 0.5"})

	if !n.DeleteStyleProperty("opacity") {
		t.Fatalf("DeleteStyleProperty(opacity) = false")
	}
	if v, _ := n.Attribute("style"); v != "fill: red" {
		t.Errorf("style = %q, want %q", v, "fill: red")
	}

	if n.DeleteStyleProperty("stroke") {
		t.Errorf("Deleting a missing property must report false")
	}

	n.SetStyleProperty("stroke", " blue ")
	n.SetStyleProperty("fill", "green")
	if v, _ := n.Attribute("style"); v != "fill: green; stroke: blue" {
		t.Errorf("style = %q", v)
	}

	if !n.ReorderStyleProperty("fill", "stroke", PositionAfter) {
		t.Fatalf("ReorderStyleProperty = false")
	}
	if v, _ := n.Attribute("style"); v != "stroke: blue; fill: green" {
		t.Errorf("style = %q", v)
	}

	if n.SetStyleProperty("  ", "x") {
		t.Errorf("Empty property name must be rejected")
	}
}

func TestDeleteLastStylePropertyKeepsAttribute(t *testing.T) {
	n := NewElement("rect", Attribute{Key: "style", Val: "fill: red"})
	n.DeleteStyleProperty("fill")
	v, ok := n.Attribute("style")
	if !ok || v != "" {
		t.Errorf("style = %q, %v; want empty attribute", v, ok)
	}
}

func TestStyleNormalizesFormatting(t *testing.T) {
	n := NewElement("rect", Attribute{Key: "style", Val: "fill:red;;stroke:blue;"})
	n.SetStyleProperty("opacity", "1")
	if v, _ := n.Attribute("style"); v != "fill: red; stroke: blue; opacity: 1" {
		t.Errorf("style = %q", v)
	}
}
