package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/formtree/internal/presentation/graph"
	"github.com/aretw0/formtree/pkg/domain"
)

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		form     []domain.RawNode
		overlay  *graph.Overlay
		contains []string
		excludes []string
	}{
		{
			name: "Leaf Shape",
			form: []domain.RawNode{
				{"controlId": "button", "groupId": "basic", "label": "Send"},
			},
			contains: []string{
				`form_0("button: Send")`,
				"form --> form_0",
			},
			excludes: []string{"Overlay"},
		},
		{
			name: "Container Shape",
			form: []domain.RawNode{
				{"controlId": "vbox", "groupId": "layout", "children": []domain.RawNode{
					{"controlId": "checkbox", "groupId": "basic"},
				}},
			},
			contains: []string{
				`form_0[["vbox"]]`,
				`form_0_children_0("checkbox")`,
				"form_0 --> form_0_children_0",
			},
		},
		{
			name: "Label Escaping",
			form: []domain.RawNode{
				{"controlId": "header", "label": `Say "hi"`},
			},
			contains: []string{
				`form_0("header: Say 'hi'")`,
			},
		},
		{
			name: "Overlay",
			form: []domain.RawNode{
				{"controlId": "sparkline"},
				{"controlId": "header"},
			},
			overlay: &graph.Overlay{
				Skipped:  []string{"form[0]"},
				Warnings: []string{"form[1]", "form[0]"},
				Selected: "form[1]",
			},
			contains: []string{
				"class form_0 skipped;",
				"class form_1 warning;",
				"class form_1 selected;",
			},
			excludes: []string{"class form_0 warning;"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(tt.form, tt.overlay)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("GenerateMermaid() = \n%v\nWant substring: %v", got, want)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(got, unwanted) {
					t.Errorf("GenerateMermaid() = \n%v\nUnexpected substring: %v", got, unwanted)
				}
			}
		})
	}
}
