package cache

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseTemplate(t *testing.T) {
	tests := []struct {
		name       string
		template   string
		wantFields []string
		wantErr    bool
	}{
		{"single token", "order:{OrderID}", []string{"OrderID"}, false},
		{"several tokens", "{Tenant}:order:{OrderID}:{Currency}", []string{"Tenant", "OrderID", "Currency"}, false},
		{"repeated token", "{A}-{A}", []string{"A"}, false},
		{"no tokens", "static-key", nil, false},
		{"trimmed token", "order:{ OrderID }", []string{"OrderID"}, false},
		{"unterminated", "order:{OrderID", nil, true},
		{"nested open", "order:{Ord{erID}", nil, true},
		{"stray close", "order:OrderID}", nil, true},
		{"empty token", "order:{}", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := ParseTemplate(tt.template)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTemplate) {
					t.Fatalf("ParseTemplate(%q) error = %v, want ErrInvalidTemplate", tt.template, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTemplate(%q) failed: %v", tt.template, err)
			}
			if got := tmpl.Fields(); !reflect.DeepEqual(got, tt.wantFields) {
				t.Errorf("Fields() = %v, want %v", got, tt.wantFields)
			}
			if tmpl.String() != tt.template {
				t.Errorf("String() = %q", tmpl.String())
			}
		})
	}
}

func TestCompileTemplate_UnknownToken(t *testing.T) {
	_, err := CompileTemplate("order:{OrderId}", []string{"OrderID"})
	if !errors.Is(err, ErrUnknownToken) {
		t.Fatalf("expected ErrUnknownToken, got %v", err)
	}

	if _, err := CompileTemplate("order:{OrderID}", []string{"OrderID", "Total"}); err != nil {
		t.Fatalf("declared token rejected: %v", err)
	}
}

func TestTemplate_Render(t *testing.T) {
	tmpl, err := ParseTemplate("order:{OrderID}:{Page}:{Active}")
	if err != nil {
		t.Fatal(err)
	}

	got, err := tmpl.Render(map[string]any{"OrderID": "O-1", "Page": 2, "Active": true})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if got != "order:O-1:2:true" {
		t.Errorf("Render = %q", got)
	}

	_, err = tmpl.Render(map[string]any{"OrderID": "O-1"})
	if !errors.Is(err, ErrUnresolvedToken) {
		t.Fatalf("expected ErrUnresolvedToken, got %v", err)
	}
}
