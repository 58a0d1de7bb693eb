package security

import (
	"errors"
	"testing"
)

func TestInspect_RejectsDenylistedOperators(t *testing.T) {
	g := NewInjectionGuard()

	operators := []string{
		"$where", "$ne", "$gt", "$gte", "$lt", "$lte", "$in", "$nin",
		"$and", "$or", "$not", "$nor", "$exists", "$type", "$mod",
		"$regex", "$text", "$expr", "$jsonSchema", "$all", "$elemMatch", "$size",
	}

	for _, op := range operators {
		t.Run(op, func(t *testing.T) {
			_, err := g.Inspect("prefix " + op + " suffix")
			if !errors.Is(err, ErrInjectionDetected) {
				t.Errorf("operator %q not rejected, err = %v", op, err)
			}
		})
	}
}

func TestInspect_RejectsOperatorInNestedField(t *testing.T) {
	g := NewInjectionGuard()

	input := map[string]any{
		"name": "clean",
		"filter": map[string]any{
			"price": []any{"ok", `{"$gt": 0}`},
		},
	}

	_, err := g.Inspect(input)
	if !errors.Is(err, ErrInjectionDetected) {
		t.Errorf("nested operator not rejected, err = %v", err)
	}
}

func TestInspect_StripsStructuralCharacters(t *testing.T) {
	g := NewInjectionGuard()

	tests := []struct {
		input string
		want  string
	}{
		{"price[0]", "price0"},
		{"{key}", "key"},
		{"cost$usd", "costusd"},
		{"a$[]{}b", "ab"},
	}

	for _, tt := range tests {
		got, err := g.Inspect(tt.input)
		if err != nil {
			t.Errorf("Inspect(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Inspect(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestInspect_CleanStringsPassThrough(t *testing.T) {
	g := NewInjectionGuard()

	in := "ordinary product description"
	got, err := g.Inspect(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != in {
		t.Errorf("clean string changed: %q -> %q", in, got)
	}
}

func TestInspect_NonStringLeavesUntouched(t *testing.T) {
	g := NewInjectionGuard()

	input := map[string]any{
		"price":   float64(42),
		"inStock": false,
		"note":    nil,
	}

	got, err := g.Inspect(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m := got.(map[string]any)
	if m["price"] != float64(42) || m["inStock"] != false || m["note"] != nil {
		t.Errorf("non-string leaves changed: %v", m)
	}
}
