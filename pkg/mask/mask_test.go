package mask

import (
	"strings"
	"testing"
)

type keyed string

func (k keyed) Group() string { return string(k) }

func keys(ks ...string) []keyed {
	out := make([]keyed, len(ks))
	for i, k := range ks {
		out[i] = keyed(k)
	}
	return out
}

func TestNormaliseGroupKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "1"},
		{"   ", "1"},
		{"  B  ", "B"},
		{"7", "7"},
		{"\theart\n", "heart"},
	}

	for _, tt := range tests {
		if got := NormaliseGroupKey(tt.in); got != tt.want {
			t.Errorf("NormaliseGroupKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStableChildID(t *testing.T) {
	// Deterministic.
	a := StableChildID("parent-1", "2")
	b := StableChildID("parent-1", "2")
	if a != b {
		t.Fatalf("StableChildID not deterministic: %q vs %q", a, b)
	}

	// Normalises the group key before composing.
	if got := StableChildID("parent-1", "  2  "); got != a {
		t.Errorf("StableChildID with padded key = %q, want %q", got, a)
	}
	if StableChildID("parent-1", "") != StableChildID("parent-1", "1") {
		t.Error("empty key should coerce to default group")
	}

	// Injective over distinct (parent, key) pairs.
	seen := map[string]string{}
	for _, parent := range []string{"p1", "p2", "card::io"} {
		for _, key := range []string{"1", "2", "B", "heart"} {
			id := StableChildID(parent, key)
			if prev, ok := seen[id]; ok {
				t.Errorf("collision: %q and %s/%s both map to %q", prev, parent, key, id)
			}
			seen[id] = parent + "/" + key
		}
	}
}

func TestParseChildID(t *testing.T) {
	parent, key, ok := ParseChildID(StableChildID("parent-1", "B"))
	if !ok || parent != "parent-1" || key != "B" {
		t.Errorf("ParseChildID = %q, %q, %v", parent, key, ok)
	}

	if _, _, ok := ParseChildID("parent-1"); ok {
		t.Error("plain parent id parsed as child id")
	}
}

func TestNextAutoGroupKey(t *testing.T) {
	tests := []struct {
		name string
		in   []keyed
		want string
	}{
		{"Empty", nil, "1"},
		{"SparseNumeric", keys("1", "3"), "4"},
		{"SingleGroup", keys("1"), "2"},
		{"IgnoresNonNumeric", keys("heart", "lungs"), "1"},
		{"MixedKeys", keys("heart", "2"), "3"},
		{"IgnoresNegative", keys("-5"), "1"},
		{"NormalisesBeforeParsing", keys(" 9 "), "10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextAutoGroupKey(tt.in); got != tt.want {
				t.Errorf("NextAutoGroupKey(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsMaskMode(t *testing.T) {
	for v, want := range map[string]bool{
		"solo": true,
		"all":  true,
		"":     false,
		"SOLO": false,
		"none": false,
	} {
		if got := IsMaskMode(v); got != want {
			t.Errorf("IsMaskMode(%q) = %v, want %v", v, got, want)
		}
	}
}

func TestNewRectID(t *testing.T) {
	a := NewRectID()
	b := NewRectID()
	if a == b {
		t.Error("NewRectID returned duplicate ids")
	}
	if !strings.HasPrefix(a, "rect-") {
		t.Errorf("NewRectID = %q, want rect- prefix", a)
	}
}
