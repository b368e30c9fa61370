package tags

import (
	"reflect"
	"testing"
)

func TestNormalizeTags(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{"nil input", nil, nil},
		{"empty input", []string{}, nil},
		{"single tag", []string{"foo"}, []string{"foo"}},
		{"trim whitespace", []string{" foo ", " bar "}, []string{"foo", "bar"}},
		{"remove empty", []string{"foo", "", "bar"}, []string{"foo", "bar"}},
		{"deduplicate", []string{"foo", "bar", "foo"}, []string{"foo", "bar"}},
		{"all empty", []string{"", " ", "  "}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeTags(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeTags(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseCommaSeparated(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", nil},
		{"whitespace only", "  ", nil},
		{"single", "foo", []string{"foo"}},
		{"multiple", "foo,bar,baz", []string{"foo", "bar", "baz"}},
		{"with spaces", " foo , bar , baz ", []string{"foo", "bar", "baz"}},
		{"with duplicates", "foo,bar,foo", []string{"foo", "bar"}},
		{"trailing comma", "foo,bar,", []string{"foo", "bar"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseCommaSeparated(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseCommaSeparated(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSetAddIdempotent(t *testing.T) {
	s := NewSet()
	if !s.Add("summer") {
		t.Error("first Add(summer) = false, want true")
	}
	if s.Add("summer") {
		t.Error("second Add(summer) = true, want false")
	}
	if s.Add("  ") {
		t.Error("Add of blank tag = true, want false")
	}
	s.Add(" beach ")

	want := []string{"summer", "beach"}
	if got := s.Slice(); !reflect.DeepEqual(got, want) {
		t.Errorf("Slice() = %v, want %v", got, want)
	}
}

func TestSetRemoveIdempotent(t *testing.T) {
	s := NewSet("a", "b", "c", "d")

	if !s.Remove("b") {
		t.Error("Remove(b) = false, want true")
	}
	if s.Remove("b") {
		t.Error("second Remove(b) = true, want false")
	}
	if s.Remove("missing") {
		t.Error("Remove(missing) = true, want false")
	}

	want := []string{"a", "c", "d"}
	if got := s.Slice(); !reflect.DeepEqual(got, want) {
		t.Errorf("Slice() = %v, want %v", got, want)
	}

	// Index stays consistent after a removal from the middle.
	s.Remove("c")
	if !s.Has("d") || s.Has("c") {
		t.Errorf("Has after removals: d=%v c=%v", s.Has("d"), s.Has("c"))
	}
	if got := s.Slice(); !reflect.DeepEqual(got, []string{"a", "d"}) {
		t.Errorf("Slice() = %v, want [a d]", got)
	}
}

func TestSetZeroValue(t *testing.T) {
	var s Set
	if s.Len() != 0 || s.Has("x") || s.Remove("x") {
		t.Error("zero Set is not empty")
	}
	if got := s.Slice(); got == nil || len(got) != 0 {
		t.Errorf("Slice() = %#v, want empty non-nil", got)
	}
	s.Add("x")
	if !s.Equal([]string{"x"}) {
		t.Errorf("Equal([x]) = false after Add")
	}
}

func TestSetSliceIsCopy(t *testing.T) {
	s := NewSet("a", "b")
	out := s.Slice()
	out[0] = "z"
	if !s.Equal([]string{"a", "b"}) {
		t.Error("mutating Slice() result changed the set")
	}
}
