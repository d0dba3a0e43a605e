package store

import (
	"reflect"
	"testing"
)

func TestSplitTags(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{}},
		{"rock", []string{"rock"}},
		{"rock,pop", []string{"rock", "pop"}},
		{" rock , pop ,", []string{"rock", "pop"}},
		{",,,", []string{}},
		{"café", []string{"café"}},
	}

	for _, tt := range tests {
		if got := SplitTags(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitTags(%q) = %#v, want %#v", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeTags(t *testing.T) {
	if got := NormalizeTags("rock, pop ,  jazz"); got != "rock,pop,jazz" {
		t.Errorf("NormalizeTags = %q", got)
	}
	if got := NormalizeTags(" a,b ,,"); got != "a,b" {
		t.Errorf("NormalizeTags = %q", got)
	}
}
