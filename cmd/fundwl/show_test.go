package main

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSplitList(t *testing.T) {
	tests := map[string][]string{
		"":                  nil,
		"code":              {"code"},
		" code, name ,,est": {"code", "name", "est"},
	}
	for in, want := range tests {
		if diff := cmp.Diff(want, splitList(in)); diff != "" {
			t.Errorf("splitList(%q) mismatch (-want +got):\n%s", in, diff)
		}
	}
}
