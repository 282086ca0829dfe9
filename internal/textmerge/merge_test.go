// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package textmerge

import "testing"

func TestMergeIdentity(t *testing.T) {
	inputs := []string{"", "hello", "你好", " leading", "trailing ", "mixed 文字"}

	for _, s := range inputs {
		if got := Merge("", s); got != s {
			t.Errorf("Merge(\"\", %q) = %q, want %q", s, got, s)
		}
		if got := Merge(s, ""); got != s {
			t.Errorf("Merge(%q, \"\") = %q, want %q", s, got, s)
		}
	}
}

func TestMergeBoundaries(t *testing.T) {
	tests := []struct {
		name        string
		accumulated string
		chunk       string
		want        string
	}{
		{"cjk-cjk no separator", "你好", "世界", "你好世界"},
		{"latin-latin separator", "hello", "world", "hello world"},
		{"cjk-latin separator", "你好", "hello", "你好 hello"},
		{"latin-cjk separator", "hello", "你好", "hello 你好"},
		{"trailing space suppresses", "hi ", "there", "hi there"},
		{"leading space suppresses", "hi", " there", "hi there"},
		{"leading punctuation concat", "hello", ", world", "hello, world"},
		{"cjk punctuation concat", "你好", "。再见", "你好。再见"},
		{"trailing punctuation concat", "wait...", "what", "wait...what"},
		{"digits treated alphanumeric", "version 1", "2 is out", "version 1 2 is out"},
		{"kana joins ideographs", "こんにちは", "世界", "こんにちは世界"},
		{"hangul-latin separator", "안녕", "hello", "안녕 hello"},
		{"symbol boundary concat", "cost: €", "50", "cost: €50"},
		{"newline suppresses", "line\n", "next", "line\nnext"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Merge(tt.accumulated, tt.chunk); got != tt.want {
				t.Errorf("Merge(%q, %q) = %q, want %q", tt.accumulated, tt.chunk, got, tt.want)
			}
		})
	}
}

func TestFold(t *testing.T) {
	chunks := []string{"The", "quick", "brown"}
	if got := Fold(chunks); got != "The quick brown" {
		t.Errorf("Fold = %q", got)
	}

	// Fold over an empty sequence is the empty buffer.
	if got := Fold(nil); got != "" {
		t.Errorf("Fold(nil) = %q", got)
	}
}

func TestMergeDeterministic(t *testing.T) {
	a, b := "stream", "ing"
	first := Merge(a, b)
	for i := 0; i < 100; i++ {
		if got := Merge(a, b); got != first {
			t.Fatalf("Merge not deterministic: %q vs %q", got, first)
		}
	}
}
