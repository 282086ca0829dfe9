// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import "testing"

func TestTruncateWidth(t *testing.T) {
	// CJK characters are two columns wide; "你好" is width 4.
	if got := TruncateWidth("你好", 4); got != "你好" {
		t.Errorf("expected untouched string, got %q", got)
	}
	if got := TruncateWidth("你好世界", 7); got != "你好..." {
		t.Errorf("expected width-truncated string, got %q", got)
	}
	if got := TruncateWidth("abc", 0); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestCollapseNewlines(t *testing.T) {
	if got := CollapseNewlines("a\nb\r\nc"); got != "a b c" {
		t.Errorf("CollapseNewlines = %q", got)
	}
	if got := CollapseNewlines("no breaks"); got != "no breaks" {
		t.Errorf("CollapseNewlines = %q", got)
	}
}
