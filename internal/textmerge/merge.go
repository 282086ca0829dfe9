// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package textmerge joins streamed text fragments into a single buffer.
//
// Completion backends split replies at arbitrary points, sometimes losing
// the whitespace between two word fragments. Merge restores a separating
// space where the surrounding scripts call for one (Latin words carry
// spaces, CJK text does not) and otherwise concatenates verbatim.
package textmerge

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// runeClass is the coarse script classification used at a merge boundary.
type runeClass int

const (
	classOther runeClass = iota
	classCJK             // ideographs and kana/hangul, no inter-word spacing
	classLatin           // Latin letters and ASCII digits, space-separated
	classSpacePunct      // whitespace or sentence punctuation, self-separating
)

// sentencePunct is the recognized sentence-punctuation set, Latin and CJK.
// A chunk beginning with one of these already supplies its own separation.
const sentencePunct = `.,!?;:'"()[]{}-` + "。，！？；：、“”‘’（）【】…—"

// Merge combines an accumulated buffer with a newly arrived fragment.
// It is pure and total: no failure modes, deterministic for all inputs.
func Merge(accumulated, chunk string) string {
	if accumulated == "" {
		return chunk
	}
	if chunk == "" {
		return accumulated
	}

	first, _ := utf8.DecodeRuneInString(chunk)
	if unicode.IsSpace(first) || strings.ContainsRune(sentencePunct, first) {
		return accumulated + chunk
	}

	last, _ := utf8.DecodeLastRuneInString(accumulated)

	lc := classify(last)
	fc := classify(first)

	switch {
	case lc == classSpacePunct || fc == classSpacePunct:
		return accumulated + chunk
	case lc == classCJK && fc == classCJK:
		return accumulated + chunk
	case (lc == classLatin || lc == classCJK) && (fc == classLatin || fc == classCJK):
		// Latin-Latin boundaries lost their space upstream; CJK-Latin
		// boundaries get conventional script-transition spacing.
		return accumulated + " " + chunk
	default:
		return accumulated + chunk
	}
}

// Fold merges a sequence of fragments into one buffer, left to right.
func Fold(chunks []string) string {
	var buf string
	for _, c := range chunks {
		buf = Merge(buf, c)
	}
	return buf
}

func classify(r rune) runeClass {
	switch {
	case unicode.IsSpace(r) || strings.ContainsRune(sentencePunct, r):
		return classSpacePunct
	case unicode.Is(unicode.Han, r),
		unicode.Is(unicode.Hiragana, r),
		unicode.Is(unicode.Katakana, r),
		unicode.Is(unicode.Hangul, r):
		return classCJK
	case unicode.Is(unicode.Latin, r),
		r >= '0' && r <= '9':
		return classLatin
	default:
		return classOther
	}
}
