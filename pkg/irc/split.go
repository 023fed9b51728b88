// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package irc

import (
	"strings"
	"unicode/utf8"
)

// MaxReplyLength is the longest reply text handlers send in a single line.
const MaxReplyLength = 400

// LengthSplit breaks text into chunks of at most max bytes, preferring to
// cut at the last space inside the window. Words longer than max are cut
// hard, but never inside a UTF-8 sequence.
func LengthSplit(text string, max int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if max <= 0 || len(text) <= max {
		return []string{text}
	}

	var chunks []string
	for len(text) > max {
		cut := strings.LastIndexByte(text[:max+1], ' ')
		if cut <= 0 {
			cut = runeCut(text, max)
		}
		chunks = append(chunks, strings.TrimSpace(text[:cut]))
		text = strings.TrimSpace(text[cut:])
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

// runeCut returns the largest rune boundary in text at or below max. A
// first rune wider than max is kept whole.
func runeCut(text string, max int) int {
	cut := max
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	if cut == 0 {
		_, cut = utf8.DecodeRuneInString(text)
	}
	return cut
}
