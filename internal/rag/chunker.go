package rag

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	DefaultMaxChars = 1200
	MinChunkChars   = 30
	MaxChunks       = 3000
)

var (
	horizontalSpace = regexp.MustCompile(`[ \t]+`)
	paragraphBreaks = regexp.MustCompile(`\n{3,}`)
)

// ChunkText splits text into paragraph-first passages of at most maxChars
// runes. Paragraphs that fit are kept verbatim; longer ones are packed
// sentence by sentence. Passages shorter than MinChunkChars are dropped and
// at most MaxChunks are returned. The result depends only on the inputs.
func ChunkText(text string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}

	clean := normalizeWhitespace(text)
	if clean == "" {
		return nil
	}

	var chunks []string
	for _, para := range strings.Split(clean, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if runeLen(para) <= maxChars {
			chunks = append(chunks, para)
			continue
		}
		chunks = append(chunks, packSentences(splitSentences(para), maxChars)...)
	}

	kept := chunks[:0]
	for _, c := range chunks {
		if runeLen(c) >= MinChunkChars {
			kept = append(kept, c)
		}
	}
	if len(kept) > MaxChunks {
		kept = kept[:MaxChunks]
	}
	return kept
}

func normalizeWhitespace(text string) string {
	clean := strings.ReplaceAll(text, "\r", "")
	clean = horizontalSpace.ReplaceAllString(clean, " ")
	clean = paragraphBreaks.ReplaceAllString(clean, "\n\n")
	return strings.TrimSpace(clean)
}

// splitSentences cuts after '.', '!' or '?' when whitespace follows. The
// whitespace run is the separator and belongs to neither side.
func splitSentences(para string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(para); {
		c := para[i]
		if c == '.' || c == '!' || c == '?' {
			j := i + 1
			for j < len(para) {
				r, size := utf8.DecodeRuneInString(para[j:])
				if !unicode.IsSpace(r) {
					break
				}
				j += size
			}
			if j > i+1 {
				sentences = append(sentences, para[start:i+1])
				start = j
				i = j
				continue
			}
		}
		i++
	}
	if start < len(para) {
		sentences = append(sentences, para[start:])
	}
	return sentences
}

func packSentences(sentences []string, maxChars int) []string {
	var chunks []string
	buf := ""
	for _, sentence := range sentences {
		for _, piece := range splitOversized(sentence, maxChars) {
			candidate := strings.TrimSpace(buf + " " + piece)
			if runeLen(candidate) > maxChars {
				if flushed := strings.TrimSpace(buf); flushed != "" {
					chunks = append(chunks, flushed)
				}
				buf = piece
				continue
			}
			buf = candidate
		}
	}
	if flushed := strings.TrimSpace(buf); flushed != "" {
		chunks = append(chunks, flushed)
	}
	return chunks
}

// splitOversized breaks a single sentence longer than maxChars on word
// boundaries, hard-cutting any word that alone exceeds the limit.
func splitOversized(sentence string, maxChars int) []string {
	if runeLen(sentence) <= maxChars {
		return []string{sentence}
	}

	var pieces []string
	var buf []rune
	for _, word := range strings.Fields(sentence) {
		runes := []rune(word)
		for len(runes) > maxChars {
			if len(buf) > 0 {
				pieces = append(pieces, string(buf))
				buf = nil
			}
			pieces = append(pieces, string(runes[:maxChars]))
			runes = runes[maxChars:]
		}
		if len(runes) == 0 {
			continue
		}
		switch {
		case len(buf) == 0:
			buf = append(buf, runes...)
		case len(buf)+1+len(runes) <= maxChars:
			buf = append(buf, ' ')
			buf = append(buf, runes...)
		default:
			pieces = append(pieces, string(buf))
			buf = append([]rune(nil), runes...)
		}
	}
	if len(buf) > 0 {
		pieces = append(pieces, string(buf))
	}
	return pieces
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
