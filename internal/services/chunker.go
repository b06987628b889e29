package services

import (
	"strings"
	"unicode/utf8"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 150
)

// ChunkText splits reference documents into paragraph-aligned chunks of at most size runes.
// Paragraphs longer than size are split on sentences; each new chunk starts with the last
// overlap runes of the previous one.
func ChunkText(text string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 4
	}

	var pieces []string
	for _, para := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if utf8.RuneCountInString(para) <= size {
			pieces = append(pieces, para)
			continue
		}
		for _, s := range sentences(para) {
			pieces = append(pieces, hardSplit(s+".", size)...)
		}
	}

	var chunks []string
	var current strings.Builder
	flush := func() {
		if current.Len() == 0 {
			return
		}
		chunks = append(chunks, current.String())
		tail := lastRunes(current.String(), overlap)
		current.Reset()
		current.WriteString(tail)
	}

	for _, piece := range pieces {
		if current.Len() > 0 && utf8.RuneCountInString(current.String())+utf8.RuneCountInString(piece)+1 > size {
			flush()
			if utf8.RuneCountInString(current.String())+utf8.RuneCountInString(piece)+1 > size {
				current.Reset()
			}
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(piece)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}

	return chunks
}

func hardSplit(s string, size int) []string {
	runes := []rune(s)
	var out []string
	for len(runes) > size {
		out = append(out, string(runes[:size]))
		runes = runes[size:]
	}
	if len(runes) > 0 {
		out = append(out, string(runes))
	}
	return out
}

func lastRunes(text string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[len(runes)-n:])
}
