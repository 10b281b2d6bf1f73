package charcard

import (
	"errors"
	"regexp"
	"sort"
)

var errUnbalanced = errors.New("charcard: unbalanced braces")

// Tried in order; each one is exhausted before the next.
var cardPatterns = []*regexp.Regexp{
	regexp.MustCompile(`"spec"\s*:\s*"chara_card_v[123]"`),
	regexp.MustCompile(`"name"\s*:`),
	regexp.MustCompile(`\{\s*"name"`),
	regexp.MustCompile(`\{\s*"char_name"`),
}

// braceIndex pairs every '{' in a text with the '}' that brings nesting
// depth back to where it was. String contents are not special-cased.
type braceIndex struct {
	opens []int // offsets of '{', ascending
	ends  []int // offset just past the matching '}', or -1
}

func indexBraces(text string) braceIndex {
	var idx braceIndex
	var stack []int
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '{':
			stack = append(stack, len(idx.opens))
			idx.opens = append(idx.opens, i)
			idx.ends = append(idx.ends, -1)
		case '}':
			if n := len(stack); n > 0 {
				idx.ends[stack[n-1]] = i + 1
				stack = stack[:n-1]
			}
		}
	}
	return idx
}

// enclosing returns the span starting at the nearest '{' at or before pos.
// start is -1 when no '{' precedes pos; ok is false when it never closes.
func (idx braceIndex) enclosing(pos int) (start, end int, ok bool) {
	n := sort.SearchInts(idx.opens, pos+1)
	if n == 0 {
		return -1, 0, false
	}
	start, end = idx.opens[n-1], idx.ends[n-1]
	return start, end, end > 0
}

func (e *Extractor) searchTextPatterns(data []byte, a *Attempt) (Payload, bool) {
	text := decodeUTF8(data)
	var braces *braceIndex
	tried := map[int]bool{}
	for _, re := range cardPatterns {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			if braces == nil {
				idx := indexBraces(text)
				braces = &idx
			}
			start, end, ok := braces.enclosing(loc[0])
			if start < 0 || tried[start] {
				continue
			}
			tried[start] = true
			if !ok {
				e.skip(a, start, errUnbalanced)
				continue
			}
			a.Candidates++
			payload, err := parseObject(text[start:end])
			if err != nil {
				e.skip(a, start, err)
				continue
			}
			return payload, true
		}
	}
	return nil, false
}
