package styles

import "strings"

// ExtractPrintRules returns the rules found inside @media print { ... }
// blocks of css, with the wrapper stripped. Nested braces inside the block
// are respected; malformed trailing blocks are dropped rather than guessed.
func ExtractPrintRules(css string) []string {
	var rules []string
	rest := css
	for {
		idx := indexMediaPrint(rest)
		if idx == -1 {
			return rules
		}
		open := strings.IndexByte(rest[idx:], '{')
		if open == -1 {
			return rules
		}
		start := idx + open + 1
		end := matchBrace(rest, start)
		if end == -1 {
			return rules
		}
		if inner := strings.TrimSpace(rest[start:end]); inner != "" {
			rules = append(rules, inner)
		}
		rest = rest[end+1:]
	}
}

// indexMediaPrint finds the next @media block whose query mentions print.
func indexMediaPrint(css string) int {
	offset := 0
	for {
		idx := strings.Index(css[offset:], "@media")
		if idx == -1 {
			return -1
		}
		idx += offset
		open := strings.IndexByte(css[idx:], '{')
		if open == -1 {
			return -1
		}
		query := css[idx : idx+open]
		if strings.Contains(query, "print") {
			return idx
		}
		offset = idx + open
	}
}

// matchBrace returns the index of the brace closing the block opened just
// before start, or -1 when unbalanced.
func matchBrace(css string, start int) int {
	depth := 1
	for i := start; i < len(css); i++ {
		switch css[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
