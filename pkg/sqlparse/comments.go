package sqlparse

import (
	"regexp"
	"strings"
)

// stripComments removes `--` and `/* ... */` comments, replacing each with a
// single space so token boundaries are preserved. It walks the string
// tracking whether it is inside a single-quoted string literal (SQL escapes
// an embedded quote as `''`) so a `--` or `/*` sequence inside one, e.g.
// `WHERE note = 'see -- below'`, is left alone instead of being treated as
// the start of a comment. The underlying parser never sees a real comment;
// §4.2 only asks that their presence inside an otherwise-empty construct
// still be reported, which commentOnlySelectList checks on the original
// text before this runs.
func stripComments(sql string) string {
	var b strings.Builder
	b.Grow(len(sql))

	inString := false
	for i := 0; i < len(sql); i++ {
		c := sql[i]

		if inString {
			b.WriteByte(c)
			if c == '\'' {
				if i+1 < len(sql) && sql[i+1] == '\'' {
					b.WriteByte(sql[i+1])
					i++
					continue
				}
				inString = false
			}
			continue
		}

		switch {
		case c == '\'':
			inString = true
			b.WriteByte(c)
		case c == '-' && i+1 < len(sql) && sql[i+1] == '-':
			for i < len(sql) && sql[i] != '\n' {
				i++
			}
			b.WriteByte(' ')
			i--
		case c == '/' && i+1 < len(sql) && sql[i+1] == '*':
			end := strings.Index(sql[i+2:], "*/")
			if end < 0 {
				i = len(sql)
			} else {
				i += 2 + end + 1
			}
			b.WriteByte(' ')
		default:
			b.WriteByte(c)
		}
	}

	return b.String()
}

var selectKeyword = regexp.MustCompile(`(?i)^\s*select\b`)

// commentOnlySelectList reports whether the text between the leading SELECT
// keyword and the top-level FROM (or the statement end, if there is no
// FROM) contains only comments and whitespace — e.g.
// "SELECT /* id */ FROM orders". A real grammar rejects this outright; the
// policy layer instead reports it as the specific, user-facing
// "no legal elements in SELECT clause" condition (§4.2, §4.4).
func commentOnlySelectList(sql string) bool {
	loc := selectKeyword.FindStringIndex(sql)
	if loc == nil {
		return false
	}
	rest := sql[loc[1]:]

	depth := 0
	end := len(rest)
	upper := strings.ToUpper(rest)
	for i := 0; i < len(rest); i++ {
		switch rest[i] {
		case '(':
			depth++
		case ')':
			depth--
		}
		if depth == 0 && hasWordAt(upper, i, "FROM") {
			end = i
			break
		}
	}

	segment := strings.TrimSpace(stripComments(rest[:end]))
	return segment == ""
}

func hasWordAt(upper string, i int, word string) bool {
	if i+len(word) > len(upper) || upper[i:i+len(word)] != word {
		return false
	}
	if i > 0 && isIdentByte(upper[i-1]) {
		return false
	}
	if end := i + len(word); end < len(upper) && isIdentByte(upper[end]) {
		return false
	}
	return true
}

func isIdentByte(b byte) bool {
	return b == '_' ||
		(b >= 'A' && b <= 'Z') ||
		(b >= 'a' && b <= 'z') ||
		(b >= '0' && b <= '9')
}
