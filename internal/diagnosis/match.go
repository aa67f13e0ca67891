package diagnosis

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/width"
)

// foldWidth maps fullwidth ASCII and halfwidth katakana to their canonical
// forms, so "ＤＭＡＡ" reads as "DMAA" and "：" as ":".
func foldWidth(s string) string {
	return width.Fold.String(strings.TrimSpace(s))
}

func normalizeName(s string) string {
	return strings.ToLower(foldWidth(s))
}

func isNameSeparator(r rune) bool {
	switch r {
	case '・', '、', '/', ',', '(', ')', '[', ']', '「', '」', '【', '】', '+', '-', '.', ':', ';':
		return true
	}
	return unicode.IsSpace(r)
}

func nameTokens(s string) []string {
	return strings.FieldsFunc(s, isNameSeparator)
}

// matchesAny reports whether the ingredient name contains one of the aliases
// as whole tokens. Exclusion phrases are blanked out before tokenizing.
func matchesAny(name string, aliases, exclusions []string) bool {
	n := normalizeName(name)
	for _, ex := range exclusions {
		n = strings.ReplaceAll(n, normalizeName(ex), " ")
	}
	tokens := nameTokens(n)
	for _, a := range aliases {
		if containsAlias(tokens, nameTokens(normalizeName(a))) {
			return true
		}
	}
	return false
}

// containsAlias matches alias as a contiguous run of tokens. A single
// non-ASCII alias may also open or close a token, since Japanese compounds
// such as 無水カフェイン or ガラナエキス carry no separator.
func containsAlias(tokens, alias []string) bool {
	if len(alias) == 0 {
		return false
	}
	if len(alias) == 1 && !isASCII(alias[0]) {
		for _, t := range tokens {
			if strings.HasPrefix(t, alias[0]) || strings.HasSuffix(t, alias[0]) {
				return true
			}
		}
		return false
	}
	for i := 0; i+len(alias) <= len(tokens); i++ {
		match := true
		for j, a := range alias {
			if tokens[i+j] != a {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
