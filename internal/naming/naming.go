package naming

import (
	"strings"
	"unicode"
)

// CamelToSnake converts a CamelCase identifier to snake_case, keeping
// acronyms together: "UserID" → "user_id", "HTTPServer" → "http_server".
func CamelToSnake(s string) string {
	ws := words(s)
	for i, w := range ws {
		ws[i] = strings.ToLower(w)
	}
	return strings.Join(ws, "_")
}

// SnakeToCamel converts a snake_case string to CamelCase. Common initialisms
// are upper-cased: "user_id" → "UserID", "post_tags" → "PostTags".
func SnakeToCamel(s string) string {
	var b strings.Builder
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return strings.ContainsRune("_-/{}", r) }) {
		if upper := strings.ToUpper(part); initialisms[upper] {
			b.WriteString(upper)
			continue
		}
		runes := []rune(part)
		runes[0] = unicode.ToUpper(runes[0])
		b.WriteString(string(runes))
	}
	return b.String()
}

// LowerCamel converts a CamelCase identifier to lowerCamelCase, lowering a
// leading initialism as a whole: "Posts" → "posts", "URLPath" → "urlPath".
func LowerCamel(s string) string {
	ws := words(s)
	if len(ws) == 0 {
		return s
	}
	ws[0] = strings.ToLower(ws[0])
	return strings.Join(ws, "")
}

// words splits a Go identifier into its CamelCase words. A run of capitals
// is one word that ends before a capital opening a lower-case word, and a
// digit ends the word it trails: "HTTPServer" → HTTP Server.
func words(s string) []string {
	runes := []rune(s)
	if len(runes) == 0 {
		return nil
	}
	var out []string
	start := 0
	for i := 1; i < len(runes); i++ {
		if !unicode.IsUpper(runes[i]) {
			continue
		}
		prev := runes[i-1]
		opensWord := i+1 < len(runes) && unicode.IsLower(runes[i+1])
		if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && opensWord) {
			out = append(out, string(runes[start:i]))
			start = i
		}
	}
	return append(out, string(runes[start:]))
}

var initialisms = map[string]bool{
	"API": true, "HTTP": true, "ID": true, "JSON": true, "UID": true,
	"URI": true, "URL": true, "UUID": true,
}
