// Package views holds the server-rendered pages of the /ui frontend.
package views

import (
	"embed"
	"fmt"
	"html/template"
	"strings"
)

//go:embed *.html
var FS embed.FS

// Parse loads every page with the helper functions they use.
func Parse() (*template.Template, error) {
	funcMap := template.FuncMap{
		"clp":     CLP,
		"percent": func(rate float64) string { return fmt.Sprintf("%.0f%%", rate*100) },
		"lower":   strings.ToLower,
		"eq_str":  func(a, b any) bool { return fmt.Sprint(a) == fmt.Sprint(b) },
	}
	return template.New("layout").Funcs(funcMap).ParseFS(FS, "*.html")
}

// CLP formats an amount in Chilean pesos: "$ 1.250.000".
func CLP(v float64) string {
	s := fmt.Sprintf("%.0f", v)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	n := len(s)
	rem := n % 3
	if rem == 0 {
		rem = 3
	}
	out := s[:min(rem, n)]
	for i := rem; i < n; i += 3 {
		out += "." + s[i:i+3]
	}
	if neg {
		out = "-" + out
	}
	return "$ " + out
}
