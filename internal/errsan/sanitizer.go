// Package errsan вырезает из текста ошибок всё, что не должно покинуть
// процесс: стеки, пути, учётные данные, адреса.
package errsan

import "regexp"

// Redacted — маркер, которым заменяется каждое совпадение.
const Redacted = "[REDACTED]"

// Pattern — пара «шаблон → замена». Порядок в списке значим.
type Pattern struct {
	Name        string
	Re          *regexp.Regexp
	Replacement string
}

// Patterns — базовый набор, применяется сверху вниз.
var Patterns = []Pattern{
	{"stack_frame", regexp.MustCompile(`\bat\s+[^\n()]*\([^()\n]*:\d+:\d+\)`), Redacted},
	{"go_frame", regexp.MustCompile(`[\w./\\-]+\.go:\d+(?::\d+)?`), Redacted},
	// сегменты через пробел, за которыми снова идёт "\", — часть того же пути
	{"windows_path", regexp.MustCompile(`[A-Za-z]:\\[^\s"'<>|]*(?: [^\s"'<>|\\]+\\[^\s"'<>|]*)*`), Redacted},
	{"unix_path", regexp.MustCompile(`(?:/[\w.\-@]+)+/[\w.\-@]+`), Redacted},
	{"dependency_path", regexp.MustCompile(`[\w.\-/\\]*node_modules\S*`), Redacted},
	// bearer раньше credential: иначе "token: Bearer x" теряет только слово Bearer
	{"bearer", regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9\-._~+/]+=*`), Redacted},
	{"credential", regexp.MustCompile(`(?i)\b(?:password|passwd|secret|api_key|apikey|key|token)["']?\s*[=:]\s*(?:"[^"]*"|'[^']*'|\S+)`), Redacted},
	{"email", regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9\-]+(?:\.[A-Za-z0-9\-]+)+`), Redacted},
	{"ipv4", regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`), Redacted},
	{"hex_secret", regexp.MustCompile(`\b[A-Fa-f0-9]{32,}\b`), Redacted},
}

// Sanitizer применяет упорядоченный список шаблонов.
type Sanitizer struct {
	patterns []Pattern
}

// New — базовый набор плюс дополнительные шаблоны (добавляются в конец).
func New(extra ...Pattern) *Sanitizer {
	ps := make([]Pattern, 0, len(Patterns)+len(extra))
	ps = append(ps, Patterns...)
	ps = append(ps, extra...)
	return &Sanitizer{patterns: ps}
}

func (s *Sanitizer) Sanitize(msg string) string {
	if msg == "" {
		return ""
	}
	for _, p := range s.patterns {
		msg = p.Re.ReplaceAllString(msg, p.Replacement)
	}
	return msg
}

var std = New()

// Sanitize прогоняет сообщение через базовый набор шаблонов.
func Sanitize(msg string) string { return std.Sanitize(msg) }
