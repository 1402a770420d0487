// Package content экранирует недоверенные строки перед вставкой в
// сгенерированные HTML-страницы.
package content

import (
	"regexp"
	"strings"
)

// html.EscapeString отдаёт &#39; и &#34;, а страницы ожидают &#x27; и &quot;.
var htmlReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
)

var attrWhitespace = regexp.MustCompile(`[\r\n\t]+`)

var blockedSchemes = []string{"javascript:", "vbscript:", "data:text"}

// EscapeHTML экранирует текст для тела HTML-документа.
func EscapeHTML(s string) string {
	if s == "" {
		return ""
	}
	return htmlReplacer.Replace(s)
}

// EscapeAttribute — EscapeHTML плюс схлопывание \r, \n, \t в один пробел,
// чтобы значение помещалось в атрибут в одну строку.
func EscapeAttribute(s string) string {
	return attrWhitespace.ReplaceAllString(EscapeHTML(s), " ")
}

// SanitizeURL возвращает "" для опасных схем и исходную строку без изменений
// во всех остальных случаях. data:image разрешён для встроенных картинок.
func SanitizeURL(u string) string {
	probe := strings.ToLower(strings.TrimSpace(u))
	for _, scheme := range blockedSchemes {
		if strings.HasPrefix(probe, scheme) {
			return ""
		}
	}
	return u
}
