// Package landing собирает публичную HTML-страницу проекта из контента арендатора.
package landing

import (
	"bytes"
	"fmt"

	"lander/internal/content"
	"lander/internal/models"
)

const defaultTitle = "Landing"

// Render отдаёт полный HTML-документ. Каждая строка арендатора проходит
// через content.EscapeHTML (текст) либо SanitizeURL+EscapeAttribute (атрибуты).
func Render(p models.PageContent) []byte {
	var b bytes.Buffer

	title := p.BusinessName
	if title == "" {
		title = defaultTitle
	}

	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	b.WriteString("<meta charset=\"utf-8\">\n")
	b.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", content.EscapeHTML(title))
	fmt.Fprintf(&b, "<meta property=\"og:title\" content=\"%s\">\n", content.EscapeAttribute(title))
	if p.Headline != "" {
		fmt.Fprintf(&b, "<meta name=\"description\" content=\"%s\">\n", content.EscapeAttribute(p.Headline))
	}
	b.WriteString("</head>\n<body>\n<main class=\"landing\">\n")

	writeImage(&b, "hero", p.HeroImageURL, title)

	fmt.Fprintf(&b, "<h1>%s</h1>\n", content.EscapeHTML(title))
	if p.Headline != "" {
		fmt.Fprintf(&b, "<p class=\"headline\">%s</p>\n", content.EscapeHTML(p.Headline))
	}
	if p.Story != "" {
		fmt.Fprintf(&b, "<section class=\"story\"><p>%s</p></section>\n", content.EscapeHTML(p.Story))
	}

	var gallery bytes.Buffer
	for _, u := range p.GalleryURLs {
		writeImage(&gallery, "gallery-item", u, title)
	}
	if gallery.Len() > 0 {
		b.WriteString("<section class=\"gallery\">\n")
		b.Write(gallery.Bytes())
		b.WriteString("</section>\n")
	}

	if href := content.SanitizeURL(p.ContactURL); href != "" {
		fmt.Fprintf(&b, "<a class=\"contact\" href=\"%s\" rel=\"noopener noreferrer\">Contact us</a>\n",
			content.EscapeAttribute(href))
	}

	b.WriteString("</main>\n</body>\n</html>\n")
	return b.Bytes()
}

// writeImage пропускает пустые и заблокированные URL.
func writeImage(b *bytes.Buffer, class, src, alt string) {
	src = content.SanitizeURL(src)
	if src == "" {
		return
	}
	fmt.Fprintf(b, "<img class=\"%s\" src=\"%s\" alt=\"%s\" loading=\"lazy\">\n",
		class, content.EscapeAttribute(src), content.EscapeAttribute(alt))
}
