package styles

import "strings"

// InjectEntries inserts one <style> block per entry into an HTML document,
// in order, before </head> when present, else after <body>, else prepended.
// Each block carries its provenance for diagnostics.
func InjectEntries(htmlContent string, entries []Entry) string {
	for _, entry := range entries {
		htmlContent = injectStyleBlock(htmlContent, entry)
	}
	return htmlContent
}

func injectStyleBlock(htmlContent string, entry Entry) string {
	if entry.CSS == "" {
		return htmlContent
	}

	block := `<style data-provenance="` + escapeAttr(entry.Provenance) + `">` + SanitizeCSS(entry.CSS) + "</style>"
	lowerHTML := strings.ToLower(htmlContent)

	if idx := strings.Index(lowerHTML, "</head>"); idx != -1 {
		return htmlContent[:idx] + block + htmlContent[idx:]
	}

	if idx := strings.Index(lowerHTML, "<body"); idx != -1 {
		if closeIdx := strings.Index(htmlContent[idx:], ">"); closeIdx != -1 {
			insertPos := idx + closeIdx + 1
			return htmlContent[:insertPos] + block + htmlContent[insertPos:]
		}
	}

	return block + htmlContent
}

// SanitizeCSS escapes sequences that could break out of a <style> block.
func SanitizeCSS(css string) string {
	return strings.ReplaceAll(css, "</", `<\/`)
}

func escapeAttr(s string) string {
	s = strings.ReplaceAll(s, `&`, "&amp;")
	s = strings.ReplaceAll(s, `"`, "&quot;")
	s = strings.ReplaceAll(s, `<`, "&lt;")
	return s
}
