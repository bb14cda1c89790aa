// Package docgen converts the markdown the LLM produces for KOP and BRD
// documents into Confluence storage HTML. It handles the subset the
// prompts actually elicit: headings, bullet and numbered lists, bold
// runs, pipe tables, and plain paragraphs.
package docgen

import (
	"html"
	"regexp"
	"strings"
)

var (
	numberedRe  = regexp.MustCompile(`^\d+\.\s+`)
	separatorRe = regexp.MustCompile(`^[:\-]+$`)
)

// ToStorageHTML converts markdown text to Confluence storage HTML. The
// conversion is line-oriented and lossy by design: unrecognized syntax
// passes through as an escaped paragraph rather than failing.
func ToStorageHTML(text string) string {
	var b strings.Builder
	var tableBuf []string
	listTag := "" // "ul", "ol", or "" when not inside a list

	closeList := func() {
		if listTag != "" {
			b.WriteString("</" + listTag + ">\n")
			listTag = ""
		}
	}
	flushTable := func() {
		if len(tableBuf) > 0 {
			writeTable(&b, tableBuf)
			tableBuf = nil
		}
	}

	for _, line := range strings.Split(text, "\n") {
		stripped := strings.TrimSpace(line)

		if stripped == "" {
			flushTable()
			closeList()
			continue
		}

		// Table rows accumulate until a non-table line ends the block.
		if strings.HasPrefix(stripped, "|") && strings.Contains(stripped[1:], "|") {
			closeList()
			tableBuf = append(tableBuf, stripped)
			continue
		}
		flushTable()

		switch {
		case strings.HasPrefix(stripped, "###"):
			closeList()
			b.WriteString("<h3>" + inline(strings.TrimSpace(strings.TrimLeft(stripped, "#"))) + "</h3>\n")
		case strings.HasPrefix(stripped, "##"):
			closeList()
			b.WriteString("<h2>" + inline(strings.TrimSpace(strings.TrimLeft(stripped, "#"))) + "</h2>\n")
		case strings.HasPrefix(stripped, "#"):
			closeList()
			b.WriteString("<h1>" + inline(strings.TrimSpace(strings.TrimLeft(stripped, "#"))) + "</h1>\n")
		case strings.HasPrefix(stripped, "- "):
			if listTag != "ul" {
				closeList()
				b.WriteString("<ul>\n")
				listTag = "ul"
			}
			b.WriteString("<li>" + inline(stripped[2:]) + "</li>\n")
		case numberedRe.MatchString(stripped):
			if listTag != "ol" {
				closeList()
				b.WriteString("<ol>\n")
				listTag = "ol"
			}
			b.WriteString("<li>" + inline(numberedRe.ReplaceAllString(stripped, "")) + "</li>\n")
		default:
			closeList()
			b.WriteString("<p>" + inline(stripped) + "</p>\n")
		}
	}

	flushTable()
	closeList()
	return b.String()
}

// inline escapes a text run and converts **bold** spans to <strong>.
// An unmatched ** marker is left as literal text.
func inline(s string) string {
	var b strings.Builder
	for {
		i := strings.Index(s, "**")
		if i < 0 {
			break
		}
		j := strings.Index(s[i+2:], "**")
		if j < 0 {
			break
		}
		b.WriteString(html.EscapeString(s[:i]))
		b.WriteString("<strong>" + html.EscapeString(s[i+2:i+2+j]) + "</strong>")
		s = s[i+2+j+2:]
	}
	b.WriteString(html.EscapeString(s))
	return b.String()
}

// writeTable converts buffered pipe-table rows into an HTML table. The
// first row becomes the header; a dashes-only second row is the markdown
// separator and is skipped; data rows whose cell count does not match
// the header are dropped as malformed.
func writeTable(b *strings.Builder, lines []string) {
	var rows [][]string
	for _, line := range lines {
		trimmed := strings.Trim(line, "|")
		cells := strings.Split(trimmed, "|")
		for i := range cells {
			cells[i] = strings.TrimSpace(cells[i])
		}
		rows = append(rows, cells)
	}
	if len(rows) < 2 {
		return
	}

	headers := rows[0]
	dataRows := rows[1:]
	if isSeparatorRow(rows[1]) {
		dataRows = rows[2:]
	}

	b.WriteString("<table>\n<tr>")
	for _, h := range headers {
		b.WriteString("<th>" + inline(strings.ReplaceAll(h, "**", "")) + "</th>")
	}
	b.WriteString("</tr>\n")

	for _, row := range dataRows {
		if len(row) != len(headers) {
			continue
		}
		b.WriteString("<tr>")
		for _, cell := range row {
			b.WriteString("<td>" + inline(strings.ReplaceAll(cell, "**", "")) + "</td>")
		}
		b.WriteString("</tr>\n")
	}
	b.WriteString("</table>\n")
}

func isSeparatorRow(cells []string) bool {
	for _, c := range cells {
		if !separatorRe.MatchString(strings.TrimSpace(c)) {
			return false
		}
	}
	return len(cells) > 0
}
