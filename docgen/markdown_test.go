package docgen

import (
	"strings"
	"testing"
)

func TestToStorageHTMLHeadings(t *testing.T) {
	in := "# Key Operating Procedure\n## Scope\n### Reporting Duties"
	out := ToStorageHTML(in)

	for _, want := range []string{
		"<h1>Key Operating Procedure</h1>",
		"<h2>Scope</h2>",
		"<h3>Reporting Duties</h3>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestToStorageHTMLLists(t *testing.T) {
	in := "- collect trade data\n- validate identifiers\n\n1. submit report\n2. archive receipt"
	out := ToStorageHTML(in)

	if !strings.Contains(out, "<ul>\n<li>collect trade data</li>\n<li>validate identifiers</li>\n</ul>") {
		t.Errorf("bullet list wrong:\n%s", out)
	}
	if !strings.Contains(out, "<ol>\n<li>submit report</li>\n<li>archive receipt</li>\n</ol>") {
		t.Errorf("numbered list wrong:\n%s", out)
	}
}

func TestToStorageHTMLBold(t *testing.T) {
	out := ToStorageHTML("The counterparty **must** report by **T+1**.")
	want := "<p>The counterparty <strong>must</strong> report by <strong>T+1</strong>.</p>"
	if !strings.Contains(out, want) {
		t.Errorf("bold runs wrong:\n%s", out)
	}
}

func TestToStorageHTMLUnmatchedBoldLiteral(t *testing.T) {
	out := ToStorageHTML("a ** dangling marker")
	if !strings.Contains(out, "<p>a ** dangling marker</p>") {
		t.Errorf("unmatched marker must stay literal:\n%s", out)
	}
}

func TestToStorageHTMLEscapes(t *testing.T) {
	out := ToStorageHTML("thresholds <10M & >1M")
	if !strings.Contains(out, "thresholds &lt;10M &amp; &gt;1M") {
		t.Errorf("HTML not escaped:\n%s", out)
	}
}

func TestToStorageHTMLTable(t *testing.T) {
	in := strings.Join([]string{
		"| Obligation | Frequency |",
		"| --- | --- |",
		"| **Position report** | daily |",
		"| Margin call | as incurred |",
		"| malformed row |",
	}, "\n")
	out := ToStorageHTML(in)

	if !strings.Contains(out, "<th>Obligation</th><th>Frequency</th>") {
		t.Errorf("header row wrong:\n%s", out)
	}
	if strings.Contains(out, "---") {
		t.Errorf("separator row leaked into output:\n%s", out)
	}
	if !strings.Contains(out, "<td>Position report</td><td>daily</td>") {
		t.Errorf("bold markers must be stripped in cells:\n%s", out)
	}
	if !strings.Contains(out, "<td>Margin call</td><td>as incurred</td>") {
		t.Errorf("data row missing:\n%s", out)
	}
	if strings.Contains(out, "malformed") {
		t.Errorf("malformed row must be skipped:\n%s", out)
	}
}

func TestToStorageHTMLTableWithoutSeparator(t *testing.T) {
	in := "| A | B |\n| 1 | 2 |"
	out := ToStorageHTML(in)
	if !strings.Contains(out, "<td>1</td><td>2</td>") {
		t.Errorf("separator-less table must keep data row:\n%s", out)
	}
}

func TestToStorageHTMLTableFlushedByParagraph(t *testing.T) {
	in := "| A | B |\n| 1 | 2 |\nAfterword."
	out := ToStorageHTML(in)

	tableIdx := strings.Index(out, "<table>")
	paraIdx := strings.Index(out, "<p>Afterword.</p>")
	if tableIdx < 0 || paraIdx < 0 || paraIdx < tableIdx {
		t.Errorf("table must be flushed before the trailing paragraph:\n%s", out)
	}
}

func TestToStorageHTMLMixedDocument(t *testing.T) {
	in := strings.Join([]string{
		"# BRD",
		"",
		"Purpose of the change.",
		"",
		"- item one",
		"1. step one",
	}, "\n")
	out := ToStorageHTML(in)

	// List transitions must close the open list element.
	if strings.Count(out, "</ul>") != 1 || strings.Count(out, "</ol>") != 1 {
		t.Errorf("lists not closed properly:\n%s", out)
	}
}
