package writer

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/ginjaninja78/sku-mapper/internal/table"
)

// XML element names. Column names are carried in the name attribute because
// arbitrary headers ("Unit Price", "2024") are not valid element names.
const (
	xmlRootElement  = "mappedSales"
	xmlRowElement   = "row"
	xmlFieldElement = "field"
	xmlIndent       = "  "
)

// WriteXML writes t as an indented XML document.
func WriteXML(w io.Writer, t *table.Table) error {
	bw := bufio.NewWriter(w)

	bw.WriteString(xml.Header)
	fmt.Fprintf(bw, "<%s rows=\"%d\">\n", xmlRootElement, t.Len())

	for i, row := range t.Rows {
		fmt.Fprintf(bw, "%s<%s n=\"%d\">\n", xmlIndent, xmlRowElement, i+1)
		for _, h := range t.Headers {
			fmt.Fprintf(bw, "%s<%s name=\"%s\">%s</%s>\n",
				strings.Repeat(xmlIndent, 2), xmlFieldElement, escapeXML(h), escapeXML(row[h]), xmlFieldElement)
		}
		fmt.Fprintf(bw, "%s</%s>\n", xmlIndent, xmlRowElement)
	}

	fmt.Fprintf(bw, "</%s>\n", xmlRootElement)

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write XML: %w", err)
	}
	return nil
}

// escapeXML escapes text for use in element content and attribute values.
func escapeXML(s string) string {
	var b strings.Builder
	// EscapeText only fails when the writer fails; a Builder never does.
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
