// Package chart aggregates the Quantity column of a combined table by MSKU
// and renders the totals as a bar chart, largest first.
package chart

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/ginjaninja78/sku-mapper/internal/skumap"
	"github.com/ginjaninja78/sku-mapper/internal/table"
)

// ColumnQuantity is the optional numeric column the chart sums.
const ColumnQuantity = "Quantity"

// Bar is the total quantity of one MSKU.
type Bar struct {
	MSKU     string  `json:"msku"`
	Quantity float64 `json:"quantity"`
}

// Chart is the aggregated data behind the bar chart.
type Chart struct {
	Bars []Bar `json:"bars"`

	// Skipped counts Quantity cells that were empty or not numeric.
	Skipped int `json:"skipped"`
}

// Build sums Quantity per MSKU. It returns false when the table has no
// Quantity or no MSKU column; the chart is then simply not shown.
//
// Bars are ordered by quantity descending, ties by MSKU ascending.
func Build(t *table.Table) (*Chart, bool) {
	if !t.HasColumn(ColumnQuantity) || !t.HasColumn(skumap.ColumnMSKU) {
		return nil, false
	}

	totals := make(map[string]float64)
	var order []string
	c := &Chart{}

	for _, row := range t.Rows {
		qty, err := strconv.ParseFloat(strings.TrimSpace(row[ColumnQuantity]), 64)
		if err != nil || math.IsNaN(qty) || math.IsInf(qty, 0) {
			c.Skipped++
			continue
		}

		msku := row[skumap.ColumnMSKU]
		if _, ok := totals[msku]; !ok {
			order = append(order, msku)
		}
		totals[msku] += qty
	}

	c.Bars = make([]Bar, 0, len(order))
	for _, msku := range order {
		c.Bars = append(c.Bars, Bar{MSKU: msku, Quantity: totals[msku]})
	}
	sort.SliceStable(c.Bars, func(i, j int) bool {
		if c.Bars[i].Quantity != c.Bars[j].Quantity {
			return c.Bars[i].Quantity > c.Bars[j].Quantity
		}
		return c.Bars[i].MSKU < c.Bars[j].MSKU
	})

	return c, true
}

// max returns the largest positive bar value, or 1 when there is none so
// scaling never divides by zero.
func (c *Chart) max() float64 {
	m := 0.0
	for _, b := range c.Bars {
		if b.Quantity > m {
			m = b.Quantity
		}
	}
	if m == 0 {
		return 1
	}
	return m
}

func formatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}

// =============================================================================
// TEXT RENDERING
// =============================================================================

// WriteText renders the chart as horizontal bars for a terminal. width is the
// length of the longest bar in characters.
func (c *Chart) WriteText(w io.Writer, width int) error {
	if width <= 0 {
		width = 40
	}

	bw := bufio.NewWriter(w)
	labelWidth := len("MSKU")
	for _, b := range c.Bars {
		if n := len([]rune(b.MSKU)); n > labelWidth {
			labelWidth = n
		}
	}

	max := c.max()
	for _, b := range c.Bars {
		n := 0
		if b.Quantity > 0 {
			n = int(math.Round(b.Quantity / max * float64(width)))
		}
		fmt.Fprintf(bw, "%-*s | %s %s\n", labelWidth, b.MSKU, strings.Repeat("█", n), formatQuantity(b.Quantity))
	}
	if c.Skipped > 0 {
		fmt.Fprintf(bw, "(%d row(s) without a numeric %s were left out)\n", c.Skipped, ColumnQuantity)
	}

	return bw.Flush()
}

// =============================================================================
// SVG RENDERING
// =============================================================================

const (
	svgWidth        = 700
	svgPlotHeight   = 300
	svgMarginTop    = 20
	svgMarginLeft   = 60
	svgMarginRight  = 20
	svgMarginBottom = 110
	svgBarGap       = 4
	svgTicks        = 5
)

// WriteSVG renders the chart as a standalone SVG document with MSKU on the x
// axis and total quantity on the y axis.
func (c *Chart) WriteSVG(w io.Writer) error {
	bw := bufio.NewWriter(w)

	height := svgMarginTop + svgPlotHeight + svgMarginBottom
	plotWidth := float64(svgWidth - svgMarginLeft - svgMarginRight)
	baseY := float64(svgMarginTop + svgPlotHeight)
	max := c.max()

	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif" font-size="11">`+"\n",
		svgWidth, height, svgWidth, height)
	fmt.Fprintf(bw, `<title>%s by %s</title>`+"\n", ColumnQuantity, skumap.ColumnMSKU)

	// Y axis with evenly spaced ticks.
	fmt.Fprintf(bw, `<line x1="%d" y1="%d" x2="%d" y2="%.1f" stroke="#333"/>`+"\n", svgMarginLeft, svgMarginTop, svgMarginLeft, baseY)
	for i := 0; i <= svgTicks; i++ {
		v := max * float64(i) / svgTicks
		y := baseY - float64(svgPlotHeight)*float64(i)/svgTicks
		fmt.Fprintf(bw, `<line x1="%d" y1="%.1f" x2="%d" y2="%.1f" stroke="#ddd"/>`+"\n", svgMarginLeft, y, svgWidth-svgMarginRight, y)
		fmt.Fprintf(bw, `<text x="%d" y="%.1f" text-anchor="end" dominant-baseline="middle">%s</text>`+"\n",
			svgMarginLeft-6, y, html.EscapeString(strconv.FormatFloat(v, 'g', 4, 64)))
	}

	if n := len(c.Bars); n > 0 {
		slot := plotWidth / float64(n)
		barWidth := math.Max(slot-svgBarGap, 1)

		for i, b := range c.Bars {
			h := 0.0
			if b.Quantity > 0 {
				h = b.Quantity / max * svgPlotHeight
			}
			x := float64(svgMarginLeft) + float64(i)*slot + (slot-barWidth)/2
			label := html.EscapeString(b.MSKU)

			fmt.Fprintf(bw, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="#4c78a8"><title>%s: %s</title></rect>`+"\n",
				x, baseY-h, barWidth, h, label, formatQuantity(b.Quantity))
			lx := x + barWidth/2
			fmt.Fprintf(bw, `<text x="%.1f" y="%.1f" text-anchor="end" transform="rotate(-45 %.1f %.1f)">%s</text>`+"\n",
				lx, baseY+12, lx, baseY+12, label)
		}
	}

	fmt.Fprintf(bw, `<line x1="%d" y1="%.1f" x2="%d" y2="%.1f" stroke="#333"/>`+"\n", svgMarginLeft, baseY, svgWidth-svgMarginRight, baseY)
	fmt.Fprintf(bw, `<text x="%d" y="%d" text-anchor="middle">%s</text>`+"\n", svgMarginLeft+int(plotWidth)/2, height-6, skumap.ColumnMSKU)
	bw.WriteString("</svg>\n")

	return bw.Flush()
}
