package chart

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/sku-mapper/internal/table"
)

func combined(rows ...[2]string) *table.Table {
	tbl := table.New("mapped_sales", []string{"SKU", "Quantity", "MSKU"})
	for _, r := range rows {
		tbl.Rows = append(tbl.Rows, map[string]string{"MSKU": r[0], "Quantity": r[1]})
	}
	return tbl
}

func TestBuildSumsAndSortsDescending(t *testing.T) {
	c, ok := Build(combined(
		[2]string{"X", "2"},
		[2]string{"Y", "10"},
		[2]string{"X", "3.5"},
		[2]string{"UNKNOWN", "5.5"},
		[2]string{"Z", "abc"},
		[2]string{"Z", ""},
	))
	require.True(t, ok)

	assert.Equal(t, []Bar{
		{MSKU: "Y", Quantity: 10},
		{MSKU: "UNKNOWN", Quantity: 5.5},
		{MSKU: "X", Quantity: 5.5},
	}, c.Bars)
	assert.Equal(t, 2, c.Skipped)
}

func TestBuildWithoutQuantityColumn(t *testing.T) {
	tbl := table.New("mapped_sales", []string{"SKU", "MSKU"})
	_, ok := Build(tbl)
	assert.False(t, ok)
}

func TestWriteText(t *testing.T) {
	c, ok := Build(combined([2]string{"X", "4"}, [2]string{"LONGER", "2"}, [2]string{"Q", "n/a"}))
	require.True(t, ok)

	var buf bytes.Buffer
	require.NoError(t, c.WriteText(&buf, 4))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "X      | ████ 4", lines[0])
	assert.Equal(t, "LONGER | ██ 2", lines[1])
	assert.Contains(t, lines[2], "1 row(s)")
}

func TestWriteSVG(t *testing.T) {
	c, ok := Build(combined([2]string{"A<&>", "3"}, [2]string{"B", "1"}))
	require.True(t, ok)

	var buf bytes.Buffer
	require.NoError(t, c.WriteSVG(&buf))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "<svg "))
	assert.Equal(t, 2, strings.Count(out, "<rect "))
	assert.Contains(t, out, "A&lt;&amp;&gt;")
	assert.NotContains(t, out, "A<&>")
	assert.True(t, strings.HasSuffix(out, "</svg>\n"))
}

func TestWriteSVGEmptyChart(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&Chart{}).WriteSVG(&buf))
	assert.Equal(t, 0, strings.Count(buf.String(), "<rect "))
}
