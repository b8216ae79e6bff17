package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/sku-mapper/internal/config"
	"github.com/ginjaninja78/sku-mapper/internal/llm"
	"github.com/ginjaninja78/sku-mapper/internal/table"
)

type stubAnswerer struct {
	credential string
}

func (s *stubAnswerer) Answer(_ context.Context, t *table.Table, question, credential string) (string, error) {
	if credential == "" {
		return "", llm.ErrMissingCredential
	}
	s.credential = credential
	return "  X leads.  ", nil
}

// execute runs the CLI with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	mappingFile, outPath, outFormat = "", "", ""
	previewRows, showChart = -1, false
	askQuestion, askAPIKey = "", ""

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "none.yaml")}, args...))
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestMapCommand(t *testing.T) {
	dir := t.TempDir()
	mapping := writeFile(t, dir, "mapping.csv", "SKU,MSKU\nA,X\nB,Y\n")
	jan := writeFile(t, dir, "jan.csv", "SKU,Quantity\nA,3\nC,1\n")
	notes := writeFile(t, dir, "notes.csv", "Item\nA\n")
	out := filepath.Join(dir, "out", "mapped_sales.csv")

	stdout, stderr, err := execute(t, "map", "--mapping", mapping, "--out", out, "--chart", jan, notes)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "SKU,Quantity,MSKU\nA,3,X\nC,1,UNKNOWN\n", string(data))

	assert.Contains(t, stderr, "Warning: File notes.csv skipped: No 'SKU' column found.")
	assert.Contains(t, stdout, "Mapped 2 row(s) from 1 file(s), 1 without a mapping.")
	assert.Contains(t, stdout, "C    1         UNKNOWN")
	assert.Contains(t, stdout, "X       | ")
}

func TestMapCommandXLSXDefaultName(t *testing.T) {
	dir := t.TempDir()
	mapping := writeFile(t, dir, "mapping.csv", "SKU,MSKU\nA,X\n")
	sales := writeFile(t, dir, "sales.csv", "SKU\nA\n")

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })

	_, _, err = execute(t, "map", "-m", mapping, "--format", "xlsx", "--preview", "0", sales)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "mapped_sales.xlsx"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("PK")))
}

func TestMapCommandPreviewDisabledByConfig(t *testing.T) {
	dir := t.TempDir()
	mapping := writeFile(t, dir, "mapping.csv", "SKU,MSKU\nA,X\n")
	sales := writeFile(t, dir, "sales.csv", "SKU\nA\n")
	cfg := writeFile(t, dir, "mapper.yaml", "output:\n  preview_rows: 0\n")

	stdout, _, err := execute(t, "--config", cfg, "map", "-m", mapping, "-o", filepath.Join(dir, "o.csv"), sales)
	require.NoError(t, err)
	assert.Equal(t, "Mapped 1 row(s) from 1 file(s), 0 without a mapping. Wrote "+filepath.Join(dir, "o.csv")+"\n", stdout)
}

func TestMapCommandSchemaError(t *testing.T) {
	dir := t.TempDir()
	mapping := writeFile(t, dir, "mapping.csv", "SKU,Master\nA,X\n")
	sales := writeFile(t, dir, "sales.csv", "SKU\nA\n")
	out := filepath.Join(dir, "mapped_sales.csv")

	_, _, err := execute(t, "map", "--mapping", mapping, "--out", out, sales)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must contain 'SKU' and 'MSKU' columns")

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestMapCommandAsk(t *testing.T) {
	stub := &stubAnswerer{}
	orig := newAnswerer
	newAnswerer = func(config.LLMConfig) llm.Answerer { return stub }
	t.Cleanup(func() { newAnswerer = orig })
	t.Setenv("MAPPER_LLM_API_KEY", "from-env")

	dir := t.TempDir()
	mapping := writeFile(t, dir, "mapping.csv", "SKU,MSKU\nA,X\n")
	sales := writeFile(t, dir, "sales.csv", "SKU\nA\n")

	stdout, _, err := execute(t, "map", "-m", mapping, "-o", filepath.Join(dir, "o.csv"), "--ask", "Who leads?", sales)
	require.NoError(t, err)
	assert.Contains(t, stdout, "\nX leads.\n")
	assert.Equal(t, "from-env", stub.credential)

	_, _, err = execute(t, "map", "-m", mapping, "-o", filepath.Join(dir, "o.csv"), "--ask", "Who leads?", "--api-key", "flag-key", sales)
	require.NoError(t, err)
	assert.Equal(t, "flag-key", stub.credential)
}

func TestPrintPreview(t *testing.T) {
	tbl := table.New("t", []string{"SKU", "MSKU"})
	tbl.Rows = append(tbl.Rows, map[string]string{"SKU": "LONG-1", "MSKU": "X"})

	var buf bytes.Buffer
	require.NoError(t, printPreview(&buf, tbl))
	assert.Equal(t, "SKU     MSKU\nLONG-1  X\n", buf.String())
}
