package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	app.ExitErrHandler = func(*cli.Context, error) {}

	err := app.Run(append([]string{"gstcalc"}, args...))
	return out.String(), err
}

func TestWords(t *testing.T) {
	out, err := runApp(t, "words", "12346.50")
	require.NoError(t, err)
	assert.Equal(t, "Rupees Twelve Thousand Three Hundred Forty Six and Fifty Paise Only", strings.TrimSpace(out))

	_, err = runApp(t, "words", "twelve")
	assert.Error(t, err)

	_, err = runApp(t, "words")
	assert.Error(t, err)
}

func TestSplit(t *testing.T) {
	t.Run("intra state", func(t *testing.T) {
		out, err := runApp(t, "split", "--taxable", "1000", "--rate", "18")
		require.NoError(t, err)

		var split map[string]string
		require.NoError(t, json.Unmarshal([]byte(out), &split))
		assert.Equal(t, "90", split["cgstAmount"])
		assert.Equal(t, "90", split["sgstAmount"])
		assert.Equal(t, "0", split["igstAmount"])
	})

	t.Run("inter state", func(t *testing.T) {
		out, err := runApp(t, "split", "--taxable", "1000", "--rate", "18", "--inter-state")
		require.NoError(t, err)

		var split map[string]string
		require.NoError(t, json.Unmarshal([]byte(out), &split))
		assert.Equal(t, "180", split["igstAmount"])
		assert.Equal(t, "0", split["cgstAmount"])
	})

	t.Run("rate out of range", func(t *testing.T) {
		_, err := runApp(t, "split", "--taxable", "1000", "--rate", "120")
		assert.Error(t, err)
	})
}

func TestTotals(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")
	items := `[{"quantity":"10","rate":"100","taxRate":"18"},{"quantity":"1","rate":"0.5","taxRate":"0"}]`
	require.NoError(t, os.WriteFile(path, []byte(items), 0o600))

	out, err := runApp(t, "totals", "--file", path)
	require.NoError(t, err)

	var totals map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &totals))
	assert.Equal(t, "1000.5", totals["taxableAmount"])
	assert.Equal(t, "1181", totals["grandTotal"])
	assert.Equal(t, "0.5", totals["roundOff"])
	assert.Equal(t, "Rupees One Thousand One Hundred Eighty One Only", totals["amountInWords"])

	empty := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte("[]"), 0o600))
	out, err = runApp(t, "totals", "--file", empty)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &totals))
	assert.Equal(t, "0", totals["grandTotal"])
	assert.Equal(t, "Zero", totals["amountInWords"])

	_, err = runApp(t, "totals", "--file", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
