package cli

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/stockparts/internal/scan"
)

type env struct {
	configDir string
	dataDir   string
}

func newEnv(t *testing.T) env {
	t.Helper()
	for _, k := range []string{"BACKEND", "TABLE", "POLICY", "DB_SERVER", "DB_DATABASE", "DB_USERNAME", "DB_PASSWORD", "DATA_DIR", "CONFIG_DIR"} {
		t.Setenv("STOCKPARTS_"+k, "")
	}
	return env{configDir: t.TempDir(), dataDir: t.TempDir()}
}

// run executes the root command with args and returns stdout and stderr.
func (e env) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--config-dir", e.configDir, "--data-dir", e.dataDir, "--log-level", "error"}, args...))
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func (e env) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, errOut, err := e.run(t, args...)
	require.NoError(t, err, "stderr: %s", errOut)
	return out
}

func TestVersion(t *testing.T) {
	out := newEnv(t).mustRun(t, "version")
	assert.Contains(t, out, "stockparts v")
	assert.Contains(t, out, "github.com/mesh-intelligence/stockparts")
}

func TestInit(t *testing.T) {
	e := newEnv(t)

	out := e.mustRun(t, "init")
	assert.Contains(t, out, "Wrote")
	assert.Contains(t, out, "table StockOfParts, policy sequence")
	assert.FileExists(t, filepath.Join(e.configDir, "config.yaml"))
	assert.FileExists(t, filepath.Join(e.dataDir, "stockparts.db"))

	out = e.mustRun(t, "init")
	assert.NotContains(t, out, "Wrote")

	data, err := os.ReadFile(filepath.Join(e.configDir, "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "backend: sqlite")
	assert.NotContains(t, string(data), "password")
}

func add(sku, mfr, mpn string) []string {
	return []string{"add", "--sku", sku, "--manufacturer", mfr, "--part-number", mpn}
}

func TestAddSequence(t *testing.T) {
	e := newEnv(t)

	out := e.mustRun(t, add("999.000.932", "Siemens", "L24DF3")...)
	assert.Contains(t, out, "entry #1")
	out = e.mustRun(t, add(" 999.000.932 ", "Schneider", "X9")...)
	assert.Contains(t, out, "entry #2")

	out = e.mustRun(t, "count", "999.000.932")
	assert.Equal(t, "2\nSKU 999.000.932 will be entry #3\n", out)

	out = e.mustRun(t, "list")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "nth_entry")
	assert.Contains(t, lines[1], "Schneider")
	assert.Contains(t, lines[2], "Siemens")
}

func TestAddDuplicateFlag(t *testing.T) {
	e := newEnv(t)
	args := func(a ...string) []string { return append([]string{"--policy", "duplicate_flag", "--table", "Dups"}, a...) }

	out := e.mustRun(t, args(add("999.000.932", "Siemens", "L24DF3")...)...)
	assert.Contains(t, out, "is new")
	out = e.mustRun(t, args(add("999.000.932", "Schneider", "X9")...)...)
	assert.Contains(t, out, "duplicate")

	out = e.mustRun(t, args("--json", "list")...)
	assert.Contains(t, out, `"is_duplicate": true`)
}

func TestAddValidation(t *testing.T) {
	e := newEnv(t)
	_, _, err := e.run(t, add("999.000.932", "", "L24DF3")...)
	require.Error(t, err)
	assert.Equal(t, ExitUserError, ExitCode(err))
	assert.Contains(t, err.Error(), "Please fill in all fields.")
	assert.Contains(t, err.Error(), "manufacturer")

	out := e.mustRun(t, "count", "999.000.932")
	assert.True(t, strings.HasPrefix(out, "0\n"))
}

func TestSchemaMismatchIsSystemError(t *testing.T) {
	e := newEnv(t)
	e.mustRun(t, add("A", "B", "C")...)

	_, _, err := e.run(t, append([]string{"--policy", "duplicate_flag"}, add("A", "B", "C")...)...)
	require.Error(t, err)
	assert.Equal(t, ExitSysError, ExitCode(err))
}

func TestInvalidConfigIsUserError(t *testing.T) {
	e := newEnv(t)
	_, _, err := e.run(t, "--table", "bad-name", "list")
	require.Error(t, err)
	assert.Equal(t, ExitUserError, ExitCode(err))

	_, _, err = e.run(t, "--backend", "mssql", "list")
	require.Error(t, err)
	assert.Equal(t, ExitUserError, ExitCode(err))
}

func TestPostgresWithoutSecretsIsReportingOnly(t *testing.T) {
	e := newEnv(t)

	_, errOut, err := e.run(t, "--backend", "postgres", "list")
	require.NoError(t, err)
	assert.Contains(t, errOut, "Database is not configured")

	_, _, err = e.run(t, append([]string{"--backend", "postgres"}, add("A", "B", "C")...)...)
	require.Error(t, err)
	assert.Equal(t, ExitSysError, ExitCode(err))
	assert.Contains(t, err.Error(), "not configured")
}

func TestConfigFileAndEnv(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(e.configDir, "config.yaml"),
		[]byte("backend: sqlite\npolicy: duplicate_flag\ntable: FromFile\n"), 0o644))

	out := e.mustRun(t, "init")
	assert.Contains(t, out, "table FromFile, policy duplicate_flag")

	t.Setenv("STOCKPARTS_TABLE", "FromEnv")
	out = e.mustRun(t, "init")
	assert.Contains(t, out, "table FromEnv")

	// Flags win over env.
	out = e.mustRun(t, "--table", "FromFlag", "init")
	assert.Contains(t, out, "table FromFlag")
}

func TestDataDirFromConfigFile(t *testing.T) {
	e := newEnv(t)
	t.Setenv("STOCKPARTS_DATA_DIR", e.dataDir)
	require.NoError(t, os.WriteFile(filepath.Join(e.configDir, "config.yaml"),
		[]byte("backend: sqlite\ndata_dir: store\n"), 0o644))

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{"--config-dir", e.configDir, "--log-level", "error"}, add("A", "B", "C")...))
	require.NoError(t, root.Execute())

	assert.FileExists(t, filepath.Join(e.configDir, "store", "stockparts.db"),
		"data_dir in config.yaml wins over the environment")
	assert.NoFileExists(t, filepath.Join(e.dataDir, "stockparts.db"))
}

func TestMalformedConfigFileIsSystemError(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(e.configDir, "config.yaml"),
		[]byte("data_dir: [\n"), 0o644))

	_, _, err := e.run(t, "list")
	require.Error(t, err)
	assert.Equal(t, ExitSysError, ExitCode(err))
	assert.Contains(t, err.Error(), "config.yaml")
}

func TestExport(t *testing.T) {
	e := newEnv(t)

	out := e.mustRun(t, "export", "-o", "-")
	assert.Equal(t, "SKU,manufacturer,manufacturer_part_number,nth_entry\n", out)

	e.mustRun(t, add("999.000.932", "Siemens", "L24DF3")...)
	path := filepath.Join(t.TempDir(), "barcode_entries.csv")
	out = e.mustRun(t, "export", "--output", path)
	assert.Contains(t, out, "Exported 1 entries")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "SKU,manufacturer,manufacturer_part_number,nth_entry\n999.000.932,Siemens,L24DF3,1\n", string(data))

	jsonl := filepath.Join(t.TempDir(), "entries.jsonl")
	e.mustRun(t, "export", "--format", "jsonl", "--output", jsonl)
	data, err = os.ReadFile(jsonl)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"nth_entry":1`)

	_, _, err = e.run(t, "export", "--format", "xlsx")
	assert.Equal(t, ExitUserError, ExitCode(err))
}

func withDecoder(t *testing.T, text string, ok bool) {
	t.Helper()
	prev := newDecoder
	newDecoder = func() scan.Decoder {
		return scan.DecoderFunc(func(image.Image) (string, bool) { return text, ok })
	}
	t.Cleanup(func() { newDecoder = prev })
}

func writePNG(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "label.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewGray(image.Rect(0, 0, 4, 4))))
	require.NoError(t, f.Close())
	return path
}

func TestScan(t *testing.T) {
	e := newEnv(t)
	img := writePNG(t)

	withDecoder(t, "999.000.932", true)
	assert.Equal(t, "999.000.932\n", e.mustRun(t, "scan", img))

	e.mustRun(t, add("999.000.932", "Siemens", "L24DF3")...)
	out := e.mustRun(t, "scan", "--preview", img)
	assert.Contains(t, out, "will be entry #2")

	withDecoder(t, "", false)
	_, _, err := e.run(t, "scan", img)
	assert.Equal(t, ExitUserError, ExitCode(err))

	_, _, err = e.run(t, "scan", filepath.Join(t.TempDir(), "missing.png"))
	assert.Equal(t, ExitUserError, ExitCode(err))
}

type scriptedPrompter struct {
	lines   []string
	prompts []string
	history []string
}

func (s *scriptedPrompter) Prompt(prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func (s *scriptedPrompter) AppendHistory(item string) { s.history = append(s.history, item) }
func (s *scriptedPrompter) Close() error              { return nil }

func withPrompter(t *testing.T, lines ...string) *scriptedPrompter {
	t.Helper()
	sp := &scriptedPrompter{lines: lines}
	prev := newPrompter
	newPrompter = func() prompter { return sp }
	t.Cleanup(func() { newPrompter = prev })
	return sp
}

func TestEntryInteractive(t *testing.T) {
	e := newEnv(t)
	img := writePNG(t)
	withDecoder(t, "X9", true)
	sp := withPrompter(t,
		"999.000.932", "Siemens", "L24DF3",
		"999.000.932", "Schneider", "@"+img,
		"", "Pils", "P-7",
		"999.000.933",
		".quit",
	)

	out := e.mustRun(t, "entry")
	assert.Contains(t, out, "SKU 999.000.932 will be entry #1")
	assert.Contains(t, out, "entry #1")
	assert.Contains(t, out, "Scanned Manufacturer Part Number: X9")
	assert.Contains(t, out, "entry #2")
	assert.Contains(t, out, "Please fill in all fields.")
	assert.Contains(t, out, "SKU 999.000.933 will be entry #1")
	assert.NotContains(t, sp.history, "")

	// After the validation error only the empty SKU is asked again.
	require.Len(t, sp.prompts, 11)
	assert.Equal(t, []string{"SKU: ", "SKU: "}, sp.prompts[9:])

	out = e.mustRun(t, "list")
	assert.Contains(t, out, "X9")
	assert.Contains(t, out, "Pils")
	assert.Contains(t, out, "P-7")
}

func TestEntryStoreErrorClearsForm(t *testing.T) {
	e := newEnv(t)
	sp := withPrompter(t,
		"A", "B", "C",
		".quit",
	)

	// Missing postgres secrets leave the form unsavable; the next prompt
	// starts a fresh form instead of resubmitting the same values.
	out, _, err := e.run(t, "--backend", "postgres", "entry")
	require.NoError(t, err)
	assert.Contains(t, out, "Database is not configured")
	assert.Contains(t, out, "cannot be saved")
	assert.Equal(t, []string{"SKU: ", "Manufacturer: ", "Manufacturer Part Number: ", "SKU: "}, sp.prompts)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, ExitCode(nil))
	assert.Equal(t, ExitUserError, ExitCode(errors.New("unknown flag")))
	assert.Equal(t, ExitSysError, ExitCode(sysError("x", errors.New("y"))))
	assert.Equal(t, "x: y", sysError("x", errors.New("y")).Error())
}
