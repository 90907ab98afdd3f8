package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const nestedBits = `# one cluster per line
11111111
11111100
00001111
11100000
00110000
00001100
00000011
`

const nestedDDOT = `Parent	Child	Type
0_0	1_1	Child-Parent
0_0	2_2	Child-Parent
1_1	3_3	Child-Parent
1_1	D	Gene-Term
2_2	5_5	Child-Parent
2_2	6_6	Child-Parent
3_3	A	Gene-Term
3_3	B	Gene-Term
3_3	C	Gene-Term
5_5	E	Gene-Term
5_5	F	Gene-Term
6_6	G	Gene-Term
6_6	H	Gene-Term
`

// fixture writes the nested example and returns the partition file, the
// terminal file and the directory holding both.
func fixture(t *testing.T) (parts, terms, dir string) {
	t.Helper()
	dir = t.TempDir()
	parts = filepath.Join(dir, "nested.txt")
	terms = filepath.Join(dir, "terminals.txt")
	require.NoError(t, os.WriteFile(parts, []byte(nestedBits), 0o644))
	require.NoError(t, os.WriteFile(terms, []byte(strings.Join(strings.Split("ABCDEFGH", ""), "\n")+"\n"), 0o644))
	return parts, terms, dir
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := Execute(context.Background(), args, &out, &errOut)
	return out.String(), errOut.String(), err
}

func TestWeave_Stdout(t *testing.T) {
	parts, terms, _ := fixture(t)

	out, _, err := run(t, "weave", parts,
		"--format", "bits", "--terminals", terms,
		"--cutoff", "0.9", "--top", "10", "--no-cache")
	require.NoError(t, err)
	assert.Equal(t, nestedDDOT, out)
}

func TestWeave_ConfigFile(t *testing.T) {
	parts, _, dir := fixture(t)
	cfgPath := filepath.Join(dir, "hiweave.toml")
	cfg := `
[input]
format = "bits"
terminals = "terminals.txt"

[build]
cutoff = 0.9

[pick]
percentage_edges = 10

[cache]
dir = "` + filepath.ToSlash(filepath.Join(dir, "cache")) + `"
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	ddot := filepath.Join(dir, "out.ddot")
	jsonPath := filepath.Join(dir, "out.json")
	dot := filepath.Join(dir, "out.dot")

	args := []string{"--config", cfgPath, "weave", parts, "--out", ddot, "--json", jsonPath, "--dot", dot}
	out, _, err := run(t, args...)
	require.NoError(t, err)
	assert.Contains(t, out, "Woven hierarchy")
	assert.Contains(t, out, "fresh")
	assert.Contains(t, out, ddot)

	got, err := os.ReadFile(ddot)
	require.NoError(t, err)
	assert.Equal(t, nestedDDOT, string(got))
	assert.FileExists(t, jsonPath)
	dotSrc, err := os.ReadFile(dot)
	require.NoError(t, err)
	assert.Contains(t, string(dotSrc), "digraph")

	// The second run is served from the cache.
	out, _, err = run(t, args...)
	require.NoError(t, err)
	assert.Contains(t, out, "cached")

	// Flags override the file.
	out, _, err = run(t, "--config", cfgPath, "weave", parts, "--top", "100", "--no-cache")
	require.NoError(t, err)
	assert.NotEqual(t, nestedDDOT, out)
}

func TestWeave_Metrics(t *testing.T) {
	parts, terms, _ := fixture(t)

	out, errOut, err := run(t, "weave", parts,
		"-f", "bits", "-t", terms, "--cutoff", "0.9", "--top", "10", "--no-cache", "--metrics")
	require.NoError(t, err)
	assert.Equal(t, nestedDDOT, out, "stdout carries only the ddot rows")
	assert.Contains(t, errOut, "hiweave_stage_duration_seconds")
	assert.Contains(t, errOut, "hiweave_graph_nodes")
}

func TestWeave_Errors(t *testing.T) {
	parts, terms, dir := fixture(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"cutoff range", []string{"weave", parts, "-f", "bits", "--cutoff", "0.2", "--no-cache"}, "cutoff"},
		{"bad format", []string{"weave", parts, "-f", "csv", "--no-cache"}, "format"},
		{"missing file", []string{"weave", filepath.Join(dir, "nope.txt"), "--no-cache"}, "nope.txt"},
		{"bad edge", []string{"weave", parts, "-f", "bits", "-t", terms, "-e", "1_1", "--no-cache"}, "FROM,TO"},
		{"unknown node", []string{"weave", parts, "-f", "bits", "-t", terms, "-e", "1_1,Z", "--no-cache"}, "unknown node"},
		{"missing config", []string{"--config", filepath.Join(dir, "none.toml"), "weave", parts}, "none.toml"},
		{"bad level keys", []string{"weave", parts, "-f", "bits", "--level-keys", "0,x", "--no-cache"}, "level key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRecover(t *testing.T) {
	parts, terms, _ := fixture(t)
	base := []string{"recover", parts, "-f", "bits", "-t", terms, "--cutoff", "0.9", "--top", "10"}

	out, _, err := run(t, append(base, "--depth", "1")...)
	require.NoError(t, err)
	assert.Equal(t, "1 1 1 1 2 2 2 2\n", out)

	out, _, err = run(t, append(base, "--depth", "2")...)
	require.NoError(t, err)
	assert.Equal(t, "2 2 2 1 3 3 4 4\n", out)

	out, _, err = run(t, append(base, "--depth", "1", "--clusters")...)
	require.NoError(t, err)
	assert.Contains(t, out, "1_1")
	assert.Contains(t, out, "2_2")
	assert.Contains(t, out, "4 terminals")
	assert.Contains(t, out, "6 terminals")

	_, _, err = run(t, base...)
	assert.Error(t, err, "recover without --depth or --level")

	_, _, err = run(t, append(base, "--depth", "1", "--level", "2")...)
	assert.Error(t, err, "recover with both --depth and --level")
}

func TestRecover_Level(t *testing.T) {
	parts, terms, _ := fixture(t)

	out, _, err := run(t, "recover", parts, "-f", "bits", "-t", terms,
		"--cutoff", "0.9", "--top", "10", "--levels", "--level", "1")
	require.NoError(t, err)
	assert.Equal(t, "1 1 1 1 1 1 0 0\n", out)
}

func TestCachePathAndClear(t *testing.T) {
	parts, terms, dir := fixture(t)
	cacheDir := filepath.Join(dir, "cache")
	cfgPath := filepath.Join(dir, "hiweave.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("cache:\n  dir: "+filepath.ToSlash(cacheDir)+"\n"), 0o644))

	out, _, err := run(t, "--config", cfgPath, "cache", "path")
	require.NoError(t, err)
	assert.Equal(t, filepath.ToSlash(cacheDir)+"\n", filepath.ToSlash(out))

	out, _, err = run(t, "--config", cfgPath, "cache", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Cache is empty")

	_, _, err = run(t, "--config", cfgPath, "weave", parts, "-f", "bits", "-t", terms)
	require.NoError(t, err)

	out, _, err = run(t, "--config", cfgPath, "cache", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Cleared 1 cached entries")
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "hiweave version")
}

func TestCompletion(t *testing.T) {
	out, _, err := run(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "hiweave")

	_, _, err = run(t, "completion", "tcsh")
	assert.Error(t, err)
}
