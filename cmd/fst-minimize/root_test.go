package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Two paths that share their suffix; minimization merges states 1 and 3.
const redundant = "0\t1\ta\ta\n1\t2\tb\tb\n0\t3\tc\tc\n3\t2\tb\tb\n2\n"

const redundantMinimal = "0\t1\ta\ta\n0\t1\tc\tc\n1\t2\tb\tb\n2\n"

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestMinimizeCommand(t *testing.T) {
	t.Run("testStdin", func(t *testing.T) {
		out, _, err := execute(t, redundant, "-")
		require.NoError(t, err)
		assert.Equal(t, redundantMinimal, out)
	})

	t.Run("testFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "in.att")
		require.NoError(t, os.WriteFile(path, []byte(redundant), 0o644))

		out, _, err := execute(t, "", path)
		require.NoError(t, err)
		assert.Equal(t, redundantMinimal, out)
	})

	t.Run("testOutputFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.att")
		out, _, err := execute(t, redundant, "-o", path, "-")
		require.NoError(t, err)
		assert.Empty(t, out)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, redundantMinimal, string(data))
	})

	t.Run("testStream", func(t *testing.T) {
		out, _, err := execute(t, redundant+"--\n0\t0\tx\tx\n0\n", "-")
		require.NoError(t, err)
		assert.Equal(t, redundantMinimal+"--\n0\t0\tx\tx\n0\n", out)
	})

	t.Run("testWeighted", func(t *testing.T) {
		in := "0\t1\ta\ta\t1\n0\t2\tb\tb\t2\n1\t3\tc\tc\t3\n2\t4\tc\tc\t4\n3\t0\n4\t0\n"
		out, _, err := execute(t, in, "-")
		require.NoError(t, err)
		assert.Equal(t, "0\t1\ta\ta\t4\n0\t1\tb\tb\t6\n1\t2\tc\tc\t0\n2\t0\n", out)
	})

	t.Run("testYAML", func(t *testing.T) {
		in := "kind: unweighted\nstates: 3\nfinals:\n  - state: 1\n  - state: 2\narcs:\n" +
			"  - {from: 0, to: 1, in: a, out: a}\n  - {from: 0, to: 2, in: b, out: b}\n"
		out, _, err := execute(t, in, "--format", "yaml", "-")
		require.NoError(t, err)
		assert.Contains(t, out, "states: 2")
		assert.Contains(t, out, "kind: unweighted")
	})

	t.Run("testEmptyRelationRoundTrip", func(t *testing.T) {
		inputs := []string{
			"0\t1\ta\ta\n1\n--\n0\t1\tb\tb\n",
			"0\t1\ta\ta\t1.5\n--\n0\t1\tb\tb\t0.5\n1\t0\n",
		}
		for _, in := range inputs {
			out, _, err := execute(t, in, "-")
			require.NoError(t, err)
			assert.Contains(t, out, "0\t+Inf\n")

			// Minimizing the output again changes nothing and keeps both transducers.
			again, _, err := execute(t, out, "-")
			require.NoError(t, err)
			assert.Equal(t, out, again)
			assert.Equal(t, 1, strings.Count(again, "--\n"))
		}
	})

	t.Run("testSlowLogCycle", func(t *testing.T) {
		in := "0\t0\ta\ta\t0.001\n0\t0\n"
		out, _, err := execute(t, in, "--semiring", "log", "-")
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(out), "\n")
		require.Len(t, lines, 2)
		assert.True(t, strings.HasPrefix(lines[0], "0\t0\ta\ta\t"), lines[0])
		assert.Equal(t, "0\t0", lines[1])

		_, _, err = execute(t, in, "--semiring", "log", "--max-relaxations", "100", "-")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "numeric instability")
	})

	t.Run("testOutputWriteFails", func(t *testing.T) {
		if _, err := os.Stat("/dev/full"); err != nil {
			t.Skip("no /dev/full")
		}
		_, _, err := execute(t, redundant, "-o", "/dev/full", "-")
		assert.Error(t, err)
	})

	t.Run("testVerbose", func(t *testing.T) {
		_, logs, err := execute(t, redundant, "-v", "-")
		require.NoError(t, err)
		assert.Contains(t, logs, "states_out=3")
	})
}

func TestMinimizeCommandJobs(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 25; i++ {
		if i > 0 {
			sb.WriteString("--\n")
		}
		if i%2 == 0 {
			sb.WriteString(redundant)
		} else {
			sb.WriteString("0\t0\tx\tx\n0\n")
		}
	}
	input := sb.String()

	sequential, _, err := execute(t, input, "-")
	require.NoError(t, err)

	for _, jobs := range []string{"2", "4", "0"} {
		t.Run("jobs="+jobs, func(t *testing.T) {
			parallel, _, err := execute(t, input, "-j", jobs, "-")
			require.NoError(t, err)
			assert.Equal(t, sequential, parallel)
		})
	}
}

func TestMinimizeCommandInvalid(t *testing.T) {
	nondeterministic := "0\t1\ta\ta\n0\t2\ta\tb\n1\n2\n"
	input := redundant + "--\n" + nondeterministic + "--\n" + redundant

	t.Run("testAbort", func(t *testing.T) {
		_, _, err := execute(t, input, "-")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "transducer 1")
	})

	t.Run("testSkip", func(t *testing.T) {
		for _, jobs := range []string{"1", "3"} {
			out, logs, err := execute(t, input, "--skip-invalid", "-j", jobs, "-")
			require.NoError(t, err)
			assert.Equal(t, redundantMinimal+"--\n"+redundantMinimal, out)
			assert.Contains(t, logs, "skipping transducer")
			assert.Contains(t, logs, "skipped=1")
		}
	})

	t.Run("testMalformed", func(t *testing.T) {
		_, _, err := execute(t, "0\t1\ta\n", "-")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "line 1")
	})

	t.Run("testInstability", func(t *testing.T) {
		in := "0\t1\ta\ta\t0\n0\t2\tb\tb\t0\n1\t3\tc\tc\t1.2\n2\t3\tc\tc\t1.3\n1\t0\n2\t0\n3\t0\n"
		_, _, err := execute(t, in, "--delta", "0.5", "-")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "numeric instability")

		_, logs, err := execute(t, in, "--delta", "0.5", "--on-instability", "warn", "-")
		require.NoError(t, err)
		assert.Contains(t, logs, "weights too close")
	})
}

func TestMinimizeCommandFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missingFile", []string{filepath.Join(os.TempDir(), "does-not-exist.att")}, "cannot open input"},
		{"noArgs", nil, "accepts 1 arg"},
		{"format", []string{"--format", "json", "-"}, "unknown stream format"},
		{"semiring", []string{"--semiring", "real", "-"}, "unknown semiring"},
		{"instability", []string{"--on-instability", "ignore", "-"}, "--on-instability"},
		{"jobs", []string{"-j", "-1", "-"}, "--jobs"},
		{"delta", []string{"--delta", "0", "-"}, "--delta"},
		{"maxRelaxations", []string{"--max-relaxations", "0", "-"}, "--max-relaxations"},
		{"outputDir", []string{"-o", os.TempDir(), "-"}, "cannot create output"},
		{"verboseQuiet", []string{"-v", "-q", "-"}, "none of the others can be"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, redundant, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
