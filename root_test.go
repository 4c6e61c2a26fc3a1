package main

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testCLILogger returns a logger that discards output, shared by the
// root-level command tests to avoid cluttering test output.
func testCLILogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func resetLogFlags() {
	flagDebug = false
	flagVerbose = false
	flagQuiet = false
}

func TestBuildLogger_Default(t *testing.T) {
	resetLogFlags()
	defer resetLogFlags()

	logger := buildLogger()

	assert.True(t, logger.Handler().Enabled(context.Background(), slog.LevelWarn))
	assert.False(t, logger.Handler().Enabled(context.Background(), slog.LevelInfo))
}

func TestBuildLogger_Verbose(t *testing.T) {
	resetLogFlags()
	defer resetLogFlags()

	flagVerbose = true

	logger := buildLogger()

	assert.True(t, logger.Handler().Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, logger.Handler().Enabled(context.Background(), slog.LevelDebug))
}

func TestBuildLogger_Debug(t *testing.T) {
	resetLogFlags()
	defer resetLogFlags()

	flagDebug = true

	logger := buildLogger()

	assert.True(t, logger.Handler().Enabled(context.Background(), slog.LevelDebug))
}

func TestBuildLogger_Quiet(t *testing.T) {
	resetLogFlags()
	defer resetLogFlags()

	flagQuiet = true

	logger := buildLogger()

	assert.True(t, logger.Handler().Enabled(context.Background(), slog.LevelError))
	assert.False(t, logger.Handler().Enabled(context.Background(), slog.LevelWarn))
}

func TestCliContextFrom_NilContext(t *testing.T) {
	ctx := context.Background()
	cc := cliContextFrom(ctx)
	assert.Nil(t, cc)
}

func TestCliContextFrom_WithCLIContext(t *testing.T) {
	expected := &CLIContext{Logger: buildLogger()}
	ctx := context.WithValue(context.Background(), cliContextKey{}, expected)
	cc := cliContextFrom(ctx)
	assert.Equal(t, expected, cc)
}

func TestMustCLIContext_Panics(t *testing.T) {
	assert.PanicsWithValue(t,
		"BUG: CLIContext not found in context",
		func() { mustCLIContext(context.Background()) },
	)
}

func TestMustCLIContext_Returns(t *testing.T) {
	expected := &CLIContext{Logger: buildLogger()}
	ctx := context.WithValue(context.Background(), cliContextKey{}, expected)
	cc := mustCLIContext(ctx)
	assert.Equal(t, expected, cc)
}

func TestNewRootCmd_Subcommands(t *testing.T) {
	cmd := newRootCmd()

	expected := []string{"task", "sync", "conflicts", "status", "serve-metrics"}
	for _, name := range expected {
		found := false

		for _, sub := range cmd.Commands() {
			if sub.Name() == name {
				found = true

				break
			}
		}

		assert.True(t, found, "expected subcommand %q not found", name)
	}
}

func TestNewRootCmd_PersistentFlags(t *testing.T) {
	cmd := newRootCmd()

	expectedFlags := []string{"config", "task", "json", "verbose", "debug", "quiet"}
	for _, name := range expectedFlags {
		flag := cmd.PersistentFlags().Lookup(name)
		assert.NotNil(t, flag, "expected persistent flag %q not found", name)
	}
}

func TestNewRootCmd_MutualExclusivity(t *testing.T) {
	pairs := [][]string{
		{"--verbose", "--debug"},
		{"--verbose", "--quiet"},
		{"--debug", "--quiet"},
	}

	for _, flags := range pairs {
		t.Run(flags[0]+"_"+flags[1], func(t *testing.T) {
			resetLogFlags()

			cmd := newRootCmd()
			cmd.SetArgs(append(flags, "status"))

			err := cmd.Execute()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "none of the others can be")
		})
	}

	resetLogFlags()
}

func TestNewTaskCmd_Subcommands(t *testing.T) {
	cmd := newTaskCmd()

	expected := []string{"add", "list", "remove", "test"}
	for _, name := range expected {
		found := false

		for _, sub := range cmd.Commands() {
			if sub.Name() == name {
				found = true

				break
			}
		}

		assert.True(t, found, "expected task subcommand %q not found", name)
	}
}

func TestNewSyncCmd_Subcommands(t *testing.T) {
	cmd := newSyncCmd()

	expected := []string{"run", "watch"}
	for _, name := range expected {
		found := false

		for _, sub := range cmd.Commands() {
			if sub.Name() == name {
				found = true

				break
			}
		}

		assert.True(t, found, "expected sync subcommand %q not found", name)
	}
}

func TestNewConflictsCmd_Subcommands(t *testing.T) {
	cmd := newConflictsCmd()

	expected := []string{"list", "resolve"}
	for _, name := range expected {
		found := false

		for _, sub := range cmd.Commands() {
			if sub.Name() == name {
				found = true

				break
			}
		}

		assert.True(t, found, "expected conflicts subcommand %q not found", name)
	}
}
