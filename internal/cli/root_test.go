package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bookshelf/internal/testutil"
)

// shell runs root commands against one database, like a user at a prompt.
type shell struct {
	t    *testing.T
	args []string
}

func newShell(t *testing.T, backend string) *shell {
	t.Helper()
	dir := t.TempDir()
	db := filepath.Join(dir, "shelf.db")
	if backend == "badger" {
		db = filepath.Join(dir, "shelf")
	}
	return &shell{t: t, args: []string{"--db", db, "--backend", backend, "--max-length", "10"}}
}

func (s *shell) run(args ...string) (stdout, stderr string, err error) {
	s.t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := newRootCommand(&RootOptions{IDGenerator: testutil.NewSequentialIDGenerator("dispatch")})
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	// Test args come last so they override the shell's defaults.
	cmd.SetArgs(append(append([]string{}, s.args...), args...))
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "bookshelf", cmd.Use)
	assert.Contains(t, cmd.Long, "bounded titles")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"create", "remove", "get", "events", "verify", "test"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	for _, name := range []string{"config", "db", "backend", "max-length"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
}

func TestDispatchCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"create", "remove"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		asFlag := sub.Flags().Lookup("as")
		require.NotNil(t, asFlag, name)
		assert.Equal(t, "", asFlag.DefValue)
	}
}

func TestEventsCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	eventsCmd, _, err := cmd.Find([]string{"events"})
	require.NoError(t, err)

	for _, name := range []string{"after", "limit", "book"} {
		assert.NotNil(t, eventsCmd.Flags().Lookup(name), name)
	}
}

func TestInvalidFormat(t *testing.T) {
	sh := newShell(t, "sqlite")
	_, _, err := sh.run("events", "--format", "yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid format "yaml"`)
}

func TestReferenceWalkthrough(t *testing.T) {
	for _, backend := range []string{"sqlite", "badger"} {
		t.Run(backend, func(t *testing.T) {
			sh := newShell(t, backend)

			out, _, err := sh.run("create", "b1", "Dune", "SciFi", "--as", "alice")
			require.NoError(t, err)
			assert.Contains(t, out, "create_book Ok (weight 50000000)")
			assert.Contains(t, out, `[1] BookCreated caller=alice book_id="b1"`)

			out, _, err = sh.run("create", "b1", "X", "Y", "--as", "bob")
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))
			assert.Contains(t, out, "Error [BookIdAlreadyExists]")

			out, _, err = sh.run("create", "toolongkey1", "T", "D", "--as", "alice")
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))
			assert.Contains(t, out, "Error [TooLong]")

			out, _, err = sh.run("remove", "b1", "--as", "alice")
			require.NoError(t, err)
			assert.Contains(t, out, `[2] BookRemoved caller=alice book_id="b1"`)

			out, _, err = sh.run("remove", "b1", "--as", "alice")
			require.Error(t, err)
			assert.Contains(t, out, "Error [BookNotFound]")

			_, _, err = sh.run("create", "b2", "", "", "--as", "alice")
			require.NoError(t, err)

			out, _, err = sh.run("get", "b2", "--format", "json")
			require.NoError(t, err)
			var resp struct {
				Status string   `json:"status"`
				Data   BookView `json:"data"`
			}
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			assert.Equal(t, BookView{BookID: "b2"}, resp.Data)

			out, _, err = sh.run("verify")
			require.NoError(t, err)
			assert.Contains(t, out, "events:     3 (last seq 3)")
			assert.Contains(t, out, "✓ log and records agree")
		})
	}
}

func TestGetMissing(t *testing.T) {
	sh := newShell(t, "sqlite")

	out, _, err := sh.run("get", "ghost")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, `Error [BookNotFound]: no book with id "ghost"`)

	out, _, err = sh.run("get", "much-too-long-id")
	require.Error(t, err)
	assert.Contains(t, out, "Error [TooLong]")
}

func TestCreateRequiresCaller(t *testing.T) {
	sh := newShell(t, "sqlite")
	_, _, err := sh.run("create", "b1", "Dune", "SciFi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "as" not set`)
}

func TestCreateJSON(t *testing.T) {
	sh := newShell(t, "sqlite")

	out, _, err := sh.run("create", "b1", "Dune", "SciFi", "--as", "alice", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   ReceiptView `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "dispatch-001", resp.Data.DispatchID)
	assert.Equal(t, "Ok", resp.Data.Outcome)
	require.Len(t, resp.Data.Events, 1)
	assert.Equal(t, "BookCreated", resp.Data.Events[0].Kind)
	assert.Len(t, resp.Data.Events[0].ID, 64)
}

func TestEventsPagingAndHistory(t *testing.T) {
	sh := newShell(t, "badger")
	for _, id := range []string{"a", "b", "c"} {
		_, _, err := sh.run("create", id, "t", "d", "--as", "alice")
		require.NoError(t, err)
	}
	_, _, err := sh.run("remove", "a", "--as", "bob")
	require.NoError(t, err)

	out, _, err := sh.run("events", "--after", "1", "--limit", "2", "--format", "json")
	require.NoError(t, err)
	var resp struct {
		Data EventList `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Events, 2)
	assert.Equal(t, int64(2), resp.Data.Events[0].Seq)
	assert.Equal(t, int64(3), resp.Data.Events[1].Seq)
	assert.Equal(t, int64(4), resp.Data.LastSeq)

	out, _, err = sh.run("events", "--book", "a")
	require.NoError(t, err)
	assert.Contains(t, out, `[1] BookCreated caller=alice book_id="a"`)
	assert.Contains(t, out, `[4] BookRemoved caller=bob book_id="a"`)
	assert.Contains(t, out, "2 event(s), last seq 4")

	_, _, err = sh.run("events", "--book", "a", "--limit", "1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "bookshelf.yaml")
	db := filepath.Join(dir, "from-config.db")
	require.NoError(t, os.WriteFile(cfgPath, []byte("database: "+db+"\nmax_length: 4\nlog_level: debug\n"), 0644))

	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs([]string{"create", "abcde", "t", "d", "--as", "alice", "--config", cfgPath})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, out.String(), "Error [TooLong]")
	assert.Contains(t, errOut.String(), "opening backend")
	assert.FileExists(t, db)
}

func TestConfigDatabaseFollowsBackend(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"defaults", nil, "bookshelf.db"},
		{"badger flag", []string{"--backend", "badger"}, "bookshelf.badger"},
		{"badger flag with db", []string{"--backend", "badger", "--db", "/tmp/shelf"}, "/tmp/shelf"},
		{"sqlite flag", []string{"--backend", "sqlite"}, "bookshelf.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := &RootOptions{}
			cmd := newRootCommand(opts)
			require.NoError(t, cmd.ParseFlags(tt.args))

			cfg, err := opts.loadConfig(cmd)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Database)
		})
	}
}

func TestConfigInvalid(t *testing.T) {
	sh := newShell(t, "sqlite")
	_, _, err := sh.run("events", "--max-length", "0")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestVerboseLogsToStderr(t *testing.T) {
	sh := newShell(t, "sqlite")
	out, errOut, err := sh.run("create", "b1", "Dune", "SciFi", "--as", "alice", "--verbose", "--format", "json")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "stdout must stay pure JSON")
	assert.Contains(t, errOut, `"dispatch_id":"dispatch-001"`)
	assert.Contains(t, errOut, `"message":"dispatch committed"`)
}

func TestVersionFlag(t *testing.T) {
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetArgs([]string{"--version"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "bookshelf version 0.1.0")
}
