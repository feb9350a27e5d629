package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/af-corp/textguard/internal/moderation"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	app := newApp()
	var out bytes.Buffer
	app.Reader = strings.NewReader(stdin)
	app.Writer = &out
	app.ErrWriter = &out
	app.ExitErrHandler = func(*cli.Context, error) {}
	err := app.RunContext(context.Background(), append([]string{"modcheck"}, args...))
	return out.String(), err
}

func TestFilterStdin(t *testing.T) {
	out, err := run(t, "Привет, как дела?\nvisit https://example.com\n", "filter")

	var exit cli.ExitCoder
	require.ErrorAs(t, err, &exit)
	assert.Equal(t, 3, exit.ExitCode())

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "ACCEPT\tПривет, как дела?", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "REJECT\tlinks_contacts\t"))
}

func TestFilterArgsAllAccepted(t *testing.T) {
	out, err := run(t, "", "filter", "Расскажи, как устроен планировщик горутин")
	require.NoError(t, err)
	assert.Equal(t, "ACCEPT\tРасскажи, как устроен планировщик горутин\n", out)
}

func TestFilterWithRulesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("lexical_terms:\n  - жопа\n"), 0o644))

	out, err := run(t, "", "filter", "--rules", path, "ну ты жопа")
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(out, "REJECT\tprofanity\t"))
}

func TestReport(t *testing.T) {
	out, err := run(t, "This is a shit message\n", "report")
	require.NoError(t, err)

	var r moderation.Report
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, moderation.CategoryProfanity, r.Verdict.Category)
}

func TestUnclear(t *testing.T) {
	out, err := run(t, "что\nРасскажи, как устроен планировщик горутин\n", "unclear")
	require.NoError(t, err)
	assert.Equal(t, "true\tчто\nfalse\tРасскажи, как устроен планировщик горутин\n", out)
}
