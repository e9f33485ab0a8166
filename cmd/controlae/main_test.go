package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/controlae/internal/apitest"
	"github.com/pribylovaa/controlae/internal/clients"
)

type cli struct {
	t   *testing.T
	srv *apitest.Server
}

// newCLI поднимает фейковый бэкенд и файловую сессию во временном каталоге.
// t.Setenv исключает t.Parallel.
func newCLI(t *testing.T) *cli {
	t.Helper()

	srv := apitest.New(t)
	dir := t.TempDir()

	t.Setenv("ENV", "prod")
	t.Setenv("API_BASE_URL", srv.BaseURL())
	t.Setenv("SESSION_BACKEND", "file")
	t.Setenv("SESSION_PATH", filepath.Join(dir, "session.json"))
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("CONTROLAE_PASSWORD", "")

	return &cli{t: t, srv: srv}
}

func (c *cli) run(args ...string) (int, string, string) {
	c.t.Helper()

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), append([]string{"-quiet"}, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_UsageErrors(t *testing.T) {
	c := newCLI(t)

	code, _, _ := c.run()
	require.Equal(t, exitUsage, code)

	code, _, stderr := c.run("nope")
	require.Equal(t, exitUsage, code)
	require.Contains(t, stderr, `unknown command "nope"`)

	code, _, _ = c.run("-help")
	require.Equal(t, exitOK, code)
}

func TestRun_GuardRedirectsWithoutSession(t *testing.T) {
	c := newCLI(t)

	code, _, stderr := c.run("transactions", "list")
	require.Equal(t, exitFailure, code)
	require.Contains(t, stderr, "/entrar?returnUrl=%2Ftransacoes")
	require.Zero(t, c.srv.Unauthorized(), "guard must stop before any request")
}

func TestRun_LoginAndFinanceFlow(t *testing.T) {
	c := newCLI(t)
	c.srv.AddUser("ana", "s3cret-pass")
	c.srv.AddAccount("Carteira", 5000)

	code, out, stderr := c.run("login", "-username", "ana", "-password", "s3cret-pass")
	require.Equal(t, exitOK, code, stderr)
	require.Contains(t, out, "Bem-vindo, ana!")

	code, out, _ = c.run("status")
	require.Equal(t, exitOK, code)
	require.Contains(t, out, "ana")

	code, out, stderr = c.run("categories", "add", "-nome", "Lanche", "-tipo", "saida")
	require.Equal(t, exitOK, code, stderr)
	require.Contains(t, out, "Lanche")

	code, out, _ = c.run("accounts", "list")
	require.Equal(t, exitOK, code)
	require.Contains(t, out, "Carteira")

	code, _, stderr = c.run("transactions", "list")
	require.Equal(t, exitOK, code, stderr)

	// Истёкший access обновляется прозрачно.
	c.srv.ExpireAccessTokens()
	code, _, stderr = c.run("goals", "list")
	require.Equal(t, exitOK, code, stderr)
	require.Equal(t, 1, c.srv.RefreshCalls())

	code, out, _ = c.run("logout")
	require.Equal(t, exitOK, code)
	require.Contains(t, out, "Sessão encerrada.")

	code, _, _ = c.run("dashboard")
	require.Equal(t, exitFailure, code)
}

func TestRun_BadIDIsUsageError(t *testing.T) {
	c := newCLI(t)
	c.srv.AddUser("ana", "s3cret-pass")

	code, _, _ := c.run("login", "-username", "ana", "-password", "s3cret-pass")
	require.Equal(t, exitOK, code)

	code, _, stderr := c.run("goals", "progress", "abc")
	require.Equal(t, exitUsage, code)
	require.Contains(t, stderr, "invalid id")
}

func TestRun_RemindersDoneIsLocal(t *testing.T) {
	c := newCLI(t)
	c.srv.AddUser("ana", "s3cret-pass")

	code, _, _ := c.run("login", "-username", "ana", "-password", "s3cret-pass")
	require.Equal(t, exitOK, code)

	code, out, stderr := c.run("reminders", "add", "-titulo", "Pagar luz", "-recorrencia", "mensal", "-data", "2025-05-10")
	require.Equal(t, exitOK, code, stderr)
	var id int64
	_, err := fmt.Sscanf(out, "Lembrete %d criado", &id)
	require.NoError(t, err)
	ref := strconv.FormatInt(id, 10)

	before := len(c.srv.Requests())
	code, out, _ = c.run("reminders", "done", ref)
	require.Equal(t, exitOK, code)
	require.Contains(t, out, "feito=sim")
	require.Equal(t, before, len(c.srv.Requests()))

	code, out, _ = c.run("reminders", "list")
	require.Equal(t, exitOK, code)
	require.Contains(t, out, "Feitos: "+ref)
}

func TestRun_ReportWritesFile(t *testing.T) {
	c := newCLI(t)
	c.srv.AddUser("ana", "s3cret-pass")
	dir := t.TempDir()

	code, _, _ := c.run("login", "-username", "ana", "-password", "s3cret-pass")
	require.Equal(t, exitOK, code)

	code, out, stderr := c.run("report", "pdf", "-from", "2025-04-01", "-to", "2025-04-30", "-out", dir)
	require.Equal(t, exitOK, code, stderr)
	require.Contains(t, out, "Relatório salvo em")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.True(t, strings.HasPrefix(entries[0].Name(), "relatorio_financeiro_"))

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte(apitest.PDFMagic)))
}

func TestReportPath(t *testing.T) {
	t.Parallel()

	dir := filepath.Join("out", "reports")
	cases := map[string]string{
		"relatorio_financeiro_2025-04-30.pdf": "relatorio_financeiro_2025-04-30.pdf",
		"../../etc/passwd":                    "passwd",
		"..":                                  clients.DefaultReportName,
		".":                                   clients.DefaultReportName,
		"":                                    clients.DefaultReportName,
		"/":                                   clients.DefaultReportName,
	}
	for name, want := range cases {
		require.Equal(t, filepath.Join(dir, want), reportPath(dir, name), name)
	}
}
