package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/pribylovaa/controlae/internal/models"
	"github.com/pribylovaa/controlae/internal/session"
)

var errUsage = errors.New("usage")

type runFunc func(ctx context.Context, a *app, args []string) error

// command — подкоманда CLI. route — защищённый адрес для guard;
// пустой route — команда доступна без сессии.
type command struct {
	route string
	help  string
	run   runFunc
}

var commands = map[string]command{
	"register":      {help: "criar conta", run: runRegister},
	"login":         {help: "entrar", run: runLogin},
	"logout":        {help: "sair", run: runLogout},
	"status":        {help: "sessão atual", run: runStatus},
	"dashboard":     {route: "/dashboard", help: "resumo do período", run: runDashboard},
	"transactions":  {route: "/transacoes", help: "list|add|edit|pay|rm|summary|confirm", run: group(transactionCmds)},
	"categories":    {route: "/categorias", help: "list|add|rm", run: group(categoryCmds)},
	"accounts":      {route: "/contas", help: "list|add|rm|transfer", run: group(accountCmds)},
	"goals":         {route: "/metas", help: "list|add|rm|progress|deposit", run: group(goalCmds)},
	"reminders":     {route: "/lembretes", help: "list|add|rm|today|done", run: group(reminderCmds)},
	"notifications": {route: "/notificacoes", help: "list|pending|read", run: group(notificationCmds)},
	"incentives":    {route: "/incentivos", help: "conclusion|release|enem", run: group(incentiveCmds)},
	"fixed":         {route: "/gastos-fixos", help: "add", run: group(map[string]runFunc{"add": fixedAdd})},
	"report":        {route: "/relatorio", help: "pdf", run: group(map[string]runFunc{"pdf": reportPDF})},
}

func usage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "usage: controlae [flags] <command> [args]")
	fs.PrintDefaults()

	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\ncommands:")
	for _, name := range names {
		fmt.Fprintf(tw, "  %s\t%s\n", name, commands[name].help)
	}
	_ = tw.Flush()
}

func group(subs map[string]runFunc) runFunc {
	return func(ctx context.Context, a *app, args []string) error {
		if len(args) == 0 {
			return fmt.Errorf("%w: missing subcommand", errUsage)
		}
		sub, ok := subs[args[0]]
		if !ok {
			return fmt.Errorf("%w: unknown subcommand %q", errUsage, args[0])
		}

		return sub(ctx, a, args[1:])
	}
}

// ---- helpers ----

func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return nil
}

// argID — единственный позиционный аргумент: id записи.
func argID(fs *flag.FlagSet) (int64, error) {
	if fs.NArg() != 1 {
		return 0, fmt.Errorf("%w: expected <id>", errUsage)
	}
	id, err := strconv.ParseInt(fs.Arg(0), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", errUsage, fs.Arg(0))
	}
	return id, nil
}

// amountFlag — flag.Value для сумм "12,50" / "12.50".
type amountFlag struct{ v *models.Amount }

func (f amountFlag) String() string {
	if f.v == nil {
		return ""
	}
	return f.v.String()
}

func (f amountFlag) Set(s string) error {
	a, err := models.ParseAmount(s)
	if err != nil {
		return err
	}
	*f.v = a
	return nil
}

// dateFlag — flag.Value для дат YYYY-MM-DD; set отмечает, что флаг задан.
type dateFlag struct {
	v   *models.Date
	set *bool
}

func (f dateFlag) String() string {
	if f.v == nil || f.v.IsZero() {
		return ""
	}
	return f.v.String()
}

func (f dateFlag) Set(s string) error {
	d, err := models.ParseDate(s)
	if err != nil {
		return err
	}
	*f.v = d
	if f.set != nil {
		*f.set = true
	}
	return nil
}

func periodFlags(fs *flag.FlagSet, p *models.Period) {
	fs.Var(dateFlag{v: &p.From}, "from", "from date YYYY-MM-DD")
	fs.Var(dateFlag{v: &p.To}, "to", "to date YYYY-MM-DD")
}

func (a *app) table() *tabwriter.Writer {
	return tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
}

func yesNo(b bool) string {
	if b {
		return "sim"
	}
	return "não"
}

// ---- auth ----

func runRegister(ctx context.Context, a *app, args []string) error {
	fs := newFlags("register")
	var in models.RegisterRequest
	fs.StringVar(&in.Username, "username", "", "username")
	fs.StringVar(&in.Email, "email", "", "e-mail")
	fs.StringVar(&in.Password, "password", "", "password")
	fs.StringVar(&in.ConfirmPassword, "confirm", "", "password confirmation")
	fs.IntVar(&in.SerieEm, "serie", 0, "ano do ensino médio (1-3)")
	if err := parse(fs, args); err != nil {
		return err
	}

	u, err := a.cl.Auth.Register(ctx, in)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Conta criada: %s. Agora faça login.\n", u.Username)
	return nil
}

func runLogin(ctx context.Context, a *app, args []string) error {
	fs := newFlags("login")
	var in models.LoginRequest
	fs.StringVar(&in.Username, "username", "", "username")
	fs.StringVar(&in.Password, "password", os.Getenv("CONTROLAE_PASSWORD"), "password (or CONTROLAE_PASSWORD)")
	returnURL := fs.String("return", "", "return path after login")
	if err := parse(fs, args); err != nil {
		return err
	}

	u, err := a.cl.Auth.Login(ctx, in)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Bem-vindo, %s!\n", u.Username)
	if *returnURL != "" {
		fmt.Fprintf(a.out, "Continue em: %s\n", *returnURL)
	}
	return nil
}

func runLogout(ctx context.Context, a *app, _ []string) error {
	if err := a.cl.Auth.Logout(ctx); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Sessão encerrada.")
	return nil
}

func runStatus(ctx context.Context, a *app, _ []string) error {
	pair, err := a.sess.Tokens(ctx)
	if err != nil {
		return err
	}
	if pair.Access == "" {
		fmt.Fprintln(a.out, "Sem sessão.")
		return nil
	}

	tw := a.table()
	if u, ok, err := a.sess.User(ctx); err == nil && ok {
		fmt.Fprintf(tw, "usuário\t%s\n", u.Username)
	}
	fmt.Fprintf(tw, "refresh\t%s\n", yesNo(pair.Refresh != ""))

	if c, err := session.ParseClaims(pair.Access); err == nil {
		if left, ok := c.ExpiresIn(time.Now()); ok {
			state := "expira em " + left.Round(time.Second).String()
			if left <= 0 {
				state = "expirado (será renovado no próximo pedido)"
			}
			fmt.Fprintf(tw, "access\t%s\n", state)
		}
	}

	return tw.Flush()
}

func idList(ids []int64) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	return strings.Join(parts, ",")
}
