package clients

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/controlae/internal/apitest"
	"github.com/pribylovaa/controlae/internal/clients/interceptors"
	"github.com/pribylovaa/controlae/internal/config"
	apierrors "github.com/pribylovaa/controlae/internal/errors"
	"github.com/pribylovaa/controlae/internal/models"
	"github.com/pribylovaa/controlae/internal/pkg/log"
	"github.com/pribylovaa/controlae/internal/session"
	"github.com/pribylovaa/controlae/internal/storage/memory"
)

type env struct {
	srv  *apitest.Server
	cl   *Clients
	sess *session.Session
	reg  *prometheus.Registry
}

func newEnv(t *testing.T, opts ...apitest.Option) *env {
	t.Helper()

	srv := apitest.New(t, opts...)
	sess := session.New(memory.New())
	reg := prometheus.NewRegistry()

	cfg := config.Config{
		API:      config.APIConfig{BaseURL: srv.BaseURL(), UserAgent: "controlae-test"},
		Timeouts: config.TimeoutConfig{Request: 5 * time.Second},
	}
	cl, err := New(cfg, sess, log.Discard(),
		WithRegisterer(reg),
		WithClock(func() time.Time { return time.Date(2025, time.April, 20, 10, 0, 0, 0, time.UTC) }),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cl.Close() })

	return &env{srv: srv, cl: cl, sess: sess, reg: reg}
}

// login регистрирует пользователя на сервере и входит им.
func (e *env) login(t *testing.T) models.User {
	t.Helper()

	e.srv.AddUser("maria", "segredo1")
	u, err := e.cl.Auth.Login(context.Background(), models.LoginRequest{Username: "maria", Password: "segredo1"})
	require.NoError(t, err)
	return u
}

func TestAuth_RegisterAndLogin(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()

	created, err := e.cl.Auth.Register(ctx, models.RegisterRequest{
		Username: "joao", Email: "joao@example.com", Password: "segredo1", ConfirmPassword: "segredo1", SerieEm: 2,
	})
	require.NoError(t, err)
	require.Equal(t, "joao", created.Username)
	require.NotZero(t, created.ID)

	u, err := e.cl.Auth.Login(ctx, models.LoginRequest{Username: "joao", Password: "segredo1"})
	require.NoError(t, err)
	require.Equal(t, created.ID, u.ID)

	has, err := e.sess.HasSession(ctx)
	require.NoError(t, err)
	require.True(t, has)

	stored, ok, err := e.sess.User(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "joao", stored.Username)

	for _, r := range e.srv.Requests() {
		require.Empty(t, r.Authorization, r.Path)
		require.Equal(t, "controlae-test", r.UserAgent)
		require.NotEmpty(t, r.RequestID)
	}
}

func TestAuth_RegisterValidatedLocally(t *testing.T) {
	t.Parallel()

	e := newEnv(t)

	_, err := e.cl.Auth.Register(context.Background(), models.RegisterRequest{
		Username: "jo", Email: "bad", Password: "123", ConfirmPassword: "321", SerieEm: 4,
	})
	require.ErrorIs(t, err, models.ErrValidation)
	require.Empty(t, e.srv.Requests())
	require.Contains(t, apierrors.Message(err, ""), "As senhas não conferem")
}

func TestAuth_RegisterDuplicate(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.srv.AddUser("maria", "segredo1")

	_, err := e.cl.Auth.Register(context.Background(), models.RegisterRequest{
		Username: "maria", Email: "maria@example.com", Password: "segredo1", ConfirmPassword: "segredo1", SerieEm: 1,
	})
	require.Error(t, err)
	require.Equal(t, apierrors.KindValidation, apierrors.KindOf(err))
	require.Contains(t, apierrors.Message(err, ""), "already exists")
}

func TestAuth_LoginBadCredentials(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.srv.AddUser("maria", "segredo1")

	_, err := e.cl.Auth.Login(context.Background(), models.LoginRequest{Username: "maria", Password: "errada"})
	require.True(t, apierrors.IsUnauthorized(err))
	require.Equal(t, apitest.DetailBadLogin, apierrors.Message(err, ""))
	require.Zero(t, e.srv.RefreshCalls())

	has, err := e.sess.HasSession(context.Background())
	require.NoError(t, err)
	require.False(t, has)
}

func TestAuth_LogoutAndManualRefresh(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()
	e.login(t)

	before, err := e.sess.AccessToken(ctx)
	require.NoError(t, err)

	require.NoError(t, e.cl.Auth.Refresh(ctx))
	require.Equal(t, 1, e.srv.RefreshCalls())

	after, err := e.sess.AccessToken(ctx)
	require.NoError(t, err)
	require.NotEqual(t, before, after)

	require.NoError(t, e.cl.Auth.Logout(ctx))
	pair, err := e.sess.Tokens(ctx)
	require.NoError(t, err)
	require.Empty(t, pair.Access)
	require.Empty(t, pair.Refresh)
	_, ok, err := e.sess.User(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestClients_ExpiredAccessIsRefreshedTransparently(t *testing.T) {
	t.Parallel()

	e := newEnv(t, apitest.WithRotation())
	ctx := context.Background()
	e.login(t)
	e.srv.AddCategory("Mercado", models.KindExpense)

	e.srv.ExpireAccessTokens()

	cats, err := e.cl.Categories.List(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	require.Equal(t, 1, e.srv.RefreshCalls())

	// Новая пара сохранена, последующие запросы обходятся без refresh.
	_, err = e.cl.Categories.List(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, e.srv.RefreshCalls())

	n, err := testutil.GatherAndCount(e.reg, "controlae_token_refresh_total")
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestClients_ConcurrentExpiredRequestsShareOneRefresh(t *testing.T) {
	t.Parallel()

	const n = 10

	e := newEnv(t, apitest.WithRefreshDelay(150*time.Millisecond))
	ctx := context.Background()
	e.login(t)
	e.srv.AddAccount("Nubank", models.Reais(100, 0))
	e.srv.ExpireAccessTokens()

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.cl.Accounts.List(ctx)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, 1, e.srv.RefreshCalls())
}

func TestClients_RefreshFailureEndsSession(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()
	e.login(t)
	e.srv.ExpireAccessTokens()
	e.srv.FailRefresh(true)

	_, err := e.cl.Goals.List(ctx)
	require.ErrorIs(t, err, interceptors.ErrRefreshFailed)

	has, err := e.sess.HasSession(ctx)
	require.NoError(t, err)
	require.False(t, has)
}

func TestClients_NoSessionPassesUnauthorized(t *testing.T) {
	t.Parallel()

	e := newEnv(t)

	_, err := e.cl.Transactions.List(context.Background())
	require.True(t, apierrors.IsUnauthorized(err))
	require.Equal(t, apitest.DetailNoCredentials, apierrors.Message(err, ""))
	require.Zero(t, e.srv.RefreshCalls())
}

func TestClients_PaginatedLists(t *testing.T) {
	t.Parallel()

	e := newEnv(t, apitest.WithPagination())
	e.login(t)
	e.srv.AddCategory("Mercado", models.KindExpense)
	e.srv.AddCategory("Salário", models.KindIncome)

	cats, err := e.cl.Categories.List(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 2)
	require.Equal(t, "Salário", cats[1].Nome)
}

func TestTransactions_Lifecycle(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()
	e.login(t)
	cat := e.srv.AddCategory("Mercado", models.KindExpense)
	acc := e.srv.AddAccount("Nubank", models.Reais(100, 0))

	tx, err := e.cl.Transactions.Create(ctx, models.TransactionInput{
		Tipo: models.KindExpense, Descricao: "Feira", Valor: models.Reais(45, 99),
		Data: models.MustDate("2025-03-10"), Parcelas: 1, Categoria: cat.ID, Conta: acc.ID,
	})
	require.NoError(t, err)
	require.Equal(t, "Mercado", tx.CategoriaNome)
	require.False(t, tx.Pago)

	pago := true
	tx, err = e.cl.Transactions.Patch(ctx, tx.ID, models.TransactionPatch{Pago: &pago})
	require.NoError(t, err)
	require.True(t, tx.Pago)

	sum, err := e.cl.Transactions.Summary(ctx, models.Period{From: models.MustDate("2025-03-01"), To: models.MustDate("2025-03-31")})
	require.NoError(t, err)
	require.Equal(t, models.Reais(45, 99), sum.TotalSaidas)
	require.Equal(t, -models.Reais(45, 99), sum.SaldoLiquido)
	require.Len(t, sum.GastosPorCategoria, 1)
	require.Equal(t, models.Reais(54, 1), sum.SaldosPorConta[0].SaldoAtual)

	require.NoError(t, e.cl.Transactions.Delete(ctx, tx.ID))
	_, err = e.cl.Transactions.Get(ctx, tx.ID)
	require.Equal(t, 404, apierrors.StatusCode(err))
}

func TestTransactions_ServerValidationFields(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.login(t)

	_, err := e.cl.Transactions.Create(context.Background(), models.TransactionInput{
		Tipo: models.KindIncome, Descricao: "Mesada", Valor: models.Reais(50, 0),
		Data: models.MustDate("2025-03-10"), Parcelas: 1, Categoria: 99, Conta: 98,
	})
	require.Equal(t, apierrors.KindValidation, apierrors.KindOf(err))

	var ae *apierrors.Error
	require.ErrorAs(t, err, &ae)
	require.Contains(t, ae.Fields, "categoria")
	require.Contains(t, ae.Fields, "conta")
}

func TestTransactions_ConfirmIncome(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()
	e.login(t)
	e.srv.AddAccount("Nubank", 0)

	res, err := e.cl.Transactions.ConfirmIncome(ctx, models.ConfirmIncomeRequest{Mes: 3, Ano: 2025})
	require.NoError(t, err)
	require.Equal(t, apitest.PedeMeiaInstallment, res.Valor)

	_, err = e.cl.Transactions.ConfirmIncome(ctx, models.ConfirmIncomeRequest{Mes: 3, Ano: 2025})
	require.Equal(t, "Parcela de 3/2025 já foi confirmada.", apierrors.Message(err, ""))
}

func TestAccounts_Transfer(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()
	e.login(t)
	a := e.srv.AddAccount("Nubank", models.Reais(100, 0))
	b := e.srv.AddAccount("Carteira", 0)

	m, err := e.cl.Accounts.Transfer(ctx, models.TransferRequest{ContaOrigemID: a.ID, ContaDestinoID: b.ID, Valor: models.Reais(40, 0)})
	require.NoError(t, err)
	require.NotZero(t, m.TransacaoSaidaID)
	require.NotZero(t, m.TransacaoEntradaID)

	got, err := e.cl.Accounts.Get(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, models.Reais(40, 0), got.SaldoAtual)

	_, err = e.cl.Accounts.Transfer(ctx, models.TransferRequest{ContaOrigemID: a.ID, ContaDestinoID: b.ID, Valor: models.Reais(1000, 0)})
	require.Equal(t, "Saldo insuficiente na conta de origem.", apierrors.Message(err, ""))

	_, err = e.cl.Accounts.Transfer(ctx, models.TransferRequest{ContaOrigemID: a.ID, ContaDestinoID: a.ID, Valor: models.Reais(1, 0)})
	require.ErrorIs(t, err, models.ErrValidation)
}

func TestGoals_DepositAndProgress(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()
	e.login(t)
	e.srv.AddAccount("Nubank", models.Reais(500, 0))

	g, err := e.cl.Goals.Create(ctx, models.GoalInput{Nome: "Notebook", ValorAlvo: models.Reais(1000, 0)})
	require.NoError(t, err)
	require.True(t, g.Ativa)

	_, err = e.cl.Goals.Deposit(ctx, g.ID, models.DepositRequest{Valor: models.Reais(250, 0)})
	require.NoError(t, err)

	p, err := e.cl.Goals.Progress(ctx, g.ID)
	require.NoError(t, err)
	require.Equal(t, models.Reais(250, 0), p.ValorAtual)
	require.Equal(t, models.Reais(750, 0), p.FaltaAtingir)
	require.InDelta(t, 25.0, float64(p.PercentualAtingido), 0.001)
}

func TestReminders_TodayAndNotifications(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()
	e.login(t)

	_, err := e.cl.Reminders.Create(ctx, models.ReminderInput{Titulo: "Anotar gastos", Recorrencia: models.RecurrenceDaily})
	require.NoError(t, err)
	_, err = e.cl.Reminders.Create(ctx, models.ReminderInput{Titulo: "Aluguel", Recorrencia: models.RecurrenceMonthly})
	require.ErrorIs(t, err, models.ErrValidation)

	n := e.srv.AddNotification("Conta de luz vence amanhã")

	today, err := e.cl.Reminders.Today(ctx)
	require.NoError(t, err)
	require.Len(t, today.Lembretes, 1)
	require.Len(t, today.Notificacoes, 1)

	read, err := e.cl.Notifications.MarkRead(ctx, n.ID, true)
	require.NoError(t, err)
	require.True(t, read.Lida)

	pending, err := e.cl.Notifications.Pending(ctx)
	require.NoError(t, err)
	require.Empty(t, pending)

	all, err := e.cl.Notifications.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	require.NoError(t, e.cl.Notifications.Delete(ctx, n.ID))
	_, err = e.cl.Notifications.Get(ctx, n.ID)
	require.Equal(t, 404, apierrors.StatusCode(err))
}

func TestIncentives(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()
	e.login(t)
	acc := e.srv.AddAccount("Nubank", 0)

	inc, err := e.cl.Incentives.Conclusion(ctx, models.ConclusionRequest{Ano: 2025, ContaID: &acc.ID})
	require.NoError(t, err)
	require.False(t, inc.Liberado)

	paid, err := e.cl.Incentives.Release(ctx, models.ReleaseRequest{IncentivoID: inc.ID})
	require.NoError(t, err)
	require.Equal(t, apitest.ConclusionValue, paid.Valor)

	_, err = e.cl.Incentives.Release(ctx, models.ReleaseRequest{IncentivoID: inc.ID})
	require.Equal(t, "Incentivo já liberado.", apierrors.Message(err, ""))

	enem, err := e.cl.Incentives.Enem(ctx, models.EnemRequest{})
	require.NoError(t, err)
	require.Equal(t, apitest.EnemValue, enem.Valor)

	missing := int64(999)
	_, err = e.cl.Incentives.Conclusion(ctx, models.ConclusionRequest{Ano: 2024, ContaID: &missing})
	require.Equal(t, 404, apierrors.StatusCode(err))
}

func TestReportsAndDashboard(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()
	e.login(t)
	cat := e.srv.AddCategory("Mercado", models.KindExpense)
	acc := e.srv.AddAccount("Nubank", models.Reais(100, 0))

	_, err := e.cl.Transactions.Create(ctx, models.TransactionInput{
		Tipo: models.KindExpense, Descricao: "Feira", Valor: models.Reais(30, 0),
		Data: models.MustDate("2025-03-10"), Parcelas: 1, Categoria: cat.ID, Conta: acc.ID,
	})
	require.NoError(t, err)

	period := models.Period{From: models.MustDate("2025-03-01"), To: models.MustDate("2025-03-31")}

	rep, err := e.cl.Reports.PDF(ctx, period)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(rep.Filename, "relatorio_financeiro_"))
	require.True(t, strings.HasPrefix(string(rep.Data), apitest.PDFMagic))

	d, err := e.cl.Dashboard.Get(ctx, period)
	require.NoError(t, err)
	require.Equal(t, models.Reais(30, 0), d.Resumo.TotalSaidas)
	require.Len(t, d.TransacoesRecentes, 1)
	require.Len(t, d.Contas, 1)
	require.Equal(t, models.Reais(70, 0), d.Contas[0].SaldoAtual)

	_, err = e.cl.Dashboard.Get(ctx, models.Period{From: period.To, To: period.From})
	require.ErrorIs(t, err, models.ErrValidation)
}

func TestFixedExpenses_CreatesNextDueTransaction(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.login(t)
	cat := e.srv.AddCategory("Moradia", models.KindExpense)
	acc := e.srv.AddAccount("Nubank", 0)

	tx, err := e.cl.FixedExpenses.Create(context.Background(), models.FixedExpense{
		Descricao: "Internet", Valor: models.Reais(99, 90), DiaVencimento: 31, Categoria: cat.ID, Conta: acc.ID,
	})
	require.NoError(t, err)
	require.Equal(t, models.KindExpense, tx.Tipo)
	require.NotNil(t, tx.Vencimento)
	require.Equal(t, "2025-04-30", tx.Vencimento.String())
	require.Equal(t, "2025-04-20", tx.Data.String())
}

func TestDecodeList(t *testing.T) {
	t.Parallel()

	items, err := decodeList[models.Category]([]byte(`[{"id":1,"nome":"A","tipo_categoria":"saida"}]`))
	require.NoError(t, err)
	require.Len(t, items, 1)

	items, err = decodeList[models.Category]([]byte(`{"count":1,"results":[{"id":2,"nome":"B","tipo_categoria":"entrada"}]}`))
	require.NoError(t, err)
	require.Equal(t, int64(2), items[0].ID)

	items, err = decodeList[models.Category]([]byte(`{"count":0,"results":null}`))
	require.NoError(t, err)
	require.NotNil(t, items)
	require.Empty(t, items)

	_, err = decodeList[models.Category]([]byte(`"oops"`))
	require.Error(t, err)
}

func TestFilename(t *testing.T) {
	t.Parallel()

	require.Equal(t, "relatorio_financeiro_2025-03-01.pdf", filename(`attachment; filename="relatorio_financeiro_2025-03-01.pdf"`))
	require.Equal(t, DefaultReportName, filename(""))
	require.Equal(t, DefaultReportName, filename("attachment"))
}
