package clients

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pribylovaa/controlae/internal/clients/interceptors"
	"github.com/pribylovaa/controlae/internal/config"
	"github.com/pribylovaa/controlae/internal/models"
	"github.com/pribylovaa/controlae/internal/session"
)

// Clients агрегирует клиенты ресурсов REST API Controlaê.
type Clients struct {
	Auth          *AuthClient
	Transactions  *TransactionsClient
	Categories    *Resource[models.Category, models.CategoryInput]
	Accounts      *AccountsClient
	Goals         *GoalsClient
	Reminders     *RemindersClient
	Notifications *NotificationsClient
	Incentives    *IncentivesClient
	Reports       *ReportsClient
	Dashboard     *DashboardClient
	FixedExpenses *FixedExpensesClient

	Session *session.Session
	Metrics *interceptors.Metrics

	transport *http.Transport
}

type options struct {
	base     http.RoundTripper
	registry prometheus.Registerer
	now      func() time.Time
}

type Option func(*options)

// WithTransport — базовый транспорт вместо собственного *http.Transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.base = rt }
}

// WithRegisterer — реестр метрик; без него метрики не регистрируются.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registry = reg }
}

// WithClock — источник текущего времени (даты gastos fixos).
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New собирает цепочки интерсепторов и клиенты ресурсов.
//
// Основная цепочка (внешний -> внутренний):
// timeout -> metadata -> auth -> logging -> metrics -> rate limit.
// Refresh ходит через отдельную цепочку без auth, поэтому сам вызов
// /token/refresh/ никогда не попадает в обработку 401. Лимитер общий.
func New(cfg config.Config, sess *session.Session, log *slog.Logger, opts ...Option) (*Clients, error) {
	const op = "clients.New"

	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if log == nil {
		log = slog.Default()
	}

	var transport *http.Transport
	if o.base == nil {
		transport = newTransport()
		o.base = transport
	}

	baseURL := strings.TrimRight(cfg.API.BaseURL, "/")
	public, err := interceptors.DefaultPublicEndpoints(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	metrics := interceptors.NewMetrics(o.registry)
	limiter := interceptors.NewLimiter(cfg.Limits.RPS, cfg.Limits.Burst)

	refreshRT := interceptors.Chain(o.base,
		interceptors.WithMetadata(cfg.API.UserAgent),
		interceptors.Logging(log),
		metrics.Interceptor(),
		interceptors.WithRateLimit(limiter),
	)
	refresher := interceptors.NewRefresher(sess, refreshRT, baseURL+interceptors.PathRefresh,
		interceptors.WithRefreshMetrics(metrics),
		interceptors.WithRefreshLogger(log),
		interceptors.WithRefreshTimeout(cfg.Timeouts.Request),
	)

	rt := interceptors.Chain(o.base,
		interceptors.WithTimeout(cfg.Timeouts.Request),
		interceptors.WithMetadata(cfg.API.UserAgent),
		interceptors.Auth(sess, refresher, public),
		interceptors.Logging(log),
		metrics.Interceptor(),
		interceptors.WithRateLimit(limiter),
	)

	r := &rest{http: &http.Client{Transport: rt}, base: baseURL}
	transactions := &TransactionsClient{Resource: newResource[models.Transaction, models.TransactionInput](r, "/transacoes/")}

	return &Clients{
		Auth:          &AuthClient{rest: r, sess: sess, refresher: refresher, log: log},
		Transactions:  transactions,
		Categories:    newResource[models.Category, models.CategoryInput](r, "/categorias/"),
		Accounts:      &AccountsClient{Resource: newResource[models.Account, models.AccountInput](r, "/contas/")},
		Goals:         &GoalsClient{Resource: newResource[models.Goal, models.GoalInput](r, "/metas/")},
		Reminders:     &RemindersClient{Resource: newResource[models.Reminder, models.ReminderInput](r, "/lembretes/")},
		Notifications: &NotificationsClient{rest: r},
		Incentives:    &IncentivesClient{rest: r},
		Reports:       &ReportsClient{rest: r},
		Dashboard:     &DashboardClient{rest: r},
		FixedExpenses: &FixedExpensesClient{transactions: transactions, now: o.now},
		Session:       sess,
		Metrics:       metrics,
		transport:     transport,
	}, nil
}

// Close освобождает соединения собственного транспорта.
func (c *Clients) Close() error {
	if c.transport != nil {
		c.transport.CloseIdleConnections()
	}

	return nil
}

func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConnsPerHost = 8
	t.IdleConnTimeout = 90 * time.Second

	return t
}
