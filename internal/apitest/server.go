// apitest — поддельный REST API Controlaê для тестов клиента.
//
// Сервер повторяет контракт Django/SimpleJWT-бэкенда: префикс /api, пути
// с завершающим "/", пара JWT access/refresh, ошибки в виде {"detail": ...}
// или {"поле": ["сообщение"]}. Данные живут в памяти одного процесса.
package apitest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/pribylovaa/controlae/internal/models"
)

// Сообщения SimpleJWT.
const (
	DetailTokenInvalid   = "Given token not valid for any token type"
	DetailRefreshInvalid = "Token is invalid or expired"
	DetailNoCredentials  = "Authentication credentials were not provided."
	DetailBadLogin       = "No active account found with the given credentials"
	CodeTokenNotValid    = "token_not_valid"
)

// Request — запись об обработанном запросе.
type Request struct {
	Method        string
	Path          string
	Authorization string
	RequestID     string
	UserAgent     string
}

type Option func(*Server)

// WithRotation — refresh возвращает новый refresh-токен, старый отзывается.
func WithRotation() Option { return func(s *Server) { s.rotate = true } }

// WithPagination — списки отдаются как {"count", "results"}.
func WithPagination() Option { return func(s *Server) { s.paginate = true } }

// WithAccessTTL — время жизни access-токена (по умолчанию 5 минут).
func WithAccessTTL(d time.Duration) Option { return func(s *Server) { s.accessTTL = d } }

// WithRefreshDelay — задержка ответа /token/refresh/.
func WithRefreshDelay(d time.Duration) Option { return func(s *Server) { s.refreshDelay = d } }

type user struct {
	models.User
	password string
}

type claims struct {
	UserID    int64  `json:"user_id"`
	TokenType string `json:"token_type"`
	Gen       int64  `json:"gen"`
	jwt.RegisteredClaims
}

type Server struct {
	*httptest.Server

	secret       []byte
	rotate       bool
	paginate     bool
	accessTTL    time.Duration
	refreshDelay time.Duration

	failRefresh  atomic.Bool
	refreshCalls atomic.Int32
	unauthorized atomic.Int32
	// generation — access-токены старших поколений отвергаются.
	generation atomic.Int64

	mu            sync.Mutex
	seq           int64
	users         map[string]*user
	revoked       map[string]struct{}
	requests      []Request
	transactions  map[int64]*models.Transaction
	categories    map[int64]*models.Category
	accounts      map[int64]*models.Account
	goals         map[int64]*models.Goal
	reminders     map[int64]*models.Reminder
	notifications map[int64]*models.Notification
	incentives    map[int64]*incentive
}

// New запускает сервер; он закрывается в t.Cleanup.
func New(t testing.TB, opts ...Option) *Server {
	t.Helper()

	s := &Server{
		secret:        []byte("apitest-" + uuid.NewString()),
		accessTTL:     5 * time.Minute,
		users:         map[string]*user{},
		revoked:       map[string]struct{}{},
		transactions:  map[int64]*models.Transaction{},
		categories:    map[int64]*models.Category{},
		accounts:      map[int64]*models.Account{},
		goals:         map[int64]*models.Goal{},
		reminders:     map[int64]*models.Reminder{},
		notifications: map[int64]*models.Notification{},
		incentives:    map[int64]*incentive{},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)

	return s
}

// BaseURL — адрес API вместе с префиксом /api.
func (s *Server) BaseURL() string { return s.URL + "/api" }

func (s *Server) RefreshCalls() int   { return int(s.refreshCalls.Load()) }
func (s *Server) Unauthorized() int   { return int(s.unauthorized.Load()) }
func (s *Server) FailRefresh(on bool) { s.failRefresh.Store(on) }

// ExpireAccessTokens делает недействительными все выданные access-токены.
func (s *Server) ExpireAccessTokens() { s.generation.Add(1) }

// Requests — копия журнала запросов.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Request(nil), s.requests...)
}

// AddUser регистрирует пользователя в обход /register/.
func (s *Server) AddUser(username, password string) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := &user{
		User:     models.User{ID: s.next(), Username: username, Email: username + "@example.com", SerieEm: 1},
		password: password,
	}
	s.users[username] = u

	return u.User
}

// IssuePair выдаёт пару токенов для пользователя.
func (s *Server) IssuePair(userID int64) (models.TokenPair, error) {
	access, err := s.sign(userID, "access", s.accessTTL)
	if err != nil {
		return models.TokenPair{}, err
	}
	refresh, err := s.sign(userID, "refresh", 24*time.Hour)
	if err != nil {
		return models.TokenPair{}, err
	}

	return models.TokenPair{Access: access, Refresh: refresh}, nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)

	r.Route("/api", func(r chi.Router) {
		r.Post("/register/", s.register)
		r.Post("/token/", s.login)
		r.Post("/token/refresh/", s.refresh)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Route("/transacoes", func(r chi.Router) {
				r.Get("/", s.listTransactions)
				r.Post("/", s.createTransaction)
				r.Get("/resumo_financeiro/", s.summary)
				r.Post("/confirmar_recebimento/", s.confirmIncome)
				r.Get("/{id}/", s.getTransaction)
				r.Put("/{id}/", s.updateTransaction)
				r.Patch("/{id}/", s.patchTransaction)
				r.Delete("/{id}/", s.deleteTransaction)
			})
			r.Route("/categorias", func(r chi.Router) {
				r.Get("/", s.listCategories)
				r.Post("/", s.createCategory)
				r.Get("/{id}/", s.getCategory)
				r.Put("/{id}/", s.updateCategory)
				r.Delete("/{id}/", s.deleteCategory)
			})
			r.Route("/contas", func(r chi.Router) {
				r.Get("/", s.listAccounts)
				r.Post("/", s.createAccount)
				r.Post("/transferir/", s.transfer)
				r.Get("/{id}/", s.getAccount)
				r.Put("/{id}/", s.updateAccount)
				r.Delete("/{id}/", s.deleteAccount)
			})
			r.Route("/metas", func(r chi.Router) {
				r.Get("/", s.listGoals)
				r.Post("/", s.createGoal)
				r.Get("/{id}/", s.getGoal)
				r.Put("/{id}/", s.updateGoal)
				r.Delete("/{id}/", s.deleteGoal)
				r.Get("/{id}/progresso/", s.goalProgress)
				r.Post("/{id}/depositar/", s.deposit)
			})
			r.Route("/lembretes", func(r chi.Router) {
				r.Get("/", s.listReminders)
				r.Post("/", s.createReminder)
				r.Get("/hoje/", s.todayReminders)
				r.Get("/{id}/", s.getReminder)
				r.Put("/{id}/", s.updateReminder)
				r.Delete("/{id}/", s.deleteReminder)
			})
			r.Route("/notificacoes", func(r chi.Router) {
				r.Get("/", s.listNotifications)
				r.Get("/pendentes/", s.pendingNotifications)
				r.Get("/{id}/", s.getNotification)
				r.Patch("/{id}/", s.patchNotification)
				r.Delete("/{id}/", s.deleteNotification)
			})
			r.Post("/incentivos/conclusao/", s.createConclusion)
			r.Post("/incentivos/conclusao/liberar/", s.releaseConclusion)
			r.Post("/incentivos/enem/", s.createEnem)
			r.Get("/relatorio/pdf/", s.reportPDF)
			r.Get("/dashboard/", s.dashboard)
		})
	})

	return r
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			RequestID:     r.Header.Get("X-Request-Id"),
			UserAgent:     r.Header.Get("User-Agent"),
		})
		s.mu.Unlock()

		if id := r.Header.Get("X-Request-Id"); id != "" {
			w.Header().Set("X-Request-Id", id)
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			s.unauthorized.Add(1)
			writeDetail(w, http.StatusUnauthorized, DetailNoCredentials)
			return
		}

		c, err := s.parse(strings.TrimPrefix(h, "Bearer "), "access")
		if err != nil || c.Gen < s.generation.Load() {
			s.unauthorized.Add(1)
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"detail": DetailTokenInvalid,
				"code":   CodeTokenNotValid,
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var in models.RegisterRequest
	if !decode(w, r, &in) {
		return
	}
	// Подтверждение пароля на сервер не приходит.
	in.ConfirmPassword = in.Password
	if err := in.Validate(); err != nil {
		writeValidation(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[in.Username]; ok {
		writeJSON(w, http.StatusBadRequest, map[string][]string{
			"username": {"A user with that username already exists."},
		})
		return
	}

	u := &user{
		User:     models.User{ID: s.next(), Username: in.Username, Email: in.Email, SerieEm: in.SerieEm},
		password: in.Password,
	}
	s.users[in.Username] = u

	writeJSON(w, http.StatusCreated, u.User)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in models.LoginRequest
	if !decode(w, r, &in) {
		return
	}

	s.mu.Lock()
	u, ok := s.users[in.Username]
	s.mu.Unlock()
	if !ok || u.password != in.Password {
		writeDetail(w, http.StatusUnauthorized, DetailBadLogin)
		return
	}

	pair, err := s.IssuePair(u.ID)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	s.refreshCalls.Add(1)

	if s.refreshDelay > 0 {
		select {
		case <-time.After(s.refreshDelay):
		case <-r.Context().Done():
			return
		}
	}

	var in models.RefreshRequest
	if !decode(w, r, &in) {
		return
	}

	c, err := s.parse(in.Refresh, "refresh")
	if err == nil {
		s.mu.Lock()
		_, revoked := s.revoked[c.ID]
		s.mu.Unlock()
		if revoked {
			err = errors.New("revoked")
		}
	}
	if err != nil || s.failRefresh.Load() {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"detail": DetailRefreshInvalid,
			"code":   CodeTokenNotValid,
		})
		return
	}

	access, err := s.sign(c.UserID, "access", s.accessTTL)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := models.RefreshResponse{Access: access}

	if s.rotate {
		if out.Refresh, err = s.sign(c.UserID, "refresh", 24*time.Hour); err != nil {
			writeDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.mu.Lock()
		s.revoked[c.ID] = struct{}{}
		s.mu.Unlock()
	}

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) sign(userID int64, typ string, ttl time.Duration) (string, error) {
	now := time.Now()
	c := claims{
		UserID:    userID,
		TokenType: typ,
		Gen:       s.generation.Load(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("apitest.sign: %w", err)
	}

	return signed, nil
}

func (s *Server) parse(tok, typ string) (*claims, error) {
	var c claims
	_, err := jwt.ParseWithClaims(tok, &c,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return nil, err
	}
	if c.TokenType != typ {
		return nil, fmt.Errorf("unexpected token type %q", c.TokenType)
	}

	return &c, nil
}

// next — следующий id; вызывается под s.mu.
func (s *Server) next() int64 {
	s.seq++
	return s.seq
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeValidation — ошибка валидации в форме DRF: {"поле": ["сообщение"]}.
func writeValidation(w http.ResponseWriter, err error) {
	var ve *models.ValidationError
	if !errors.As(err, &ve) {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	out := make(map[string][]string, len(ve.Fields))
	for f, msg := range ve.Fields {
		out[f] = []string{msg}
	}
	writeJSON(w, http.StatusBadRequest, out)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeDetail(w, http.StatusBadRequest, "JSON parse error - "+err.Error())
		return false
	}

	return true
}

// writeList отдаёт список массивом или страницей DRF.
func (s *Server) writeList(w http.ResponseWriter, items any, count int) {
	if !s.paginate {
		writeJSON(w, http.StatusOK, items)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":    count,
		"next":     nil,
		"previous": nil,
		"results":  items,
	})
}
