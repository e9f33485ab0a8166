package interceptors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	apierrors "github.com/pribylovaa/controlae/internal/errors"
	"github.com/pribylovaa/controlae/internal/models"
	"github.com/pribylovaa/controlae/internal/pkg/log"
)

const refreshKey = "refresh"

// Refresher — обновление access-токена с не более чем одним вызовом
// POST /token/refresh/ в полёте.
//
// Состояния: Idle -> Refreshing -> {Retried | Failed}. 401, пришедший во время
// Refreshing, подписывается на исход текущего вызова (singleflight). Если в
// хранилище уже лежит access-токен, отличный от устаревшего, он возвращается
// без сетевого вызова: запрос никогда не повторяется со старым токеном.
type Refresher struct {
	tokens  Tokens
	rt      http.RoundTripper
	url     string
	timeout time.Duration
	metrics *Metrics
	log     *slog.Logger

	group singleflight.Group
}

type RefresherOption func(*Refresher)

// WithRefreshMetrics — учёт исходов refresh.
func WithRefreshMetrics(m *Metrics) RefresherOption {
	return func(r *Refresher) { r.metrics = m }
}

// WithRefreshLogger — логгер для событий refresh, когда в контексте его нет.
func WithRefreshLogger(l *slog.Logger) RefresherOption {
	return func(r *Refresher) { r.log = l }
}

// WithRefreshTimeout — таймаут самого вызова refresh (по умолчанию 30s);
// d <= 0 — без таймаута, как у WithTimeout.
func WithRefreshTimeout(d time.Duration) RefresherOption {
	return func(r *Refresher) { r.timeout = d }
}

// NewRefresher создаёт координатор. rt — транспорт без Auth (иначе refresh
// сам попадёт в обработку 401); refreshURL — полный URL /token/refresh/.
func NewRefresher(tokens Tokens, rt http.RoundTripper, refreshURL string, opts ...RefresherOption) *Refresher {
	if rt == nil {
		rt = http.DefaultTransport
	}

	r := &Refresher{
		tokens:  tokens,
		rt:      rt,
		url:     refreshURL,
		timeout: 30 * time.Second,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Refresh возвращает access-токен, пригодный для повтора запроса, который
// получил 401 с токеном stale.
//
// Ошибки: ErrNoRefreshToken — обновлять нечем; ErrRefreshFailed — вызов
// не удался, токены удалены; ошибка ctx — вызывающий перестал ждать
// (сам refresh при этом доводится до конца для остальных ожидающих).
func (r *Refresher) Refresh(ctx context.Context, stale string) (string, error) {
	if tok, ok, err := r.current(ctx, stale); err != nil {
		return "", err
	} else if ok {
		r.metrics.ObserveRefresh(RefreshShared)
		return tok, nil
	}

	ch := r.group.DoChan(refreshKey, func() (any, error) {
		cctx := context.WithoutCancel(ctx)
		if r.timeout > 0 {
			var cancel context.CancelFunc
			cctx, cancel = context.WithTimeout(cctx, r.timeout)
			defer cancel()
		}

		return r.do(cctx, stale)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}

		return res.Val.(string), nil
	}
}

// current — сохранённый access-токен, если он уже не stale.
func (r *Refresher) current(ctx context.Context, stale string) (string, bool, error) {
	tok, err := r.tokens.AccessToken(ctx)
	if err != nil {
		return "", false, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	return tok, tok != "" && tok != stale, nil
}

func (r *Refresher) do(ctx context.Context, stale string) (string, error) {
	const op = "interceptors.Refresher.do"

	lg := log.FromOr(ctx, r.log)

	// Пока ждали очереди, токен мог обновить предыдущий вызов.
	if tok, ok, err := r.current(ctx, stale); err != nil {
		return "", err
	} else if ok {
		r.metrics.ObserveRefresh(RefreshShared)
		return tok, nil
	}

	refresh, err := r.tokens.RefreshToken(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}
	if refresh == "" {
		r.metrics.ObserveRefresh(RefreshNoToken)
		return "", ErrNoRefreshToken
	}

	out, err := r.call(ctx, refresh)
	if err == nil && out.Refresh != "" {
		err = r.tokens.SetPair(ctx, models.TokenPair{Access: out.Access, Refresh: out.Refresh})
	} else if err == nil {
		err = r.tokens.SetAccess(ctx, out.Access)
	}

	if err != nil {
		if cerr := r.tokens.Clear(ctx); cerr != nil {
			lg.Error("token_clear_failed",
				slog.String("op", op),
				slog.String("err", cerr.Error()),
			)
		}

		r.metrics.ObserveRefresh(RefreshFailed)
		lg.Warn("token_refresh_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return "", fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	r.metrics.ObserveRefresh(RefreshOK)
	lg.Info("token_refreshed", slog.Bool("rotated", out.Refresh != ""))

	return out.Access, nil
}

func (r *Refresher) call(ctx context.Context, refresh string) (models.RefreshResponse, error) {
	var out models.RefreshResponse

	body, err := json.Marshal(models.RefreshRequest{Refresh: refresh})
	if err != nil {
		return out, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return out, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.rt.RoundTrip(req)
	if err != nil {
		return out, apierrors.Network(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return out, apierrors.FromResponse(resp)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return out, apierrors.Network(err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode refresh response: %w", err)
	}
	if out.Access == "" {
		return out, fmt.Errorf("refresh response without access token")
	}

	return out, nil
}
