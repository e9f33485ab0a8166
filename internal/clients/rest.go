package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pribylovaa/controlae/internal/clients/interceptors"
	apierrors "github.com/pribylovaa/controlae/internal/errors"
	"github.com/pribylovaa/controlae/internal/models"
)

const maxBody = 10 << 20

// rest — JSON поверх http.Client с собранной цепочкой интерсепторов.
type rest struct {
	http *http.Client
	base string
}

// send выполняет запрос и возвращает успешный (2xx) ответ; неуспешный
// декодируется в *apierrors.Error. Тело запроса — bytes.Reader, поэтому
// Auth может воспроизвести его при повторе.
func (r *rest) send(ctx context.Context, method, path string, query url.Values, in any) (*http.Response, error) {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	u := r.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.http.Do(req)
	if err != nil {
		if errors.Is(err, interceptors.ErrRefreshFailed) {
			return nil, err
		}
		return nil, apierrors.Network(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apierrors.FromResponse(resp)
	}

	return resp, nil
}

// do — запрос с JSON-ответом в out (nil — тело отбрасывается).
func (r *rest) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	resp, err := r.send(ctx, method, path, query, in)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
		return nil
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}

	return nil
}

// list — GET списка; сервер отдаёт либо массив, либо страницу {"results": [...]}.
func list[T any](ctx context.Context, r *rest, path string, query url.Values) ([]T, error) {
	var raw json.RawMessage
	if err := r.do(ctx, http.MethodGet, path, query, nil, &raw); err != nil {
		return nil, err
	}

	items, err := decodeList[T](raw)
	if err != nil {
		return nil, fmt.Errorf("decode list %s: %w", path, err)
	}

	return items, nil
}

func decodeList[T any](raw json.RawMessage) ([]T, error) {
	raw = bytes.TrimSpace(raw)

	items := []T{}
	if len(raw) > 0 && raw[0] == '[' {
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, err
		}
		return items, nil
	}

	var page struct {
		Results []T `json:"results"`
	}
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, err
	}
	if page.Results != nil {
		items = page.Results
	}

	return items, nil
}

func itemPath(collection string, id int64) string {
	return collection + strconv.FormatInt(id, 10) + "/"
}

// periodQuery — from_date/to_date для отчёта, сводки и дашборда.
func periodQuery(p models.Period) url.Values {
	q := url.Values{}
	if !p.From.IsZero() {
		q.Set("from_date", p.From.String())
	}
	if !p.To.IsZero() {
		q.Set("to_date", p.To.String())
	}

	return q
}

func readAll(resp *http.Response) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, apierrors.Network(err)
	}

	return data, nil
}
