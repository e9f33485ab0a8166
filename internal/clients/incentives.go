package clients

import (
	"context"
	"fmt"
	"mime"
	"net/http"

	"github.com/pribylovaa/controlae/internal/models"
)

// IncentivesClient — incentivos Pé-de-Meia: conclusão и ENEM.
type IncentivesClient struct {
	rest *rest
}

// Conclusion регистрирует incentivo de conclusão; выплата — Release.
func (c *IncentivesClient) Conclusion(ctx context.Context, in models.ConclusionRequest) (models.ConclusionIncentive, error) {
	const op = "clients.IncentivesClient.Conclusion"

	var out models.ConclusionIncentive
	if err := in.Validate(); err != nil {
		return out, fmt.Errorf("%s: %w", op, err)
	}
	if err := c.rest.do(ctx, http.MethodPost, "/incentivos/conclusao/", nil, in, &out); err != nil {
		return out, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (c *IncentivesClient) Release(ctx context.Context, in models.ReleaseRequest) (models.Payout, error) {
	const op = "clients.IncentivesClient.Release"

	var out models.Payout
	if err := in.Validate(); err != nil {
		return out, fmt.Errorf("%s: %w", op, err)
	}
	if err := c.rest.do(ctx, http.MethodPost, "/incentivos/conclusao/liberar/", nil, in, &out); err != nil {
		return out, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (c *IncentivesClient) Enem(ctx context.Context, in models.EnemRequest) (models.Payout, error) {
	const op = "clients.IncentivesClient.Enem"

	var out models.Payout
	if err := in.Validate(); err != nil {
		return out, fmt.Errorf("%s: %w", op, err)
	}
	if err := c.rest.do(ctx, http.MethodPost, "/incentivos/enem/", nil, in, &out); err != nil {
		return out, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// DashboardClient — агрегаты /dashboard/.
type DashboardClient struct {
	rest *rest
}

func (c *DashboardClient) Get(ctx context.Context, p models.Period) (models.Dashboard, error) {
	const op = "clients.DashboardClient.Get"

	var out models.Dashboard
	if err := p.Validate(); err != nil {
		return out, fmt.Errorf("%s: %w", op, err)
	}
	if err := c.rest.do(ctx, http.MethodGet, "/dashboard/", periodQuery(p), nil, &out); err != nil {
		return out, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// DefaultReportName — имя файла, если сервер не прислал Content-Disposition.
const DefaultReportName = "relatorio_financeiro.pdf"

// Report — скачанный PDF-отчёт.
type Report struct {
	Filename string
	Data     []byte
}

// ReportsClient — /relatorio/pdf/.
type ReportsClient struct {
	rest *rest
}

func (c *ReportsClient) PDF(ctx context.Context, p models.Period) (Report, error) {
	const op = "clients.ReportsClient.PDF"

	if err := p.Validate(); err != nil {
		return Report{}, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.rest.send(ctx, http.MethodGet, "/relatorio/pdf/", periodQuery(p), nil)
	if err != nil {
		return Report{}, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	data, err := readAll(resp)
	if err != nil {
		return Report{}, fmt.Errorf("%s: %w", op, err)
	}

	return Report{Filename: filename(resp.Header.Get("Content-Disposition")), Data: data}, nil
}

func filename(disposition string) string {
	if _, params, err := mime.ParseMediaType(disposition); err == nil && params["filename"] != "" {
		return params["filename"]
	}

	return DefaultReportName
}
