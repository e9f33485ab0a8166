package clients

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pribylovaa/controlae/internal/models"
)

// TransactionsClient — /transacoes/ и его действия.
type TransactionsClient struct {
	*Resource[models.Transaction, models.TransactionInput]
}

// Patch — частичное обновление (например, отметка pago).
func (c *TransactionsClient) Patch(ctx context.Context, id int64, p models.TransactionPatch) (models.Transaction, error) {
	const op = "clients.TransactionsClient.Patch"

	var out models.Transaction
	if err := p.Validate(); err != nil {
		return out, fmt.Errorf("%s: %w", op, err)
	}
	if err := c.rest.do(ctx, http.MethodPatch, itemPath(c.path, id), nil, p, &out); err != nil {
		return out, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// Summary — GET resumo_financeiro/ за период.
func (c *TransactionsClient) Summary(ctx context.Context, p models.Period) (models.FinancialSummary, error) {
	const op = "clients.TransactionsClient.Summary"

	var out models.FinancialSummary
	if err := p.Validate(); err != nil {
		return out, fmt.Errorf("%s: %w", op, err)
	}
	if err := c.rest.do(ctx, http.MethodGet, c.path+"resumo_financeiro/", periodQuery(p), nil, &out); err != nil {
		return out, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// ConfirmIncome подтверждает получение парселы Pé-de-Meia за месяц.
func (c *TransactionsClient) ConfirmIncome(ctx context.Context, in models.ConfirmIncomeRequest) (models.ConfirmIncomeResponse, error) {
	const op = "clients.TransactionsClient.ConfirmIncome"

	var out models.ConfirmIncomeResponse
	if err := in.Validate(); err != nil {
		return out, fmt.Errorf("%s: %w", op, err)
	}
	if err := c.rest.do(ctx, http.MethodPost, c.path+"confirmar_recebimento/", nil, in, &out); err != nil {
		return out, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// FixedExpensesClient — gastos fixos; на сервере это транзакции saida
// с ближайшей датой vencimento.
type FixedExpensesClient struct {
	transactions *TransactionsClient
	now          func() time.Time
}

func (c *FixedExpensesClient) Create(ctx context.Context, f models.FixedExpense) (models.Transaction, error) {
	const op = "clients.FixedExpensesClient.Create"

	if err := f.Validate(); err != nil {
		return models.Transaction{}, fmt.Errorf("%s: %w", op, err)
	}

	t, err := c.transactions.Create(ctx, f.ToTransaction(c.now()))
	if err != nil {
		return t, fmt.Errorf("%s: %w", op, err)
	}

	return t, nil
}
