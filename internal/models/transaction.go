package models

// Kind — направление движения денег (tipo / tipo_categoria).
type Kind string

const (
	KindIncome  Kind = "entrada"
	KindExpense Kind = "saida"
)

func (k Kind) Valid() bool { return k == KindIncome || k == KindExpense }

// Transaction — транзакция в ответах /transacoes/.
type Transaction struct {
	ID            int64  `json:"id"`
	Tipo          Kind   `json:"tipo"`
	Descricao     string `json:"descricao"`
	Valor         Amount `json:"valor"`
	Data          Date   `json:"data"`
	Parcelas      int    `json:"parcelas"`
	Vencimento    *Date  `json:"vencimento"`
	Pago          bool   `json:"pago"`
	Categoria     int64  `json:"categoria"`
	CategoriaNome string `json:"categoria_nome,omitempty"`
	TipoCategoria Kind   `json:"tipo_categoria,omitempty"`
	Conta         int64  `json:"conta"`
	ContaNome     string `json:"conta_nome,omitempty"`
}

// TransactionInput — тело создания/полной замены транзакции.
type TransactionInput struct {
	Tipo       Kind   `json:"tipo"`
	Descricao  string `json:"descricao"`
	Valor      Amount `json:"valor"`
	Data       Date   `json:"data"`
	Parcelas   int    `json:"parcelas"`
	Vencimento *Date  `json:"vencimento,omitempty"`
	Pago       bool   `json:"pago"`
	Categoria  int64  `json:"categoria"`
	Conta      int64  `json:"conta"`
}

func (in TransactionInput) Validate() error {
	var c checker
	c.check(!blank(in.Descricao), "descricao", "Descrição é obrigatória")
	c.check(in.Valor.Positive(), "valor", "Valor da transação deve ser positivo")
	c.check(!in.Data.IsZero(), "data", "Data é obrigatória")
	c.check(in.Categoria > 0, "categoria", "Categoria é obrigatória")
	c.check(in.Conta > 0, "conta", "Conta é obrigatória")
	c.check(in.Tipo.Valid(), "tipo", "Tipo deve ser entrada ou saida")
	c.check(in.Parcelas >= 1, "parcelas", "Parcelas deve ser no mínimo 1")

	return c.err()
}

// TransactionPatch — частичное обновление (PATCH); nil-поля не отправляются.
type TransactionPatch struct {
	Tipo       *Kind   `json:"tipo,omitempty"`
	Descricao  *string `json:"descricao,omitempty"`
	Valor      *Amount `json:"valor,omitempty"`
	Data       *Date   `json:"data,omitempty"`
	Vencimento *Date   `json:"vencimento,omitempty"`
	Pago       *bool   `json:"pago,omitempty"`
	Categoria  *int64  `json:"categoria,omitempty"`
	Conta      *int64  `json:"conta,omitempty"`
}

func (p TransactionPatch) Validate() error {
	var c checker
	if p.Descricao != nil {
		c.check(!blank(*p.Descricao), "descricao", "Descrição é obrigatória")
	}
	if p.Valor != nil {
		c.check(p.Valor.Positive(), "valor", "Valor da transação deve ser positivo")
	}
	if p.Tipo != nil {
		c.check(p.Tipo.Valid(), "tipo", "Tipo deve ser entrada ou saida")
	}
	if p.Categoria != nil {
		c.check(*p.Categoria > 0, "categoria", "Categoria é obrigatória")
	}
	if p.Conta != nil {
		c.check(*p.Conta > 0, "conta", "Conta é obrigatória")
	}

	return c.err()
}

// CategoryTotal — строка агрегата по категории.
type CategoryTotal struct {
	Categoria string `json:"categoria__nome"`
	Total     Amount `json:"total"`
}

// PendingInstallment — ещё не полученная парсела Pé-de-Meia.
type PendingInstallment struct {
	Data      Date   `json:"data"`
	Valor     Amount `json:"valor"`
	Descricao string `json:"descricao"`
}

// AccountBalance — текущий баланс счёта в сводке.
type AccountBalance struct {
	ID         int64  `json:"id"`
	Nome       string `json:"nome"`
	SaldoAtual Amount `json:"saldo_atual"`
}

// FinancialSummary — ответ GET /transacoes/resumo_financeiro/.
type FinancialSummary struct {
	SaldoLiquido       Amount               `json:"saldo_liquido"`
	TotalEntradas      Amount               `json:"total_entradas"`
	TotalSaidas        Amount               `json:"total_saidas"`
	GastosPorCategoria []CategoryTotal      `json:"gastos_por_categoria"`
	PedeMeiaRecebido   Amount               `json:"pede_meia_recebido"`
	ParcelasPendentes  []PendingInstallment `json:"parcelas_pendentes"`
	SaldosPorConta     []AccountBalance     `json:"saldos_por_conta"`
}

// ConfirmIncomeRequest — тело POST /transacoes/confirmar_recebimento/.
type ConfirmIncomeRequest struct {
	Mes int `json:"mes"`
	Ano int `json:"ano"`
}

func (r ConfirmIncomeRequest) Validate() error {
	var c checker
	c.check(r.Mes >= 1 && r.Mes <= 12, "mes", "Mês deve estar entre 1 e 12")
	c.check(r.Ano > 0, "ano", "Ano inválido")

	return c.err()
}

// ConfirmIncomeResponse — подтверждённая парсела.
type ConfirmIncomeResponse struct {
	Detail      string `json:"detail"`
	TransacaoID int64  `json:"transacao_id"`
	Valor       Amount `json:"valor"`
}
