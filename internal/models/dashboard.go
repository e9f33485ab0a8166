package models

// Dashboard — ответ GET /dashboard/.
type Dashboard struct {
	Resumo             DashboardSummary    `json:"resumo"`
	Graficos           DashboardCharts     `json:"graficos"`
	Incentivos         DashboardIncentives `json:"incentivos"`
	Contas             []Account           `json:"contas"`
	Metas              []Goal              `json:"metas"`
	TransacoesRecentes []RecentTransaction `json:"transacoes_recentes"`
}

type DashboardSummary struct {
	TotalEntradas    Amount `json:"total_entradas"`
	TotalSaidas      Amount `json:"total_saidas"`
	SaldoLiquido     Amount `json:"saldo_liquido"`
	PedeMeiaRecebido Amount `json:"pede_meia_recebido"`
	PedeMeiaPendente Amount `json:"pede_meia_pendente"`
}

type DashboardCharts struct {
	GastosCategoria   []CategoryTotal `json:"gastos_categoria"`
	EntradasCategoria []CategoryTotal `json:"entradas_categoria"`
}

type DashboardIncentives struct {
	Conclusao []Incentive `json:"conclusao"`
	Enem      []Incentive `json:"enem"`
	// PedeMeia — последняя транзакция Pé-de-Meia; nil если их не было.
	PedeMeia *RecentTransaction `json:"pede_meia"`
}

// RecentTransaction — облегчённая транзакция из агрегатов дашборда.
type RecentTransaction struct {
	ID        int64  `json:"id"`
	Data      Date   `json:"data"`
	Tipo      Kind   `json:"tipo,omitempty"`
	Descricao string `json:"descricao"`
	Valor     Amount `json:"valor"`
	Categoria string `json:"categoria__nome"`
	Pago      bool   `json:"pago"`
}
