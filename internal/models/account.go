package models

// Account — счёт /contas/.
type Account struct {
	ID           int64  `json:"id"`
	Nome         string `json:"nome"`
	SaldoInicial Amount `json:"saldo_inicial"`
	SaldoAtual   Amount `json:"saldo_atual"`
}

// AccountInput — тело создания/обновления счёта.
type AccountInput struct {
	Nome         string `json:"nome"`
	SaldoInicial Amount `json:"saldo_inicial"`
}

func (in AccountInput) Validate() error {
	var c checker
	c.check(!blank(in.Nome), "nome", "Nome é obrigatório")
	c.check(in.SaldoInicial >= 0, "saldo_inicial", "Saldo inicial não pode ser negativo")

	return c.err()
}

// TransferRequest — тело POST /contas/transferir/.
type TransferRequest struct {
	ContaOrigemID  int64  `json:"conta_origem_id"`
	ContaDestinoID int64  `json:"conta_destino_id"`
	Valor          Amount `json:"valor"`
}

func (r TransferRequest) Validate() error {
	var c checker
	c.check(r.ContaOrigemID > 0, "conta_origem_id", "Conta de origem é obrigatória")
	c.check(r.ContaDestinoID > 0, "conta_destino_id", "Conta de destino é obrigatória")
	c.check(r.ContaOrigemID != r.ContaDestinoID, "conta_destino_id", "Contas de origem e destino devem ser diferentes")
	c.check(r.Valor.Positive(), "valor", "Valor deve ser positivo")

	return c.err()
}

// Movement — пара транзакций, созданная переводом или депозитом в цель.
type Movement struct {
	Detail             string `json:"detail"`
	TransacaoSaidaID   int64  `json:"transacao_saida_id"`
	TransacaoEntradaID int64  `json:"transacao_entrada_id"`
}
