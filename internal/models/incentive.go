package models

import "time"

// ConclusionRequest — тело POST /incentivos/conclusao/.
type ConclusionRequest struct {
	Ano     int    `json:"ano"`
	ContaID *int64 `json:"conta_id,omitempty"`
}

func (r ConclusionRequest) Validate() error {
	var c checker
	c.check(r.Ano > 0, "ano", `Campo "ano" inválido.`)

	return c.err()
}

// ConclusionIncentive — созданный (ещё не выплаченный) incentivo de conclusão.
type ConclusionIncentive struct {
	ID       int64  `json:"id"`
	Valor    Amount `json:"valor"`
	Liberado bool   `json:"liberado"`
}

// ReleaseRequest — тело POST /incentivos/conclusao/liberar/.
type ReleaseRequest struct {
	IncentivoID int64 `json:"incentivo_id"`
}

func (r ReleaseRequest) Validate() error {
	var c checker
	c.check(r.IncentivoID > 0, "incentivo_id", "Incentivo é obrigatório")

	return c.err()
}

// EnemRequest — тело POST /incentivos/enem/.
type EnemRequest struct {
	ContaID *int64 `json:"conta_id,omitempty"`
	Ano     *int   `json:"ano,omitempty"`
}

func (r EnemRequest) Validate() error {
	if r.Ano != nil && *r.Ano <= 0 {
		return invalid("ano", `Campo "ano" inválido.`)
	}

	return nil
}

// Payout — выплаченный incentivo и созданная им транзакция.
type Payout struct {
	ID          int64  `json:"id"`
	TransacaoID int64  `json:"transacao_id"`
	Valor       Amount `json:"valor"`
}

// Incentive — строка списка incentivos в дашборде.
type Incentive struct {
	ID       int64     `json:"id"`
	Ano      *int      `json:"ano"`
	Valor    Amount    `json:"valor"`
	Liberado bool      `json:"liberado"`
	CriadoEm time.Time `json:"criado_em"`
}
