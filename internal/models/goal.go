package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Goal — финансовая цель /metas/.
type Goal struct {
	ID             int64  `json:"id"`
	Nome           string `json:"nome"`
	ValorAlvo      Amount `json:"valor_alvo"`
	DataAlvo       *Date  `json:"data_alvo"`
	Ativa          bool   `json:"ativa"`
	ContaVinculada *int64 `json:"conta_vinculada,omitempty"`
}

// GoalInput — тело создания/обновления цели.
type GoalInput struct {
	Nome      string `json:"nome"`
	ValorAlvo Amount `json:"valor_alvo"`
	DataAlvo  *Date  `json:"data_alvo,omitempty"`
	Ativa     *bool  `json:"ativa,omitempty"`
}

func (in GoalInput) Validate() error {
	var c checker
	c.check(!blank(in.Nome), "nome", "Nome é obrigatório")
	c.check(in.ValorAlvo.Positive(), "valor_alvo", "Valor alvo da meta deve ser positivo")

	return c.err()
}

// Percent — процент; сервер отдаёт его и числом, и строкой.
type Percent float64

func (p *Percent) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(bytes.TrimSpace(data), `"`)
	if len(data) == 0 || string(data) == "null" {
		*p = 0
		return nil
	}

	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return err
	}

	*p = Percent(f)
	return nil
}

func (p Percent) MarshalJSON() ([]byte, error) {
	return json.Marshal(float64(p))
}

// GoalProgress — ответ GET /metas/{id}/progresso/.
type GoalProgress struct {
	MetaID             int64   `json:"meta_id"`
	Nome               string  `json:"nome"`
	ValorAlvo          Amount  `json:"valor_alvo"`
	ValorAtual         Amount  `json:"valor_atual"`
	FaltaAtingir       Amount  `json:"falta_atingir"`
	PercentualAtingido Percent `json:"percentual_atingido"`
}

// DepositRequest — тело POST /metas/{id}/depositar/.
type DepositRequest struct {
	Valor Amount `json:"valor"`
}

func (r DepositRequest) Validate() error {
	var c checker
	c.check(r.Valor.Positive(), "valor", "Valor inválido. Deve ser um número positivo.")

	return c.err()
}
