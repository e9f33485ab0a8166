package models

import "time"

// Recurrence — периодичность напоминания.
type Recurrence string

const (
	RecurrenceNone    Recurrence = "nenhuma"
	RecurrenceDaily   Recurrence = "diaria"
	RecurrenceWeekly  Recurrence = "semanal"
	RecurrenceMonthly Recurrence = "mensal"
	RecurrenceYearly  Recurrence = "anual"
)

func (r Recurrence) Valid() bool {
	switch r {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly, RecurrenceYearly:
		return true
	}

	return false
}

// Reminder — напоминание /lembretes/.
type Reminder struct {
	ID            int64      `json:"id"`
	Titulo        string     `json:"titulo"`
	Descricao     string     `json:"descricao"`
	DataLembrete  *Date      `json:"data_lembrete"`
	DiasAntes     int        `json:"dias_antes"`
	Recorrencia   Recurrence `json:"recorrencia"`
	Transacao     *int64     `json:"transacao"`
	Ativo         bool       `json:"ativo"`
	CriadoEm      time.Time  `json:"criado_em"`
	UltimoDisparo *Date      `json:"ultimo_disparo"`
}

// ReminderInput — тело создания/обновления напоминания.
type ReminderInput struct {
	Titulo       string     `json:"titulo"`
	Descricao    string     `json:"descricao,omitempty"`
	DataLembrete *Date      `json:"data_lembrete,omitempty"`
	DiasAntes    int        `json:"dias_antes"`
	Recorrencia  Recurrence `json:"recorrencia"`
	Transacao    *int64     `json:"transacao,omitempty"`
	Ativo        *bool      `json:"ativo,omitempty"`
}

func (in ReminderInput) Validate() error {
	var c checker
	c.check(!blank(in.Titulo), "titulo", "Título é obrigatório")
	c.check(in.Recorrencia.Valid(), "recorrencia", "Recorrência inválida")
	c.check(in.DiasAntes >= 0, "dias_antes", "Dias antes não pode ser negativo")
	if in.Recorrencia != RecurrenceNone && in.Recorrencia != RecurrenceDaily && in.Recorrencia.Valid() {
		c.check(in.DataLembrete != nil && !in.DataLembrete.IsZero(), "data_lembrete",
			"Data do lembrete é obrigatória para recorrência")
	}

	return c.err()
}

// TodayReminders — ответ GET /lembretes/hoje/.
type TodayReminders struct {
	Lembretes    []Reminder     `json:"lembretes"`
	Notificacoes []Notification `json:"notificacoes"`
}

// Notification — уведомление /notificacoes/.
type Notification struct {
	ID        int64     `json:"id"`
	Texto     string    `json:"texto"`
	Transacao *int64    `json:"transacao"`
	CriadaEm  time.Time `json:"criada_em"`
	Lida      bool      `json:"lida"`
	Link      *string   `json:"link"`
}

// NotificationPatch — тело PATCH /notificacoes/{id}/.
type NotificationPatch struct {
	Lida bool `json:"lida"`
}
