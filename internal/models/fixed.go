package models

import "time"

// FixedExpense — ежемесячный фиксированный расход (gasto fixo).
// На сервере отдельного ресурса нет: расход заводится как транзакция
// saida с vencimento в ближайший день оплаты.
type FixedExpense struct {
	Descricao     string
	Valor         Amount
	DiaVencimento int
	Categoria     int64
	Conta         int64
}

func (f FixedExpense) Validate() error {
	var c checker
	c.check(!blank(f.Descricao), "descricao", "Descrição é obrigatória")
	c.check(f.Valor.Positive(), "valor", "Valor deve ser positivo")
	c.check(f.DiaVencimento >= 1 && f.DiaVencimento <= 31, "dia_vencimento", "Dia de vencimento deve estar entre 1 e 31")
	c.check(f.Categoria > 0, "categoria", "Categoria é obrigatória")
	c.check(f.Conta > 0, "conta", "Conta é obrigatória")

	return c.err()
}

// NextDue возвращает ближайшую дату оплаты не раньше now. День, которого нет
// в месяце (31 в апреле), прижимается к последнему дню месяца.
func (f FixedExpense) NextDue(now time.Time) Date {
	today := DateOf(now)

	due := dueIn(today.Year(), today.Month(), f.DiaVencimento)
	if due.Before(today) {
		next := NewDate(today.Year(), today.Month()+1, 1)
		due = dueIn(next.Year(), next.Month(), f.DiaVencimento)
	}

	return due
}

func dueIn(year int, month time.Month, day int) Date {
	last := NewDate(year, month+1, 0).Day()
	if day > last {
		day = last
	}

	return NewDate(year, month, day)
}

// ToTransaction — транзакция saida, которой расход заводится на сервере.
func (f FixedExpense) ToTransaction(now time.Time) TransactionInput {
	due := f.NextDue(now)

	return TransactionInput{
		Tipo:       KindExpense,
		Descricao:  f.Descricao,
		Valor:      f.Valor,
		Data:       DateOf(now),
		Parcelas:   1,
		Vencimento: &due,
		Pago:       false,
		Categoria:  f.Categoria,
		Conta:      f.Conta,
	}
}
