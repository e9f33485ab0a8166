package apitest

import (
	"cmp"
	"fmt"
	"math"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/controlae/internal/models"
)

// Константы бизнес-правил бэкенда.
const (
	CategoryPedeMeia  = "Pé-de-Meia"
	CategoryTransfer  = "Transferência"
	CategoryIncentive = "Incentivos"

	PedeMeiaInstallment = models.Amount(20000)
	ConclusionValue     = models.Amount(100000)
	EnemValue           = models.Amount(20000)

	detailNotFound = "Not found."
)

type incentive struct {
	models.Incentive
	kind  string
	conta *int64
}

// AddCategory, AddAccount и AddNotification наполняют хранилище без HTTP.
func (s *Server) AddCategory(nome string, kind models.Kind) models.Category {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := &models.Category{ID: s.next(), Nome: nome, TipoCategoria: kind}
	s.categories[c.ID] = c
	return *c
}

func (s *Server) AddAccount(nome string, saldo models.Amount) models.Account {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := &models.Account{ID: s.next(), Nome: nome, SaldoInicial: saldo}
	s.accounts[a.ID] = a
	return s.accountView(a)
}

func (s *Server) AddNotification(texto string) models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := &models.Notification{ID: s.next(), Texto: texto, CriadaEm: time.Now().UTC()}
	s.notifications[n.ID] = n
	return *n
}

func sortedValues[T any](m map[int64]*T) []T {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, *m[id])
	}
	return out
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeDetail(w, http.StatusNotFound, detailNotFound)
		return 0, false
	}

	return id, true
}

func parsePeriod(w http.ResponseWriter, r *http.Request) (models.Period, bool) {
	var (
		p   models.Period
		err error
	)
	q := r.URL.Query()
	if v := q.Get("from_date"); v != "" {
		if p.From, err = models.ParseDate(v); err != nil {
			writeDetail(w, http.StatusBadRequest, "from_date inválido.")
			return p, false
		}
	}
	if v := q.Get("to_date"); v != "" {
		if p.To, err = models.ParseDate(v); err != nil {
			writeDetail(w, http.StatusBadRequest, "to_date inválido.")
			return p, false
		}
	}

	return p, true
}

func inPeriod(p models.Period, d models.Date) bool {
	if !p.From.IsZero() && d.Before(p.From) {
		return false
	}
	if !p.To.IsZero() && p.To.Before(d) {
		return false
	}
	return true
}

// balance — saldo_atual счёта; вызывается под s.mu.
func (s *Server) balance(accountID int64) models.Amount {
	a, ok := s.accounts[accountID]
	if !ok {
		return 0
	}

	total := a.SaldoInicial
	for _, t := range s.transactions {
		if t.Conta != accountID {
			continue
		}
		if t.Tipo == models.KindIncome {
			total += t.Valor
		} else {
			total -= t.Valor
		}
	}
	return total
}

func (s *Server) accountView(a *models.Account) models.Account {
	out := *a
	out.SaldoAtual = s.balance(a.ID)
	return out
}

// categoryByName находит или создаёт служебную категорию; под s.mu.
func (s *Server) categoryByName(nome string, kind models.Kind) *models.Category {
	for _, c := range s.categories {
		if c.Nome == nome && c.TipoCategoria == kind {
			return c
		}
	}

	c := &models.Category{ID: s.next(), Nome: nome, TipoCategoria: kind}
	s.categories[c.ID] = c
	return c
}

// firstAccount — счёт с наименьшим id, не привязанный к цели; под s.mu.
func (s *Server) firstAccount() *models.Account {
	linked := map[int64]bool{}
	for _, g := range s.goals {
		if g.ContaVinculada != nil {
			linked[*g.ContaVinculada] = true
		}
	}

	var first *models.Account
	for _, a := range s.accounts {
		if linked[a.ID] {
			continue
		}
		if first == nil || a.ID < first.ID {
			first = a
		}
	}
	return first
}

// addTransaction сохраняет транзакцию; под s.mu.
func (s *Server) addTransaction(in models.TransactionInput) *models.Transaction {
	t := &models.Transaction{
		ID:         s.next(),
		Tipo:       in.Tipo,
		Descricao:  in.Descricao,
		Valor:      in.Valor,
		Data:       in.Data,
		Parcelas:   in.Parcelas,
		Vencimento: in.Vencimento,
		Pago:       in.Pago,
		Categoria:  in.Categoria,
		Conta:      in.Conta,
	}
	s.decorate(t)
	s.transactions[t.ID] = t
	return t
}

func (s *Server) decorate(t *models.Transaction) {
	if c, ok := s.categories[t.Categoria]; ok {
		t.CategoriaNome = c.Nome
		t.TipoCategoria = c.TipoCategoria
	}
	if a, ok := s.accounts[t.Conta]; ok {
		t.ContaNome = a.Nome
	}
}

// checkRefs проверяет ссылки на категорию и счёт; под s.mu.
func (s *Server) checkRefs(w http.ResponseWriter, categoria, conta int64) bool {
	fields := map[string][]string{}
	if _, ok := s.categories[categoria]; !ok {
		fields["categoria"] = []string{fmt.Sprintf("Pk inválido %q - objeto não existe.", strconv.FormatInt(categoria, 10))}
	}
	if _, ok := s.accounts[conta]; !ok {
		fields["conta"] = []string{fmt.Sprintf("Pk inválido %q - objeto não existe.", strconv.FormatInt(conta, 10))}
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, fields)
		return false
	}
	return true
}

// ---- transacoes ----

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	items := sortedValues(s.transactions)
	s.mu.Unlock()

	s.writeList(w, items, len(items))
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	var in models.TransactionInput
	if !decode(w, r, &in) {
		return
	}
	if err := in.Validate(); err != nil {
		writeValidation(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.checkRefs(w, in.Categoria, in.Conta) {
		return
	}
	writeJSON(w, http.StatusCreated, s.addTransaction(in))
}

func (s *Server) getTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.transactions[id]
	if !ok {
		writeDetail(w, http.StatusNotFound, detailNotFound)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) updateTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in models.TransactionInput
	if !decode(w, r, &in) {
		return
	}
	if err := in.Validate(); err != nil {
		writeValidation(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.transactions[id]; !ok {
		writeDetail(w, http.StatusNotFound, detailNotFound)
		return
	}
	if !s.checkRefs(w, in.Categoria, in.Conta) {
		return
	}

	t := &models.Transaction{
		ID: id, Tipo: in.Tipo, Descricao: in.Descricao, Valor: in.Valor, Data: in.Data,
		Parcelas: in.Parcelas, Vencimento: in.Vencimento, Pago: in.Pago,
		Categoria: in.Categoria, Conta: in.Conta,
	}
	s.decorate(t)
	s.transactions[id] = t
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) patchTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var p models.TransactionPatch
	if !decode(w, r, &p) {
		return
	}
	if err := p.Validate(); err != nil {
		writeValidation(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.transactions[id]
	if !ok {
		writeDetail(w, http.StatusNotFound, detailNotFound)
		return
	}

	next := *t
	if p.Tipo != nil {
		next.Tipo = *p.Tipo
	}
	if p.Descricao != nil {
		next.Descricao = *p.Descricao
	}
	if p.Valor != nil {
		next.Valor = *p.Valor
	}
	if p.Data != nil {
		next.Data = *p.Data
	}
	if p.Vencimento != nil {
		next.Vencimento = p.Vencimento
	}
	if p.Pago != nil {
		next.Pago = *p.Pago
	}
	if p.Categoria != nil {
		next.Categoria = *p.Categoria
	}
	if p.Conta != nil {
		next.Conta = *p.Conta
	}
	if !s.checkRefs(w, next.Categoria, next.Conta) {
		return
	}

	s.decorate(&next)
	s.transactions[id] = &next
	writeJSON(w, http.StatusOK, next)
}

func (s *Server) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.transactions[id]; !ok {
		writeDetail(w, http.StatusNotFound, detailNotFound)
		return
	}
	delete(s.transactions, id)
	w.WriteHeader(http.StatusNoContent)
}

// totalsByCategory — суммы по имени категории для транзакций вида kind; под s.mu.
func (s *Server) totalsByCategory(p models.Period, kind models.Kind) []models.CategoryTotal {
	sums := map[string]models.Amount{}
	for _, t := range s.transactions {
		if t.Tipo == kind && inPeriod(p, t.Data) {
			sums[t.CategoriaNome] += t.Valor
		}
	}

	out := make([]models.CategoryTotal, 0, len(sums))
	for name, total := range sums {
		out = append(out, models.CategoryTotal{Categoria: name, Total: total})
	}
	slices.SortFunc(out, func(a, b models.CategoryTotal) int {
		if c := cmp.Compare(b.Total, a.Total); c != 0 {
			return c
		}
		return cmp.Compare(a.Categoria, b.Categoria)
	})
	return out
}

// totals — entradas, saídas и полученный Pé-de-Meia за период; под s.mu.
func (s *Server) totals(p models.Period) (in, out, pedeMeia models.Amount) {
	for _, t := range s.transactions {
		if !inPeriod(p, t.Data) {
			continue
		}
		if t.Tipo == models.KindIncome {
			in += t.Valor
			if t.CategoriaNome == CategoryPedeMeia {
				pedeMeia += t.Valor
			}
		} else {
			out += t.Valor
		}
	}
	return in, out, pedeMeia
}

func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	p, ok := parsePeriod(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	in, out, pedeMeia := s.totals(p)
	res := models.FinancialSummary{
		SaldoLiquido:       in - out,
		TotalEntradas:      in,
		TotalSaidas:        out,
		GastosPorCategoria: s.totalsByCategory(p, models.KindExpense),
		PedeMeiaRecebido:   pedeMeia,
		ParcelasPendentes:  []models.PendingInstallment{},
	}
	for _, a := range sortedValues(s.accounts) {
		res.SaldosPorConta = append(res.SaldosPorConta, models.AccountBalance{
			ID: a.ID, Nome: a.Nome, SaldoAtual: s.balance(a.ID),
		})
	}

	writeJSON(w, http.StatusOK, res)
}

func (s *Server) confirmIncome(w http.ResponseWriter, r *http.Request) {
	var in models.ConfirmIncomeRequest
	if !decode(w, r, &in) {
		return
	}
	if err := in.Validate(); err != nil {
		writeDetail(w, http.StatusBadRequest, "Campos 'mes' e 'ano' devem ser inteiros válidos.")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	desc := fmt.Sprintf("%s %02d/%d", CategoryPedeMeia, in.Mes, in.Ano)
	for _, t := range s.transactions {
		if t.Descricao == desc {
			writeDetail(w, http.StatusBadRequest, fmt.Sprintf("Parcela de %d/%d já foi confirmada.", in.Mes, in.Ano))
			return
		}
	}
	acc := s.firstAccount()
	if acc == nil {
		writeDetail(w, http.StatusBadRequest, "Nenhuma conta cadastrada para receber o Pé-de-Meia.")
		return
	}

	t := s.addTransaction(models.TransactionInput{
		Tipo:      models.KindIncome,
		Descricao: desc,
		Valor:     PedeMeiaInstallment,
		Data:      models.NewDate(in.Ano, time.Month(in.Mes), 1),
		Parcelas:  1,
		Pago:      true,
		Categoria: s.categoryByName(CategoryPedeMeia, models.KindIncome).ID,
		Conta:     acc.ID,
	})

	writeJSON(w, http.StatusOK, models.ConfirmIncomeResponse{
		Detail:      fmt.Sprintf("Parcela de %d/%d confirmada com sucesso.", in.Mes, in.Ano),
		TransacaoID: t.ID,
		Valor:       t.Valor,
	})
}

// ---- categorias ----

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	items := sortedValues(s.categories)
	s.mu.Unlock()

	s.writeList(w, items, len(items))
}

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	var in models.CategoryInput
	if !decode(w, r, &in) {
		return
	}
	if err := in.Validate(); err != nil {
		writeValidation(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := &models.Category{ID: s.next(), Nome: in.Nome, TipoCategoria: in.TipoCategoria}
	s.categories[c.ID] = c
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) getCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.categories[id]
	if !ok {
		writeDetail(w, http.StatusNotFound, detailNotFound)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) updateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in models.CategoryInput
	if !decode(w, r, &in) {
		return
	}
	if err := in.Validate(); err != nil {
		writeValidation(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.categories[id]
	if !ok {
		writeDetail(w, http.StatusNotFound, detailNotFound)
		return
	}
	c.Nome, c.TipoCategoria = in.Nome, in.TipoCategoria
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[id]; !ok {
		writeDetail(w, http.StatusNotFound, detailNotFound)
		return
	}
	delete(s.categories, id)
	w.WriteHeader(http.StatusNoContent)
}

// ---- contas ----

func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	items := sortedValues(s.accounts)
	for i := range items {
		items[i].SaldoAtual = s.balance(items[i].ID)
	}
	s.mu.Unlock()

	s.writeList(w, items, len(items))
}

func (s *Server) createAccount(w http.ResponseWriter, r *http.Request) {
	var in models.AccountInput
	if !decode(w, r, &in) {
		return
	}
	if err := in.Validate(); err != nil {
		writeValidation(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a := &models.Account{ID: s.next(), Nome: in.Nome, SaldoInicial: in.SaldoInicial}
	s.accounts[a.ID] = a
	writeJSON(w, http.StatusCreated, s.accountView(a))
}

func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		writeDetail(w, http.StatusNotFound, detailNotFound)
		return
	}
	writeJSON(w, http.StatusOK, s.accountView(a))
}

func (s *Server) updateAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in models.AccountInput
	if !decode(w, r, &in) {
		return
	}
	if err := in.Validate(); err != nil {
		writeValidation(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		writeDetail(w, http.StatusNotFound, detailNotFound)
		return
	}
	a.Nome, a.SaldoInicial = in.Nome, in.SaldoInicial
	writeJSON(w, http.StatusOK, s.accountView(a))
}

func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[id]; !ok {
		writeDetail(w, http.StatusNotFound, detailNotFound)
		return
	}
	delete(s.accounts, id)
	w.WriteHeader(http.StatusNoContent)
}

// move — пара транзакций saida/entrada между счетами; под s.mu.
func (s *Server) move(from, to int64, valor models.Amount, desc string) models.Movement {
	today := models.DateOf(time.Now())
	out := s.addTransaction(models.TransactionInput{
		Tipo: models.KindExpense, Descricao: desc, Valor: valor, Data: today, Parcelas: 1, Pago: true,
		Categoria: s.categoryByName(CategoryTransfer, models.KindExpense).ID, Conta: from,
	})
	in := s.addTransaction(models.TransactionInput{
		Tipo: models.KindIncome, Descricao: desc, Valor: valor, Data: today, Parcelas: 1, Pago: true,
		Categoria: s.categoryByName(CategoryTransfer, models.KindIncome).ID, Conta: to,
	})

	return models.Movement{TransacaoSaidaID: out.ID, TransacaoEntradaID: in.ID}
}

func (s *Server) transfer(w http.ResponseWriter, r *http.Request) {
	var in models.TransferRequest
	if !decode(w, r, &in) {
		return
	}
	if err := in.Validate(); err != nil {
		writeValidation(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	origem, ok1 := s.accounts[in.ContaOrigemID]
	destino, ok2 := s.accounts[in.ContaDestinoID]
	if !ok1 || !ok2 {
		writeDetail(w, http.StatusNotFound, "Uma ou ambas as contas não existem ou não pertencem a você.")
		return
	}
	if s.balance(origem.ID) < in.Valor {
		writeDetail(w, http.StatusBadRequest, "Saldo insuficiente na conta de origem.")
		return
	}

	m := s.move(origem.ID, destino.ID, in.Valor, fmt.Sprintf("Transferência: %s -> %s", origem.Nome, destino.Nome))
	m.Detail = fmt.Sprintf("Transferência de R$ %s realizada com sucesso.", in.Valor)
	writeJSON(w, http.StatusCreated, m)
}

// ---- metas ----

func (s *Server) listGoals(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	items := sortedValues(s.goals)
	s.mu.Unlock()

	s.writeList(w, items, len(items))
}

func (s *Server) createGoal(w http.ResponseWriter, r *http.Request) {
	var in models.GoalInput
	if !decode(w, r, &in) {
		return
	}
	if err := in.Validate(); err != nil {
		writeValidation(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc := &models.Account{ID: s.next(), Nome: "Poupança: " + in.Nome}
	s.accounts[acc.ID] = acc

	g := &models.Goal{ID: s.next(), Nome: in.Nome, ValorAlvo: in.ValorAlvo, DataAlvo: in.DataAlvo, Ativa: true, ContaVinculada: &acc.ID}
	if in.Ativa != nil {
		g.Ativa = *in.Ativa
	}
	s.goals[g.ID] = g
	writeJSON(w, http.StatusCreated, g)
}

func (s *Server) getGoal(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.goals[id]
	if !ok {
		writeDetail(w, http.StatusNotFound, detailNotFound)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) updateGoal(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in models.GoalInput
	if !decode(w, r, &in) {
		return
	}
	if err := in.Validate(); err != nil {
		writeValidation(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.goals[id]
	if !ok {
		writeDetail(w, http.StatusNotFound, detailNotFound)
		return
	}
	g.Nome, g.ValorAlvo, g.DataAlvo = in.Nome, in.ValorAlvo, in.DataAlvo
	if in.Ativa != nil {
		g.Ativa = *in.Ativa
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) deleteGoal(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.goals[id]; !ok {
		writeDetail(w, http.StatusNotFound, detailNotFound)
		return
	}
	delete(s.goals, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) goalProgress(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.goals[id]
	if !ok {
		writeDetail(w, http.StatusNotFound, detailNotFound)
		return
	}

	var atual models.Amount
	if g.ContaVinculada != nil {
		atual = s.balance(*g.ContaVinculada)
	}
	falta := g.ValorAlvo - atual
	if falta < 0 {
		falta = 0
	}
	var pct float64
	if g.ValorAlvo > 0 {
		pct = math.Round(float64(atual)/float64(g.ValorAlvo)*10000) / 100
	}

	writeJSON(w, http.StatusOK, models.GoalProgress{
		MetaID:             g.ID,
		Nome:               g.Nome,
		ValorAlvo:          g.ValorAlvo,
		ValorAtual:         atual,
		FaltaAtingir:       falta,
		PercentualAtingido: models.Percent(pct),
	})
}

func (s *Server) deposit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in models.DepositRequest
	if !decode(w, r, &in) {
		return
	}
	if err := in.Validate(); err != nil {
		writeDetail(w, http.StatusBadRequest, "Valor inválido. Deve ser um número positivo.")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.goals[id]
	if !ok || g.ContaVinculada == nil {
		writeDetail(w, http.StatusNotFound, detailNotFound)
		return
	}
	src := s.firstAccount()
	if src == nil || s.balance(src.ID) < in.Valor {
		writeDetail(w, http.StatusBadRequest, "Saldo insuficiente para o depósito.")
		return
	}

	m := s.move(src.ID, *g.ContaVinculada, in.Valor, "Depósito na meta: "+g.Nome)
	m.Detail = fmt.Sprintf("Depósito de R$ %s realizado na meta '%s'.", in.Valor, g.Nome)
	writeJSON(w, http.StatusOK, m)
}

// ---- lembretes ----

func reminderFrom(id int64, in models.ReminderInput, created time.Time) *models.Reminder {
	rem := &models.Reminder{
		ID:           id,
		Titulo:       in.Titulo,
		Descricao:    in.Descricao,
		DataLembrete: in.DataLembrete,
		DiasAntes:    in.DiasAntes,
		Recorrencia:  in.Recorrencia,
		Transacao:    in.Transacao,
		Ativo:        true,
		CriadoEm:     created,
	}
	if in.Ativo != nil {
		rem.Ativo = *in.Ativo
	}
	return rem
}

func (s *Server) listReminders(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	items := sortedValues(s.reminders)
	s.mu.Unlock()

	s.writeList(w, items, len(items))
}

func (s *Server) createReminder(w http.ResponseWriter, r *http.Request) {
	var in models.ReminderInput
	if !decode(w, r, &in) {
		return
	}
	if err := in.Validate(); err != nil {
		writeValidation(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rem := reminderFrom(s.next(), in, time.Now().UTC())
	s.reminders[rem.ID] = rem
	writeJSON(w, http.StatusCreated, rem)
}

func (s *Server) getReminder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rem, ok := s.reminders[id]
	if !ok {
		writeDetail(w, http.StatusNotFound, detailNotFound)
		return
	}
	writeJSON(w, http.StatusOK, rem)
}

func (s *Server) updateReminder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in models.ReminderInput
	if !decode(w, r, &in) {
		return
	}
	if err := in.Validate(); err != nil {
		writeValidation(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.reminders[id]
	if !ok {
		writeDetail(w, http.StatusNotFound, detailNotFound)
		return
	}
	rem := reminderFrom(id, in, old.CriadoEm)
	s.reminders[id] = rem
	writeJSON(w, http.StatusOK, rem)
}

func (s *Server) deleteReminder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reminders[id]; !ok {
		writeDetail(w, http.StatusNotFound, detailNotFound)
		return
	}
	delete(s.reminders, id)
	w.WriteHeader(http.StatusNoContent)
}

// dueToday — срабатывает ли напоминание сегодня; под s.mu.
func (s *Server) dueToday(rem *models.Reminder, today models.Date) bool {
	if !rem.Ativo {
		return false
	}
	if rem.Recorrencia == models.RecurrenceDaily {
		return true
	}

	if d := rem.DataLembrete; d != nil && !d.IsZero() {
		switch rem.Recorrencia {
		case models.RecurrenceNone:
			if d.Equal(today) {
				return true
			}
		case models.RecurrenceWeekly:
			if d.Time().Weekday() == today.Time().Weekday() {
				return true
			}
		case models.RecurrenceMonthly:
			if d.Day() == today.Day() {
				return true
			}
		case models.RecurrenceYearly:
			if d.Day() == today.Day() && d.Month() == today.Month() {
				return true
			}
		}
	}

	if rem.Transacao != nil {
		if t, ok := s.transactions[*rem.Transacao]; ok && t.Vencimento != nil {
			return t.Vencimento.AddDays(-rem.DiasAntes).Equal(today)
		}
	}
	return false
}

func (s *Server) todayReminders(w http.ResponseWriter, r *http.Request) {
	today := models.DateOf(time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()

	res := models.TodayReminders{Lembretes: []models.Reminder{}, Notificacoes: []models.Notification{}}
	for _, rem := range sortedValues(s.reminders) {
		if s.dueToday(&rem, today) {
			res.Lembretes = append(res.Lembretes, rem)
		}
	}
	res.Notificacoes = s.unread()

	writeJSON(w, http.StatusOK, res)
}

// ---- notificacoes ----

func (s *Server) unread() []models.Notification {
	out := []models.Notification{}
	for _, n := range sortedValues(s.notifications) {
		if !n.Lida {
			out = append(out, n)
		}
	}
	return out
}

func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	items := sortedValues(s.notifications)
	s.mu.Unlock()

	s.writeList(w, items, len(items))
}

func (s *Server) pendingNotifications(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	items := s.unread()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, items)
}

func (s *Server) getNotification(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok {
		writeDetail(w, http.StatusNotFound, detailNotFound)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) patchNotification(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var p models.NotificationPatch
	if !decode(w, r, &p) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok {
		writeDetail(w, http.StatusNotFound, detailNotFound)
		return
	}
	n.Lida = p.Lida
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) deleteNotification(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.notifications[id]; !ok {
		writeDetail(w, http.StatusNotFound, detailNotFound)
		return
	}
	delete(s.notifications, id)
	w.WriteHeader(http.StatusNoContent)
}
