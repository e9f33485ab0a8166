package apitest

import (
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/pribylovaa/controlae/internal/models"
)

const (
	kindConclusion = "conclusao"
	kindEnem       = "enem"
)

// payoutAccount — счёт для зачисления: явный contaID или первый; под s.mu.
func (s *Server) payoutAccount(w http.ResponseWriter, contaID *int64) (*models.Account, bool) {
	if contaID != nil {
		a, ok := s.accounts[*contaID]
		if !ok {
			writeDetail(w, http.StatusNotFound, "Conta inválida.")
			return nil, false
		}
		return a, true
	}

	a := s.firstAccount()
	if a == nil {
		writeDetail(w, http.StatusBadRequest, "Nenhuma conta cadastrada.")
		return nil, false
	}
	return a, true
}

// pay создаёт транзакцию entrada для выплаты incentivo; под s.mu.
func (s *Server) pay(inc *incentive, conta int64, desc string) *models.Transaction {
	inc.Liberado = true
	return s.addTransaction(models.TransactionInput{
		Tipo:      models.KindIncome,
		Descricao: desc,
		Valor:     inc.Valor,
		Data:      models.DateOf(time.Now()),
		Parcelas:  1,
		Pago:      true,
		Categoria: s.categoryByName(CategoryIncentive, models.KindIncome).ID,
		Conta:     conta,
	})
}

func (s *Server) createConclusion(w http.ResponseWriter, r *http.Request) {
	var in models.ConclusionRequest
	if !decode(w, r, &in) {
		return
	}
	if err := in.Validate(); err != nil {
		writeDetail(w, http.StatusBadRequest, `Campo "ano" inválido.`)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if in.ContaID != nil {
		if _, ok := s.accounts[*in.ContaID]; !ok {
			writeDetail(w, http.StatusNotFound, "Conta inválida.")
			return
		}
	}
	for _, inc := range s.incentives {
		if inc.kind == kindConclusion && inc.Ano != nil && *inc.Ano == in.Ano {
			writeDetail(w, http.StatusBadRequest, fmt.Sprintf("Incentivo de conclusão de %d já registrado.", in.Ano))
			return
		}
	}

	ano := in.Ano
	inc := &incentive{
		Incentive: models.Incentive{ID: s.next(), Ano: &ano, Valor: ConclusionValue, CriadoEm: time.Now().UTC()},
		kind:      kindConclusion,
		conta:     in.ContaID,
	}
	s.incentives[inc.ID] = inc

	writeJSON(w, http.StatusCreated, models.ConclusionIncentive{ID: inc.ID, Valor: inc.Valor, Liberado: inc.Liberado})
}

func (s *Server) releaseConclusion(w http.ResponseWriter, r *http.Request) {
	var in models.ReleaseRequest
	if !decode(w, r, &in) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	inc, ok := s.incentives[in.IncentivoID]
	if !ok || inc.kind != kindConclusion {
		writeDetail(w, http.StatusNotFound, "Incentivo não encontrado.")
		return
	}
	if inc.Liberado {
		writeDetail(w, http.StatusBadRequest, "Incentivo já liberado.")
		return
	}
	acc, ok := s.payoutAccount(w, inc.conta)
	if !ok {
		return
	}

	t := s.pay(inc, acc.ID, fmt.Sprintf("Incentivo conclusão %d", *inc.Ano))
	writeJSON(w, http.StatusOK, models.Payout{ID: inc.ID, TransacaoID: t.ID, Valor: t.Valor})
}

func (s *Server) createEnem(w http.ResponseWriter, r *http.Request) {
	var in models.EnemRequest
	if !decode(w, r, &in) {
		return
	}
	if err := in.Validate(); err != nil {
		writeDetail(w, http.StatusBadRequest, `Campo "ano" inválido.`)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.payoutAccount(w, in.ContaID)
	if !ok {
		return
	}

	ano := time.Now().Year()
	if in.Ano != nil {
		ano = *in.Ano
	}
	for _, inc := range s.incentives {
		if inc.kind == kindEnem && inc.Ano != nil && *inc.Ano == ano {
			writeDetail(w, http.StatusBadRequest, fmt.Sprintf("Incentivo ENEM de %d já registrado.", ano))
			return
		}
	}

	inc := &incentive{
		Incentive: models.Incentive{ID: s.next(), Ano: &ano, Valor: EnemValue, CriadoEm: time.Now().UTC()},
		kind:      kindEnem,
	}
	s.incentives[inc.ID] = inc

	t := s.pay(inc, acc.ID, fmt.Sprintf("Incentivo ENEM %d", ano))
	writeJSON(w, http.StatusCreated, models.Payout{ID: inc.ID, TransacaoID: t.ID, Valor: t.Valor})
}

// ---- relatorio / dashboard ----

// PDFMagic — начало тела, которое отдаёт /relatorio/pdf/.
const PDFMagic = "%PDF-1.4"

func (s *Server) reportPDF(w http.ResponseWriter, r *http.Request) {
	p, ok := parsePeriod(w, r)
	if !ok {
		return
	}
	if err := p.Validate(); err != nil {
		writeDetail(w, http.StatusBadRequest, "Período inválido.")
		return
	}

	s.mu.Lock()
	in, out, _ := s.totals(p)
	s.mu.Unlock()

	name := fmt.Sprintf("relatorio_financeiro_%s.pdf", models.DateOf(time.Now()))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "%s\n%% entradas=%s saidas=%s\n%%%%EOF\n", PDFMagic, in, out)
}

func (s *Server) incentivesOf(kind string) []models.Incentive {
	out := []models.Incentive{}
	for _, inc := range sortedValues(s.incentives) {
		if inc.kind == kind {
			out = append(out, inc.Incentive)
		}
	}
	return out
}

func recent(t models.Transaction) *models.RecentTransaction {
	return &models.RecentTransaction{
		ID: t.ID, Data: t.Data, Tipo: t.Tipo, Descricao: t.Descricao,
		Valor: t.Valor, Categoria: t.CategoriaNome, Pago: t.Pago,
	}
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	p, ok := parsePeriod(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	in, out, pedeMeia := s.totals(p)
	res := models.Dashboard{
		Resumo: models.DashboardSummary{
			TotalEntradas:    in,
			TotalSaidas:      out,
			SaldoLiquido:     in - out,
			PedeMeiaRecebido: pedeMeia,
		},
		Graficos: models.DashboardCharts{
			GastosCategoria:   s.totalsByCategory(p, models.KindExpense),
			EntradasCategoria: s.totalsByCategory(p, models.KindIncome),
		},
		Incentivos: models.DashboardIncentives{
			Conclusao: s.incentivesOf(kindConclusion),
			Enem:      s.incentivesOf(kindEnem),
		},
		Contas:             []models.Account{},
		Metas:              sortedValues(s.goals),
		TransacoesRecentes: []models.RecentTransaction{},
	}
	for _, a := range sortedValues(s.accounts) {
		res.Contas = append(res.Contas, s.accountView(&a))
	}

	txs := sortedValues(s.transactions)
	slices.SortStableFunc(txs, func(a, b models.Transaction) int {
		switch {
		case b.Data.Before(a.Data):
			return -1
		case a.Data.Before(b.Data):
			return 1
		}
		return int(b.ID - a.ID)
	})
	for _, t := range txs {
		if t.CategoriaNome == CategoryPedeMeia && res.Incentivos.PedeMeia == nil {
			res.Incentivos.PedeMeia = recent(t)
		}
		if len(res.TransacoesRecentes) < 5 && inPeriod(p, t.Data) {
			res.TransacoesRecentes = append(res.TransacoesRecentes, *recent(t))
		}
	}

	writeJSON(w, http.StatusOK, res)
}
