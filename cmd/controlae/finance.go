package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/pribylovaa/controlae/internal/models"
)

var transactionCmds = map[string]runFunc{
	"list":    txList,
	"add":     txAdd,
	"edit":    txEdit,
	"pay":     txPay,
	"rm":      txRemove,
	"summary": txSummary,
	"confirm": txConfirm,
}

var categoryCmds = map[string]runFunc{
	"list": categoryList,
	"add":  categoryAdd,
	"rm":   categoryRemove,
}

var accountCmds = map[string]runFunc{
	"list":     accountList,
	"add":      accountAdd,
	"rm":       accountRemove,
	"transfer": accountTransfer,
}

// ---- transacoes ----

func printTransactions(a *app, items []models.Transaction) error {
	tw := a.table()
	fmt.Fprintln(tw, "ID\tDATA\tTIPO\tDESCRIÇÃO\tVALOR\tCATEGORIA\tCONTA\tPAGO")
	for _, t := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Data, t.Tipo, t.Descricao, t.Valor.BRL(), t.CategoriaNome, t.ContaNome, yesNo(t.Pago))
	}
	return tw.Flush()
}

func txList(ctx context.Context, a *app, args []string) error {
	fs := newFlags("transactions list")
	kind := fs.String("tipo", "", "filter: entrada|saida")
	if err := parse(fs, args); err != nil {
		return err
	}

	items, err := a.cl.Transactions.List(ctx)
	if err != nil {
		return err
	}
	if *kind != "" {
		filtered := items[:0]
		for _, t := range items {
			if string(t.Tipo) == *kind {
				filtered = append(filtered, t)
			}
		}
		items = filtered
	}

	return printTransactions(a, items)
}

// transactionFlags — общие флаги add/edit.
func transactionFlags(fs *flag.FlagSet, in *models.TransactionInput, kind *string) {
	fs.StringVar(kind, "tipo", string(models.KindExpense), "entrada|saida")
	fs.StringVar(&in.Descricao, "desc", "", "descrição")
	fs.IntVar(&in.Parcelas, "parcelas", 1, "número de parcelas")
	fs.Int64Var(&in.Categoria, "categoria", 0, "category id")
	fs.Int64Var(&in.Conta, "conta", 0, "account id")
	fs.BoolVar(&in.Pago, "pago", false, "já pago")
}

func txInput(args []string, name string) (models.TransactionInput, *int64, error) {
	fs := newFlags(name)
	in := models.TransactionInput{Data: models.DateOf(time.Now())}
	var (
		kind   string
		due    models.Date
		dueSet bool
	)
	transactionFlags(fs, &in, &kind)
	fs.Var(amountFlag{v: &in.Valor}, "valor", "valor (12,50)")
	fs.Var(dateFlag{v: &in.Data}, "data", "data YYYY-MM-DD (hoje)")
	fs.Var(dateFlag{v: &due, set: &dueSet}, "vencimento", "vencimento YYYY-MM-DD")
	if err := parse(fs, args); err != nil {
		return in, nil, err
	}
	in.Tipo = models.Kind(kind)
	if dueSet {
		in.Vencimento = &due
	}

	if name == "transactions edit" {
		id, err := argID(fs)
		if err != nil {
			return in, nil, err
		}
		return in, &id, nil
	}
	return in, nil, nil
}

func txAdd(ctx context.Context, a *app, args []string) error {
	in, _, err := txInput(args, "transactions add")
	if err != nil {
		return err
	}

	t, err := a.cl.Transactions.Create(ctx, in)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Transação %d criada: %s %s\n", t.ID, t.Descricao, t.Valor.BRL())
	return nil
}

func txEdit(ctx context.Context, a *app, args []string) error {
	in, id, err := txInput(args, "transactions edit")
	if err != nil {
		return err
	}

	t, err := a.cl.Transactions.Update(ctx, *id, in)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Transação %d atualizada.\n", t.ID)
	return nil
}

func txPay(ctx context.Context, a *app, args []string) error {
	fs := newFlags("transactions pay")
	undo := fs.Bool("undo", false, "marcar como não paga")
	if err := parse(fs, args); err != nil {
		return err
	}
	id, err := argID(fs)
	if err != nil {
		return err
	}

	pago := !*undo
	t, err := a.cl.Transactions.Patch(ctx, id, models.TransactionPatch{Pago: &pago})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Transação %d: pago=%s\n", t.ID, yesNo(t.Pago))
	return nil
}

func txRemove(ctx context.Context, a *app, args []string) error {
	fs := newFlags("transactions rm")
	if err := parse(fs, args); err != nil {
		return err
	}
	id, err := argID(fs)
	if err != nil {
		return err
	}

	if err := a.cl.Transactions.Delete(ctx, id); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Transação %d excluída.\n", id)
	return nil
}

func txSummary(ctx context.Context, a *app, args []string) error {
	fs := newFlags("transactions summary")
	var p models.Period
	periodFlags(fs, &p)
	if err := parse(fs, args); err != nil {
		return err
	}

	s, err := a.cl.Transactions.Summary(ctx, p)
	if err != nil {
		return err
	}

	tw := a.table()
	fmt.Fprintf(tw, "entradas\t%s\n", s.TotalEntradas.BRL())
	fmt.Fprintf(tw, "saídas\t%s\n", s.TotalSaidas.BRL())
	fmt.Fprintf(tw, "saldo líquido\t%s\n", s.SaldoLiquido.BRL())
	fmt.Fprintf(tw, "pé-de-meia recebido\t%s\n", s.PedeMeiaRecebido.BRL())
	for _, c := range s.GastosPorCategoria {
		fmt.Fprintf(tw, "  %s\t%s\n", c.Categoria, c.Total.BRL())
	}
	for _, b := range s.SaldosPorConta {
		fmt.Fprintf(tw, "conta %s\t%s\n", b.Nome, b.SaldoAtual.BRL())
	}
	for _, p := range s.ParcelasPendentes {
		fmt.Fprintf(tw, "pendente %s\t%s\n", p.Data, p.Valor.BRL())
	}
	return tw.Flush()
}

func txConfirm(ctx context.Context, a *app, args []string) error {
	now := time.Now()
	fs := newFlags("transactions confirm")
	var in models.ConfirmIncomeRequest
	fs.IntVar(&in.Mes, "mes", int(now.Month()), "mês (1-12)")
	fs.IntVar(&in.Ano, "ano", now.Year(), "ano")
	if err := parse(fs, args); err != nil {
		return err
	}

	res, err := a.cl.Transactions.ConfirmIncome(ctx, in)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%s (%s)\n", res.Detail, res.Valor.BRL())
	return nil
}

// ---- categorias ----

func categoryList(ctx context.Context, a *app, _ []string) error {
	items, err := a.cl.Categories.List(ctx)
	if err != nil {
		return err
	}

	tw := a.table()
	fmt.Fprintln(tw, "ID\tNOME\tTIPO")
	for _, c := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", c.ID, c.Nome, c.TipoCategoria)
	}
	return tw.Flush()
}

func categoryAdd(ctx context.Context, a *app, args []string) error {
	fs := newFlags("categories add")
	var (
		in   models.CategoryInput
		kind string
	)
	fs.StringVar(&in.Nome, "nome", "", "nome")
	fs.StringVar(&kind, "tipo", string(models.KindExpense), "entrada|saida")
	if err := parse(fs, args); err != nil {
		return err
	}
	in.TipoCategoria = models.Kind(kind)

	c, err := a.cl.Categories.Create(ctx, in)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Categoria %d criada: %s\n", c.ID, c.Nome)
	return nil
}

func categoryRemove(ctx context.Context, a *app, args []string) error {
	fs := newFlags("categories rm")
	if err := parse(fs, args); err != nil {
		return err
	}
	id, err := argID(fs)
	if err != nil {
		return err
	}

	if err := a.cl.Categories.Delete(ctx, id); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Categoria %d excluída.\n", id)
	return nil
}

// ---- contas ----

func accountList(ctx context.Context, a *app, _ []string) error {
	items, err := a.cl.Accounts.List(ctx)
	if err != nil {
		return err
	}

	tw := a.table()
	fmt.Fprintln(tw, "ID\tNOME\tSALDO INICIAL\tSALDO ATUAL")
	for _, c := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", c.ID, c.Nome, c.SaldoInicial.BRL(), c.SaldoAtual.BRL())
	}
	return tw.Flush()
}

func accountAdd(ctx context.Context, a *app, args []string) error {
	fs := newFlags("accounts add")
	var in models.AccountInput
	fs.StringVar(&in.Nome, "nome", "", "nome")
	fs.Var(amountFlag{v: &in.SaldoInicial}, "saldo", "saldo inicial")
	if err := parse(fs, args); err != nil {
		return err
	}

	c, err := a.cl.Accounts.Create(ctx, in)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Conta %d criada: %s\n", c.ID, c.Nome)
	return nil
}

func accountRemove(ctx context.Context, a *app, args []string) error {
	fs := newFlags("accounts rm")
	if err := parse(fs, args); err != nil {
		return err
	}
	id, err := argID(fs)
	if err != nil {
		return err
	}

	if err := a.cl.Accounts.Delete(ctx, id); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Conta %d excluída.\n", id)
	return nil
}

func accountTransfer(ctx context.Context, a *app, args []string) error {
	fs := newFlags("accounts transfer")
	var in models.TransferRequest
	fs.Int64Var(&in.ContaOrigemID, "de", 0, "source account id")
	fs.Int64Var(&in.ContaDestinoID, "para", 0, "destination account id")
	fs.Var(amountFlag{v: &in.Valor}, "valor", "valor")
	if err := parse(fs, args); err != nil {
		return err
	}

	m, err := a.cl.Accounts.Transfer(ctx, in)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, m.Detail)
	return nil
}

// ---- gastos fixos ----

func fixedAdd(ctx context.Context, a *app, args []string) error {
	fs := newFlags("fixed add")
	var f models.FixedExpense
	fs.StringVar(&f.Descricao, "desc", "", "descrição")
	fs.Var(amountFlag{v: &f.Valor}, "valor", "valor mensal")
	fs.IntVar(&f.DiaVencimento, "dia", 0, "dia de vencimento (1-31)")
	fs.Int64Var(&f.Categoria, "categoria", 0, "category id")
	fs.Int64Var(&f.Conta, "conta", 0, "account id")
	if err := parse(fs, args); err != nil {
		return err
	}

	t, err := a.cl.FixedExpenses.Create(ctx, f)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Gasto fixo registrado: transação %d, vencimento %s\n", t.ID, t.Vencimento)
	return nil
}
