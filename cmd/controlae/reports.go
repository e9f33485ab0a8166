package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pribylovaa/controlae/internal/clients"
	"github.com/pribylovaa/controlae/internal/models"
)

func runDashboard(ctx context.Context, a *app, args []string) error {
	fs := newFlags("dashboard")
	var p models.Period
	periodFlags(fs, &p)
	if err := parse(fs, args); err != nil {
		return err
	}

	d, err := a.cl.Dashboard.Get(ctx, p)
	if err != nil {
		return err
	}

	tw := a.table()
	fmt.Fprintf(tw, "entradas\t%s\n", d.Resumo.TotalEntradas.BRL())
	fmt.Fprintf(tw, "saídas\t%s\n", d.Resumo.TotalSaidas.BRL())
	fmt.Fprintf(tw, "saldo líquido\t%s\n", d.Resumo.SaldoLiquido.BRL())
	fmt.Fprintf(tw, "pé-de-meia recebido\t%s\n", d.Resumo.PedeMeiaRecebido.BRL())
	fmt.Fprintf(tw, "pé-de-meia pendente\t%s\n", d.Resumo.PedeMeiaPendente.BRL())

	fmt.Fprintln(tw, "\nCONTAS\t")
	for _, c := range d.Contas {
		fmt.Fprintf(tw, "  %s\t%s\n", c.Nome, c.SaldoAtual.BRL())
	}
	fmt.Fprintln(tw, "\nGASTOS POR CATEGORIA\t")
	for _, c := range d.Graficos.GastosCategoria {
		fmt.Fprintf(tw, "  %s\t%s\n", c.Categoria, c.Total.BRL())
	}
	fmt.Fprintln(tw, "\nRECENTES\t")
	for _, t := range d.TransacoesRecentes {
		fmt.Fprintf(tw, "  %s %s\t%s\n", t.Data, t.Descricao, t.Valor.BRL())
	}
	if len(d.Metas) > 0 {
		fmt.Fprintln(tw, "\nMETAS\t")
		for _, g := range d.Metas {
			fmt.Fprintf(tw, "  %s\t%s\n", g.Nome, g.ValorAlvo.BRL())
		}
	}

	return tw.Flush()
}

func reportPDF(ctx context.Context, a *app, args []string) error {
	fs := newFlags("report pdf")
	var p models.Period
	periodFlags(fs, &p)
	dir := fs.String("out", ".", "output directory")
	if err := parse(fs, args); err != nil {
		return err
	}

	rep, err := a.cl.Reports.PDF(ctx, p)
	if err != nil {
		return err
	}

	path := reportPath(*dir, rep.Filename)
	if err := os.WriteFile(path, rep.Data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	fmt.Fprintf(a.out, "Relatório salvo em %s (%d bytes)\n", path, len(rep.Data))
	return nil
}

// reportPath — путь файла отчёта внутри dir. Имя от сервера сводится к
// базовому; пустое или указывающее на каталог заменяется DefaultReportName.
func reportPath(dir, name string) string {
	base := filepath.Base(name)
	switch base {
	case ".", "..", string(filepath.Separator):
		base = clients.DefaultReportName
	}

	return filepath.Join(dir, base)
}
