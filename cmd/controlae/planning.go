package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pribylovaa/controlae/internal/models"
)

var goalCmds = map[string]runFunc{
	"list":     goalList,
	"add":      goalAdd,
	"rm":       goalRemove,
	"progress": goalProgress,
	"deposit":  goalDeposit,
}

var reminderCmds = map[string]runFunc{
	"list":  reminderList,
	"add":   reminderAdd,
	"rm":    reminderRemove,
	"today": reminderToday,
	"done":  reminderDone,
}

var notificationCmds = map[string]runFunc{
	"list":    notificationList,
	"pending": notificationPending,
	"read":    notificationRead,
}

var incentiveCmds = map[string]runFunc{
	"conclusion": incentiveConclusion,
	"release":    incentiveRelease,
	"enem":       incentiveEnem,
}

// ---- metas ----

func goalList(ctx context.Context, a *app, _ []string) error {
	items, err := a.cl.Goals.List(ctx)
	if err != nil {
		return err
	}

	tw := a.table()
	fmt.Fprintln(tw, "ID\tNOME\tALVO\tDATA ALVO\tATIVA")
	for _, g := range items {
		due := "-"
		if g.DataAlvo != nil && !g.DataAlvo.IsZero() {
			due = g.DataAlvo.String()
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", g.ID, g.Nome, g.ValorAlvo.BRL(), due, yesNo(g.Ativa))
	}
	return tw.Flush()
}

func goalAdd(ctx context.Context, a *app, args []string) error {
	fs := newFlags("goals add")
	var (
		in     models.GoalInput
		due    models.Date
		dueSet bool
	)
	fs.StringVar(&in.Nome, "nome", "", "nome")
	fs.Var(amountFlag{v: &in.ValorAlvo}, "alvo", "valor alvo")
	fs.Var(dateFlag{v: &due, set: &dueSet}, "data", "data alvo YYYY-MM-DD")
	if err := parse(fs, args); err != nil {
		return err
	}
	if dueSet {
		in.DataAlvo = &due
	}

	g, err := a.cl.Goals.Create(ctx, in)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Meta %d criada: %s (%s)\n", g.ID, g.Nome, g.ValorAlvo.BRL())
	return nil
}

func goalRemove(ctx context.Context, a *app, args []string) error {
	fs := newFlags("goals rm")
	if err := parse(fs, args); err != nil {
		return err
	}
	id, err := argID(fs)
	if err != nil {
		return err
	}

	if err := a.cl.Goals.Delete(ctx, id); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Meta %d excluída.\n", id)
	return nil
}

func goalProgress(ctx context.Context, a *app, args []string) error {
	fs := newFlags("goals progress")
	if err := parse(fs, args); err != nil {
		return err
	}
	id, err := argID(fs)
	if err != nil {
		return err
	}

	p, err := a.cl.Goals.Progress(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%s: %s de %s (%.2f%%), faltam %s\n",
		p.Nome, p.ValorAtual.BRL(), p.ValorAlvo.BRL(), float64(p.PercentualAtingido), p.FaltaAtingir.BRL())
	return nil
}

func goalDeposit(ctx context.Context, a *app, args []string) error {
	fs := newFlags("goals deposit")
	var in models.DepositRequest
	fs.Var(amountFlag{v: &in.Valor}, "valor", "valor")
	if err := parse(fs, args); err != nil {
		return err
	}
	id, err := argID(fs)
	if err != nil {
		return err
	}

	m, err := a.cl.Goals.Deposit(ctx, id, in)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, m.Detail)
	return nil
}

// ---- lembretes ----

func printReminders(ctx context.Context, a *app, items []models.Reminder) error {
	done, err := a.sess.Acks().List(ctx)
	if err != nil {
		return err
	}
	acked := make(map[int64]bool, len(done))
	for _, id := range done {
		acked[id] = true
	}

	tw := a.table()
	fmt.Fprintln(tw, "ID\tTÍTULO\tDATA\tRECORRÊNCIA\tFEITO")
	for _, r := range items {
		when := "-"
		if r.DataLembrete != nil && !r.DataLembrete.IsZero() {
			when = r.DataLembrete.String()
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", r.ID, r.Titulo, when, r.Recorrencia, yesNo(acked[r.ID]))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(done) > 0 {
		fmt.Fprintf(a.out, "Feitos: %s\n", idList(done))
	}
	return nil
}

func reminderList(ctx context.Context, a *app, _ []string) error {
	items, err := a.cl.Reminders.List(ctx)
	if err != nil {
		return err
	}

	return printReminders(ctx, a, items)
}

func reminderAdd(ctx context.Context, a *app, args []string) error {
	fs := newFlags("reminders add")
	var (
		in      models.ReminderInput
		rec     string
		when    models.Date
		whenSet bool
		tx      int64
	)
	fs.StringVar(&in.Titulo, "titulo", "", "título")
	fs.StringVar(&in.Descricao, "desc", "", "descrição")
	fs.StringVar(&rec, "recorrencia", string(models.RecurrenceNone), "nenhuma|diaria|semanal|mensal|anual")
	fs.Var(dateFlag{v: &when, set: &whenSet}, "data", "data YYYY-MM-DD")
	fs.IntVar(&in.DiasAntes, "dias-antes", 0, "dias antes do vencimento")
	fs.Int64Var(&tx, "transacao", 0, "transaction id")
	if err := parse(fs, args); err != nil {
		return err
	}
	in.Recorrencia = models.Recurrence(rec)
	if whenSet {
		in.DataLembrete = &when
	}
	if tx > 0 {
		in.Transacao = &tx
	}

	r, err := a.cl.Reminders.Create(ctx, in)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Lembrete %d criado: %s\n", r.ID, r.Titulo)
	return nil
}

func reminderRemove(ctx context.Context, a *app, args []string) error {
	fs := newFlags("reminders rm")
	if err := parse(fs, args); err != nil {
		return err
	}
	id, err := argID(fs)
	if err != nil {
		return err
	}

	if err := a.cl.Reminders.Delete(ctx, id); err != nil {
		return err
	}
	if err := a.sess.Acks().Set(ctx, id, false); err != nil {
		a.log.Warn("ack_cleanup_failed", slog.Int64("id", id), slog.String("err", err.Error()))
	}

	fmt.Fprintf(a.out, "Lembrete %d excluído.\n", id)
	return nil
}

func reminderToday(ctx context.Context, a *app, _ []string) error {
	today, err := a.cl.Reminders.Today(ctx)
	if err != nil {
		return err
	}

	if err := printReminders(ctx, a, today.Lembretes); err != nil {
		return err
	}
	for _, n := range today.Notificacoes {
		fmt.Fprintf(a.out, "! %s\n", n.Texto)
	}
	return nil
}

// reminderDone переключает локальную отметку «выполнено».
func reminderDone(ctx context.Context, a *app, args []string) error {
	fs := newFlags("reminders done")
	if err := parse(fs, args); err != nil {
		return err
	}
	id, err := argID(fs)
	if err != nil {
		return err
	}

	done, err := a.sess.Acks().Toggle(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Lembrete %d: feito=%s\n", id, yesNo(done))
	return nil
}

// ---- notificacoes ----

func printNotifications(a *app, items []models.Notification) error {
	tw := a.table()
	fmt.Fprintln(tw, "ID\tCRIADA\tLIDA\tTEXTO")
	for _, n := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", n.ID, n.CriadaEm.Local().Format(time.DateTime), yesNo(n.Lida), n.Texto)
	}
	return tw.Flush()
}

func notificationList(ctx context.Context, a *app, _ []string) error {
	items, err := a.cl.Notifications.List(ctx)
	if err != nil {
		return err
	}

	return printNotifications(a, items)
}

func notificationPending(ctx context.Context, a *app, _ []string) error {
	items, err := a.cl.Notifications.Pending(ctx)
	if err != nil {
		return err
	}

	return printNotifications(a, items)
}

func notificationRead(ctx context.Context, a *app, args []string) error {
	fs := newFlags("notifications read")
	unread := fs.Bool("unread", false, "marcar como não lida")
	if err := parse(fs, args); err != nil {
		return err
	}
	id, err := argID(fs)
	if err != nil {
		return err
	}

	n, err := a.cl.Notifications.MarkRead(ctx, id, !*unread)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Notificação %d: lida=%s\n", n.ID, yesNo(n.Lida))
	return nil
}

// ---- incentivos ----

func optionalID(v int64) *int64 {
	if v <= 0 {
		return nil
	}
	return &v
}

func incentiveConclusion(ctx context.Context, a *app, args []string) error {
	fs := newFlags("incentives conclusion")
	var (
		in    models.ConclusionRequest
		conta int64
	)
	fs.IntVar(&in.Ano, "ano", time.Now().Year(), "ano de conclusão")
	fs.Int64Var(&conta, "conta", 0, "account id")
	if err := parse(fs, args); err != nil {
		return err
	}
	in.ContaID = optionalID(conta)

	inc, err := a.cl.Incentives.Conclusion(ctx, in)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Incentivo %d registrado: %s (liberado=%s)\n", inc.ID, inc.Valor.BRL(), yesNo(inc.Liberado))
	return nil
}

func incentiveRelease(ctx context.Context, a *app, args []string) error {
	fs := newFlags("incentives release")
	if err := parse(fs, args); err != nil {
		return err
	}
	id, err := argID(fs)
	if err != nil {
		return err
	}

	p, err := a.cl.Incentives.Release(ctx, models.ReleaseRequest{IncentivoID: id})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Incentivo %d liberado: transação %d, %s\n", p.ID, p.TransacaoID, p.Valor.BRL())
	return nil
}

func incentiveEnem(ctx context.Context, a *app, args []string) error {
	fs := newFlags("incentives enem")
	var (
		in    models.EnemRequest
		conta int64
		ano   int
	)
	fs.Int64Var(&conta, "conta", 0, "account id")
	fs.IntVar(&ano, "ano", 0, "ano (padrão: atual)")
	if err := parse(fs, args); err != nil {
		return err
	}
	in.ContaID = optionalID(conta)
	if ano != 0 {
		in.Ano = &ano
	}

	p, err := a.cl.Incentives.Enem(ctx, in)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Incentivo ENEM %d: transação %d, %s\n", p.ID, p.TransacaoID, p.Valor.BRL())
	return nil
}
