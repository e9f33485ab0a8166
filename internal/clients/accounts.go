package clients

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pribylovaa/controlae/internal/models"
)

// AccountsClient — /contas/ и перевод между счетами.
type AccountsClient struct {
	*Resource[models.Account, models.AccountInput]
}

func (c *AccountsClient) Transfer(ctx context.Context, in models.TransferRequest) (models.Movement, error) {
	const op = "clients.AccountsClient.Transfer"

	var out models.Movement
	if err := in.Validate(); err != nil {
		return out, fmt.Errorf("%s: %w", op, err)
	}
	if err := c.rest.do(ctx, http.MethodPost, c.path+"transferir/", nil, in, &out); err != nil {
		return out, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// GoalsClient — /metas/, прогресс и депозит в цель.
type GoalsClient struct {
	*Resource[models.Goal, models.GoalInput]
}

func (c *GoalsClient) Progress(ctx context.Context, id int64) (models.GoalProgress, error) {
	const op = "clients.GoalsClient.Progress"

	var out models.GoalProgress
	if err := c.rest.do(ctx, http.MethodGet, itemPath(c.path, id)+"progresso/", nil, nil, &out); err != nil {
		return out, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (c *GoalsClient) Deposit(ctx context.Context, id int64, in models.DepositRequest) (models.Movement, error) {
	const op = "clients.GoalsClient.Deposit"

	var out models.Movement
	if err := in.Validate(); err != nil {
		return out, fmt.Errorf("%s: %w", op, err)
	}
	if err := c.rest.do(ctx, http.MethodPost, itemPath(c.path, id)+"depositar/", nil, in, &out); err != nil {
		return out, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// RemindersClient — /lembretes/ и напоминания на сегодня.
type RemindersClient struct {
	*Resource[models.Reminder, models.ReminderInput]
}

func (c *RemindersClient) Today(ctx context.Context) (models.TodayReminders, error) {
	const op = "clients.RemindersClient.Today"

	var out models.TodayReminders
	if err := c.rest.do(ctx, http.MethodGet, c.path+"hoje/", nil, nil, &out); err != nil {
		return out, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// NotificationsClient — /notificacoes/.
type NotificationsClient struct {
	rest *rest
}

const notificationsPath = "/notificacoes/"

func (c *NotificationsClient) List(ctx context.Context) ([]models.Notification, error) {
	items, err := list[models.Notification](ctx, c.rest, notificationsPath, nil)
	if err != nil {
		return nil, fmt.Errorf("clients.NotificationsClient.List: %w", err)
	}

	return items, nil
}

// Pending — непрочитанные уведомления.
func (c *NotificationsClient) Pending(ctx context.Context) ([]models.Notification, error) {
	items, err := list[models.Notification](ctx, c.rest, notificationsPath+"pendentes/", nil)
	if err != nil {
		return nil, fmt.Errorf("clients.NotificationsClient.Pending: %w", err)
	}

	return items, nil
}

func (c *NotificationsClient) Get(ctx context.Context, id int64) (models.Notification, error) {
	var out models.Notification
	if err := c.rest.do(ctx, http.MethodGet, itemPath(notificationsPath, id), nil, nil, &out); err != nil {
		return out, fmt.Errorf("clients.NotificationsClient.Get: %w", err)
	}

	return out, nil
}

// MarkRead выставляет флаг lida.
func (c *NotificationsClient) MarkRead(ctx context.Context, id int64, read bool) (models.Notification, error) {
	var out models.Notification
	err := c.rest.do(ctx, http.MethodPatch, itemPath(notificationsPath, id), nil, models.NotificationPatch{Lida: read}, &out)
	if err != nil {
		return out, fmt.Errorf("clients.NotificationsClient.MarkRead: %w", err)
	}

	return out, nil
}

func (c *NotificationsClient) Delete(ctx context.Context, id int64) error {
	if err := c.rest.do(ctx, http.MethodDelete, itemPath(notificationsPath, id), nil, nil, nil); err != nil {
		return fmt.Errorf("clients.NotificationsClient.Delete: %w", err)
	}

	return nil
}
