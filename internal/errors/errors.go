// errors декодирует ошибки REST API Controlaê на сетевой границе клиента.
//
// Любой неуспешный ответ (кроме 401, который обрабатывает refresh-координатор)
// один раз превращается в *Error с тегом Kind; дальше по стеку ошибка
// передаётся без изменений, а Message выбирает из неё текст для пользователя.
//
// Форматы тел, которые понимает Decode:
//   - {"detail": "..."} — DRF (в том числе 401/403/404);
//   - {"message"|"mensagem"|"erro": "...", "codigo"|"code": "..."};
//   - {"error": {"code": "...", "message": "..."}} — шлюзовой конверт;
//   - {"campo": ["msg", ...], "non_field_errors": [...]} — ошибки сериализатора;
//   - ["msg", ...] — ValidationError без поля.
package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/pribylovaa/controlae/internal/models"
)

// NonFieldErrors — ключ DRF для ошибок, не привязанных к полю.
const NonFieldErrors = "non_field_errors"

// maxBody — сколько байт тела ошибки читаем при декодировании.
const maxBody = 1 << 20

// Тексты по умолчанию для пользователя.
const (
	MsgNetwork = "Não foi possível conectar ao servidor. Verifique sua conexão."
	MsgTimeout = "O servidor demorou para responder. Tente novamente."
	MsgGeneric = "Ocorreu um erro inesperado. Tente novamente."
)

// Kind — класс ошибки.
type Kind int

const (
	KindUnknown Kind = iota
	// KindNetwork — ответа нет (DNS, соединение, таймаут транспорта).
	KindNetwork
	// KindValidation — 4xx с ошибками по полям.
	KindValidation
	// KindDetail — 4xx с {"detail": ...}.
	KindDetail
	// KindMessage — 4xx с {"message"|"mensagem"|"error"...}.
	KindMessage
	// KindUnauthorized — 401, дошедший до вызывающего кода.
	KindUnauthorized
	// KindServer — 5xx; не повторяется.
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindValidation:
		return "validation"
	case KindDetail:
		return "detail"
	case KindMessage:
		return "message"
	case KindUnauthorized:
		return "unauthorized"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// Error — ошибка API, декодированная один раз.
type Error struct {
	Kind Kind
	// Status — HTTP-статус; 0 для сетевых ошибок.
	Status int
	// Code — машиночитаемый код (codigo/code), если сервер его прислал.
	Code string
	// Detail — человекочитаемый текст detail/message.
	Detail string
	// Fields — ошибки сериализатора: поле -> сообщения.
	Fields map[string][]string
	// RequestID — X-Request-Id запроса, для трассировки.
	RequestID string
	// Err — причина для сетевых ошибок.
	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("api error")
	if e.Status != 0 {
		fmt.Fprintf(&b, " %d", e.Status)
	}
	fmt.Fprintf(&b, " (%s)", e.Kind)

	switch {
	case e.Detail != "":
		b.WriteString(": " + e.Detail)
	case len(e.Fields) > 0:
		b.WriteString(": " + e.fieldsText())
	case e.Err != nil:
		b.WriteString(": " + e.Err.Error())
	}

	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Message — текст для пользователя или "" если сервер его не прислал.
func (e *Error) Message() string {
	if e.Detail != "" {
		return e.Detail
	}
	if len(e.Fields) > 0 {
		return e.fieldsText()
	}

	return ""
}

// fieldsText — "campo: msg; campo2: msg" по отсортированным полям,
// non_field_errors без префикса и первыми.
func (e *Error) fieldsText() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		if k != NonFieldErrors {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys)+1)
	if msgs := e.Fields[NonFieldErrors]; len(msgs) > 0 {
		parts = append(parts, strings.Join(msgs, " "))
	}
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], " "))
	}

	return strings.Join(parts, "; ")
}

// Network оборачивает ошибку транспорта (ответа нет).
func Network(err error) *Error {
	return &Error{Kind: KindNetwork, Err: err}
}

// FromResponse читает и закрывает тело неуспешного ответа и декодирует его.
func FromResponse(resp *http.Response) *Error {
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	e := Decode(resp.StatusCode, body)

	e.RequestID = resp.Header.Get("X-Request-Id")
	if e.RequestID == "" && resp.Request != nil {
		e.RequestID = resp.Request.Header.Get("X-Request-Id")
	}

	return e
}

// Decode строит *Error по статусу и телу ответа.
func Decode(status int, body []byte) *Error {
	e := &Error{Status: status}
	parseBody(e, body)

	switch {
	case status == http.StatusUnauthorized:
		e.Kind = KindUnauthorized
	case status >= http.StatusInternalServerError:
		e.Kind = KindServer
	}

	return e
}

func parseBody(e *Error, body []byte) {
	var raw any
	if len(body) == 0 || json.Unmarshal(body, &raw) != nil {
		return
	}

	switch v := raw.(type) {
	case []any:
		if msgs := listMessages(v); len(msgs) > 0 {
			e.Kind = KindValidation
			e.Fields = map[string][]string{NonFieldErrors: msgs}
		}
		return
	case map[string]any:
		parseObject(e, v)
	}
}

func parseObject(e *Error, obj map[string]any) {
	e.Code = firstString(obj, "codigo", "code")

	if d := text(obj["detail"]); d != "" {
		e.Kind = KindDetail
		e.Detail = d
		return
	}

	if m := firstString(obj, "message", "mensagem", "erro"); m != "" {
		e.Kind = KindMessage
		e.Detail = m
		return
	}

	if env, ok := obj["error"].(map[string]any); ok {
		e.Kind = KindMessage
		e.Detail = text(env["message"])
		if c := text(env["code"]); c != "" {
			e.Code = c
		}
		return
	}
	if s, ok := obj["error"].(string); ok && s != "" {
		e.Kind = KindMessage
		e.Detail = s
		return
	}

	fields := make(map[string][]string)
	for k, v := range obj {
		switch k {
		case "codigo", "code", "detalhes", "status":
			continue
		}
		if msgs := messages(v); len(msgs) > 0 {
			fields[k] = msgs
		}
	}

	if len(fields) > 0 {
		e.Kind = KindValidation
		e.Fields = fields
	}
}

// messages извлекает строки из значения поля: "msg", ["msg"], {"sub": ["msg"]}.
func messages(v any) []string {
	switch t := v.(type) {
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	case []any:
		return listMessages(t)
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var out []string
		for _, k := range keys {
			out = append(out, messages(t[k])...)
		}
		return out
	}

	return nil
}

func listMessages(list []any) []string {
	var out []string
	for _, item := range list {
		out = append(out, messages(item)...)
	}

	return out
}

func firstString(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := text(obj[k]); s != "" {
			return s
		}
	}

	return ""
}

// text — строка из значения; у списка берётся первый элемент.
func text(v any) string {
	if msgs := messages(v); len(msgs) > 0 {
		return msgs[0]
	}

	return ""
}

// Message возвращает текст ошибки для пользователя:
//   - локальная валидация — сообщения полей;
//   - *Error — detail/message/ошибки полей, для сети — MsgNetwork;
//   - истёкший дедлайн — MsgTimeout;
//   - иначе fallback (или MsgGeneric, если fallback пуст).
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	if fallback == "" {
		fallback = MsgGeneric
	}

	var ve *models.ValidationError
	if stderrors.As(err, &ve) {
		keys := make([]string, 0, len(ve.Fields))
		for k := range ve.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		msgs := make([]string, 0, len(keys))
		for _, k := range keys {
			msgs = append(msgs, ve.Fields[k])
		}
		return strings.Join(msgs, "; ")
	}

	var ae *Error
	if stderrors.As(err, &ae) {
		if m := ae.Message(); m != "" {
			return m
		}
		if ae.Kind == KindNetwork {
			if stderrors.Is(ae.Err, context.DeadlineExceeded) {
				return MsgTimeout
			}
			return MsgNetwork
		}
		return fallback
	}

	if stderrors.Is(err, context.DeadlineExceeded) {
		return MsgTimeout
	}

	return fallback
}

// IsUnauthorized — ошибка означает 401.
func IsUnauthorized(err error) bool {
	var ae *Error
	return stderrors.As(err, &ae) && ae.Status == http.StatusUnauthorized
}

// StatusCode — HTTP-статус ошибки API или 0.
func StatusCode(err error) int {
	var ae *Error
	if stderrors.As(err, &ae) {
		return ae.Status
	}

	return 0
}

// KindOf — класс ошибки API; KindUnknown для прочих ошибок.
func KindOf(err error) Kind {
	var ae *Error
	if stderrors.As(err, &ae) {
		return ae.Kind
	}

	return KindUnknown
}
