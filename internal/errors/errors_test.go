package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/pribylovaa/controlae/internal/models"
	"github.com/stretchr/testify/require"
)

func TestDecode_Shapes(t *testing.T) {
	tcs := []struct {
		name       string
		status     int
		body       string
		wantKind   Kind
		wantMsg    string
		wantCode   string
		wantFields map[string][]string
	}{
		{"detail", 404, `{"detail":"Conta inválida."}`, KindDetail, "Conta inválida.", "", nil},
		{"detail_list", 400, `{"detail":["Saldo insuficiente."]}`, KindDetail, "Saldo insuficiente.", "", nil},
		{"message", 400, `{"message":"Falhou","code":"E1"}`, KindMessage, "Falhou", "E1", nil},
		{"mensagem", 409, `{"mensagem":"Email já cadastrado","codigo":"EMAIL_DUP"}`, KindMessage, "Email já cadastrado", "EMAIL_DUP", nil},
		{"envelope", 400, `{"error":{"code":"invalid_argument","message":"invalid argument"}}`, KindMessage, "invalid argument", "invalid_argument", nil},
		{
			"fields", 400,
			`{"username":["A user with that username already exists."],"valor":["Ensure this value is greater than 0."]}`,
			KindValidation,
			"username: A user with that username already exists.; valor: Ensure this value is greater than 0.",
			"",
			map[string][]string{
				"username": {"A user with that username already exists."},
				"valor":    {"Ensure this value is greater than 0."},
			},
		},
		{
			"non_field_first", 400,
			`{"non_field_errors":["Datas inválidas."],"data":["Formato inválido."]}`,
			KindValidation,
			"Datas inválidas.; data: Formato inválido.",
			"",
			map[string][]string{NonFieldErrors: {"Datas inválidas."}, "data": {"Formato inválido."}},
		},
		{"bare_list", 400, `["Valor deve ser positivo"]`, KindValidation, "Valor deve ser positivo", "", map[string][]string{NonFieldErrors: {"Valor deve ser positivo"}}},
		{"empty_4xx", 400, ``, KindUnknown, "", "", nil},
		{"html_5xx", 502, `<html>bad gateway</html>`, KindServer, "", "", nil},
		{"detail_5xx", 500, `{"detail":"Erro inesperado: boom"}`, KindServer, "Erro inesperado: boom", "", nil},
		{"unauthorized", 401, `{"detail":"Given token not valid for any token type","code":"token_not_valid"}`, KindUnauthorized, "Given token not valid for any token type", "token_not_valid", nil},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			e := Decode(tc.status, []byte(tc.body))
			require.Equal(t, tc.wantKind, e.Kind, e.Kind.String())
			require.Equal(t, tc.status, e.Status)
			require.Equal(t, tc.wantMsg, e.Message())
			require.Equal(t, tc.wantCode, e.Code)
			if tc.wantFields != nil {
				require.Equal(t, tc.wantFields, e.Fields)
			}
		})
	}
}

func TestFromResponse_ReadsAndClosesBody(t *testing.T) {
	body := &closeRecorder{Reader: strings.NewReader(`{"detail":"Não encontrado."}`)}
	req, _ := http.NewRequest(http.MethodGet, "http://api/contas/9/", nil)
	req.Header.Set("X-Request-Id", "rid-1")

	e := FromResponse(&http.Response{
		StatusCode: http.StatusNotFound,
		Header:     http.Header{},
		Body:       body,
		Request:    req,
	})

	require.True(t, body.closed)
	require.Equal(t, KindDetail, e.Kind)
	require.Equal(t, "rid-1", e.RequestID)
	require.Equal(t, "api error 404 (detail): Não encontrado.", e.Error())
}

func TestMessage(t *testing.T) {
	t.Parallel()

	require.Equal(t, "", Message(nil, "x"))

	wrapped := fmt.Errorf("clients.Transactions.Create: %w", Decode(400, []byte(`{"detail":"Categoria inválida."}`)))
	require.Equal(t, "Categoria inválida.", Message(wrapped, "Erro ao criar transação."))

	require.Equal(t, "Erro ao criar transação.", Message(Decode(400, nil), "Erro ao criar transação."))
	require.Equal(t, MsgGeneric, Message(stderrors.New("boom"), ""))

	require.Equal(t, MsgNetwork, Message(Network(stderrors.New("connection refused")), "x"))
	require.Equal(t, MsgTimeout, Message(Network(fmt.Errorf("get: %w", context.DeadlineExceeded)), "x"))
	require.Equal(t, MsgTimeout, Message(context.DeadlineExceeded, "x"))

	local := &models.ValidationError{Fields: map[string]string{"valor": "Valor inválido", "data": "Data é obrigatória"}}
	require.Equal(t, "Data é obrigatória; Valor inválido", Message(fmt.Errorf("op: %w", local), "x"))
}

func TestHelpers(t *testing.T) {
	t.Parallel()

	unauth := fmt.Errorf("op: %w", Decode(401, []byte(`{"detail":"x"}`)))
	require.True(t, IsUnauthorized(unauth))
	require.Equal(t, 401, StatusCode(unauth))
	require.Equal(t, KindUnauthorized, KindOf(unauth))

	cause := stderrors.New("dial tcp: refused")
	netErr := Network(cause)
	require.ErrorIs(t, netErr, cause)
	require.False(t, IsUnauthorized(netErr))
	require.Equal(t, 0, StatusCode(netErr))
	require.Equal(t, KindUnknown, KindOf(cause))
	require.Equal(t, "api error (network): dial tcp: refused", netErr.Error())
}

type closeRecorder struct {
	io.Reader
	closed bool
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return nil
}
