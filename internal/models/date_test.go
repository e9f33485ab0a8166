package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	t.Parallel()

	d, err := ParseDate("2025-03-09")
	require.NoError(t, err)
	require.Equal(t, 2025, d.Year())
	require.Equal(t, time.March, d.Month())
	require.Equal(t, 9, d.Day())

	d, err = ParseDate("2025-03-09T00:00:00")
	require.NoError(t, err)
	require.Equal(t, "2025-03-09", d.String())

	_, err = ParseDate("09/03/2025")
	require.Error(t, err)
}

func TestDate_JSON(t *testing.T) {
	t.Parallel()

	var v struct {
		Data       Date  `json:"data"`
		Vencimento *Date `json:"vencimento"`
		Vazio      Date  `json:"vazio"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"data":"2024-12-31","vencimento":null,"vazio":""}`), &v))
	require.Equal(t, "2024-12-31", v.Data.String())
	require.Nil(t, v.Vencimento)
	require.True(t, v.Vazio.IsZero())

	out, err := json.Marshal(v)
	require.NoError(t, err)
	require.JSONEq(t, `{"data":"2024-12-31","vencimento":null,"vazio":null}`, string(out))
}

func TestDate_AddDays(t *testing.T) {
	t.Parallel()

	require.Equal(t, "2024-03-01", MustDate("2024-02-28").AddDays(2).String())
	require.True(t, MustDate("2024-01-01").Before(MustDate("2024-01-02")))
}

func TestPeriod_Validate(t *testing.T) {
	t.Parallel()

	require.NoError(t, Period{}.Validate())
	require.NoError(t, Period{From: MustDate("2024-01-01")}.Validate())
	require.NoError(t, Period{From: MustDate("2024-01-01"), To: MustDate("2024-01-31")}.Validate())
	require.ErrorIs(t, Period{From: MustDate("2024-02-01"), To: MustDate("2024-01-31")}.Validate(), ErrValidation)
}
