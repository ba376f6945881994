package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoney_Rounding(t *testing.T) {
	assert.Equal(t, "0.00", ZeroMoney.String())
	assert.Equal(t, "0.00", Money{}.String())
	assert.Equal(t, "10.13", NewMoney(decimal.RequireFromString("10.125")).String())
	assert.Equal(t, "3.00", MustMoney("1.5").Add(MustMoney("1.5")).String())
	assert.True(t, MustMoney("2").Equal(MustMoney("2.000")))
	assert.True(t, MustMoney("-0.01").IsNegative())
}

func TestMoney_JSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Amount Money `json:"amount"`
	}{MustMoney("120.5")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":120.50}`, string(b))
	assert.Contains(t, string(b), "120.50")

	var out struct {
		A Money `json:"a"`
		B Money `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"7.1","b":99.999}`), &out))
	assert.Equal(t, "7.10", out.A.String())
	assert.Equal(t, "100.00", out.B.String())
}
