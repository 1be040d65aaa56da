package nfe_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opmetrack/opme-control/internal/domain/nfe"
)

func TestClassificarCFOP(t *testing.T) {
	cases := []struct {
		cfop string
		want string
	}{
		{"5917", nfe.OperacaoSaida},
		{"6917", nfe.OperacaoSaida},
		{"1918", nfe.OperacaoRetorno},
		{"2918", nfe.OperacaoRetorno},
		{"1919", nfe.OperacaoSimbolico},
		{"2919", nfe.OperacaoSimbolico},
		{"5114", nfe.OperacaoFaturamento},
		{"6114", nfe.OperacaoFaturamento},
		{"5102", nfe.OperacaoOutros}, // venda comum: não é consignação
		{"", nfe.OperacaoOutros},
		{"917", nfe.OperacaoOutros},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, nfe.ClassificarCFOP(c.cfop), "CFOP %q", c.cfop)
	}
}

func TestMovimentaSaldo(t *testing.T) {
	assert.True(t, nfe.MovimentaSaldo(nfe.OperacaoSaida))
	assert.True(t, nfe.MovimentaSaldo(nfe.OperacaoRetorno))
	assert.True(t, nfe.MovimentaSaldo(nfe.OperacaoSimbolico))
	assert.True(t, nfe.MovimentaSaldo(nfe.OperacaoFaturamento))
	assert.False(t, nfe.MovimentaSaldo(nfe.OperacaoOutros))
	assert.False(t, nfe.MovimentaSaldo("qualquer"))
}
