package nfe_test

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/opmetrack/opme-control/internal/domain"
	domnfe "github.com/opmetrack/opme-control/internal/domain/nfe"
	"github.com/opmetrack/opme-control/internal/infrastructure/nfe"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fixtures
// ──────────────────────────────────────────────────────────────────────────────

const chaveTeste = "35230912345678000190550010000001231000001234"

// notaXML monta uma NFe mínima com namespace padrão e os itens recebidos.
func notaXML(itens ...string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<nfeProc xmlns="http://www.portalfiscal.inf.br/nfe">
  <NFe>
    <infNFe Id="NFe` + chaveTeste + `" versao="4.00">
      <ide>
        <nNF>123</nNF>
        <serie>1</serie>
        <dhEmi>2023-09-15T10:30:00-03:00</dhEmi>
      </ide>
      <emit>
        <CNPJ>12345678000190</CNPJ>
        <xNome>Distribuidora OPME Ltda</xNome>
      </emit>
      <dest>
        <CNPJ>98.765.432/0001-10</CNPJ>
        <xNome>Hospital Santa Clara</xNome>
      </dest>
      ` + strings.Join(itens, "\n") + `
    </infNFe>
  </NFe>
</nfeProc>`
}

func itemComRastro() string {
	return `<det nItem="1">
        <prod>
          <cProd>PRT-001</cProd>
          <xProd>Parafuso pedicular 5.5mm</xProd>
          <qCom>10.0000</qCom>
          <vUnCom>150.5000</vUnCom>
          <vProd>1505.00</vProd>
          <rastro>
            <nLote>LT2023A</nLote>
            <dFab>2023-01-10</dFab>
            <dVal>2026-01-10</dVal>
          </rastro>
        </prod>
        <imposto><ICMS><ICMS00><CFOP>5917</CFOP></ICMS00></ICMS></imposto>
      </det>`
}

func itemComMed() string {
	return `<det nItem="3">
        <prod>
          <cProd>CIM-003</cProd>
          <xProd>Cimento ósseo 40g</xProd>
          <qCom>4</qCom>
          <vUnCom>320</vUnCom>
          <vProd>1280</vProd>
          <med>
            <nLote>MED2024B</nLote>
            <dFab>2024-02-20</dFab>
            <dVal>2027-02-20</dVal>
          </med>
        </prod>
        <imposto><ICMS><ICMS00><CFOP>5917</CFOP></ICMS00></ICMS></imposto>
      </det>`
}

func itemComInfAdProd(info string) string {
	return `<det nItem="2">
        <prod>
          <cProd>PLC-002</cProd>
          <xProd>Placa bloqueada 8 furos</xProd>
          <qCom>2</qCom>
          <vUnCom>900</vUnCom>
          <vProd>1800</vProd>
        </prod>
        <imposto><ICMS><ICMS00><CFOP>5917</CFOP></ICMS00></ICMS></imposto>
        <infAdProd>` + info + `</infAdProd>
      </det>`
}

// ──────────────────────────────────────────────────────────────────────────────
// Parse
// ──────────────────────────────────────────────────────────────────────────────

func TestParse_NotaCompleta(t *testing.T) {
	p := nfe.NewParser()

	nf, err := p.Parse(notaXML(itemComRastro()))
	require.NoError(t, err)

	assert.Equal(t, "123", nf.Numero)
	assert.Equal(t, "1", nf.Serie)
	assert.Equal(t, chaveTeste, nf.ChaveAcesso)
	require.NotNil(t, nf.DataEmissao)
	assert.Equal(t, 2023, nf.DataEmissao.Year())
	assert.Equal(t, "98765432000110", nf.DestinatarioCNPJ, "CNPJ deve sair só com dígitos")
	assert.Equal(t, "Hospital Santa Clara", nf.DestinatarioNome)
	assert.Equal(t, "5917", nf.CFOP)
	assert.Equal(t, domnfe.OperacaoSaida, nf.TipoOperacao)

	require.Len(t, nf.Itens, 1)
	item := nf.Itens[0]
	assert.Equal(t, "PRT-001", item.CodigoProduto)
	assert.True(t, item.Quantidade.Equal(decimal.RequireFromString("10")))
	assert.True(t, item.ValorUnitario.Equal(decimal.RequireFromString("150.5")))
	assert.True(t, item.ValorTotal.Equal(decimal.RequireFromString("1505")))
	assert.Equal(t, "LT2023A", item.NumeroLote)
	require.NotNil(t, item.DataFabricacao)
	require.NotNil(t, item.DataValidade)
	assert.Equal(t, "2023-01-10", item.DataFabricacao.Format("2006-01-02"))
	assert.Equal(t, "2026-01-10", item.DataValidade.Format("2006-01-02"))
}

func TestParse_LoteDeInfAdProd(t *testing.T) {
	p := nfe.NewParser()

	nf, err := p.Parse(notaXML(itemComInfAdProd("LOTE: ABC123")))
	require.NoError(t, err)
	require.Len(t, nf.Itens, 1)
	assert.Equal(t, "ABC123", nf.Itens[0].NumeroLote)
	assert.Nil(t, nf.Itens[0].DataFabricacao, "texto livre não carrega datas")
}

func TestParse_LoteDoBlocoMed(t *testing.T) {
	p := nfe.NewParser()

	nf, err := p.Parse(notaXML(itemComMed()))
	require.NoError(t, err)
	require.Len(t, nf.Itens, 1)
	item := nf.Itens[0]
	assert.Equal(t, "MED2024B", item.NumeroLote)
	require.NotNil(t, item.DataFabricacao)
	require.NotNil(t, item.DataValidade)
	assert.Equal(t, "2024-02-20", item.DataFabricacao.Format("2006-01-02"))
	assert.Equal(t, "2027-02-20", item.DataValidade.Format("2006-01-02"))
}

func TestParse_RastroVenceMed(t *testing.T) {
	p := nfe.NewParser()

	// Item com rastro E med: o bloco de rastreabilidade tem prioridade.
	item := strings.Replace(itemComRastro(), "</prod>",
		"<med><nLote>MEDX1</nLote></med></prod>", 1)
	nf, err := p.Parse(notaXML(item))
	require.NoError(t, err)
	assert.Equal(t, "LT2023A", nf.Itens[0].NumeroLote)
}

func TestParse_RastroVenceInfAdProd(t *testing.T) {
	p := nfe.NewParser()

	// Item com rastro E infAdProd: o bloco de rastreabilidade sempre vence.
	item := strings.Replace(itemComRastro(), "</det>", "<infAdProd>LOTE: OUTRO999</infAdProd></det>", 1)
	nf, err := p.Parse(notaXML(item))
	require.NoError(t, err)
	assert.Equal(t, "LT2023A", nf.Itens[0].NumeroLote)
}

func TestParse_VariantesDeRotuloDeLote(t *testing.T) {
	p := nfe.NewParser()
	cases := []struct {
		info string
		want string
	}{
		{"Lote: 998877", "998877"},
		{"BATCH: B-55", "B-55"},
		{"NR LOTE: NL01", "NL01"},
		{"material consignado lote 4433, validade 2026", "4433"},
	}
	for _, c := range cases {
		nf, err := p.Parse(notaXML(itemComInfAdProd(c.info)))
		require.NoError(t, err, c.info)
		assert.Equal(t, c.want, nf.Itens[0].NumeroLote, "infAdProd %q", c.info)
	}
}

func TestParse_ItemSemLote(t *testing.T) {
	p := nfe.NewParser()

	nf, err := p.Parse(notaXML(itemComInfAdProd("entrega na recepção")))
	require.NoError(t, err)
	assert.Empty(t, nf.Itens[0].NumeroLote, "item sem lote é legal")
}

func TestParse_DestAusenteCaiParaEmit(t *testing.T) {
	p := nfe.NewParser()

	xml := strings.Replace(notaXML(itemComRastro()), "<dest>", "<naoDest>", 1)
	xml = strings.Replace(xml, "</dest>", "</naoDest>", 1)
	nf, err := p.Parse(xml)
	require.NoError(t, err)
	assert.Equal(t, "12345678000190", nf.DestinatarioCNPJ)
	assert.Equal(t, "Distribuidora OPME Ltda", nf.DestinatarioNome)
}

func TestParse_DataSomenteDia(t *testing.T) {
	p := nfe.NewParser()

	xml := strings.Replace(notaXML(itemComRastro()),
		"<dhEmi>2023-09-15T10:30:00-03:00</dhEmi>", "<dEmi>2023-09-15</dEmi>", 1)
	nf, err := p.Parse(xml)
	require.NoError(t, err)
	require.NotNil(t, nf.DataEmissao)
	assert.Equal(t, "2023-09-15", nf.DataEmissao.Format("2006-01-02"))
}

func TestParse_DataInvalidaTolerada(t *testing.T) {
	p := nfe.NewParser()

	xml := strings.Replace(notaXML(itemComRastro()),
		"<dhEmi>2023-09-15T10:30:00-03:00</dhEmi>", "<dhEmi>quando deu</dhEmi>", 1)
	nf, err := p.Parse(xml)
	require.NoError(t, err, "data ilegível não falha o parse")
	assert.Nil(t, nf.DataEmissao)
}

func TestParse_CampoNumericoIlegivelViraZero(t *testing.T) {
	p := nfe.NewParser()

	xml := strings.Replace(notaXML(itemComRastro()), "<qCom>10.0000</qCom>", "<qCom>dez</qCom>", 1)
	nf, err := p.Parse(xml)
	require.NoError(t, err)
	assert.True(t, nf.Itens[0].Quantidade.IsZero())
}

func TestParse_Deterministico(t *testing.T) {
	p := nfe.NewParser()
	xml := notaXML(itemComRastro(), itemComInfAdProd("LOTE: ABC123"))

	nf1, err1 := p.Parse(xml)
	nf2, err2 := p.Parse(xml)
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, nf1, nf2, "o mesmo XML deve produzir sempre a mesma saída")
}

func TestParse_CharsetISO88591(t *testing.T) {
	p := nfe.NewParser()

	// XML legado do upstream: declarado e codificado em ISO-8859-1.
	xml := notaXML(itemComRastro())
	xml = strings.Replace(xml, `encoding="UTF-8"`, `encoding="ISO-8859-1"`, 1)
	xml = strings.Replace(xml, "Hospital Santa Clara", "Hospital São João da Conceição", 1)

	nf, err := p.Parse(paraLatin1(t, xml))
	require.NoError(t, err)
	assert.Equal(t, chaveTeste, nf.ChaveAcesso)
	assert.Equal(t, "Hospital São João da Conceição", nf.DestinatarioNome,
		"acentos devem sair em UTF-8 depois da conversão")
	assert.Equal(t, "LT2023A", nf.Itens[0].NumeroLote)
}

// paraLatin1 reencoda a fixture UTF-8 como bytes ISO-8859-1.
func paraLatin1(t *testing.T, s string) string {
	t.Helper()
	out, _, err := transform.String(charmap.ISO8859_1.NewEncoder(), s)
	require.NoError(t, err)
	return out
}

func TestParse_PrefixoDeNamespaceRemovido(t *testing.T) {
	p := nfe.NewParser()

	xml := notaXML(itemComRastro())
	xml = strings.ReplaceAll(xml, "<infNFe", "<nfe:infNFe")
	xml = strings.ReplaceAll(xml, "</infNFe>", "</nfe:infNFe>")
	nf, err := p.Parse(xml)
	require.NoError(t, err)
	assert.Equal(t, chaveTeste, nf.ChaveAcesso)
}

// ──────────────────────────────────────────────────────────────────────────────
// Validar
// ──────────────────────────────────────────────────────────────────────────────

func TestValidar_EstruturasInvalidas(t *testing.T) {
	p := nfe.NewParser()
	base := notaXML(itemComRastro())

	cases := []struct {
		name   string
		xml    string
		motivo string
	}{
		{
			name:   "não é NFe",
			xml:    `<pedido><item/></pedido>`,
			motivo: "não é uma Nota Fiscal",
		},
		{
			name:   "sem ide",
			xml:    strings.Replace(strings.Replace(base, "<ide>", "<idx>", 1), "</ide>", "</idx>", 1),
			motivo: "'ide' não encontrada",
		},
		{
			name:   "sem número",
			xml:    strings.Replace(base, "<nNF>123</nNF>", "", 1),
			motivo: "número da nota",
		},
		{
			name:   "sem série",
			xml:    strings.Replace(base, "<serie>1</serie>", "", 1),
			motivo: "série da nota",
		},
		{
			name:   "sem itens",
			xml:    notaXML(),
			motivo: "nenhum item",
		},
		{
			name:   "XML malformado",
			xml:    "<infNFe><ide>",
			motivo: "erro ao fazer parse",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := p.Validar(c.xml)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrXMLInvalido)
			assert.Contains(t, err.Error(), c.motivo)
		})
	}
}

func TestValidar_NotaValida(t *testing.T) {
	p := nfe.NewParser()
	assert.NoError(t, p.Validar(notaXML(itemComRastro())))
}
