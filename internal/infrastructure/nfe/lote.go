package nfe

import (
	"regexp"
	"time"

	"github.com/beevik/etree"
)

// Cascata de extração de lote, em ordem estrita de prioridade:
//
//  1. bloco de rastreabilidade (rastro): nLote, dFab, dVal
//  2. bloco de medicamentos (med): mesmos campos
//  3. varredura do texto livre de infAdProd contra padrões rotulados
//
// O primeiro acerto vence; os demais caminhos não são tentados.

// lotePatterns padrões de texto livre, avaliados na ordem declarada.
// O grupo 1 captura o token do lote (sem espaço, vírgula, ponto-e-vírgula ou ponto).
var lotePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)lote[:\s]+([^\s,;.]+)`),          // LOTE: 123456
	regexp.MustCompile(`(?i)l[:\s]+([^\s,;.]+)`),             // L: 123456
	regexp.MustCompile(`(?i)lot[:\s]+([^\s,;.]+)`),           // LOT: 123456
	regexp.MustCompile(`(?i)batch[:\s]+([^\s,;.]+)`),         // BATCH: 123456
	regexp.MustCompile(`(?i)nr[:\s]*lote[:\s]+([^\s,;.]+)`),  // NR LOTE: 123456
	regexp.MustCompile(`(?i)numero[:\s]*lote[:\s]+([^\s,;.]+)`), // NUMERO LOTE: 123456
}

// extrairLote aplica a cascata sobre um elemento det.
// Item sem lote em lugar nenhum é legal: devolve número vazio e datas nil.
func extrairLote(det *etree.Element) (numero string, fabricacao, validade *time.Time) {
	if rastro := det.FindElement(".//rastro"); rastro != nil {
		numero = findText(rastro, "nLote")
		fabricacao = parseDataLote(findText(rastro, "dFab"))
		validade = parseDataLote(findText(rastro, "dVal"))
	}
	if numero != "" {
		return numero, fabricacao, validade
	}

	if med := det.FindElement(".//med"); med != nil {
		numero = findText(med, "nLote")
		fabricacao = parseDataLote(findText(med, "dFab"))
		validade = parseDataLote(findText(med, "dVal"))
	}
	if numero != "" {
		return numero, fabricacao, validade
	}

	// Fallback principal: informações adicionais do produto em texto livre.
	infAdProd := findText(det, ".//infAdProd")
	if infAdProd != "" {
		for _, pattern := range lotePatterns {
			if m := pattern.FindStringSubmatch(infAdProd); m != nil {
				return m[1], nil, nil
			}
		}
	}
	return "", nil, nil
}

// parseDataLote interpreta datas YYYY-MM-DD do bloco de lote.
// Data ilegível é descartada, não é fatal.
func parseDataLote(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}
