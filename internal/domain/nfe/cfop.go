// Package nfe contém as regras puras do domínio de notas fiscais eletrônicas:
// a classificação de CFOP em tipo de operação de consignação.
package nfe

// Tipos de operação de consignação derivados do CFOP.
const (
	OperacaoSaida       = "saida"       // saída para consignação
	OperacaoRetorno     = "retorno"     // retorno físico de consignação
	OperacaoSimbolico   = "simbolico"   // retorno simbólico: material utilizado
	OperacaoFaturamento = "faturamento" // faturamento do material utilizado
	OperacaoOutros      = "outros"      // CFOP desconhecido: nunca movimenta saldo
)

// cfopOperacoes mapeia cada CFOP (variantes dentro e fora do estado) ao tipo de operação.
var cfopOperacoes = map[string]string{
	"5917": OperacaoSaida,       // dentro do estado
	"6917": OperacaoSaida,       // fora do estado
	"1918": OperacaoRetorno,     // dentro do estado
	"2918": OperacaoRetorno,     // fora do estado
	"1919": OperacaoSimbolico,   // dentro do estado
	"2919": OperacaoSimbolico,   // fora do estado
	"5114": OperacaoFaturamento, // dentro do estado
	"6114": OperacaoFaturamento, // fora do estado
}

// ClassificarCFOP devolve o tipo de operação para um CFOP de 4 dígitos.
// Total e sem efeitos colaterais: códigos desconhecidos classificam como outros.
func ClassificarCFOP(cfop string) string {
	if tipo, ok := cfopOperacoes[cfop]; ok {
		return tipo
	}
	return OperacaoOutros
}

// MovimentaSaldo informa se o tipo de operação dispara transição no livro de saldos.
func MovimentaSaldo(tipo string) bool {
	return tipo == OperacaoSaida || tipo == OperacaoRetorno ||
		tipo == OperacaoSimbolico || tipo == OperacaoFaturamento
}
