// Package nfe implementa a extração estruturada de NFe a partir do XML bruto.
//
// O upstream emite XML com formas inconsistentes (namespaces com e sem prefixo,
// datas com e sem hora, lote em três lugares diferentes), então a estratégia é:
// normalizar namespaces antes de qualquer travessia e extrair cada campo com
// fallbacks explícitos, tolerando ausências em tudo que não for estrutural.
package nfe

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/opmetrack/opme-control/internal/domain"
	"github.com/opmetrack/opme-control/internal/domain/entity"
	domnfe "github.com/opmetrack/opme-control/internal/domain/nfe"
	"github.com/opmetrack/opme-control/pkg/fiscal"
)

// chavePrefixo prefixo literal do atributo Id de infNFe ("NFe" + 44 dígitos).
const chavePrefixo = "NFe"

var (
	// Declarações de namespace e prefixos de tag são removidos do texto antes do
	// parse, para que as buscas usem nomes de tag puros.
	reXMLNS     = regexp.MustCompile(`\s*xmlns[^=]*="[^"]*"`)
	rePrefixTag = regexp.MustCompile(`(</?)[A-Za-z0-9_]+:`)
)

// Parser transforma XML bruto de NFe em uma entity.NotaFiscal estruturada.
// Sem estado; seguro para uso concorrente.
type Parser struct{}

// NewParser constrói o parser.
func NewParser() *Parser { return &Parser{} }

// Validar verifica a estrutura mínima de uma NFe e devolve *domain.XMLError
// com mensagem específica quando: falta infNFe, falta ide, falta número ou
// série, ou não há nenhum item. Deve ser chamado antes de persistir qualquer coisa.
func (p *Parser) Validar(xmlContent string) error {
	doc, err := lerDocumento(xmlContent)
	if err != nil {
		return &domain.XMLError{Motivo: fmt.Sprintf("erro ao fazer parse do XML: %v", err)}
	}
	if doc.FindElement("//infNFe") == nil {
		return &domain.XMLError{Motivo: "XML não é uma Nota Fiscal Eletrônica válida"}
	}
	ide := doc.FindElement("//ide")
	if ide == nil {
		return &domain.XMLError{Motivo: "tag 'ide' não encontrada no XML"}
	}
	if findText(ide, "nNF") == "" {
		return &domain.XMLError{Motivo: "número da nota fiscal não encontrado"}
	}
	if findText(ide, "serie") == "" {
		return &domain.XMLError{Motivo: "série da nota fiscal não encontrada"}
	}
	if len(doc.FindElements("//det")) == 0 {
		return &domain.XMLError{Motivo: "nenhum item encontrado na nota fiscal"}
	}
	return nil
}

// Parse extrai cabeçalho, destinatário, CFOP e itens da NFe.
// Pressupõe Validar já aprovado; ainda assim falha com *domain.XMLError se a
// estrutura mínima não existir.
func (p *Parser) Parse(xmlContent string) (*entity.NotaFiscal, error) {
	if err := p.Validar(xmlContent); err != nil {
		return nil, err
	}
	doc, err := lerDocumento(xmlContent)
	if err != nil {
		return nil, &domain.XMLError{Motivo: fmt.Sprintf("erro ao fazer parse do XML: %v", err)}
	}

	ide := doc.FindElement("//ide")
	nf := &entity.NotaFiscal{
		Numero:      findText(ide, "nNF"),
		Serie:       findText(ide, "serie"),
		ChaveAcesso: extrairChave(doc),
		DataEmissao: extrairDataEmissao(ide),
		XMLContent:  xmlContent,
	}

	nf.DestinatarioCNPJ, nf.DestinatarioNome = extrairDestinatario(doc)

	nf.CFOP = extrairCFOP(doc)
	nf.TipoOperacao = domnfe.ClassificarCFOP(nf.CFOP)

	for _, det := range doc.FindElements("//det") {
		prod := det.SelectElement("prod")
		if prod == nil {
			continue
		}
		item := entity.ItemNotaFiscal{
			CodigoProduto:    findText(prod, "cProd"),
			DescricaoProduto: findText(prod, "xProd"),
			Quantidade:       parseDecimal(findText(prod, "qCom")),
			ValorUnitario:    parseDecimal(findText(prod, "vUnCom")),
			ValorTotal:       parseDecimal(findText(prod, "vProd")),
		}
		item.NumeroLote, item.DataFabricacao, item.DataValidade = extrairLote(det)
		nf.Itens = append(nf.Itens, item)
	}

	return nf, nil
}

// lerDocumento normaliza namespaces e faz o parse com etree.
// XML legado pode vir declarado como ISO-8859-1; o CharsetReader converte para UTF-8.
func lerDocumento(xmlContent string) (*etree.Document, error) {
	normalized := reXMLNS.ReplaceAllString(xmlContent, "")
	normalized = rePrefixTag.ReplaceAllString(normalized, "$1")

	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		switch strings.ToLower(charset) {
		case "iso-8859-1", "latin1", "windows-1252":
			return transform.NewReader(input, charmap.ISO8859_1.NewDecoder()), nil
		}
		return input, nil
	}
	if err := doc.ReadFromString(normalized); err != nil {
		return nil, err
	}
	return doc, nil
}

// extrairChave lê a chave de acesso do atributo Id de infNFe, sem o prefixo "NFe".
func extrairChave(doc *etree.Document) string {
	infNFe := doc.FindElement("//infNFe")
	if infNFe == nil {
		return ""
	}
	return strings.TrimPrefix(infNFe.SelectAttrValue("Id", ""), chavePrefixo)
}

// extrairDataEmissao aceita dhEmi (timestamp com timezone) ou dEmi (só data).
// Datas inválidas são toleradas: a nota fica sem data, o parse não falha.
func extrairDataEmissao(ide *etree.Element) *time.Time {
	raw := findText(ide, "dhEmi")
	if raw == "" {
		raw = findText(ide, "dEmi")
	}
	if raw == "" {
		return nil
	}
	var t time.Time
	var err error
	if strings.Contains(raw, "T") {
		t, err = time.Parse(time.RFC3339, raw)
	} else {
		t, err = time.Parse("2006-01-02", raw)
	}
	if err != nil {
		return nil
	}
	return &t
}

// extrairDestinatario prefere o bloco dest; notas de entrada não o têm e caem
// para o emit. CNPJ/CPF sai só com dígitos.
func extrairDestinatario(doc *etree.Document) (cnpj, nome string) {
	dest := doc.FindElement("//dest")
	if dest == nil {
		dest = doc.FindElement("//emit")
	}
	if dest == nil {
		return "", ""
	}
	cnpj = findText(dest, "CNPJ")
	if cnpj == "" {
		cnpj = findText(dest, "CPF")
	}
	nome = findText(dest, "xNome")
	if nome == "" {
		nome = findText(dest, "xFant")
	}
	return fiscal.OnlyDigits(cnpj), nome
}

// extrairCFOP lê o CFOP do primeiro item. O código é assumido invariante entre
// os itens de uma mesma nota, então um único representante basta.
// Ordem de busca: sub-bloco imposto, qualquer lugar do det, prod/CFOP.
func extrairCFOP(doc *etree.Document) string {
	det := doc.FindElement("//det")
	if det == nil {
		return ""
	}
	if imposto := det.FindElement(".//imposto"); imposto != nil {
		if cfop := findText(imposto, ".//CFOP"); cfop != "" {
			return cfop
		}
	}
	if cfop := findText(det, ".//CFOP"); cfop != "" {
		return cfop
	}
	return findText(det, "prod/CFOP")
}

// findText devolve o texto do primeiro elemento no caminho, sem espaços nas bordas.
func findText(el *etree.Element, path string) string {
	if el == nil {
		return ""
	}
	found := el.FindElement(path)
	if found == nil {
		return ""
	}
	return strings.TrimSpace(found.Text())
}

// parseDecimal converte campo numérico do XML; ausente ou ilegível vira zero,
// nunca falha o item.
func parseDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
