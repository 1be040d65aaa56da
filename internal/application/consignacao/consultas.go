package consignacao

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/opmetrack/opme-control/internal/application/dto"
	"github.com/opmetrack/opme-control/internal/domain"
	"github.com/opmetrack/opme-control/internal/domain/repository"
	"github.com/opmetrack/opme-control/pkg/fiscal"
)

// limiteCritico saldos pendentes com disponível até este valor entram no
// destaque do painel.
var limiteCritico = decimal.NewFromInt(5)

// maxCriticos quantos saldos críticos aparecem no resumo.
const maxCriticos = 5

// ConsultaUseCase consultas de leitura sobre notas e saldos.
type ConsultaUseCase struct {
	nfRepo    repository.NotaFiscalRepository
	saldoRepo repository.SaldoMaterialRepository
}

// NewConsultaUseCase constrói o caso de uso de consultas.
func NewConsultaUseCase(nfRepo repository.NotaFiscalRepository, saldoRepo repository.SaldoMaterialRepository) *ConsultaUseCase {
	return &ConsultaUseCase{nfRepo: nfRepo, saldoRepo: saldoRepo}
}

// ──────────────────────────────────────────────────────────────────────────────
// Saldos
// ──────────────────────────────────────────────────────────────────────────────

// ConsultarSaldos lista saldos com filtros e paginação.
func (uc *ConsultaUseCase) ConsultarSaldos(in dto.ConsultaSaldosRequest) (*dto.SaldosPage, error) {
	in.DefaultPage()
	filter := repository.SaldoFilter{
		ClienteCNPJ: fiscal.OnlyDigits(in.ClienteCNPJ),
		ClienteNome: in.ClienteNome,
		Produto:     in.Produto,
		Limit:       in.PerPage,
		Offset:      in.Offset(),
	}
	saldos, total, err := uc.saldoRepo.List(filter)
	if err != nil {
		return nil, err
	}
	return &dto.SaldosPage{
		Saldos: dto.NewSaldoResponses(saldos),
		Meta:   dto.NewPageResponse(in.PageRequest, total),
	}, nil
}

// SaldosPorCliente devolve os saldos de um cliente agrupados por produto.
// CNPJ aceita formatação; precisa ter 11 ou 14 dígitos.
func (uc *ConsultaUseCase) SaldosPorCliente(cnpj string) (*dto.SaldosClienteResponse, error) {
	digits := fiscal.OnlyDigits(cnpj)
	if !fiscal.IsValidLength(digits) {
		return nil, fmt.Errorf("CNPJ/CPF deve ter 11 ou 14 dígitos: %w", domain.ErrInvalidInput)
	}

	saldos, err := uc.saldoRepo.ListByCliente(digits)
	if err != nil {
		return nil, err
	}
	if len(saldos) == 0 {
		return nil, domain.ErrNotFound
	}

	resp := &dto.SaldosClienteResponse{
		Cliente: dto.ClienteInfo{
			CNPJ:          digits,
			CNPJFormatado: fiscal.Format(digits),
			Nome:          saldos[0].ClienteNome,
		},
	}

	// Agrupamento preserva a ordem do repositório (produto, lote, created_at).
	indice := map[string]int{}
	for _, s := range saldos {
		resp.Totais.Acumular(s)
		i, ok := indice[s.CodigoProduto]
		if !ok {
			resp.Produtos = append(resp.Produtos, dto.ProdutoComSaldos{
				CodigoProduto:    s.CodigoProduto,
				DescricaoProduto: s.DescricaoProduto,
			})
			i = len(resp.Produtos) - 1
			indice[s.CodigoProduto] = i
		}
		resp.Produtos[i].SaldoDisponivel = resp.Produtos[i].SaldoDisponivel.Add(s.SaldoDisponivel())
		resp.Produtos[i].Linhas = append(resp.Produtos[i].Linhas, dto.NewSaldoResponse(s))
	}
	return resp, nil
}

// SaldosPorProduto devolve os saldos de um produto agrupados por cliente.
func (uc *ConsultaUseCase) SaldosPorProduto(codigoProduto string) (*dto.SaldosProdutoResponse, error) {
	if codigoProduto == "" {
		return nil, fmt.Errorf("código do produto obrigatório: %w", domain.ErrInvalidInput)
	}

	saldos, err := uc.saldoRepo.ListByProduto(codigoProduto)
	if err != nil {
		return nil, err
	}
	if len(saldos) == 0 {
		return nil, domain.ErrNotFound
	}

	resp := &dto.SaldosProdutoResponse{
		CodigoProduto:    codigoProduto,
		DescricaoProduto: saldos[0].DescricaoProduto,
	}
	indice := map[string]int{}
	for _, s := range saldos {
		resp.Totais.Acumular(s)
		i, ok := indice[s.ClienteCNPJ]
		if !ok {
			resp.Clientes = append(resp.Clientes, dto.ClienteComSaldos{
				Cliente: dto.ClienteInfo{
					CNPJ:          s.ClienteCNPJ,
					CNPJFormatado: fiscal.Format(s.ClienteCNPJ),
					Nome:          s.ClienteNome,
				},
			})
			i = len(resp.Clientes) - 1
			indice[s.ClienteCNPJ] = i
		}
		resp.Clientes[i].SaldoDisponivel = resp.Clientes[i].SaldoDisponivel.Add(s.SaldoDisponivel())
		resp.Clientes[i].Linhas = append(resp.Clientes[i].Linhas, dto.NewSaldoResponse(s))
	}
	return resp, nil
}

// Resumo visão geral do painel: totais e saldos críticos.
func (uc *ConsultaUseCase) Resumo() (*dto.ResumoResponse, error) {
	resumo, err := uc.saldoRepo.Resumo()
	if err != nil {
		return nil, err
	}
	totalNotas, err := uc.nfRepo.Count()
	if err != nil {
		return nil, err
	}
	criticos, err := uc.saldoRepo.ListCriticos(limiteCritico, maxCriticos)
	if err != nil {
		return nil, err
	}
	return &dto.ResumoResponse{
		TotalNotas:      totalNotas,
		TotalClientes:   resumo.TotalClientes,
		TotalProdutos:   resumo.TotalProdutos,
		SaldosPendentes: resumo.SaldosPendentes,
		SaldosCriticos:  dto.NewSaldoResponses(criticos),
	}, nil
}

// BuscarClientes autocomplete de clientes; termo com menos de 2 caracteres
// devolve lista vazia em vez de varrer a tabela.
func (uc *ConsultaUseCase) BuscarClientes(termo string) ([]dto.ClienteRefResponse, error) {
	if len(termo) < 2 {
		return []dto.ClienteRefResponse{}, nil
	}
	refs, err := uc.saldoRepo.SearchClientes(termo, 10)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ClienteRefResponse, 0, len(refs))
	for _, r := range refs {
		out = append(out, dto.ClienteRefResponse{CNPJ: r.CNPJ, Nome: r.Nome})
	}
	return out, nil
}

// BuscarProdutos autocomplete de produtos.
func (uc *ConsultaUseCase) BuscarProdutos(termo string) ([]dto.ProdutoRefResponse, error) {
	if len(termo) < 2 {
		return []dto.ProdutoRefResponse{}, nil
	}
	refs, err := uc.saldoRepo.SearchProdutos(termo, 10)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ProdutoRefResponse, 0, len(refs))
	for _, r := range refs {
		out = append(out, dto.ProdutoRefResponse{Codigo: r.Codigo, Descricao: r.Descricao})
	}
	return out, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Notas fiscais
// ──────────────────────────────────────────────────────────────────────────────

// ListarNotas lista notas com filtros (datas DD/MM/YYYY) e paginação.
func (uc *ConsultaUseCase) ListarNotas(in dto.ListNotasRequest) ([]dto.NotaFiscalResponse, *dto.PageResponse, error) {
	in.DefaultPage()
	filter := repository.NotaFiscalFilter{
		TipoOperacao: in.TipoOperacao,
		ClienteCNPJ:  fiscal.OnlyDigits(in.ClienteCNPJ),
		Limit:        in.PerPage,
		Offset:       in.Offset(),
	}
	var err error
	if filter.DataInicio, err = parseDataBR(in.DataInicio); err != nil {
		return nil, nil, err
	}
	if filter.DataFim, err = parseDataBR(in.DataFim); err != nil {
		return nil, nil, err
	}

	notas, total, err := uc.nfRepo.List(filter)
	if err != nil {
		return nil, nil, err
	}
	out := make([]dto.NotaFiscalResponse, 0, len(notas))
	for _, nf := range notas {
		out = append(out, dto.NewNotaFiscalResponse(nf))
	}
	meta := dto.NewPageResponse(in.PageRequest, total)
	return out, &meta, nil
}

// ObterNota busca uma nota com seus itens.
func (uc *ConsultaUseCase) ObterNota(id string) (*dto.NotaFiscalResponse, error) {
	nf, err := uc.nfRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if nf == nil {
		return nil, domain.ErrNotFound
	}
	itens, err := uc.nfRepo.GetItensByNotaID(nf.ID)
	if err != nil {
		return nil, err
	}
	for _, item := range itens {
		nf.Itens = append(nf.Itens, *item)
	}
	resp := dto.NewNotaFiscalResponse(nf)
	return &resp, nil
}

// ObterXMLNota devolve o XML bruto armazenado de uma nota.
func (uc *ConsultaUseCase) ObterXMLNota(id string) (string, error) {
	nf, err := uc.nfRepo.GetByID(id)
	if err != nil {
		return "", err
	}
	if nf == nil {
		return "", domain.ErrNotFound
	}
	return nf.XMLContent, nil
}

// Estatisticas contagens de notas por tipo de operação.
func (uc *ConsultaUseCase) Estatisticas() (*dto.EstatisticasResponse, error) {
	counts, err := uc.nfRepo.CountByTipoOperacao()
	if err != nil {
		return nil, err
	}
	resp := &dto.EstatisticasResponse{PorOperacao: map[string]int{}}
	for _, c := range counts {
		resp.PorOperacao[c.TipoOperacao] = c.Total
		resp.TotalNotas += c.Total
	}
	return resp, nil
}

// parseDataBR converte DD/MM/YYYY para meia-noite UTC; vazio vira nil.
func parseDataBR(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation("02/01/2006", s, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("data %q deve usar o formato DD/MM/YYYY: %w", s, domain.ErrInvalidInput)
	}
	return &t, nil
}
