package consignacao_test

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/opmetrack/opme-control/internal/application/consignacao"
	"github.com/opmetrack/opme-control/internal/domain"
	"github.com/opmetrack/opme-control/internal/domain/entity"
	"github.com/opmetrack/opme-control/internal/domain/repository"
)

// Repositórios em memória com a mesma semântica dos adaptadores PostgreSQL:
// unicidade por chave de acesso, busca FIFO por created_at e rollback simulado
// no runner de transação.

type fakeNotaRepo struct {
	notas    []*entity.NotaFiscal
	itens    []*entity.ItemNotaFiscal
	seq      int
	failItem error // injeta falha em CreateItem para testar rollback
}

func (r *fakeNotaRepo) Create(nf *entity.NotaFiscal) error {
	for _, existing := range r.notas {
		if existing.ChaveAcesso == nf.ChaveAcesso {
			return fmt.Errorf("chave %s: %w", nf.ChaveAcesso, domain.ErrNotaDuplicada)
		}
	}
	r.seq++
	if nf.ID == "" {
		nf.ID = fmt.Sprintf("nota-%d", r.seq)
	}
	nf.CreatedAt = time.Now()
	copia := *nf
	r.notas = append(r.notas, &copia)
	return nil
}

func (r *fakeNotaRepo) CreateItem(item *entity.ItemNotaFiscal) error {
	if r.failItem != nil {
		return r.failItem
	}
	r.seq++
	if item.ID == "" {
		item.ID = fmt.Sprintf("item-%d", r.seq)
	}
	copia := *item
	r.itens = append(r.itens, &copia)
	return nil
}

func (r *fakeNotaRepo) GetByID(id string) (*entity.NotaFiscal, error) {
	for _, nf := range r.notas {
		if nf.ID == id {
			copia := *nf
			return &copia, nil
		}
	}
	return nil, nil
}

func (r *fakeNotaRepo) GetByChaveAcesso(chave string) (*entity.NotaFiscal, error) {
	for _, nf := range r.notas {
		if nf.ChaveAcesso == chave {
			copia := *nf
			return &copia, nil
		}
	}
	return nil, nil
}

func (r *fakeNotaRepo) ExistsByChaveAcesso(chave string) (bool, error) {
	nf, _ := r.GetByChaveAcesso(chave)
	return nf != nil, nil
}

func (r *fakeNotaRepo) GetItensByNotaID(notaID string) ([]*entity.ItemNotaFiscal, error) {
	var out []*entity.ItemNotaFiscal
	for _, item := range r.itens {
		if item.NotaFiscalID == notaID {
			copia := *item
			out = append(out, &copia)
		}
	}
	return out, nil
}

func (r *fakeNotaRepo) List(f repository.NotaFiscalFilter) ([]*entity.NotaFiscal, int, error) {
	var out []*entity.NotaFiscal
	for _, nf := range r.notas {
		if f.TipoOperacao != "" && nf.TipoOperacao != f.TipoOperacao {
			continue
		}
		if f.ClienteCNPJ != "" && nf.DestinatarioCNPJ != f.ClienteCNPJ {
			continue
		}
		copia := *nf
		out = append(out, &copia)
	}
	return out, len(out), nil
}

func (r *fakeNotaRepo) Delete(id string) error {
	for i, nf := range r.notas {
		if nf.ID == id {
			r.notas = append(r.notas[:i], r.notas[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *fakeNotaRepo) Count() (int, error) { return len(r.notas), nil }

func (r *fakeNotaRepo) CountByTipoOperacao() ([]repository.OperacaoCount, error) {
	porTipo := map[string]int{}
	for _, nf := range r.notas {
		porTipo[nf.TipoOperacao]++
	}
	var out []repository.OperacaoCount
	for tipo, total := range porTipo {
		out = append(out, repository.OperacaoCount{TipoOperacao: tipo, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TipoOperacao < out[j].TipoOperacao })
	return out, nil
}

type fakeSaldoRepo struct {
	saldos []*entity.SaldoMaterial
	seq    int
	clock  time.Time
}

func (r *fakeSaldoRepo) Create(s *entity.SaldoMaterial) error {
	r.seq++
	if s.ID == "" {
		s.ID = fmt.Sprintf("saldo-%02d", r.seq)
	}
	// Relógio artificial crescente para a ordenação FIFO ser determinística.
	r.clock = r.clock.Add(time.Second)
	s.CreatedAt = r.clock
	s.UpdatedAt = r.clock
	copia := *s
	r.saldos = append(r.saldos, &copia)
	return nil
}

func (r *fakeSaldoRepo) UpdateQuantidades(s *entity.SaldoMaterial) error {
	for _, existing := range r.saldos {
		if existing.ID == s.ID {
			existing.QuantidadeEnviada = s.QuantidadeEnviada
			existing.QuantidadeRetornada = s.QuantidadeRetornada
			existing.QuantidadeUtilizada = s.QuantidadeUtilizada
			existing.QuantidadeFaturada = s.QuantidadeFaturada
			existing.UpdatedAt = time.Now()
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *fakeSaldoRepo) GetForUpdate(clienteCNPJ, codigoProduto, numeroLote, nfSaidaChave string) (*entity.SaldoMaterial, error) {
	for _, s := range r.saldos {
		if s.ClienteCNPJ == clienteCNPJ && s.CodigoProduto == codigoProduto &&
			s.NumeroLote == numeroLote && s.NFSaidaChave == nfSaidaChave {
			copia := *s
			return &copia, nil
		}
	}
	return nil, nil
}

func (r *fakeSaldoRepo) FindDisponivelForUpdate(clienteCNPJ, codigoProduto, numeroLote string) (*entity.SaldoMaterial, error) {
	var eligiveis []*entity.SaldoMaterial
	for _, s := range r.saldos {
		if s.ClienteCNPJ == clienteCNPJ && s.CodigoProduto == codigoProduto &&
			s.NumeroLote == numeroLote && s.SaldoDisponivel().GreaterThan(decimal.Zero) {
			eligiveis = append(eligiveis, s)
		}
	}
	if len(eligiveis) == 0 {
		return nil, nil
	}
	sort.Slice(eligiveis, func(i, j int) bool {
		if !eligiveis[i].CreatedAt.Equal(eligiveis[j].CreatedAt) {
			return eligiveis[i].CreatedAt.Before(eligiveis[j].CreatedAt)
		}
		return eligiveis[i].ID < eligiveis[j].ID
	})
	copia := *eligiveis[0]
	return &copia, nil
}

func (r *fakeSaldoRepo) List(f repository.SaldoFilter) ([]*entity.SaldoMaterial, int, error) {
	var out []*entity.SaldoMaterial
	for _, s := range r.saldos {
		if f.ClienteCNPJ != "" && s.ClienteCNPJ != f.ClienteCNPJ {
			continue
		}
		if f.Produto != "" && !strings.Contains(s.CodigoProduto, f.Produto) &&
			!strings.Contains(s.DescricaoProduto, f.Produto) {
			continue
		}
		copia := *s
		out = append(out, &copia)
	}
	return out, len(out), nil
}

func (r *fakeSaldoRepo) ListByCliente(clienteCNPJ string) ([]*entity.SaldoMaterial, error) {
	out, _, err := r.List(repository.SaldoFilter{ClienteCNPJ: clienteCNPJ})
	return out, err
}

func (r *fakeSaldoRepo) ListByProduto(codigoProduto string) ([]*entity.SaldoMaterial, error) {
	var out []*entity.SaldoMaterial
	for _, s := range r.saldos {
		if s.CodigoProduto == codigoProduto {
			copia := *s
			out = append(out, &copia)
		}
	}
	return out, nil
}

func (r *fakeSaldoRepo) ListCriticos(limite decimal.Decimal, max int) ([]*entity.SaldoMaterial, error) {
	var out []*entity.SaldoMaterial
	for _, s := range r.saldos {
		disp := s.SaldoDisponivel()
		if disp.GreaterThan(decimal.Zero) && disp.LessThanOrEqual(limite) && len(out) < max {
			copia := *s
			out = append(out, &copia)
		}
	}
	return out, nil
}

func (r *fakeSaldoRepo) SearchClientes(termo string, max int) ([]repository.ClienteRef, error) {
	vistos := map[string]bool{}
	var out []repository.ClienteRef
	for _, s := range r.saldos {
		if vistos[s.ClienteCNPJ] || len(out) >= max {
			continue
		}
		if strings.Contains(strings.ToLower(s.ClienteNome), strings.ToLower(termo)) ||
			strings.Contains(s.ClienteCNPJ, termo) {
			vistos[s.ClienteCNPJ] = true
			out = append(out, repository.ClienteRef{CNPJ: s.ClienteCNPJ, Nome: s.ClienteNome})
		}
	}
	return out, nil
}

func (r *fakeSaldoRepo) SearchProdutos(termo string, max int) ([]repository.ProdutoRef, error) {
	vistos := map[string]bool{}
	var out []repository.ProdutoRef
	for _, s := range r.saldos {
		if vistos[s.CodigoProduto] || len(out) >= max {
			continue
		}
		if strings.Contains(strings.ToLower(s.CodigoProduto), strings.ToLower(termo)) ||
			strings.Contains(strings.ToLower(s.DescricaoProduto), strings.ToLower(termo)) {
			vistos[s.CodigoProduto] = true
			out = append(out, repository.ProdutoRef{Codigo: s.CodigoProduto, Descricao: s.DescricaoProduto})
		}
	}
	return out, nil
}

func (r *fakeSaldoRepo) Resumo() (*repository.ResumoSaldos, error) {
	clientes := map[string]bool{}
	produtos := map[string]bool{}
	pendentes := 0
	for _, s := range r.saldos {
		clientes[s.ClienteCNPJ] = true
		produtos[s.CodigoProduto] = true
		if s.SaldoDisponivel().GreaterThan(decimal.Zero) {
			pendentes++
		}
	}
	return &repository.ResumoSaldos{
		TotalClientes:   len(clientes),
		TotalProdutos:   len(produtos),
		SaldosPendentes: pendentes,
	}, nil
}

// fakeTxRunner passa os repositórios em memória para fn e desfaz tudo quando
// fn devolve erro, imitando o rollback da transação real.
type fakeTxRunner struct {
	nf    *fakeNotaRepo
	saldo *fakeSaldoRepo
}

func (r *fakeTxRunner) Run(ctx context.Context, fn func(
	nfRepo repository.NotaFiscalRepository,
	saldoRepo repository.SaldoMaterialRepository,
) error) error {
	notasSnap := snapshotNotas(r.nf)
	saldosSnap := snapshotSaldos(r.saldo)

	if err := fn(r.nf, r.saldo); err != nil {
		r.nf.notas = notasSnap.notas
		r.nf.itens = notasSnap.itens
		r.saldo.saldos = saldosSnap
		return err
	}
	return nil
}

type notasSnapshot struct {
	notas []*entity.NotaFiscal
	itens []*entity.ItemNotaFiscal
}

func snapshotNotas(r *fakeNotaRepo) notasSnapshot {
	snap := notasSnapshot{}
	for _, nf := range r.notas {
		copia := *nf
		snap.notas = append(snap.notas, &copia)
	}
	for _, item := range r.itens {
		copia := *item
		snap.itens = append(snap.itens, &copia)
	}
	return snap
}

func snapshotSaldos(r *fakeSaldoRepo) []*entity.SaldoMaterial {
	var snap []*entity.SaldoMaterial
	for _, s := range r.saldos {
		copia := *s
		snap = append(snap, &copia)
	}
	return snap
}

// fakeNotaSource fonte remota de notas em memória para os testes de sincronização.
type fakeNotaSource struct {
	pages    [][]consignacao.NotaRemota
	xmls     map[string]string
	falhaXML map[string]error
	listErr  error
}

func (s *fakeNotaSource) ListarNotasEmitidas(ctx context.Context, dataInicio, dataFim string, page int) (*consignacao.PaginaNotas, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	if page < 1 || page > len(s.pages) {
		return &consignacao.PaginaNotas{TotalPages: len(s.pages), CurrentPage: page}, nil
	}
	return &consignacao.PaginaNotas{
		Notas:       s.pages[page-1],
		TotalPages:  len(s.pages),
		CurrentPage: page,
	}, nil
}

func (s *fakeNotaSource) ObterXML(ctx context.Context, chaveAcesso string) (string, error) {
	if err, ok := s.falhaXML[chaveAcesso]; ok {
		return "", err
	}
	xml, ok := s.xmls[chaveAcesso]
	if !ok {
		return "", fmt.Errorf("nota %s não encontrada na fonte", chaveAcesso)
	}
	return xml, nil
}
