package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/opmetrack/opme-control/internal/domain/entity"
	"github.com/opmetrack/opme-control/internal/domain/repository"
)

var _ repository.SaldoMaterialRepository = (*SaldoMaterialRepo)(nil)

// SaldoMaterialRepo implementação sobre PostgreSQL (usável com pool ou tx).
type SaldoMaterialRepo struct {
	q Querier
}

// NewSaldoMaterialRepository constrói o adaptador. Passar pool ou tx (Querier).
func NewSaldoMaterialRepository(q Querier) *SaldoMaterialRepo {
	return &SaldoMaterialRepo{q: q}
}

const saldoColumns = `id, cliente_cnpj, cliente_nome, codigo_produto, descricao_produto, numero_lote,
		nf_saida_numero, nf_saida_serie, nf_saida_chave,
		quantidade_enviada, quantidade_retornada, quantidade_utilizada, quantidade_faturada,
		created_at, updated_at`

// disponivelExpr saldo disponível calculado no banco, igual ao SaldoDisponivel da entidade.
const disponivelExpr = `(quantidade_enviada - quantidade_retornada - quantidade_utilizada)`

// Create persiste uma nova linha de saldo. A unicidade de
// (cliente, produto, lote, chave de saída) é garantida por constraint.
func (r *SaldoMaterialRepo) Create(s *entity.SaldoMaterial) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now

	query := `
		INSERT INTO saldos_materiais (` + saldoColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.q.Exec(context.Background(), query,
		s.ID, s.ClienteCNPJ, nullIfEmpty(s.ClienteNome), s.CodigoProduto,
		nullIfEmpty(s.DescricaoProduto), s.NumeroLote,
		nullIfEmpty(s.NFSaidaNumero), nullIfEmpty(s.NFSaidaSerie), nullIfEmpty(s.NFSaidaChave),
		s.QuantidadeEnviada, s.QuantidadeRetornada, s.QuantidadeUtilizada, s.QuantidadeFaturada,
		s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create saldo: %w", err)
	}
	return nil
}

// UpdateQuantidades persiste os quatro contadores e o updated_at.
func (r *SaldoMaterialRepo) UpdateQuantidades(s *entity.SaldoMaterial) error {
	s.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE saldos_materiais
		SET quantidade_enviada = $2, quantidade_retornada = $3,
			quantidade_utilizada = $4, quantidade_faturada = $5, updated_at = $6
		WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query,
		s.ID, s.QuantidadeEnviada, s.QuantidadeRetornada,
		s.QuantidadeUtilizada, s.QuantidadeFaturada, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update saldo: %w", err)
	}
	return nil
}

// GetForUpdate busca pela chave única completa com lock de linha.
// Devolve nil quando não existe.
func (r *SaldoMaterialRepo) GetForUpdate(clienteCNPJ, codigoProduto, numeroLote, nfSaidaChave string) (*entity.SaldoMaterial, error) {
	query := `
		SELECT ` + saldoColumns + ` FROM saldos_materiais
		WHERE cliente_cnpj = $1 AND codigo_produto = $2 AND numero_lote = $3 AND nf_saida_chave = $4
		FOR UPDATE`
	return r.scanSaldo(r.q.QueryRow(context.Background(), query,
		clienteCNPJ, codigoProduto, numeroLote, nfSaidaChave))
}

// FindDisponivelForUpdate busca o saldo elegível mais antigo (FIFO) com lock de
// linha. O desempate por id mantém a escolha determinística quando dois envios
// têm o mesmo created_at.
func (r *SaldoMaterialRepo) FindDisponivelForUpdate(clienteCNPJ, codigoProduto, numeroLote string) (*entity.SaldoMaterial, error) {
	query := `
		SELECT ` + saldoColumns + ` FROM saldos_materiais
		WHERE cliente_cnpj = $1 AND codigo_produto = $2 AND numero_lote = $3
			AND ` + disponivelExpr + ` > 0
		ORDER BY created_at ASC, id ASC
		LIMIT 1
		FOR UPDATE`
	return r.scanSaldo(r.q.QueryRow(context.Background(), query,
		clienteCNPJ, codigoProduto, numeroLote))
}

// List lista saldos com filtros opcionais e devolve o total sem paginação.
func (r *SaldoMaterialRepo) List(f repository.SaldoFilter) ([]*entity.SaldoMaterial, int, error) {
	where := " WHERE 1=1"
	args := []any{}
	pos := 1
	if f.ClienteCNPJ != "" {
		where += fmt.Sprintf(" AND cliente_cnpj = $%d", pos)
		args = append(args, f.ClienteCNPJ)
		pos++
	}
	if f.ClienteNome != "" {
		where += fmt.Sprintf(" AND cliente_nome ILIKE $%d", pos)
		args = append(args, "%"+f.ClienteNome+"%")
		pos++
	}
	if f.Produto != "" {
		where += fmt.Sprintf(" AND (codigo_produto ILIKE $%d OR descricao_produto ILIKE $%d)", pos, pos)
		args = append(args, "%"+f.Produto+"%")
		pos++
	}

	var total int
	if err := r.q.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM saldos_materiais`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count saldos: %w", err)
	}

	query := `SELECT ` + saldoColumns + ` FROM saldos_materiais` + where +
		fmt.Sprintf(" ORDER BY cliente_nome NULLS LAST, codigo_produto, created_at LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list saldos: %w", err)
	}
	defer rows.Close()

	saldos, err := scanSaldos(rows)
	if err != nil {
		return nil, 0, err
	}
	return saldos, total, nil
}

// ListByCliente lista todos os saldos de um cliente (sem paginação).
func (r *SaldoMaterialRepo) ListByCliente(clienteCNPJ string) ([]*entity.SaldoMaterial, error) {
	query := `
		SELECT ` + saldoColumns + ` FROM saldos_materiais
		WHERE cliente_cnpj = $1
		ORDER BY codigo_produto, numero_lote, created_at`
	rows, err := r.q.Query(context.Background(), query, clienteCNPJ)
	if err != nil {
		return nil, fmt.Errorf("list saldos por cliente: %w", err)
	}
	defer rows.Close()
	return scanSaldos(rows)
}

// ListByProduto lista todos os saldos de um produto (sem paginação).
func (r *SaldoMaterialRepo) ListByProduto(codigoProduto string) ([]*entity.SaldoMaterial, error) {
	query := `
		SELECT ` + saldoColumns + ` FROM saldos_materiais
		WHERE codigo_produto = $1
		ORDER BY cliente_nome NULLS LAST, numero_lote, created_at`
	rows, err := r.q.Query(context.Background(), query, codigoProduto)
	if err != nil {
		return nil, fmt.Errorf("list saldos por produto: %w", err)
	}
	defer rows.Close()
	return scanSaldos(rows)
}

// ListCriticos lista saldos pendentes com disponível entre zero (exclusivo) e o limite.
func (r *SaldoMaterialRepo) ListCriticos(limite decimal.Decimal, max int) ([]*entity.SaldoMaterial, error) {
	query := `
		SELECT ` + saldoColumns + ` FROM saldos_materiais
		WHERE ` + disponivelExpr + ` > 0 AND ` + disponivelExpr + ` <= $1
		ORDER BY ` + disponivelExpr + ` ASC, updated_at DESC
		LIMIT $2`
	rows, err := r.q.Query(context.Background(), query, limite, max)
	if err != nil {
		return nil, fmt.Errorf("list saldos críticos: %w", err)
	}
	defer rows.Close()
	return scanSaldos(rows)
}

// SearchClientes autocomplete de clientes por nome ou CNPJ.
func (r *SaldoMaterialRepo) SearchClientes(termo string, max int) ([]repository.ClienteRef, error) {
	query := `
		SELECT DISTINCT cliente_cnpj, COALESCE(cliente_nome, '')
		FROM saldos_materiais
		WHERE cliente_nome ILIKE $1 OR cliente_cnpj LIKE $2
		ORDER BY 2
		LIMIT $3`
	rows, err := r.q.Query(context.Background(), query, "%"+termo+"%", "%"+termo+"%", max)
	if err != nil {
		return nil, fmt.Errorf("search clientes: %w", err)
	}
	defer rows.Close()

	var refs []repository.ClienteRef
	for rows.Next() {
		var ref repository.ClienteRef
		if err := rows.Scan(&ref.CNPJ, &ref.Nome); err != nil {
			return nil, fmt.Errorf("scan cliente: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// SearchProdutos autocomplete de produtos por código ou descrição.
func (r *SaldoMaterialRepo) SearchProdutos(termo string, max int) ([]repository.ProdutoRef, error) {
	query := `
		SELECT DISTINCT codigo_produto, COALESCE(descricao_produto, '')
		FROM saldos_materiais
		WHERE codigo_produto ILIKE $1 OR descricao_produto ILIKE $1
		ORDER BY 1
		LIMIT $2`
	rows, err := r.q.Query(context.Background(), query, "%"+termo+"%", max)
	if err != nil {
		return nil, fmt.Errorf("search produtos: %w", err)
	}
	defer rows.Close()

	var refs []repository.ProdutoRef
	for rows.Next() {
		var ref repository.ProdutoRef
		if err := rows.Scan(&ref.Codigo, &ref.Descricao); err != nil {
			return nil, fmt.Errorf("scan produto: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// Resumo agregados gerais do livro de saldos.
func (r *SaldoMaterialRepo) Resumo() (*repository.ResumoSaldos, error) {
	query := `
		SELECT COUNT(DISTINCT cliente_cnpj), COUNT(DISTINCT codigo_produto),
			COUNT(*) FILTER (WHERE ` + disponivelExpr + ` > 0)
		FROM saldos_materiais`
	var resumo repository.ResumoSaldos
	err := r.q.QueryRow(context.Background(), query).Scan(
		&resumo.TotalClientes, &resumo.TotalProdutos, &resumo.SaldosPendentes)
	if err != nil {
		return nil, fmt.Errorf("resumo saldos: %w", err)
	}
	return &resumo, nil
}

func (r *SaldoMaterialRepo) scanSaldo(row pgx.Row) (*entity.SaldoMaterial, error) {
	s, err := scanSaldoFrom(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get saldo: %w", err)
	}
	return s, nil
}

func scanSaldoFrom(row pgx.Row) (*entity.SaldoMaterial, error) {
	var s entity.SaldoMaterial
	var clienteNome, descricao, nfNumero, nfSerie, nfChave *string
	err := row.Scan(&s.ID, &s.ClienteCNPJ, &clienteNome, &s.CodigoProduto, &descricao, &s.NumeroLote,
		&nfNumero, &nfSerie, &nfChave,
		&s.QuantidadeEnviada, &s.QuantidadeRetornada, &s.QuantidadeUtilizada, &s.QuantidadeFaturada,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if clienteNome != nil {
		s.ClienteNome = *clienteNome
	}
	if descricao != nil {
		s.DescricaoProduto = *descricao
	}
	if nfNumero != nil {
		s.NFSaidaNumero = *nfNumero
	}
	if nfSerie != nil {
		s.NFSaidaSerie = *nfSerie
	}
	if nfChave != nil {
		s.NFSaidaChave = *nfChave
	}
	return &s, nil
}

func scanSaldos(rows pgx.Rows) ([]*entity.SaldoMaterial, error) {
	var saldos []*entity.SaldoMaterial
	for rows.Next() {
		s, err := scanSaldoFrom(rows)
		if err != nil {
			return nil, fmt.Errorf("scan saldo: %w", err)
		}
		saldos = append(saldos, s)
	}
	return saldos, rows.Err()
}
