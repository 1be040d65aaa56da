package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/opmetrack/opme-control/internal/domain"
	"github.com/opmetrack/opme-control/internal/domain/entity"
	"github.com/opmetrack/opme-control/internal/domain/repository"
)

var _ repository.NotaFiscalRepository = (*NotaFiscalRepo)(nil)

// NotaFiscalRepo implementação sobre PostgreSQL (usável com pool ou tx).
type NotaFiscalRepo struct {
	q Querier
}

// NewNotaFiscalRepository constrói o adaptador. Passar pool ou tx (Querier).
func NewNotaFiscalRepository(q Querier) *NotaFiscalRepo {
	return &NotaFiscalRepo{q: q}
}

const notaFiscalColumns = `id, numero, serie, chave_acesso, data_emissao, cfop, tipo_operacao,
		destinatario_cnpj, destinatario_nome, xml_content, created_at, updated_at`

// Create persiste o cabeçalho da nota. A chave de acesso tem índice único;
// violação vira domain.ErrNotaDuplicada para o chamador distinguir de erro real.
func (r *NotaFiscalRepo) Create(nf *entity.NotaFiscal) error {
	if nf.ID == "" {
		nf.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if nf.CreatedAt.IsZero() {
		nf.CreatedAt = now
	}
	nf.UpdatedAt = now

	query := `
		INSERT INTO notas_fiscais (` + notaFiscalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(context.Background(), query,
		nf.ID, nf.Numero, nf.Serie, nf.ChaveAcesso, nf.DataEmissao, nf.CFOP, nf.TipoOperacao,
		nullIfEmpty(nf.DestinatarioCNPJ), nullIfEmpty(nf.DestinatarioNome),
		nf.XMLContent, nf.CreatedAt, nf.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("chave %s: %w", nf.ChaveAcesso, domain.ErrNotaDuplicada)
		}
		return fmt.Errorf("create nota fiscal: %w", err)
	}
	return nil
}

// CreateItem persiste um item da nota.
func (r *NotaFiscalRepo) CreateItem(item *entity.ItemNotaFiscal) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO itens_nota_fiscal (id, nota_fiscal_id, codigo_produto, descricao_produto,
			quantidade, valor_unitario, valor_total, numero_lote, data_fabricacao, data_validade, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(context.Background(), query,
		item.ID, item.NotaFiscalID, item.CodigoProduto, nullIfEmpty(item.DescricaoProduto),
		item.Quantidade, item.ValorUnitario, item.ValorTotal,
		nullIfEmpty(item.NumeroLote), item.DataFabricacao, item.DataValidade, item.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create item nota fiscal: %w", err)
	}
	return nil
}

// GetByID busca uma nota pelo ID. Devolve nil quando não existe.
func (r *NotaFiscalRepo) GetByID(id string) (*entity.NotaFiscal, error) {
	query := `SELECT ` + notaFiscalColumns + ` FROM notas_fiscais WHERE id = $1`
	return r.scanNota(r.q.QueryRow(context.Background(), query, id))
}

// GetByChaveAcesso busca uma nota pela chave de acesso. Devolve nil quando não existe.
func (r *NotaFiscalRepo) GetByChaveAcesso(chave string) (*entity.NotaFiscal, error) {
	query := `SELECT ` + notaFiscalColumns + ` FROM notas_fiscais WHERE chave_acesso = $1`
	return r.scanNota(r.q.QueryRow(context.Background(), query, chave))
}

// ExistsByChaveAcesso verifica se a chave já foi processada, sem carregar a nota.
func (r *NotaFiscalRepo) ExistsByChaveAcesso(chave string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(context.Background(),
		`SELECT EXISTS (SELECT 1 FROM notas_fiscais WHERE chave_acesso = $1)`, chave,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exists nota fiscal: %w", err)
	}
	return exists, nil
}

// GetItensByNotaID lista os itens de uma nota na ordem de inserção.
func (r *NotaFiscalRepo) GetItensByNotaID(notaID string) ([]*entity.ItemNotaFiscal, error) {
	query := `
		SELECT id, nota_fiscal_id, codigo_produto, descricao_produto,
			quantidade, valor_unitario, valor_total, numero_lote, data_fabricacao, data_validade, created_at
		FROM itens_nota_fiscal WHERE nota_fiscal_id = $1 ORDER BY created_at, id`
	rows, err := r.q.Query(context.Background(), query, notaID)
	if err != nil {
		return nil, fmt.Errorf("list itens: %w", err)
	}
	defer rows.Close()

	var itens []*entity.ItemNotaFiscal
	for rows.Next() {
		var it entity.ItemNotaFiscal
		var descricao, lote *string
		if err := rows.Scan(&it.ID, &it.NotaFiscalID, &it.CodigoProduto, &descricao,
			&it.Quantidade, &it.ValorUnitario, &it.ValorTotal, &lote,
			&it.DataFabricacao, &it.DataValidade, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		if descricao != nil {
			it.DescricaoProduto = *descricao
		}
		if lote != nil {
			it.NumeroLote = *lote
		}
		itens = append(itens, &it)
	}
	return itens, rows.Err()
}

// List lista notas com filtros opcionais e devolve o total sem paginação.
func (r *NotaFiscalRepo) List(f repository.NotaFiscalFilter) ([]*entity.NotaFiscal, int, error) {
	where := " WHERE 1=1"
	args := []any{}
	pos := 1
	if f.TipoOperacao != "" {
		where += fmt.Sprintf(" AND tipo_operacao = $%d", pos)
		args = append(args, f.TipoOperacao)
		pos++
	}
	if f.ClienteCNPJ != "" {
		where += fmt.Sprintf(" AND destinatario_cnpj = $%d", pos)
		args = append(args, f.ClienteCNPJ)
		pos++
	}
	if f.DataInicio != nil {
		where += fmt.Sprintf(" AND data_emissao >= $%d", pos)
		args = append(args, *f.DataInicio)
		pos++
	}
	if f.DataFim != nil {
		where += fmt.Sprintf(" AND data_emissao <= $%d", pos)
		args = append(args, *f.DataFim)
		pos++
	}

	var total int
	if err := r.q.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM notas_fiscais`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count notas: %w", err)
	}

	query := `SELECT ` + notaFiscalColumns + ` FROM notas_fiscais` + where +
		fmt.Sprintf(" ORDER BY data_emissao DESC NULLS LAST, created_at DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list notas: %w", err)
	}
	defer rows.Close()

	var notas []*entity.NotaFiscal
	for rows.Next() {
		nf, err := scanNotaFromRow(rows)
		if err != nil {
			return nil, 0, err
		}
		notas = append(notas, nf)
	}
	return notas, total, rows.Err()
}

// Delete remove itens e cabeçalho explicitamente (sem cascade no schema).
func (r *NotaFiscalRepo) Delete(id string) error {
	ctx := context.Background()
	if _, err := r.q.Exec(ctx, `DELETE FROM itens_nota_fiscal WHERE nota_fiscal_id = $1`, id); err != nil {
		return fmt.Errorf("delete itens: %w", err)
	}
	tag, err := r.q.Exec(ctx, `DELETE FROM notas_fiscais WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete nota: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Count total de notas processadas.
func (r *NotaFiscalRepo) Count() (int, error) {
	var total int
	err := r.q.QueryRow(context.Background(), `SELECT COUNT(*) FROM notas_fiscais`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count notas: %w", err)
	}
	return total, nil
}

// CountByTipoOperacao total de notas agrupado por tipo de operação.
func (r *NotaFiscalRepo) CountByTipoOperacao() ([]repository.OperacaoCount, error) {
	rows, err := r.q.Query(context.Background(),
		`SELECT tipo_operacao, COUNT(*) FROM notas_fiscais GROUP BY tipo_operacao ORDER BY tipo_operacao`)
	if err != nil {
		return nil, fmt.Errorf("count por operação: %w", err)
	}
	defer rows.Close()

	var counts []repository.OperacaoCount
	for rows.Next() {
		var c repository.OperacaoCount
		if err := rows.Scan(&c.TipoOperacao, &c.Total); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

func (r *NotaFiscalRepo) scanNota(row pgx.Row) (*entity.NotaFiscal, error) {
	nf, err := scanNotaFrom(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get nota fiscal: %w", err)
	}
	return nf, nil
}

func scanNotaFrom(row pgx.Row) (*entity.NotaFiscal, error) {
	var nf entity.NotaFiscal
	var cnpj, nome *string
	err := row.Scan(&nf.ID, &nf.Numero, &nf.Serie, &nf.ChaveAcesso, &nf.DataEmissao,
		&nf.CFOP, &nf.TipoOperacao, &cnpj, &nome, &nf.XMLContent, &nf.CreatedAt, &nf.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if cnpj != nil {
		nf.DestinatarioCNPJ = *cnpj
	}
	if nome != nil {
		nf.DestinatarioNome = *nome
	}
	return &nf, nil
}

func scanNotaFromRow(rows pgx.Rows) (*entity.NotaFiscal, error) {
	nf, err := scanNotaFrom(rows)
	if err != nil {
		return nil, fmt.Errorf("scan nota: %w", err)
	}
	return nf, nil
}
