package consignacao

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/opmetrack/opme-control/internal/domain"
	"github.com/opmetrack/opme-control/internal/domain/entity"
	domnfe "github.com/opmetrack/opme-control/internal/domain/nfe"
	"github.com/opmetrack/opme-control/internal/domain/repository"
	"github.com/opmetrack/opme-control/pkg/logger"
)

// Ledger aplica as transições do livro de saldos de consignação.
//
// Os contadores só crescem; o disponível é derivado (enviada - retornada -
// utilizada). Saída cria ou acumula a linha do envio; retorno, retorno
// simbólico e faturamento casam contra o envio mais antigo com disponível > 0
// (FIFO). Operação sem saldo casável é anomalia: registrada em log e
// ignorada, nunca falha a nota.
type Ledger struct {
	log *logger.Logger
}

// NewLedger constrói o conciliador de saldos.
func NewLedger(log *logger.Logger) *Ledger {
	return &Ledger{log: log}
}

// AplicarItem aplica um item de nota ao livro de saldos, dentro da transação
// do chamador. Pressupõe item com lote e operação que movimenta saldo.
func (l *Ledger) AplicarItem(saldoRepo repository.SaldoMaterialRepository, nf *entity.NotaFiscal, item *entity.ItemNotaFiscal) error {
	switch nf.TipoOperacao {
	case domnfe.OperacaoSaida:
		return l.aplicarSaida(saldoRepo, nf, item)
	case domnfe.OperacaoRetorno, domnfe.OperacaoSimbolico, domnfe.OperacaoFaturamento:
		return l.aplicarBaixa(saldoRepo, nf, item)
	default:
		// outros nunca chega aqui; o orquestrador filtra antes.
		return nil
	}
}

// aplicarSaida acumula o envio na linha (cliente, produto, lote, chave desta
// nota), criando a linha no primeiro envio.
func (l *Ledger) aplicarSaida(saldoRepo repository.SaldoMaterialRepository, nf *entity.NotaFiscal, item *entity.ItemNotaFiscal) error {
	saldo, err := saldoRepo.GetForUpdate(nf.DestinatarioCNPJ, item.CodigoProduto, item.NumeroLote, nf.ChaveAcesso)
	if err != nil {
		return fmt.Errorf("buscar saldo de saída: %w", err)
	}
	if saldo != nil {
		saldo.QuantidadeEnviada = saldo.QuantidadeEnviada.Add(item.Quantidade)
		if err := saldoRepo.UpdateQuantidades(saldo); err != nil {
			return fmt.Errorf("acumular saída: %w", err)
		}
		return nil
	}

	saldo = &entity.SaldoMaterial{
		ClienteCNPJ:       nf.DestinatarioCNPJ,
		ClienteNome:       nf.DestinatarioNome,
		CodigoProduto:     item.CodigoProduto,
		DescricaoProduto:  item.DescricaoProduto,
		NumeroLote:        item.NumeroLote,
		NFSaidaNumero:     nf.Numero,
		NFSaidaSerie:      nf.Serie,
		NFSaidaChave:      nf.ChaveAcesso,
		QuantidadeEnviada: item.Quantidade,
	}
	if err := saldoRepo.Create(saldo); err != nil {
		return fmt.Errorf("criar saldo de saída: %w", err)
	}
	return nil
}

// aplicarBaixa credita retorno/utilização/faturamento no envio mais antigo com
// disponível > 0. A quantidade inteira vai para essa linha, mesmo que exceda o
// disponível dela: o saldo pode ficar negativo e isso é reportado, não bloqueado.
func (l *Ledger) aplicarBaixa(saldoRepo repository.SaldoMaterialRepository, nf *entity.NotaFiscal, item *entity.ItemNotaFiscal) error {
	saldo, err := saldoRepo.FindDisponivelForUpdate(nf.DestinatarioCNPJ, item.CodigoProduto, item.NumeroLote)
	if err != nil {
		return fmt.Errorf("buscar saldo para %s: %w", nf.TipoOperacao, err)
	}
	if saldo == nil {
		// Anomalia: baixa sem envio correspondente. A nota continua.
		l.log.Warn().
			Str("tipo_operacao", nf.TipoOperacao).
			Str("cliente_cnpj", nf.DestinatarioCNPJ).
			Str("codigo_produto", item.CodigoProduto).
			Str("numero_lote", item.NumeroLote).
			Str("chave_acesso", nf.ChaveAcesso).
			Msg("operação sem saldo disponível para casar; item ignorado no livro")
		return nil
	}

	disponivel := saldo.SaldoDisponivel()
	if disponivel.LessThan(item.Quantidade) {
		l.log.Warn().
			Str("tipo_operacao", nf.TipoOperacao).
			Str("codigo_produto", item.CodigoProduto).
			Str("numero_lote", item.NumeroLote).
			Str("disponivel", disponivel.String()).
			Str("solicitado", item.Quantidade.String()).
			Msg("baixa excede o disponível; saldo ficará negativo")
	}

	switch nf.TipoOperacao {
	case domnfe.OperacaoRetorno:
		saldo.QuantidadeRetornada = saldo.QuantidadeRetornada.Add(item.Quantidade)
	case domnfe.OperacaoSimbolico:
		saldo.QuantidadeUtilizada = saldo.QuantidadeUtilizada.Add(item.Quantidade)
	case domnfe.OperacaoFaturamento:
		// Faturamento não mexe no disponível; só marca o utilizado como cobrado.
		saldo.QuantidadeFaturada = saldo.QuantidadeFaturada.Add(item.Quantidade)
	}
	if err := saldoRepo.UpdateQuantidades(saldo); err != nil {
		return fmt.Errorf("aplicar %s: %w", nf.TipoOperacao, err)
	}
	return nil
}

// ValidarOperacao pré-valida uma baixa sem aplicar nada: refaz a mesma busca
// FIFO do conciliador e confere se o disponível cobre a quantidade.
// Devolve domain.ErrSaldoNaoEncontrado ou *domain.SaldoInsuficienteError.
// É uma prévia informativa; o processamento real nunca a exige.
func (l *Ledger) ValidarOperacao(saldoRepo repository.SaldoMaterialRepository, tipoOperacao, clienteCNPJ, codigoProduto, numeroLote string, quantidade decimal.Decimal) error {
	switch tipoOperacao {
	case domnfe.OperacaoRetorno, domnfe.OperacaoSimbolico, domnfe.OperacaoFaturamento:
	default:
		return nil
	}

	saldo, err := saldoRepo.FindDisponivelForUpdate(clienteCNPJ, codigoProduto, numeroLote)
	if err != nil {
		return fmt.Errorf("validar operação: %w", err)
	}
	if saldo == nil {
		return fmt.Errorf("produto %s lote %s: %w", codigoProduto, numeroLote, domain.ErrSaldoNaoEncontrado)
	}
	if disponivel := saldo.SaldoDisponivel(); disponivel.LessThan(quantidade) {
		return &domain.SaldoInsuficienteError{
			CodigoProduto: codigoProduto,
			NumeroLote:    numeroLote,
			Disponivel:    disponivel,
			Solicitado:    quantidade,
		}
	}
	return nil
}
