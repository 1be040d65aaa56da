package consignacao_test

import (
	"fmt"
	"strings"

	"github.com/opmetrack/opme-control/internal/application/consignacao"
	"github.com/opmetrack/opme-control/internal/infrastructure/nfe"
	"github.com/opmetrack/opme-control/pkg/logger"
)

// Ambiente de teste completo: parser real de XML sobre repositórios em memória.

const (
	cnpjHospital = "98765432000110"

	// Chaves de acesso distintas por nota de teste (44 dígitos).
	chaveSaida1  = "35230900000000000001550010000000011000000001"
	chaveSaida2  = "35230900000000000001550010000000021000000002"
	chaveRetorno = "35230900000000000001550010000000031000000003"
	chaveUso     = "35230900000000000001550010000000041000000004"
	chaveFat     = "35230900000000000001550010000000051000000005"
)

type ambiente struct {
	nfRepo    *fakeNotaRepo
	saldoRepo *fakeSaldoRepo
	ledger    *consignacao.Ledger
	processar *consignacao.ProcessarNotaUseCase
}

func novoAmbiente() *ambiente {
	log := logger.New(logger.Config{Env: "production", Level: "error"})
	nfRepo := &fakeNotaRepo{}
	saldoRepo := &fakeSaldoRepo{}
	tx := &fakeTxRunner{nf: nfRepo, saldo: saldoRepo}
	ledger := consignacao.NewLedger(log)
	processar := consignacao.NewProcessarNotaUseCase(nfRepo, nfe.NewParser(), ledger, tx, log)
	return &ambiente{nfRepo: nfRepo, saldoRepo: saldoRepo, ledger: ledger, processar: processar}
}

type itemXML struct {
	codigo string
	qtd    string
	lote   string // vazio = item sem rastreabilidade
}

// xmlNota monta uma NFe de teste com o CFOP e os itens dados.
func xmlNota(chave, cfop string, itens ...itemXML) string {
	var dets []string
	for i, item := range itens {
		rastro := ""
		if item.lote != "" {
			rastro = fmt.Sprintf("<rastro><nLote>%s</nLote></rastro>", item.lote)
		}
		dets = append(dets, fmt.Sprintf(`<det nItem="%d">
			<prod>
				<cProd>%s</cProd>
				<xProd>Material OPME %s</xProd>
				<qCom>%s</qCom>
				<vUnCom>100.00</vUnCom>
				<vProd>100.00</vProd>
				%s
			</prod>
			<imposto><ICMS><ICMS00><CFOP>%s</CFOP></ICMS00></ICMS></imposto>
		</det>`, i+1, item.codigo, item.codigo, item.qtd, rastro, cfop))
	}
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<nfeProc xmlns="http://www.portalfiscal.inf.br/nfe">
	<NFe>
		<infNFe Id="NFe%s" versao="4.00">
			<ide>
				<nNF>%s</nNF>
				<serie>1</serie>
				<dhEmi>2023-09-15T10:30:00-03:00</dhEmi>
			</ide>
			<emit>
				<CNPJ>11222333000144</CNPJ>
				<xNome>Distribuidora OPME Ltda</xNome>
			</emit>
			<dest>
				<CNPJ>%s</CNPJ>
				<xNome>Hospital Santa Clara</xNome>
			</dest>
			%s
		</infNFe>
	</NFe>
</nfeProc>`, chave, chave[25:34], cnpjHospital, strings.Join(dets, "\n"))
}
