// Package maino implementa o cliente da API do Mainô, a fonte remota de notas
// fiscais emitidas. Autentica por X-Api-Key quando configurada, ou por OAuth2
// (email/senha) com token renovado antes de expirar.
package maino

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/opmetrack/opme-control/internal/application/consignacao"
	"github.com/opmetrack/opme-control/pkg/config"
	"github.com/opmetrack/opme-control/pkg/logger"
)

// Ensure Client implements consignacao.NotaSource.
var _ consignacao.NotaSource = (*Client)(nil)

// requestTimeout teto por chamada; estouro é falha recuperável da nota, não do lote.
const requestTimeout = 30 * time.Second

// tokenTTL tokens OAuth2 do Mainô valem 1 hora; renovamos com folga.
const tokenTTL = 55 * time.Minute

// Client cliente HTTP da API do Mainô.
type Client struct {
	cfg  config.MainoConfig
	http *http.Client
	log  *logger.Logger

	mu          sync.Mutex
	token       string
	tokenExpira time.Time
}

// NewClient constrói o cliente com timeout próprio.
func NewClient(cfg config.MainoConfig, log *logger.Logger) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: requestTimeout},
		log:  log,
	}
}

// notaEmitidaPayload forma do item da listagem remota.
type notaEmitidaPayload struct {
	ChaveAcesso string `json:"chave_acesso"`
	Numero      string `json:"numero"`
}

// listaNotasPayload forma da resposta paginada da listagem.
type listaNotasPayload struct {
	NotasFiscais []notaEmitidaPayload `json:"notas_fiscais"`
	TotalPages   int                  `json:"total_pages"`
	CurrentPage  int                  `json:"current_page"`
}

// ListarNotasEmitidas lista as notas emitidas no período (datas DD/MM/YYYY), uma página por vez.
func (c *Client) ListarNotasEmitidas(ctx context.Context, dataInicio, dataFim string, page int) (*consignacao.PaginaNotas, error) {
	q := url.Values{}
	q.Set("data_inicio", dataInicio)
	q.Set("data_fim", dataFim)
	q.Set("page", fmt.Sprintf("%d", page))

	body, err := c.get(ctx, "/api/v2/notas_fiscais_emitidas", q)
	if err != nil {
		return nil, err
	}

	var payload listaNotasPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decodificar listagem de notas: %w", err)
	}

	pagina := &consignacao.PaginaNotas{
		TotalPages:  payload.TotalPages,
		CurrentPage: payload.CurrentPage,
	}
	for _, nota := range payload.NotasFiscais {
		pagina.Notas = append(pagina.Notas, consignacao.NotaRemota{
			ChaveAcesso: nota.ChaveAcesso,
			Numero:      nota.Numero,
		})
	}
	return pagina, nil
}

// ObterXML baixa o XML completo de uma nota pela chave de acesso.
// A API pode responder XML puro ou um envelope JSON {"xml": "..."}.
func (c *Client) ObterXML(ctx context.Context, chaveAcesso string) (string, error) {
	q := url.Values{}
	q.Set("chave_acesso", chaveAcesso)

	body, err := c.get(ctx, "/api/v2/nfes_emitidas", q)
	if err != nil {
		return "", err
	}

	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "<") {
		return trimmed, nil
	}
	var envelope struct {
		XML string `json:"xml"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", fmt.Errorf("decodificar XML da nota %s: %w", chaveAcesso, err)
	}
	if envelope.XML == "" {
		return "", fmt.Errorf("nota %s sem corpo XML na resposta", chaveAcesso)
	}
	return envelope.XML, nil
}

// get executa um GET autenticado e devolve o corpo em caso de 2xx.
func (c *Client) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		strings.TrimRight(c.cfg.BaseURL, "/")+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if err := c.autenticar(ctx, req); err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ler resposta de %s: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("GET %s: status %d: %s", path, resp.StatusCode, truncate(string(body), 200))
	}
	return body, nil
}

// autenticar injeta a credencial: X-Api-Key quando configurada, senão token OAuth2.
func (c *Client) autenticar(ctx context.Context, req *http.Request) error {
	if c.cfg.APIKey != "" {
		req.Header.Set("X-Api-Key", c.cfg.APIKey)
		return nil
	}
	token, err := c.obterToken(ctx)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

// obterToken devolve o token em cache ou autentica de novo quando expirado.
func (c *Client) obterToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Now().Before(c.tokenExpira) {
		return c.token, nil
	}

	payload, err := json.Marshal(map[string]string{
		"email":           c.cfg.Email,
		"password":        c.cfg.Password,
		"application_uid": c.cfg.ApplicationUID,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(c.cfg.BaseURL, "/")+"/api/v2/authentication", strings.NewReader(string(payload)))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("autenticar no Mainô: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("autenticar no Mainô: status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	// A resposta vem indexada pelo CNPJ da empresa autenticada:
	// {"12345678000190": {"access_token": "..."}}
	var porEmpresa map[string]struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &porEmpresa); err != nil {
		return "", fmt.Errorf("decodificar autenticação: %w", err)
	}
	for cnpj, cred := range porEmpresa {
		if cred.AccessToken != "" {
			c.token = cred.AccessToken
			c.tokenExpira = time.Now().Add(tokenTTL)
			c.log.Debug().Str("empresa", cnpj).Msg("token do Mainô renovado")
			return c.token, nil
		}
	}
	return "", fmt.Errorf("autenticação do Mainô sem access_token na resposta")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
