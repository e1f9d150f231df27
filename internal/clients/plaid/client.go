// Package plaid provides a client for the Plaid financial-data API
package plaid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/networth-app/networth/internal/common"
	"github.com/networth-app/networth/internal/interfaces"
	"github.com/networth-app/networth/internal/models"
)

const (
	DefaultBaseURL   = "https://sandbox.plaid.com"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 10 // requests per second

	// DefaultPageSize is the page size requested from the transaction
	// endpoints.
	DefaultPageSize = 100
)

// Client implements the ProviderClient interface
type Client struct {
	baseURL    string
	clientID   string
	secret     string
	clientName string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new Plaid client
func NewClient(clientID, secret string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		clientID:   clientID,
		secret:     secret,
		clientName: "networth",
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// errorResponse is the provider's error body shape.
type errorResponse struct {
	ErrorType    string `json:"error_type"`
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// classify maps a provider error response to a classified ProviderError.
// Classification happens here so nothing above this boundary inspects
// provider-specific error shapes.
func classify(statusCode int, body []byte) *models.ProviderError {
	var er errorResponse
	_ = json.Unmarshal(body, &er)

	kind := models.ErrorKindUnclassified
	switch er.ErrorCode {
	case "PRODUCT_NOT_READY":
		kind = models.ErrorKindNotReady
	case "ITEM_LOGIN_REQUIRED":
		kind = models.ErrorKindReauth
	}

	msg := er.ErrorMessage
	if msg == "" {
		msg = string(body)
	}

	return &models.ProviderError{
		Kind:       kind,
		Code:       er.ErrorCode,
		StatusCode: statusCode,
		Message:    msg,
	}
}

// post performs a rate-limited POST request with client credentials added.
func (c *Client) post(ctx context.Context, path string, body map[string]interface{}, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	body["client_id"] = c.clientID
	body["secret"] = c.secret

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug().Str("path", path).Msg("Plaid API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return classify(resp.StatusCode, respBody)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// CreateLinkToken creates a short-lived token for the link flow.
func (c *Client) CreateLinkToken(ctx context.Context) (string, error) {
	var resp struct {
		LinkToken string `json:"link_token"`
	}
	err := c.post(ctx, "/link/token/create", map[string]interface{}{
		"client_name":   c.clientName,
		"country_codes": []string{"US"},
		"language":      "en",
		"user": map[string]string{
			"client_user_id": "networth",
		},
		"products": []string{"transactions"},
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.LinkToken, nil
}

// ExchangePublicToken exchanges a link public token for an access secret.
func (c *Client) ExchangePublicToken(ctx context.Context, publicToken string) (*models.TokenExchange, error) {
	var resp models.TokenExchange
	err := c.post(ctx, "/item/public_token/exchange", map[string]interface{}{
		"public_token": publicToken,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetItemInstitution resolves the institution id behind an access secret.
func (c *Client) GetItemInstitution(ctx context.Context, accessSecret string) (string, error) {
	var resp struct {
		Item struct {
			InstitutionID string `json:"institution_id"`
		} `json:"item"`
	}
	err := c.post(ctx, "/item/get", map[string]interface{}{
		"access_token": accessSecret,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Item.InstitutionID, nil
}

// GetInstitution retrieves display metadata for an institution.
func (c *Client) GetInstitution(ctx context.Context, institutionID string) (*models.ProviderInstitution, error) {
	var resp struct {
		Institution struct {
			Name     string   `json:"name"`
			Products []string `json:"products"`
		} `json:"institution"`
	}
	err := c.post(ctx, "/institutions/get_by_id", map[string]interface{}{
		"institution_id": institutionID,
		"country_codes":  []string{"US"},
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &models.ProviderInstitution{
		Name:     resp.Institution.Name,
		Products: resp.Institution.Products,
	}, nil
}

// accountResponse is the provider's account shape.
type accountResponse struct {
	AccountID string `json:"account_id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Balances  struct {
		Current float64 `json:"current"`
	} `json:"balances"`
}

func (a accountResponse) toModel() models.Account {
	return models.Account{
		AccountID:      a.AccountID,
		Name:           a.Name,
		Type:           models.AccountType(a.Type),
		CurrentBalance: a.Balances.Current,
		Transactions:   []models.Transaction{},
	}
}

// transactionResponse is the provider's transaction shape, shared by the
// ordinary and investment endpoints.
type transactionResponse struct {
	AccountID string  `json:"account_id"`
	Amount    float64 `json:"amount"`
	Date      string  `json:"date"`
}

// GetTransactions retrieves one page of transactions plus the account list.
func (c *Client) GetTransactions(ctx context.Context, accessSecret, startDate, endDate string, offset, count int) (*models.TransactionPage, error) {
	var resp struct {
		Accounts          []accountResponse     `json:"accounts"`
		Transactions      []transactionResponse `json:"transactions"`
		TotalTransactions int                   `json:"total_transactions"`
	}
	err := c.post(ctx, "/transactions/get", map[string]interface{}{
		"access_token": accessSecret,
		"start_date":   startDate,
		"end_date":     endDate,
		"options": map[string]int{
			"count":  count,
			"offset": offset,
		},
	}, &resp)
	if err != nil {
		return nil, err
	}

	page := &models.TransactionPage{
		Accounts:     make([]models.Account, len(resp.Accounts)),
		Transactions: make([]models.Transaction, len(resp.Transactions)),
		Total:        resp.TotalTransactions,
	}
	for i, a := range resp.Accounts {
		page.Accounts[i] = a.toModel()
	}
	for i, t := range resp.Transactions {
		page.Transactions[i] = models.Transaction{
			AccountID: t.AccountID,
			Amount:    t.Amount,
			Date:      t.Date,
		}
	}

	return page, nil
}

// GetInvestmentTransactions retrieves one page of investment transactions.
func (c *Client) GetInvestmentTransactions(ctx context.Context, accessSecret, startDate, endDate string, offset, count int) (*models.InvestmentTransactionPage, error) {
	var resp struct {
		InvestmentTransactions []transactionResponse `json:"investment_transactions"`
		Total                  int                   `json:"total_investment_transactions"`
	}
	err := c.post(ctx, "/investments/transactions/get", map[string]interface{}{
		"access_token": accessSecret,
		"start_date":   startDate,
		"end_date":     endDate,
		"options": map[string]int{
			"count":  count,
			"offset": offset,
		},
	}, &resp)
	if err != nil {
		return nil, err
	}

	page := &models.InvestmentTransactionPage{
		Transactions: make([]models.Transaction, len(resp.InvestmentTransactions)),
		Total:        resp.Total,
	}
	for i, t := range resp.InvestmentTransactions {
		page.Transactions[i] = models.Transaction{
			AccountID: t.AccountID,
			Amount:    t.Amount,
			Date:      t.Date,
		}
	}

	return page, nil
}

// Ensure Client implements ProviderClient
var _ interfaces.ProviderClient = (*Client)(nil)
