// Package catalogclient — HTTP-клиент REST API витрины. Повторных попыток нет.
package catalogclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Dasieloski/dasieloski-store/internal/auth"
	"github.com/Dasieloski/dasieloski-store/internal/catalog"
	"github.com/Dasieloski/dasieloski-store/internal/domain"
)

const defaultTimeout = 10 * time.Second

// TransportError — сетевой сбой или ответ API с неуспешным статусом.
// Для сетевых сбоев StatusCode равен нулю, а причина лежит в Err.
type TransportError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("catalog api: %v", e.Err)
	}
	if e.Code != "" {
		return fmt.Sprintf("catalog api: status %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("catalog api: status %d: %s", e.StatusCode, e.Message)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransportError сообщает, что err — ошибка транспорта, и возвращает её.
func IsTransportError(err error) (*TransportError, bool) {
	var tErr *TransportError
	if errors.As(err, &tErr) {
		return tErr, true
	}
	return nil, false
}

// Client обращается к REST API витрины.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// Option настраивает Client.
type Option func(*Client)

// WithHTTPClient подменяет http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithToken задаёт токен административной сессии.
func WithToken(token string) Option {
	return func(cl *Client) {
		cl.token = token
	}
}

// New создаёт клиент для baseURL вида http://localhost:8080.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login открывает административную сессию и запоминает токен.
func (c *Client) Login(ctx context.Context, creds auth.Credentials) (domain.AdminSession, error) {
	var session domain.AdminSession
	if err := c.do(ctx, http.MethodPost, "/api/admin/login", creds, &session); err != nil {
		return domain.AdminSession{}, err
	}
	c.token = session.Token
	return session, nil
}

// ListCategories возвращает категории каталога.
func (c *Client) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	err := c.do(ctx, http.MethodGet, "/api/categories", nil, &out)
	return out, err
}

// ListProducts возвращает товары с учётом фильтра.
func (c *Client) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	query := url.Values{}
	if filter.CategoryID != "" {
		query.Set("category", filter.CategoryID)
	}
	if filter.Search != "" {
		query.Set("q", filter.Search)
	}
	path := "/api/products"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var out []domain.Product
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// CreateCategory создаёт категорию; требуется токен.
func (c *Client) CreateCategory(ctx context.Context, in catalog.CategoryInput) (domain.Category, error) {
	var out domain.Category
	err := c.do(ctx, http.MethodPost, "/api/categories", in, &out)
	return out, err
}

// CreateProduct создаёт товар; требуется токен.
func (c *Client) CreateProduct(ctx context.Context, in catalog.ProductInput) (domain.Product, error) {
	var out domain.Product
	err := c.do(ctx, http.MethodPost, "/api/products", in, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return decodeFailure(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{StatusCode: resp.StatusCode, Message: "invalid response body", Err: err}
	}
	return nil
}

func decodeFailure(resp *http.Response) error {
	tErr := &TransportError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		tErr.Err = err
		return tErr
	}
	var payload struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
		tErr.Message = payload.Error
		tErr.Code = payload.Code
	}
	return tErr
}
