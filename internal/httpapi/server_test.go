package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Dasieloski/dasieloski-store/internal/auth"
	"github.com/Dasieloski/dasieloski-store/internal/cart"
	"github.com/Dasieloski/dasieloski-store/internal/catalog"
	"github.com/Dasieloski/dasieloski-store/internal/checkout"
	"github.com/Dasieloski/dasieloski-store/internal/domain"
	"github.com/Dasieloski/dasieloski-store/internal/metrics"
	"github.com/Dasieloski/dasieloski-store/internal/session"
	"github.com/Dasieloski/dasieloski-store/internal/storage/memory"
)

const (
	adminEmail    = "admin@dasieloski.com"
	adminPassword = "s3cret"
	testSession   = "7f0c5a52-4b1e-4a43-9a1e-0d6b2b8c9e11"
)

type testAPI struct {
	handler  http.Handler
	registry *prometheus.Registry
	idem     domain.IdempotencyRepository
	token    string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	registry := prometheus.NewRegistry()
	m := metrics.NewStoreMetricsWithRegisterer(registry)
	logger, _ := test.NewNullLogger()
	entry := logrus.NewEntry(logger)

	categories := memory.NewCategoryRepository()
	catalogSvc := catalog.NewService(categories, memory.NewProductRepository(categories), memory.NewCurrencyRepository(),
		catalog.WithMetrics(m), catalog.WithLogger(entry))
	require.NoError(t, catalogSvc.EnsureSeedCurrencies(context.Background()))

	sessions := session.NewMemoryStore()
	carts := cart.NewService(sessions, catalogSvc, cart.WithMetrics(m), cart.WithLogger(entry))
	checkoutSvc := checkout.NewService(carts, checkout.NewWhatsAppDispatcher("5355551234"),
		checkout.WithMetrics(m), checkout.WithLogger(entry))

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
	require.NoError(t, err)
	creds, err := auth.NewStaticCredentialStore(adminEmail, hash)
	require.NoError(t, err)
	authenticator := auth.NewSessionAuthenticator(creds, sessions, auth.WithLogger(entry))

	idem := memory.NewIdempotencyRepository()
	srv := NewServer(catalogSvc, carts, checkoutSvc, authenticator,
		WithIdempotency(idem, 0),
		WithMetrics(m),
		WithLogger(entry),
	)
	return &testAPI{handler: srv.Routes(), registry: registry, idem: idem}
}

type call struct {
	method  string
	path    string
	body    any
	headers map[string]string
	admin   bool
}

func (a *testAPI) do(t *testing.T, c call) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	switch v := c.body.(type) {
	case nil:
	case string:
		body.WriteString(v)
	default:
		require.NoError(t, json.NewEncoder(&body).Encode(v))
	}

	req := httptest.NewRequest(c.method, c.path, &body)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if c.admin {
		req.Header.Set("Authorization", "Bearer "+a.loginToken(t))
	}

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) loginToken(t *testing.T) string {
	t.Helper()
	if a.token != "" {
		return a.token
	}
	rec := a.do(t, call{method: http.MethodPost, path: "/api/admin/login", body: auth.Credentials{Email: adminEmail, Password: adminPassword}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var s domain.AdminSession
	decodeBody(t, rec, &s)
	require.NotEmpty(t, s.Token)
	a.token = s.Token
	return s.Token
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func requireError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	var resp ErrorResponse
	decodeBody(t, rec, &resp)
	require.Equal(t, code, resp.Code)
	require.NotEmpty(t, resp.Error)
}

func (a *testAPI) seedProduct(t *testing.T, withImage bool) (domain.Category, domain.Product) {
	t.Helper()
	rec := a.do(t, call{method: http.MethodPost, path: "/api/categories", admin: true,
		body: catalog.CategoryInput{Name: "Tecnología Avanzada", Emoji: "💻", Description: "Gadgets"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var category domain.Category
	decodeBody(t, rec, &category)

	product := map[string]any{
		"name":        "Laptop",
		"price":       999.99,
		"emoji":       "💻",
		"description": "Powerful laptop",
		"categoryId":  category.ID,
	}
	if withImage {
		product["image"] = "https://cdn.example/laptop.png"
	}
	rec = a.do(t, call{method: http.MethodPost, path: "/api/products", admin: true, body: product})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created domain.Product
	decodeBody(t, rec, &created)
	return category, created
}

func TestCategories_CRUD(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, call{method: http.MethodPost, path: "/api/categories",
		body: catalog.CategoryInput{Name: "Zapatos", Emoji: "👟", Description: "Calzado"}})
	requireError(t, rec, http.StatusUnauthorized, CodeUnauthorized)

	rec = api.do(t, call{method: http.MethodPost, path: "/api/categories", admin: true,
		body: catalog.CategoryInput{Name: "Tecnología Avanzada", Emoji: "💻", Description: "Gadgets"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created domain.Category
	decodeBody(t, rec, &created)
	require.Equal(t, "tecnología-avanzada", created.ID)
	require.True(t, domain.IsCategoryGradient(created.Gradient))

	rec = api.do(t, call{method: http.MethodPost, path: "/api/categories", admin: true,
		body: catalog.CategoryInput{Name: "tecnología  avanzada", Emoji: "🖥️", Description: "again"}})
	requireError(t, rec, http.StatusConflict, CodeConflict)

	rec = api.do(t, call{method: http.MethodPost, path: "/api/categories", admin: true,
		body: catalog.CategoryInput{Name: "Solo nombre"}})
	requireError(t, rec, http.StatusBadRequest, CodeValidation)

	rec = api.do(t, call{method: http.MethodGet, path: "/api/categories"})
	require.Equal(t, http.StatusOK, rec.Code)
	var list []domain.Category
	decodeBody(t, rec, &list)
	require.Len(t, list, 1)

	rec = api.do(t, call{method: http.MethodPut, path: "/api/categories/" + created.ID, admin: true,
		body: catalog.CategoryInput{Description: "Lo último"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated domain.Category
	decodeBody(t, rec, &updated)
	require.Equal(t, created.ID, updated.ID)
	require.Equal(t, "Lo último", updated.Description)

	rec = api.do(t, call{method: http.MethodGet, path: "/api/storefront/categories"})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &list)
	require.Equal(t, domain.AllCategoriesID, list[0].ID)

	rec = api.do(t, call{method: http.MethodDelete, path: "/api/categories/" + created.ID, admin: true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(t, call{method: http.MethodGet, path: "/api/categories/" + created.ID})
	requireError(t, rec, http.StatusNotFound, CodeNotFound)

	rec = api.do(t, call{method: http.MethodDelete, path: "/api/categories/" + created.ID, admin: true})
	requireError(t, rec, http.StatusNotFound, CodeNotFound)
}

func TestProducts_CRUDAndFilter(t *testing.T) {
	api := newTestAPI(t)
	category, product := api.seedProduct(t, true)

	require.Equal(t, category.ID, product.CategoryID)
	require.Equal(t, "Powerful laptop", product.DetailedDescription)
	require.Len(t, product.Images, 1)

	rec := api.do(t, call{method: http.MethodGet, path: "/api/products?q=POWERFUL"})
	require.Equal(t, http.StatusOK, rec.Code)
	var list []domain.Product
	decodeBody(t, rec, &list)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].Category)
	require.Equal(t, category.Name, list[0].Category.Name)

	rec = api.do(t, call{method: http.MethodGet, path: "/api/products?category=otra"})
	decodeBody(t, rec, &list)
	require.Empty(t, list)

	rec = api.do(t, call{method: http.MethodPut, path: "/api/products/" + product.ID, admin: true,
		body: map[string]any{"price": "1099.50"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated domain.Product
	decodeBody(t, rec, &updated)
	require.Equal(t, "1099.5", updated.Price.String())
	require.Equal(t, "Laptop", updated.Name)

	rec = api.do(t, call{method: http.MethodDelete, path: "/api/categories/" + category.ID, admin: true})
	requireError(t, rec, http.StatusConflict, CodeConflict)

	rec = api.do(t, call{method: http.MethodDelete, path: "/api/products/" + product.ID, admin: true})
	require.Equal(t, http.StatusOK, rec.Code)
	var msg MessageResponse
	decodeBody(t, rec, &msg)
	require.NotEmpty(t, msg.Message)

	rec = api.do(t, call{method: http.MethodGet, path: "/api/products/" + product.ID})
	requireError(t, rec, http.StatusNotFound, CodeNotFound)
}

func TestCurrencies(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, call{method: http.MethodGet, path: "/api/currencies"})
	require.Equal(t, http.StatusOK, rec.Code)
	var list []domain.Currency
	decodeBody(t, rec, &list)
	require.Len(t, list, 2)

	rec = api.do(t, call{method: http.MethodPost, path: "/api/currencies", admin: true,
		body: map[string]any{"code": "eur", "symbol": "€", "exchangeRate": 130}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var eur domain.Currency
	decodeBody(t, rec, &eur)
	require.Equal(t, "EUR", eur.Code)

	rec = api.do(t, call{method: http.MethodPost, path: "/api/currencies/" + eur.ID + "/default", admin: true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(t, call{method: http.MethodDelete, path: "/api/currencies/" + eur.ID, admin: true})
	requireError(t, rec, http.StatusConflict, CodeConflict)
}

func TestCart_Flow(t *testing.T) {
	api := newTestAPI(t)
	_, product := api.seedProduct(t, true)
	headers := map[string]string{SessionHeader: testSession}

	for range 2 {
		rec := api.do(t, call{method: http.MethodPost, path: "/api/cart/items", headers: headers,
			body: map[string]string{"productId": product.ID}})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := api.do(t, call{method: http.MethodGet, path: "/api/cart", headers: headers})
	require.Equal(t, http.StatusOK, rec.Code)
	var view cart.View
	decodeBody(t, rec, &view)
	require.Equal(t, 2, view.Count)
	require.Equal(t, "1999.98", view.Total.String())

	rec = api.do(t, call{method: http.MethodDelete, path: "/api/cart/items/" + product.ID, headers: headers})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &view)
	require.Equal(t, 1, view.Count)

	rec = api.do(t, call{method: http.MethodDelete, path: "/api/cart/items/missing", headers: headers})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &view)
	require.Equal(t, 1, view.Count)

	rec = api.do(t, call{method: http.MethodGet, path: "/api/cart",
		headers: map[string]string{SessionHeader: "2b6a0f0e-7f43-4c3c-9d55-8f3386d1c2c7"}})
	decodeBody(t, rec, &view)
	require.Zero(t, view.Count, "sessions never share carts")
}

func TestCart_RejectsProductWithoutImage(t *testing.T) {
	api := newTestAPI(t)
	_, product := api.seedProduct(t, false)

	rec := api.do(t, call{method: http.MethodPost, path: "/api/cart/items",
		headers: map[string]string{SessionHeader: testSession},
		body:    map[string]string{"productId": product.ID}})
	requireError(t, rec, http.StatusBadRequest, CodeValidation)

	rec = api.do(t, call{method: http.MethodPost, path: "/api/cart/items",
		headers: map[string]string{SessionHeader: testSession},
		body:    map[string]string{"productId": "missing"}})
	requireError(t, rec, http.StatusNotFound, CodeNotFound)
}

func TestSession_CookieIssued(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, call{method: http.MethodGet, path: "/api/cart"})
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, SessionCookieName, cookies[0].Name)
	require.True(t, cookies[0].HttpOnly)
	require.Equal(t, cookies[0].Value, rec.Header().Get(SessionHeader))

	rec = api.do(t, call{method: http.MethodGet, path: "/api/cart", headers: map[string]string{SessionHeader: testSession}})
	require.Empty(t, rec.Result().Cookies())
	require.Equal(t, testSession, rec.Header().Get(SessionHeader))
}

func TestCheckout(t *testing.T) {
	api := newTestAPI(t)
	_, product := api.seedProduct(t, true)
	headers := map[string]string{SessionHeader: testSession}

	rec := api.do(t, call{method: http.MethodPost, path: "/api/cart/items", headers: headers,
		body: map[string]string{"productId": product.ID}})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(t, call{method: http.MethodPost, path: "/api/checkout", headers: headers,
		body: domain.Customer{Name: "Ana"}})
	requireError(t, rec, http.StatusBadRequest, CodeValidation)

	customer := domain.Customer{Name: "Ana", Phone: "5555", Email: "ana@example.com", Address: "Calle 23"}
	rec = api.do(t, call{method: http.MethodPost, path: "/api/checkout", headers: headers, body: customer})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp orderResponse
	decodeBody(t, rec, &resp)
	require.True(t, strings.HasPrefix(resp.URL, "https://wa.me/5355551234?text="))
	require.Contains(t, resp.Message, "- 💻 Laptop: $999.99 x 1\n")
	require.True(t, strings.HasSuffix(resp.Message, "💰 *Total:* $999.99"))

	rec = api.do(t, call{method: http.MethodPost, path: "/api/checkout?redirect=1", headers: headers, body: customer})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, resp.URL, rec.Header().Get("Location"))

	rec = api.do(t, call{method: http.MethodGet, path: "/api/checkout", headers: headers})
	require.Equal(t, http.StatusOK, rec.Code)
	var view cart.View
	decodeBody(t, rec, &view)
	require.Equal(t, 1, view.Count, "checkout must not clear the cart")
}

func TestAdmin_LoginLogout(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, call{method: http.MethodPost, path: "/api/admin/login",
		body: auth.Credentials{Email: adminEmail, Password: "wrong"}})
	requireError(t, rec, http.StatusUnauthorized, CodeUnauthorized)

	token := api.loginToken(t)
	bearer := map[string]string{"Authorization": "Bearer " + token}

	rec = api.do(t, call{method: http.MethodGet, path: "/api/admin/session", headers: bearer})
	require.Equal(t, http.StatusOK, rec.Code)
	var s domain.AdminSession
	decodeBody(t, rec, &s)
	require.Equal(t, adminEmail, s.Email)

	rec = api.do(t, call{method: http.MethodPost, path: "/api/admin/logout", headers: bearer})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(t, call{method: http.MethodGet, path: "/api/admin/session", headers: bearer})
	requireError(t, rec, http.StatusUnauthorized, CodeUnauthorized)
}

func TestIdempotentCreate(t *testing.T) {
	api := newTestAPI(t)
	body := catalog.CategoryInput{Name: "Juguetes", Emoji: "🧸", Description: "Para niños"}
	headers := map[string]string{IdempotencyKeyHeader: "key-1"}

	first := api.do(t, call{method: http.MethodPost, path: "/api/categories", admin: true, headers: headers, body: body})
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())

	replay := api.do(t, call{method: http.MethodPost, path: "/api/categories", admin: true, headers: headers, body: body})
	require.Equal(t, http.StatusCreated, replay.Code)
	require.Equal(t, "true", replay.Header().Get("Idempotent-Replayed"))
	require.JSONEq(t, first.Body.String(), replay.Body.String())

	body.Description = "otra"
	rec := api.do(t, call{method: http.MethodPost, path: "/api/categories", admin: true, headers: headers, body: body})
	requireError(t, rec, http.StatusConflict, CodeIdempotencyConflict)

	dup := api.do(t, call{method: http.MethodPost, path: "/api/categories", admin: true,
		headers: map[string]string{IdempotencyKeyHeader: "key-2"}, body: body})
	requireError(t, dup, http.StatusConflict, CodeConflict)

	dupReplay := api.do(t, call{method: http.MethodPost, path: "/api/categories", admin: true,
		headers: map[string]string{IdempotencyKeyHeader: "key-2"}, body: body})
	require.Equal(t, http.StatusConflict, dupReplay.Code)
	require.Equal(t, "true", dupReplay.Header().Get("Idempotent-Replayed"))

	record, err := api.idem.Get(context.Background(), "key-1")
	require.NoError(t, err)
	require.Equal(t, domain.IdempotencyStatusDone, record.Status)
}

func TestIdempotentCreate_InProgress(t *testing.T) {
	api := newTestAPI(t)
	body := `{"name":"Hogar","emoji":"🏠","description":"Casa"}` + "\n"

	req := httptest.NewRequest(http.MethodPost, "/api/categories", strings.NewReader(body))
	_, err := api.idem.CreateProcessing(context.Background(), "busy", requestHash(req, []byte(body)), time.Now().Add(time.Hour))
	require.NoError(t, err)

	rec := api.do(t, call{method: http.MethodPost, path: "/api/categories", admin: true,
		headers: map[string]string{IdempotencyKeyHeader: "busy"}, body: body})
	requireError(t, rec, http.StatusConflict, CodeIdempotencyInProgress)
}

func TestIdempotentCreate_PanicReleasesKey(t *testing.T) {
	logger, _ := test.NewNullLogger()
	idem := memory.NewIdempotencyRepository()
	srv := NewServer(nil, nil, nil, nil, WithIdempotency(idem, 0), WithLogger(logrus.NewEntry(logger)))

	calls := 0
	handler := middleware.Recoverer(srv.idempotent(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		calls++
		panic("create failed")
	})))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/categories", strings.NewReader(`{"name":"Hogar"}`))
		req.Header.Set(IdempotencyKeyHeader, "crash")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusInternalServerError, send().Code)

	record, err := idem.Get(context.Background(), "crash")
	require.NoError(t, err)
	require.Equal(t, domain.IdempotencyStatusFailed, record.Status)
	require.Equal(t, http.StatusInternalServerError, record.HTTPStatus)

	retry := send()
	requireError(t, retry, http.StatusInternalServerError, CodeInternal)
	require.Equal(t, "true", retry.Header().Get("Idempotent-Replayed"))
	require.Equal(t, 1, calls)
}

func TestInvalidJSONAndUnknownRoute(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, call{method: http.MethodPost, path: "/api/checkout",
		headers: map[string]string{SessionHeader: testSession}, body: "{not json"})
	requireError(t, rec, http.StatusBadRequest, CodeInvalidJSON)

	rec = api.do(t, call{method: http.MethodGet, path: "/api/nope"})
	requireError(t, rec, http.StatusNotFound, CodeNotFound)
}

func TestRequestMetricsUseRoutePattern(t *testing.T) {
	api := newTestAPI(t)

	api.do(t, call{method: http.MethodGet, path: "/api/categories/missing-one"})
	api.do(t, call{method: http.MethodGet, path: "/api/categories/missing-two"})

	families, err := api.registry.Gather()
	require.NoError(t, err)
	var found bool
	for _, mf := range families {
		if mf.GetName() != "store_http_request_duration_seconds" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range metric.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["route"] == "/api/categories/{id}" && labels["status"] == "404" {
				found = true
				require.Equal(t, uint64(2), metric.GetHistogram().GetSampleCount())
			}
		}
	}
	require.True(t, found, "expected histogram sample for the route pattern")
}
