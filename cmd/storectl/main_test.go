package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Dasieloski/dasieloski-store/internal/auth"
	"github.com/Dasieloski/dasieloski-store/internal/catalog"
	"github.com/Dasieloski/dasieloski-store/internal/catalogclient"
	"github.com/Dasieloski/dasieloski-store/internal/domain"
	"github.com/Dasieloski/dasieloski-store/internal/version"
)

type fakeAPI struct {
	mu          sync.Mutex
	logins      int
	lastAuth    string
	lastQuery   string
	lastProduct catalog.ProductInput
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/api/admin/login":
		var creds auth.Credentials
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid credentials","code":"unauthorized"}`))
			return
		}
		f.logins++
		_ = json.NewEncoder(w).Encode(domain.AdminSession{Token: "tok", Email: creds.Email})
	case r.Method == http.MethodGet && r.URL.Path == "/api/categories":
		_ = json.NewEncoder(w).Encode([]domain.Category{{ID: "ropa", Name: "Ropa", Emoji: "👕"}})
	case r.Method == http.MethodGet && r.URL.Path == "/api/products":
		f.lastQuery = r.URL.RawQuery
		_ = json.NewEncoder(w).Encode([]domain.Product{{
			ID: "p1", Name: "Camisa", Price: decimal.RequireFromString("12.5"), Stock: 3, CategoryID: "ropa",
		}})
	case r.Method == http.MethodPost && r.URL.Path == "/api/categories":
		f.lastAuth = r.Header.Get("Authorization")
		var in catalog.CategoryInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(domain.Category{ID: domain.Slugify(in.Name), Name: in.Name})
	case r.Method == http.MethodPost && r.URL.Path == "/api/products":
		f.lastAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&f.lastProduct)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(domain.Product{ID: "p2", Name: *f.lastProduct.Name})
	default:
		http.NotFound(w, r)
	}
}

func newFakeAPI(t *testing.T) (*fakeAPI, string) {
	t.Helper()
	api := &fakeAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return api, srv.URL
}

func noEnv(string) string { return "" }

func TestRun_Version(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-version"}, noEnv, &out))
	require.Equal(t, version.String()+"\n", out.String())
}

func TestRun_Usage(t *testing.T) {
	var out bytes.Buffer
	require.ErrorIs(t, run(context.Background(), nil, noEnv, &out), errUsage)
	require.ErrorIs(t, run(context.Background(), []string{"-addr=http://x", "explode"}, noEnv, &out), errUsage)
}

func TestRun_ListCommands(t *testing.T) {
	api, addr := newFakeAPI(t)
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, run(ctx, []string{"-addr=" + addr, "list-categories"}, noEnv, &out))
	require.Contains(t, out.String(), "ropa")
	require.Contains(t, out.String(), "Ropa")

	out.Reset()
	require.NoError(t, run(ctx, []string{"-addr=" + addr, "list-products", "-category=ropa", "-q=cam"}, noEnv, &out))
	require.Equal(t, "category=ropa&q=cam", api.lastQuery)
	require.Contains(t, out.String(), "12.50")
}

func TestRun_AdminCommandsLoginImplicitly(t *testing.T) {
	api, addr := newFakeAPI(t)
	ctx := context.Background()
	env := func(key string) string {
		switch key {
		case envAddr:
			return addr
		case envEmail:
			return "admin@example.com"
		case envPassword:
			return "secret"
		}
		return ""
	}

	var out bytes.Buffer
	require.NoError(t, run(ctx, []string{"create-category", "-name=Hogar Feliz", "-emoji=🏠"}, env, &out))
	require.Equal(t, 1, api.logins)
	require.Equal(t, "Bearer tok", api.lastAuth)

	var created domain.Category
	require.NoError(t, json.Unmarshal(out.Bytes(), &created))
	require.Equal(t, "hogar-feliz", created.ID)

	out.Reset()
	args := []string{"create-product", "-name=Camisa", "-price=12.50", "-category=ropa", "-image=https://cdn/x.png", "-specs=algodón, talla M,", "-stock=4"}
	require.NoError(t, run(ctx, args, env, &out))
	require.Equal(t, 2, api.logins)
	require.True(t, api.lastProduct.Price.Equal(decimal.RequireFromString("12.5")))
	require.Equal(t, []string{"algodón", "talla M"}, *api.lastProduct.Specifications)
	require.Equal(t, 4, *api.lastProduct.Stock)
}

func TestRun_AdminCommandWithToken(t *testing.T) {
	api, addr := newFakeAPI(t)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-addr=" + addr, "-token=preset", "create-category", "-name=Ropa"}, noEnv, &out))
	require.Zero(t, api.logins)
	require.Equal(t, "Bearer preset", api.lastAuth)
}

func TestRun_AdminCommandErrors(t *testing.T) {
	_, addr := newFakeAPI(t)
	ctx := context.Background()
	var out bytes.Buffer

	err := run(ctx, []string{"-addr=" + addr, "create-category", "-name=x"}, noEnv, &out)
	require.ErrorContains(t, err, "requires -token")

	err = run(ctx, []string{"-addr=" + addr, "-email=a@b.c", "-password=wrong", "login"}, noEnv, &out)
	tErr, ok := catalogclient.IsTransportError(err)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, tErr.StatusCode)

	err = run(ctx, []string{"-addr=" + addr, "-token=t", "create-product", "-price=abc"}, noEnv, &out)
	require.ErrorContains(t, err, "invalid -price")
}

func TestRun_Login(t *testing.T) {
	_, addr := newFakeAPI(t)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-addr=" + addr, "-email=a@b.c", "-password=secret", "login"}, noEnv, &out))
	require.True(t, strings.HasPrefix(out.String(), "token=tok "))
}

func TestSplitList(t *testing.T) {
	require.Equal(t, []string{"a", "b"}, splitList(" a ,, b ,"))
	require.Empty(t, splitList(" , "))
}
