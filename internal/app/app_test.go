package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	healthcheck "github.com/Dasieloski/dasieloski-store/internal/health"
	"github.com/Dasieloski/dasieloski-store/internal/version"
)

func freeAddr(t *testing.T) string {
	t.Helper()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := lis.Addr().String()
	require.NoError(t, lis.Close())
	return addr
}

func waitForHTTP(t *testing.T, url string) *http.Response {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	for {
		resp, err := http.Get(url)
		if err == nil {
			return resp
		}
		if time.Now().After(deadline) {
			t.Fatalf("server did not start: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestRun_ServesStorefrontAndShutsDown(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.HTTPAddr = freeAddr(t)
	cfg.MetricsAddr = freeAddr(t)
	cfg.GRPCAddr = "127.0.0.1:0"
	cfg.AdminEmail = "admin@dasieloski.store"
	cfg.AdminPasswordHash = string(hash)
	cfg.OutboxPollInterval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- Run(ctx, cfg) }()

	resp := waitForHTTP(t, fmt.Sprintf("http://%s/api/currencies", cfg.HTTPAddr))
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var currencies []struct {
		Code      string `json:"code"`
		IsDefault bool   `json:"isDefault"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&currencies))
	require.Len(t, currencies, 2)
	require.Equal(t, "CUP", currencies[0].Code)
	require.True(t, currencies[0].IsDefault)

	login, err := http.Post(
		fmt.Sprintf("http://%s/api/admin/login", cfg.HTTPAddr),
		"application/json",
		strings.NewReader(`{"email":"admin@dasieloski.store","password":"secret"}`),
	)
	require.NoError(t, err)
	defer login.Body.Close()
	require.Equal(t, http.StatusOK, login.StatusCode)

	health := waitForHTTP(t, fmt.Sprintf("http://%s/healthz", cfg.MetricsAddr))
	defer health.Body.Close()
	var report healthcheck.Response
	require.NoError(t, json.NewDecoder(health.Body).Decode(&report))
	require.Equal(t, healthcheck.StatusHealthy, report.Status)
	require.Contains(t, report.Checks, "storage")
	require.Contains(t, report.Checks, "sessions")
	require.Contains(t, report.Checks, "outbox")

	cancel()
	select {
	case err := <-runErr:
		require.True(t, errors.Is(err, context.Canceled), "expected context.Canceled, got %v", err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	cfg := validConfig()
	cfg.StorageDriver = "invalid-driver"

	err := Run(context.Background(), cfg)
	if err == nil || !strings.Contains(err.Error(), "unsupported storage driver") {
		t.Fatalf("expected unsupported storage driver error, got %v", err)
	}
}

func TestRun_InvalidAdminHash(t *testing.T) {
	cfg := validConfig()
	cfg.HTTPAddr = freeAddr(t)
	cfg.MetricsAddr = freeAddr(t)
	cfg.GRPCAddr = ""
	cfg.AdminPassword = ""
	cfg.AdminPasswordHash = "not-a-bcrypt-hash"

	err := Run(context.Background(), cfg)
	if err == nil || !strings.Contains(err.Error(), "admin credentials") {
		t.Fatalf("expected admin credentials error, got %v", err)
	}
}

func TestStartMetricsServer_Endpoints(t *testing.T) {
	logger := log.WithField("test", "http")
	addr := freeAddr(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := healthcheck.NewHandler(version.GetVersion())
	srv, err := startMetricsServer(ctx, addr, logger, handler)
	require.NoError(t, err)
	defer shutdownHTTP(srv, logger)

	for path, want := range map[string]string{"/livez": "ok", "/readyz": "ready"} {
		resp := waitForHTTP(t, "http://"+addr+path)
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
		require.Equal(t, want, string(body), path)
	}

	resp := waitForHTTP(t, "http://"+addr+"/metrics")
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, body)
}

func TestStartGRPCHealth_Disabled(t *testing.T) {
	srv, err := startGRPCHealth("", log.WithField("test", "grpc"))
	require.NoError(t, err)
	require.Nil(t, srv)
	srv.stop(time.Second, log.WithField("test", "grpc"))
}

func TestShutdownHTTP_Nil(t *testing.T) {
	shutdownHTTP(nil, log.WithField("test", "shutdown"))
}
