package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/recognition-mock/internal/config"
	"github.com/example/recognition-mock/internal/handlers"
	"github.com/example/recognition-mock/internal/passages"
	"github.com/example/recognition-mock/internal/recognition"
	"github.com/example/recognition-mock/internal/storage"
)

type blockingChecker struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingChecker) Check(ctx context.Context, form *multipart.Form) (recognition.Result, error) {
	select {
	case <-b.started:
	default:
		close(b.started)
	}
	<-b.release
	return recognition.Result{Recognized: true, Message: recognition.MessageRecognized}, nil
}

type fixedPicker struct{ p passages.Passage }

func (f fixedPicker) Pick(context.Context) passages.Passage { return f.p }

func TestServerGracefulShutdown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	checker := &blockingChecker{started: make(chan struct{}), release: make(chan struct{})}
	defer func() {
		select {
		case <-checker.release:
		default:
			close(checker.release)
		}
	}()

	router := newRouter(config.ServerConfig{AllowedOrigins: []string{"*"}}, checker, fixedPicker{}, logger)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to create listener: %v", err)
	}
	server := &http.Server{Handler: router}

	signalCh := make(chan os.Signal, 1)
	done := make(chan error, 1)
	go func() {
		done <- serveHTTPServerWithOptions(server, 2*time.Second, logger, listener, signalCh)
	}()

	addr := listener.Addr().String()
	waitForServer(t, addr)

	body, contentType := multipartImage(t, []byte("jpeg"))
	client := &http.Client{Timeout: 2 * time.Second}
	respCh := make(chan *http.Response, 1)
	errCh := make(chan error, 1)
	go func() {
		resp, err := client.Post("http://"+addr+"/check", contentType, body)
		if err != nil {
			errCh <- err
			return
		}
		respCh <- resp
	}()

	select {
	case <-checker.started:
	case <-time.After(2 * time.Second):
		t.Fatal("request did not start in time")
	}

	signalCh <- syscall.SIGTERM

	time.Sleep(50 * time.Millisecond)
	close(checker.release)

	select {
	case resp := <-respCh:
		t.Cleanup(func() { resp.Body.Close() })
		if resp.StatusCode != http.StatusOK {
			data, _ := io.ReadAll(resp.Body)
			t.Fatalf("unexpected status: %d body: %s", resp.StatusCode, string(data))
		}
		var out handlers.CheckResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || !out.Recognized {
			t.Fatalf("unexpected body: %+v err: %v", out, err)
		}
	case err := <-errCh:
		t.Fatalf("request failed: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("request did not complete")
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("server did not shutdown cleanly: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not exit after shutdown")
	}
}

func TestRouterSetsCORSAndRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := newRouter(config.ServerConfig{AllowedOrigins: []string{"*"}}, nil, fixedPicker{p: passages.Passage{Text: "A", Translation: "a"}}, zap.NewNop())

	server := &http.Server{Handler: router}
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to create listener: %v", err)
	}
	go func() { _ = server.Serve(listener) }()
	t.Cleanup(func() { _ = server.Close() })

	req, _ := http.NewRequest(http.MethodGet, "http://"+listener.Addr().String()+"/sentence", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing CORS header: %v", resp.Header)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatal("missing request id header")
	}
	var out handlers.SentenceResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if out.Text != "A" || out.Translation != "a" {
		t.Fatalf("unexpected body: %+v", out)
	}
}

func TestLoadPassageTableSources(t *testing.T) {
	ctx := context.Background()

	table, err := loadPassageTable(ctx, config.PassagesConfig{Source: config.PassagesBuiltin}, zap.NewNop())
	if err != nil || table.Len() != len(passages.Default()) {
		t.Fatalf("builtin source: len=%v err=%v", table, err)
	}

	path := filepath.Join(t.TempDir(), "passages.yaml")
	if err := os.WriteFile(path, []byte("passages:\n  - text: A\n    translation: a\n"), 0o644); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	table, err = loadPassageTable(ctx, config.PassagesConfig{Source: config.PassagesFile, File: path}, zap.NewNop())
	if err != nil || table.Len() != 1 {
		t.Fatalf("file source: table=%v err=%v", table, err)
	}

	empty := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(empty, []byte("passages: []\n"), 0o644); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	if _, err := loadPassageTable(ctx, config.PassagesConfig{Source: config.PassagesFile, File: empty}, zap.NewNop()); !errors.Is(err, config.ErrInvalidConfig) {
		t.Fatalf("expected empty table to be rejected at startup, got %v", err)
	}
}

func TestInitStoreDefaultsToLocal(t *testing.T) {
	dir := t.TempDir()
	store, closeStore, err := initStore(context.Background(), config.StorageConfig{Backend: config.StorageLocal, UploadDir: dir}, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer closeStore()

	local, ok := store.(*storage.Local)
	if !ok || local.Dir() != dir {
		t.Fatalf("expected local store at %s, got %T", dir, store)
	}
}

func TestRunStopsOnInvalidConfig(t *testing.T) {
	t.Setenv("RECOGNITION_SUCCESS_RATE", "seventy-percent")

	if err := run(); !errors.Is(err, config.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig from run, got %v", err)
	}
}

func TestInitRedisReportsUnreachableServer(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve port: %v", err)
	}
	addr := listener.Addr().String()
	listener.Close()

	client, err := initRedis(context.Background(), addr)
	if err == nil {
		client.Close()
		t.Fatal("expected an error for an address with no redis server")
	}
}

func multipartImage(t *testing.T, payload []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", "recognition.jpg")
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write(payload); err != nil {
		t.Fatalf("failed to write payload: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func waitForServer(t *testing.T, addr string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 50*time.Millisecond)
		if err == nil {
			conn.Close()
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("server %s did not become ready", addr)
}
