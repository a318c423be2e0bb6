package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"predictflow/internal/config"
	apierrors "predictflow/internal/errors"
	"predictflow/internal/services"
	"predictflow/internal/shared/testutil"
	api "predictflow/pkg/contracts/api/v1"
)

const (
	testUser     = "analyst"
	testPassword = "s3cret-pass"
)

// createTestLogger creates a logger that discards output for testing
func createTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// testConfig returns a configuration rooted in a temporary directory,
// listening on an ephemeral port
func testConfig(t *testing.T) *config.Config {
	t.Helper()

	hash, err := services.HashPassword(testPassword)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Server.ShutdownTimeout = 5 * time.Second
	cfg.Paths.BaseDir = t.TempDir()
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.Users = map[string]string{testUser: hash}
	cfg.Model.Watch = false
	cfg.Logging.Output = "console"
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *Application {
	t.Helper()
	app, err := New(cfg, createTestLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.OTelProviders.Shutdown(context.Background()) })
	return app
}

func serve(app *Application, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, path, token string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func batchRequest(t *testing.T, token, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(config.BatchUploadFormName, filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, config.BatchEndpoint, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func login(t *testing.T, app *Application) string {
	t.Helper()
	rec := serve(app, jsonRequest(http.MethodPost, config.LoginEndpoint, "",
		api.LoginRequest{Username: testUser, Password: testPassword}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp api.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func problemOf(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	return problem
}

func splitHostPort(t *testing.T, addr string) (string, int) {
	t.Helper()
	host, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	n, err := strconv.Atoi(port)
	require.NoError(t, err)
	return host, n
}

func TestNew(t *testing.T) {
	t.Run("without model", func(t *testing.T) {
		app := newTestApp(t, testConfig(t))

		assert.NotNil(t, app.Router)
		assert.NotNil(t, app.Server)
		assert.NotNil(t, app.Services.Auth)
		assert.NotNil(t, app.Services.Prediction)
		assert.NotNil(t, app.Services.Health)
		assert.False(t, app.Holder.Loaded())
		assert.DirExists(t, app.Paths.ModelsDir)
		assert.DirExists(t, app.Paths.DataDir)
	})

	t.Run("with model", func(t *testing.T) {
		cfg := testConfig(t)
		testutil.SavedModel(t, cfg.Paths.BaseDir)

		app := newTestApp(t, cfg)
		assert.True(t, app.Holder.Loaded())
		assert.Equal(t, []string{"load", "frequency"}, app.Holder.Current().Inputs())
	})

	t.Run("corrupt model fails startup", func(t *testing.T) {
		cfg := testConfig(t)
		testutil.SavedModel(t, cfg.Paths.BaseDir)
		testutil.WriteCSV(t, cfg.Paths.BaseDir, "models/model.json", [][]string{{"not", "json"}})

		_, err := New(cfg, createTestLogger())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load model")
	})
}

func TestRouter_EndToEnd(t *testing.T) {
	cfg := testConfig(t)
	testutil.SavedModel(t, cfg.Paths.BaseDir)
	app := newTestApp(t, cfg)

	token := login(t, app)

	t.Run("predict", func(t *testing.T) {
		rec := serve(app, jsonRequest(http.MethodPost, config.PredictEndpoint, token,
			map[string]float64{"load": 3, "frequency": 6}))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp api.PredictResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.InDelta(t, 30, resp.Predictions["stress"], 1e-6)
		assert.InDelta(t, 0.03, resp.Predictions["strain"], 1e-6)
		assert.Equal(t, 3.0, resp.InputData.Load)
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	})

	t.Run("predict rejects missing field", func(t *testing.T) {
		rec := serve(app, jsonRequest(http.MethodPost, config.PredictEndpoint, token,
			map[string]float64{"load": 3}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("batch", func(t *testing.T) {
		rec := serve(app, batchRequest(t, token, "batch.csv", "LOAD,Frequency\n3,6\n5,10\n"))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp api.BatchPredictResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.Count)
		require.Len(t, resp.Rows, 2)
		assert.InDelta(t, 30, resp.Rows[0].Predictions["stress"], 1e-6)
		assert.Contains(t, resp.Rows[1].Predictions, "strain")
		assert.Equal(t, 5.0, resp.Rows[1].Inputs["load"])
	})

	t.Run("batch missing columns", func(t *testing.T) {
		rec := serve(app, batchRequest(t, token, "batch.csv", "load,note\n1,a\n"))
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())

		problem := problemOf(t, rec)
		assert.Equal(t, apierrors.TypeMissingColumns, problem["type"])
	})

	t.Run("model info", func(t *testing.T) {
		rec := serve(app, jsonRequest(http.MethodGet, config.ModelInfoEndpoint, token, nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var info api.ModelInfoResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
		assert.Equal(t, []string{"load", "frequency"}, info.Inputs)
		assert.ElementsMatch(t, []string{"stress", "strain"}, info.Outputs)
	})

	t.Run("metrics", func(t *testing.T) {
		rec := serve(app, httptest.NewRequest(http.MethodGet, config.MetricsEndpoint, nil))
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "http_requests_total")
		assert.Contains(t, body, "predictions_total")
		assert.Contains(t, body, "login_attempts")
	})
}

func TestRouter_Authentication(t *testing.T) {
	cfg := testConfig(t)
	testutil.SavedModel(t, cfg.Paths.BaseDir)
	app := newTestApp(t, cfg)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
	}{
		{"predict without token", http.MethodPost, config.PredictEndpoint, ""},
		{"predict with garbage token", http.MethodPost, config.PredictEndpoint, "garbage"},
		{"model info without token", http.MethodGet, config.ModelInfoEndpoint, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(app, jsonRequest(tt.method, tt.path, tt.token,
				map[string]float64{"load": 1, "frequency": 2}))
			require.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, apierrors.TypeUnauthorized, problemOf(t, rec)["type"])
		})
	}

	t.Run("wrong password", func(t *testing.T) {
		rec := serve(app, jsonRequest(http.MethodPost, config.LoginEndpoint, "",
			api.LoginRequest{Username: testUser, Password: "nope"}))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, apierrors.TypeUnauthorized, problemOf(t, rec)["type"])
	})
}

func TestRouter_WithoutModel(t *testing.T) {
	app := newTestApp(t, testConfig(t))
	token := login(t, app)

	rec := serve(app, jsonRequest(http.MethodPost, config.PredictEndpoint, token,
		map[string]float64{"load": 1, "frequency": 2}))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, apierrors.TypeModelNotLoaded, problemOf(t, rec)["type"])

	rec = serve(app, httptest.NewRequest(http.MethodGet, config.HealthEndpoint+"/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = serve(app, httptest.NewRequest(http.MethodGet, config.HealthEndpoint, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var health api.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.False(t, health.ModelLoaded)
}

func TestRouter_PublicEndpoints(t *testing.T) {
	cfg := testConfig(t)
	testutil.SavedModel(t, cfg.Paths.BaseDir)
	app := newTestApp(t, cfg)

	tests := []struct {
		name   string
		method string
		path   string
		status int
	}{
		{"health", http.MethodGet, config.HealthEndpoint, http.StatusOK},
		{"liveness", http.MethodGet, config.HealthEndpoint + "/live", http.StatusOK},
		{"readiness", http.MethodGet, config.HealthEndpoint + "/ready", http.StatusOK},
		{"version", http.MethodGet, config.VersionEndpoint, http.StatusOK},
		{"unknown api route", http.MethodGet, "/api/unknown", http.StatusNotFound},
		{"unknown route", http.MethodGet, "/unknown", http.StatusNotFound},
		{"wrong method", http.MethodGet, config.LoginEndpoint, http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(app, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			if strings.HasPrefix(tt.path, config.APIBasePath) {
				assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
			}
		})
	}

	t.Run("cors preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, config.PredictEndpoint, nil)
		req.Header.Set("Origin", "http://example.com")
		rec := serve(app, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "http://example.com", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	})
}

func TestApplication_StartStop(t *testing.T) {
	cfg := testConfig(t)
	cfg.Model.Watch = true
	app := newTestApp(t, cfg)
	require.False(t, app.Holder.Loaded())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, app.Start(ctx, cancel))
	addr := app.Addr()
	assert.False(t, strings.HasSuffix(addr, ":0"))

	resp, err := http.Get("http://" + addr + config.HealthEndpoint)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// A model written after startup is picked up by the watcher
	require.Eventually(t, func() bool {
		if !app.Holder.Loaded() {
			testutil.SavedModel(t, cfg.Paths.BaseDir)
		}
		return app.Holder.Loaded()
	}, 10*time.Second, 500*time.Millisecond)

	resp, err = http.Get("http://" + addr + config.HealthEndpoint + "/ready")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, app.Stop(context.Background()))
	require.NoError(t, app.Stop(context.Background()))

	_, err = http.Get("http://" + addr + config.HealthEndpoint)
	assert.Error(t, err)
}

func TestApplication_StartPortInUse(t *testing.T) {
	first := newTestApp(t, testConfig(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, first.Start(ctx, cancel))
	defer first.Stop(context.Background())

	cfg := testConfig(t)
	cfg.Server.Host, cfg.Server.Port = splitHostPort(t, first.Addr())
	second := newTestApp(t, cfg)

	err := second.Start(ctx, cancel)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to listen")
}
