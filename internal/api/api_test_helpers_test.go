// Estatemap - Real Estate Analytics and Recommendation Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatemap

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/estatemap/internal/analytics"
	"github.com/tomtom215/estatemap/internal/cache"
	"github.com/tomtom215/estatemap/internal/catalog"
	"github.com/tomtom215/estatemap/internal/config"
	"github.com/tomtom215/estatemap/internal/testinfra"
)

// testEnvelope decodes APIResponse with raw data.
type testEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *APIMeta        `json:"meta"`
}

type testServer struct {
	handler http.Handler
	loader  *catalog.Loader
	dir     string
}

// newTestServer builds the full router over dir. reload controls whether
// artifacts are loaded before the first request.
func newTestServer(t *testing.T, dir string, reload bool, mutate ...func(*config.Config)) *testServer {
	t.Helper()

	cfg := testinfra.Config(t, dir)
	for _, m := range mutate {
		m(cfg)
	}
	db := testinfra.NewDuckDB(t)
	c := cache.New(time.Minute)
	t.Cleanup(c.Close)

	loader := catalog.NewLoader(cfg, db, analytics.NewService(db, c, cfg.Analytics))
	if reload {
		_, _ = loader.Reload(context.Background(), catalog.TriggerStartup)
	}
	router := NewRouter(NewHandler(loader, db, cfg), cfg)
	return &testServer{handler: router.SetupChi(), loader: loader, dir: dir}
}

func (s *testServer) do(t *testing.T, method, target string, body interface{}) (*httptest.ResponseRecorder, testEnvelope) {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env testEnvelope
	if ct := rec.Header().Get("Content-Type"); ct == "application/json; charset=utf-8" {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %s %s: %v\n%s", method, target, err, rec.Body.String())
		}
	}
	return rec, env
}

func checkStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, want, rec.Body.String())
	}
}

func checkErrorCode(t *testing.T, env testEnvelope, want string) {
	t.Helper()
	if env.Success {
		t.Fatal("success = true, want error envelope")
	}
	if env.Error == nil || env.Error.Code != want {
		t.Fatalf("error = %+v, want code %s", env.Error, want)
	}
}

func decodeData(t *testing.T, env testEnvelope, v interface{}) {
	t.Helper()
	if !env.Success {
		t.Fatalf("success = false: %+v", env.Error)
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		t.Fatalf("decode data: %v\n%s", err, env.Data)
	}
}
