// Estatemap - Real Estate Analytics and Recommendation Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatemap

package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/estatemap/internal/testinfra"
)

func TestNewHTTPServerService(t *testing.T) {
	t.Parallel()

	var _ suture.Service = (*HTTPServerService)(nil)

	tests := []struct {
		name    string
		timeout time.Duration
		want    time.Duration
	}{
		{"explicit", 3 * time.Second, 3 * time.Second},
		{"zero falls back", 0, defaultShutdownTimeout},
		{"negative falls back", -5 * time.Second, defaultShutdownTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := NewHTTPServerService(testinfra.NewHTTPServer(), ":0", tt.timeout)
			if svc.shutdownTimeout != tt.want {
				t.Errorf("shutdownTimeout = %v, want %v", svc.shutdownTimeout, tt.want)
			}
			if svc.String() != "http-server" {
				t.Errorf("String() = %q", svc.String())
			}
		})
	}
}

func TestHTTPServerService_Serve(t *testing.T) {
	t.Parallel()

	errBind := errors.New("listen tcp :8000: bind: address already in use")
	errDrain := errors.New("context deadline exceeded while draining")

	tests := []struct {
		name          string
		listenErr     error
		shutdownErr   error
		wantErr       error
		wantShutdowns int
	}{
		{"drains on cancel", nil, nil, context.Canceled, 1},
		{"bind failure is returned", errBind, nil, errBind, 0},
		{"drain failure is returned", nil, errDrain, errDrain, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := testinfra.NewHTTPServer()
			server.ListenErr = tt.listenErr
			server.ShutdownErr = tt.shutdownErr
			svc := NewHTTPServerService(server, ":8000", time.Second)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			errCh := make(chan error, 1)
			go func() { errCh <- svc.Serve(ctx) }()

			select {
			case <-server.Started:
			case <-time.After(time.Second):
				t.Fatal("server did not start")
			}
			if tt.listenErr == nil {
				cancel()
			}

			select {
			case err := <-errCh:
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Serve() error = %v, want %v", err, tt.wantErr)
				}
			case <-time.After(2 * time.Second):
				t.Fatal("Serve did not return")
			}
			if server.Listens() != 1 {
				t.Errorf("ListenAndServe ran %d times, want 1", server.Listens())
			}
			if server.Shutdowns() != tt.wantShutdowns {
				t.Errorf("Shutdown ran %d times, want %d", server.Shutdowns(), tt.wantShutdowns)
			}
		})
	}
}
