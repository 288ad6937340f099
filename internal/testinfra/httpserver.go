// Estatemap - Real Estate Analytics and Recommendation Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatemap

package testinfra

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
)

// HTTPServer stands in for *http.Server under the supervisor. ListenAndServe
// blocks until Shutdown unless ListenErr is set.
type HTTPServer struct {
	ListenErr   error
	ShutdownErr error

	// Started receives once per ListenAndServe call.
	Started chan struct{}

	listens   atomic.Int32
	shutdowns atomic.Int32
	stopOnce  sync.Once
	stopped   chan struct{}
}

// NewHTTPServer returns a server that blocks in ListenAndServe.
func NewHTTPServer() *HTTPServer {
	return &HTTPServer{
		Started: make(chan struct{}, 8),
		stopped: make(chan struct{}),
	}
}

// ListenAndServe records the call and serves until Shutdown.
func (s *HTTPServer) ListenAndServe() error {
	s.listens.Add(1)
	select {
	case s.Started <- struct{}{}:
	default:
	}
	if s.ListenErr != nil {
		return s.ListenErr
	}
	<-s.stopped
	return http.ErrServerClosed
}

// Shutdown unblocks ListenAndServe and returns ShutdownErr.
func (s *HTTPServer) Shutdown(context.Context) error {
	s.shutdowns.Add(1)
	s.stopOnce.Do(func() { close(s.stopped) })
	return s.ShutdownErr
}

// Listens returns how many times ListenAndServe ran.
func (s *HTTPServer) Listens() int { return int(s.listens.Load()) }

// Shutdowns returns how many times Shutdown ran.
func (s *HTTPServer) Shutdowns() int { return int(s.shutdowns.Load()) }
