package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/qrscan/qrscan/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer() *Server {
	cfg := config.DefaultConfig()
	cfg.Server.MaxUploadMB = 1
	return New(cfg)
}

func TestHandleHealthz(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()

	s.router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestHandleDecode_RejectsUndecodableBody(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/decode", bytes.NewReader([]byte("not an image")))
	w := httptest.NewRecorder()

	s.router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestHandleDecode_RejectsOversizedBody(t *testing.T) {
	s := newTestServer()
	oversized := bytes.Repeat([]byte{0xFF}, 2<<20)
	req := httptest.NewRequest(http.MethodPost, "/decode", bytes.NewReader(oversized))
	w := httptest.NewRecorder()

	s.router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateConfig_SwapsActiveConfig(t *testing.T) {
	s := newTestServer()
	updated := config.DefaultConfig()
	updated.Server.Port = 1234
	s.UpdateConfig(updated)
	require.Equal(t, 1234, s.cfg.Server.Port)
}
