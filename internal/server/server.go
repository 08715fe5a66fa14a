// Package server exposes qrscan's decode pipeline over HTTP.
package server

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/qrscan/qrscan"
	"github.com/qrscan/qrscan/binarizer"
	"github.com/qrscan/qrscan/internal/config"

	_ "github.com/qrscan/qrscan/qrcode"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/singleflight"
)

// Server serves the qrscan HTTP API: POST /decode, GET /metrics, GET /healthz.
type Server struct {
	cfg      *config.Config
	reader   *qrscan.MultiFormatReader
	dedup    singleflight.Group
	httpSrv  *http.Server
	listener net.Listener
	wg       sync.WaitGroup
	startWG  sync.WaitGroup
}

// New creates a Server bound to the given configuration. Configuration
// changes pushed by config.Loader.WatchConfig are applied via UpdateConfig.
func New(cfg *config.Config) *Server {
	return &Server{
		cfg:    cfg,
		reader: qrscan.NewMultiFormatReader(),
	}
}

// UpdateConfig swaps in a newly reloaded configuration. Safe to call while
// the server is running; in-flight requests keep using their own copy.
func (s *Server) UpdateConfig(cfg *config.Config) {
	s.cfg = cfg
}

func (s *Server) router() http.Handler {
	r := mux.NewRouter()
	r.Handle("/decode", instrument("/decode", http.HandlerFunc(s.handleDecode))).Methods(http.MethodPost)
	r.Handle("/healthz", instrument("/healthz", http.HandlerFunc(s.handleHealthz))).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return r
}

func instrument(endpoint string, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		h.ServeHTTP(sw, req)
		httpRequestsTotal.WithLabelValues(req.Method, endpoint, fmt.Sprintf("%d", sw.status)).Inc()
		httpRequestDuration.WithLabelValues(req.Method, endpoint).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

type decodeResponse struct {
	Results []resultDTO `json:"results"`
}

type resultDTO struct {
	Text string `json:"text"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	maxBytes := int64(s.cfg.Server.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		decodeRequestsTotal.WithLabelValues("error").Inc()
		http.Error(w, "body too large or unreadable", http.StatusBadRequest)
		return
	}

	digest := sha256.Sum256(body)
	key := hex.EncodeToString(digest[:])

	resultAny, err, shared := s.dedup.Do(key, func() (interface{}, error) {
		return s.decode(body)
	})
	if shared {
		dedupedRequestsTotal.Inc()
	}
	if err != nil {
		status := http.StatusUnprocessableEntity
		if err == qrscan.ErrNotFound {
			decodeRequestsTotal.WithLabelValues("not_found").Inc()
		} else {
			decodeRequestsTotal.WithLabelValues("error").Inc()
		}
		http.Error(w, err.Error(), status)
		return
	}

	decodeRequestsTotal.WithLabelValues("ok").Inc()
	results := resultAny.([]*qrscan.Result)
	symbolsPerImage.Observe(float64(len(results)))

	resp := decodeResponse{Results: make([]resultDTO, len(results))}
	for i, res := range results {
		resp.Results[i] = resultDTO{Text: res.Text}
		if corrected, ok := res.Metadata[qrscan.MetadataErrorsCorrected].(int); ok {
			errorsCorrectedTotal.Observe(float64(corrected))
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) decode(body []byte) ([]*qrscan.Result, error) {
	start := time.Now()
	defer func() { decodeDuration.Observe(time.Since(start).Seconds()) }()

	img, _, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	source := qrscan.NewImageLuminanceSource(img)
	bitmap := qrscan.NewBinaryBitmap(binarizer.NewHybrid(source, s.cfg.Prepare.BlockSize, s.cfg.Prepare.BlockWindow))
	opts := &qrscan.DecodeOptions{
		TryHarder:      s.cfg.Detect.TryHarder,
		StrictMode:     s.cfg.Decode.StrictMode,
		CharacterSet:   s.cfg.Decode.CharacterSet,
		RatioTolerance: s.cfg.Detect.RatioTolerance,
	}

	result, err := s.reader.Decode(bitmap, opts)
	if err != nil {
		return nil, err
	}
	return []*qrscan.Result{result}, nil
}

// Serve starts the HTTP server in a background goroutine and returns once it
// is listening, or returns the error that kept it from listening. Use Stop to
// shut it down gracefully.
func (s *Server) Serve() error {
	if s.listener != nil {
		panic("second Server.Serve call for the same server")
	}
	s.wg.Add(1)
	s.startWG.Add(1)
	errCh := make(chan error, 1)
	go s.serveGoroutine(errCh)
	s.startWG.Wait()
	if s.listener == nil {
		return <-errCh
	}
	return nil
}

func (s *Server) serveGoroutine(errCh chan error) {
	defer s.wg.Done()

	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.httpSrv = &http.Server{
		Addr:         addr,
		Handler:      s.router(),
		ReadTimeout:  time.Duration(s.cfg.Server.TimeoutSec) * time.Second,
		WriteTimeout: time.Duration(s.cfg.Server.TimeoutSec) * time.Second,
	}

	lsn, err := net.Listen("tcp", addr)
	if err != nil {
		s.startWG.Done()
		errCh <- err
		return
	}
	s.listener = lsn
	slog.Info("qrscan server started", slog.String("addr", addr))
	s.startWG.Done()

	if err := s.httpSrv.Serve(lsn); err != nil && err != http.ErrServerClosed {
		slog.Error("server stopped", slog.Any("error", err))
	}
}

// Stop gracefully shuts down the server, waiting for in-flight requests to
// finish until ctx is done.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	err := s.httpSrv.Shutdown(ctx)
	s.wg.Wait()
	return err
}
