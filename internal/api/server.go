package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dunamismax/memoryflow/internal/caption"
	"github.com/dunamismax/memoryflow/internal/domain"
	"github.com/dunamismax/memoryflow/internal/id"
	"github.com/dunamismax/memoryflow/internal/normalize"
	"github.com/dunamismax/memoryflow/internal/queue"
	"github.com/dunamismax/memoryflow/internal/remote"
	"github.com/dunamismax/memoryflow/internal/storage"
	"github.com/dunamismax/memoryflow/internal/store"
	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultMaxUploadBytes = 25 << 20
	multipartMemoryBytes  = 8 << 20
	signatureMaxSkew      = 5 * time.Minute
)

type Options struct {
	MaxUploadBytes int64
	// SigningSecret, when set, requires every upload to carry a valid
	// timestamped HMAC signature.
	SigningSecret string
	RateLimiter   RateLimiter
}

type Server struct {
	logger         *log.Logger
	queueClient    queueEnqueuer
	memories       store.MemoryStore
	blobs          storage.BlobStore
	maxUploadBytes int64
	signingSecret  string
	rateLimiter    RateLimiter
	metrics        *metrics
	tracer         trace.Tracer
	mux            *http.ServeMux
	now            func() time.Time
}

type queueEnqueuer interface {
	EnqueueProcessMemory(ctx context.Context, payload queue.ProcessMemoryPayload) (*asynq.TaskInfo, error)
}

func NewServer(logger *log.Logger, queueClient queueEnqueuer, memories store.MemoryStore, blobs storage.BlobStore, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}

	s := &Server{
		logger:         logger,
		queueClient:    queueClient,
		memories:       memories,
		blobs:          blobs,
		maxUploadBytes: opts.MaxUploadBytes,
		signingSecret:  opts.SigningSecret,
		rateLimiter:    opts.RateLimiter,
		metrics:        newMetrics(),
		tracer:         otel.Tracer("memoryflow/api"),
		mux:            http.NewServeMux(),
		now:            time.Now,
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.metrics.withHTTPMetrics(s.withTracing(s.withRateLimit(s.mux)))
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.HandleFunc("POST /v1/memories", s.handleUpload)
	s.mux.HandleFunc("GET /v1/memories/{id}", s.handleGetMemory)
	s.mux.Handle("GET /metrics", s.metrics.metricsHandler())
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type uploadAck struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	ID    string `json:"id,omitempty"`
}

func reject(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, uploadAck{OK: false, Error: detail})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	outcome := outcomeRejected
	defer func() {
		s.metrics.uploads.WithLabelValues(outcome).Inc()
	}()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxUploadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			reject(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		reject(w, http.StatusBadRequest, "could not read upload")
		return
	}

	if s.signingSecret != "" {
		if err := s.verifySignature(r, body); err != nil {
			s.logger.Printf("signature rejected remote=%s err=%v", clientAddress(r), err)
			reject(w, http.StatusUnauthorized, err.Error())
			return
		}
	}

	r.Body = io.NopCloser(bytes.NewReader(body))
	if err := r.ParseMultipartForm(multipartMemoryBytes); err != nil {
		reject(w, http.StatusBadRequest, "expected multipart form")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		reject(w, http.StatusBadRequest, "file is required")
		return
	}
	data, err := io.ReadAll(file)
	_ = file.Close()
	if err != nil || len(data) == 0 {
		reject(w, http.StatusBadRequest, "file is empty")
		return
	}

	format, width, height, err := normalize.Probe(data)
	if err != nil {
		reject(w, http.StatusUnsupportedMediaType, "file is not a supported image")
		return
	}

	text, _ := caption.Limit(caption.Trim(r.FormValue("caption")))
	now := s.now().UTC()
	memoryID := id.New()
	memory := domain.Memory{
		ID:        memoryID,
		Status:    domain.MemoryStatusReceived,
		Caption:   text,
		Filename:  filepath.Base(header.Filename),
		ObjectKey: storage.OriginalKey(memoryID),
		Width:     width,
		Height:    height,
		Bytes:     len(data),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.blobs.WriteObject(r.Context(), memory.ObjectKey, data, "image/"+format); err != nil {
		s.logger.Printf("write original failed memory_id=%s err=%v", memoryID, err)
		outcome = outcomeError
		reject(w, http.StatusInternalServerError, "failed to store upload")
		return
	}
	if err := s.memories.Create(r.Context(), memory); err != nil {
		s.logger.Printf("create memory failed memory_id=%s err=%v", memoryID, err)
		outcome = outcomeError
		reject(w, http.StatusInternalServerError, "failed to record upload")
		return
	}

	info, err := s.queueClient.EnqueueProcessMemory(r.Context(), queue.ProcessMemoryPayload{
		MemoryID:   memoryID,
		ObjectKey:  memory.ObjectKey,
		ReceivedAt: now,
	})
	if err != nil {
		s.logger.Printf("enqueue failed memory_id=%s err=%v", memoryID, err)
		if _, statusErr := s.memories.UpdateStatus(r.Context(), memoryID, domain.MemoryStatusFailed); statusErr != nil {
			s.logger.Printf("status update failed memory_id=%s err=%v", memoryID, statusErr)
		}
		outcome = outcomeError
		reject(w, http.StatusInternalServerError, "failed to schedule processing")
		return
	}
	outcome = outcomeAccepted
	s.metrics.queueEnqueued.WithLabelValues(info.Queue).Inc()
	s.metrics.uploadBytes.Observe(float64(len(data)))

	s.logger.Printf("memory received memory_id=%s bytes=%d size=%dx%d caption_len=%d", memoryID, len(data), width, height, len([]rune(text)))
	writeJSON(w, http.StatusOK, uploadAck{OK: true, ID: memoryID})
}

func (s *Server) verifySignature(r *http.Request, body []byte) error {
	timestamp := strings.TrimSpace(r.Header.Get(remote.HeaderTimestamp))
	signature := strings.TrimSpace(r.Header.Get(remote.HeaderSignature))
	if timestamp == "" || signature == "" {
		return errors.New("missing signature")
	}
	unix, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return errors.New("invalid signature timestamp")
	}
	if skew := s.now().Sub(time.Unix(unix, 0)); skew > signatureMaxSkew || skew < -signatureMaxSkew {
		return errors.New("signature expired")
	}
	if !remote.Verify(s.signingSecret, timestamp, body, signature) {
		return errors.New("invalid signature")
	}
	return nil
}

func (s *Server) handleGetMemory(w http.ResponseWriter, r *http.Request) {
	memoryID := r.PathValue("id")
	if !id.Valid(memoryID) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid memory id"})
		return
	}

	memory, ok, err := s.memories.Get(r.Context(), memoryID)
	if err != nil {
		s.logger.Printf("fetch memory failed memory_id=%s err=%v", memoryID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load memory"})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "memory not found"})
		return
	}
	writeJSON(w, http.StatusOK, memory)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
