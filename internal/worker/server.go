package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/dunamismax/memoryflow/internal/config"
	"github.com/dunamismax/memoryflow/internal/domain"
	"github.com/dunamismax/memoryflow/internal/queue"
	"github.com/dunamismax/memoryflow/internal/storage"
	"github.com/dunamismax/memoryflow/internal/store"
	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultThumbnailLongSide = 480

type Thumbnailer interface {
	Compress(ctx context.Context, source []byte, maxLongSide int) (domain.CompressedImage, error)
}

type Server struct {
	logger        *log.Logger
	server        *asynq.Server
	sem           chan struct{}
	thumbnailer   Thumbnailer
	thumbnailSide int
	blobs         storage.BlobStore
	memories      store.MemoryStore
	metrics       *metrics
	tracer        trace.Tracer
}

func NewServer(
	logger *log.Logger,
	queueCfg config.QueueConfig,
	workerCfg config.WorkerConfig,
	thumbnailSide int,
	thumbnailer Thumbnailer,
	blobs storage.BlobStore,
	memories store.MemoryStore,
) (*Server, error) {
	if thumbnailer == nil {
		return nil, fmt.Errorf("thumbnailer is required")
	}
	if blobs == nil || memories == nil {
		return nil, fmt.Errorf("blob store and memory store are required")
	}

	s := newServer(logger, workerCfg.MaxActiveJobs, thumbnailSide, thumbnailer, blobs, memories)
	s.server = asynq.NewServer(
		queueCfg.RedisClientOpt(),
		asynq.Config{
			Concurrency: workerCfg.Concurrency,
			Queues: map[string]int{
				queueCfg.Name: 1,
			},
			LogLevel: asynq.InfoLevel,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				retried, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				logger.Printf("task failed type=%s retry=%d/%d err=%v", task.Type(), retried, maxRetry, err)
			}),
		},
	)
	return s, nil
}

func newServer(logger *log.Logger, maxActive, thumbnailSide int, thumbnailer Thumbnailer, blobs storage.BlobStore, memories store.MemoryStore) *Server {
	if thumbnailSide <= 0 {
		thumbnailSide = defaultThumbnailLongSide
	}
	return &Server{
		logger:        logger,
		sem:           make(chan struct{}, max(1, maxActive)),
		thumbnailer:   thumbnailer,
		thumbnailSide: thumbnailSide,
		blobs:         blobs,
		memories:      memories,
		metrics:       newMetrics(),
		tracer:        otel.Tracer("memoryflow/worker"),
	}
}

func (s *Server) Run() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TypeProcessMemory, s.handleProcessMemory)
	return s.server.Run(mux)
}

func (s *Server) MetricsHandler() http.Handler {
	return s.metrics.Handler()
}

func (s *Server) handleProcessMemory(ctx context.Context, task *asynq.Task) error {
	payload, err := queue.ParseProcessMemoryPayload(task)
	if err != nil {
		return fmt.Errorf("parse payload: %v: %w", err, asynq.SkipRetry)
	}
	return s.process(ctx, payload)
}

func (s *Server) process(ctx context.Context, payload queue.ProcessMemoryPayload) error {
	startedAt := time.Now()
	outcome := domain.MemoryStatusFailed

	ctx, span := s.tracer.Start(ctx, "worker.process_memory", trace.WithSpanKind(trace.SpanKindConsumer))
	span.SetAttributes(
		attribute.String("memory.id", payload.MemoryID),
		attribute.String("memory.object_key", payload.ObjectKey),
	)
	defer span.End()
	defer func() {
		s.metrics.jobDuration.WithLabelValues(outcome).Observe(time.Since(startedAt).Seconds())
		s.metrics.jobsTotal.WithLabelValues(outcome).Inc()
	}()

	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	s.metrics.activeJobs.Inc()
	defer func() {
		<-s.sem
		s.metrics.activeJobs.Dec()
	}()

	s.logger.Printf("processing memory_id=%s object_key=%s queued_for=%s",
		payload.MemoryID, payload.ObjectKey, startedAt.Sub(payload.ReceivedAt).Round(time.Millisecond))
	s.updateStatus(ctx, payload.MemoryID, domain.MemoryStatusProcessing)

	thumbnailKey, bytes, err := s.renderThumbnail(ctx, payload)
	if err != nil {
		s.updateStatus(ctx, payload.MemoryID, domain.MemoryStatusFailed)
		span.RecordError(err)
		span.SetStatus(codes.Error, "thumbnail failed")
		if errors.Is(err, domain.ErrDecode) || errors.Is(err, storage.ErrObjectNotFound) {
			return fmt.Errorf("render thumbnail: %v: %w", err, asynq.SkipRetry)
		}
		return fmt.Errorf("render thumbnail: %w", err)
	}

	if _, err := s.memories.SetThumbnail(ctx, payload.MemoryID, thumbnailKey); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "record thumbnail failed")
		if errors.Is(err, store.ErrMemoryNotFound) {
			return fmt.Errorf("record thumbnail: %v: %w", err, asynq.SkipRetry)
		}
		return fmt.Errorf("record thumbnail: %w", err)
	}

	outcome = domain.MemoryStatusReady
	s.metrics.thumbnailBytesTotal.Add(float64(bytes))
	s.logger.Printf("memory ready memory_id=%s thumbnail=%s bytes=%d", payload.MemoryID, thumbnailKey, bytes)
	span.SetStatus(codes.Ok, "processed")
	return nil
}

func (s *Server) renderThumbnail(ctx context.Context, payload queue.ProcessMemoryPayload) (string, int, error) {
	original, err := s.blobs.ReadObject(ctx, payload.ObjectKey)
	if err != nil {
		return "", 0, fmt.Errorf("read original: %w", err)
	}

	thumbnail, err := s.thumbnailer.Compress(ctx, original, s.thumbnailSide)
	if err != nil {
		return "", 0, err
	}

	key := storage.ThumbnailKey(payload.MemoryID)
	if err := s.blobs.WriteObject(ctx, key, thumbnail.Data, thumbnail.ContentType); err != nil {
		return "", 0, fmt.Errorf("write thumbnail: %w", err)
	}
	return key, len(thumbnail.Data), nil
}

func (s *Server) updateStatus(ctx context.Context, memoryID, status string) {
	if _, err := s.memories.UpdateStatus(ctx, memoryID, status); err != nil {
		s.logger.Printf("memory status update failed memory_id=%s status=%s err=%v", memoryID, status, err)
	}
}
