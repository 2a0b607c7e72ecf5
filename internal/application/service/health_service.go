package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"textembedder/internal/application/common/slogger"
	"textembedder/internal/application/dto"
	"textembedder/internal/port/outbound"
	"textembedder/internal/version"

	"golang.org/x/sync/errgroup"
)

// Dependency names reported by GetHealth.
const (
	CheckIndex       = "index"
	CheckObjectStore = "object_store"
	CheckQueue       = "queue"
	CheckStatusStore = "status_store"
	CheckEmbedding   = "embedding"
)

// HealthProbeText is embedded on every health check.
const HealthProbeText = "healthcheck"

const defaultCheckTimeout = 5 * time.Second

// Pinger is a dependency that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthDependencies lists what GetHealth probes. Nil entries are not reported.
type HealthDependencies struct {
	Index        outbound.VectorIndex
	ObjectStore  Pinger
	Queue        Pinger
	StatusStore  Pinger
	Embedder     outbound.EmbeddingService
	CheckTimeout time.Duration
}

// HealthService probes every dependency concurrently.
type HealthService struct {
	deps HealthDependencies
}

// NewHealthService creates a new HealthService instance.
func NewHealthService(deps HealthDependencies) *HealthService {
	if deps.CheckTimeout <= 0 {
		deps.CheckTimeout = defaultCheckTimeout
	}
	return &HealthService{deps: deps}
}

// GetHealth runs all checks and never fails: a failing dependency turns the
// overall status to degraded and is described in its check entry.
func (s *HealthService) GetHealth(ctx context.Context) (*dto.HealthResponse, error) {
	checks := make(map[string]string)
	var mu sync.Mutex
	record := func(name, result string) {
		mu.Lock()
		checks[name] = result
		mu.Unlock()
	}

	var g errgroup.Group
	run := func(name string, check func(context.Context) string) {
		g.Go(func() error {
			checkCtx, cancel := context.WithTimeout(ctx, s.deps.CheckTimeout)
			defer cancel()
			record(name, check(checkCtx))
			return nil
		})
	}

	if s.deps.Index != nil {
		run(CheckIndex, s.checkIndex)
	}
	if s.deps.ObjectStore != nil {
		run(CheckObjectStore, pingCheck(CheckObjectStore, s.deps.ObjectStore))
	}
	if s.deps.Queue != nil {
		run(CheckQueue, pingCheck(CheckQueue, s.deps.Queue))
	}
	if s.deps.StatusStore != nil {
		run(CheckStatusStore, pingCheck(CheckStatusStore, s.deps.StatusStore))
	}
	if s.deps.Embedder != nil {
		run(CheckEmbedding, s.checkEmbedding)
	}
	_ = g.Wait()

	status := dto.HealthStatusOK
	for _, result := range checks {
		if !strings.HasPrefix(result, dto.CheckOK) {
			status = dto.HealthStatusDegraded
			break
		}
	}

	return &dto.HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Version:   version.Get().Short(),
		Checks:    checks,
	}, nil
}

func (s *HealthService) checkIndex(ctx context.Context) string {
	exists, err := s.deps.Index.Exists(ctx)
	if err != nil {
		return failedCheck(ctx, CheckIndex, err)
	}
	if !exists {
		return dto.CheckMissingIndex
	}
	return dto.CheckOK
}

func (s *HealthService) checkEmbedding(ctx context.Context) string {
	vector, err := s.deps.Embedder.Embed(ctx, HealthProbeText)
	if err != nil {
		return failedCheck(ctx, CheckEmbedding, err)
	}
	if len(vector) == 0 {
		return dto.CheckUnexpected
	}
	return fmt.Sprintf("%s (dim=%d)", dto.CheckOK, len(vector))
}

func pingCheck(name string, p Pinger) func(context.Context) string {
	return func(ctx context.Context) string {
		if err := p.Ping(ctx); err != nil {
			return failedCheck(ctx, name, err)
		}
		return dto.CheckOK
	}
}

func failedCheck(ctx context.Context, name string, err error) string {
	slogger.Warn(ctx, "Health check failed", slogger.Fields{
		"dependency": name,
		"error":      err.Error(),
	})
	return dto.CheckErrorPrefix + err.Error()
}
