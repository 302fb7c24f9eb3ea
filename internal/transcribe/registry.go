package transcribe

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"subgen/internal/logging"
)

// Registry memoizes successful model loads per tier. Loading the same
// tier twice reuses the cached handle; distinct tiers load independently
// and may load concurrently. Failed loads are not cached, so the next
// request retries.
type Registry struct {
	backend Backend
	lockDir string
	logger  *slog.Logger

	mu    sync.Mutex
	tiers map[Tier]*tierSlot
}

type tierSlot struct {
	mu     sync.Mutex
	handle ModelHandle
}

// NewRegistry wraps backend. When lockDir is non-empty, the first load of
// each tier is guarded by a file lock so concurrent processes do not
// fetch the same model weights twice.
func NewRegistry(backend Backend, lockDir string, logger *slog.Logger) *Registry {
	return &Registry{
		backend: backend,
		lockDir: lockDir,
		logger:  logging.NewComponentLogger(logger, "transcribe"),
		tiers:   make(map[Tier]*tierSlot),
	}
}

// Load returns the cached handle for tier, loading it on first use.
func (r *Registry) Load(ctx context.Context, tier Tier) (ModelHandle, error) {
	slot := r.slot(tier)

	slot.mu.Lock()
	defer slot.mu.Unlock()

	if slot.handle != nil {
		return slot.handle, nil
	}

	release, err := r.acquireLoadLock(ctx, tier)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelLoad, err)
	}
	defer release()

	started := time.Now()
	handle, err := r.backend.LoadModel(ctx, tier)
	if err != nil {
		return nil, err
	}
	slot.handle = handle

	r.logger.Info("model loaded",
		logging.String("tier", string(tier)),
		logging.Duration("elapsed", time.Since(started)))

	return handle, nil
}

func (r *Registry) slot(tier Tier) *tierSlot {
	r.mu.Lock()
	defer r.mu.Unlock()
	slot, ok := r.tiers[tier]
	if !ok {
		slot = &tierSlot{}
		r.tiers[tier] = slot
	}
	return slot
}

// acquireLoadLock takes a per-tier file lock when a lock directory is
// configured. The returned release function is always safe to call.
func (r *Registry) acquireLoadLock(ctx context.Context, tier Tier) (func(), error) {
	if r.lockDir == "" {
		return func() {}, nil
	}
	if err := os.MkdirAll(r.lockDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure lock directory: %w", err)
	}
	lock := flock.New(filepath.Join(r.lockDir, fmt.Sprintf("model-%s.lock", tier)))
	if _, err := lock.TryLockContext(ctx, 250*time.Millisecond); err != nil {
		return nil, fmt.Errorf("acquire model lock for tier %q: %w", tier, err)
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			r.logger.Warn("model lock release failed",
				logging.String(logging.FieldEventType, "model_lock_release_failed"),
				logging.String("tier", string(tier)),
				logging.Error(err))
		}
	}, nil
}
