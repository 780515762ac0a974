package worker

import (
	"context"
	"sync"
	"time"

	"faceclock/domain/repositories"
	"faceclock/domain/services"
	"faceclock/pkg/logger"
)

// GalleryWarmer keeps the cached descriptor gallery populated so the first
// identification after an enrollment change or a Redis restart doesn't pay
// the rebuild cost. Identification still rebuilds lazily on a cache miss;
// the warmer only makes that miss rare.
type GalleryWarmer struct {
	recognition  services.RecognitionService
	galleryCache repositories.DescriptorCache

	// Worker control
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	isRunning bool
	mu        sync.Mutex

	checkInterval time.Duration
}

// NewGalleryWarmer creates a warmer that re-checks the gallery at half the
// gallery TTL, so a complete snapshot never lapses between checks.
func NewGalleryWarmer(
	recognition services.RecognitionService,
	galleryCache repositories.DescriptorCache,
	galleryTTL time.Duration,
) *GalleryWarmer {
	interval := galleryTTL / 2
	if interval < time.Minute {
		interval = time.Minute
	}

	return &GalleryWarmer{
		recognition:   recognition,
		galleryCache:  galleryCache,
		checkInterval: interval,
	}
}

// Start starts the warmer loop
func (w *GalleryWarmer) Start() {
	w.mu.Lock()
	if w.isRunning {
		w.mu.Unlock()
		return
	}
	w.isRunning = true
	w.ctx, w.cancel = context.WithCancel(context.Background())
	w.mu.Unlock()

	w.wg.Add(1)
	go w.run()

	logger.Startup("gallery_warmer_started", "Gallery warmer started", map[string]interface{}{
		"check_interval": w.checkInterval.String(),
	})
}

// Stop stops the warmer gracefully
func (w *GalleryWarmer) Stop() {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return
	}
	w.isRunning = false
	w.mu.Unlock()

	w.cancel()
	w.wg.Wait()
	logger.Startup("gallery_warmer_stopped", "Gallery warmer stopped", nil)
}

// IsRunning returns whether the warmer is running
func (w *GalleryWarmer) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.isRunning
}

func (w *GalleryWarmer) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.checkInterval)
	defer ticker.Stop()

	// Warm immediately on start
	w.warm()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.warm()
		}
	}
}

// warm rebuilds the gallery when the cached snapshot is gone or
// incomplete. A failure is logged and retried on the next tick; the lazy
// rebuild path covers identification in the meantime.
func (w *GalleryWarmer) warm() {
	ctx, cancel := context.WithTimeout(w.ctx, 30*time.Second)
	defer cancel()

	_, complete, err := w.galleryCache.GetGallery(ctx)
	if err == nil && complete {
		return
	}
	if err != nil {
		logger.CacheWarn("gallery_warm_check", "Gallery completeness check failed", err, nil)
	}

	count, err := w.recognition.RebuildGallery(ctx)
	if err != nil {
		logger.CacheWarn("gallery_warm_rebuild", "Gallery rebuild failed", err, nil)
		return
	}

	logger.Cache("gallery_warmed", "Gallery rebuilt by warmer", map[string]interface{}{
		"persons": count,
	})
}
