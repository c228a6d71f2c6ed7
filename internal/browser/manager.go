// internal/browser/manager.go
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/voidwalkr/webpilot/internal/config"
)

const shutdownGracePeriod = 15 * time.Second

// Manager owns the browser process lifecycle and hands out isolated
// sessions. Initialization is deferred until the first session is requested.
type Manager struct {
	logger *zap.Logger
	cfg    config.BrowserConfig

	allocCtx    context.Context
	allocCancel context.CancelFunc

	sessions map[string]*chromedpSession
	mu       sync.RWMutex
	wg       sync.WaitGroup // ensures all sessions are closed before the allocator goes away

	initOnce sync.Once
	initErr  error
}

// NewManager creates a browser manager.
func NewManager(cfg config.BrowserConfig, logger *zap.Logger) *Manager {
	m := &Manager{
		logger:   logger.Named("browser_manager"),
		cfg:      cfg,
		sessions: make(map[string]*chromedpSession),
	}
	m.logger.Info("Browser manager created (initialization deferred).")
	return m
}

// initialize builds the shared exec allocator all sessions derive from.
func (m *Manager) initialize() error {
	m.initOnce.Do(func() {
		m.logger.Info("Initializing browser allocator.",
			zap.Bool("headless", m.cfg.Headless),
			zap.Int("viewport_width", m.cfg.ViewportWidth),
			zap.Int("viewport_height", m.cfg.ViewportHeight))

		opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
		opts = append(opts,
			chromedp.Flag("headless", m.cfg.Headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.WindowSize(m.cfg.ViewportWidth, m.cfg.ViewportHeight),
		)
		if m.cfg.IgnoreTLSErrors {
			opts = append(opts, chromedp.Flag("ignore-certificate-errors", true))
		}
		if m.cfg.UserAgent != "" {
			opts = append(opts, chromedp.UserAgent(m.cfg.UserAgent))
		}

		m.allocCtx, m.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	})
	return m.initErr
}

// NewSession creates an isolated browser tab. The caller owns the returned
// session and must Close it.
func (m *Manager) NewSession(ctx context.Context) (Session, error) {
	if err := m.initialize(); err != nil {
		return nil, err
	}

	tabCtx, tabCancel := chromedp.NewContext(m.allocCtx)

	// Starting the target eagerly surfaces launch failures here instead of
	// on the first action.
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		return nil, fmt.Errorf("failed to launch browser tab: %w", err)
	}

	session := newChromedpSession(tabCtx, tabCancel, m.cfg, m.logger)

	m.wg.Add(1)
	session.onClose = func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.sessions, session.ID())
		m.wg.Done()
		m.logger.Debug("Session removed from manager.", zap.String("session_id", session.ID()))
	}

	m.mu.Lock()
	m.sessions[session.ID()] = session
	m.mu.Unlock()

	m.logger.Info("New session created.", zap.String("session_id", session.ID()))
	return session, nil
}

// Shutdown closes all sessions and releases the allocator.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.logger.Info("Shutting down browser manager.")

	if m.allocCtx == nil {
		m.logger.Info("Manager never initialized, nothing to shut down.")
		return nil
	}

	m.mu.RLock()
	sessionsToClose := make([]*chromedpSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessionsToClose = append(sessionsToClose, s)
	}
	m.mu.RUnlock()

	for _, s := range sessionsToClose {
		go func(s *chromedpSession) {
			if err := s.Close(ctx); err != nil {
				m.logger.Warn("Error closing session during shutdown.",
					zap.String("session_id", s.ID()), zap.Error(err))
			}
		}(s)
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	grace := shutdownGracePeriod
	if deadline, ok := ctx.Deadline(); ok {
		grace = time.Until(deadline)
	}
	select {
	case <-done:
		m.logger.Info("All sessions closed gracefully.")
	case <-time.After(grace):
		m.logger.Warn("Timeout waiting for sessions to close, proceeding with forceful shutdown.")
	case <-ctx.Done():
		m.logger.Warn("Shutdown context cancelled, proceeding with forceful shutdown.", zap.Error(ctx.Err()))
	}

	m.allocCancel()
	m.logger.Info("Browser manager shutdown complete.")
	return nil
}
