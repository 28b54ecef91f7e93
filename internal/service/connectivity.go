package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Pinger is the slice of the document store the monitor needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ConnectivityMonitor is the single source of truth for whether the remote
// store is reachable. It probes on an interval and also accepts hints from
// callers that just watched a request fail, so the queue can start catching
// writes before the next probe tick.
type ConnectivityMonitor struct {
	pinger   Pinger
	interval time.Duration
	logger   *zap.Logger

	mu          sync.Mutex
	online      bool
	subscribers map[int]func(online bool)
	nextSubID   int

	cancel context.CancelFunc
	done   chan struct{}
}

// NewConnectivityMonitor starts optimistic: the first probe corrects the
// assumption within one interval.
func NewConnectivityMonitor(pinger Pinger, interval time.Duration, logger *zap.Logger) *ConnectivityMonitor {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConnectivityMonitor{
		pinger:      pinger,
		interval:    interval,
		logger:      logger,
		online:      true,
		subscribers: make(map[int]func(bool)),
	}
}

// Online reports the last observed reachability.
func (m *ConnectivityMonitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Subscribe registers a listener invoked on every online/offline transition
// and returns its detach function.
func (m *ConnectivityMonitor) Subscribe(fn func(online bool)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSubID
	m.nextSubID++
	m.subscribers[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subscribers, id)
	}
}

// ReportOffline records a failed remote call immediately instead of waiting
// for the next probe.
func (m *ConnectivityMonitor) ReportOffline() {
	m.setOnline(false)
}

// ReportOnline records a successful remote call.
func (m *ConnectivityMonitor) ReportOnline() {
	m.setOnline(true)
}

// Start launches the probe loop. It returns immediately; Stop shuts the
// loop down.
func (m *ConnectivityMonitor) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})

	go func() {
		defer close(m.done)
		m.probe(ctx)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.probe(ctx)
			}
		}
	}()
}

// Stop cancels the probe loop and waits for it to exit.
func (m *ConnectivityMonitor) Stop() {
	if m.cancel != nil {
		m.cancel()
		<-m.done
	}
}

func (m *ConnectivityMonitor) probe(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, m.interval)
	defer cancel()

	if err := m.pinger.Ping(probeCtx); err != nil {
		m.logger.Debug("remote store unreachable", zap.Error(err))
		m.setOnline(false)
		return
	}
	m.setOnline(true)
}

func (m *ConnectivityMonitor) setOnline(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	listeners := make([]func(bool), 0, len(m.subscribers))
	for _, fn := range m.subscribers {
		listeners = append(listeners, fn)
	}
	m.mu.Unlock()

	if online {
		m.logger.Info("remote store reachable again")
	} else {
		m.logger.Warn("remote store went offline")
	}
	for _, notify := range listeners {
		notify(online)
	}
}
