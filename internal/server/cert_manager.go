package server

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"sync"
	"time"

	"resumescreen/internal/config"
	"resumescreen/internal/errors"
	"resumescreen/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// CertMetrics tracks certificate reload statistics
type CertMetrics struct {
	ReloadCount        int64
	ReloadSuccessCount int64
	ReloadFailureCount int64
	LastReloadTime     time.Time
	LastReloadSuccess  bool
	LastReloadError    string
}

// ReloadCallback is invoked after every certificate reload attempt
type ReloadCallback func(success bool, err error)

// CertManager owns the server certificate: it loads the keypair, serves
// it to the TLS stack, and hot-reloads it when the files change on disk.
type CertManager struct {
	mu sync.RWMutex

	tlsConfig *config.TLSConfig
	current   *tls.Certificate
	leaf      *x509.Certificate

	fileWatcher *CertWatcher
	metrics     CertMetrics
	callbacks   []ReloadCallback

	om     *observability.ObservabilityManager
	logger *errors.Logger
}

// NewCertManager creates a certificate manager for the given TLS configuration
func NewCertManager(tlsConfig *config.TLSConfig, om *observability.ObservabilityManager, logger *errors.Logger) *CertManager {
	return &CertManager{
		tlsConfig: tlsConfig,
		om:        om,
		logger:    logger,
	}
}

// Start loads the initial certificate and begins watching the
// certificate files when auto-reload is enabled. Content-based
// certificates (loaded from Vault) have no files to watch.
func (cm *CertManager) Start() error {
	if err := cm.loadCertificate(); err != nil {
		return fmt.Errorf("failed to load initial certificate: %w", err)
	}

	if !cm.tlsConfig.AutoReload.Enabled {
		return nil
	}
	if cm.tlsConfig.CertFile == "" || cm.tlsConfig.KeyFile == "" {
		if cm.logger != nil {
			cm.logger.Info("Certificate auto-reload skipped: certificates are content-based")
		}
		return nil
	}

	watcher := NewCertWatcher(
		cm.tlsConfig.CertFile,
		cm.tlsConfig.KeyFile,
		cm.tlsConfig.CAFile,
		cm.tlsConfig.AutoReload.DebounceDelay,
		cm.Reload,
		cm.logger,
	)
	if err := watcher.Start(); err != nil {
		return fmt.Errorf("failed to start certificate watcher: %w", err)
	}
	cm.fileWatcher = watcher

	return nil
}

// Stop stops the certificate watcher if it is running
func (cm *CertManager) Stop() error {
	if cm.fileWatcher != nil {
		return cm.fileWatcher.Stop()
	}
	return nil
}

// AddReloadCallback registers a callback invoked after each reload attempt
func (cm *CertManager) AddReloadCallback(cb ReloadCallback) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, cb)
}

// GetServerCertificate returns the current certificate for a TLS handshake
func (cm *CertManager) GetServerCertificate(_ *tls.ClientHelloInfo) (*tls.Certificate, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	if cm.current == nil {
		return nil, fmt.Errorf("no server certificate loaded")
	}
	return cm.current, nil
}

// CheckExpiry returns the time remaining until the current certificate expires
func (cm *CertManager) CheckExpiry() (time.Duration, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	if cm.leaf == nil {
		return 0, fmt.Errorf("no server certificate loaded")
	}
	return time.Until(cm.leaf.NotAfter), nil
}

// GetMetrics returns a snapshot of the reload statistics
func (cm *CertManager) GetMetrics() CertMetrics {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.metrics
}

// FileWatcher returns the underlying file watcher, nil when not watching
func (cm *CertManager) FileWatcher() *CertWatcher {
	return cm.fileWatcher
}

// Reload reloads the certificate from its configured source
func (cm *CertManager) Reload() {
	err := cm.loadCertificate()

	cm.mu.Lock()
	cm.metrics.ReloadCount++
	cm.metrics.LastReloadTime = time.Now()
	cm.metrics.LastReloadSuccess = err == nil
	if err != nil {
		cm.metrics.ReloadFailureCount++
		cm.metrics.LastReloadError = err.Error()
	} else {
		cm.metrics.ReloadSuccessCount++
		cm.metrics.LastReloadError = ""
	}
	callbacks := append([]ReloadCallback(nil), cm.callbacks...)
	cm.mu.Unlock()

	cm.recordReloadMetrics(err == nil)

	for _, cb := range callbacks {
		cb(err == nil, err)
	}
}

// loadCertificate loads the keypair from content or files and parses the leaf
func (cm *CertManager) loadCertificate() error {
	var cert tls.Certificate
	var err error

	if cm.tlsConfig.CertContent != "" && cm.tlsConfig.KeyContent != "" {
		cert, err = tls.X509KeyPair([]byte(cm.tlsConfig.CertContent), []byte(cm.tlsConfig.KeyContent))
		if err != nil {
			return fmt.Errorf("failed to load server cert/key from content: %w", err)
		}
	} else if cm.tlsConfig.CertFile != "" && cm.tlsConfig.KeyFile != "" {
		cert, err = tls.LoadX509KeyPair(cm.tlsConfig.CertFile, cm.tlsConfig.KeyFile)
		if err != nil {
			return fmt.Errorf("failed to load server cert/key from files: %w", err)
		}
	} else {
		return fmt.Errorf("TLS certificate and key are required (provide either files or content)")
	}

	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return fmt.Errorf("failed to parse server certificate: %w", err)
	}

	cm.mu.Lock()
	cm.current = &cert
	cm.leaf = leaf
	cm.mu.Unlock()

	return nil
}

// recordReloadMetrics publishes reload and expiry metrics
func (cm *CertManager) recordReloadMetrics(success bool) {
	if cm.om == nil {
		return
	}
	metrics := cm.om.GetMetrics()
	ctx := context.Background()

	if metrics.CertReloadCount != nil {
		metrics.CertReloadCount.Add(ctx, 1, metric.WithAttributes(
			attribute.Bool("success", success),
		))
	}
	if metrics.CertExpiryTime != nil && success {
		if timeToExpiry, err := cm.CheckExpiry(); err == nil {
			metrics.CertExpiryTime.Record(ctx, timeToExpiry.Seconds())
		}
	}
}
