package distributor

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"eunomia-hq/eunomia/pkg/audit"
	sectls "eunomia-hq/eunomia/pkg/security/tls"
)

// HealthCheckRequest is what an instance reports to the control plane on
// its periodic check-in.
type HealthCheckRequest struct {
	InstanceID    string `json:"instance_id"`
	Service       string `json:"service"`
	PolicyVersion string `json:"policy_version"`
	Healthy       bool   `json:"healthy"`
	Reason        string `json:"reason,omitempty"`
}

// ControlPlaneConfig configures the health-check listener.
type ControlPlaneConfig struct {
	ListenAddress   string
	CertFile        string
	KeyFile         string
	ClientCAFile    string
	IdentitySource  string // "subject.CN", "subject.OU", "subject.O", or "SAN"
	AllowedIdentity func(identity string) bool
	ShutdownTimeout time.Duration
	Audit           audit.Sink // optional; records authorization_decision events instances pass through

	// InstanceCache, if set, is updated with each instance's reported
	// policy version on every health check-in.
	InstanceCache audit.InstanceCacheStore

	// CertReloadInterval, if positive, starts a background watcher that
	// reloads CertFile/KeyFile from disk when they change, so the server
	// certificate can be renewed without restarting the control plane.
	CertReloadInterval time.Duration
}

// ControlPlane is the HTTP listener instances call back into with health
// check-ins. It authenticates callers by their mTLS client certificate
// identity before recording anything in the tracker.
type ControlPlane struct {
	cfg        ControlPlaneConfig
	tracker    *HealthTracker
	httpServer *http.Server

	mu           sync.RWMutex
	isRunning    bool
	shutdownOnce sync.Once
}

// NewControlPlane builds a ControlPlane reporting check-ins into tracker.
func NewControlPlane(cfg ControlPlaneConfig, tracker *HealthTracker) *ControlPlane {
	return &ControlPlane{cfg: cfg, tracker: tracker}
}

// Start runs the HTTPS listener until ctx is cancelled, then shuts down
// gracefully.
func (cp *ControlPlane) Start(ctx context.Context) error {
	cp.mu.Lock()
	if cp.isRunning {
		cp.mu.Unlock()
		return fmt.Errorf("control plane is already running")
	}
	cp.isRunning = true
	cp.mu.Unlock()

	tlsConfig, err := cp.buildTLSConfig()
	if err != nil {
		return fmt.Errorf("configure control plane TLS: %w", err)
	}

	certFile, keyFile := cp.cfg.CertFile, cp.cfg.KeyFile
	if cp.cfg.CertReloadInterval > 0 {
		reloader := sectls.NewCertificateReloader(cp.cfg.CertFile, cp.cfg.KeyFile, cp.cfg.CertReloadInterval)
		if err := reloader.Start(ctx); err != nil {
			return fmt.Errorf("load control plane certificate: %w", err)
		}
		tlsConfig.GetCertificate = reloader.GetCertificateFunc()
		certFile, keyFile = "", ""
	}

	cp.httpServer = &http.Server{
		Addr:         cp.cfg.ListenAddress,
		Handler:      cp.routes(),
		TLSConfig:    tlsConfig,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		slog.Info("starting control plane listener", "address", cp.cfg.ListenAddress)
		if err := cp.httpServer.ListenAndServeTLS(certFile, keyFile); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("control plane listener error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		return cp.Shutdown(context.Background())
	case err := <-errChan:
		return err
	}
}

// Shutdown gracefully stops the listener.
func (cp *ControlPlane) Shutdown(ctx context.Context) error {
	var shutdownErr error
	cp.shutdownOnce.Do(func() {
		cp.mu.Lock()
		if !cp.isRunning {
			cp.mu.Unlock()
			return
		}
		cp.mu.Unlock()

		timeout := cp.cfg.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		if cp.httpServer != nil {
			if err := cp.httpServer.Shutdown(shutdownCtx); err != nil {
				shutdownErr = fmt.Errorf("control plane shutdown: %w", err)
			}
		}

		cp.mu.Lock()
		cp.isRunning = false
		cp.mu.Unlock()
	})
	return shutdownErr
}

// IsRunning reports whether the listener is currently serving.
func (cp *ControlPlane) IsRunning() bool {
	cp.mu.RLock()
	defer cp.mu.RUnlock()
	return cp.isRunning
}

// DecisionReport is an authorization_decision event an enforcement
// instance passes through to the control plane for central auditing.
type DecisionReport struct {
	InstanceID string         `json:"instance_id"`
	Service    string         `json:"service"`
	Version    string         `json:"version"`
	Digest     string         `json:"digest"`
	Allow      bool           `json:"allow"`
	Rule       string         `json:"rule,omitempty"`
	Context    map[string]any `json:"context,omitempty"`
}

func (cp *ControlPlane) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/health/checkin", cp.handleCheckin)
	mux.HandleFunc("/v1/audit/decision", cp.handleDecision)
	return mux
}

func (cp *ControlPlane) handleCheckin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	identity := sectls.GetClientIdentity(r, cp.cfg.IdentitySource)
	if cp.cfg.AllowedIdentity != nil && !cp.cfg.AllowedIdentity(identity) {
		http.Error(w, "identity not allowed", http.StatusForbidden)
		return
	}

	var req HealthCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed check-in body", http.StatusBadRequest)
		return
	}
	if req.InstanceID == "" {
		http.Error(w, "instance_id is required", http.StatusBadRequest)
		return
	}

	if req.Healthy {
		cp.tracker.ReportSuccess(req.InstanceID, req.PolicyVersion)
	} else {
		cp.tracker.ReportFailure(req.InstanceID)
	}

	if cp.cfg.InstanceCache != nil && req.PolicyVersion != "" {
		go func() {
			if err := cp.cfg.InstanceCache.UpdateInstanceVersion(context.Background(), audit.InstanceVersionRecord{
				Service:    req.Service,
				InstanceID: req.InstanceID,
				Version:    req.PolicyVersion,
				UpdatedAt:  time.Now(),
			}); err != nil {
				slog.Warn("failed to update instance version cache", "instance_id", req.InstanceID, "error", err)
			}
		}()
	}

	w.WriteHeader(http.StatusNoContent)
}

func (cp *ControlPlane) handleDecision(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	identity := sectls.GetClientIdentity(r, cp.cfg.IdentitySource)
	if cp.cfg.AllowedIdentity != nil && !cp.cfg.AllowedIdentity(identity) {
		http.Error(w, "identity not allowed", http.StatusForbidden)
		return
	}

	var report DecisionReport
	if err := json.NewDecoder(r.Body).Decode(&report); err != nil {
		http.Error(w, "malformed decision report", http.StatusBadRequest)
		return
	}

	if cp.cfg.Audit != nil {
		ctxFields := report.Context
		if ctxFields == nil {
			ctxFields = map[string]any{}
		}
		ctxFields["allow"] = report.Allow
		ctxFields["rule"] = report.Rule
		if err := cp.cfg.Audit.Log(r.Context(), audit.Event{
			Kind:      audit.EventAuthorizationDecision,
			Service:   report.Service,
			Version:   report.Version,
			Digest:    report.Digest,
			Actor:     report.InstanceID,
			Timestamp: time.Now(),
			Context:   ctxFields,
		}); err != nil {
			http.Error(w, "failed to record decision", http.StatusInternalServerError)
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

func (cp *ControlPlane) buildTLSConfig() (*tls.Config, error) {
	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS13,
		ClientAuth: tls.RequestClientCert,
	}

	if cp.cfg.ClientCAFile != "" {
		pem, err := os.ReadFile(cp.cfg.ClientCAFile)
		if err != nil {
			return nil, fmt.Errorf("read control plane client CA: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("parse control plane client CA: %s", cp.cfg.ClientCAFile)
		}
		tlsConfig.ClientCAs = pool
		tlsConfig.ClientAuth = tls.RequireAndVerifyClientCert
	}

	return tlsConfig, nil
}
