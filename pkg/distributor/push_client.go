package distributor

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"eunomia-hq/eunomia/pkg/eerrors"
	sectls "eunomia-hq/eunomia/pkg/security/tls"
)

// pushPath is the fixed endpoint an instance exposes to receive a bundle.
const pushPath = "/v1/policy/bundle"

// MTLSPushClient is a Pusher that delivers bundles over mutual TLS,
// presenting a client certificate so the receiving instance can identify
// the control plane as the caller.
type MTLSPushClient struct {
	client *http.Client
}

// NewMTLSPushClient builds a push client presenting certFile/keyFile as
// its client certificate and trusting caFile to verify instance server
// certificates. If certFile/keyFile/caFile are all empty, the returned
// client uses plain TLS (no client cert, system root trust) for
// instances that do not require mTLS.
func NewMTLSPushClient(certFile, keyFile, caFile string, handshakeTimeout time.Duration) (*MTLSPushClient, error) {
	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS13}

	if certFile != "" || keyFile != "" {
		cert, err := tls.LoadX509KeyPair(certFile, keyFile)
		if err != nil {
			return nil, fmt.Errorf("load push client certificate: %w", err)
		}
		if err := sectls.ValidateCertificate(&cert); err != nil {
			return nil, fmt.Errorf("push client certificate: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	if caFile != "" {
		pem, err := os.ReadFile(caFile)
		if err != nil {
			return nil, fmt.Errorf("read instance CA: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("parse instance CA: %s", caFile)
		}
		tlsConfig.RootCAs = pool
	}

	if handshakeTimeout <= 0 {
		handshakeTimeout = 10 * time.Second
	}

	transport := &http.Transport{
		TLSClientConfig:     tlsConfig,
		TLSHandshakeTimeout: handshakeTimeout,
	}

	return &MTLSPushClient{client: &http.Client{Transport: transport}}, nil
}

// Push delivers archive to inst's bundle endpoint. Network failures and
// 5xx responses are transient; 4xx responses are permanent (the instance
// rejected the bundle and retrying unchanged bytes will not help).
func (c *MTLSPushClient) Push(ctx context.Context, inst Instance, archive []byte) error {
	scheme := "http"
	if inst.TLS {
		scheme = "https"
	}
	url := fmt.Sprintf("%s://%s%s", scheme, inst.Endpoint, pushPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(archive))
	if err != nil {
		return &eerrors.DistributeError{InstanceID: inst.ID, Transient: false, Reason: "build request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/vnd.eunomia.bundle+gzip")

	resp, err := c.client.Do(req)
	if err != nil {
		return &eerrors.DistributeError{InstanceID: inst.ID, Transient: true, Reason: "request failed", Cause: err}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 500:
		return &eerrors.DistributeError{InstanceID: inst.ID, Transient: true, Reason: fmt.Sprintf("instance returned %d", resp.StatusCode)}
	default:
		return &eerrors.DistributeError{InstanceID: inst.ID, Transient: false, Reason: fmt.Sprintf("instance returned %d", resp.StatusCode)}
	}
}
