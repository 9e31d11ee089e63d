/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package checker

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"math"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/GERONlMO/pingtower/pkg/logger"
	"github.com/GERONlMO/pingtower/pkg/models"
)

const (
	defaultTLSTimeout = 5 * time.Second
	defaultTLSPort    = 443

	statusTextValid    = "Valid"
	statusTextExpired  = "Expired"
	statusTextExpiring = "Expiring"
	statusTextError    = "Error"
)

var (
	errNoPeerCertificates = errors.New("no peer certificates presented")
	errNotTLSConn         = errors.New("dialer returned a non-TLS connection")
)

// TLSStrategy inspects the certificate served by an endpoint and reports how
// many days remain before it expires.
type TLSStrategy struct {
	roots  *x509.CertPool
	now    func() time.Time
	logger logger.Logger
}

// NewTLSStrategy creates the strategy. A nil roots pool uses the system pool.
func NewTLSStrategy(roots *x509.CertPool, log logger.Logger) *TLSStrategy {
	return &TLSStrategy{roots: roots, now: time.Now, logger: log}
}

// Execute implements Strategy.
func (s *TLSStrategy) Execute(ctx context.Context, check *models.CheckDefinition) *models.CheckResult {
	start := time.Now()

	host, port, err := tlsTarget(check.Config)
	if err != nil {
		return models.FailedResult(start, 0, statusTextError, models.ClassInvalidConfig, err.Error())
	}

	timeout := timeoutFrom(check.Config, defaultTLSTimeout)

	leaf, err := s.fetchLeaf(ctx, host, port, timeout)
	if err != nil {
		s.logger.Warn().Err(err).Str("check_id", check.ID).Str("host", host).Msg("TLS check failed")

		return models.FailedResult(start, 0, statusTextError, models.ClassTLSError, err.Error())
	}

	days := daysUntil(leaf.NotAfter, s.now())
	criticalDays := check.Config.Int(keyCriticalDays, 0)
	latency := time.Since(start).Milliseconds()

	result := &models.CheckResult{
		LatencyMs:        latency,
		SSLExpiresInDays: models.IntPtr(days),
	}

	switch {
	case days <= 0:
		result.StatusText = statusTextExpired
		result.ErrorMessage = "SSL certificate has expired."
		result.Classification = models.ClassTLSExpiring
	case days <= criticalDays:
		result.StatusText = statusTextExpiring
		result.ErrorMessage = fmt.Sprintf("SSL certificate expires in %d days (critical threshold %d).", days, criticalDays)
		result.Classification = models.ClassTLSExpiring
	default:
		result.Success = true
		result.StatusText = statusTextValid
		result.Classification = models.ClassOK
	}

	result.Details = "Expires on: " + leaf.NotAfter.UTC().Format(time.RFC1123)

	return result
}

// fetchLeaf completes a handshake and returns the verified leaf certificate.
// Chain and hostname are checked at a time inside the validity window so an
// expired certificate is still reported with its day count.
func (s *TLSStrategy) fetchLeaf(ctx context.Context, host string, port int, timeout time.Duration) (*x509.Certificate, error) {
	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: timeout},
		Config: &tls.Config{
			ServerName: host,
			//nolint:gosec // verification is done below against the validity window
			InsecureSkipVerify: true,
			MinVersion:         tls.VersionTLS12,
		},
	}

	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := dialer.DialContext(dialCtx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, fmt.Errorf("handshake with %s:%d: %w", host, port, err)
	}

	defer func() { _ = conn.Close() }()

	tlsConn, ok := conn.(*tls.Conn)
	if !ok {
		return nil, errNotTLSConn
	}

	certs := tlsConn.ConnectionState().PeerCertificates
	if len(certs) == 0 {
		return nil, errNoPeerCertificates
	}

	leaf := certs[0]

	intermediates := x509.NewCertPool()
	for _, c := range certs[1:] {
		intermediates.AddCert(c)
	}

	if _, err := leaf.Verify(x509.VerifyOptions{
		DNSName:       host,
		Roots:         s.roots,
		Intermediates: intermediates,
		CurrentTime:   clampToValidity(s.now(), leaf),
	}); err != nil {
		return nil, fmt.Errorf("verify certificate: %w", err)
	}

	return leaf, nil
}

func clampToValidity(now time.Time, cert *x509.Certificate) time.Time {
	if now.Before(cert.NotBefore) {
		return cert.NotBefore
	}

	if now.After(cert.NotAfter) {
		return cert.NotAfter
	}

	return now
}

// daysUntil returns the whole days from now until t, rounded down.
func daysUntil(t, now time.Time) int {
	return int(math.Floor(t.Sub(now).Hours() / 24))
}

// tlsTarget resolves host and port from url, or from explicit host/port keys.
func tlsTarget(cfg models.CheckConfig) (string, int, error) {
	if raw := cfg.String(keyURL); raw != "" {
		if !strings.Contains(raw, "://") {
			raw = "https://" + raw
		}

		u, err := url.Parse(raw)
		if err != nil {
			return "", 0, fmt.Errorf("parse url: %w", err)
		}

		if u.Hostname() == "" {
			return "", 0, errMissingHost
		}

		port := defaultTLSPort

		if p := u.Port(); p != "" {
			port, err = strconv.Atoi(p)
			if err != nil {
				return "", 0, fmt.Errorf("parse port: %w", err)
			}
		}

		return u.Hostname(), port, nil
	}

	host := cfg.String(keyHost)
	if host == "" {
		return "", 0, errMissingHost
	}

	return host, cfg.Int(keyPort, defaultTLSPort), nil
}
