// Package tlslocal provisions the self-signed localhost certificate behind
// the HTTPS ingress listener. Material persists across runs so browsers only
// need to trust it once.
package tlslocal

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	certFile = "metanet-localhost.pem"
	keyFile  = "metanet-localhost-key.pem"
	derFile  = "metanet-localhost.der"

	commonName = "User Wallet Localhost"
	validity   = 825 * 24 * time.Hour
)

// Ensure loads the localhost certificate persisted under dir, generating
// fresh material when it is missing, unreadable, or outside its validity
// window. The PEM certificate and key plus a DER copy live in
// <dir>/certificates/.
func Ensure(dir string) (tls.Certificate, error) {
	if strings.TrimSpace(dir) == "" {
		return tls.Certificate{}, fmt.Errorf("tlslocal: certificate directory is required")
	}
	certDir := filepath.Join(dir, "certificates")
	if err := os.MkdirAll(certDir, 0o755); err != nil {
		return tls.Certificate{}, fmt.Errorf("tlslocal: create %s: %w", certDir, err)
	}

	certPath := filepath.Join(certDir, certFile)
	keyPath := filepath.Join(certDir, keyFile)
	if cert, err := load(certPath, keyPath); err == nil {
		return cert, nil
	}
	return generate(certPath, keyPath, filepath.Join(certDir, derFile))
}

func load(certPath, keyPath string) (tls.Certificate, error) {
	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return tls.Certificate{}, err
	}
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("tlslocal: parse certificate: %w", err)
	}
	now := time.Now().UTC()
	if now.Before(leaf.NotBefore) || now.After(leaf.NotAfter) {
		return tls.Certificate{}, fmt.Errorf("tlslocal: certificate outside validity window")
	}
	cert.Leaf = leaf
	return cert, nil
}

func generate(certPath, keyPath, derPath string) (tls.Certificate, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("tlslocal: generate key: %w", err)
	}
	serial, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("tlslocal: generate serial: %w", err)
	}

	now := time.Now().UTC()
	template := &x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: commonName},
		NotBefore:    now.Add(-1 * time.Hour),
		NotAfter:     now.Add(validity),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		DNSNames:     []string{"localhost"},
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1"), net.ParseIP("::1")},
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("tlslocal: create certificate: %w", err)
	}
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyBytes, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("tlslocal: marshal key: %w", err)
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyBytes})

	if err := os.WriteFile(certPath, certPEM, 0o644); err != nil {
		return tls.Certificate{}, fmt.Errorf("tlslocal: write certificate: %w", err)
	}
	if err := os.WriteFile(keyPath, keyPEM, 0o600); err != nil {
		return tls.Certificate{}, fmt.Errorf("tlslocal: write key: %w", err)
	}
	if err := os.WriteFile(derPath, der, 0o644); err != nil {
		return tls.Certificate{}, fmt.Errorf("tlslocal: write der copy: %w", err)
	}

	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("tlslocal: assemble keypair: %w", err)
	}
	return cert, nil
}
