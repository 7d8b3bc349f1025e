package cert

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// CertificateConfig describes the self-signed client certificate the
// generator produces. The strict OPC UA client profile keeps the SAN to a
// single URI matching the ApplicationURI.
type CertificateConfig struct {
	CommonName     string
	Organization   string
	ApplicationURI string
	ValidityDays   int
	KeySize        int
}

// DefaultConfig returns the defaults used when the UI asks for a new
// certificate without customizing anything.
func DefaultConfig() *CertificateConfig {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "opcua-client"
	}
	return &CertificateConfig{
		CommonName:     "UaScope",
		Organization:   "UaScope",
		ApplicationURI: fmt.Sprintf("urn:%s:uascope", hostname),
		ValidityDays:   3650,
		KeySize:        2048,
	}
}

// StoragePath returns the directory where generated certificates live,
// creating it if needed.
func StoragePath() (string, error) {
	baseDir := "/tmp/uascope"
	if homeDir, err := os.UserHomeDir(); err == nil {
		baseDir = filepath.Join(homeDir, ".uascope")
	}
	certDir := filepath.Join(baseDir, "certificates")
	if err := os.MkdirAll(certDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create certificate directory: %w", err)
	}
	return certDir, nil
}

// GenerateSelfSignedCertificateFiles creates a self-signed client certificate
// and RSA key and returns the written DER cert and PKCS#1 key paths.
func GenerateSelfSignedCertificateFiles(config *CertificateConfig) (certPath, keyPath string, err error) {
	if config == nil {
		config = DefaultConfig()
	}
	dir, err := StoragePath()
	if err != nil {
		return "", "", err
	}

	key, err := rsa.GenerateKey(rand.Reader, config.KeySize)
	if err != nil {
		return "", "", fmt.Errorf("generate key: %w", err)
	}

	serial := make([]byte, 16)
	if _, err := rand.Read(serial); err != nil {
		return "", "", fmt.Errorf("generate serial: %w", err)
	}

	// NotBefore backdated to absorb clock skew between client and server.
	now := time.Now().UTC().Add(-5 * time.Minute)
	tmpl := &x509.Certificate{
		SerialNumber: new(big.Int).SetBytes(serial),
		Subject: pkix.Name{
			CommonName:   config.CommonName,
			Organization: []string{config.Organization},
		},
		NotBefore:             now,
		NotAfter:              now.Add(time.Duration(config.ValidityDays) * 24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth, x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		SignatureAlgorithm:    x509.SHA256WithRSA,
	}
	if uri := strings.TrimSpace(config.ApplicationURI); uri != "" {
		if u, err := url.Parse(uri); err == nil {
			tmpl.URIs = []*url.URL{u}
		}
	}
	if pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey); err == nil {
		sum := sha1.Sum(pubDER)
		tmpl.SubjectKeyId = sum[:]
		tmpl.AuthorityKeyId = sum[:]
	}

	certDER, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		return "", "", fmt.Errorf("create self-signed cert: %w", err)
	}

	certPath = filepath.Join(dir, "client.der")
	keyPath = filepath.Join(dir, "client.key")
	if err := os.WriteFile(certPath, certDER, 0644); err != nil {
		return "", "", fmt.Errorf("write client.der: %w", err)
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	if err := os.WriteFile(keyPath, keyPEM, 0600); err != nil {
		return "", "", fmt.Errorf("write client.key: %w", err)
	}
	return certPath, keyPath, nil
}

// ValidateCertificateFiles checks that the certificate and key files parse,
// that the certificate is within its validity window, and that the key
// matches the certificate's public key.
func ValidateCertificateFiles(certPath, keyPath string) error {
	certData, err := os.ReadFile(certPath)
	if err != nil {
		return fmt.Errorf("failed to read certificate file: %w", err)
	}
	cert, err := parseCertificate(certData)
	if err != nil {
		return err
	}

	now := time.Now()
	if now.Before(cert.NotBefore) {
		return fmt.Errorf("certificate is not yet valid (valid from %v)", cert.NotBefore)
	}
	if now.After(cert.NotAfter) {
		return fmt.Errorf("certificate has expired (expired on %v)", cert.NotAfter)
	}

	keyData, err := os.ReadFile(keyPath)
	if err != nil {
		return fmt.Errorf("failed to read private key file: %w", err)
	}
	block, _ := pem.Decode(keyData)
	if block == nil {
		return fmt.Errorf("failed to decode PEM block from private key")
	}

	var privateKey *rsa.PrivateKey
	switch block.Type {
	case "RSA PRIVATE KEY":
		privateKey, err = x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return fmt.Errorf("failed to parse private key: %w", err)
		}
	case "PRIVATE KEY":
		keyInterface, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return fmt.Errorf("failed to parse PKCS8 private key: %w", err)
		}
		var ok bool
		privateKey, ok = keyInterface.(*rsa.PrivateKey)
		if !ok {
			return fmt.Errorf("private key is not RSA")
		}
	default:
		return fmt.Errorf("unsupported private key type: %s", block.Type)
	}

	certPublicKey, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return fmt.Errorf("certificate does not contain RSA public key")
	}
	if privateKey.PublicKey.N.Cmp(certPublicKey.N) != 0 || privateKey.PublicKey.E != certPublicKey.E {
		return fmt.Errorf("private key does not match certificate public key")
	}
	return nil
}

// GetCertificateInfo returns human readable information about a certificate.
func GetCertificateInfo(certPath string) (string, error) {
	certData, err := os.ReadFile(certPath)
	if err != nil {
		return "", fmt.Errorf("failed to read certificate file: %w", err)
	}
	cert, err := parseCertificate(certData)
	if err != nil {
		return "", err
	}

	var info strings.Builder
	info.WriteString(fmt.Sprintf("Subject: %s\n", cert.Subject.String()))
	info.WriteString(fmt.Sprintf("Valid from: %s\n", cert.NotBefore.Format("2006-01-02 15:04:05")))
	info.WriteString(fmt.Sprintf("Valid until: %s\n", cert.NotAfter.Format("2006-01-02 15:04:05")))
	info.WriteString(fmt.Sprintf("Serial Number: %s\n", cert.SerialNumber.String()))
	if len(cert.URIs) > 0 {
		uris := make([]string, 0, len(cert.URIs))
		for _, uri := range cert.URIs {
			uris = append(uris, uri.String())
		}
		info.WriteString(fmt.Sprintf("URIs: %s\n", strings.Join(uris, ", ")))
	}
	return info.String(), nil
}

// parseCertificate accepts either a PEM or raw DER encoded certificate.
func parseCertificate(data []byte) (*x509.Certificate, error) {
	der := data
	if blk, _ := pem.Decode(data); blk != nil && blk.Type == "CERTIFICATE" {
		der = blk.Bytes
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificate: %w", err)
	}
	return cert, nil
}
