package opc

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gopcua/opcua"

	"uascope/internal/cert"
)

// Config holds the connection parameters for the OPC UA client plus the
// graph polling settings the UI persists between runs.
type Config struct {
	EndpointURL    string  `json:"endpoint_url"`
	SecurityPolicy string  `json:"security_policy,omitempty"`
	SecurityMode   string  `json:"security_mode,omitempty"`
	AuthMode       string  `json:"auth_mode,omitempty"` // "Anonymous" or "Username"
	Username       string  `json:"username,omitempty"`
	Password       string  `json:"password,omitempty"`
	CertFile       string  `json:"cert_file,omitempty"`
	KeyFile        string  `json:"key_file,omitempty"`
	ApplicationURI string  `json:"application_uri,omitempty"`
	SessionTimeout uint32  `json:"session_timeout,omitempty"` // seconds
	ConnectTimeout float64 `json:"connect_timeout,omitempty"` // seconds
	AutoConnect    bool    `json:"auto_connect,omitempty"`

	ApiPort    string `json:"api_port,omitempty"`
	ApiEnabled bool   `json:"api_enabled,omitempty"`

	// GraphWindow is the number of samples each scalar channel retains.
	GraphWindow int `json:"graph_window,omitempty"`
	// GraphIntervalMS is the poll period for both graph timers.
	GraphIntervalMS int `json:"graph_interval_ms,omitempty"`
}

const (
	DefaultGraphWindow     = 100
	DefaultGraphIntervalMS = 500
)

// Normalize fills in defaults for unset graph settings and rejects values a
// running graph could not honor.
func (c *Config) Normalize() error {
	if c.GraphWindow == 0 {
		c.GraphWindow = DefaultGraphWindow
	}
	if c.GraphIntervalMS == 0 {
		c.GraphIntervalMS = DefaultGraphIntervalMS
	}
	if c.GraphWindow < 1 {
		return fmt.Errorf("graph window must be at least 1 sample, got %d", c.GraphWindow)
	}
	if c.GraphIntervalMS < 1 {
		return fmt.Errorf("graph interval must be at least 1ms, got %d", c.GraphIntervalMS)
	}
	return nil
}

// GraphInterval returns the poll period as a duration.
func (c *Config) GraphInterval() time.Duration {
	return time.Duration(c.GraphIntervalMS) * time.Millisecond
}

// ToOpcuaOptions converts the Config into the option slice used to
// initialize the opcua.Client.
func (c *Config) ToOpcuaOptions() ([]opcua.Option, error) {
	var opts []opcua.Option

	appURI := c.ApplicationURI
	if appURI == "" {
		if hn, err := os.Hostname(); err == nil && hn != "" {
			appURI = fmt.Sprintf("urn:%s:uascope", hn)
		} else {
			appURI = "urn:uascope:client"
		}
	}

	if c.SessionTimeout > 0 {
		opts = append(opts, opcua.SessionTimeout(time.Duration(c.SessionTimeout)*time.Second))
	}
	if c.ConnectTimeout > 0 {
		opts = append(opts, opcua.DialTimeout(time.Duration(c.ConnectTimeout * float64(time.Second))))
	}

	pol, err := normalizePolicy(c.SecurityPolicy, c.SecurityMode)
	if err != nil {
		return nil, err
	}
	mode, err := normalizeMode(c.SecurityMode)
	if err != nil {
		return nil, err
	}
	opts = append(opts, opcua.SecurityPolicy(pol))
	opts = append(opts, opcua.SecurityModeString(mode))

	if mode != "None" && c.CertFile != "" && c.KeyFile != "" {
		key, certDER, certAppURI, err := loadClientCertificate(c.CertFile, c.KeyFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, opcua.PrivateKey(key))
		opts = append(opts, opcua.Certificate(certDER))
		if certAppURI != "" {
			// Application URI must match the certificate SAN or the
			// server rejects the secure channel.
			appURI = certAppURI
		}
	}

	opts = append(opts, opcua.ApplicationURI(appURI))
	opts = append(opts, opcua.SessionName(appURI))

	switch strings.ToLower(strings.TrimSpace(c.AuthMode)) {
	case "username":
		opts = append(opts, opcua.AuthUsername(c.Username, c.Password))
	case "anonymous", "":
		opts = append(opts, opcua.AuthAnonymous())
	default:
		return nil, fmt.Errorf("unsupported authentication mode: %s", c.AuthMode)
	}

	return opts, nil
}

func normalizePolicy(policy, mode string) (string, error) {
	pol := strings.ReplaceAll(strings.TrimSpace(policy), " ", "")
	switch strings.ToLower(pol) {
	case "", "auto":
		m := strings.ToLower(strings.TrimSpace(mode))
		if m == "" || m == "auto" || m == "none" {
			return "None", nil
		}
		return "", fmt.Errorf("security policy required for mode %s", mode)
	case "none":
		return "None", nil
	case "basic128rsa15":
		return "http://opcfoundation.org/UA/SecurityPolicy#Basic128Rsa15", nil
	case "basic256":
		return "http://opcfoundation.org/UA/SecurityPolicy#Basic256", nil
	case "basic256sha256":
		return "http://opcfoundation.org/UA/SecurityPolicy#Basic256Sha256", nil
	case "aes128_sha256_rsaoaep", "aes128sha256rsaoaep":
		return "http://opcfoundation.org/UA/SecurityPolicy#Aes128_Sha256_RsaOaep", nil
	case "aes256_sha256_rsapss", "aes256sha256rsapss":
		return "http://opcfoundation.org/UA/SecurityPolicy#Aes256_Sha256_RsaPss", nil
	default:
		if strings.HasPrefix(strings.ToLower(pol), "http") {
			return pol, nil
		}
		return "", fmt.Errorf("unsupported security policy: %s", policy)
	}
}

func normalizeMode(mode string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "auto", "none":
		return "None", nil
	case "sign":
		return "Sign", nil
	case "signandencrypt":
		return "SignAndEncrypt", nil
	default:
		return "", fmt.Errorf("unsupported security mode: %s", mode)
	}
}

// loadClientCertificate reads a PEM or DER key/cert pair and returns the RSA
// key, the DER certificate, and the ApplicationURI from the certificate SAN.
func loadClientCertificate(certFile, keyFile string) (*rsa.PrivateKey, []byte, string, error) {
	keyBytes, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to read key file: %w", err)
	}
	keyDER := keyBytes
	if b, _ := pem.Decode(keyBytes); b != nil {
		keyDER = b.Bytes
	}
	var rsaKey *rsa.PrivateKey
	if k1, err := x509.ParsePKCS1PrivateKey(keyDER); err == nil {
		rsaKey = k1
	} else if k8, err := x509.ParsePKCS8PrivateKey(keyDER); err == nil {
		rk, ok := k8.(*rsa.PrivateKey)
		if !ok {
			return nil, nil, "", fmt.Errorf("private key is not RSA: %T", k8)
		}
		rsaKey = rk
	} else {
		return nil, nil, "", fmt.Errorf("failed to parse private key as PKCS#1 or PKCS#8")
	}

	certBytes, err := os.ReadFile(certFile)
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to read certificate file: %w", err)
	}
	certDER := certBytes
	if b, _ := pem.Decode(certBytes); b != nil && b.Type == "CERTIFICATE" {
		certDER = b.Bytes
	}
	leaf, err := x509.ParseCertificate(certDER)
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to parse certificate: %w", err)
	}

	appURI := ""
	if len(leaf.URIs) > 0 && leaf.URIs[0] != nil {
		appURI = leaf.URIs[0].String()
	}
	return rsaKey, certDER, appURI, nil
}

// EnsureCertificates validates the configured certificate files. Generation
// is explicit via the UI, never implicit here.
func (c *Config) EnsureCertificates() error {
	if c.CertFile == "" && c.KeyFile == "" {
		return nil
	}
	if c.CertFile == "" || c.KeyFile == "" {
		return fmt.Errorf("both certificate and key paths must be set or both empty")
	}
	if err := cert.ValidateCertificateFiles(c.CertFile, c.KeyFile); err != nil {
		return fmt.Errorf("invalid certificate files: %w", err)
	}
	return nil
}

// GetCertificateInfo returns a human readable summary of the configured
// client certificate.
func (c *Config) GetCertificateInfo() (string, error) {
	if c.CertFile == "" {
		return "No certificate file configured", nil
	}
	return cert.GetCertificateInfo(c.CertFile)
}
