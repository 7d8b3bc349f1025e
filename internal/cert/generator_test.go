package cert

import (
	"crypto/x509"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateCertificate(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	certPath, keyPath, err := GenerateSelfSignedCertificateFiles(nil)
	require.NoError(t, err)
	require.FileExists(t, certPath)
	require.FileExists(t, keyPath)

	assert.NoError(t, ValidateCertificateFiles(certPath, keyPath))
}

func TestGeneratedCertificateCarriesApplicationURI(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.ApplicationURI = "urn:testhost:uascope"
	certPath, _, err := GenerateSelfSignedCertificateFiles(cfg)
	require.NoError(t, err)

	data, err := os.ReadFile(certPath)
	require.NoError(t, err)
	parsed, err := x509.ParseCertificate(data)
	require.NoError(t, err)

	require.Len(t, parsed.URIs, 1)
	assert.Equal(t, "urn:testhost:uascope", parsed.URIs[0].String())
	assert.Contains(t, parsed.ExtKeyUsage, x509.ExtKeyUsageClientAuth)
}

func TestValidateRejectsMismatchedKey(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	certPath, _, err := GenerateSelfSignedCertificateFiles(nil)
	require.NoError(t, err)

	// A fresh key pair does not match the first certificate.
	t.Setenv("HOME", t.TempDir())
	_, otherKeyPath, err := GenerateSelfSignedCertificateFiles(nil)
	require.NoError(t, err)

	assert.Error(t, ValidateCertificateFiles(certPath, otherKeyPath))
}

func TestGetCertificateInfo(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	certPath, _, err := GenerateSelfSignedCertificateFiles(nil)
	require.NoError(t, err)

	info, err := GetCertificateInfo(certPath)
	require.NoError(t, err)
	assert.Contains(t, info, "Subject:")
	assert.Contains(t, info, "Valid until:")
}
