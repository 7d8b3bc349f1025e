package opc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeFillsDefaults(t *testing.T) {
	cfg := &Config{EndpointURL: "opc.tcp://localhost:4840"}
	require.NoError(t, cfg.Normalize())
	assert.Equal(t, DefaultGraphWindow, cfg.GraphWindow)
	assert.Equal(t, DefaultGraphIntervalMS, cfg.GraphIntervalMS)
	assert.Equal(t, 500*time.Millisecond, cfg.GraphInterval())
}

func TestNormalizeKeepsExplicitSettings(t *testing.T) {
	cfg := &Config{GraphWindow: 250, GraphIntervalMS: 100}
	require.NoError(t, cfg.Normalize())
	assert.Equal(t, 250, cfg.GraphWindow)
	assert.Equal(t, 100*time.Millisecond, cfg.GraphInterval())
}

func TestNormalizeRejectsNegativeValues(t *testing.T) {
	cfg := &Config{GraphWindow: -5}
	assert.Error(t, cfg.Normalize())

	cfg = &Config{GraphIntervalMS: -1}
	assert.Error(t, cfg.Normalize())
}

func TestNormalizePolicyShortNames(t *testing.T) {
	tests := []struct {
		policy string
		mode   string
		want   string
	}{
		{"", "", "None"},
		{"Auto", "None", "None"},
		{"None", "Sign", "None"},
		{"Basic256Sha256", "Sign", "http://opcfoundation.org/UA/SecurityPolicy#Basic256Sha256"},
		{"basic128rsa15", "Sign", "http://opcfoundation.org/UA/SecurityPolicy#Basic128Rsa15"},
		{"Basic256", "SignAndEncrypt", "http://opcfoundation.org/UA/SecurityPolicy#Basic256"},
		{"http://opcfoundation.org/UA/SecurityPolicy#Basic256", "Sign", "http://opcfoundation.org/UA/SecurityPolicy#Basic256"},
	}
	for _, tc := range tests {
		got, err := normalizePolicy(tc.policy, tc.mode)
		require.NoError(t, err, "policy %q mode %q", tc.policy, tc.mode)
		assert.Equal(t, tc.want, got)
	}
}

func TestNormalizePolicyRequiredForSecureMode(t *testing.T) {
	_, err := normalizePolicy("Auto", "Sign")
	assert.Error(t, err)

	_, err = normalizePolicy("NotAPolicy", "Sign")
	assert.Error(t, err)
}

func TestNormalizeMode(t *testing.T) {
	for _, in := range []string{"", "Auto", "None"} {
		got, err := normalizeMode(in)
		require.NoError(t, err)
		assert.Equal(t, "None", got)
	}

	got, err := normalizeMode("sign")
	require.NoError(t, err)
	assert.Equal(t, "Sign", got)

	got, err = normalizeMode("SignAndEncrypt")
	require.NoError(t, err)
	assert.Equal(t, "SignAndEncrypt", got)

	_, err = normalizeMode("Encrypt")
	assert.Error(t, err)
}

func TestToOpcuaOptionsAnonymousNone(t *testing.T) {
	cfg := &Config{
		EndpointURL:    "opc.tcp://localhost:4840",
		SecurityPolicy: "Auto",
		SecurityMode:   "Auto",
		AuthMode:       "Anonymous",
		SessionTimeout: 30,
		ConnectTimeout: 5,
	}
	opts, err := cfg.ToOpcuaOptions()
	require.NoError(t, err)
	assert.NotEmpty(t, opts)
}

func TestToOpcuaOptionsRejectsUnknownAuthMode(t *testing.T) {
	cfg := &Config{EndpointURL: "opc.tcp://localhost:4840", AuthMode: "Kerberos"}
	_, err := cfg.ToOpcuaOptions()
	assert.Error(t, err)
}

func TestToOpcuaOptionsRejectsSecureModeWithoutPolicy(t *testing.T) {
	cfg := &Config{EndpointURL: "opc.tcp://localhost:4840", SecurityMode: "Sign"}
	_, err := cfg.ToOpcuaOptions()
	assert.Error(t, err)
}

func TestEnsureCertificatesRequiresBothPaths(t *testing.T) {
	cfg := &Config{}
	assert.NoError(t, cfg.EnsureCertificates())

	cfg = &Config{CertFile: "/tmp/only-cert.der"}
	assert.Error(t, cfg.EnsureCertificates())

	cfg = &Config{KeyFile: "/tmp/only-key.pem"}
	assert.Error(t, cfg.EnsureCertificates())
}
