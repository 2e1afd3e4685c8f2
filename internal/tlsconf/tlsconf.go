// Package tlsconf derives TLS credentials for the daemon from its shared
// token, so remote clients need nothing but the token to connect securely.
//
// The private key is deterministic: both sides derive the same ECDSA P-256
// key from the token, the daemon wraps it in a throwaway self-signed
// certificate, and clients accept the connection only if the certificate's
// public key equals the one they derived. There is no CA and no certificate
// to distribute; a client holding the wrong token fails the handshake.
//
//	HKDF-SHA256(ikm=token, salt="clipmgr-tls-v1", info="p256-key")
//	→ 64 bytes → reduced into [1, N-1] → ECDSA P-256 scalar
package tlsconf

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"fmt"
	"io"
	"math/big"
	"time"

	"golang.org/x/crypto/hkdf"
	"google.golang.org/grpc/credentials"
)

// DefaultPassphrase keys TLS when the daemon runs without a token.
const DefaultPassphrase = "clipmgr"

// serverName is presented in the certificate and requested by clients.
const serverName = "clipmgr"

var errKeyMismatch = errors.New("tlsconf: server public key does not match token")

// Keys holds the key pair derived from one token.
type Keys struct {
	priv *ecdsa.PrivateKey
	pub  []byte // PKIX encoding of priv.PublicKey
}

// Derive computes the Keys for passphrase. An empty passphrase uses
// DefaultPassphrase.
func Derive(passphrase string) (*Keys, error) {
	if passphrase == "" {
		passphrase = DefaultPassphrase
	}
	priv, err := deriveKey(passphrase)
	if err != nil {
		return nil, fmt.Errorf("tlsconf: derive key: %w", err)
	}
	pub, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("tlsconf: marshal public key: %w", err)
	}
	return &Keys{priv: priv, pub: pub}, nil
}

// ServerConfig returns a server *tls.Config presenting a fresh self-signed
// certificate for k. ALPN offers h2 and http/1.1 so gRPC and the HTTP gateway
// can share a listener.
func (k *Keys) ServerConfig() (*tls.Config, error) {
	der, err := selfSignedCert(k.priv)
	if err != nil {
		return nil, fmt.Errorf("tlsconf: cert: %w", err)
	}
	return &tls.Config{
		Certificates: []tls.Certificate{{Certificate: [][]byte{der}, PrivateKey: k.priv}},
		NextProtos:   []string{"h2", "http/1.1"},
		MinVersion:   tls.VersionTLS13,
	}, nil
}

// ClientConfig returns a client *tls.Config that only accepts a server whose
// certificate carries k's public key.
func (k *Keys) ClientConfig() *tls.Config {
	return &tls.Config{
		// Chain verification is replaced by the public key check below.
		InsecureSkipVerify:    true, //nolint:gosec
		ServerName:            serverName,
		MinVersion:            tls.VersionTLS13,
		VerifyPeerCertificate: k.verify,
	}
}

// ClientCredentials wraps ClientConfig for gRPC dialing.
func (k *Keys) ClientCredentials() credentials.TransportCredentials {
	return credentials.NewTLS(k.ClientConfig())
}

func (k *Keys) verify(rawCerts [][]byte, _ [][]*x509.Certificate) error {
	if len(rawCerts) == 0 {
		return errors.New("tlsconf: server presented no certificate")
	}
	cert, err := x509.ParseCertificate(rawCerts[0])
	if err != nil {
		return fmt.Errorf("tlsconf: parse server cert: %w", err)
	}
	pub, err := x509.MarshalPKIXPublicKey(cert.PublicKey)
	if err != nil {
		return fmt.Errorf("tlsconf: marshal server public key: %w", err)
	}
	if !bytes.Equal(pub, k.pub) {
		return errKeyMismatch
	}
	return nil
}

// ServerConfig is shorthand for Derive(passphrase) followed by ServerConfig.
func ServerConfig(passphrase string) (*tls.Config, error) {
	k, err := Derive(passphrase)
	if err != nil {
		return nil, err
	}
	return k.ServerConfig()
}

// ClientCredentials is shorthand for Derive(passphrase) followed by
// ClientCredentials.
func ClientCredentials(passphrase string) (credentials.TransportCredentials, error) {
	k, err := Derive(passphrase)
	if err != nil {
		return nil, err
	}
	return k.ClientCredentials(), nil
}

func deriveKey(passphrase string) (*ecdsa.PrivateKey, error) {
	r := hkdf.New(sha256.New, []byte(passphrase), []byte("clipmgr-tls-v1"), []byte("p256-key"))
	buf := make([]byte, 64)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("hkdf read: %w", err)
	}

	curve := elliptic.P256()
	n := curve.Params().N
	d := new(big.Int).SetBytes(buf)
	d.Mod(d, new(big.Int).Sub(n, big.NewInt(1)))
	d.Add(d, big.NewInt(1))

	key := &ecdsa.PrivateKey{D: d}
	key.Curve = curve
	key.X, key.Y = curve.ScalarBaseMult(d.Bytes())
	return key, nil
}

// selfSignedCert returns the DER certificate for key. Only its public key
// matters to clients.
func selfSignedCert(key *ecdsa.PrivateKey) ([]byte, error) {
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, err
	}
	now := time.Now()
	tmpl := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: serverName},
		DNSNames:              []string{serverName},
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.AddDate(10, 0, 0),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}
	return x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
}
