package tlsconf

import (
	"crypto/tls"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveIsDeterministic(t *testing.T) {
	a, err := Derive("token")
	require.NoError(t, err)
	b, err := Derive("token")
	require.NoError(t, err)
	c, err := Derive("other")
	require.NoError(t, err)

	assert.Equal(t, a.pub, b.pub)
	assert.NotEqual(t, a.pub, c.pub)

	def, err := Derive("")
	require.NoError(t, err)
	named, err := Derive(DefaultPassphrase)
	require.NoError(t, err)
	assert.Equal(t, def.pub, named.pub)
}

// handshake runs a TLS handshake between server and client keys over
// loopback TCP.
func handshake(t *testing.T, server, client *Keys) error {
	t.Helper()
	scfg, err := server.ServerConfig()
	require.NoError(t, err)

	ln, err := tls.Listen("tcp", "127.0.0.1:0", scfg)
	require.NoError(t, err)
	defer ln.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		c, err := ln.Accept()
		if err != nil {
			return
		}
		defer c.Close()
		_ = c.(*tls.Conn).Handshake()
	}()

	conn, err := tls.Dial("tcp", ln.Addr().String(), client.ClientConfig())
	if err == nil {
		_ = conn.Close()
	}
	<-done
	return err
}

func TestHandshake(t *testing.T) {
	k, err := Derive("shared")
	require.NoError(t, err)
	assert.NoError(t, handshake(t, k, k))

	wrong, err := Derive("guess")
	require.NoError(t, err)
	err = handshake(t, k, wrong)
	assert.ErrorContains(t, err, errKeyMismatch.Error())
}
