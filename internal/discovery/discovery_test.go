package discovery

import (
	"net"
	"testing"

	"github.com/grandcat/zeroconf"
	"github.com/stretchr/testify/assert"
)

func entry(v4, v6 []net.IP, port int, text ...string) *zeroconf.ServiceEntry {
	e := zeroconf.NewServiceEntry("desk", Service, Domain)
	e.HostName = "desk.local."
	e.AddrIPv4 = v4
	e.AddrIPv6 = v6
	e.Port = port
	e.Text = text
	return e
}

func TestParseEntry(t *testing.T) {
	cases := []struct {
		name string
		in   *zeroconf.ServiceEntry
		want Daemon
		ok   bool
	}{
		{
			name: "IPv4",
			in:   entry([]net.IP{net.ParseIP("192.168.1.20")}, []net.IP{net.ParseIP("fe80::1")}, 45045, "version=1.2.0"),
			want: Daemon{Instance: "desk", Host: "desk.local", Addr: "192.168.1.20:45045", Version: "1.2.0"},
			ok:   true,
		},
		{
			name: "IPv6Only",
			in:   entry(nil, []net.IP{net.ParseIP("fd00::5")}, 45045),
			want: Daemon{Instance: "desk", Host: "desk.local", Addr: "[fd00::5]:45045"},
			ok:   true,
		},
		{name: "NoAddress", in: entry(nil, nil, 45045)},
		{name: "NoPort", in: entry([]net.IP{net.ParseIP("10.0.0.1")}, nil, 0)},
		{name: "Nil"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := parseEntry(tc.in)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNilAdvertisementShutdown(t *testing.T) {
	var a *Advertisement
	assert.NotPanics(t, a.Shutdown)
}
