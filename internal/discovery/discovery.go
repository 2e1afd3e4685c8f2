// Package discovery advertises a clipmgr daemon over mDNS and finds daemons
// advertised by others on the local network.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"

	"github.com/grandcat/zeroconf"
)

// mDNS service type and domain the daemon registers under.
const (
	Service = "_clipmgr._tcp"
	Domain  = "local."
)

// ErrNotFound is returned by Resolve when no daemon answered in time.
var ErrNotFound = errors.New("discovery: no clipmgr daemon found")

// Daemon is one advertised daemon.
type Daemon struct {
	Instance string
	Host     string
	Addr     string // host:port, ready to dial
	Version  string
}

// Advertisement is a running mDNS registration.
type Advertisement struct {
	srv *zeroconf.Server
}

// Advertise announces a daemon listening on port under the given instance
// name. Call Shutdown to withdraw it.
func Advertise(instance string, port int, version string) (*Advertisement, error) {
	txt := []string{"version=" + version}
	srv, err := zeroconf.Register(instance, Service, Domain, port, txt, nil)
	if err != nil {
		return nil, fmt.Errorf("discovery: register %s: %w", instance, err)
	}
	slog.Info("advertising over mDNS", "instance", instance, "service", Service, "port", port)
	return &Advertisement{srv: srv}, nil
}

// Shutdown withdraws the advertisement.
func (a *Advertisement) Shutdown() {
	if a != nil && a.srv != nil {
		a.srv.Shutdown()
	}
}

// Browse reports every daemon seen until ctx is done. found is called from
// a single goroutine.
func Browse(ctx context.Context, found func(Daemon)) error {
	r, err := zeroconf.NewResolver(nil)
	if err != nil {
		return fmt.Errorf("discovery: resolver: %w", err)
	}
	entries := make(chan *zeroconf.ServiceEntry)
	if err := r.Browse(ctx, Service, Domain, entries); err != nil {
		return fmt.Errorf("discovery: browse: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-entries:
			if !ok {
				return nil
			}
			if d, ok := parseEntry(e); ok {
				slog.Debug("daemon found", "instance", d.Instance, "addr", d.Addr)
				found(d)
			}
		}
	}
}

// Resolve returns the first daemon that answers before ctx is done.
func Resolve(ctx context.Context) (Daemon, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var (
		first Daemon
		seen  bool
	)
	err := Browse(ctx, func(d Daemon) {
		if !seen {
			first, seen = d, true
			cancel()
		}
	})
	if err != nil {
		return Daemon{}, err
	}
	if !seen {
		return Daemon{}, ErrNotFound
	}
	return first, nil
}

// parseEntry converts a resolved service entry, preferring IPv4.
func parseEntry(e *zeroconf.ServiceEntry) (Daemon, bool) {
	if e == nil || e.Port <= 0 {
		return Daemon{}, false
	}
	var ip net.IP
	switch {
	case len(e.AddrIPv4) > 0:
		ip = e.AddrIPv4[0]
	case len(e.AddrIPv6) > 0:
		ip = e.AddrIPv6[0]
	default:
		return Daemon{}, false
	}
	d := Daemon{
		Instance: e.Instance,
		Host:     strings.TrimSuffix(e.HostName, "."),
		Addr:     net.JoinHostPort(ip.String(), strconv.Itoa(e.Port)),
	}
	for _, kv := range e.Text {
		if v, ok := strings.CutPrefix(kv, "version="); ok {
			d.Version = v
		}
	}
	return d, true
}
