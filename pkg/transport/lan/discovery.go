package lan

import (
	"context"
	"net"

	"github.com/grandcat/zeroconf"
)

// mdnsServer is the interface for an active mDNS service registration,
// matching the teacher's own discovery.MDNSServer DI seam.
type mdnsServer interface {
	Shutdown()
}

// mdnsAdvertiser registers a service instance over mDNS.
type mdnsAdvertiser interface {
	Register(instance, service, domain string, port int, txt []string, ifaces []net.Interface) (mdnsServer, error)
}

// mdnsResolver browses for service instances over mDNS.
type mdnsResolver interface {
	Browse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error
}

type zeroconfAdvertiser struct{}

func newZeroconfAdvertiser() *zeroconfAdvertiser { return &zeroconfAdvertiser{} }

func (zeroconfAdvertiser) Register(instance, service, domain string, port int, txt []string, ifaces []net.Interface) (mdnsServer, error) {
	return zeroconf.Register(instance, service, domain, port, txt, ifaces)
}

type zeroconfResolver struct {
	resolver *zeroconf.Resolver
}

func newZeroconfResolver() (*zeroconfResolver, error) {
	r, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, err
	}
	return &zeroconfResolver{resolver: r}, nil
}

func (z *zeroconfResolver) Browse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error {
	return z.resolver.Browse(ctx, service, domain, entries)
}

// browseLoop resolves peers advertising on the adapter's service and, for
// each one not already known, registers its address and emits
// PeerConnected — letting a caller (e.g. a discovery-aware layer choosing
// which side of a link should initiate) learn of and greet a peer before
// any multicast traffic has actually passed between them.
func (a *Adapter) browseLoop(ctx context.Context) {
	defer a.wg.Done()

	entries := make(chan *zeroconf.ServiceEntry, 16)
	go func() {
		defer close(entries)
		if err := a.resolver.Browse(ctx, a.cfg.ServiceName, a.cfg.ServiceDomain, entries); err != nil {
			a.log.Warnf("lan: mDNS browse failed: %v", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case entry, ok := <-entries:
			if !ok {
				return
			}
			a.handleDiscoveryEntry(entry)
		}
	}
}

func (a *Adapter) handleDiscoveryEntry(entry *zeroconf.ServiceEntry) {
	if entry == nil || entry.Instance == a.cfg.InstanceName {
		return
	}

	var ip net.IP
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0]
	} else if len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0]
	}
	if ip == nil {
		return
	}

	port := entry.Port
	if port <= 0 {
		port = a.cfg.Port
	}
	a.touchPeer(&net.UDPAddr{IP: ip, Port: port})
}
