// Package lan implements a reference transport.Adapter over LAN UDP
// multicast plus mDNS peer discovery. It exists so the rest of the stack
// (codec, session manager, dedup, topology, gossip, relay, mesh service)
// can be exercised end to end without real BLE hardware; a production BLE
// adapter would implement the same transport.Adapter interface.
package lan

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pion/logging"
	"golang.org/x/net/ipv4"

	"github.com/fluxon-mesh/fluxon/pkg/transport"
)

// Tuning defaults.
const (
	DefaultPort           = 28765
	DefaultGroupAddr      = "239.192.92.25"
	DefaultServiceName    = "_fluxonmesh._udp"
	DefaultServiceDomain  = "local."
	DefaultPeerTimeout    = 45 * time.Second
	DefaultSweepInterval  = 10 * time.Second
	DefaultMulticastTTL   = 8
	MaxDatagramSize       = 4096
	frameQueueCapacity    = 256
	eventQueueCapacity    = 64
)

// packetConn is the narrow surface the adapter needs from its underlying
// socket. *net.UDPConn satisfies it directly; tests inject an in-memory
// pair instead of opening real sockets, the same split the teacher's own
// pkg/transport.Factory draws between real connections and virtual pipes
// for testing.
type packetConn interface {
	ReadFromUDP(b []byte) (int, *net.UDPAddr, error)
	WriteToUDP(b []byte, addr *net.UDPAddr) (int, error)
	Close() error
}

// Config configures an Adapter.
type Config struct {
	// Port is the well-known LAN port every node listens and multicasts on.
	Port int
	// GroupAddr is the IPv4 multicast group address used for Broadcast.
	GroupAddr string
	// Interface restricts multicast group membership to one NIC. Nil lets
	// the OS pick a default multicast-capable interface.
	Interface *net.Interface

	// InstanceName is this node's mDNS instance name (e.g. its PeerId in
	// hex). Required for discovery advertising to be meaningful.
	InstanceName string
	ServiceName  string
	ServiceDomain string

	// PeerTimeout is how long a peer may go silent before it is declared
	// disconnected. SweepInterval is how often that check runs.
	PeerTimeout   time.Duration
	SweepInterval time.Duration

	// Conn, when set, replaces the adapter's real UDP socket. Used by
	// tests to cross-wire two adapters without opening OS sockets or
	// joining a real multicast group.
	Conn      packetConn
	GroupDest *net.UDPAddr // required when Conn is set; the address Broadcast writes to

	// Advertiser/Resolver override the real zeroconf-backed discovery
	// implementations, for injecting a fake in tests.
	Advertiser mdnsAdvertiser
	Resolver   mdnsResolver

	LoggerFactory logging.LoggerFactory
}

type peerInfo struct {
	addr     *net.UDPAddr
	lastSeen time.Time
}

// Adapter is a transport.Adapter backed by LAN UDP multicast, with mDNS
// used to proactively learn of peers before any datagram has arrived from
// them. A "connection" here is purely logical: UDP carries no session of
// its own, so the adapter mints a stable handle (a UUID) the first time it
// either sees traffic from an address or resolves one via discovery, and
// reuses that handle for as long as the peer keeps being seen.
type Adapter struct {
	cfg Config

	conn      packetConn
	pconn     *ipv4.PacketConn // nil when cfg.Conn was injected
	groupAddr *net.UDPAddr

	mu       sync.Mutex
	byHandle map[string]*peerInfo
	byAddr   map[string]string

	frames chan transport.Frame
	events chan transport.PeerEvent

	advertiser       mdnsAdvertiser
	advertiserHandle mdnsServer
	resolver         mdnsResolver

	peerTimeout   time.Duration
	sweepInterval time.Duration

	cancel  context.CancelFunc
	closeCh chan struct{}
	wg      sync.WaitGroup

	lifecycleMu sync.Mutex
	started bool
	closed  bool

	log logging.LeveledLogger
}

// New builds an Adapter from cfg, applying defaults for zero fields. It
// does not open any socket or start discovery; call Start for that.
func New(cfg Config) (*Adapter, error) {
	if cfg.Port <= 0 {
		cfg.Port = DefaultPort
	}
	if cfg.GroupAddr == "" {
		cfg.GroupAddr = DefaultGroupAddr
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = DefaultServiceName
	}
	if cfg.ServiceDomain == "" {
		cfg.ServiceDomain = DefaultServiceDomain
	}
	if cfg.PeerTimeout <= 0 {
		cfg.PeerTimeout = DefaultPeerTimeout
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultSweepInterval
	}

	groupIP := net.ParseIP(cfg.GroupAddr)
	if groupIP == nil || groupIP.To4() == nil {
		return nil, fmt.Errorf("lan: invalid multicast group address %q", cfg.GroupAddr)
	}
	groupAddr := &net.UDPAddr{IP: groupIP, Port: cfg.Port}

	factory := cfg.LoggerFactory
	if factory == nil {
		factory = logging.NewDefaultLoggerFactory()
	}

	a := &Adapter{
		cfg:           cfg,
		groupAddr:     groupAddr,
		byHandle:      make(map[string]*peerInfo),
		byAddr:        make(map[string]string),
		frames:        make(chan transport.Frame, frameQueueCapacity),
		events:        make(chan transport.PeerEvent, eventQueueCapacity),
		peerTimeout:   cfg.PeerTimeout,
		sweepInterval: cfg.SweepInterval,
		advertiser:    cfg.Advertiser,
		resolver:      cfg.Resolver,
		log:           factory.NewLogger("transport-lan"),
	}

	if cfg.Conn != nil {
		if cfg.GroupDest == nil {
			return nil, fmt.Errorf("lan: Config.GroupDest is required when Config.Conn is set")
		}
		a.conn = cfg.Conn
		a.groupAddr = cfg.GroupDest
	}

	if a.advertiser == nil {
		a.advertiser = newZeroconfAdvertiser()
	}
	if a.resolver == nil {
		r, err := newZeroconfResolver()
		if err != nil {
			return nil, fmt.Errorf("lan: building mDNS resolver: %w", err)
		}
		a.resolver = r
	}

	return a, nil
}

// Start opens the multicast socket (unless a Conn was injected), joins the
// multicast group, registers the mDNS advertisement, and launches the
// read, discovery-browse, and peer-sweep loops.
func (a *Adapter) Start(ctx context.Context) error {
	a.lifecycleMu.Lock()
	if a.closed {
		a.lifecycleMu.Unlock()
		return transport.ErrClosed
	}
	if a.started {
		a.lifecycleMu.Unlock()
		return transport.ErrAlreadyStarted
	}
	a.started = true
	a.lifecycleMu.Unlock()

	if a.conn == nil {
		udpConn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: a.cfg.Port})
		if err != nil {
			return fmt.Errorf("lan: listening on UDP port %d: %w", a.cfg.Port, err)
		}
		if err := setReuseAddr(udpConn); err != nil {
			a.log.Warnf("lan: SO_REUSEADDR not set: %v", err)
		}

		pconn := ipv4.NewPacketConn(udpConn)
		if err := pconn.JoinGroup(a.cfg.Interface, a.groupAddr); err != nil {
			udpConn.Close()
			return fmt.Errorf("lan: joining multicast group %s: %w", a.groupAddr, err)
		}
		_ = pconn.SetMulticastLoopback(false)
		if a.cfg.Interface != nil {
			_ = pconn.SetMulticastInterface(a.cfg.Interface)
		}
		_ = pconn.SetMulticastTTL(DefaultMulticastTTL)

		a.conn = udpConn
		a.pconn = pconn
	}

	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.closeCh = make(chan struct{})

	a.wg.Add(2)
	go a.readLoop()
	go a.sweepLoop()

	if a.cfg.InstanceName != "" {
		ifaces := []net.Interface{}
		if a.cfg.Interface != nil {
			ifaces = append(ifaces, *a.cfg.Interface)
		}
		server, err := a.advertiser.Register(a.cfg.InstanceName, a.cfg.ServiceName, a.cfg.ServiceDomain, a.cfg.Port, nil, ifaces)
		if err != nil {
			a.log.Warnf("lan: mDNS advertise failed: %v", err)
		} else {
			a.advertiserHandle = server
		}

		a.wg.Add(1)
		go a.browseLoop(runCtx)
	}

	return nil
}

// Stop tears down discovery, closes the socket, and waits for every
// adapter goroutine to exit. Safe to call more than once.
func (a *Adapter) Stop() error {
	a.lifecycleMu.Lock()
	if a.closed {
		a.lifecycleMu.Unlock()
		return transport.ErrClosed
	}
	a.closed = true
	a.lifecycleMu.Unlock()

	if a.advertiserHandle != nil {
		a.advertiserHandle.Shutdown()
	}
	if a.cancel != nil {
		a.cancel()
	}
	close(a.closeCh)

	err := a.conn.Close()
	a.wg.Wait()
	close(a.frames)
	close(a.events)
	return err
}

// SendTo unicasts data to the peer identified by handle.
func (a *Adapter) SendTo(handle string, data []byte) error {
	a.mu.Lock()
	info, ok := a.byHandle[handle]
	a.mu.Unlock()
	if !ok {
		return fmt.Errorf("lan: %w: %s", ErrUnknownPeer, handle)
	}
	_, err := a.conn.WriteToUDP(data, info.addr)
	return err
}

// Broadcast multicasts data to the LAN group every peer listens on.
func (a *Adapter) Broadcast(data []byte) error {
	_, err := a.conn.WriteToUDP(data, a.groupAddr)
	return err
}

// IncomingFrames returns the channel of inbound frames.
func (a *Adapter) IncomingFrames() <-chan transport.Frame { return a.frames }

// PeerEvents returns the channel of peer connect/disconnect events.
func (a *Adapter) PeerEvents() <-chan transport.PeerEvent { return a.events }

func (a *Adapter) readLoop() {
	defer a.wg.Done()
	buf := make([]byte, MaxDatagramSize)
	for {
		n, addr, err := a.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-a.closeCh:
				return
			default:
				a.log.Debugf("lan: read error: %v", err)
				continue
			}
		}
		if n == 0 || addr == nil {
			continue
		}

		data := make([]byte, n)
		copy(data, buf[:n])

		handle := a.touchPeer(addr)

		select {
		case a.frames <- transport.Frame{PeerHandle: handle, Bytes: data}:
		default:
			a.log.Warnf("lan: frame consumer too slow, dropping datagram from %s", addr)
		}
	}
}

// touchPeer records addr as seen now, minting a fresh handle and emitting
// PeerConnected on first contact.
func (a *Adapter) touchPeer(addr *net.UDPAddr) string {
	key := addr.String()

	a.mu.Lock()
	handle, known := a.byAddr[key]
	if known {
		a.byHandle[handle].lastSeen = time.Now()
		a.mu.Unlock()
		return handle
	}
	handle = uuid.NewString()
	a.byAddr[key] = handle
	a.byHandle[handle] = &peerInfo{addr: addr, lastSeen: time.Now()}
	a.mu.Unlock()

	a.emitEvent(transport.PeerEvent{Kind: transport.PeerConnected, PeerHandle: handle})
	return handle
}

func (a *Adapter) sweepLoop() {
	defer a.wg.Done()
	ticker := time.NewTicker(a.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-a.closeCh:
			return
		case now := <-ticker.C:
			a.sweepOnce(now)
		}
	}
}

func (a *Adapter) sweepOnce(now time.Time) {
	var evicted []string

	a.mu.Lock()
	for handle, info := range a.byHandle {
		if now.Sub(info.lastSeen) > a.peerTimeout {
			evicted = append(evicted, handle)
			delete(a.byHandle, handle)
			delete(a.byAddr, info.addr.String())
		}
	}
	a.mu.Unlock()

	for _, handle := range evicted {
		a.emitEvent(transport.PeerEvent{Kind: transport.PeerDisconnected, PeerHandle: handle})
	}
}

func (a *Adapter) emitEvent(ev transport.PeerEvent) {
	select {
	case a.events <- ev:
	default:
		a.log.Warnf("lan: event consumer too slow, dropping %v for %s", ev.Kind, ev.PeerHandle)
	}
}
