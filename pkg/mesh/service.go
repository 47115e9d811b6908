// Package mesh implements the Mesh Service: the orchestrator that owns
// the transport adapter, the session manager, the deduplicator, the
// gossip and topology components, and the relay controller, and drives
// the inbound packet pipeline and outbound send/broadcast paths over
// them.
package mesh

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pion/logging"

	"github.com/fluxon-mesh/fluxon/pkg/crypto"
	"github.com/fluxon-mesh/fluxon/pkg/dedup"
	"github.com/fluxon-mesh/fluxon/pkg/gossip"
	"github.com/fluxon-mesh/fluxon/pkg/peer"
	"github.com/fluxon-mesh/fluxon/pkg/ratelimit"
	"github.com/fluxon-mesh/fluxon/pkg/relay"
	"github.com/fluxon-mesh/fluxon/pkg/topology"
	"github.com/fluxon-mesh/fluxon/pkg/transport"
	"github.com/fluxon-mesh/fluxon/pkg/wire"
)

// Tuning knobs for the frame-level checks that run ahead of anything
// session- or identity-specific.
const (
	DefaultMaxFrameLen = 4096

	GlobalFrameLimit         = 200
	GlobalFrameWindowSeconds = 1

	// PerHandleFrameLimit/PerHandleMinSpacing bound pre-authentication
	// traffic from a transport handle that has not yet completed a
	// handshake. PerPeer is the post-authentication counterpart, keyed by
	// the peer's pinned PeerId rather than its (spoofable, transport-local)
	// handle.
	PerHandleFrameLimit           = 20
	PerHandleFrameWindowSeconds   = 1
	PerHandleMinSpacing           = 50 * time.Millisecond
	PerHandleTableCapacity        = 500

	PerPeerFrameLimit         = 20
	PerPeerFrameWindowSeconds = 1
	PerPeerMinSpacing         = 50 * time.Millisecond
	PerPeerTableCapacity      = 500

	inboundQueueCapacity = 256
	eventQueueCapacity   = 64
)

// Config carries a Service's dependencies and tuning knobs.
type Config struct {
	LocalStatic  *crypto.X25519KeyPair
	LocalSigning *crypto.Ed25519KeyPair
	Adapter      transport.Adapter

	SlotCapacity  int
	TrustCapacity int

	DedupCapacity int
	DedupTTL      time.Duration

	GossipBatchCap int

	RouteCacheTTL time.Duration

	RelayPolicy    relay.Policy
	RelayBaseDelay time.Duration
	RelayMaxJitter time.Duration

	MaxFrameLen int

	LoggerFactory logging.LoggerFactory
}

// PeerStatusEvent reports a peer's connect/disconnect at the transport
// level, enriched with its pinned PeerId when authentication has already
// happened to have bound one (e.g. a disconnect that follows a completed
// handshake).
type PeerStatusEvent struct {
	Kind       transport.EventKind
	PeerHandle string
	PeerID     wire.PeerID
	HasPeerID  bool
}

// Service is the Mesh Service: the node's single point of orchestration
// between the transport, the session manager, and the packet pipeline
// components.
type Service struct {
	localStatic  *crypto.X25519KeyPair
	localSigning *crypto.Ed25519KeyPair
	localPeerID  wire.PeerID

	adapter transport.Adapter

	peers *peer.Manager

	// pipelineMu guards dedup and gossip, neither of which is internally
	// thread-safe. The inbound read loop is the only other writer besides
	// the relay scheduler's background recheck, so one coarse mutex
	// covering both is cheaper than wiring locks into either package.
	pipelineMu sync.Mutex
	dedup      *dedup.Set
	gossip     *gossip.Sync

	topo *topology.Tracker

	relaySched  *relay.Scheduler
	relayPolicy relay.Policy

	globalRate    *ratelimit.Window
	perHandleRate *ratelimit.SpacedPerKeyWindow
	perPeerRate   *ratelimit.SpacedPerKeyWindow

	maxFrameLen int

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	received   chan *wire.Packet
	peerEvents chan PeerStatusEvent

	stats liveStats

	log logging.LeveledLogger
}

// NewService builds a Service around cfg. It does not start any
// goroutines; call Start to begin driving the adapter.
func NewService(cfg Config) *Service {
	factory := cfg.LoggerFactory
	if factory == nil {
		factory = logging.NewDefaultLoggerFactory()
	}

	maxFrameLen := cfg.MaxFrameLen
	if maxFrameLen <= 0 {
		maxFrameLen = DefaultMaxFrameLen
	}

	relayBase := cfg.RelayBaseDelay
	if relayBase <= 0 {
		relayBase = relay.DefaultBaseDelayMs * time.Millisecond
	}
	relayJitter := cfg.RelayMaxJitter
	if relayJitter <= 0 {
		relayJitter = relay.DefaultMaxJitterMs * time.Millisecond
	}
	relayPolicy := cfg.RelayPolicy
	if relayPolicy.MaxTTL == 0 {
		relayPolicy = relay.DefaultPolicy()
	}

	peerID := crypto.BLAKE2b256(cfg.LocalStatic.PublicKey())

	s := &Service{
		localStatic:  cfg.LocalStatic,
		localSigning: cfg.LocalSigning,
		adapter:      cfg.Adapter,

		peers: peer.NewManager(peer.Config{
			LocalStatic:   cfg.LocalStatic,
			LocalSigning:  cfg.LocalSigning,
			SlotCapacity:  cfg.SlotCapacity,
			TrustCapacity: cfg.TrustCapacity,
			LoggerFactory: factory,
		}),

		dedup: dedup.New(dedup.Config{Capacity: cfg.DedupCapacity, TTL: cfg.DedupTTL}),
		gossip: gossip.New(gossip.Config{
			BatchCap:      cfg.GossipBatchCap,
			LoggerFactory: factory,
		}),
		topo: topology.New(topology.Config{RouteCacheTTL: cfg.RouteCacheTTL}),

		relaySched:  relay.NewScheduler(relayBase, relayJitter),
		relayPolicy: relayPolicy,

		globalRate: ratelimit.NewWindow(GlobalFrameLimit, GlobalFrameWindowSeconds),
		perHandleRate: ratelimit.NewSpacedPerKeyWindow(
			PerHandleFrameLimit, PerHandleFrameWindowSeconds, PerHandleMinSpacing, PerHandleTableCapacity,
		),
		perPeerRate: ratelimit.NewSpacedPerKeyWindow(
			PerPeerFrameLimit, PerPeerFrameWindowSeconds, PerPeerMinSpacing, PerPeerTableCapacity,
		),

		maxFrameLen: maxFrameLen,

		received:   make(chan *wire.Packet, inboundQueueCapacity),
		peerEvents: make(chan PeerStatusEvent, eventQueueCapacity),

		log: factory.NewLogger("mesh"),
	}
	copy(s.localPeerID[:], peerID)
	return s
}

// LocalPeerID returns this node's own PeerId, BLAKE2b-256 of its static
// X25519 public key.
func (s *Service) LocalPeerID() wire.PeerID {
	return s.localPeerID
}

// Received returns the channel of packets addressed to this node or to
// the broadcast address, decoded, verified, and deduplicated.
func (s *Service) Received() <-chan *wire.Packet {
	return s.received
}

// PeerEvents returns the channel of peer connect/disconnect notifications.
func (s *Service) PeerEvents() <-chan PeerStatusEvent {
	return s.peerEvents
}

// Stats returns a snapshot of the service's running counters.
func (s *Service) Stats() Stats {
	return s.stats.snapshot(s.peers.ActiveSessions())
}

// SlotState reports the lifecycle state of handle's peer slot, if any.
func (s *Service) SlotState(handle string) (peer.State, bool) {
	return s.peers.SlotState(handle)
}

// Start begins driving the transport adapter: it starts the adapter, then
// launches the inbound-frame and peer-event read loops. Both loops run
// until ctx is cancelled or Stop is called.
func (s *Service) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return nil
	}

	if err := s.adapter.Start(ctx); err != nil {
		s.running.Store(false)
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(2)
	go s.inboundLoop(runCtx)
	go s.peerEventLoop(runCtx)

	return nil
}

// Stop halts the relay scheduler and the read loops, stops the adapter,
// and zeroizes every peer session. It is safe to call more than once.
func (s *Service) Stop() error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	s.relaySched.Stop()
	if s.cancel != nil {
		s.cancel()
	}
	err := s.adapter.Stop()
	s.wg.Wait()
	s.peers.Clear()
	return err
}

func (s *Service) inboundLoop(ctx context.Context) {
	defer s.wg.Done()
	frames := s.adapter.IncomingFrames()
	for {
		select {
		case <-ctx.Done():
			return
		case f, ok := <-frames:
			if !ok {
				return
			}
			s.handleFrame(f)
		}
	}
}

func (s *Service) peerEventLoop(ctx context.Context) {
	defer s.wg.Done()
	events := s.adapter.PeerEvents()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.handlePeerEvent(ev)
		}
	}
}

func (s *Service) handlePeerEvent(ev transport.PeerEvent) {
	peerID, hasPeerID := s.peers.AuthenticatedPeerID(ev.PeerHandle)

	if ev.Kind == transport.PeerDisconnected {
		s.peers.RemoveSession(ev.PeerHandle)
	}

	out := PeerStatusEvent{Kind: ev.Kind, PeerHandle: ev.PeerHandle, PeerID: peerID, HasPeerID: hasPeerID}
	select {
	case s.peerEvents <- out:
	default:
		s.log.Warnf("peer event consumer too slow, dropping event for %s", ev.PeerHandle)
	}
}

func (s *Service) drop(handle string, reason string) {
	s.stats.framesDropped.Add(1)
	s.log.Debugf("dropping frame from %s: %s", handle, reason)
}

// handleFrame runs one inbound frame through the full pipeline: bounds
// and rate-limit checks, optional session decryption, codec parse,
// handshake routing, source binding, signature verification,
// deduplication, gossip recording, topology update, local delivery, and
// relay scheduling.
func (s *Service) handleFrame(f transport.Frame) {
	now := time.Now()
	s.stats.framesReceived.Add(1)

	if len(f.Bytes) == 0 || len(f.Bytes) > s.maxFrameLen {
		s.drop(f.PeerHandle, "frame length out of bounds")
		return
	}

	if !s.globalRate.Allow() {
		s.drop(f.PeerHandle, "global rate limit")
		return
	}

	authPeerID, hasSession := s.peers.AuthenticatedPeerID(f.PeerHandle)
	if hasSession {
		if !s.perPeerRate.Allow(wire.PeerID(authPeerID).String()) {
			s.drop(f.PeerHandle, "per-peer rate limit")
			return
		}
	} else {
		if !s.perHandleRate.Allow(f.PeerHandle) {
			s.drop(f.PeerHandle, "per-handle rate limit")
			return
		}
	}

	outer, err := wire.Decode(f.Bytes, now)
	if err != nil {
		s.drop(f.PeerHandle, "codec parse error")
		return
	}

	pkt := outer
	// A session only ever decrypts a frame that is actually carrying a
	// Noise-encrypted envelope; a handshake or other plaintext frame
	// arriving on an authenticated slot is handled as raw bytes instead
	// of being spuriously fed to the AEAD.
	if hasSession && outer.Type == wire.TypeNoiseEncrypted {
		nonce, ciphertext, derr := wire.DecodeNoiseEnvelope(outer.Payload)
		if derr != nil {
			s.drop(f.PeerHandle, "malformed noise envelope")
			return
		}
		plaintext, decErr := s.peers.Decrypt(f.PeerHandle, nonce, ciphertext)
		if decErr != nil {
			// Decrypt has already torn down the session on failure.
			s.drop(f.PeerHandle, "session decrypt failed")
			return
		}
		inner, perr := wire.Decode(plaintext, now)
		if perr != nil {
			s.drop(f.PeerHandle, "codec parse error in decrypted packet")
			return
		}
		pkt = inner
	}

	if hasSession && !pkt.Signed() && pkt.Type != wire.TypeHandshake {
		s.drop(f.PeerHandle, "unsigned packet on authenticated session")
		return
	}

	if pkt.Type == wire.TypeHandshake {
		s.handleHandshake(f.PeerHandle, pkt)
		return
	}

	if hasSession && wire.PeerID(authPeerID) != pkt.SourceID {
		s.drop(f.PeerHandle, "source_id does not match authenticated peer")
		return
	}

	if pkt.Signed() {
		if !s.verifySignature(f.PeerHandle, hasSession, pkt) {
			s.log.Warnf("signature verification failed from %s", f.PeerHandle)
			s.drop(f.PeerHandle, "signature verification failed")
			return
		}
	} else if !wire.PreAuthAllowed(pkt.Type) {
		s.drop(f.PeerHandle, "unsigned packet of non-allow-listed type")
		return
	}

	id := pkt.ID()
	s.pipelineMu.Lock()
	dup := s.dedup.CheckAndInsert(id, now)
	if !dup {
		s.gossip.OnPacketSeen(id)
	}
	s.pipelineMu.Unlock()
	if dup {
		s.drop(f.PeerHandle, "duplicate packet")
		return
	}

	if pkt.Type == wire.TypeTopologyAnnounce || pkt.Type == wire.TypeDiscovery {
		s.applyTopologyUpdate(f.PeerHandle, hasSession, pkt, now)
	}

	if pkt.DestID.IsBroadcast() || pkt.DestID == s.localPeerID {
		s.stats.packetsDelivered.Add(1)
		select {
		case s.received <- pkt:
		default:
			s.log.Warnf("packet consumer too slow, dropping delivery for %s", id)
		}
	}

	s.maybeRelay(pkt, now)
}

// verifySignature checks pkt's signature against the pinned key for the
// authenticated session on handle, falling back to the pinned key for
// pkt.SourceID so a relayed packet's original signature can still be
// checked against a previously trusted origin.
func (s *Service) verifySignature(handle string, hasSession bool, pkt *wire.Packet) bool {
	if hasSession {
		if key, err := s.peers.PinnedSigningKey(handle); err == nil {
			if wire.Verify(pkt, key) == nil {
				return true
			}
		}
	}
	if key, ok := s.peers.TrustedKey(pkt.SourceID); ok {
		if wire.Verify(pkt, key) == nil {
			return true
		}
	}
	return false
}

// applyTopologyUpdate feeds a discovery/topology-announce packet's
// claimed-neighbor list into the tracker. A packet is trusted directly
// when it arrived from the session that authenticated as its source_id;
// otherwise (a relayed claim about some other node) it is accepted only
// when that source_id already has a pinned signing key, i.e. this node
// has session-authenticated with it at some point.
func (s *Service) applyTopologyUpdate(handle string, hasSession bool, pkt *wire.Packet, now time.Time) {
	authPeerID, ok := s.peers.AuthenticatedPeerID(handle)
	direct := hasSession && ok && wire.PeerID(authPeerID) == pkt.SourceID
	if !direct {
		if _, known := s.peers.TrustedKey(pkt.SourceID); !known {
			return
		}
	}

	dp, err := wire.DecodeDiscoveryPayload(pkt.Payload)
	if err != nil {
		return
	}
	if err := s.topo.UpdateNeighbors(pkt.SourceID, dp.Peers, now); err != nil {
		s.log.Debugf("topology update from %s rejected: %v", pkt.SourceID, err)
	}
}

// handleHandshake routes a handshake-type packet's payload into the
// session manager and, if it produced a reply message, wraps and sends it
// back over the raw transport handle. Handshake packets are never
// delivered to the application and never relayed.
func (s *Service) handleHandshake(handle string, pkt *wire.Packet) {
	s.stats.handshakesStarted.Add(1)

	next, _, _, err := s.peers.ProcessHandshakeMessage(handle, pkt.Payload)
	if err != nil {
		s.log.Debugf("handshake message from %s rejected: %v", handle, err)
		return
	}
	if next == nil {
		return
	}

	reply := &wire.Packet{
		Version:     wire.ProtocolVersion,
		Type:        wire.TypeHandshake,
		TTL:         wire.MaxTTL,
		TimestampMs: uint64(time.Now().UnixMilli()),
		Payload:     next,
	}
	encoded, err := wire.Encode(reply)
	if err != nil {
		s.log.Warnf("failed to encode handshake reply to %s: %v", handle, err)
		return
	}
	if err := s.adapter.SendTo(handle, encoded); err != nil {
		s.log.Warnf("failed to send handshake reply to %s: %v", handle, err)
	}
}

// maybeRelay asks the relay controller whether pkt is worth rebroadcasting
// and, if so, schedules a jittered rebroadcast whose pre-fire recheck
// re-probes the dedup set so a relay raced by another path is dropped
// silently.
func (s *Service) maybeRelay(pkt *wire.Packet, now time.Time) {
	degree := s.topo.Degree(s.localPeerID, now)
	newTTL, ok := relay.Evaluate(pkt.TTL, pkt.Type, degree, s.relayPolicy)
	if !ok {
		return
	}

	relayed := &wire.Packet{
		Version:     pkt.Version,
		Type:        pkt.Type,
		TTL:         newTTL,
		Flags:       pkt.Flags,
		TimestampMs: pkt.TimestampMs,
		SourceID:    pkt.SourceID,
		DestID:      pkt.DestID,
		Payload:     pkt.Payload,
		Signature:   pkt.Signature,
	}
	id := pkt.ID()

	recheck := func() bool {
		s.pipelineMu.Lock()
		defer s.pipelineMu.Unlock()
		return s.dedup.Has(id, time.Now())
	}
	fire := func() {
		encoded, err := wire.Encode(relayed)
		if err != nil {
			s.log.Debugf("failed to encode relay of %s: %v", id, err)
			return
		}
		if err := s.adapter.Broadcast(encoded); err != nil {
			s.log.Debugf("failed to relay %s: %v", id, err)
			return
		}
		s.stats.packetsRelayed.Add(1)
	}
	s.relaySched.Schedule(recheck, fire)
}

// Handshake initiates a fresh Noise handshake with handle, sending the
// first message over the transport. The Mesh Service never initiates a
// handshake on its own (e.g. in response to a PeerConnected event):
// only the caller — typically the discovery layer, which already knows
// which side of a given radio link should play initiator — can decide
// that without risking both ends racing to start one simultaneously.
func (s *Service) Handshake(handle string) error {
	if !s.running.Load() {
		return ErrStopped
	}
	msg1, err := s.peers.StartHandshake(handle)
	if err != nil {
		return err
	}

	pkt := &wire.Packet{
		Version:     wire.ProtocolVersion,
		Type:        wire.TypeHandshake,
		TTL:         wire.MaxTTL,
		TimestampMs: uint64(time.Now().UnixMilli()),
		Payload:     msg1,
	}
	encoded, err := wire.Encode(pkt)
	if err != nil {
		return err
	}
	return s.adapter.SendTo(handle, encoded)
}

// Broadcast fills source_id, timestamp, and TTL if unset, and signs pkt
// with the local signing key. Pre-auth-allowed types (topology, discovery,
// gossip sync, ack, ping, pong) exist specifically to reach peers this
// node has not yet handshaked with, so they go out once as a single
// signed, unencrypted frame over the transport's own broadcast. Every
// other type carries content meant to stay confidential to authenticated
// neighbors: it is never sent in the clear, only individually encrypted
// through each session-authenticated peer's send CipherState; a peer with
// no session is silently skipped rather than handed plaintext.
func (s *Service) Broadcast(pkt *wire.Packet) error {
	if !s.running.Load() {
		return ErrStopped
	}
	s.prepareOutbound(pkt)
	if err := wire.Sign(pkt, s.localSigning); err != nil {
		return err
	}

	if wire.PreAuthAllowed(pkt.Type) {
		encoded, err := wire.Encode(pkt)
		if err != nil {
			return err
		}
		return s.adapter.Broadcast(encoded)
	}

	plaintext, err := wire.Encode(pkt)
	if err != nil {
		return err
	}
	for _, handle := range s.peers.AuthenticatedHandles() {
		if err := s.sendEncryptedTo(handle, plaintext); err != nil {
			s.log.Debugf("broadcast: failed to deliver to %s: %v", handle, err)
		}
	}
	return nil
}

// Send delivers pkt to a single peer over its established session,
// identified by its pinned PeerId. It returns ErrNoSession if no session
// is established for peerID, or ErrRekeyPending if the session has
// crossed its rekey threshold and a fresh handshake is needed before it
// can encrypt again.
func (s *Service) Send(pkt *wire.Packet, peerID wire.PeerID) error {
	if !s.running.Load() {
		return ErrStopped
	}

	handle, ok := s.handleForPeer(peerID)
	if !ok {
		return ErrNoSession
	}

	s.prepareOutbound(pkt)
	pkt.DestID = peerID
	if err := wire.Sign(pkt, s.localSigning); err != nil {
		return err
	}
	plaintext, err := wire.Encode(pkt)
	if err != nil {
		return err
	}

	return s.sendEncryptedTo(handle, plaintext)
}

func (s *Service) prepareOutbound(pkt *wire.Packet) {
	pkt.Version = wire.ProtocolVersion
	pkt.SourceID = s.localPeerID
	pkt.TimestampMs = uint64(time.Now().UnixMilli())
	if pkt.TTL == 0 {
		pkt.TTL = wire.MaxTTL
	}
}

func (s *Service) handleForPeer(peerID wire.PeerID) (string, bool) {
	for _, handle := range s.peers.AuthenticatedHandles() {
		if id, ok := s.peers.AuthenticatedPeerID(handle); ok && wire.PeerID(id) == peerID {
			return handle, true
		}
	}
	return "", false
}

func (s *Service) sendEncryptedTo(handle string, plaintext []byte) error {
	ciphertext, nonce, err := s.peers.Encrypt(handle, plaintext)
	if err != nil {
		if err == peer.ErrSessionExhausted {
			return ErrRekeyPending
		}
		return ErrNoSession
	}

	envelope := &wire.Packet{
		Version:     wire.ProtocolVersion,
		Type:        wire.TypeNoiseEncrypted,
		TTL:         wire.MaxTTL,
		TimestampMs: uint64(time.Now().UnixMilli()),
		Payload:     wire.EncodeNoiseEnvelope(nonce, ciphertext),
	}
	encoded, err := wire.Encode(envelope)
	if err != nil {
		return err
	}
	return s.adapter.SendTo(handle, encoded)
}
