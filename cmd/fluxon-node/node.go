// fluxon-node runs one mesh node over the LAN reference transport: it
// brings up identity, optional group membership, and the mesh service,
// then accepts chat lines on stdin and prints whatever the mesh delivers.
//
// Usage:
//
//	fluxon-node [options]
//
// Options:
//
//	-port        LAN adapter UDP/multicast port (default: 28765)
//	-name        Node name, used for mDNS and chat display (default: "fluxon-node")
//	-storage     Path for encrypted persistent storage (default: in-memory)
//	-group       Local label for the joined/created group (default: "default")
//	-passphrase  Group passphrase; empty runs ungrouped
//	-join-code   Join an existing group by its join code instead of creating one
//
// Example:
//
//	fluxon-node -name alice -passphrase correct-horse-battery-staple
//	fluxon-node -name bob -passphrase correct-horse-battery-staple
package main

import (
	"bufio"
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pion/logging"

	"github.com/fluxon-mesh/fluxon/pkg/group"
	"github.com/fluxon-mesh/fluxon/pkg/mesh"
	"github.com/fluxon-mesh/fluxon/pkg/store"
	"github.com/fluxon-mesh/fluxon/pkg/transport"
	"github.com/fluxon-mesh/fluxon/pkg/transport/lan"
	"github.com/fluxon-mesh/fluxon/pkg/wire"
)

// handshakeInitiateJitter bounds how long a node waits, after seeing a new
// peer over the transport, before initiating a handshake with it. Both
// sides of a fresh link run this same logic, so without a jitter the two
// would race to call Handshake at the same instant and collide; the delay
// also gives the slower side a chance to have already become a responder
// (at which point this side's own attempt is simply skipped).
const handshakeInitiateJitter = 400 * time.Millisecond

func main() {
	opts := ParseFlags()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	n, err := newNode(ctx, opts)
	if err != nil {
		log.Fatalf("fluxon-node: %v", err)
	}
	defer n.close()

	if err := n.run(ctx); err != nil {
		log.Fatalf("fluxon-node: %v", err)
	}
}

// node bundles one running fluxon-node's components.
type node struct {
	opts  Options
	svc   *mesh.Service
	g     *group.Group
	gm    *group.Manager
	st    store.Store
	fstor *store.FileStore // nil for in-memory stores; closed on shutdown
}

func newNode(ctx context.Context, opts Options) (*node, error) {
	st, fstor, err := openStore(opts.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	id, err := loadOrCreateIdentity(ctx, st)
	if err != nil {
		return nil, fmt.Errorf("load identity: %w", err)
	}

	gm := group.NewManager()
	var g *group.Group
	if opts.Passphrase != "" {
		g, err = joinOrCreateGroup(ctx, gm, opts)
		if err != nil {
			return nil, fmt.Errorf("group: %w", err)
		}
	}

	factory := logging.NewDefaultLoggerFactory()

	adapter, err := lan.New(lan.Config{
		Port:          opts.Port,
		InstanceName:  opts.Name,
		LoggerFactory: factory,
	})
	if err != nil {
		return nil, fmt.Errorf("lan adapter: %w", err)
	}

	svc := mesh.NewService(mesh.Config{
		LocalStatic:   id.static,
		LocalSigning:  id.signing,
		Adapter:       adapter,
		LoggerFactory: factory,
	})

	return &node{opts: opts, svc: svc, g: g, gm: gm, st: st, fstor: fstor}, nil
}

func openStore(path string) (store.Store, *store.FileStore, error) {
	if path == "" {
		return store.NewMemStore(), nil, nil
	}
	deviceKey, err := loadOrCreateDeviceKey(path)
	if err != nil {
		return nil, nil, err
	}
	fstor, err := store.NewFileStore(path, deviceKey)
	if err != nil {
		return nil, nil, err
	}
	return fstor, fstor, nil
}

func joinOrCreateGroup(ctx context.Context, gm *group.Manager, opts Options) (*group.Group, error) {
	passphrase := []byte(opts.Passphrase)
	if opts.JoinCode != "" {
		return gm.JoinGroup(ctx, opts.JoinCode, passphrase, opts.GroupName)
	}
	return gm.CreateGroup(ctx, passphrase, opts.GroupName)
}

func (n *node) close() {
	if n.g != nil {
		n.gm.LeaveGroup(n.g)
	}
	if n.fstor != nil {
		n.fstor.Close()
	}
}

func (n *node) run(ctx context.Context) error {
	if err := n.svc.Start(ctx); err != nil {
		return fmt.Errorf("start mesh service: %w", err)
	}
	defer n.svc.Stop()

	n.printBanner()

	go n.handshakeLoop(ctx)
	go n.receiveLoop()
	go n.readStdinLoop(ctx)

	<-ctx.Done()
	fmt.Println("\nshutting down...")
	return nil
}

func (n *node) printBanner() {
	fmt.Println("========================================")
	fmt.Println("           fluxon-node ready")
	fmt.Println("========================================")
	fmt.Printf("Name:     %s\n", n.opts.Name)
	fmt.Printf("PeerId:   %s\n", n.svc.LocalPeerID())
	fmt.Printf("Port:     %d\n", n.opts.Port)
	if n.g != nil {
		fmt.Printf("Group:    %s\n", n.opts.GroupName)
	} else {
		fmt.Println("Group:    (none — running ungrouped)")
	}
	fmt.Println("Type a message and press enter to broadcast it. Ctrl-C to quit.")
	fmt.Println("----------------------------------------")
}

// handshakeLoop initiates a Noise handshake with every newly connected
// transport peer, after a random jitter to reduce (not eliminate) the
// chance both sides race to initiate simultaneously.
func (n *node) handshakeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-n.svc.PeerEvents():
			if !ok {
				return
			}
			if ev.Kind != transport.PeerConnected {
				continue
			}
			go n.maybeInitiateHandshake(ctx, ev.PeerHandle)
		}
	}
}

func (n *node) maybeInitiateHandshake(ctx context.Context, handle string) {
	select {
	case <-time.After(jitter(handshakeInitiateJitter)):
	case <-ctx.Done():
		return
	}

	if _, ok := n.svc.SlotState(handle); ok {
		return // already discovered/handshaking/authenticated from the other side
	}
	if err := n.svc.Handshake(handle); err != nil {
		log.Printf("handshake with %s: %v", handle, err)
	}
}

func jitter(max time.Duration) time.Duration {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return max / 2
	}
	return time.Duration(n.Int64())
}

func (n *node) receiveLoop() {
	for pkt := range n.svc.Received() {
		n.handleReceived(pkt)
	}
}

func (n *node) handleReceived(pkt *wire.Packet) {
	switch pkt.Type {
	case wire.TypeChat:
		chat, err := openChatPayload(n.g, pkt)
		if err != nil {
			log.Printf("chat from %s: undecodable: %v", pkt.SourceID, err)
			return
		}
		name := chat.Name
		if name == "" {
			name = pkt.SourceID.String()[:8]
		}
		fmt.Printf("[%s] %s\n", name, chat.Text)
	default:
		// Other packet types (location, emergency, group membership) are
		// out of scope for this demo harness's UI; it exists to exercise
		// the handshake, transport, and chat path end to end.
	}
}

func (n *node) readStdinLoop(ctx context.Context) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		text := scanner.Text()
		if text == "" {
			continue
		}
		if err := n.sendChat(text); err != nil {
			log.Printf("send failed: %v", err)
		}
	}
}

func (n *node) sendChat(text string) error {
	payload, err := sealChatPayload(n.g, n.svc.LocalPeerID(), text, n.opts.Name)
	if err != nil {
		return err
	}
	pkt := &wire.Packet{Type: wire.TypeChat, Payload: payload}
	return n.svc.Broadcast(pkt)
}
