package wire

// MaxDiscoveryPeers is the maximum number of PeerIds a discovery or
// topology-announce payload may carry.
const MaxDiscoveryPeers = 10

// DiscoveryPayload is n(u8) | PeerId*n, used by both TypeDiscovery and
// TypeTopologyAnnounce.
type DiscoveryPayload struct {
	Peers []PeerID
}

// EncodeDiscoveryPayload serializes the peer list, rejecting more than
// MaxDiscoveryPeers entries.
func EncodeDiscoveryPayload(d *DiscoveryPayload) ([]byte, error) {
	if len(d.Peers) > MaxDiscoveryPeers {
		return nil, ErrTooManyEntries
	}
	buf := make([]byte, 1+len(d.Peers)*PeerIDLen)
	buf[0] = byte(len(d.Peers))
	for i, p := range d.Peers {
		copy(buf[1+i*PeerIDLen:1+(i+1)*PeerIDLen], p[:])
	}
	return buf, nil
}

// DecodeDiscoveryPayload parses a peer list payload.
func DecodeDiscoveryPayload(data []byte) (*DiscoveryPayload, error) {
	if len(data) < 1 {
		return nil, ErrPayloadTruncated
	}
	n := int(data[0])
	if n > MaxDiscoveryPeers {
		return nil, ErrTooManyEntries
	}
	if len(data) != 1+n*PeerIDLen {
		return nil, ErrPayloadTruncated
	}
	peers := make([]PeerID, n)
	for i := 0; i < n; i++ {
		copy(peers[i][:], data[1+i*PeerIDLen:1+(i+1)*PeerIDLen])
	}
	return &DiscoveryPayload{Peers: peers}, nil
}
