package main

import (
	"github.com/fluxon-mesh/fluxon/pkg/group"
	"github.com/fluxon-mesh/fluxon/pkg/wire"
)

// sealChatPayload JSON-encodes a chat message and, if g is non-nil, seals
// it under the group AEAD before it is handed to the mesh service. The
// mesh's own Noise sessions already encrypt the packet hop-by-hop to
// whichever peer relays it; sealing the payload under the group key on
// top of that keeps the chat text unreadable to a relaying peer that
// carries a valid session but never joined this group.
func sealChatPayload(g *group.Group, senderID wire.PeerID, text, name string) ([]byte, error) {
	plaintext, err := wire.EncodeChatPayload(&wire.ChatPayload{Text: text, Name: name})
	if err != nil {
		return nil, err
	}
	if g == nil {
		return plaintext, nil
	}
	ad := group.BuildAD(byte(wire.TypeChat), senderID[:])
	return group.Seal(g, ad, plaintext)
}

// openChatPayload reverses sealChatPayload for an inbound packet.
func openChatPayload(g *group.Group, pkt *wire.Packet) (*wire.ChatPayload, error) {
	payload := pkt.Payload
	if g != nil {
		ad := group.BuildAD(byte(pkt.Type), pkt.SourceID[:])
		plaintext, err := group.Open(g, ad, payload)
		if err != nil {
			return nil, err
		}
		payload = plaintext
	}
	return wire.DecodeChatPayload(payload)
}
