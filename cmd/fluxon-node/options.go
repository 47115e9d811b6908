package main

import (
	"flag"
	"fmt"
)

// Options holds the fluxon-node CLI flags.
type Options struct {
	// Port is the LAN adapter's UDP/multicast port.
	Port int

	// Name is both this node's mDNS instance name and its chat display
	// name.
	Name string

	// StoragePath is the file-store path. Empty means in-memory-only: the
	// node's identity and group membership are lost on exit.
	StoragePath string

	// GroupName labels the group locally; it is never transmitted.
	GroupName string

	// Passphrase derives the group key. Required to create or join a
	// group; if empty the node runs ungrouped (handshakes and relays
	// normally, but has no group to seal application payloads under).
	Passphrase string

	// JoinCode, if set, joins an existing group's salt instead of
	// minting a fresh one with CreateGroup.
	JoinCode string
}

// DefaultOptions returns Options with sensible defaults for local testing.
func DefaultOptions() Options {
	return Options{
		Port:      28765,
		Name:      "fluxon-node",
		GroupName: "default",
	}
}

// ParseFlags parses the standard fluxon-node flags:
//
//	-port        LAN adapter UDP/multicast port (default: 28765)
//	-name        Node name, used for mDNS and chat display (default: "fluxon-node")
//	-storage     Path for encrypted persistent storage (default: in-memory)
//	-group       Local label for the joined/created group (default: "default")
//	-passphrase  Group passphrase; empty runs ungrouped
//	-join-code   Join an existing group by its join code instead of creating one
func ParseFlags() Options {
	defaults := DefaultOptions()
	o := Options{}

	flag.IntVar(&o.Port, "port", defaults.Port, "LAN adapter UDP/multicast port")
	flag.StringVar(&o.Name, "name", defaults.Name, "Node name (mDNS instance + chat display name)")
	flag.StringVar(&o.StoragePath, "storage", "", "Path for encrypted persistent storage (empty = in-memory)")
	flag.StringVar(&o.GroupName, "group", defaults.GroupName, "Local label for the group")
	flag.StringVar(&o.Passphrase, "passphrase", "", "Group passphrase (empty = run ungrouped)")
	flag.StringVar(&o.JoinCode, "join-code", "", "Join an existing group by its join code, instead of creating one")
	flag.Parse()

	return o
}

func (o Options) String() string {
	return fmt.Sprintf("port=%d name=%q storage=%q group=%q", o.Port, o.Name, o.StoragePath, o.GroupName)
}
