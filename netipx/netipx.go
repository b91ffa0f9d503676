// SPDX-License-Identifier: GPL-3.0-or-later

// Package netipx contains [net/netip] extensions.
package netipx

import (
	"net"
	"net/netip"
	"strings"
)

// AddrToAddrPort converts a [net.Addr] to a [netip.AddrPort].
//
// If the input is nil or neither a [*net.TCPAddr] nor [*net.UDPAddr],
// returns an unspecified IPv6 address with port 0.
func AddrToAddrPort(addr net.Addr) netip.AddrPort {
	switch v := addr.(type) {
	case *net.TCPAddr:
		return v.AddrPort()
	case *net.UDPAddr:
		return v.AddrPort()
	default:
		return netip.AddrPortFrom(netip.IPv6Unspecified(), 0)
	}
}

// IsIPLiteral returns whether host is an IPv4 or IPv6 address rather
// than a domain name. Square brackets around IPv6 addresses are accepted.
func IsIPLiteral(host string) bool {
	host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
	_, err := netip.ParseAddr(host)
	return err == nil
}

// AddressLiteral formats the IP address of addr the way SMTP expects
// an address literal in EHLO: "[192.0.2.1]" or "[IPv6:2001:db8::1]".
// It returns an empty string when addr carries no valid IP address.
func AddressLiteral(addr net.Addr) string {
	ip := AddrToAddrPort(addr).Addr().Unmap()
	switch {
	case !ip.IsValid() || ip.IsUnspecified():
		return ""
	case ip.Is4():
		return "[" + ip.String() + "]"
	default:
		return "[IPv6:" + ip.WithZone("").String() + "]"
	}
}
