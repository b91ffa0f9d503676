// SPDX-License-Identifier: GPL-3.0-or-later

// Package dnslookup resolves mail server names using a specific DNS
// server through [github.com/rbmk-project/dnscore].
//
// The [*Resolver.LookupHost] method has the signature expected by the
// LookupHostFunc field of the transport Network.
package dnslookup

import (
	"context"
	"log/slog"
	"time"

	"github.com/rbmk-project/common/errclass"
	"github.com/rbmk-project/dnscore"
)

// Resolver looks up A and AAAA records using a single DNS server.
//
// Construct using [New].
type Resolver struct {
	// Logger is the optional structured logger.
	Logger *slog.Logger

	// Server is the DNS server to query.
	Server *dnscore.ServerAddr

	// TimeNow is an optional function that returns the current time.
	TimeNow func() time.Time

	// Transport is the optional transport used to send queries. If
	// this field is nil, we use a zero-value [dnscore.Transport].
	Transport *dnscore.Transport
}

// New creates a new [*Resolver] querying the given server.
func New(server *dnscore.ServerAddr) *Resolver {
	return &Resolver{
		Server:    server,
		Transport: &dnscore.Transport{},
	}
}

// LookupHost returns the IPv4 and IPv6 addresses of domain. Failures
// are the errors of [*dnscore.Resolver], so [errclass.New] maps a
// nonexistent domain to EDNS_NONAME and an empty answer to EDNS_NODATA.
func (r *Resolver) LookupHost(ctx context.Context, domain string) ([]string, error) {
	t0 := r.timeNow()
	addrs, err := r.newResolver().LookupHost(ctx, domain)
	if r.Logger != nil {
		r.Logger.InfoContext(
			ctx,
			"dnsLookupDone",
			slog.Any("addrs", addrs),
			slog.String("dnsServerAddr", r.Server.Address),
			slog.Any("dnsServerProtocol", r.Server.Protocol),
			slog.String("domain", domain),
			slog.Any("err", err),
			slog.String("errClass", errclass.New(err)),
			slog.Time("t0", t0),
			slog.Time("t", r.timeNow()),
		)
	}
	return addrs, err
}

// newResolver configures a [*dnscore.Resolver] using our server and transport.
func (r *Resolver) newResolver() *dnscore.Resolver {
	reso := &dnscore.Resolver{}
	reso.Config = dnscore.NewConfig()
	reso.Config.AddServer(r.Server)
	reso.Transport = r.transport()
	return reso
}

func (r *Resolver) transport() *dnscore.Transport {
	if r.Transport != nil {
		return r.Transport
	}
	return &dnscore.Transport{}
}

func (r *Resolver) timeNow() time.Time {
	if r.TimeNow != nil {
		return r.TimeNow()
	}
	return time.Now()
}
