// SPDX-License-Identifier: GPL-3.0-or-later

package dnslookup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/rbmk-project/common/errclass"
	"github.com/rbmk-project/common/runtimex"
	"github.com/rbmk-project/dnscore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startServer starts a DNS-over-UDP server on localhost serving
// the given records and returns its address.
func startServer(t *testing.T, records map[string][]dns.RR) *dnscore.ServerAddr {
	pconn := runtimex.Try1(net.ListenPacket("udp", "127.0.0.1:0"))
	started := make(chan struct{})
	server := &dns.Server{
		PacketConn:        pconn,
		NotifyStartedFunc: func() { close(started) },
		Handler: dns.HandlerFunc(func(w dns.ResponseWriter, req *dns.Msg) {
			resp := new(dns.Msg)
			resp.SetReply(req)
			q := req.Question[0]
			rrs, found := records[strings.ToLower(q.Name)]
			if !found {
				resp.Rcode = dns.RcodeNameError
			}
			for _, rr := range rrs {
				if rr.Header().Rrtype == q.Qtype {
					resp.Answer = append(resp.Answer, rr)
				}
			}
			w.WriteMsg(resp)
		}),
	}
	go server.ActivateAndServe()
	<-started
	t.Cleanup(func() { server.Shutdown() })
	return &dnscore.ServerAddr{
		Protocol: dnscore.ProtocolUDP,
		Address:  pconn.LocalAddr().String(),
	}
}

func newA(name, addr string) dns.RR {
	return &dns.A{
		Hdr: dns.RR_Header{Name: name, Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 300},
		A:   net.ParseIP(addr),
	}
}

func newAAAA(name, addr string) dns.RR {
	return &dns.AAAA{
		Hdr:  dns.RR_Header{Name: name, Rrtype: dns.TypeAAAA, Class: dns.ClassINET, Ttl: 300},
		AAAA: net.ParseIP(addr),
	}
}

func TestResolver_LookupHost(t *testing.T) {
	server := startServer(t, map[string][]dns.RR{
		"mx.example.com.": {
			newA("mx.example.com.", "192.0.2.25"),
			newAAAA("mx.example.com.", "2001:db8::25"),
		},
		"v4only.example.com.": {
			newA("v4only.example.com.", "192.0.2.26"),
		},
		"empty.example.com.": {},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	t.Run("A and AAAA records", func(t *testing.T) {
		reso := New(server)
		addrs, err := reso.LookupHost(ctx, "mx.example.com")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"192.0.2.25", "2001:db8::25"}, addrs)
	})

	t.Run("only A records", func(t *testing.T) {
		reso := New(server)
		addrs, err := reso.LookupHost(ctx, "v4only.example.com")
		require.NoError(t, err)
		assert.Equal(t, []string{"192.0.2.26"}, addrs)
	})

	t.Run("no records", func(t *testing.T) {
		reso := New(server)
		addrs, err := reso.LookupHost(ctx, "empty.example.com")
		require.Error(t, err)
		assert.Empty(t, addrs)
	})

	t.Run("nonexistent domain", func(t *testing.T) {
		reso := New(server)
		addrs, err := reso.LookupHost(ctx, "nxdomain.example.com")
		require.Error(t, err)
		assert.Empty(t, addrs)
		assert.Equal(t, errclass.EDNS_NONAME, errclass.New(err))
	})

	t.Run("nil transport uses a default one", func(t *testing.T) {
		reso := &Resolver{Server: server}
		addrs, err := reso.LookupHost(ctx, "v4only.example.com")
		require.NoError(t, err)
		assert.Equal(t, []string{"192.0.2.26"}, addrs)
	})

	t.Run("transport failure", func(t *testing.T) {
		expectedErr := errors.New("mocked dial error")
		reso := New(server)
		reso.Transport.DialContext = func(ctx context.Context, network, address string) (net.Conn, error) {
			return nil, expectedErr
		}
		addrs, err := reso.LookupHost(ctx, "mx.example.com")
		require.Error(t, err)
		assert.Empty(t, addrs)
	})

	t.Run("structured logging", func(t *testing.T) {
		var buf bytes.Buffer
		fixedTime := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		reso := New(server)
		reso.Logger = slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if a.Key == slog.TimeKey {
					return slog.Attr{}
				}
				return a
			},
		}))
		reso.TimeNow = func() time.Time { return fixedTime }

		_, err := reso.LookupHost(ctx, "v4only.example.com")
		require.NoError(t, err)

		logs := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, logs, 1)

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(logs[0]), &entry))
		assert.Equal(t, "dnsLookupDone", entry["msg"])
		assert.Equal(t, "v4only.example.com", entry["domain"])
		assert.Equal(t, []interface{}{"192.0.2.26"}, entry["addrs"])
		assert.Equal(t, "", entry["errClass"])
		assert.Equal(t, server.Address, entry["dnsServerAddr"])
		assert.Equal(t, fixedTime.Format(time.RFC3339Nano), entry["t0"])
	})

	t.Run("logging a failure", func(t *testing.T) {
		var buf bytes.Buffer
		reso := New(server)
		reso.Logger = slog.New(slog.NewJSONHandler(&buf, nil))

		_, err := reso.LookupHost(ctx, "nxdomain.example.com")
		require.Error(t, err)

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
		assert.Equal(t, "EDNS_NONAME", entry["errClass"])
		assert.Equal(t, err.Error(), entry["err"])
	})
}
