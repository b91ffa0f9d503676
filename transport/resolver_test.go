// SPDX-License-Identifier: GPL-3.0-or-later

package transport

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetwork_maybeLookupEndpoint(t *testing.T) {
	t.Run("invalid endpoint format", func(t *testing.T) {
		nx := &Network{}
		_, err := nx.maybeLookupEndpoint(context.Background(), "invalid:endpoint:format")
		assert.Error(t, err)
	})

	t.Run("lookup error", func(t *testing.T) {
		expectedErr := errors.New("mocked lookup error")
		nx := &Network{
			LookupHostFunc: func(ctx context.Context, domain string) ([]string, error) {
				return nil, expectedErr
			},
		}
		_, err := nx.maybeLookupEndpoint(context.Background(), "mx.example.com:25")
		assert.ErrorIs(t, err, expectedErr)
	})

	t.Run("successful lookup", func(t *testing.T) {
		nx := &Network{
			LookupHostFunc: func(ctx context.Context, domain string) ([]string, error) {
				return []string{"192.0.2.25", "2001:db8::25"}, nil
			},
		}
		endpoints, err := nx.maybeLookupEndpoint(context.Background(), "mx.example.com:587")
		require.NoError(t, err)
		assert.Equal(t, []string{"192.0.2.25:587", "[2001:db8::25]:587"}, endpoints)
	})

	t.Run("IPv6 literal", func(t *testing.T) {
		nx := &Network{}
		endpoints, err := nx.maybeLookupEndpoint(context.Background(), "[2001:db8::25]:465")
		require.NoError(t, err)
		assert.Equal(t, []string{"[2001:db8::25]:465"}, endpoints)
	})
}

func TestNetwork_maybeLookupHost(t *testing.T) {
	t.Run("IP address short circuit", func(t *testing.T) {
		var buf bytes.Buffer
		nx := &Network{
			Logger: newJSONLogger(&buf),
			LookupHostFunc: func(ctx context.Context, domain string) ([]string, error) {
				return nil, errors.New("should not be called")
			},
		}
		addrs, err := nx.maybeLookupHost(context.Background(), "192.0.2.25")
		require.NoError(t, err)
		assert.Equal(t, []string{"192.0.2.25"}, addrs)
		assert.Empty(t, buf.String())
	})

	t.Run("custom lookup success with logging", func(t *testing.T) {
		var buf bytes.Buffer
		nx := &Network{
			Logger:  newJSONLogger(&buf),
			TimeNow: func() time.Time { return fixedTime },
			LookupHostFunc: func(ctx context.Context, domain string) ([]string, error) {
				return []string{"192.0.2.25"}, nil
			},
		}
		addrs, err := nx.maybeLookupHost(context.Background(), "mx.example.com")
		require.NoError(t, err)
		assert.Equal(t, []string{"192.0.2.25"}, addrs)

		logs := parseLogs(t, &buf)
		require.Len(t, logs, 2)
		assert.Equal(t, map[string]interface{}{
			"level":  "INFO",
			"msg":    "lookupHostStart",
			"domain": "mx.example.com",
			"t":      fixedTime.Format(time.RFC3339Nano),
		}, logs[0])
		assert.Equal(t, map[string]interface{}{
			"level":    "INFO",
			"msg":      "lookupHostDone",
			"addrs":    []interface{}{"192.0.2.25"},
			"domain":   "mx.example.com",
			"err":      nil,
			"errClass": "",
			"t0":       fixedTime.Format(time.RFC3339Nano),
			"t":        fixedTime.Format(time.RFC3339Nano),
		}, logs[1])
	})

	t.Run("custom lookup error", func(t *testing.T) {
		expectedErr := errors.New("mocked lookup error")
		nx := &Network{
			LookupHostFunc: func(ctx context.Context, domain string) ([]string, error) {
				return nil, expectedErr
			},
		}
		_, err := nx.maybeLookupHost(context.Background(), "mx.example.com")
		assert.ErrorIs(t, err, expectedErr)
	})

	t.Run("system resolver", func(t *testing.T) {
		nx := &Network{}
		addrs, err := nx.maybeLookupHost(context.Background(), "localhost")
		require.NoError(t, err)
		assert.NotEmpty(t, addrs)
	})
}
