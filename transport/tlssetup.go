//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// TLS setup capability and default config.
//

package transport

import (
	"crypto/tls"
	"errors"
)

// TLSSetup configures the TLS client config used by [*Network.ConnectSecure].
//
// SetupTLS receives the default config and returns the config to use, either
// the same instance modified in place or a different one. Returning an error
// aborts the connect attempt before any network activity. SetupTLS runs
// synchronously, exactly once per connect attempt, and must not block.
type TLSSetup interface {
	SetupTLS(config *tls.Config) (*tls.Config, error)
}

// TLSSetupFunc adapts a function to the [TLSSetup] interface.
type TLSSetupFunc func(config *tls.Config) (*tls.Config, error)

var _ TLSSetup = TLSSetupFunc(nil)

// SetupTLS implements [TLSSetup].
func (fx TLSSetupFunc) SetupTLS(config *tls.Config) (*tls.Config, error) {
	return fx(config)
}

// DefaultTLSSetup is the [TLSSetup] returning the default config unchanged.
type DefaultTLSSetup struct{}

var _ TLSSetup = DefaultTLSSetup{}

// SetupTLS implements [TLSSetup].
func (DefaultTLSSetup) SetupTLS(config *tls.Config) (*tls.Config, error) {
	return config, nil
}

var (
	// ErrEmptyHostname indicates that ConnectSecure was called without
	// the hostname used for certificate validation.
	ErrEmptyHostname = errors.New("empty TLS hostname")

	// ErrNilTLSConfig indicates that a [TLSSetup] returned a nil config
	// along with a nil error.
	ErrNilTLSConfig = errors.New("TLS setup returned a nil config")
)

// newTLSConfig returns the default config passed to [TLSSetup]. Its
// ServerName is always the given hostname.
func (nx *Network) newTLSConfig(hostname string) *tls.Config {
	if nx.TLSConfig != nil {
		config := nx.TLSConfig.Clone()
		config.ServerName = hostname
		return config
	}
	return &tls.Config{
		MinVersion: tls.VersionTLS12,
		RootCAs:    nx.RootCAs,
		ServerName: hostname,
	}
}

// setupTLS builds the default config and passes it to setup. The returned
// config is a private copy whose ServerName is the given hostname.
func (nx *Network) setupTLS(hostname string, setup TLSSetup) (*tls.Config, error) {
	if hostname == "" {
		return nil, ErrEmptyHostname
	}
	if setup == nil {
		setup = DefaultTLSSetup{}
	}
	config, err := setup.SetupTLS(nx.newTLSConfig(hostname))
	if err != nil {
		return nil, err
	}
	if config == nil {
		return nil, ErrNilTLSConfig
	}
	config = config.Clone()
	config.ServerName = hostname
	return config, nil
}
