// SPDX-License-Identifier: GPL-3.0-or-later

/*
Package transport establishes plaintext and TLS connections to an SMTP
peer and returns both behind the same [*Handle].

The protocol code layered above this package reads and writes through
a [*Handle] without knowing whether it holds a plain or a secure stream.

# Features

- [*Network.ConnectInsecure] dials a plaintext TCP connection;

- [*Network.ConnectSecure] configures TLS through a caller supplied
[TLSSetup], dials, and performs the TLS handshake;

- structured connection events via the [log/slog] package.

# Ordering

ConnectSecure runs its steps strictly in order: TLS setup, name
resolution, dial, handshake. A failing step terminates the attempt
and releases whatever the previous steps created. In particular, a
failing [TLSSetup] prevents any network activity.
*/
package transport
