package transport

import "errors"

// ErrTransportClosed reports that the channel's underlying process exited or
// the channel was closed while a request was outstanding.
var ErrTransportClosed = errors.New("transport closed")

// ErrRequestTimeout reports that no response arrived within the call's
// deadline. The child process keeps running; only the offending call fails.
var ErrRequestTimeout = errors.New("request timeout")
