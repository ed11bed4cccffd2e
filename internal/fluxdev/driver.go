package fluxdev

import "errors"

// ErrNoDriver is returned by Dial when no protocol driver has been
// registered.
var ErrNoDriver = errors.New("fluxdev: no device driver registered")

// DialFunc opens a Client for a device host.
type DialFunc func(host string) (Client, error)

var dialer DialFunc = func(string) (Client, error) { return nil, ErrNoDriver }

// RegisterDriver installs the protocol implementation Dial delegates
// to. The wire protocol lives outside this module; a driver package
// registers itself here, usually from init, the way database/sql
// drivers do.
func RegisterDriver(d DialFunc) { dialer = d }

// Dial opens a client for host using the registered driver.
func Dial(host string) (Client, error) { return dialer(host) }
