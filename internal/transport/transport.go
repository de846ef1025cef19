// SPDX-License-Identifier: MIT

// Package transport publishes frames to renderers and other observers
// outside the process.
package transport

import (
	"errors"

	applog "audiovis/internal/log"
)

var logger = applog.For("transport")

// Transport defines a generic interface for sending frames or events.
// Implementations must be safe for concurrent use and must not block the
// caller for longer than it takes to queue the value.
type Transport interface {
	Send(data any) error
	Close() error
}

// Multi fans every value out to all of its transports. A failing transport
// does not stop delivery to the others; their errors are joined.
type Multi []Transport

func (m Multi) Send(data any) error {
	var errs []error
	for _, t := range m {
		if err := t.Send(data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, t := range m {
		if err := t.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops everything. It is used when no transport is configured.
type Discard struct{}

func (Discard) Send(any) error { return nil }
func (Discard) Close() error   { return nil }

// Ensure implementations satisfy the interface at compile time.
var (
	_ Transport = Multi(nil)
	_ Transport = Discard{}
)
