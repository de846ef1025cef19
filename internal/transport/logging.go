// SPDX-License-Identifier: MIT
package transport

import (
	"encoding/json"
	"sync/atomic"

	applog "audiovis/internal/log"
)

// LoggingTransport implements the Transport interface by logging data at
// debug level. Every value is counted; only one in Every is logged so a
// 60 Hz frame stream does not flood the log.
type LoggingTransport struct {
	Every uint64
	sent  atomic.Uint64
}

// NewLoggingTransport creates a LoggingTransport that logs one value in every.
func NewLoggingTransport(every uint64) *LoggingTransport {
	if every == 0 {
		every = 1
	}
	logger.Infof("using LoggingTransport (every %d)", every)
	return &LoggingTransport{Every: every}
}

// Send logs the received data. It never fails.
func (lt *LoggingTransport) Send(data any) error {
	n := lt.sent.Add(1)
	if applog.GetLevel() > applog.LevelDebug {
		return nil
	}
	if lt.Every > 1 && n%lt.Every != 1 {
		return nil
	}
	jsonData, err := json.Marshal(data)
	if err != nil {
		logger.Debugf("#%d (%T): %+v (JSON marshal error: %v)", n, data, data, err)
		return nil
	}
	logger.Debugf("#%d (%T): %s", n, data, jsonData)
	return nil
}

// Sent returns the number of values received.
func (lt *LoggingTransport) Sent() uint64 { return lt.sent.Load() }

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	logger.Debugf("LoggingTransport closed after %d values", lt.sent.Load())
	return nil
}

// Ensure LoggingTransport satisfies the interface at compile time.
var _ Transport = (*LoggingTransport)(nil)
