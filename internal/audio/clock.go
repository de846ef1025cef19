// SPDX-License-Identifier: MIT
package audio

import "time"

// Clock supplies wall-clock time for the transport position and the beat
// detector timestamps.
type Clock interface {
	Now() time.Time
}

// SystemClock reads time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
