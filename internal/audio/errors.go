// SPDX-License-Identifier: MIT
package audio

import "errors"

// Engine errors. Failures wrap one of these together with the underlying
// cause, so callers match with errors.Is and still see the detail.
var (
	// ErrInitialization means the host audio subsystem or the analyser could
	// not be set up. The engine must be initialised again.
	ErrInitialization = errors.New("audio initialization failed")
	// ErrDecode means the input is malformed or not a supported format. The
	// previously loaded asset, if any, stays usable.
	ErrDecode = errors.New("audio decode failed")
	// ErrFetch means the encoded bytes could not be read. Retrying is up to
	// the caller.
	ErrFetch = errors.New("audio fetch failed")
	// ErrNoAsset means a transport call was made with nothing loaded.
	ErrNoAsset = errors.New("no audio asset loaded")
	// ErrDisposed means the engine was disposed.
	ErrDisposed = errors.New("audio engine disposed")
)
