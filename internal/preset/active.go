// SPDX-License-Identifier: MIT
package preset

import "sync/atomic"

// Active holds the preset currently driving the scene. It may be swapped
// from any goroutine; the scene controller re-reads it every tick.
type Active struct {
	p atomic.Pointer[Preset]
}

// NewActive returns an Active holding p, or Default when p is invalid.
func NewActive(p Preset) *Active {
	a := &Active{}
	if err := a.Store(p); err != nil {
		def := Default()
		a.p.Store(&def)
	}
	return a
}

// Load returns the current preset.
func (a *Active) Load() Preset {
	return *a.p.Load()
}

// Store validates p and makes it current.
func (a *Active) Store(p Preset) error {
	p, err := New(p)
	if err != nil {
		return err
	}
	a.p.Store(&p)
	return nil
}
