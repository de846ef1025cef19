// SPDX-License-Identifier: MIT
package udp

import (
	"fmt"
	"sync"
	"time"

	"audiovis/internal/scene"
)

// SnapshotSource is the scene graph the publisher reads from. It must be
// safe to call from the publisher goroutine.
type SnapshotSource interface {
	Snapshot() scene.Snapshot
}

// packetSink is the part of Sender the publisher needs.
type packetSink interface {
	Send([]byte) error
}

// FramePublisher periodically snapshots the scene graph, packs the mesh
// transforms into the frame packet format and sends them over UDP. It runs
// in a separate goroutine managed by Start and Stop.
type FramePublisher struct {
	sender   packetSink
	source   SnapshotSource
	interval time.Duration
	now      func() time.Time

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex // Protects ticker and doneChan during Start/Stop.

	sequenceNum uint32
	packet      []byte // Reused between packets.
	truncated   bool
}

// NewFramePublisher creates a FramePublisher. An interval <= 0 defaults to
// 16ms (~60Hz).
func NewFramePublisher(interval time.Duration, sender *Sender, source SnapshotSource) (*FramePublisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("FramePublisher: UDP sender cannot be nil")
	}
	return newFramePublisher(interval, sender, source)
}

func newFramePublisher(interval time.Duration, sender packetSink, source SnapshotSource) (*FramePublisher, error) {
	if source == nil {
		return nil, fmt.Errorf("FramePublisher: snapshot source cannot be nil")
	}
	if interval <= 0 {
		interval = 16 * time.Millisecond
		logger.Warnf("invalid publish interval, defaulting to %s", interval)
	}
	logger.Infof("frame publisher initialized (interval: %s)", interval)
	return &FramePublisher{
		sender:   sender,
		source:   source,
		interval: interval,
		now:      time.Now,
		packet:   make([]byte, 0, HeaderSize+64*MeshRecordSize),
	}, nil
}

// Start begins the periodic publishing process. Subsequent calls are no-ops
// while running.
func (p *FramePublisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		logger.Warnf("Start called but already running")
		return
	}
	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}
	ticker, doneChan := p.ticker, p.doneChan
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for {
			select {
			case <-ticker.C:
				p.publish()
			case <-doneChan:
				return
			}
		}
	}()
}

// Stop signals the publisher goroutine to terminate and waits for it to
// exit. It is safe to call Stop multiple times.
func (p *FramePublisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return nil
	}
	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})
	p.mu.Unlock()

	p.wg.Wait()
	logger.Debugf("frame publisher stopped after %d packets", p.sequenceNum)
	return nil
}

// publish sends one packet built from the current snapshot.
func (p *FramePublisher) publish() {
	snap := p.source.Snapshot()
	if len(snap.Meshes) > MaxMeshes && !p.truncated {
		logger.Warnf("grid of %d meshes exceeds %d per packet, truncating", len(snap.Meshes), MaxMeshes)
		p.truncated = true
	}

	p.sequenceNum++
	p.packet = p.packet[:0]
	p.packet = appendSnapshot(p.packet, p.sequenceNum, p.now().UnixNano(), snap.Meshes)

	if err := p.sender.Send(p.packet); err == nil {
		logger.Debugf("sent packet %d (%d bytes)", p.sequenceNum, len(p.packet))
	}
}

func appendSnapshot(dst []byte, seq uint32, ts int64, meshes []scene.MeshState) []byte {
	if len(meshes) > MaxMeshes {
		meshes = meshes[:MaxMeshes]
	}
	dst = appendHeader(dst, seq, ts, len(meshes))
	for _, m := range meshes {
		dst = appendMesh(dst, m.Transform)
	}
	return dst
}

// Close stops the publisher. It does not close the sender.
func (p *FramePublisher) Close() error {
	return p.Stop()
}

// Ensure FramePublisher satisfies the io.Closer interface at compile time.
var _ interface{ Close() error } = (*FramePublisher)(nil)
