// SPDX-License-Identifier: MIT
package udp

import (
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"audiovis/internal/mapping"
	"audiovis/internal/scene"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTransform(i int) mapping.MeshTransform {
	t := mapping.RestPose(4, i)
	t.Scale.Y = 1 + float64(i)/10
	t.Rotation.Y = 0.5
	t.Position.Y = -0.25
	t.Color = mapping.HSL{H: 0.25, S: 0.8, L: 0.6}
	t.EmissiveIntensity = 0.15
	t.Level = 0.5
	return t
}

func TestPacketLayout(t *testing.T) {
	meshes := []mapping.MeshTransform{sampleTransform(0), sampleTransform(3)}
	b := AppendPacket(nil, 9, 1_700_000_000_000_000_000, meshes)
	require.Len(t, b, HeaderSize+2*MeshRecordSize)

	p, err := ParsePacket(b)
	require.NoError(t, err)
	assert.Equal(t, uint32(9), p.Sequence)
	assert.Equal(t, int64(1_700_000_000_000_000_000), p.Timestamp)
	require.Len(t, p.Meshes, 2)
	assert.Equal(t, [FieldsPerMesh]float32{1, 1.3, 1, 0.5, -0.25, 0.25, 0.8, 0.6, 0.15, 0.5}, p.Meshes[1])

	_, err = ParsePacket(b[:10])
	assert.ErrorIs(t, err, errShortPacket)
	_, err = ParsePacket(b[:len(b)-1])
	assert.ErrorIs(t, err, errShortPacket)
}

func TestPacketTruncatesLargeGrids(t *testing.T) {
	meshes := make([]mapping.MeshTransform, 64*64)
	b := AppendPacket(nil, 1, 0, meshes)
	assert.LessOrEqual(t, len(b), 65507)
	p, err := ParsePacket(b)
	require.NoError(t, err)
	assert.Len(t, p.Meshes, MaxMeshes)
}

type recordingSink struct {
	mu      sync.Mutex
	packets [][]byte
	err     error
}

func (s *recordingSink) Send(b []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.packets = append(s.packets, append([]byte(nil), b...))
	return s.err
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.packets)
}

type staticSnapshot scene.Snapshot

func (s staticSnapshot) Snapshot() scene.Snapshot { return scene.Snapshot(s) }

func TestFramePublisher(t *testing.T) {
	snap := staticSnapshot{Meshes: []scene.MeshState{{Handle: 1, Transform: sampleTransform(0)}, {Handle: 2, Transform: sampleTransform(1)}}}
	sink := &recordingSink{err: errors.New("ignored")}
	pub, err := newFramePublisher(time.Millisecond, sink, snap)
	require.NoError(t, err)
	pub.now = func() time.Time { return time.Unix(0, 42) }

	pub.Start()
	pub.Start()
	require.Eventually(t, func() bool { return sink.count() >= 3 }, 2*time.Second, time.Millisecond)
	require.NoError(t, pub.Stop())
	require.NoError(t, pub.Close())

	sent := sink.count()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, sent, sink.count(), "no packets after Stop")

	for i, b := range sink.packets {
		p, err := ParsePacket(b)
		require.NoError(t, err)
		assert.Equal(t, uint32(i+1), p.Sequence)
		assert.Equal(t, int64(42), p.Timestamp)
		assert.Len(t, p.Meshes, 2)
	}
}

func TestNewFramePublisherValidation(t *testing.T) {
	_, err := NewFramePublisher(time.Millisecond, nil, staticSnapshot{})
	assert.Error(t, err)
	_, err = newFramePublisher(time.Millisecond, &recordingSink{}, nil)
	assert.Error(t, err)

	pub, err := newFramePublisher(0, &recordingSink{}, staticSnapshot{})
	require.NoError(t, err)
	assert.Equal(t, 16*time.Millisecond, pub.interval)
}

func TestSenderRoundTrip(t *testing.T) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer conn.Close()

	sender, err := NewSender(conn.LocalAddr().String())
	require.NoError(t, err)

	require.NoError(t, sender.Send([]byte("frame")))
	buf := make([]byte, 64)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, _, err := conn.ReadFromUDP(buf)
	require.NoError(t, err)
	assert.Equal(t, "frame", string(buf[:n]))

	require.NoError(t, sender.Close())
	require.NoError(t, sender.Close())
	assert.Error(t, sender.Send([]byte("late")))

	_, err = NewSender("not an address")
	assert.Error(t, err)
}
