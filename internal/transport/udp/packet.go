// SPDX-License-Identifier: MIT
package udp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"audiovis/internal/mapping"
)

/*
Frame Packet Structure (BigEndian)

+-----------------------------------------------------------------------------+
| Field             | Data Type      | Size (Bytes) | Description             |
|-------------------|----------------|--------------|-------------------------|
| Sequence Number   | uint32         | 4            | Monotonically increasing|
| Timestamp         | int64          | 8            | Nanoseconds since epoch |
| Mesh Count        | uint16         | 2            | Number of meshes (N)    |
| Meshes            | [10]float32    | N * 40       | One record per mesh     |
+-----------------------------------------------------------------------------+

Mesh record, in order: scale x, scale y, scale z, rotation y, position y,
hue, saturation, lightness, emissive intensity, level.

Lattice x/z positions are not sent; receivers derive them from N.
*/

// Packet layout sizes.
const (
	HeaderSize     = 4 + 8 + 2
	FieldsPerMesh  = 10
	MeshRecordSize = FieldsPerMesh * 4

	// maxDatagram is the largest IPv4 UDP payload.
	maxDatagram = 65507
	// MaxMeshes is the most meshes one packet can carry. Larger grids are
	// truncated.
	MaxMeshes = (maxDatagram - HeaderSize) / MeshRecordSize
)

var errShortPacket = errors.New("short packet")

// Packet is a decoded frame packet.
type Packet struct {
	Sequence  uint32
	Timestamp int64
	Meshes    [][FieldsPerMesh]float32
}

// meshRecord flattens t into the wire field order.
func meshRecord(t mapping.MeshTransform) [FieldsPerMesh]float32 {
	return [FieldsPerMesh]float32{
		float32(t.Scale.X), float32(t.Scale.Y), float32(t.Scale.Z),
		float32(t.Rotation.Y), float32(t.Position.Y),
		float32(t.Color.H), float32(t.Color.S), float32(t.Color.L),
		float32(t.EmissiveIntensity), float32(t.Level),
	}
}

// AppendPacket appends the encoded packet to dst and returns the extended
// slice. Meshes beyond MaxMeshes are dropped.
func AppendPacket(dst []byte, seq uint32, timestamp int64, meshes []mapping.MeshTransform) []byte {
	if len(meshes) > MaxMeshes {
		meshes = meshes[:MaxMeshes]
	}
	dst = appendHeader(dst, seq, timestamp, len(meshes))
	for _, t := range meshes {
		dst = appendMesh(dst, t)
	}
	return dst
}

func appendHeader(dst []byte, seq uint32, timestamp int64, meshes int) []byte {
	dst = binary.BigEndian.AppendUint32(dst, seq)
	dst = binary.BigEndian.AppendUint64(dst, uint64(timestamp))
	return binary.BigEndian.AppendUint16(dst, uint16(meshes))
}

func appendMesh(dst []byte, t mapping.MeshTransform) []byte {
	for _, f := range meshRecord(t) {
		dst = binary.BigEndian.AppendUint32(dst, math.Float32bits(f))
	}
	return dst
}

// ParsePacket decodes a frame packet.
func ParsePacket(b []byte) (Packet, error) {
	if len(b) < HeaderSize {
		return Packet{}, fmt.Errorf("%w: %d bytes", errShortPacket, len(b))
	}
	p := Packet{
		Sequence:  binary.BigEndian.Uint32(b[0:4]),
		Timestamp: int64(binary.BigEndian.Uint64(b[4:12])),
	}
	n := int(binary.BigEndian.Uint16(b[12:14]))
	body := b[HeaderSize:]
	if len(body) < n*MeshRecordSize {
		return Packet{}, fmt.Errorf("%w: %d meshes need %d bytes, have %d", errShortPacket, n, n*MeshRecordSize, len(body))
	}
	p.Meshes = make([][FieldsPerMesh]float32, n)
	for i := range p.Meshes {
		rec := body[i*MeshRecordSize:]
		for f := range FieldsPerMesh {
			p.Meshes[i][f] = math.Float32frombits(binary.BigEndian.Uint32(rec[f*4:]))
		}
	}
	return p, nil
}
