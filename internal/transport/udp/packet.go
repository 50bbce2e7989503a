// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

/*
UDP Packet Structure (BigEndian)

+-----------------------------------------------------------------------------+
| Field             | Data Type      | Size (Bytes) | Description             |
|-------------------|----------------|--------------|-------------------------|
| Sequence Number   | uint32         | 4            | Monotonically increasing|
| Timestamp         | int64          | 8            | Nanoseconds since epoch |
| Bin Width         | float32        | 4            | Hz between points       |
| Vertical Extent   | float32        | 4            | Current vertical scale  |
| Magnitude Count   | uint16         | 2            | Number of floats (N)    |
| Magnitudes        | []float32      | N * 4        | Frequency curve values  |
+-----------------------------------------------------------------------------+

Point i of the curve sits at i * BinWidth Hz. A count of zero marks a reset.
*/

// HeaderSize is the number of bytes before the magnitudes.
const HeaderSize = 4 + 8 + 4 + 4 + 2

// MaxDatagram is the largest UDP payload over IPv4.
const MaxDatagram = 65507

// MaxPoints is the largest curve a packet can carry in one datagram.
const MaxPoints = (MaxDatagram - HeaderSize) / 4

// ErrShortPacket is returned by DecodePacket for truncated input.
var ErrShortPacket = errors.New("udp: short packet")

// Packet is the decoded form of one spectrum datagram.
type Packet struct {
	Sequence       uint32
	Timestamp      int64
	BinWidth       float32
	VerticalExtent float32
	Magnitudes     []float32
}

// EncodePacket writes p into buf, replacing its contents.
func EncodePacket(buf *bytes.Buffer, p *Packet) error {
	if len(p.Magnitudes) > MaxPoints {
		return fmt.Errorf("udp: %d points exceed packet limit %d", len(p.Magnitudes), MaxPoints)
	}

	buf.Reset()
	buf.Grow(HeaderSize + 4*len(p.Magnitudes))

	var hdr [HeaderSize]byte
	binary.BigEndian.PutUint32(hdr[0:], p.Sequence)
	binary.BigEndian.PutUint64(hdr[4:], uint64(p.Timestamp))
	binary.BigEndian.PutUint32(hdr[12:], math.Float32bits(p.BinWidth))
	binary.BigEndian.PutUint32(hdr[16:], math.Float32bits(p.VerticalExtent))
	binary.BigEndian.PutUint16(hdr[20:], uint16(len(p.Magnitudes)))
	buf.Write(hdr[:])

	var word [4]byte
	for _, v := range p.Magnitudes {
		binary.BigEndian.PutUint32(word[:], math.Float32bits(v))
		buf.Write(word[:])
	}
	return nil
}

// DecodePacket parses a datagram produced by EncodePacket.
func DecodePacket(data []byte) (Packet, error) {
	if len(data) < HeaderSize {
		return Packet{}, ErrShortPacket
	}

	p := Packet{
		Sequence:       binary.BigEndian.Uint32(data[0:]),
		Timestamp:      int64(binary.BigEndian.Uint64(data[4:])),
		BinWidth:       math.Float32frombits(binary.BigEndian.Uint32(data[12:])),
		VerticalExtent: math.Float32frombits(binary.BigEndian.Uint32(data[16:])),
	}
	n := int(binary.BigEndian.Uint16(data[20:]))
	body := data[HeaderSize:]
	if len(body) < 4*n {
		return Packet{}, fmt.Errorf("%w: want %d points, have %d bytes", ErrShortPacket, n, len(body))
	}

	p.Magnitudes = make([]float32, n)
	for i := range p.Magnitudes {
		p.Magnitudes[i] = math.Float32frombits(binary.BigEndian.Uint32(body[4*i:]))
	}
	return p, nil
}
