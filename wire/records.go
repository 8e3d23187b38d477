// Package wire implements a compact length-prefixed TLV (Type-Length-Value)
// record codec, adapted from the ToyTLV format used internally by this
// module's own lineage for wire framing.
//
// Halo exchange messages (picfield/halo.go) never need this package: a
// halo message is a contiguous, header-less buffer of length ex*ey*ez
// negotiated entirely from the precomputed send/recv ranges (see
// spec §6). Particle migration is different — a migrating particle
// carries one heterogeneous payload per attribute (position, ID, and
// whatever else the caller registered), so the receiver needs a
// self-describing framing to tell the attributes' payloads apart and
// to know how many particles arrived. That's what this package is for.
package wire

import (
	"encoding/binary"
	"errors"
)

const caseBit uint8 = 'a' - 'A'

var (
	ErrIncomplete = errors.New("wire: incomplete record")
	ErrBadRecord  = errors.New("wire: bad TLV record format")
)

// Records is a batch of TLV-framed byte records.
type Records [][]byte

func (recs Records) TotalLen() (total int) {
	for _, r := range recs {
		total += len(r)
	}
	return
}

// ProbeHeader analyzes a TLV record header and extracts type and size
// information. lit is 0 on an incomplete header and '-' on a malformed
// one.
func ProbeHeader(data []byte) (lit byte, hdrlen, bodylen int) {
	if len(data) == 0 {
		return 0, 0, 0
	}
	dlit := data[0]
	switch {
	case dlit >= '0' && dlit <= '9': // tiny: body length 0-9, type lost
		lit = '0'
		bodylen = int(dlit - '0')
		hdrlen = 1
	case dlit >= 'a' && dlit <= 'z': // short: up to 255 bytes
		if len(data) < 2 {
			return 0, 0, 0
		}
		lit = dlit - caseBit
		hdrlen = 2
		bodylen = int(data[1])
	case dlit >= 'A' && dlit <= 'Z': // long: up to 2GB
		if len(data) < 5 {
			return 0, 0, 0
		}
		bl := binary.LittleEndian.Uint32(data[1:5])
		if bl > 0x7fffffff {
			return '-', 0, 0
		}
		lit = dlit
		bodylen = int(bl)
		hdrlen = 5
	default:
		lit = '-'
	}
	return
}

// AppendHeader appends a TLV record header for a body of the given
// length, selecting tiny/short/long format automatically. Lowercase
// lit enables the tiny-format optimization for small bodies.
func AppendHeader(into []byte, lit byte, bodylen int) []byte {
	biglit := lit &^ caseBit
	if biglit < 'A' || biglit > 'Z' {
		panic("wire: record type must be A..Z")
	}
	switch {
	case bodylen < 10 && (lit&caseBit) != 0:
		return append(into, byte('0'+bodylen))
	case bodylen > 0xff:
		if bodylen > 0x7fffffff {
			panic("wire: oversized TLV record")
		}
		into = append(into, biglit)
		return binary.LittleEndian.AppendUint32(into, uint32(bodylen))
	default:
		return append(into, lit|caseBit, byte(bodylen))
	}
}

// Record builds a complete TLV record from its body parts.
func Record(lit byte, body ...[]byte) []byte {
	total := 0
	for _, b := range body {
		total += len(b)
	}
	ret := make([]byte, 0, total+5)
	ret = AppendHeader(ret, lit, total)
	for _, b := range body {
		ret = append(ret, b...)
	}
	return ret
}

// TakeWary extracts a TLV record of the given type from data that may
// not be well-formed — the case for migration payloads received from
// a remote rank after a possible transport-level fault.
func TakeWary(lit byte, data []byte) (body, rest []byte, err error) {
	flit, hdrlen, bodylen := ProbeHeader(data)
	if flit == 0 || hdrlen+bodylen > len(data) {
		return nil, data, ErrIncomplete
	}
	if flit != lit && flit != '0' {
		return nil, nil, ErrBadRecord
	}
	return data[hdrlen : hdrlen+bodylen], data[hdrlen+bodylen:], nil
}
