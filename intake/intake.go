// Package intake implements the two message-intake entry points: a
// multicast fabric rate-update packet, and a variable-length host message
// carrying a batch of rate updates. Both end up calling
// ratectl.Controller.SetRate; this package only owns wire decoding.
package intake

import (
	"encoding/binary"
	"math"

	"github.com/neuromorph/poissoncore/ratectl"
)

// rateWireSize is the encoded size, in bytes, of a rate value on the wire:
// a little-endian IEEE-754 float64 rather than a fixed-point integer,
// since every numeric field elsewhere in this module is already float64.
const rateWireSize = 8

// DecodeRateUpdate extracts the global source id and rate in hertz from a
// multicast rate-update packet's key and payload.
func DecodeRateUpdate(key uint32, payload []byte, rateUpdateMask uint32) (globalID uint32, rateHz float64, ok bool) {
	if len(payload) < rateWireSize {
		return 0, 0, false
	}
	globalID = key & rateUpdateMask
	rateHz = math.Float64frombits(binary.LittleEndian.Uint64(payload))
	return globalID, rateHz, true
}

// MulticastCallback is the fabric-delivered (key, payload) entry point:
// decode the update and apply it via ctl.SetRate.
func MulticastCallback(ctl *ratectl.Controller, key uint32, payload []byte, rateUpdateMask uint32) {
	id, rate, ok := DecodeRateUpdate(key, payload, rateUpdateMask)
	if !ok {
		return
	}
	ctl.SetRate(id, rate)
}

// HostUpdate is one {id, rate} pair out of a host message.
type HostUpdate struct {
	ID     uint32
	RateHz float64
}

// hostUpdateWireSize is the encoded size of one HostUpdate: a uint32 id
// followed by a float64 rate.
const hostUpdateWireSize = 4 + 8

// DecodeHostMessage parses a host message whose first word is n_items,
// followed by n_items {id:u32, rate:float64} pairs.
func DecodeHostMessage(payload []byte) ([]HostUpdate, bool) {
	if len(payload) < 4 {
		return nil, false
	}
	n := binary.LittleEndian.Uint32(payload)
	want := 4 + int(n)*hostUpdateWireSize
	if len(payload) < want {
		return nil, false
	}
	updates := make([]HostUpdate, n)
	off := 4
	for i := range updates {
		updates[i].ID = binary.LittleEndian.Uint32(payload[off:])
		off += 4
		updates[i].RateHz = math.Float64frombits(binary.LittleEndian.Uint64(payload[off:]))
		off += 8
	}
	return updates, true
}

// HostMessageCallback applies every update in payload via ctl.SetRate,
// then releases the message buffer back to the fabric driver.
func HostMessageCallback(ctl *ratectl.Controller, payload []byte, release func([]byte)) {
	updates, ok := DecodeHostMessage(payload)
	if ok {
		for _, u := range updates {
			ctl.SetRate(u.ID, u.RateHz)
		}
	}
	if release != nil {
		release(payload)
	}
}

// EncodeRateUpdatePayload is the inverse of the rate portion of
// DecodeRateUpdate, used by tests and by cmd/coreserver to synthesize
// fabric traffic.
func EncodeRateUpdatePayload(rateHz float64) []byte {
	buf := make([]byte, rateWireSize)
	binary.LittleEndian.PutUint64(buf, math.Float64bits(rateHz))
	return buf
}

// EncodeHostMessage is the inverse of DecodeHostMessage.
func EncodeHostMessage(updates []HostUpdate) []byte {
	buf := make([]byte, 4+len(updates)*hostUpdateWireSize)
	binary.LittleEndian.PutUint32(buf, uint32(len(updates)))
	off := 4
	for _, u := range updates {
		binary.LittleEndian.PutUint32(buf[off:], u.ID)
		off += 4
		binary.LittleEndian.PutUint64(buf[off:], math.Float64bits(u.RateHz))
		off += 8
	}
	return buf
}
