package protocol

import (
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
)

// PacketType discriminates the payload carried by a Packet.
type PacketType uint8

const (
	PacketWelcome PacketType = iota + 1
	PacketInputBatch
	PacketSnapshot
)

// Packet is the envelope for every binary websocket frame. Exactly one
// payload pointer is set, matching Type.
type Packet struct {
	Type     PacketType     `msgpack:"t"`
	Welcome  *Welcome       `msgpack:"w,omitempty"`
	Inputs   *InputBatch    `msgpack:"i,omitempty"`
	Snapshot *StateSnapshot `msgpack:"s,omitempty"`
}

// Welcome is sent once to a client after its entity spawns.
type Welcome struct {
	EntityID   uint64  `msgpack:"eid"`
	ServerTime float64 `msgpack:"st"`
	TickRate   int     `msgpack:"tr"`
}

// InputMessage is one sequence-numbered sample of client intent. Immutable
// once enqueued.
type InputMessage struct {
	Sequence    uint32     `msgpack:"seq"`
	Movement    [3]float32 `msgpack:"mv"`
	Jump        bool       `msgpack:"jp"`
	ActionFlags uint16     `msgpack:"af"`
	AimTarget   [3]float32 `msgpack:"at"`
	ClientTime  float64    `msgpack:"ct"`
}

// InputBatch carries every sample captured since the last send cadence.
type InputBatch struct {
	Entries []InputMessage `msgpack:"e"`
}

// StateSnapshot is the authoritative state broadcast to every subscriber.
// LastSequence acks the highest input the server has applied for the owning
// client, so it can discard confirmed samples from its replay buffer.
type StateSnapshot struct {
	EntityID     uint64     `msgpack:"eid"`
	Position     [3]float32 `msgpack:"p"`
	Velocity     [3]float32 `msgpack:"v"`
	Yaw          float32    `msgpack:"y"`
	ServerTime   float64    `msgpack:"st"`
	LastSequence uint32     `msgpack:"ls"`
}

func Encode(p *Packet) ([]byte, error) {
	data, err := msgpack.Marshal(p)
	if err != nil {
		return nil, errors.Wrap(err, "encode packet")
	}
	return data, nil
}

func Decode(data []byte) (*Packet, error) {
	var p Packet
	if err := msgpack.Unmarshal(data, &p); err != nil {
		return nil, errors.Wrap(err, "decode packet")
	}
	switch p.Type {
	case PacketWelcome, PacketInputBatch, PacketSnapshot:
	default:
		return nil, errors.Errorf("unknown packet type %d", p.Type)
	}
	return &p, nil
}
