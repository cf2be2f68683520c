package protocol

import "testing"

func TestEncodeDecodeInputBatch(t *testing.T) {
	pkt := &Packet{
		Type: PacketInputBatch,
		Inputs: &InputBatch{
			Entries: []InputMessage{
				{Sequence: 7, Movement: [3]float32{1, 0, 0}, Jump: true, ActionFlags: 0b101, ClientTime: 1.25},
			},
		},
	}

	data, err := Encode(pkt)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Type != PacketInputBatch || got.Inputs == nil || len(got.Inputs.Entries) != 1 {
		t.Fatalf("round trip lost the batch: %+v", got)
	}
	e := got.Inputs.Entries[0]
	if e.Sequence != 7 || !e.Jump || e.ActionFlags != 0b101 || e.ClientTime != 1.25 {
		t.Fatalf("round trip mangled the sample: %+v", e)
	}
}

func TestDecodeRejectsUnknownType(t *testing.T) {
	data, err := Encode(&Packet{Type: PacketType(99)})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := Decode(data); err == nil {
		t.Fatalf("unknown packet type should not decode")
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode([]byte{0xff, 0x00, 0x13}); err == nil {
		t.Fatalf("garbage should not decode")
	}
}
