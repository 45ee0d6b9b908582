package rtp

import (
	"bytes"
	"testing"
)

func TestBuildPacketsSinglePacket(t *testing.T) {
	au := []byte{0x65, 0x01, 0x02, 0x03}
	packets := BuildPackets(au, Options{PayloadType: 96, SSRC: 1, Timestamp: 1500, StartSeq: 10, MaxPayload: 1400})

	if len(packets) != 1 {
		t.Fatalf("got %d packets, want 1", len(packets))
	}
	p := packets[0]
	if !p.Marker {
		t.Fatal("expected marker set on single-packet emission")
	}
	if p.Sequence != 10 {
		t.Fatalf("sequence = %d, want 10", p.Sequence)
	}
	if !bytes.Equal(p.Payload, au) {
		t.Fatalf("payload = %v, want %v", p.Payload, au)
	}
}

func TestBuildPacketsFragmentationThreeChunks(t *testing.T) {
	// 4096-byte IDR access unit, header 0x65 -> nri=0x60, type=0x05.
	au := make([]byte, 4096)
	au[0] = 0x65
	for i := 1; i < len(au); i++ {
		au[i] = byte(i)
	}

	packets := BuildPackets(au, Options{PayloadType: 96, SSRC: 0xCAFEBABE, Timestamp: 3000, StartSeq: 5, MaxPayload: 1400})

	if len(packets) != 3 {
		t.Fatalf("got %d packets, want 3", len(packets))
	}

	first, mid, last := packets[0], packets[1], packets[2]

	if first.Payload[0] != 0x7C || first.Payload[1] != 0x85 {
		t.Fatalf("first fragment header = %#x %#x, want 0x7C 0x85", first.Payload[0], first.Payload[1])
	}
	if mid.Payload[0] != 0x7C || mid.Payload[1] != 0x05 {
		t.Fatalf("middle fragment header = %#x %#x, want 0x7C 0x05", mid.Payload[0], mid.Payload[1])
	}
	if last.Payload[0] != 0x7C || last.Payload[1] != 0x45 {
		t.Fatalf("last fragment header = %#x %#x, want 0x7C 0x45", last.Payload[0], last.Payload[1])
	}

	if first.Marker || mid.Marker {
		t.Fatal("only the last fragment should carry the marker bit")
	}
	if !last.Marker {
		t.Fatal("last fragment must carry the marker bit")
	}

	for _, p := range packets {
		if p.Timestamp != 3000 {
			t.Fatalf("timestamp changed across fragments: %d", p.Timestamp)
		}
	}

	if first.Sequence != 5 || mid.Sequence != 6 || last.Sequence != 7 {
		t.Fatalf("sequence numbers = %d %d %d, want 5 6 7", first.Sequence, mid.Sequence, last.Sequence)
	}
}

func TestBuildPacketsTwoChunkUnitSetsBothStartAndEnd(t *testing.T) {
	// Pick a size that fragments into exactly two chunks. The per-chunk
	// budget is the full MaxPayload: it is not reduced by the 2-byte FU
	// indicator/header, which ride alongside the chunk rather than eating
	// into it.
	chunkBudget := 1400
	au := make([]byte, chunkBudget+1+10) // header + one full chunk + a small remainder
	au[0] = 0x61                         // nri=0x60, type=1 (non-IDR slice)

	packets := BuildPackets(au, Options{PayloadType: 96, SSRC: 1, Timestamp: 1, StartSeq: 0, MaxPayload: 1400})
	if len(packets) != 2 {
		t.Fatalf("got %d packets, want 2", len(packets))
	}

	firstHeader := packets[0].Payload[1]
	lastHeader := packets[1].Payload[1]

	if firstHeader&0x80 == 0 {
		t.Fatal("first fragment of a two-chunk unit must have S set")
	}
	if lastHeader&0x40 == 0 {
		t.Fatal("last fragment of a two-chunk unit must have E set")
	}
	if firstHeader&0x40 != 0 {
		t.Fatal("first fragment must not have E set")
	}
	if lastHeader&0x80 != 0 {
		t.Fatal("last fragment must not have S set")
	}
}

func TestBuildPacketsChunkBudgetIsFullMaxPayload(t *testing.T) {
	// A 2801-byte access unit (2800-byte body after the NAL header) fits in
	// exactly two 1400-byte chunks. Subtracting the FU indicator/header from
	// the budget would push this into a third, spurious fragment.
	au := make([]byte, 2801)
	au[0] = 0x65

	packets := BuildPackets(au, Options{PayloadType: 96, StartSeq: 0, MaxPayload: 1400})
	if len(packets) != 2 {
		t.Fatalf("got %d packets, want 2", len(packets))
	}
	if len(packets[0].Payload) != 1400+2 {
		t.Fatalf("first fragment payload length = %d, want %d", len(packets[0].Payload), 1400+2)
	}
	if len(packets[1].Payload) != 1400+2 {
		t.Fatalf("second fragment payload length = %d, want %d", len(packets[1].Payload), 1400+2)
	}
}

func TestBuildPacketsEmptyAccessUnit(t *testing.T) {
	if got := BuildPackets(nil, Options{MaxPayload: 1400}); got != nil {
		t.Fatalf("expected nil for empty access unit, got %v", got)
	}
}

func TestBuildPacketsSequenceWraps(t *testing.T) {
	au := []byte{0x65, 0x01}
	packets := BuildPackets(au, Options{PayloadType: 96, StartSeq: 0xFFFF, MaxPayload: 1400})
	if len(packets) != 1 || packets[0].Sequence != 0xFFFF {
		t.Fatalf("unexpected packets: %+v", packets)
	}
}
