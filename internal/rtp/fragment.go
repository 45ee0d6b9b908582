package rtp

// fuaIndicatorType is the NAL unit type reserved for FU-A fragmentation
// units (RFC 6184 §5.8).
const fuaIndicatorType = 28

// startBit and endBit are the top two bits of the FU header.
const (
	startBit = 0x80
	endBit   = 0x40
)

// Options carries the fixed fields needed to turn one access unit into a
// sequence of packets: the header fields that stay constant across every
// fragment of the unit, plus the sequence number the first fragment (or the
// single packet, if unfragmented) should carry.
type Options struct {
	PayloadType uint8
	SSRC        uint32
	Timestamp   uint32
	StartSeq    uint16
	MaxPayload  int // largest unit sent unfragmented, and largest chunk per FU-A fragment (the fragment adds 2 FU bytes); excludes the 12-byte header
}

// BuildPackets turns one access unit into the packets needed to carry it.
//
// If the unit fits within MaxPayload it becomes a single packet with the
// marker bit set. Otherwise it is split into H.264 FU-A fragments: the
// original NAL header's NRI bits are preserved in the FU indicator (the
// forbidden bit is not copied),
// the original type is carried in the FU header, the first fragment has its
// start bit set and the last has its end bit set independently of the other
// (so a unit split into exactly two fragments gets both), and only the last
// fragment carries the marker bit.
//
// Sequence numbers are assigned consecutively starting at opts.StartSeq and
// wrap modulo 2^16; the caller advances its running counter by len(result).
func BuildPackets(accessUnit []byte, opts Options) []Packet {
	if len(accessUnit) == 0 {
		return nil
	}

	seq := opts.StartSeq
	next := func() uint16 {
		s := seq
		seq++
		return s
	}

	if len(accessUnit) <= opts.MaxPayload {
		return []Packet{{
			PayloadType: opts.PayloadType,
			Marker:      true,
			Sequence:    next(),
			Timestamp:   opts.Timestamp,
			SSRC:        opts.SSRC,
			Payload:     accessUnit,
		}}
	}

	header := accessUnit[0]
	nri := header & 0x60
	naluType := header & 0x1F
	fuIndicator := nri | fuaIndicatorType

	body := accessUnit[1:]
	chunkBudget := opts.MaxPayload
	if chunkBudget < 1 {
		chunkBudget = 1
	}

	var packets []Packet
	offset := 0
	for offset < len(body) {
		end := offset + chunkBudget
		if end > len(body) {
			end = len(body)
		}
		isFirst := offset == 0
		isLast := end >= len(body)

		fuHeader := naluType
		if isFirst {
			fuHeader |= startBit
		}
		if isLast {
			fuHeader |= endBit
		}

		fragment := make([]byte, 0, 2+(end-offset))
		fragment = append(fragment, fuIndicator, fuHeader)
		fragment = append(fragment, body[offset:end]...)

		packets = append(packets, Packet{
			PayloadType: opts.PayloadType,
			Marker:      isLast,
			Sequence:    next(),
			Timestamp:   opts.Timestamp,
			SSRC:        opts.SSRC,
			Payload:     fragment,
		})

		offset = end
	}

	return packets
}
