// Package buffer implements the peer-exchange wire format (§6): typed
// serialization blobs shipped between matching send/recv events, and the
// named BUFFER_* sections used by the delay/critical-path pipeline.
package buffer

import (
	"encoding/binary"
	"fmt"
)

// Tag identifies a named section within a peer-exchange blob.
type Tag uint32

const (
	TagDelay Tag = iota
	TagCriticalPath
	TagPropWait
	TagRCostLateSender
	TagRCostLateReceiver
	TagRCostBarrier
	TagRCostN2N
	TagRCost12N
	TagRCostN21
	TagRCostOMPBarrier
	TagRCostOMPIdle
)

func (t Tag) String() string {
	switch t {
	case TagDelay:
		return "BUFFER_DELAY"
	case TagCriticalPath:
		return "BUFFER_CRITICALPATH"
	case TagPropWait:
		return "BUFFER_PROPWAIT"
	case TagRCostLateSender:
		return "BUFFER_RCOST_LS"
	case TagRCostLateReceiver:
		return "BUFFER_RCOST_LR"
	case TagRCostBarrier:
		return "BUFFER_RCOST_BARRIER"
	case TagRCostN2N:
		return "BUFFER_RCOST_N2N"
	case TagRCost12N:
		return "BUFFER_RCOST_12N"
	case TagRCostN21:
		return "BUFFER_RCOST_N21"
	case TagRCostOMPBarrier:
		return "BUFFER_RCOST_OMPBARRIER"
	case TagRCostOMPIdle:
		return "BUFFER_RCOST_OMPIDLE"
	default:
		return "BUFFER_UNKNOWN"
	}
}

// primKind distinguishes the scalar kinds a section can hold, so a Get of
// the wrong kind can be detected as a fatal buffer-type mismatch (§7 kind 3).
type primKind uint8

const (
	kindU32 primKind = iota
	kindF64
	kindTimeMap
)

// ErrBufferTypeMismatch is returned when a Get reads a section written with
// a different primitive kind. It is fatal per §7 kind 3.
var ErrBufferTypeMismatch = fmt.Errorf("buffer: type mismatch on get")

// Buffer is a length-prefixed sequence of named, typed sections. Put calls
// append sections in call order; Get calls consume them in the same order,
// matching the teacher's two-sided peer-exchange convention.
type Buffer struct {
	sections []section
	getPos   int
}

type section struct {
	tag  Tag
	kind primKind
	u32  uint32
	f64  float64
	tm   TimeMap
}

// New creates an empty buffer to be filled by Put* calls before sending.
func New() *Buffer { return &Buffer{} }

// PutU32 appends a u32 scalar section.
func (b *Buffer) PutU32(tag Tag, v uint32) {
	b.sections = append(b.sections, section{tag: tag, kind: kindU32, u32: v})
}

// PutF64 appends an f64 scalar section.
func (b *Buffer) PutF64(tag Tag, v float64) {
	b.sections = append(b.sections, section{tag: tag, kind: kindF64, f64: v})
}

// PutTimemap appends a packed time-map section (§4.4 PackTimemap).
func (b *Buffer) PutTimemap(tag Tag, tm TimeMap) {
	b.sections = append(b.sections, section{tag: tag, kind: kindTimeMap, tm: tm.clone()})
}

// GetU32 consumes the next section as a u32, or returns an error for a
// type mismatch or an exhausted buffer.
func (b *Buffer) GetU32() (uint32, error) {
	s, err := b.next(kindU32)
	if err != nil {
		return 0, err
	}
	return s.u32, nil
}

// GetF64 consumes the next section as an f64.
func (b *Buffer) GetF64() (float64, error) {
	s, err := b.next(kindF64)
	if err != nil {
		return 0, err
	}
	return s.f64, nil
}

// GetTimemap consumes the next section as a time map (§4.4 UnpackTimemap).
func (b *Buffer) GetTimemap() (TimeMap, error) {
	s, err := b.next(kindTimeMap)
	if err != nil {
		return nil, err
	}
	return s.tm, nil
}

func (b *Buffer) next(want primKind) (section, error) {
	if b.getPos >= len(b.sections) {
		return section{}, fmt.Errorf("buffer: read past end of sections")
	}
	s := b.sections[b.getPos]
	if s.kind != want {
		return section{}, fmt.Errorf("%w: section %s is kind %d, wanted %d", ErrBufferTypeMismatch, s.tag, s.kind, want)
	}
	b.getPos++
	return s, nil
}

// Len reports how many sections remain to be read.
func (b *Buffer) Len() int { return len(b.sections) - b.getPos }

// Bytes serializes the buffer to a flat byte slice, matching the "length-
// prefixed blob of named sections" shape from §6. Used for bit-exact wire
// round-tripping tests.
func (b *Buffer) Bytes() []byte {
	out := make([]byte, 0, 64)
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(b.sections)))
	out = append(out, hdr[:]...)
	for _, s := range b.sections {
		out = appendSection(out, s)
	}
	return out
}

func appendSection(out []byte, s section) []byte {
	var tagBuf [4]byte
	binary.BigEndian.PutUint32(tagBuf[:], uint32(s.tag))
	out = append(out, tagBuf[:]...)
	out = append(out, byte(s.kind))
	switch s.kind {
	case kindU32:
		var b4 [4]byte
		binary.BigEndian.PutUint32(b4[:], s.u32)
		out = append(out, b4[:]...)
	case kindF64:
		var b8 [8]byte
		binary.BigEndian.PutUint64(b8[:], f64bits(s.f64))
		out = append(out, b8[:]...)
	case kindTimeMap:
		out = appendTimeMap(out, s.tm)
	}
	return out
}

func f64bits(f float64) uint64 { return floatBits(f) }

// Parse reconstructs a Buffer from bytes produced by Bytes(), for wire
// round-trip tests (§8 "Round-trip: PackTimemap ∘ UnpackTimemap == identity").
func Parse(data []byte) (*Buffer, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("buffer: truncated header")
	}
	count := binary.BigEndian.Uint32(data[:4])
	pos := 4
	b := &Buffer{}
	for i := uint32(0); i < count; i++ {
		if pos+5 > len(data) {
			return nil, fmt.Errorf("buffer: truncated section header")
		}
		tag := Tag(binary.BigEndian.Uint32(data[pos:]))
		kind := primKind(data[pos+4])
		pos += 5
		var s section
		s.tag = tag
		s.kind = kind
		switch kind {
		case kindU32:
			if pos+4 > len(data) {
				return nil, fmt.Errorf("buffer: truncated u32")
			}
			s.u32 = binary.BigEndian.Uint32(data[pos:])
			pos += 4
		case kindF64:
			if pos+8 > len(data) {
				return nil, fmt.Errorf("buffer: truncated f64")
			}
			s.f64 = bitsFloat(binary.BigEndian.Uint64(data[pos:]))
			pos += 8
		case kindTimeMap:
			if pos+4 > len(data) {
				return nil, fmt.Errorf("buffer: truncated timemap count")
			}
			n := binary.BigEndian.Uint32(data[pos:])
			pos += 4
			tm := NewTimeMap()
			for j := uint32(0); j < n; j++ {
				if pos+12 > len(data) {
					return nil, fmt.Errorf("buffer: truncated timemap entry")
				}
				k := int(binary.BigEndian.Uint32(data[pos:]))
				v := bitsFloat(binary.BigEndian.Uint64(data[pos+4:]))
				tm[k] = v
				pos += 12
			}
			s.tm = tm
		default:
			return nil, fmt.Errorf("buffer: unknown section kind %d", kind)
		}
		b.sections = append(b.sections, s)
	}
	return b, nil
}
