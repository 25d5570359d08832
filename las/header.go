package las

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"strings"
)

const (
	signature = "LASF"

	headerSize12 = 227
	headerSize13 = 235
	headerSize14 = 375

	vlrHeaderSize  = 54
	evlrHeaderSize = 60

	laszipUserID   = "laszip encoded"
	laszipRecordID = 22204
)

// Scale is one axis of the integer-to-coordinate transform.
type Scale struct {
	Scale  float64
	Offset float64
}

func (s Scale) apply(v int32) float64 {
	return float64(v)*s.Scale + s.Offset
}

// Transform converts stored integer coordinates to real coordinates.
type Transform struct {
	X, Y, Z Scale
}

// Bounds is the header bounding box.
type Bounds struct {
	MinX, MinY, MinZ float64
	MaxX, MaxY, MaxZ float64
}

// VLR is a variable length record, or an extended one when Extended is
// set.
type VLR struct {
	UserID      string
	RecordID    uint16
	Description string
	Data        []byte
	Extended    bool
}

// Header holds the public header block and every VLR and EVLR in the
// file.
type Header struct {
	VersionMajor       uint8
	VersionMinor       uint8
	FileSourceID       uint16
	GlobalEncoding     uint16
	SystemID           string
	GeneratingSoftware string
	HeaderSize         uint16
	PointDataOffset    uint32
	PointFormat        uint8
	PointRecordLength  uint16
	PointCount         uint64
	Transform          Transform
	Bounds             Bounds
	VLRs               []VLR

	compressed bool
	evlrStart  uint64
	evlrCount  uint32
}

// HasWKTCRS reports whether global encoding bit 4 is set, meaning the
// producer stored the CRS as WKT rather than GeoTIFF keys.
func (h *Header) HasWKTCRS() bool {
	return h.GlobalEncoding&0x10 != 0
}

// Compressed reports whether the point data is LASzip compressed.
func (h *Header) Compressed() bool {
	return h.compressed
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return strings.TrimSpace(string(b))
}

func readHeader(r io.ReaderAt, size int64) (*Header, error) {
	buf := make([]byte, headerSize14)
	n, err := r.ReadAt(buf, 0)
	if n < headerSize12 {
		if err == nil || err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	buf = buf[:n]
	if string(buf[0:4]) != signature {
		return nil, ErrSignature
	}
	le := binary.LittleEndian
	h := &Header{
		FileSourceID:       le.Uint16(buf[4:]),
		GlobalEncoding:     le.Uint16(buf[6:]),
		VersionMajor:       buf[24],
		VersionMinor:       buf[25],
		SystemID:           cString(buf[26:58]),
		GeneratingSoftware: cString(buf[58:90]),
		HeaderSize:         le.Uint16(buf[94:]),
		PointDataOffset:    le.Uint32(buf[96:]),
		PointFormat:        buf[104],
		PointRecordLength:  le.Uint16(buf[105:]),
		PointCount:         uint64(le.Uint32(buf[107:])),
	}
	f64 := func(off int) float64 { return math.Float64frombits(le.Uint64(buf[off:])) }
	h.Transform = Transform{
		X: Scale{Scale: f64(131), Offset: f64(155)},
		Y: Scale{Scale: f64(139), Offset: f64(163)},
		Z: Scale{Scale: f64(147), Offset: f64(171)},
	}
	h.Bounds = Bounds{
		MaxX: f64(179), MinX: f64(187),
		MaxY: f64(195), MinY: f64(203),
		MaxZ: f64(211), MinZ: f64(219),
	}
	if h.VersionMajor != 1 {
		return nil, fmtErr("unsupported version %d.%d", h.VersionMajor, h.VersionMinor)
	}
	if h.HeaderSize < headerSize12 || int64(h.HeaderSize) > size {
		return nil, fmtErr("invalid header size %d", h.HeaderSize)
	}
	if h.VersionMinor >= 4 {
		if int(h.HeaderSize) < headerSize14 || len(buf) < headerSize14 {
			return nil, fmtErr("LAS 1.4 header too short: %d bytes", h.HeaderSize)
		}
		h.evlrStart = le.Uint64(buf[235:])
		h.evlrCount = le.Uint32(buf[243:])
		if count := le.Uint64(buf[247:]); count != 0 {
			h.PointCount = count
		}
	}
	if h.PointFormat&0x80 != 0 {
		h.compressed = true
		h.PointFormat &^= 0xc0
	}
	if int(h.PointFormat) >= len(minRecordLength) {
		return nil, fmtErr("unsupported point data format %d", h.PointFormat)
	}
	if h.PointRecordLength < minRecordLength[h.PointFormat] {
		return nil, fmtErr("point record length %d too short for format %d",
			h.PointRecordLength, h.PointFormat)
	}

	numVLRs := le.Uint32(buf[100:])
	if h.VLRs, err = readVLRs(r, int64(h.HeaderSize), numVLRs, false); err != nil {
		return nil, err
	}
	if h.evlrCount > 0 && h.evlrStart > 0 {
		evlrs, err := readVLRs(r, int64(h.evlrStart), h.evlrCount, true)
		if err != nil {
			return nil, err
		}
		h.VLRs = append(h.VLRs, evlrs...)
	}
	for _, vlr := range h.VLRs {
		if vlr.UserID == laszipUserID && vlr.RecordID == laszipRecordID {
			h.compressed = true
		}
	}

	end := uint64(h.PointDataOffset) + h.PointCount*uint64(h.PointRecordLength)
	if !h.compressed && end > uint64(size) {
		return nil, fmtErr("point data ends at byte %d beyond file size %d", end, size)
	}
	return h, nil
}

func readVLRs(r io.ReaderAt, pos int64, n uint32, extended bool) ([]VLR, error) {
	hdrSize := vlrHeaderSize
	if extended {
		hdrSize = evlrHeaderSize
	}
	le := binary.LittleEndian
	vlrs := make([]VLR, 0, n)
	hdr := make([]byte, hdrSize)
	for i := uint32(0); i < n; i++ {
		if _, err := r.ReadAt(hdr, pos); err != nil {
			return nil, fmtErr("reading record header %d: %w", i, eofIsUnexpected(err))
		}
		vlr := VLR{
			UserID:      cString(hdr[2:18]),
			RecordID:    le.Uint16(hdr[18:]),
			Extended:    extended,
			Description: cString(hdr[hdrSize-32:]),
		}
		var length uint64
		if extended {
			length = le.Uint64(hdr[20:])
		} else {
			length = uint64(le.Uint16(hdr[20:]))
		}
		if length > math.MaxInt32 {
			return nil, fmtErr("record %d length %d too large", i, length)
		}
		pos += int64(hdrSize)
		vlr.Data = make([]byte, length)
		if _, err := r.ReadAt(vlr.Data, pos); err != nil && !(err == io.EOF && length == 0) {
			return nil, fmtErr("reading record %d payload: %w", i, eofIsUnexpected(err))
		}
		pos += int64(length)
		vlrs = append(vlrs, vlr)
	}
	return vlrs, nil
}

func eofIsUnexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
