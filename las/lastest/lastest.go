// Package lastest builds small LAS files in memory for tests.
package lastest

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/gogama/pointquaffer/las"
)

var recordLength = [...]uint16{20, 28, 26, 34, 57, 63, 30, 36, 38, 59, 67}

// File describes a LAS file to synthesize. Zero values give a LAS 1.2
// format 0 file with 0.001 scale and zero offsets.
type File struct {
	Minor          uint8
	Format         uint8
	ExtraBytes     int
	GlobalEncoding uint16
	Scale          [3]float64
	Offset         [3]float64
	// VLRs with Extended set are written as EVLRs after the point data
	// and require Minor 4.
	VLRs   []las.VLR
	Points []las.Point
	// Compressed sets the LASzip bit on the point format.
	Compressed bool
}

// Bytes returns the encoded file.
func (f File) Bytes() []byte {
	if f.Minor == 0 {
		f.Minor = 2
	}
	if f.Scale == [3]float64{} {
		f.Scale = [3]float64{0.001, 0.001, 0.001}
	}
	headerSize := 227
	if f.Minor == 3 {
		headerSize = 235
	} else if f.Minor >= 4 {
		headerSize = 375
	}
	var vlrs, evlrs []las.VLR
	for _, v := range f.VLRs {
		if v.Extended {
			evlrs = append(evlrs, v)
		} else {
			vlrs = append(vlrs, v)
		}
	}
	var vlrBuf bytes.Buffer
	for _, v := range vlrs {
		writeVLR(&vlrBuf, v, false)
	}
	stride := int(recordLength[f.Format]) + f.ExtraBytes
	pointOffset := headerSize + vlrBuf.Len()
	evlrStart := pointOffset + stride*len(f.Points)

	le := binary.LittleEndian
	h := make([]byte, headerSize)
	copy(h, "LASF")
	le.PutUint16(h[6:], f.GlobalEncoding)
	h[24], h[25] = 1, f.Minor
	copy(h[26:], "lastest")
	copy(h[58:], "pointquaffer tests")
	le.PutUint16(h[94:], uint16(headerSize))
	le.PutUint32(h[96:], uint32(pointOffset))
	le.PutUint32(h[100:], uint32(len(vlrs)))
	format := f.Format
	if f.Compressed {
		format |= 0x80
	}
	h[104] = format
	le.PutUint16(h[105:], uint16(stride))
	if f.Minor < 4 || f.Format < 6 {
		le.PutUint32(h[107:], uint32(len(f.Points)))
	}
	for i := 0; i < 3; i++ {
		le.PutUint64(h[131+8*i:], math.Float64bits(f.Scale[i]))
		le.PutUint64(h[155+8*i:], math.Float64bits(f.Offset[i]))
	}
	if f.Minor >= 4 {
		if len(evlrs) > 0 {
			le.PutUint64(h[235:], uint64(evlrStart))
			le.PutUint32(h[243:], uint32(len(evlrs)))
		}
		le.PutUint64(h[247:], uint64(len(f.Points)))
	}

	var out bytes.Buffer
	out.Write(h)
	out.Write(vlrBuf.Bytes())
	rec := make([]byte, stride)
	for i := range f.Points {
		clear(rec)
		f.encodePoint(rec, &f.Points[i])
		out.Write(rec)
	}
	for _, v := range evlrs {
		writeVLR(&out, v, true)
	}
	return out.Bytes()
}

func (f File) raw(v float64, axis int) uint32 {
	return uint32(int32(math.Round((v - f.Offset[axis]) / f.Scale[axis])))
}

func (f File) encodePoint(b []byte, p *las.Point) {
	le := binary.LittleEndian
	le.PutUint32(b[0:], f.raw(p.X, 0))
	le.PutUint32(b[4:], f.raw(p.Y, 1))
	le.PutUint32(b[8:], f.raw(p.Z, 2))
	le.PutUint16(b[12:], p.Intensity)
	if f.Format < 6 {
		b[14] = p.ReturnNumber&0x07 | (p.NumberOfReturns&0x07)<<3 | uint8(p.ScanDirection)<<6
		b[15] = uint8(p.Classification) & 0x1f
		b[16] = uint8(int8(p.ScanAngle))
		le.PutUint16(b[18:], p.PointSourceID)
		if f.Format != 0 && f.Format != 2 {
			le.PutUint64(b[20:], math.Float64bits(p.GPSTime))
		}
		return
	}
	b[14] = p.ReturnNumber&0x0f | p.NumberOfReturns<<4
	b[15] = uint8(p.ScanDirection) << 6
	b[16] = uint8(p.Classification)
	le.PutUint16(b[18:], uint16(int16(math.Round(float64(p.ScanAngle)/0.006))))
	le.PutUint16(b[20:], p.PointSourceID)
	le.PutUint64(b[22:], math.Float64bits(p.GPSTime))
}

func writeVLR(w *bytes.Buffer, v las.VLR, extended bool) {
	le := binary.LittleEndian
	size := 54
	if extended {
		size = 60
	}
	hdr := make([]byte, size)
	copy(hdr[2:18], v.UserID)
	le.PutUint16(hdr[18:], v.RecordID)
	if extended {
		le.PutUint64(hdr[20:], uint64(len(v.Data)))
	} else {
		le.PutUint16(hdr[20:], uint16(len(v.Data)))
	}
	copy(hdr[size-32:], v.Description)
	w.Write(hdr)
	w.Write(v.Data)
}

// WKTRecord returns the LASF_Projection record carrying wkt, padded
// with a trailing NUL the way most producers write it.
func WKTRecord(wkt string) las.VLR {
	return las.VLR{
		UserID:      "LASF_Projection",
		RecordID:    2112,
		Description: "OGC Coordinate System WKT",
		Data:        append([]byte(wkt), 0),
	}
}

// WriteFile writes f into a fresh temporary directory and returns the
// path.
func WriteFile(t testing.TB, name string, f File) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, f.Bytes(), 0o644); err != nil {
		t.Fatalf("lastest: writing %s: %v", path, err)
	}
	return path
}

// Points returns n points cycling through classes, with the point at
// index i located at (1000+i, 2000+i, 10+i).
func Points(n int, classes ...las.Classification) []las.Point {
	if len(classes) == 0 {
		classes = []las.Classification{las.Unclassified}
	}
	pts := make([]las.Point, n)
	for i := range pts {
		pts[i] = las.Point{
			X:               1000 + float64(i),
			Y:               2000 + float64(i),
			Z:               10 + float64(i),
			Intensity:       uint16(100 + i),
			ReturnNumber:    1,
			NumberOfReturns: 2,
			ScanDirection:   las.ScanDirection(i % 2),
			Classification:  classes[i%len(classes)],
			ScanAngle:       float32(i%30 - 15),
			PointSourceID:   uint16(7 + i%3),
			GPSTime:         400000 + float64(i)/4,
			HasGPSTime:      true,
		}
	}
	return pts
}
