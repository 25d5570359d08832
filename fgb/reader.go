package fgb

import (
	"errors"
	"io"
	"os"

	"github.com/gogama/flatgeobuf/flatgeobuf"
	"github.com/gogama/flatgeobuf/flatgeobuf/flat"
	"github.com/gogama/pointquaffer/column"
	"github.com/gogama/pointquaffer/convert/orbconvert"
	"github.com/gogama/pointquaffer/errkind"
	"github.com/gogama/pointquaffer/header"
	"github.com/gogama/pointquaffer/props"
	"github.com/gogama/pointquaffer/schema"
	"github.com/paulmach/orb"
)

// Reader reads the features of a FlatGeobuf file in file order.
type Reader struct {
	fr     *flatgeobuf.FileReader
	hdr    *header.Header
	buf    [1]flat.Feature
	geom   orb.Geometry
	props  *props.Props
	n      uint64
	err    error
	closed bool
}

// Open reads the magic bytes and header of path. Any spatial index is
// skipped when the first feature is read.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errkind.Wrap(errkind.ErrIO, err, "opening input")
	}
	if err = checkMagic(f); err != nil {
		_ = f.Close()
		return nil, err
	}
	if _, err = f.Seek(0, io.SeekStart); err != nil {
		_ = f.Close()
		return nil, errkind.Wrap(errkind.ErrIO, err, "rewinding input")
	}
	fr := flatgeobuf.NewFileReader(f)
	flatHdr, err := fr.Header()
	if err != nil {
		_ = fr.Close()
		return nil, errkind.Wrap(errkind.ErrIO, err, "reading header")
	}
	hdr, err := header.FromFlat(flatHdr)
	if err != nil {
		_ = fr.Close()
		return nil, errkind.Wrap(errkind.ErrIO, err, "decoding header")
	}
	return &Reader{fr: fr, hdr: hdr}, nil
}

// checkMagic separates a file that is not FlatGeobuf at all from one
// that is damaged further in.
func checkMagic(r io.Reader) error {
	v, err := flatgeobuf.Magic(r)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return errkind.Wrap(errkind.ErrIO, io.ErrUnexpectedEOF, "reading magic bytes")
	} else if err != nil {
		return errkind.Wrap(errkind.ErrIO, ErrMagic, err.Error())
	}
	if v.Major < flatgeobuf.MinSpecMajorVersion || v.Major > flatgeobuf.MaxSpecMajorVersion {
		return errkind.Wrapf(errkind.ErrIO, ErrMagic, "version %d.%d", v.Major, v.Patch)
	}
	return nil
}

// ReadHeader returns the header of the FlatGeobuf file at path.
func ReadHeader(path string) (*header.Header, error) {
	rd, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer rd.Close()
	return rd.Header(), nil
}

func (rd *Reader) Header() *header.Header {
	return rd.hdr
}

// Next advances to the next feature. It returns false at the end of the
// file or on error.
func (rd *Reader) Next() bool {
	if rd.err != nil {
		return false
	}
	_, err := rd.fr.Data(rd.buf[:])
	if err == io.EOF {
		if rd.n < rd.hdr.FeaturesCount {
			rd.err = errkind.Wrapf(errkind.ErrIO, io.ErrUnexpectedEOF, "feature %d of %d", rd.n, rd.hdr.FeaturesCount)
		}
		return false
	} else if err != nil {
		rd.err = errkind.Wrapf(errkind.ErrIO, err, "reading feature %d", rd.n)
		return false
	}
	rd.geom, rd.props, err = orbconvert.FromFlatProps(&rd.buf[0], rd.hdr.Schema)
	if err != nil {
		rd.err = errkind.Wrapf(errkind.ErrIO, err, "decoding feature %d", rd.n)
		return false
	}
	rd.n++
	return true
}

// Feature returns the current feature's geometry and properties.
func (rd *Reader) Feature() (orb.Geometry, *props.Props) {
	return rd.geom, rd.props
}

func (rd *Reader) Err() error {
	return rd.err
}

func (rd *Reader) Close() error {
	if rd.closed {
		return nil
	}
	rd.closed = true
	if rd.err == nil {
		rd.err = ErrClosed
	}
	return rd.fr.Close()
}

// ReadRows reads every feature of a point file written by WriteFile
// back into column buffers.
func ReadRows(path string) (*column.Buffers, *header.Header, error) {
	rd, err := Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer rd.Close()
	for _, col := range schema.Points() {
		if _, ok := rd.hdr.Schema.Index(col.Name); !ok {
			return nil, nil, errkind.Wrapf(errkind.ErrSchemaMismatch, errNoProps, "missing %q", col.Name)
		}
	}
	b := column.NewBuffers(int(min(rd.hdr.FeaturesCount, 1<<24)))
	for rd.Next() {
		g, p := rd.Feature()
		r, err := rowOf(g, p)
		if err != nil {
			return nil, nil, errkind.Wrapf(errkind.ErrSchemaMismatch, err, "feature %d", rd.n-1)
		}
		b.AppendRow(r)
	}
	if err = rd.Err(); err != nil {
		return nil, nil, err
	}
	return b, rd.hdr, nil
}

func rowOf(g orb.Geometry, p *props.Props) (r column.Row, err error) {
	pt, ok := g.(orb.Point)
	if !ok {
		return r, fmtErr("geometry is %s", g.GeoJSONType())
	}
	r.XY = pt
	get := func(f func() error) {
		if err == nil {
			err = f()
		}
	}
	get(func() (e error) { r.FID, e = p.GetLongName(schema.FID); return })
	get(func() (e error) { r.Z, e = p.GetDoubleName(schema.Z); return })
	get(func() (e error) { r.Intensity, e = p.GetLongName(schema.Intensity); return })
	get(func() (e error) { r.ReturnNumber, e = p.GetLongName(schema.ReturnNumber); return })
	get(func() (e error) { r.NumberOfReturns, e = p.GetLongName(schema.NumberOfReturns); return })
	get(func() (e error) { r.ScanDirection, e = p.GetStringName(schema.ScanDirection); return })
	get(func() (e error) { r.Classification, e = p.GetStringName(schema.Classification); return })
	get(func() (e error) { r.ScanAngle, e = p.GetDoubleName(schema.ScanAngle); return })
	get(func() (e error) { r.PointSourceID, e = p.GetLongName(schema.PointSourceID); return })
	if err != nil {
		return r, err
	}
	if p.HasName(schema.GPSTime) {
		r.GPSTime, err = p.GetDoubleName(schema.GPSTime)
		r.GPSTimeValid = err == nil
	}
	return r, err
}
