package ecs

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/rotisserie/eris"
)

// DataStream is a little-endian binary buffer used for component payloads and scene
// files. Writes append; reads advance a cursor. The first failed read sets a sticky
// error and every later read returns the zero value.
type DataStream struct {
	data []byte
	off  int
	err  error
}

// NewDataStream returns an empty stream ready for writing.
func NewDataStream() *DataStream {
	return &DataStream{data: make([]byte, 0, 256)}
}

// NewDataStreamFromBytes returns a stream that reads b from the start.
func NewDataStreamFromBytes(b []byte) *DataStream {
	return &DataStream{data: b}
}

// ReadDataStream slurps r into a new stream.
func ReadDataStream(r io.Reader) (*DataStream, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "read data stream")
	}
	return NewDataStreamFromBytes(b), nil
}

// Bytes returns the full underlying buffer, regardless of the read cursor.
func (ds *DataStream) Bytes() []byte { return ds.data }

// Len returns the number of bytes written.
func (ds *DataStream) Len() int { return len(ds.data) }

// Remaining returns the number of unread bytes.
func (ds *DataStream) Remaining() int { return len(ds.data) - ds.off }

// Err returns the sticky read error, if any.
func (ds *DataStream) Err() error { return ds.err }

// WriteTo implements io.WriterTo.
func (ds *DataStream) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(ds.data)
	if err != nil {
		return int64(n), eris.Wrap(err, "write data stream")
	}
	return int64(n), nil
}

func (ds *DataStream) WriteU32(v uint32) {
	ds.data = binary.LittleEndian.AppendUint32(ds.data, v)
}

func (ds *DataStream) WriteI32(v int32) {
	ds.WriteU32(uint32(v))
}

func (ds *DataStream) WriteF32(v float32) {
	ds.WriteU32(math.Float32bits(v))
}

func (ds *DataStream) WriteBool(v bool) {
	if v {
		ds.data = append(ds.data, 1)
	} else {
		ds.data = append(ds.data, 0)
	}
}

// WriteString writes a u32 length prefix followed by the raw bytes.
func (ds *DataStream) WriteString(s string) {
	ds.WriteU32(uint32(len(s)))
	ds.data = append(ds.data, s...)
}

// WriteBytes writes a u32 length prefix followed by b.
func (ds *DataStream) WriteBytes(b []byte) {
	ds.WriteU32(uint32(len(b)))
	ds.data = append(ds.data, b...)
}

func (ds *DataStream) WriteVec3(v mgl32.Vec3) {
	ds.WriteF32(v[0])
	ds.WriteF32(v[1])
	ds.WriteF32(v[2])
}

// WriteQuat writes x, y, z, w.
func (ds *DataStream) WriteQuat(q mgl32.Quat) {
	ds.WriteF32(q.V[0])
	ds.WriteF32(q.V[1])
	ds.WriteF32(q.V[2])
	ds.WriteF32(q.W)
}

// take returns the next n bytes or records a short read.
func (ds *DataStream) take(n int) []byte {
	if ds.err != nil {
		return nil
	}
	if n < 0 || ds.off+n > len(ds.data) {
		ds.err = eris.Wrapf(ErrShortRead, "need %d bytes at offset %d, have %d", n, ds.off, len(ds.data)-ds.off)
		ds.off = len(ds.data)
		return nil
	}
	b := ds.data[ds.off : ds.off+n]
	ds.off += n
	return b
}

func (ds *DataStream) ReadU32() uint32 {
	b := ds.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (ds *DataStream) ReadI32() int32 {
	return int32(ds.ReadU32())
}

func (ds *DataStream) ReadF32() float32 {
	return math.Float32frombits(ds.ReadU32())
}

func (ds *DataStream) ReadBool() bool {
	b := ds.take(1)
	return b != nil && b[0] != 0
}

func (ds *DataStream) ReadString() string {
	n := ds.ReadU32()
	b := ds.take(int(n))
	if b == nil {
		return ""
	}
	return string(b)
}

// ReadBytes returns a copy of the next length-prefixed byte block.
func (ds *DataStream) ReadBytes() []byte {
	n := ds.ReadU32()
	b := ds.take(int(n))
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func (ds *DataStream) ReadVec3() mgl32.Vec3 {
	return mgl32.Vec3{ds.ReadF32(), ds.ReadF32(), ds.ReadF32()}
}

func (ds *DataStream) ReadQuat() mgl32.Quat {
	x, y, z, w := ds.ReadF32(), ds.ReadF32(), ds.ReadF32(), ds.ReadF32()
	return mgl32.Quat{W: w, V: mgl32.Vec3{x, y, z}}
}
