package entry

import (
	"encoding/binary"
	"time"

	"github.com/cockroachdb/errors"

	"hotswap/infra/wal"
)

type RecordType uint8

const (
	RecordMutation RecordType = iota + 1
	RecordCheckpoint
)

type Record struct {
	Type RecordType
	Seq  uint64
	Time int64
	Data []byte
}

func NewRecord(t RecordType, seq uint64, data []byte) *Record {
	return &Record{
		Type: t,
		Seq:  seq,
		Time: time.Now().UnixNano(),
		Data: data,
	}
}

// Frame:
// [type:1][seq:8][time:8][len:4][hcrc:4][payload][crc:4]
//
// hcrc covers the first 21 bytes so a damaged length is caught before
// it is trusted; crc covers header and payload.
const (
	headerSize = 1 + 8 + 8 + 4 + 4

	// MaxPayload bounds a single record.
	MaxPayload = 64 << 20
)

var ErrTooLarge = errors.New("entry: record exceeds MaxPayload")

// encodeFrame lays r out as one frame.
func encodeFrame(r *Record) []byte {
	n := len(r.Data)
	buf := make([]byte, headerSize+n+4)

	buf[0] = byte(r.Type)
	binary.BigEndian.PutUint64(buf[1:9], r.Seq)
	binary.BigEndian.PutUint64(buf[9:17], uint64(r.Time))
	binary.BigEndian.PutUint32(buf[17:21], uint32(n))
	binary.BigEndian.PutUint32(buf[21:25], wal.CRC32(buf[:21]))
	copy(buf[headerSize:], r.Data)
	binary.BigEndian.PutUint32(buf[headerSize+n:], wal.CRC32(buf[:headerSize+n]))
	return buf
}
