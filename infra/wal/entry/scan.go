package entry

import (
	"encoding/binary"
	"io"

	"github.com/cockroachdb/errors"

	"hotswap/infra/wal"
)

var ErrCorrupt = errors.New("entry: corrupt record")

// readRecord reads one frame. avail is the number of bytes left in the
// segment from the start of the frame. A frame cut short at the end of
// a segment surfaces as io.ErrUnexpectedEOF; a frame whose header does
// not check out is ErrCorrupt, wherever it sits.
func readRecord(r io.Reader, avail int64) (*Record, error) {
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}
	if !wal.CRC32Valid(header[:21], binary.BigEndian.Uint32(header[21:25])) {
		return nil, errors.Wrapf(ErrCorrupt, "header crc mismatch at seq %d", binary.BigEndian.Uint64(header[1:9]))
	}

	l := binary.BigEndian.Uint32(header[17:21])
	if l > MaxPayload {
		return nil, errors.Wrapf(ErrCorrupt, "length %d at seq %d", l, binary.BigEndian.Uint64(header[1:9]))
	}
	if int64(l)+4 > avail-headerSize {
		return nil, io.ErrUnexpectedEOF
	}
	body := make([]byte, int(l)+4)
	if _, err := io.ReadFull(r, body); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}

	payload := body[:l]
	crc := binary.BigEndian.Uint32(body[l:])
	if !wal.CRC32Valid(append(header, payload...), crc) {
		return nil, errors.Wrapf(ErrCorrupt, "crc mismatch at seq %d", binary.BigEndian.Uint64(header[1:9]))
	}

	return &Record{
		Type: RecordType(header[0]),
		Seq:  binary.BigEndian.Uint64(header[1:9]),
		Time: int64(binary.BigEndian.Uint64(header[9:17])),
		Data: payload,
	}, nil
}

// maxSeqInSegment scans a segment and returns the highest sequence in
// it. Used only for truncation.
func maxSeqInSegment(path string) (uint64, error) {
	var max uint64
	err := scanSegment(path, func(rec *Record) error {
		if rec.Seq > max {
			max = rec.Seq
		}
		return nil
	})
	return max, err
}
