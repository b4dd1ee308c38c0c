// Package basket inflates the compressed payload blobs that branch data
// arrives in and assembles the per-event offset table the decoder needs.
//
// A compressed blob is a run of frames.  Each frame starts with a nine-byte
// header: a two-byte algorithm tag, one algorithm detail byte, the
// compressed size, and the uncompressed size, both as three-byte
// little-endian integers.  LZ4 frames carry an eight-byte stored checksum
// between the header and the block.
package basket

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

const frameHeaderSize = 9

// lz4ChecksumSize is the stored xxhash64 of the uncompressed block; it is
// not verified here.
const lz4ChecksumSize = 8

// Decompress inflates a compressed basket blob, appending to dst, which may
// be nil.  Frames are inflated in order until src is exhausted.
func Decompress(dst, src []byte) ([]byte, error) {
	for len(src) > 0 {
		if len(src) < frameHeaderSize {
			return nil, fmt.Errorf("basket: truncated frame header: %d bytes", len(src))
		}
		tag := string(src[:2])
		compressed := int(src[3]) | int(src[4])<<8 | int(src[5])<<16
		uncompressed := int(src[6]) | int(src[7])<<8 | int(src[8])<<16
		body := src[frameHeaderSize:]
		if len(body) < compressed {
			return nil, fmt.Errorf("basket: frame body truncated: expected %d bytes, have %d",
				compressed, len(body))
		}
		body = body[:compressed]
		var err error
		switch tag {
		case "L4":
			dst, err = inflateLZ4(dst, body, uncompressed)
		case "ZL":
			dst, err = inflateZlib(dst, body, uncompressed)
		default:
			err = fmt.Errorf("basket: unknown compression tag %q", tag)
		}
		if err != nil {
			return nil, err
		}
		src = src[frameHeaderSize+compressed:]
	}
	return dst, nil
}

func inflateLZ4(dst, src []byte, uncompressed int) ([]byte, error) {
	if len(src) < lz4ChecksumSize {
		return nil, fmt.Errorf("basket: LZ4 frame shorter than its checksum")
	}
	src = src[lz4ChecksumSize:]
	out := make([]byte, uncompressed)
	n, err := lz4.UncompressBlock(src, out)
	if err != nil {
		return nil, fmt.Errorf("basket: %w", err)
	}
	if n != uncompressed {
		return nil, fmt.Errorf("basket: got %d uncompressed bytes, expected %d", n, uncompressed)
	}
	return append(dst, out...), nil
}

func inflateZlib(dst, src []byte, uncompressed int) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("basket: %w", err)
	}
	defer zr.Close()
	out := make([]byte, uncompressed)
	if _, err := io.ReadFull(zr, out); err != nil {
		return nil, fmt.Errorf("basket: %w", err)
	}
	return append(dst, out...), nil
}

// A Frame describes one compression frame of a blob without inflating it.
type Frame struct {
	Tag          string
	Compressed   int
	Uncompressed int
}

// Frames walks the frame headers of a compressed blob.
func Frames(src []byte) ([]Frame, error) {
	var frames []Frame
	for len(src) > 0 {
		if len(src) < frameHeaderSize {
			return nil, fmt.Errorf("basket: truncated frame header: %d bytes", len(src))
		}
		f := Frame{
			Tag:          string(src[:2]),
			Compressed:   int(src[3]) | int(src[4])<<8 | int(src[5])<<16,
			Uncompressed: int(src[6]) | int(src[7])<<8 | int(src[8])<<16,
		}
		if len(src)-frameHeaderSize < f.Compressed {
			return nil, fmt.Errorf("basket: frame body truncated: expected %d bytes, have %d",
				f.Compressed, len(src)-frameHeaderSize)
		}
		frames = append(frames, f)
		src = src[frameHeaderSize+f.Compressed:]
	}
	return frames, nil
}

// FixedOffsets builds the offset table for a branch whose events all occupy
// eventSize bytes, the case where the container stores no offset array.
func FixedOffsets(dataSize, eventSize int) ([]uint32, error) {
	if eventSize <= 0 || dataSize%eventSize != 0 {
		return nil, fmt.Errorf("basket: %d data bytes do not divide into %d-byte events",
			dataSize, eventSize)
	}
	offsets := make([]uint32, dataSize/eventSize+1)
	for i := range offsets {
		offsets[i] = uint32(i * eventSize)
	}
	return offsets, nil
}

// Concat stitches the decompressed payloads of consecutive baskets into one
// contiguous blob with a single absolute offset table.  Each basket brings
// its payload bytes and its local entry offsets (starting at 0 and ending at
// the payload length).
func Concat(payloads [][]byte, entryOffsets [][]uint32) ([]byte, []uint32, error) {
	if len(payloads) != len(entryOffsets) {
		return nil, nil, fmt.Errorf("basket: %d payloads with %d offset tables",
			len(payloads), len(entryOffsets))
	}
	var data []byte
	offsets := []uint32{0}
	for i, p := range payloads {
		local := entryOffsets[i]
		if len(local) == 0 || local[0] != 0 || int(local[len(local)-1]) != len(p) {
			return nil, nil, fmt.Errorf("basket %d: entry offsets do not span the payload", i)
		}
		base := uint32(len(data))
		for _, off := range local[1:] {
			offsets = append(offsets, base+off)
		}
		data = append(data, p...)
	}
	return data, offsets, nil
}
