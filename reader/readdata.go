package reader

import (
	"fmt"

	"github.com/hepio/rbranch"
	"github.com/hepio/rbranch/rbuf"
)

// ReadData decodes every event of a branch with the given root reader and
// returns the root's payload.  offsets must have one more entry than there
// are events, start at 0, and end at len(data).
//
// After each event the cursor must have advanced by exactly that event's
// length; any difference means the reader tree disagrees with the streamed
// layout and the whole decode is abandoned.
func ReadData(data []byte, offsets []uint32, root Reader) (rbranch.Payload, error) {
	b := rbuf.New(data, offsets)
	for i := 0; i < b.Entries(); i++ {
		start := b.Pos()
		if err := root.Read(b); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		want := b.EntryEnd(i) - b.EntryStart(i)
		if got := b.Pos() - start; got != want {
			return nil, fmt.Errorf("%s: invalid read length at entry %d: expected %d bytes, got %d",
				root.Name(), i, want, got)
		}
	}
	return root.Finish(), nil
}
