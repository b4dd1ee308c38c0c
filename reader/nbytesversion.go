package reader

import (
	"fmt"

	"github.com/hepio/rbranch"
	"github.com/hepio/rbranch/rbuf"
)

// NBytesVersion wraps a child reader in a byte-count and version header and
// verifies, after the child runs, that it consumed exactly the advertised
// number of bytes.  The check catches reader trees that drift from the
// streamed layout before the damage spreads to later fields.
type NBytesVersion struct {
	name string
	elem Reader
}

func NewNBytesVersion(name string, elem Reader) *NBytesVersion {
	return &NBytesVersion{name: name, elem: elem}
}

func (r *NBytesVersion) Read(b *rbuf.Buffer) error {
	nbytes, err := b.ReadNBytes()
	if err != nil {
		return fmt.Errorf("%s: %w", r.name, err)
	}
	b.ReadVersion()
	want := int(nbytes) - 2 // version word counted inside nbytes
	start := b.Pos()
	if err := r.elem.Read(b); err != nil {
		return err
	}
	if got := b.Pos() - start; got != want {
		return fmt.Errorf("%s: invalid read length for %s: expected %d bytes, got %d",
			r.name, r.elem.Name(), want, got)
	}
	return nil
}

func (r *NBytesVersion) Finish() rbranch.Payload { return r.elem.Finish() }

func (r *NBytesVersion) Name() string { return r.name }
