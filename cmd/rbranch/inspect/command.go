package inspect

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/hepio/rbranch/basket"
	"github.com/hepio/rbranch/cmd/rbranch/root"
	"github.com/mccanne/charm"
)

var Inspect = &charm.Spec{
	Name:  "inspect",
	Usage: "inspect file ...",
	Short: "list the compression frames of basket blobs",
	Long: `
The inspect command walks the compression frames of each compressed basket
blob and reports the algorithm tag and the compressed and uncompressed size
of every frame.  Useful for checking what a container actually wrote before
attempting a decode.
`,
	New: newCommand,
}

func init() {
	root.Rbranch.Add(Inspect)
}

type Command struct {
	*root.Command
}

func newCommand(parent charm.Command, f *flag.FlagSet) (charm.Command, error) {
	return &Command{Command: parent.(*root.Command)}, nil
}

func (c *Command) Run(args []string) error {
	defer c.Cleanup()
	if err := c.Init(); err != nil {
		return err
	}
	if len(args) == 0 {
		return errors.New("must specify at least one blob file")
	}
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		frames, err := basket.Frames(data)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		fmt.Printf("%s: %d frames\n", path, len(frames))
		for i, f := range frames {
			fmt.Printf("  %d: %s %d -> %d bytes\n", i, f.Tag, f.Compressed, f.Uncompressed)
		}
	}
	return nil
}
