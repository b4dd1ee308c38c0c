package decode

import (
	"context"
	"encoding/binary"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hepio/rbranch/arrowio"
	"github.com/hepio/rbranch/basket"
	"github.com/hepio/rbranch/cmd/rbranch/root"
	"github.com/hepio/rbranch/reader"
	"github.com/hepio/rbranch/schema"
	"github.com/mccanne/charm"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var Decode = &charm.Spec{
	Name:  "decode",
	Usage: "decode -s schema.yaml -dir dir [options] [branch ...]",
	Short: "decode branch payloads into Arrow arrays",
	Long: `
The decode command reads branch payloads from <dir>/<branch>.dat with entry
offsets from <dir>/<branch>.off (big-endian uint32 per entry boundary) and
prints the decoded Arrow array of each branch.  With no branch arguments,
every branch in the schema is decoded.  Branches decode concurrently, each
with its own reader tree.

With -z the payload files are compressed basket blobs and are inflated
first.  With -eventsize N the offsets file may be omitted for branches
whose events all occupy N bytes.
`,
	New: newCommand,
}

func init() {
	root.Rbranch.Add(Decode)
}

type Command struct {
	*root.Command
	schemaPath string
	dir        string
	compressed bool
	eventSize  int
}

func newCommand(parent charm.Command, f *flag.FlagSet) (charm.Command, error) {
	c := &Command{Command: parent.(*root.Command)}
	f.StringVar(&c.schemaPath, "s", "", "YAML schema describing classes and branches")
	f.StringVar(&c.dir, "dir", ".", "directory holding <branch>.dat and <branch>.off files")
	f.BoolVar(&c.compressed, "z", false, "payload files are compressed basket blobs")
	f.IntVar(&c.eventSize, "eventsize", 0, "fixed event size for branches without an offsets file")
	return c, nil
}

func (c *Command) Run(args []string) error {
	defer c.Cleanup()
	if err := c.Init(); err != nil {
		return err
	}
	if c.schemaPath == "" {
		return errors.New("must specify a schema file with -s")
	}
	data, err := os.ReadFile(c.schemaPath)
	if err != nil {
		return err
	}
	config, err := schema.LoadConfig(data)
	if err != nil {
		return err
	}
	names := args
	if len(names) == 0 {
		for _, b := range config.Branches {
			names = append(names, b.Name)
		}
	}
	registry := config.Registry(c.Logger())

	results := make([]string, len(names))
	g, _ := errgroup.WithContext(context.Background())
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			out, err := c.decodeBranch(registry, config, name)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for i, name := range names {
		fmt.Printf("%s: %s\n", name, results[i])
	}
	return nil
}

func (c *Command) decodeBranch(registry *schema.Registry, config *schema.Config, name string) (string, error) {
	node, ok := config.Branch(name)
	if !ok {
		return "", errors.New("branch not in schema")
	}
	data, err := os.ReadFile(filepath.Join(c.dir, name+".dat"))
	if err != nil {
		return "", err
	}
	if c.compressed {
		if data, err = basket.Decompress(nil, data); err != nil {
			return "", err
		}
	}
	offsets, err := c.readOffsets(name, len(data))
	if err != nil {
		return "", err
	}
	rd, err := registry.Build(node)
	if err != nil {
		return "", err
	}
	c.Logger().Debug("decoding branch",
		zap.String("branch", name),
		zap.Int("entries", len(offsets)-1),
		zap.Int("bytes", len(data)))
	payload, err := reader.ReadData(data, offsets, rd)
	if err != nil {
		return "", err
	}
	if payload == nil {
		return "(no columns)", nil
	}
	arr, err := arrowio.NewArray(payload)
	if err != nil {
		return "", err
	}
	defer arr.Release()
	return arr.String(), nil
}

func (c *Command) readOffsets(name string, dataSize int) ([]uint32, error) {
	raw, err := os.ReadFile(filepath.Join(c.dir, name+".off"))
	if err != nil {
		if os.IsNotExist(err) && c.eventSize > 0 {
			return basket.FixedOffsets(dataSize, c.eventSize)
		}
		return nil, err
	}
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("offsets file is %d bytes, not a multiple of 4", len(raw))
	}
	offsets := make([]uint32, len(raw)/4)
	for i := range offsets {
		offsets[i] = binary.BigEndian.Uint32(raw[i*4:])
	}
	return offsets, nil
}
