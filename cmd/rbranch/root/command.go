package root

import (
	"flag"

	"github.com/mccanne/charm"
	"go.uber.org/zap"
)

var Rbranch = &charm.Spec{
	Name:  "rbranch",
	Usage: "rbranch <command> [options]",
	Short: "decode custom-streamed branch data into columnar arrays",
	Long: `
rbranch reads the raw payload of branches whose streamers the generic
reader cannot handle and decodes them into columnar Arrow arrays, driven
by a YAML description of the streamed classes.
`,
	New: New,
}

func init() {
	Rbranch.Add(charm.Help)
}

type Command struct {
	debug  bool
	logger *zap.Logger
}

func New(parent charm.Command, f *flag.FlagSet) (charm.Command, error) {
	c := &Command{}
	f.BoolVar(&c.debug, "debug", false, "log factory matching and decode progress")
	return c, nil
}

func (c *Command) Run(args []string) error {
	return charm.ErrNoRun
}

// Init builds the logger; subcommands call it at the top of Run.
func (c *Command) Init() error {
	if c.debug {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		c.logger = logger
		return nil
	}
	c.logger = zap.NewNop()
	return nil
}

func (c *Command) Logger() *zap.Logger { return c.logger }

func (c *Command) Cleanup() {
	if c.logger != nil {
		c.logger.Sync()
	}
}
