// mountainlog is the operator tool for accumulator machines: it opens the
// machine store, runs an in process ledger over it, and exposes the machine
// operations as subcommands.
package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/mountainlog/go-mountainlog/hasher"
	"github.com/mountainlog/go-mountainlog/ledger"
	"github.com/mountainlog/go-mountainlog/logging"
	"github.com/mountainlog/go-mountainlog/machine"
	"github.com/mountainlog/go-mountainlog/provider"
	"github.com/mountainlog/go-mountainlog/signer"
	"github.com/mountainlog/go-mountainlog/storage"
)

func main() {
	app := &App{}
	cliApp := &cli.App{
		Name:   "mountainlog",
		Usage:  "operate append only accumulator machines",
		Flags:  app.InitFlags(),
		Before: app.InitCfg,
		After:  app.Shutdown,
		Commands: []*cli.Command{
			{
				Name:   "create",
				Usage:  "create a new accumulator machine",
				Flags:  app.CreateFlags(),
				Action: app.CreateCmd,
			},
			{
				Name:      "push",
				Usage:     "push a value from a file, or stdin with -",
				ArgsUsage: "[INPUT]",
				Flags:     app.PushFlags(),
				Action:    app.PushCmd,
			},
			{
				Name:      "leaf",
				Usage:     "get leaf at a given index and height",
				ArgsUsage: "INDEX",
				Flags:     app.QueryFlags(),
				Action:    app.LeafCmd,
			},
			{
				Name:   "count",
				Usage:  "get leaf count at a given height",
				Flags:  app.QueryFlags(),
				Action: app.CountCmd,
			},
			{
				Name:   "peaks",
				Usage:  "get peaks at a given height",
				Flags:  app.QueryFlags(),
				Action: app.PeaksCmd,
			},
			{
				Name:   "root",
				Usage:  "get root at a given height",
				Flags:  app.QueryFlags(),
				Action: app.RootCmd,
			},
			{
				Name:   "machines",
				Usage:  "list known machine addresses",
				Action: app.MachinesCmd,
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

type App struct {
	config   Config
	log      zerolog.Logger
	store    storage.Store
	ledger   *ledger.Ledger
	provider *provider.Provider
}

func (app *App) InitFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Value:   "./mountainlog.yaml",
			Usage:   "path to configuration",
		},
		&cli.StringFlag{
			Name:    "datadir",
			Aliases: []string{"d"},
			Value:   "",
			EnvVars: []string{"MOUNTAINLOG_DATADIR"},
			Usage:   "machine store directory, will override value from config file",
		},
		&cli.StringFlag{
			Name:    "private-key",
			Aliases: []string{"k"},
			Value:   "",
			EnvVars: []string{"MOUNTAINLOG_PRIVATE_KEY"},
			Usage:   "hex encoded secp256k1 private key for signing transactions",
		},
	}
}

func (app *App) InitCfg(c *cli.Context) error {
	var err error
	app.config, err = parseConfig(c.String("config"))
	if err != nil {
		return cli.Exit(err, 1)
	}
	if datadir := c.String("datadir"); datadir != "" {
		app.config.DataDir = datadir
	}

	level, err := zerolog.ParseLevel(app.config.LogLevel)
	if err != nil {
		return cli.Exit(err, 1)
	}
	app.log = logging.New("mountainlog", level, app.config.Logging)

	h, err := hasher.New(app.config.Scheme)
	if err != nil {
		return cli.Exit(err, 1)
	}

	if app.config.DataDir == "" {
		app.store = storage.NewMemStore()
	} else {
		app.store, err = storage.OpenBadger(app.config.DataDir)
		if err != nil {
			return cli.Exit(fmt.Errorf("opening machine store: %w", err), 1)
		}
	}

	registry := machine.NewRegistry(app.log, h, app.store)
	if err := registry.Load(); err != nil {
		return cli.Exit(fmt.Errorf("loading machines: %w", err), 1)
	}

	app.ledger = ledger.New(app.log, registry)
	app.ledger.Resume(registry.LatestHeight())
	app.ledger.Start()

	app.provider = provider.New(app.log, app.ledger, registry)
	return nil
}

func (app *App) Shutdown(*cli.Context) error {
	if app.ledger != nil {
		app.ledger.Stop()
	}
	if app.store != nil {
		return app.store.Close()
	}
	return nil
}

func (app *App) signer(c *cli.Context) (*signer.Signer, error) {
	key := c.String("private-key")
	if key == "" {
		return nil, cli.Exit("a private key is required, pass --private-key or set MOUNTAINLOG_PRIVATE_KEY", 1)
	}
	return signer.ParsePrivateKey(key)
}

func (app *App) address(c *cli.Context) (machine.Address, error) {
	return machine.ParseAddress(c.String("address"))
}

func (app *App) queryHeight(c *cli.Context) (provider.QueryHeight, error) {
	return provider.ParseQueryHeight(c.String("height"))
}

func (app *App) CreateFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "public-write",
			Usage: "allow public write access to the machine",
		},
	}
}

func (app *App) CreateCmd(c *cli.Context) error {
	s, err := app.signer(c)
	if err != nil {
		return err
	}
	access := machine.OnlyOwner
	if c.Bool("public-write") {
		access = machine.Public
	}

	receipt, err := app.provider.CreateMachine(c.Context, s, access, ledger.ModeCommit)
	if err != nil {
		return err
	}
	return printJSON(map[string]any{"address": receipt.Address, "tx": receipt})
}

func (app *App) PushFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "address",
			Aliases:  []string{"a"},
			Usage:    "accumulator machine address",
			Required: true,
		},
		&cli.StringFlag{
			Name:    "broadcast-mode",
			Aliases: []string{"b"},
			Value:   string(ledger.ModeCommit),
			Usage:   "how long to wait: async, sync or commit",
		},
	}
}

func (app *App) PushCmd(c *cli.Context) error {
	s, err := app.signer(c)
	if err != nil {
		return err
	}
	addr, err := app.address(c)
	if err != nil {
		return err
	}
	mode, err := ledger.ParseBroadcastMode(c.String("broadcast-mode"))
	if err != nil {
		return err
	}

	payload, err := readInput(c.Args().First())
	if err != nil {
		return err
	}

	receipt, err := app.provider.Push(c.Context, s, addr, payload, mode)
	if err != nil {
		return err
	}
	return printJSON(receipt)
}

func (app *App) QueryFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "address",
			Aliases:  []string{"a"},
			Usage:    "accumulator machine address",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "height",
			Value: "committed",
			Usage: "query height: committed, pending or a decimal height",
		},
	}
}

func (app *App) LeafCmd(c *cli.Context) error {
	addr, err := app.address(c)
	if err != nil {
		return err
	}
	height, err := app.queryHeight(c)
	if err != nil {
		return err
	}
	var index uint64
	if _, err := fmt.Sscanf(c.Args().First(), "%d", &index); err != nil {
		return cli.Exit(fmt.Sprintf("invalid leaf index %q", c.Args().First()), 1)
	}

	leaf, err := app.provider.Leaf(addr, index, height)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(leaf)
	return err
}

func (app *App) CountCmd(c *cli.Context) error {
	addr, err := app.address(c)
	if err != nil {
		return err
	}
	height, err := app.queryHeight(c)
	if err != nil {
		return err
	}
	count, err := app.provider.Count(addr, height)
	if err != nil {
		return err
	}
	return printJSON(map[string]any{"count": count})
}

func (app *App) PeaksCmd(c *cli.Context) error {
	addr, err := app.address(c)
	if err != nil {
		return err
	}
	height, err := app.queryHeight(c)
	if err != nil {
		return err
	}
	peaks, err := app.provider.Peaks(addr, height)
	if err != nil {
		return err
	}
	encoded := make([]string, len(peaks))
	for i, p := range peaks {
		encoded[i] = hex.EncodeToString(p)
	}
	return printJSON(map[string]any{"peaks": encoded})
}

func (app *App) RootCmd(c *cli.Context) error {
	addr, err := app.address(c)
	if err != nil {
		return err
	}
	height, err := app.queryHeight(c)
	if err != nil {
		return err
	}
	root, err := app.provider.Root(addr, height)
	if err != nil {
		return err
	}
	return printJSON(map[string]any{"root": hex.EncodeToString(root)})
}

func (app *App) MachinesCmd(c *cli.Context) error {
	addrs := app.provider.Addresses()
	encoded := make([]string, len(addrs))
	for i, a := range addrs {
		encoded[i] = a.String()
	}
	return printJSON(map[string]any{"machines": encoded})
}

// readInput reads the push payload from the named file, or from stdin when
// the name is "-" or absent.
func readInput(name string) ([]byte, error) {
	if name == "" || name == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(name)
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
