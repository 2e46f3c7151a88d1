package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	xcli "github.com/fahmaliyi/xmsg/cli"
	"github.com/fahmaliyi/xmsg/keychain"
	"github.com/fahmaliyi/xmsg/logger"
)

const version = "1.1.0"

func main() {
	app := newApp(os.Stdin, os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "xmsg:", err)
		if keychain.IsStoreUnavailable(err) {
			fmt.Fprintln(os.Stderr, "Run \"xmsg keys init\" or \"xmsg keys create\" to set up a key store.")
		}
		os.Exit(1)
	}
}

// streams are the process streams handed to every command.
type streams struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

func newApp(in io.Reader, out, errOut io.Writer) *cli.App {
	s := &streams{in: in, out: out, err: errOut}

	app := cli.NewApp()
	app.Name = "xmsg"
	app.Usage = "Encrypt short messages with shared keys"
	app.Version = version
	app.Writer = out
	app.ErrWriter = errOut
	app.Flags = getFlags()
	app.Action = s.run
	app.Commands = []cli.Command{
		{
			Name:  "keys",
			Usage: "manage the key store",
			Subcommands: []cli.Command{
				{
					Name:   "list",
					Usage:  "list keys with their fingerprints",
					Action: s.listKeys,
				},
				{
					Name:   "init",
					Usage:  "create an empty key store",
					Action: s.initStore,
				},
				{
					Name:  "create",
					Usage: "add a key",
					Flags: []cli.Flag{
						cli.StringFlag{
							Name:  "name, n",
							Usage: "key `NAME`, at most 16 bytes (default: generated)",
						},
						cli.BoolFlag{
							Name:  "secret-stdin",
							Usage: "read the secret (32 bytes or 64 hex digits) from stdin",
						},
						cli.BoolFlag{
							Name:  "prompt-secret",
							Usage: "type the secret in without echo",
						},
					},
					Action: s.createKey,
				},
				{
					Name:      "delete",
					Usage:     "remove a key",
					ArgsUsage: "[INDEX]",
					Action:    s.deleteKey,
				},
			},
		},
	}
	return app
}

func getFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Usage: "load configuration from `FILE`",
		},
		cli.StringFlag{
			Name:  "keystore, s",
			Usage: "use the key store at `PATH` (default: \"~/.xmsg/xmsgkey.txt\")",
		},
		cli.IntFlag{
			Name:  "key, k",
			Usage: "use the key at `INDEX`",
			Value: keychain.NoIndex,
		},
		cli.BoolFlag{
			Name:  "encrypt, e",
			Usage: "encrypt the message given as arguments or on stdin",
		},
		cli.BoolFlag{
			Name:  "decrypt, d",
			Usage: "decrypt the token given as arguments or on stdin",
		},
		cli.BoolFlag{
			Name:  "copy",
			Usage: "copy the encrypted token to the clipboard",
		},
		cli.BoolFlag{
			Name:  "debug, D",
			Usage: "enable debug logging",
		},
		cli.BoolFlag{
			Name:  "dumpkeys, K",
			Usage: "list keys and exit",
		},
		cli.BoolFlag{
			Name:  "createkey",
			Usage: "add a key interactively",
		},
		cli.BoolFlag{
			Name:  "deletekey",
			Usage: "remove a key",
		},
		cli.BoolFlag{
			Name:  "tui",
			Usage: "run the full-screen interface",
		},
	}
}

func (s *streams) env(c *cli.Context) (*xcli.Env, error) {
	config, err := xcli.NewConfig(c.GlobalString("config"))
	if err != nil {
		return nil, err
	}
	if path := c.GlobalString("keystore"); path != "" {
		config.StorePath = path
	}
	if c.GlobalBool("debug") {
		config.LogLevel = uint32(log.DebugLevel)
	}

	log := logger.NewLogger(config.LogLevel)
	log.SetWriter(s.err)
	env := xcli.NewEnv(config, log, s.in, s.out, s.err)
	env.Interactive = xcli.IsTerminal(s.in)
	return env, nil
}

func (s *streams) run(c *cli.Context) error {
	env, err := s.env(c)
	if err != nil {
		return err
	}
	index := c.GlobalInt("key")
	encrypt, decrypt := c.Bool("encrypt"), c.Bool("decrypt")

	switch {
	case c.Bool("dumpkeys"):
		return env.ListKeys()
	case c.Bool("createkey"):
		return env.CreateKeyInteractive()
	case c.Bool("deletekey"):
		return env.DeleteKey(index)
	case encrypt && decrypt:
		return fmt.Errorf("--encrypt and --decrypt are mutually exclusive")
	case encrypt, decrypt:
		return s.oneShot(c, env, index, encrypt)
	case c.Bool("tui"):
		return env.RunTUI(index)
	default:
		return env.RunSession(index)
	}
}

// oneShot handles -e and -d. The key is only asked for when the message
// came from the arguments and stdin is free for the answer.
func (s *streams) oneShot(c *cli.Context, env *xcli.Env, index int, encrypt bool) error {
	input, err := xcli.ReadMessage(c.Args(), env.Input())
	if err != nil {
		return err
	}
	env.Interactive = env.Interactive && c.NArg() > 0

	if !encrypt {
		plaintext, err := env.Decrypt(index, string(input))
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "%s\n", plaintext)
		return nil
	}

	token, err := env.Encrypt(index, input)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, token)
	if c.Bool("copy") {
		return env.Copy(token)
	}
	return nil
}

func (s *streams) listKeys(c *cli.Context) error {
	env, err := s.env(c)
	if err != nil {
		return err
	}
	return env.ListKeys()
}

func (s *streams) initStore(c *cli.Context) error {
	env, err := s.env(c)
	if err != nil {
		return err
	}
	return env.InitStore()
}

func (s *streams) createKey(c *cli.Context) error {
	env, err := s.env(c)
	if err != nil {
		return err
	}
	name := c.String("name")
	switch {
	case c.Bool("secret-stdin") && c.Bool("prompt-secret"):
		return fmt.Errorf("--secret-stdin and --prompt-secret are mutually exclusive")
	case c.Bool("secret-stdin"):
		return env.CreateKeyFromInput(name)
	case c.Bool("prompt-secret"):
		return env.CreateKeyPrompted(name)
	default:
		return env.CreateKey(name, nil)
	}
}

func (s *streams) deleteKey(c *cli.Context) error {
	env, err := s.env(c)
	if err != nil {
		return err
	}
	index := c.GlobalInt("key")
	if arg := c.Args().First(); arg != "" {
		if index, err = strconv.Atoi(arg); err != nil {
			return fmt.Errorf("invalid key index %q", arg)
		}
	}
	return env.DeleteKey(index)
}
