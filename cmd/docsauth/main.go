package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-docs-auth/auth"
	"github.com/jrsteele09/go-docs-auth/internal/config"
	"github.com/jrsteele09/go-docs-auth/internal/logging"
	"github.com/jrsteele09/go-docs-auth/internal/storage"
	"github.com/jrsteele09/go-docs-auth/notify"
	"github.com/jrsteele09/go-docs-auth/sessions"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin *os.File, stdout, stderr io.Writer) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	logging.Configure(c.GetEnv(), c.GetLogLevel())

	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		displayAppname(stdout, c.GetAppName())
		printUsage(stdout)
		return nil
	}

	cmd, ok := commands[args[0]]
	if !ok {
		printUsage(stderr)
		return fmt.Errorf("unknown command %q", args[0])
	}

	a, err := newApp(c, stdin, stdout, stderr)
	if err != nil {
		return err
	}
	defer a.close()

	return cmd.run(a, args[1:])
}

// app is the wiring shared by every command.
type app struct {
	cfg    config.Config
	client *auth.Client
	bus    notify.Bus
	closer io.Closer
	stdin  *os.File
	stdout io.Writer
	stderr io.Writer
}

func newApp(c config.Config, stdin *os.File, stdout, stderr io.Writer) (*app, error) {
	origin, err := sessions.OriginFromURL(c.GetLoginURL())
	if err != nil {
		return nil, fmt.Errorf("login url: %w", err)
	}

	repo, closer, err := storage.Open(c, origin)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	bus := notify.NewLocalBus()
	client, err := auth.NewClient(c, repo, bus)
	if err != nil {
		closer.Close()
		return nil, err
	}

	return &app{
		cfg:    c,
		client: client,
		bus:    bus,
		closer: closer,
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}, nil
}

func (a *app) close() {
	if err := a.closer.Close(); err != nil {
		log.Warn().Err(err).Msg("closing session store")
	}
}

func displayAppname(w io.Writer, appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	fmt.Fprintln(w, myFigure.String())
}
