package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/jrsteele09/go-docs-auth/auth"
	apperrors "github.com/jrsteele09/go-docs-auth/internal/errors"
	"github.com/jrsteele09/go-docs-auth/profile"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

type command struct {
	summary string
	usage   string
	run     func(a *app, args []string) error
}

// commands is filled in init: the run functions read it for their usage text.
var commands map[string]command

func init() {
	commands = map[string]command{
		"login": {
			summary: "Sign in and store the session",
			usage:   "docsauth login <email> [--password-file path]",
			run:     runLogin,
		},
		"logout": {
			summary: "Remove the stored session",
			usage:   "docsauth logout",
			run:     runLogout,
		},
		"status": {
			summary: "Show whether a session is stored",
			usage:   "docsauth status",
			run:     runStatus,
		},
		"whoami": {
			summary: "Show the signed-in user",
			usage:   "docsauth whoami",
			run:     runWhoami,
		},
		"token": {
			summary: "Print or copy the access token",
			usage:   "docsauth token [--copy] [--refresh]",
			run:     runToken,
		},
		"request": {
			summary: "Call the API with the stored token",
			usage:   "docsauth request <METHOD> <path> [--data body]",
			run:     runRequest,
		},
	}
}

func printUsage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "Usage: docsauth <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, name := range names {
		fmt.Fprintf(w, "  %-8s %s\n", name, commands[name].summary)
	}
}

func newFlagSet(name string, a *app) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.Usage = func() {
		fmt.Fprintf(a.stderr, "Usage: %s\n", commands[name].usage)
		fs.PrintDefaults()
	}
	return fs
}

func runLogin(a *app, args []string) error {
	fs := newFlagSet("login", a)
	passwordFile := fs.String("password-file", "", "file holding the password, or - to read it from stdin")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return apperrors.Wrapf(apperrors.ErrValidation, "email is required")
	}

	password, err := readPassword(a, *passwordFile)
	if err != nil {
		return err
	}

	observer := auth.NewObserver(a.client, a.bus, func(s auth.Snapshot) {
		if s.State == auth.Authenticated {
			fmt.Fprintf(a.stdout, "Signed in as %s\n", profile.DisplayName(s.User))
		}
	})
	defer observer.Close()

	form := profile.NewLoginForm(a.client)
	form.SetEmail(fs.Arg(0))
	form.SetPassword(password)

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.GetLoginTimeout()+5*time.Second)
	defer cancel()

	result, err := form.Submit(ctx)
	if err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("%s", form.Error())
	}
	if observer.Snapshot().State != auth.Authenticated {
		fmt.Fprintln(a.stderr, "Login accepted but no access token was returned")
	}
	return nil
}

// readPassword reads from passwordFile, from stdin when it is "-" or not a
// terminal, and otherwise prompts with echo disabled.
func readPassword(a *app, passwordFile string) (string, error) {
	if passwordFile != "" && passwordFile != "-" {
		data, err := os.ReadFile(passwordFile)
		if err != nil {
			return "", fmt.Errorf("reading password file: %w", err)
		}
		return strings.TrimRight(string(data), "\r\n"), nil
	}

	fd := int(a.stdin.Fd())
	if passwordFile == "-" || !term.IsTerminal(fd) {
		line, err := bufio.NewReader(a.stdin).ReadString('\n')
		if err != nil && err != io.EOF {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(a.stderr, "Password: ")
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(a.stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(password), nil
}

func runLogout(a *app, args []string) error {
	fs := newFlagSet("logout", a)
	if err := fs.Parse(args); err != nil {
		return err
	}

	observer := auth.NewObserver(a.client, a.bus, func(s auth.Snapshot) {
		if s.State == auth.Unauthenticated {
			fmt.Fprintln(a.stdout, "Signed out")
		}
	})
	defer observer.Close()

	a.client.Logout()
	return nil
}

func runStatus(a *app, args []string) error {
	fs := newFlagSet("status", a)
	if err := fs.Parse(args); err != nil {
		return err
	}

	observer := auth.NewObserver(a.client, a.bus, nil)
	defer observer.Close()

	snapshot := observer.Snapshot()
	fmt.Fprintf(a.stdout, "State: %s\n", snapshot.State)
	if snapshot.State == auth.Authenticated {
		fmt.Fprintf(a.stdout, "User:  %s\n", profile.DisplayName(snapshot.User))
	}
	return nil
}

func runWhoami(a *app, args []string) error {
	fs := newFlagSet("whoami", a)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if !a.client.IsAuthenticated() {
		return apperrors.ErrNotAuthenticated
	}
	user := a.client.GetUser()
	fmt.Fprintf(a.stdout, "[%s] %s\n", profile.Initials(user), profile.DisplayName(user))
	if email := profile.DisplayEmail(user); email != "" {
		fmt.Fprintf(a.stdout, "Email:   %s\n", email)
	}

	claims, err := a.client.TokenClaims()
	if err != nil {
		// Opaque tokens are fine; there is just nothing more to show.
		return nil
	}
	if claims.Subject != "" {
		fmt.Fprintf(a.stdout, "Subject: %s\n", claims.Subject)
	}
	if !claims.ExpiresAt.IsZero() {
		fmt.Fprintf(a.stdout, "Expires: %s\n", claims.ExpiresAt.Local().Format(time.RFC1123))
	}
	return nil
}

func runToken(a *app, args []string) error {
	fs := newFlagSet("token", a)
	copyToken := fs.Bool("copy", false, "copy to the terminal clipboard instead of printing")
	refresh := fs.Bool("refresh", false, "use the refresh token")
	if err := fs.Parse(args); err != nil {
		return err
	}

	token := a.client.GetToken()
	if *refresh {
		token = a.client.GetRefreshToken()
	}
	if token == "" {
		return apperrors.ErrNotAuthenticated
	}

	if !*copyToken {
		fmt.Fprintln(a.stdout, token)
		return nil
	}

	w, isTerminal := a.stdout, false
	if f, ok := a.stderr.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		w, isTerminal = f, true
	}
	method, err := profile.CopyToken(w, token, isTerminal, os.Getenv("TMUX") != "")
	if err != nil {
		return err
	}
	if method == profile.CopyOSC52 {
		fmt.Fprintln(a.stderr, "Token copied to clipboard")
	}
	return nil
}

func runRequest(a *app, args []string) error {
	fs := newFlagSet("request", a)
	data := fs.String("data", "", "request body")
	contentType := fs.String("content-type", "application/json", "content type of --data")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return apperrors.Wrapf(apperrors.ErrValidation, "method and path are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.GetLoginTimeout())
	defer cancel()

	httpClient, err := a.client.AuthorizedHTTPClient(ctx)
	if err != nil {
		return err
	}

	var body io.Reader
	if *data != "" {
		body = strings.NewReader(*data)
	}
	req, err := a.client.NewAPIRequest(ctx, fs.Arg(0), fs.Arg(1), body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", *contentType)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return apperrors.Wrapf(apperrors.ErrNetwork, "%s %s: %s", req.Method, req.URL, err)
	}
	defer resp.Body.Close()

	fmt.Fprintf(a.stderr, "%s\n", resp.Status)
	if _, err := io.Copy(a.stdout, resp.Body); err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	return nil
}
