package profile

import (
	"fmt"
	"io"

	"github.com/aymanbagabas/go-osc52/v2"
)

type CopyMethod int

const (
	CopyOSC52 CopyMethod = iota
	CopyPrinted
)

// CopyToken puts token on the terminal clipboard with an OSC 52 sequence when
// w is a terminal. Otherwise the token is printed to w as a plain line so it
// can be copied by hand or piped.
func CopyToken(w io.Writer, token string, isTerminal bool, inTmux bool) (CopyMethod, error) {
	if token == "" {
		return CopyPrinted, fmt.Errorf("no token to copy")
	}
	if isTerminal {
		seq := osc52.New(token)
		if inTmux {
			seq = seq.Tmux()
		}
		if _, err := seq.WriteTo(w); err == nil {
			return CopyOSC52, nil
		}
	}
	if _, err := fmt.Fprintln(w, token); err != nil {
		return CopyPrinted, fmt.Errorf("printing token: %w", err)
	}
	return CopyPrinted, nil
}
