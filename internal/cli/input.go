package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// isTerminal is a test seam for term.IsTerminal.
var isTerminal = term.IsTerminal

// readLine reads one line and trims the line ending. A final line without a
// newline is returned as is; io.EOF is returned only when nothing was read.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// prompt writes label and reads one line. Surrounding spaces are kept:
// usernames and record data are stored exactly as typed.
func prompt(r *bufio.Reader, w io.Writer, label string) (string, error) {
	if _, err := fmt.Fprintf(w, "%s: ", label); err != nil {
		return "", err
	}
	return readLine(r)
}

// secretReader reads a secret without echo when src is a terminal and falls
// back to a plain line read from r otherwise (pipes, files, tests).
func secretReader(src io.Reader, r *bufio.Reader, w io.Writer) func(label string) (string, error) {
	f, ok := src.(*os.File)
	if !ok || !isTerminal(int(f.Fd())) {
		return func(label string) (string, error) {
			if _, err := fmt.Fprintf(w, "%s: ", label); err != nil {
				return "", err
			}
			// Secrets keep surrounding spaces.
			return readLine(r)
		}
	}
	fd := int(f.Fd())
	return func(label string) (string, error) {
		if _, err := fmt.Fprintf(w, "%s: ", label); err != nil {
			return "", err
		}
		b, err := readPassword(fd)
		fmt.Fprintln(w)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}
