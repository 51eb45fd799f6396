// Package cli implements the interactive vault shell.
//
// Commands
//
//	help            show available commands
//	register        create an account
//	login           authenticate
//	logout          end the session
//	store           encrypt and save a record
//	list            list stored records
//	decrypt <n>     decrypt record n
//	delete <n>      delete record n
//	whoami          show the logged-in user
//	exit | quit     leave
//
// Record numbers are 1-based and valid until the next store or delete.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/and161185/secure-vault/internal/model"
	"github.com/and161185/secure-vault/internal/service"
)

// VaultAPI is the caller-facing surface the shell drives. *service.Vault
// implements it.
type VaultAPI interface {
	Register(ctx context.Context, username, password, confirm string) error
	Login(ctx context.Context, sess *service.Session, username, password string) error
	Logout(sess *service.Session) error
	Store(ctx context.Context, sess *service.Session, passphrase, plaintext string) error
	List(ctx context.Context, sess *service.Session) ([]model.Ciphertext, error)
	DecryptItem(ctx context.Context, sess *service.Session, index int, passphrase string) (string, error)
	DeleteItem(ctx context.Context, sess *service.Session, index int) error
}

var _ VaultAPI = (*service.Vault)(nil)

// usageError reports a malformed command line; the value is the expected form.
type usageError string

func (e usageError) Error() string { return "usage: " + string(e) }

// App is one interactive session over a vault.
type App struct {
	vault VaultAPI
	sess  *service.Session
	in    *bufio.Reader
	out   io.Writer
	log   *zap.Logger

	// readSecret reads a password or passphrase.
	readSecret func(label string) (string, error)

	cmds map[string]handler
}

// New returns an App reading commands from in and writing to out. Secrets are
// read without echo when in is a terminal.
func New(vault VaultAPI, sess *service.Session, in io.Reader, out io.Writer, log *zap.Logger) *App {
	if log == nil {
		log = zap.NewNop()
	}
	br := bufio.NewReader(in)
	a := &App{
		vault: vault,
		sess:  sess,
		in:    br,
		out:   out,
		log:   log.With(zap.Stringer("session", sess.ID)),
	}
	a.readSecret = secretReader(in, br, out)

	raw := map[string]handler{
		"register": a.register,
		"login":    a.login,
		"logout":   a.logout,
		"store":    a.store,
		"list":     a.list,
		"decrypt":  a.decrypt,
		"delete":   a.delete,
		"whoami":   a.whoami,
	}
	a.cmds = make(map[string]handler, len(raw))
	for name, h := range raw {
		a.cmds[name] = withRecover(a.log, name, withLogging(a.log, name, h))
	}
	return a
}

// Run reads commands until EOF, exit/quit or ctx cancellation. Command errors
// are rendered and never end the loop.
func (a *App) Run(ctx context.Context) error {
	a.println("Secure vault. Type 'help' for commands.")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "vault%s> ", a.status())
		line, err := readLine(a.in)
		if errors.Is(err, io.EOF) {
			a.println()
			return nil
		}
		if err != nil {
			return err
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		name, args := parts[0], parts[1:]

		switch name {
		case "help":
			a.help()
			continue
		case "exit", "quit":
			a.println("Bye!")
			return nil
		}

		h, ok := a.cmds[name]
		if !ok {
			a.println("Unknown command:", name)
			continue
		}
		if err := h(ctx, args); err != nil {
			if errors.Is(err, io.EOF) {
				a.println()
				return nil
			}
			a.renderErr(err)
		}
	}
}

func (a *App) status() string {
	if a.sess.Authenticated() {
		return " (" + a.sess.AuthenticatedUser + ")"
	}
	return ""
}

func (a *App) help() {
	if a.sess.Authenticated() {
		a.println("Commands: store, list, decrypt <n>, delete <n>, whoami, logout, exit")
		return
	}
	a.println("Commands: register, login, exit")
}

func (a *App) renderErr(err error) {
	var ue usageError
	switch {
	case errors.As(err, &ue):
		a.println("Usage:", string(ue))
	case errors.Is(err, errInternal):
		a.println("Internal error.")
	default:
		a.println(describe(err))
	}
}

func (a *App) println(v ...any) { fmt.Fprintln(a.out, v...) }

func (a *App) register(ctx context.Context, _ []string) error {
	user, err := prompt(a.in, a.out, "Username")
	if err != nil {
		return err
	}
	pass, err := a.readSecret("Password")
	if err != nil {
		return err
	}
	confirm, err := a.readSecret("Confirm password")
	if err != nil {
		return err
	}
	if err := a.vault.Register(ctx, user, pass, confirm); err != nil {
		return err
	}
	a.println("Registered. You can now log in.")
	return nil
}

func (a *App) login(ctx context.Context, _ []string) error {
	user, err := prompt(a.in, a.out, "Username")
	if err != nil {
		return err
	}
	pass, err := a.readSecret("Password")
	if err != nil {
		return err
	}
	if err := a.vault.Login(ctx, a.sess, user, pass); err != nil {
		return err
	}
	a.println("Welcome,", user+"!")
	return nil
}

func (a *App) logout(_ context.Context, _ []string) error {
	if err := a.vault.Logout(a.sess); err != nil {
		return err
	}
	a.println("Logged out.")
	return nil
}

func (a *App) store(ctx context.Context, _ []string) error {
	data, err := prompt(a.in, a.out, "Data to encrypt")
	if err != nil {
		return err
	}
	pass, err := a.readSecret("Passphrase")
	if err != nil {
		return err
	}
	if err := a.vault.Store(ctx, a.sess, pass, data); err != nil {
		return err
	}
	a.println("Stored.")
	return nil
}

func (a *App) list(ctx context.Context, _ []string) error {
	recs, err := a.vault.List(ctx, a.sess)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		a.println("No stored records.")
		return nil
	}
	for i, c := range recs {
		fmt.Fprintf(a.out, "%3d. %s\n", i+1, preview(c))
	}
	return nil
}

func (a *App) decrypt(ctx context.Context, args []string) error {
	idx, err := parseIndex(args, "decrypt <n>")
	if err != nil {
		return err
	}
	pass, err := a.readSecret("Passphrase")
	if err != nil {
		return err
	}
	pt, err := a.vault.DecryptItem(ctx, a.sess, idx, pass)
	if err != nil {
		return err
	}
	a.println(pt)
	return nil
}

func (a *App) delete(ctx context.Context, args []string) error {
	idx, err := parseIndex(args, "delete <n>")
	if err != nil {
		return err
	}
	if err := a.vault.DeleteItem(ctx, a.sess, idx); err != nil {
		return err
	}
	a.println("Deleted. Later records moved up by one.")
	return nil
}

func (a *App) whoami(_ context.Context, _ []string) error {
	if !a.sess.Authenticated() {
		a.println("Not logged in.")
		return nil
	}
	a.println(a.sess.AuthenticatedUser)
	return nil
}

// parseIndex converts a 1-based record number into a 0-based index.
func parseIndex(args []string, usage string) (int, error) {
	if len(args) != 1 {
		return 0, usageError(usage)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, usageError(usage)
	}
	return n - 1, nil
}

// preview shortens a ciphertext for listing.
func preview(c model.Ciphertext) string {
	const width = 40
	s := string(c)
	if len(s) <= width {
		return s
	}
	return s[:width] + "..."
}
