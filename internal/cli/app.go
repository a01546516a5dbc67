package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/existflow/wedplan/internal/actions"
	"github.com/existflow/wedplan/internal/config"
	"github.com/existflow/wedplan/internal/datasync"
	"github.com/existflow/wedplan/internal/logger"
	"github.com/existflow/wedplan/internal/model"
	"github.com/existflow/wedplan/internal/remote"
	"github.com/existflow/wedplan/internal/session"
)

// app wires the remote client, the session, the synchronized data and the
// write actions for one command run.
type app struct {
	cfg     *config.Config
	client  *remote.Client
	session *session.Manager
	data    *datasync.Controller
	actions *actions.Service
	unbind  func()
}

var cfg *config.Config

func openApp(ctx context.Context) (*app, error) {
	c := cfg
	if c == nil {
		c = config.DefaultConfig()
	}

	client, err := remote.NewClient(c.ServerURL, remote.WithTimeout(c.RequestTimeout))
	if err != nil {
		return nil, err
	}

	mgr := session.NewManager(client, client)
	if err := mgr.Start(ctx); err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}

	data := datasync.NewController(client)
	a := &app{
		cfg:     c,
		client:  client,
		session: mgr,
		data:    data,
		actions: actions.New(client, data, mgr),
	}
	a.unbind = data.Bind(ctx, mgr)
	return a, nil
}

func (a *app) Close() {
	a.unbind()
	a.data.Close()
	a.session.Close()
}

// identity returns the signed-in identity or a user-facing error.
func (a *app) identity() (*model.Identity, error) {
	id := a.session.Identity()
	if id == nil {
		return nil, errors.New("not signed in. Run 'wedplan auth login' first")
	}
	return id, nil
}

// loaded waits for the initial load of every collection and reports the
// first failure.
func (a *app) loaded() (datasync.Snapshot, error) {
	if _, err := a.identity(); err != nil {
		return datasync.Snapshot{}, err
	}
	a.data.Wait()
	snap := a.data.Snapshot()
	for _, kind := range datasync.AllKinds {
		if err := snap.Err(kind); err != nil {
			return snap, fmt.Errorf("load %s: %s", kind, remote.Message(err))
		}
	}
	return snap, nil
}

// resolveTask finds a task by full id or unique id prefix.
func resolveTask(tasks []model.Task, ref string) (model.Task, error) {
	ref = strings.TrimSpace(ref)
	var found []model.Task
	for _, t := range tasks {
		if t.ID == ref {
			return t, nil
		}
		if ref != "" && strings.HasPrefix(t.ID, ref) {
			found = append(found, t)
		}
	}
	switch len(found) {
	case 0:
		return model.Task{}, fmt.Errorf("%w: %s", actions.ErrTaskNotFound, ref)
	case 1:
		return found[0], nil
	}
	return model.Task{}, fmt.Errorf("task id %q is ambiguous", ref)
}

// resolveCategory finds a category by id, unique id prefix or name.
func resolveCategory(cats []model.Category, ref string) (model.Category, error) {
	ref = strings.TrimSpace(ref)
	var found []model.Category
	for _, c := range cats {
		if c.ID == ref || strings.EqualFold(c.Name, ref) {
			return c, nil
		}
		if ref != "" && strings.HasPrefix(c.ID, ref) {
			found = append(found, c)
		}
	}
	switch len(found) {
	case 0:
		return model.Category{}, fmt.Errorf("%w: %s", actions.ErrCategoryNotFound, ref)
	case 1:
		return found[0], nil
	}
	return model.Category{}, fmt.Errorf("category %q is ambiguous", ref)
}

func resolveNote(notes []model.Note, ref string) (model.Note, error) {
	ref = strings.TrimSpace(ref)
	var found []model.Note
	for _, n := range notes {
		if n.ID == ref {
			return n, nil
		}
		if ref != "" && strings.HasPrefix(n.ID, ref) {
			found = append(found, n)
		}
	}
	if len(found) != 1 {
		return model.Note{}, fmt.Errorf("%w: %s", actions.ErrNoteNotFound, ref)
	}
	return found[0], nil
}

var stdin = bufio.NewReader(os.Stdin)

func prompt(label string) string {
	fmt.Print(label)
	line, _ := stdin.ReadString('\n')
	return strings.TrimSpace(line)
}

func promptPassword(label string) string {
	fmt.Print(label)
	if !term.IsTerminal(int(syscall.Stdin)) {
		line, _ := stdin.ReadString('\n')
		return strings.TrimRight(line, "\r\n")
	}
	b, _ := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	return string(b)
}

func confirm(label string) bool {
	if cfg != nil && !cfg.ConfirmDelete {
		return true
	}
	answer := strings.ToLower(prompt(label + " [y/N]: "))
	return answer == "y" || answer == "yes"
}

// userError turns err into the one-line message shown to the user.
func userError(err error) error {
	if err == nil {
		return nil
	}
	logger.Debug("Command failed", logger.F("error", err))
	switch {
	case errors.Is(err, actions.ErrCategoryInUse):
		return errors.New("Kategori masih memiliki tugas. Hapus atau pindahkan tugas terlebih dahulu.")
	case errors.Is(err, session.ErrConfirmationPending):
		return errors.New("account created. Confirm your email, then run 'wedplan auth login'")
	case errors.Is(err, session.ErrNoIdentity), errors.Is(err, actions.ErrNotSignedIn):
		return errors.New("not signed in. Run 'wedplan auth login' first")
	case errors.Is(err, session.ErrInvalidInput),
		errors.Is(err, actions.ErrInvalidTask),
		errors.Is(err, actions.ErrInvalidCategory),
		errors.Is(err, actions.ErrInvalidNote),
		errors.Is(err, actions.ErrTaskNotFound),
		errors.Is(err, actions.ErrCategoryNotFound),
		errors.Is(err, actions.ErrNoteNotFound):
		return err
	}
	return errors.New(remote.Message(err))
}
