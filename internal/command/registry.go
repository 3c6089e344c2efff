package command

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

var (
	// ErrQuit is returned by a handler that ends the client session.
	ErrQuit = errors.New("command: quit")
	// ErrUnknown is returned for a slash command nobody registered.
	ErrUnknown = errors.New("command: unknown command")
)

// Sender is the part of the chat client that commands drive.
type Sender interface {
	Send(text string) error
	ChangeName(name string) error
	Disconnect() error
}

type Context struct {
	Client Sender
	Out    io.Writer // local feedback, never sent to the server
	Args   []string
	Raw    string
}

type HandlerFunc func(ctx *Context) error

type Command struct {
	Name    string
	Aliases []string
	Usage   string
	Help    string
	Handler HandlerFunc
}

// Registry resolves "/name args..." input lines typed by the user.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*Command
	list   []*Command
}

func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]*Command),
		list:   make([]*Command, 0),
	}
}

func (r *Registry) Register(cmd *Command) error {
	if cmd == nil {
		return errors.New("command is nil")
	}
	name := strings.ToLower(strings.TrimSpace(cmd.Name))
	if name == "" {
		return errors.New("command name is empty")
	}
	if strings.Contains(name, "/") {
		return fmt.Errorf("command name must not contain '/': %s", name)
	}
	keys := []string{name}
	for _, item := range cmd.Aliases {
		if alias := strings.ToLower(strings.TrimSpace(item)); alias != "" {
			keys = append(keys, alias)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range keys {
		if _, exists := r.byName[k]; exists {
			return fmt.Errorf("command %s already registered", k)
		}
	}
	for _, k := range keys {
		r.byName[k] = cmd
	}
	r.list = append(r.list, cmd)
	return nil
}

func (r *Registry) Get(name string) (*Command, bool) {
	k := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "/"))
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.byName[k]
	return cmd, ok
}

// List returns commands in registration order.
func (r *Registry) List() []*Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Command, len(r.list))
	copy(out, r.list)
	return out
}

// Execute runs raw when it is a slash command. handled is false for plain
// chat text, which the caller should send as is.
func (r *Registry) Execute(raw string, ctx *Context) (handled bool, err error) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "/") {
		return false, nil
	}
	parts := strings.Fields(trimmed)
	cmdName := strings.TrimPrefix(parts[0], "/")
	cmd, ok := r.Get(cmdName)
	if !ok {
		return true, fmt.Errorf("%w: /%s", ErrUnknown, cmdName)
	}
	ctx.Args = parts[1:]
	ctx.Raw = raw
	return true, cmd.Handler(ctx)
}
