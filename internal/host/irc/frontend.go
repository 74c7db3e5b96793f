// Package irc is an IRC-facing host for bridged accounts, in the manner of
// BitlBee: notifications are posted to a control channel and the owner's
// lines in that channel are commands to the sessions.
package irc

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/lrstanley/girc"
	"github.com/soyeahso/imbridge/internal/config"
	"github.com/soyeahso/imbridge/internal/domain"
	"github.com/soyeahso/imbridge/internal/logging"
	"github.com/soyeahso/imbridge/internal/version"
)

// backlogSize bounds the lines held while the IRC connection is down.
const backlogSize = 256

// Commander executes control-channel commands. account.Manager satisfies it.
type Commander interface {
	SendMessage(ctx context.Context, account, name, text string) error
	Route(ctx context.Context, name, text string) (int, error)
	Logout(account string) error
	Status() []domain.AccountStatus
}

// sink is where rendered lines go; the girc client in production.
type sink interface {
	Message(target, text string)
}

type gircSink struct{ c *girc.Client }

func (s gircSink) Message(target, text string) { s.c.Cmd.Message(target, text) }

// Frontend implements domain.Notifier on top of an IRC connection.
type Frontend struct {
	cfg    config.IRCConfig
	client *girc.Client
	log    *logging.Logger

	mu      sync.RWMutex
	out     sink
	cmd     Commander
	ctx     context.Context
	joined  bool
	backlog []string
	running bool
	lastErr string
}

// New creates an IRC frontend from configuration.
func New(cfg config.IRCConfig, log *logging.Logger) *Frontend {
	return &Frontend{
		cfg: cfg,
		log: log.Sub("irc"),
		ctx: context.Background(),
	}
}

var _ domain.Notifier = (*Frontend)(nil)

// Bind sets the target for control-channel commands.
func (f *Frontend) Bind(cmd Commander) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cmd = cmd
}

// Status returns the IRC connection state.
func (f *Frontend) Status() (running bool, lastErr string) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.running, f.lastErr
}

// Start connects to the IRC server and blocks until the connection ends or
// ctx is cancelled.
func (f *Frontend) Start(ctx context.Context) error {
	port := f.cfg.Port
	if port == 0 {
		if f.cfg.UseTLS {
			port = 6697
		} else {
			port = 6667
		}
	}

	gircCfg := girc.Config{
		Server:  f.cfg.Server,
		Port:    port,
		Nick:    f.cfg.Nick,
		User:    f.cfg.Nick,
		Name:    "imbridge",
		SSL:     f.cfg.UseTLS,
		Version: version.UserAgent(),
	}
	if f.cfg.UseTLS {
		gircCfg.TLSConfig = &tls.Config{ServerName: f.cfg.Server}
	}
	if f.cfg.SASL && f.cfg.Password != "" {
		gircCfg.SASL = &girc.SASLPlain{User: f.cfg.Nick, Pass: f.cfg.Password}
	} else if f.cfg.Password != "" {
		gircCfg.ServerPass = f.cfg.Password
	}

	client := girc.New(gircCfg)
	client.Handlers.Add(girc.CONNECTED, f.onConnected)
	client.Handlers.Add(girc.JOIN, f.onJoin)
	client.Handlers.Add(girc.PRIVMSG, f.onPrivmsg)
	client.Handlers.Add(girc.DISCONNECTED, f.onDisconnected)

	f.mu.Lock()
	f.client = client
	f.out = gircSink{c: client}
	f.ctx = ctx
	f.running = true
	f.lastErr = ""
	f.mu.Unlock()

	f.log.Info().
		Str("server", f.cfg.Server).
		Int("port", port).
		Str("nick", f.cfg.Nick).
		Str("channel", f.cfg.Channel).
		Bool("tls", f.cfg.UseTLS).
		Msg("connecting to IRC")

	errCh := make(chan error, 1)
	go func() {
		errCh <- client.Connect()
	}()

	select {
	case err := <-errCh:
		f.mu.Lock()
		f.running = false
		if err != nil {
			f.lastErr = err.Error()
		}
		f.mu.Unlock()
		if err != nil {
			return fmt.Errorf("irc connect: %w", err)
		}
		return nil
	case <-ctx.Done():
		client.Close()
		f.mu.Lock()
		f.running = false
		f.mu.Unlock()
		return ctx.Err()
	}
}

// Stop quits the IRC server.
func (f *Frontend) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.client != nil && f.client.IsConnected() {
		f.log.Info().Msg("disconnecting from IRC")
		f.client.Quit("imbridge shutting down")
	}
	f.running = false
}

func (f *Frontend) onConnected(c *girc.Client, _ girc.Event) {
	f.log.Info().Str("nick", c.GetNick()).Str("channel", f.cfg.Channel).Msg("connected to IRC, joining control channel")
	c.Cmd.Join(f.cfg.Channel)
}

func (f *Frontend) onJoin(c *girc.Client, e girc.Event) {
	if e.Source == nil || len(e.Params) == 0 || e.Source.Name != c.GetNick() {
		return
	}
	if !strings.EqualFold(e.Params[0], f.cfg.Channel) {
		return
	}
	f.log.Info().Str("channel", f.cfg.Channel).Msg("joined control channel")
	f.flush()
}

func (f *Frontend) onDisconnected(_ *girc.Client, _ girc.Event) {
	f.log.Warn().Msg("disconnected from IRC")
	f.mu.Lock()
	f.running = false
	f.joined = false
	f.mu.Unlock()
}

func (f *Frontend) onPrivmsg(c *girc.Client, e girc.Event) {
	if e.Source == nil || len(e.Params) == 0 || e.IsAction() {
		return
	}
	if e.Source.Name == c.GetNick() {
		return
	}
	f.handleLine(e.Source.Name, e.Params[0], e.Last())
}

// handleLine runs a command written by nick into target.
func (f *Frontend) handleLine(nick, target, line string) {
	if !strings.EqualFold(target, f.cfg.Channel) {
		return
	}
	if f.cfg.Owner != "" && !strings.EqualFold(nick, f.cfg.Owner) {
		f.log.Debug().Str("nick", nick).Msg("ignoring line from non-owner")
		return
	}

	cmd, err := parseCommand(line)
	if errors.Is(err, errNotCommand) {
		return
	}
	if err != nil {
		f.say(err.Error())
		return
	}

	f.mu.RLock()
	commander, ctx := f.cmd, f.ctx
	f.mu.RUnlock()
	if commander == nil && cmd.kind != cmdHelp {
		f.say("no accounts are bridged")
		return
	}

	switch cmd.kind {
	case cmdHelp:
		f.say(helpText)
	case cmdStatus:
		statuses := commander.Status()
		if len(statuses) == 0 {
			f.say("no accounts are bridged")
		}
		for _, s := range statuses {
			f.say(formatStatus(s))
		}
	case cmdLogout:
		if err := commander.Logout(cmd.account); err != nil {
			f.say(err.Error())
		}
	case cmdSend:
		if cmd.account != "" {
			if err := commander.SendMessage(ctx, cmd.account, cmd.name, cmd.text); err != nil {
				f.say(fmt.Sprintf("[%s] %v", cmd.account, err))
			}
			return
		}
		n, err := commander.Route(ctx, cmd.name, cmd.text)
		if err != nil {
			f.say(err.Error())
		} else if n == 0 {
			f.say("no buddy named " + cmd.name)
		}
	}
}

// say posts a line to the control channel, or holds it until the channel
// is joined.
func (f *Frontend) say(line string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.joined {
		if len(f.backlog) == backlogSize {
			f.backlog = f.backlog[1:]
		}
		f.backlog = append(f.backlog, line)
		return
	}
	f.out.Message(f.cfg.Channel, line)
}

func (f *Frontend) flush() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.out == nil {
		return
	}
	for _, line := range f.backlog {
		f.out.Message(f.cfg.Channel, line)
	}
	f.backlog = nil
	f.joined = true
}

func (f *Frontend) Error(ic *domain.ConnectionContext, reason string) {
	f.say(formatError(ic, reason))
}

func (f *Frontend) Disconnected(ic *domain.ConnectionContext, allowReconnect bool) {
	f.say(formatDisconnected(ic, allowReconnect))
}

func (f *Frontend) Connected(ic *domain.ConnectionContext) {
	f.say(formatConnected(ic))
}

func (f *Frontend) BuddyAdded(ic *domain.ConnectionContext, name, group string) {
	f.say(formatBuddy(ic, name, group, true))
}

func (f *Frontend) BuddyRemoved(ic *domain.ConnectionContext, name, group string) {
	f.say(formatBuddy(ic, name, group, false))
}

func (f *Frontend) MessageReceived(ic *domain.ConnectionContext, name, message string) {
	for _, line := range formatMessage(ic, name, message) {
		f.say(line)
	}
}
