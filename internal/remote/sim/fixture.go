package sim

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/soyeahso/imbridge/internal/config"
	"github.com/soyeahso/imbridge/internal/remote"
)

// Fixture describes a simulated account in YAML:
//
//	username: gordon
//	password: ${GORDON_PASSWORD}
//	guardCode: F4K3C
//	friends:
//	  - {id: 76561197960287930, name: alice}
//	script:
//	  - {after: 2s, from: alice, text: "hi"}
//	  - {after: 1s, from: alice, kind: emote, text: "waves"}
type Fixture struct {
	Username  string         `yaml:"username,omitempty"`
	Password  string         `yaml:"password,omitempty"`
	GuardCode string         `yaml:"guardCode,omitempty"`
	GuardMail bool           `yaml:"guardMail,omitempty"`
	Friends   []Friend       `yaml:"friends,omitempty"`
	Script    []ScriptedLine `yaml:"script,omitempty"`
}

// ScriptedLine is an incoming chat entry delivered After the previous one.
type ScriptedLine struct {
	After time.Duration `yaml:"after,omitempty"`
	From  string        `yaml:"from"`
	Kind  string        `yaml:"kind,omitempty"` // "message" | "emote" | "invite" | "typing" | "left"
	Text  string        `yaml:"text"`
}

// LoadFixture reads and checks a fixture file. Passwords and guard codes
// may reference environment variables as ${NAME}.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}
	var fx Fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("parsing fixture %s: %w", path, err)
	}
	fx.Password = config.ExpandEnv(fx.Password)
	fx.GuardCode = config.ExpandEnv(fx.GuardCode)
	if err := fx.check(); err != nil {
		return nil, fmt.Errorf("fixture %s: %w", path, err)
	}
	return &fx, nil
}

func (fx *Fixture) check() error {
	names := make(map[string]bool, len(fx.Friends))
	ids := make(map[remote.ID]bool, len(fx.Friends))
	for i, f := range fx.Friends {
		if f.ID == 0 {
			return fmt.Errorf("friends[%d]: id is required", i)
		}
		if ids[f.ID] {
			return fmt.Errorf("friends[%d]: duplicate id %d", i, f.ID)
		}
		ids[f.ID] = true
		names[f.Name] = true
	}
	for i, line := range fx.Script {
		if !names[line.From] {
			return fmt.Errorf("script[%d]: unknown friend %q", i, line.From)
		}
		if _, err := ParseKind(line.Kind); err != nil {
			return fmt.Errorf("script[%d]: %w", i, err)
		}
		if line.After < 0 {
			return fmt.Errorf("script[%d]: negative delay", i)
		}
	}
	return nil
}

// Network builds a simulated client seeded from the fixture.
func (fx *Fixture) Network(opts ...Option) *Network {
	base := []Option{
		WithFriends(fx.Friends...),
		WithCredentials(Credentials{
			Username:  fx.Username,
			Password:  fx.Password,
			GuardCode: fx.GuardCode,
			GuardMail: fx.GuardMail,
		}),
	}
	return New(append(base, opts...)...)
}

// Play delivers script lines in order, waiting each line's delay first.
// Senders are resolved against the roster at delivery time; a sender no
// longer on the roster is skipped.
func (n *Network) Play(ctx context.Context, script []ScriptedLine) error {
	for _, line := range script {
		if line.After > 0 {
			timer := time.NewTimer(line.After)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
		kind, err := ParseKind(line.Kind)
		if err != nil {
			return err
		}
		id, ok := n.friendID(line.From)
		if !ok {
			continue
		}
		n.Deliver(id, kind, line.Text)
	}
	return nil
}

func (n *Network) friendID(name string) (remote.ID, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, f := range n.friends {
		if f.Name == name {
			return f.ID, true
		}
	}
	return 0, false
}

// ParseKind maps a fixture kind name to a chat entry type. Empty means a
// plain message.
func ParseKind(s string) (remote.ChatEntryType, error) {
	switch s {
	case "", "message":
		return remote.ChatMsg, nil
	case "emote":
		return remote.Emote, nil
	case "invite":
		return remote.InviteGame, nil
	case "typing":
		return remote.Typing, nil
	case "left":
		return remote.LeftConversation, nil
	default:
		return 0, fmt.Errorf("unknown kind %q", s)
	}
}
