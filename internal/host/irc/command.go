package irc

import (
	"errors"
	"strings"
)

type commandKind int

const (
	cmdSend commandKind = iota
	cmdLogout
	cmdStatus
	cmdHelp
)

// command is one parsed line from the control channel.
type command struct {
	kind    commandKind
	account string
	name    string
	text    string
}

var errNotCommand = errors.New("not a command")

const helpText = "commands: <buddy>: <text> | <account>/<buddy>: <text> | !logout <account> | !status | !help"

// parseCommand understands:
//
//	alice: hello             send via every account that knows alice
//	main/alice: hello        send via account "main"
//	!logout main             end the "main" session
//	!status                  list accounts
//	!help
func parseCommand(line string) (command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return command{}, errNotCommand
	}

	if strings.HasPrefix(line, "!") {
		fields := strings.Fields(line[1:])
		if len(fields) == 0 {
			return command{}, errNotCommand
		}
		switch strings.ToLower(fields[0]) {
		case "logout":
			if len(fields) != 2 {
				return command{}, errors.New("usage: !logout <account>")
			}
			return command{kind: cmdLogout, account: fields[1]}, nil
		case "status":
			return command{kind: cmdStatus}, nil
		case "help":
			return command{kind: cmdHelp}, nil
		default:
			return command{}, errors.New("unknown command !" + fields[0])
		}
	}

	target, text, ok := strings.Cut(line, ": ")
	if !ok || target == "" || strings.TrimSpace(text) == "" {
		return command{}, errNotCommand
	}
	cmd := command{kind: cmdSend, name: target, text: text}
	if acct, name, ok := strings.Cut(target, "/"); ok && acct != "" && name != "" {
		cmd.account = acct
		cmd.name = name
	}
	return cmd, nil
}
