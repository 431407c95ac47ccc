package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	errNoSite    = errors.New("no site selected, run 'use <site>' first")
	errNoSession = errors.New("not logged in, run 'login' first")
)

// command is one console verb. Handlers prompt for any argument missing
// from args.
type command func(ctx context.Context, args []string) error

func (a *App) commands() map[string]command {
	return map[string]command{
		"init":       a.Init,
		"sites":      a.Sites,
		"createsite": a.CreateSite,
		"use":        a.Use,
		"deletesite": a.DeleteSite,
		"adduser":    a.AddUser,
		"users":      a.Users,
		"deluser":    a.DeleteUser,
		"login":      a.Login,
		"logout":     a.Logout,
		"sessions":   a.Sessions,
		"cleanup":    a.Cleanup,
		"sell":       a.Sell,
		"auctions":   a.Auctions,
		"show":       a.Show,
		"bid":        a.Bid,
		"delauction": a.DeleteAuction,
		"won":        a.Won,
	}
}

const helpText = `Host:     init, sites, createsite <name> <tz> <expiry secs> <increment>, use <site>
Site:     deletesite, adduser <name>, users, deluser <name>, login <name>, sessions, cleanup
Auctions: auctions [open], sell, show <id>, bid <id> <amount>, delauction <id>, won
Session:  logout
Other:    help, exit`

type execIface interface {
	commands() map[string]command
}

// runREPL reads one command per line and dispatches it. It shares reader
// with the handlers' prompts, so it never reads ahead. Handler errors are
// printed and the loop goes on. It returns on EOF, "exit" or "quit".
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, out io.Writer) {
	cmds := a.commands()
	for {
		fmt.Fprintf(out, "ah %s> ", statusFn())
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(out)
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		name, args := parts[0], parts[1:]

		switch name {
		case "help":
			fmt.Fprintln(out, helpText)
			continue
		case "exit", "quit":
			fmt.Fprintln(out, "Bye!")
			return
		}

		cmd, ok := cmds[name]
		if !ok {
			fmt.Fprintln(out, "Unknown command:", name)
			continue
		}
		if err := cmd(ctx, args); err != nil {
			fmt.Fprintln(out, "Error:", err)
		}
	}
}
