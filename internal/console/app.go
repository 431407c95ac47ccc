package console

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/dmitrijs2005/auctionhost/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/auctionhost/internal/server/services"
)

type App struct {
	manager repomanager.RepositoryManager
	host    *services.Host
	reader  *bufio.Reader
	out     io.Writer

	site    *services.Site
	session *services.Session
}

func NewApp(manager repomanager.RepositoryManager, host *services.Host, in io.Reader, out io.Writer) *App {
	return &App{manager: manager, host: host, reader: bufio.NewReader(in), out: out}
}

// Run blocks until the operator exits or input ends.
func (a *App) Run(ctx context.Context) {
	defer a.host.Close()
	fmt.Fprintln(a.out, "Welcome to the auction host console (type 'help' for commands)")
	runREPL(ctx, a, a.status, a.reader, a.out)
}

func (a *App) status() string {
	s := ""
	if a.site != nil {
		s = a.site.Name()
	}
	if a.session != nil {
		s = a.session.User().Username() + "@" + s
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format+"\n", args...)
}

func (a *App) requireSite() (*services.Site, error) {
	if a.site == nil {
		return nil, errNoSite
	}
	return a.site, nil
}

func (a *App) requireSession() (*services.Session, error) {
	if a.session == nil {
		return nil, errNoSession
	}
	return a.session, nil
}

// ask returns args[i] when present and prompts for it otherwise.
func (a *App) ask(args []string, i int, prompt string) (string, error) {
	if i < len(args) {
		return args[i], nil
	}
	return GetSimpleText(a.reader, prompt, a.out)
}
