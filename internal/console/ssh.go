package console

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strings"

	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/logging"
)

// NewSSHServer serves the console over SSH. "ssh host h A B" runs one
// command; a plain "ssh host" opens the interactive loop.
func NewSSHServer(host, port, hostKeyPath string, exec Executor) (*ssh.Server, error) {
	opts := []ssh.Option{
		wish.WithAddress(net.JoinHostPort(host, port)),
		wish.WithMiddleware(
			consoleMiddleware(exec),
			logging.Middleware(),
		),
	}
	if hostKeyPath != "" {
		opts = append(opts, wish.WithHostKeyPath(hostKeyPath))
	}

	s, err := wish.NewServer(opts...)
	if err != nil {
		return nil, fmt.Errorf("create ssh server: %w", err)
	}
	return s, nil
}

func consoleMiddleware(exec Executor) wish.Middleware {
	return func(next ssh.Handler) ssh.Handler {
		return func(sess ssh.Session) {
			if cmd := sess.Command(); len(cmd) > 0 {
				code := 0
				if !execute(sess, exec, strings.Join(cmd, " ")) {
					code = 1
				}
				sess.Exit(code)
				next(sess)
				return
			}

			log.Printf("[SSH] Console session opened by %s", sess.User())
			fmt.Fprintln(sess, "pingball rendezvous console; type help")
			if err := Run(sess.Context(), sess, sess, exec); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("[SSH] Console session for %s ended: %v", sess.User(), err)
			}
			next(sess)
		}
	}
}
