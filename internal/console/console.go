// Package console is the operator's command line for the rendezvous
// service, on stdin or over SSH.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strings"
)

// Executor runs one operator command.
type Executor interface {
	Execute(line string) (string, error)
}

const help = `commands:
  h LEFT RIGHT    join LEFT's right wall to RIGHT's left wall
  v TOP BOTTOM    join TOP's bottom wall to BOTTOM's top wall
  boards          list connected boards
  topology        list joined walls
  help            show this text
  quit            end the session`

// Run reads commands from r until EOF, "quit", or ctx is cancelled.
func Run(ctx context.Context, r io.Reader, w io.Writer, exec Executor) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-scanErr:
			return err
		case line := <-lines:
			if !runLine(w, exec, line) {
				return nil
			}
		}
	}
}

// runLine handles one input line and reports whether to keep going.
func runLine(w io.Writer, exec Executor, line string) bool {
	line = strings.TrimSpace(line)
	switch line {
	case "":
		return true
	case "quit", "exit":
		return false
	case "help":
		fmt.Fprintln(w, help)
		return true
	}
	execute(w, exec, line)
	return true
}

// execute runs line and writes the reply or error. It reports success.
func execute(w io.Writer, exec Executor, line string) bool {
	reply, err := exec.Execute(line)
	if err != nil {
		log.Printf("[CONSOLE] %q: %v", line, err)
		fmt.Fprintf(w, "error: %v\n", err)
		return false
	}
	fmt.Fprintln(w, reply)
	return true
}
