// Command boardcheck validates board files and prints a text preview of each.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/pingball/backend/internal/boardfile"
	"github.com/pingball/backend/internal/game"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: boardcheck BOARD.yaml [BOARD.yaml...]")
		os.Exit(2)
	}

	failed := false
	for _, path := range os.Args[1:] {
		desc, err := boardfile.Load(path)
		if err != nil {
			log.Printf("FAIL %v", err)
			failed = true
			continue
		}
		board, err := game.NewBoard(desc)
		if err != nil {
			log.Printf("FAIL %s: %v", path, err)
			failed = true
			continue
		}

		fmt.Printf("%s: board %s, %d obstacles, %d balls, keys %v\n",
			path, board.Name(), len(desc.Obstacles), len(desc.Balls), board.Keys())
		fmt.Print(board.Render())
	}

	if failed {
		os.Exit(1)
	}
}
