package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Bookmark(ctx context.Context, args []string) error
	Note(ctx context.Context, args []string) error
	Edit(ctx context.Context, args []string) error
	Prompt(ctx context.Context, args []string) error
	Del(ctx context.Context, args []string) error
	List(ctx context.Context) error
	Sync(ctx context.Context) error
	Status(ctx context.Context) error
	Logout(ctx context.Context) error
}

// runREPL starts a simple read-eval-print loop for the versesync CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Annotation commands work whether or not a session is open; without one
// the edits stay local and upload after the next login.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("vs> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			printlnFn("Available commands: register, login, logout, bookmark, note, edit, prompt, del, list, sync, status, exit")
			printlnFn("  bookmark <book> <chapter> <verse>")
			printlnFn("  note <book> <chapter> <verse> <text...>")
			printlnFn("  edit <book> <chapter> <verse> <lang> <text...>")
			printlnFn("  prompt <name> <type> <lang> <color> <text...>")
			printlnFn("  del <bookmark|note|editedVerse|prompt> <id>")
		case "register":
			err = a.Register(ctx)
		case "login":
			err = a.Login(ctx)
		case "logout":
			err = a.Logout(ctx)
		case "bookmark":
			err = a.Bookmark(ctx, args)
		case "note":
			err = a.Note(ctx, args)
		case "edit":
			err = a.Edit(ctx, args)
		case "prompt":
			err = a.Prompt(ctx, args)
		case "del":
			err = a.Del(ctx, args)
		case "list", "l":
			err = a.List(ctx)
		case "sync":
			err = a.Sync(ctx)
		case "status":
			err = a.Status(ctx)
		case "exit", "quit":
			return
		default:
			printlnFn("Unknown command: " + cmd)
		}
		if err != nil {
			printlnFn("Error: " + err.Error())
		}
	}
}
