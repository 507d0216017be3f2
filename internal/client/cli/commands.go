package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/trueheartapps/versesync/internal/annot"
)

func (a *App) Register(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}
	password, err := GetPassword(os.Stdout)
	if err != nil {
		return err
	}

	sess, err := a.authService.Register(ctx, email, string(password))
	if err != nil {
		return err
	}
	a.loggedIn = true
	printlnFn("Registered as " + sess.Email)

	a.orch.ScheduleSync("register")
	return nil
}

func (a *App) Login(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}
	password, err := GetPassword(os.Stdout)
	if err != nil {
		return err
	}

	sess, err := a.authService.Login(ctx, email, string(password))
	if err != nil {
		return err
	}
	a.loggedIn = true
	printlnFn("Logged in as " + sess.Email)

	// pick up whatever the other devices synced while we were away
	a.orch.ScheduleSync("login")
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	// flush local edits before the session closes
	if _, err := a.orch.ImmediateSync(ctx, "logout"); err != nil {
		a.logger.Warn(ctx, "pre-logout sync failed", "error", err)
	}
	if err := a.authService.Logout(ctx); err != nil {
		return err
	}
	a.loggedIn = false
	printlnFn("Logged out")
	return nil
}

// parseVerseRef validates the three leading coordinate arguments. The store
// keys verses by the string form, so the numbers pass through unconverted.
func parseVerseRef(args []string) (book, chapter, verse string, rest []string, err error) {
	if len(args) < 3 {
		return "", "", "", nil, errors.New("expected <book> <chapter> <verse>")
	}
	for i := 0; i < 3; i++ {
		if _, convErr := strconv.Atoi(args[i]); convErr != nil {
			return "", "", "", nil, fmt.Errorf("invalid number %q", args[i])
		}
	}
	return args[0], args[1], args[2], args[3:], nil
}

func (a *App) Bookmark(ctx context.Context, args []string) error {
	book, chapter, verse, _, err := parseVerseRef(args)
	if err != nil {
		return err
	}
	if err := a.annotations.SetBookmark(ctx, book, chapter, verse); err != nil {
		return err
	}
	printlnFn("Bookmarked " + annot.VerseKey(book, chapter, verse))
	return nil
}

func (a *App) Note(ctx context.Context, args []string) error {
	book, chapter, verse, rest, err := parseVerseRef(args)
	if err != nil {
		return err
	}
	if len(rest) == 0 {
		return errors.New("expected note text")
	}
	if err := a.annotations.SetNote(ctx, book, chapter, verse, strings.Join(rest, " ")); err != nil {
		return err
	}
	printlnFn("Noted " + annot.VerseKey(book, chapter, verse))
	return nil
}

func (a *App) Edit(ctx context.Context, args []string) error {
	book, chapter, verse, rest, err := parseVerseRef(args)
	if err != nil {
		return err
	}
	if len(rest) < 2 {
		return errors.New("expected <lang> <text>")
	}
	lang, text := rest[0], strings.Join(rest[1:], " ")
	if err := a.annotations.SetEditedVerse(ctx, book, chapter, verse, lang, text); err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Edited %s [%s]", annot.VerseKey(book, chapter, verse), lang))
	return nil
}

func (a *App) Prompt(ctx context.Context, args []string) error {
	if len(args) < 5 {
		return errors.New("expected <name> <type> <lang> <color> <text>")
	}
	name, promptType, lang, color := args[0], args[1], args[2], args[3]
	text := strings.Join(args[4:], " ")
	if err := a.annotations.SetPrompt(ctx, name, promptType, lang, color, text); err != nil {
		return err
	}
	printlnFn("Saved prompt " + name)
	return nil
}

func (a *App) Del(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("expected <bookmark|note|editedVerse|prompt> <id>")
	}
	target := annot.Target(args[0])
	valid := false
	for _, t := range annot.Targets {
		if t == target {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("unknown category %q", args[0])
	}
	if err := a.annotations.Delete(ctx, target, args[1]); err != nil {
		return err
	}
	printlnFn("Deleted " + args[1])
	return nil
}

func (a *App) List(ctx context.Context) error {
	s, err := a.annotations.Snapshot(ctx)
	if err != nil {
		return err
	}

	printlnFn(fmt.Sprintf("Bookmarks (%d):", len(s.Bookmarks)))
	for _, k := range sortedKeys(s.Bookmarks) {
		printlnFn("  " + k)
	}
	printlnFn(fmt.Sprintf("Notes (%d):", len(s.Notes)))
	for _, k := range sortedKeys(s.Notes) {
		printlnFn(fmt.Sprintf("  %s: %s", k, s.Notes[k].Text))
	}
	printlnFn(fmt.Sprintf("Edited verses (%d):", len(s.EditedVerses)))
	for _, k := range sortedKeys(s.EditedVerses) {
		cell := s.EditedVerses[k]
		for _, lang := range sortedKeys(cell.Langs) {
			printlnFn(fmt.Sprintf("  %s [%s]: %s", k, lang, cell.Langs[lang].Text))
		}
	}
	printlnFn(fmt.Sprintf("Prompts (%d):", len(s.Prompts)))
	for _, k := range sortedKeys(s.Prompts) {
		printlnFn(fmt.Sprintf("  %s: %s", s.Prompts[k].Name, s.Prompts[k].Text))
	}
	return nil
}

func (a *App) Sync(ctx context.Context) error {
	report, err := a.orch.ImmediateSync(ctx, "manual")
	if err != nil {
		return err
	}
	if report.Total() > 0 {
		printlnFn(fmt.Sprintf("Sync complete, %d record(s) removed by other devices", report.Total()))
	} else {
		printlnFn("Sync complete")
	}
	return nil
}

func (a *App) Status(ctx context.Context) error {
	printlnFn("State: " + string(a.orch.State()))

	last, err := a.syncService.LastSyncTime(ctx)
	if err != nil {
		return err
	}
	if last.IsZero() {
		printlnFn("Last sync: never")
	} else {
		printlnFn("Last sync: " + last.Local().Format("2006-01-02 15:04:05"))
	}

	pending, err := a.repos.Tombstones.Pending(ctx)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Pending deletions: %d", len(pending)))
	return nil
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
