package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/dustin/go-humanize"

	"rackinv/internal/inventory"
)

// errExit ends the shell loop without an error.
var errExit = errors.New("exit")

// Shell is the interactive prompt loop around a Store.
type Shell struct {
	store *inventory.Store
	ui    *UI
	in    *bufio.Reader
	log   *slog.Logger

	commands map[string]func() error
}

func NewShell(store *inventory.Store, ui *UI, in io.Reader, log *slog.Logger) *Shell {
	sh := &Shell{
		store: store,
		ui:    ui,
		in:    bufio.NewReader(in),
		log:   log,
	}
	sh.commands = map[string]func() error{
		"add":    sh.add,
		"list":   sh.list,
		"search": sh.search,
		"delete": sh.delete,
		"export": sh.export,
		"check":  sh.check,
		"help":   sh.help,
		"exit":   sh.exit,
	}
	return sh
}

// Run prompts for commands until exit or end of input. Command failures
// are reported and the loop continues.
func (sh *Shell) Run() error {
	sh.ui.ClearScreen()
	sh.ui.Welcome()

	for {
		line, err := sh.readLine("\nEnter command (type 'help' for commands): ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				sh.ui.Warn("\nInput terminated. Exiting...")
				return nil
			}
			return err
		}
		cmd := strings.ToLower(line)
		if cmd == "" {
			continue
		}
		fn, ok := sh.commands[cmd]
		if !ok {
			sh.ui.Error("Invalid command. Type 'help' for available commands.")
			continue
		}
		sh.log.Debug("command", slog.String("cmd", cmd))
		if err := fn(); err != nil {
			if errors.Is(err, errExit) {
				return nil
			}
			sh.report(err)
		}
	}
}

func (sh *Shell) report(err error) {
	switch {
	case errors.Is(err, io.EOF):
		sh.ui.Warn("\nOperation cancelled.")
	case errors.Is(err, inventory.ErrStorageIO):
		sh.log.Error("storage failure", slog.Any("err", err))
		sh.ui.Error("An unexpected error occurred: %v", err)
	default:
		sh.ui.Error("Error: %v", err)
	}
}

func (sh *Shell) readLine(prompt string) (string, error) {
	fmt.Fprint(sh.ui.out, prompt)
	line, err := sh.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// readField prompts for one record field and applies the field rule.
func (sh *Shell) readField(prompt, name string) (string, error) {
	v, err := sh.readLine(prompt)
	if err != nil {
		return "", err
	}
	if err := inventory.ValidateField(name, v); err != nil {
		return "", err
	}
	return v, nil
}

func (sh *Shell) add() error {
	sh.ui.Warn("\nAdding new server...")
	var srv inventory.Server
	var err error
	if srv.ProductName, err = sh.readField("Enter Product Name (e.g., Dell R740): ", "product_name"); err != nil {
		return err
	}
	if srv.SerialNumber, err = sh.readField("Enter Serial Number (e.g., SN123456): ", "serial_number"); err != nil {
		return err
	}
	if srv.RackLocation, err = sh.readField("Enter Rack Location (e.g., Rack-A1): ", "rack_location"); err != nil {
		return err
	}
	if srv.Username, err = sh.readField("Enter Username (e.g., admin): ", "username"); err != nil {
		return err
	}
	if err := sh.store.Add(srv); err != nil {
		return err
	}
	sh.ui.Success("Server added successfully!")
	return nil
}

func (sh *Shell) list() error {
	servers, err := sh.store.Load()
	if err != nil {
		return err
	}
	if len(servers) == 0 {
		sh.ui.Warn("No servers found in inventory.")
		return nil
	}
	sh.ui.Servers("Server Inventory", servers)
	return nil
}

func (sh *Shell) search() error {
	term, err := sh.readLine("\nEnter search term: ")
	if err != nil {
		return err
	}
	term = strings.ToLower(term)
	if term == "" {
		sh.ui.Warn("Please enter a search term.")
		return nil
	}
	servers, err := sh.store.Search(term)
	if err != nil {
		return err
	}
	if len(servers) == 0 {
		sh.ui.Warn("No matching servers found.")
		return nil
	}
	sh.ui.Servers(fmt.Sprintf("Search Results for '%s'", term), servers)
	return nil
}

func (sh *Shell) delete() error {
	sh.ui.Warn("\nDeleting server...")
	serial, err := sh.readField("Enter Serial Number to delete: ", "serial_number")
	if err != nil {
		return err
	}
	if err := sh.store.Delete(serial); err != nil {
		return err
	}
	sh.ui.Success("Server deleted successfully!")
	return nil
}

func (sh *Shell) export() error {
	sh.ui.Warn("\nExporting server inventory...")
	path, err := sh.store.ExportCSV("")
	if err != nil {
		return err
	}
	sh.ui.Success("Server inventory exported successfully!")
	sh.ui.Info("Absolute file path:", path+sizeSuffix(path))
	return nil
}

func (sh *Shell) check() error {
	rep, err := sh.store.Check()
	if err != nil {
		return err
	}
	printReport(sh.ui, sh.store.Path(), rep)
	return nil
}

func (sh *Shell) help() error {
	sh.ui.Help()
	return nil
}

func (sh *Shell) exit() error {
	sh.ui.Warn("Exiting program...")
	return errExit
}

func printReport(ui *UI, path string, rep inventory.CheckReport) {
	if rep.OK() {
		ui.Success("%s is valid (%d records)", path, rep.Records)
		return
	}
	ui.Error("%s has %d problem(s):", path, len(rep.Problems))
	for _, p := range rep.Problems {
		ui.Error("  - %s", p)
	}
}

// sizeSuffix returns " (<size>)" for an existing file, or "".
func sizeSuffix(path string) string {
	st, err := os.Stat(path)
	if err != nil {
		return ""
	}
	return " (" + humanize.Bytes(uint64(st.Size())) + ")"
}
