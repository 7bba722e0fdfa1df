package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"

	"rackinv/internal/inventory"
)

// UI writes styled messages and tables to out.
type UI struct {
	out io.Writer
	tty bool
	r   *lipgloss.Renderer

	red, green, yellow, blue, cyan, magenta, dim lipgloss.Style
}

// NewUI builds a UI for out. mode is auto, always or never.
func NewUI(out io.Writer, mode string) *UI {
	tty := false
	if f, ok := out.(*os.File); ok {
		tty = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	r := lipgloss.NewRenderer(out)
	switch mode {
	case "always":
		r.SetColorProfile(termenv.ANSI256)
	case "never":
		r.SetColorProfile(termenv.Ascii)
	default:
		if !tty {
			r.SetColorProfile(termenv.Ascii)
		}
	}
	fg := func(c string) lipgloss.Style { return r.NewStyle().Foreground(lipgloss.Color(c)) }
	return &UI{
		out:     out,
		tty:     tty,
		r:       r,
		red:     fg("1"),
		green:   fg("2"),
		yellow:  fg("3"),
		blue:    fg("4"),
		magenta: fg("5"),
		cyan:    fg("6"),
		dim:     r.NewStyle().Faint(true),
	}
}

func (u *UI) Println(s string) { fmt.Fprintln(u.out, s) }

func (u *UI) Success(format string, a ...any) {
	fmt.Fprintln(u.out, u.green.Render("✓ "+fmt.Sprintf(format, a...)))
}

func (u *UI) Warn(format string, a ...any) {
	fmt.Fprintln(u.out, u.yellow.Render(fmt.Sprintf(format, a...)))
}

func (u *UI) Error(format string, a ...any) {
	fmt.Fprintln(u.out, u.red.Render(fmt.Sprintf(format, a...)))
}

func (u *UI) Info(label, value string) {
	fmt.Fprintln(u.out, u.blue.Render(label)+" "+u.cyan.Render(value))
}

// ClearScreen clears the terminal; it does nothing when out is not a TTY.
func (u *UI) ClearScreen() {
	if u.tty {
		fmt.Fprint(u.out, "\033[H\033[2J")
	}
}

func (u *UI) Welcome() {
	bar := u.blue.Render("====================================")
	u.Println(bar)
	u.Println(u.green.Render("Server Inventory Management System"))
	u.Println(bar)
}

// Servers renders servers as a titled table.
func (u *UI) Servers(title string, servers []inventory.Server) {
	colStyles := []lipgloss.Style{u.cyan, u.magenta, u.green, u.blue}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(u.dim).
		Headers(inventory.CSVHeader...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return u.r.NewStyle().Bold(true).Padding(0, 1)
			}
			return colStyles[col%len(colStyles)].Padding(0, 1)
		})
	for _, s := range servers {
		t.Row(s.ProductName, s.SerialNumber, s.RackLocation, s.Username)
	}
	fmt.Fprintln(u.out)
	u.Println(u.r.NewStyle().Bold(true).Render(title))
	u.Println(t.Render())
}

var helpRows = [][]string{
	{"add", "Add a new server to inventory", "> add"},
	{"list", "Display all servers in inventory", "> list"},
	{"search", "Search servers by any field", "> search  (term: dell)"},
	{"delete", "Delete server by serial number", "> delete"},
	{"export", "Export inventory to CSV", "> export"},
	{"check", "Validate the inventory file", "> check"},
	{"help", "Show this guide", "> help"},
	{"exit", "Exit the program", "> exit"},
}

func (u *UI) Help() {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(u.blue).
		Headers("Command", "Description", "Example").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return u.magenta.Bold(true).Padding(0, 1)
			}
			switch col {
			case 0:
				return u.cyan.Bold(true).Padding(0, 1)
			case 1:
				return u.green.Padding(0, 1)
			default:
				return u.yellow.Padding(0, 1)
			}
		}).
		Rows(helpRows...)
	fmt.Fprintln(u.out)
	u.Println(u.cyan.Bold(true).Render("Available Commands"))
	u.Println(t.Render())
	u.Println(u.dim.Render("Commands are case-insensitive. Ctrl+D exits."))
}
