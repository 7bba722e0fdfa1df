package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"rackinv/internal/inventory"
)

var errUsage = errors.New("usage: rackinv-dbcheck [-rows] <export.db>")

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		log.Fatal(err)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("rackinv-dbcheck", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	showRows := fs.Bool("rows", false, "also print every exported server")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() != 1 {
		return errUsage
	}
	dbPath := fs.Arg(0)

	info, err := inventory.InspectExport(dbPath)
	if err != nil {
		return fmt.Errorf("inspect %s: %w", dbPath, err)
	}

	fmt.Fprintln(out, "Tables:")
	for _, name := range info.Tables {
		fmt.Fprintln(out, " -", name)
	}
	fmt.Fprintln(out, "Servers:", info.Servers)
	fmt.Fprintln(out, "Exports:", info.Exports)

	if !*showRows {
		return nil
	}
	servers, err := inventory.ReadSQLiteExport(dbPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", dbPath, err)
	}
	for i, s := range servers {
		fmt.Fprintf(out, "%4d  %s | %s | %s | %s\n", i+1, s.ProductName, s.SerialNumber, s.RackLocation, s.Username)
	}
	return nil
}
