package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"

	"github.com/darasahq/darasa/core"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db   *sql.DB
	conf *core.Config
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate - bring the database schema up to date")
	fmt.Println("  seed    - load a demo deployment (pathways, walkables, scenarios)")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	seedCmd := flag.NewFlagSet("seed", flag.ExitOnError)

	switch args[1] {
	case "migrate":
		return cli.migrate()
	case "seed":
		if err := seedCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.seed()
	default:
		cli.printUsage()
		return errHelp
	}
}
