package main

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/laze/internal/scaffold"
)

var newCommand = &cli.Command{
	Name:      "new",
	Usage:     "Scaffold a starter project",
	ArgsUsage: "PATH",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "template", Aliases: []string{"t"}, Usage: "Embedded template name", Value: "default"},
	},
	Action: newAction,
}

func newAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("usage: laze new PATH")
	}
	path := c.Args().First()
	if err := scaffold.New(path, c.String("template")); err != nil {
		return err
	}
	fmt.Printf("laze: scaffolded new project at %s\n", path)
	return nil
}
