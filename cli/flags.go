package main

import "github.com/urfave/cli/v2"

const (
	flagBrowse   = "browse"
	flagInsecure = "insecure"
	flagListen   = "listen"
	flagLogLevel = "log-level"
	flagOutput   = "output"
	flagServer   = "server"
	flagWait     = "wait"
	flagYes      = "yes"
)

var (
	cliFlagOutput = &cli.StringFlag{
		Name:    flagOutput,
		Aliases: []string{"o"},
		Usage: "Return output in the specified format; supported formats: table, " +
			"yaml, json",
		Value: "table",
	}
	cliFlagYes = &cli.BoolFlag{
		Name:    flagYes,
		Aliases: []string{"y"},
		Usage:   "Non-interactively confirm",
	}
)
