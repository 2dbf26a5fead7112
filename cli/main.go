package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/krancour/openshred/internal/ratelimit"
	"github.com/krancour/openshred/internal/signals"
	"github.com/krancour/openshred/internal/version"
	"github.com/urfave/cli/v2"
)

func main() {
	app := cli.NewApp()
	app.Name = "openshred"
	app.Usage = "Sign in to OpenShred and inspect your session"
	app.Version = fmt.Sprintf(
		"%s -- commit %s",
		version.Version(),
		version.Commit(),
	)
	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:    flagInsecure,
			Aliases: []string{"k"},
			Usage:   "Allow insecure API server connections when using TLS",
		},
		&cli.IntFlag{
			Name:  flagLogLevel,
			Usage: "Log diagnostics at the specified verbosity to stderr",
			Value: 0,
		},
		&cli.BoolFlag{
			Name:    flagWait,
			Aliases: []string{"w"},
			Usage: "If the API server throttles a request, count down until a " +
				"retry is permitted before exiting",
		},
	}
	app.Metadata = map[string]interface{}{
		metadataNotices: ratelimit.NewStore(),
	}
	app.Commands = []*cli.Command{
		loginCommand,
		logoutCommand,
		statusCommand,
		whoamiCommand,
	}
	app.Before = func(c *cli.Context) error {
		return configureLogging(c.Int(flagLogLevel))
	}
	app.After = showNotice
	fmt.Println()
	if err := app.RunContext(signals.Context(), os.Args); err != nil {
		fmt.Printf("\n%s\n\n", errorMessage(err))
		os.Exit(1)
	}
	fmt.Println()
}

// configureLogging points glog at stderr instead of log files and sets its
// verbosity. glog only honors its flags once they have been parsed.
func configureLogging(verbosity int) error {
	return flag.CommandLine.Parse(
		[]string{
			"-logtostderr=true",
			fmt.Sprintf("-v=%d", verbosity),
		},
	)
}
