package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/inswing/procspec/pkg/util"
)

func ShowCmd() cli.Command {
	return cli.Command{
		Name:  "show",
		Usage: "show <process name>",
		Action: func(c *cli.Context) {
			if err := showProcess(c); err != nil {
				logrus.WithError(err).Fatalf("Error running show command")
			}
		},
	}
}

func EnvCmd() cli.Command {
	return cli.Command{
		Name:  "env",
		Usage: "env <process name>",
		Flags: []cli.Flag{
			cli.StringSliceFlag{
				Name:  "set",
				Usage: "override variables, in the format of `--set KEY1=VALUE1 --set KEY2=VALUE2`",
			},
			cli.BoolFlag{
				Name:  "ambient",
				Usage: "merge the declared environment over the current environment",
			},
		},
		Action: func(c *cli.Context) {
			if err := processEnv(c); err != nil {
				logrus.WithError(err).Fatalf("Error running env command")
			}
		},
	}
}

func CommandCmd() cli.Command {
	return cli.Command{
		Name:  "command",
		Usage: "command <process name>",
		Action: func(c *cli.Context) {
			if err := processCommand(c); err != nil {
				logrus.WithError(err).Fatalf("Error printing process command")
			}
		},
	}
}

func showProcess(c *cli.Context) error {
	app, err := getProcess(c)
	if err != nil {
		return err
	}

	output, err := json.MarshalIndent(app, "", "\t")
	if err != nil {
		return err
	}

	fmt.Fprintln(c.App.Writer, string(output))
	return nil
}

func processEnv(c *cli.Context) error {
	app, err := getProcess(c)
	if err != nil {
		return err
	}

	overrides, err := util.ParseEnvAssignments(c.StringSlice("set"))
	if err != nil {
		return err
	}

	var base []string
	if c.Bool("ambient") {
		base = os.Environ()
	}
	for _, kv := range util.MergeEnviron(app.Environ(base), overrides) {
		fmt.Fprintln(c.App.Writer, kv)
	}
	return nil
}

func processCommand(c *cli.Context) error {
	app, err := getProcess(c)
	if err != nil {
		return err
	}

	args := app.Command()
	for i, arg := range args {
		if arg == "" || strings.ContainsAny(arg, " \t\n\"'\\$") {
			args[i] = strconv.Quote(arg)
		}
	}
	fmt.Fprintln(c.App.Writer, strings.Join(args, " "))
	return nil
}
