package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/inswing/procspec/app/cmd"
	"github.com/inswing/procspec/pkg/meta"
	"github.com/inswing/procspec/pkg/types"
	"github.com/inswing/procspec/pkg/util"
)

func main() {
	a := cli.NewApp()
	a.Name = "procspec"
	a.Usage = "load and validate process manager declarations"
	a.Version = meta.Version
	a.Before = func(c *cli.Context) error {
		util.SetUpLogger(os.Stderr, c.GlobalBool("debug"))
		return nil
	}
	a.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "file, f",
			Value:  types.DefaultDeclarationFile,
			EnvVar: "PROCSPEC_FILE",
			Usage:  "Path of the YAML or JSON declaration",
		},
		cli.BoolFlag{
			Name: "debug",
		},
	}
	a.Commands = []cli.Command{
		cmd.ValidateCmd(),
		cmd.LsProcessCmd(),
		cmd.ShowCmd(),
		cmd.EnvCmd(),
		cmd.CommandCmd(),
		cmd.FmtCmd(),
		cmd.WatchCmd(),
		cmd.VersionCmd(),
	}
	if err := a.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("Error when executing command")
	}
}
