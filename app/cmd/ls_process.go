package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

func LsProcessCmd() cli.Command {
	return cli.Command{
		Name:      "ls-process",
		ShortName: "ls",
		Action: func(c *cli.Context) {
			if err := lsProcess(c); err != nil {
				logrus.WithError(err).Fatalf("Error running ls command")
			}
		},
	}
}

func lsProcess(c *cli.Context) error {
	decl, err := loadDeclaration(c)
	if err != nil {
		return err
	}

	format := "%s\t%d\t%v\t%v\t%s\t%s\n"
	tw := tabwriter.NewWriter(c.App.Writer, 0, 20, 1, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", "NAME", "INSTANCES", "AUTORESTART", "WATCH", "MAX MEMORY", "COMMAND")
	for _, app := range decl.Apps() {
		fmt.Fprintf(tw, format, app.Name, app.Instances, app.Autorestart, app.Watch, app.MemoryLimitString(), strings.Join(app.Command(), " "))
	}
	return tw.Flush()
}
