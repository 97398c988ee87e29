package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/inswing/procspec/pkg/spec"
)

func FmtCmd() cli.Command {
	return cli.Command{
		Name:  "fmt",
		Usage: "Print the declaration with every default spelled out",
		Flags: []cli.Flag{
			cli.BoolFlag{
				Name:  "write, w",
				Usage: "replace the declaration file instead of printing",
			},
		},
		Action: func(c *cli.Context) {
			if err := formatDeclaration(c); err != nil {
				logrus.WithError(err).Fatalf("Error running fmt command")
			}
		},
	}
}

func formatDeclaration(c *cli.Context) error {
	decl, err := loadDeclaration(c)
	if err != nil {
		return err
	}

	if c.Bool("write") {
		path := declarationPath(c)
		if err := spec.WriteFile(path, decl); err != nil {
			return err
		}
		logrus.Infof("Rewrote declaration %v with %d process(es)", path, decl.Len())
		return nil
	}

	output, err := decl.Render()
	if err != nil {
		return err
	}
	_, err = c.App.Writer.Write(output)
	return err
}
