package cmd

import (
	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/inswing/procspec/pkg/spec"
)

func declarationPath(c *cli.Context) string {
	return c.GlobalString("file")
}

func loadDeclaration(c *cli.Context) (*spec.Declaration, error) {
	path := declarationPath(c)
	if path == "" {
		return nil, errors.New("declaration file is required")
	}
	logrus.Debugf("Loading declaration %v", path)
	return spec.LoadFile(path)
}

func getProcess(c *cli.Context) (spec.ProcessSpec, error) {
	if c.NArg() == 0 || c.Args()[0] == "" {
		return spec.ProcessSpec{}, errors.New("process name is required")
	}
	name := c.Args()[0]

	decl, err := loadDeclaration(c)
	if err != nil {
		return spec.ProcessSpec{}, err
	}
	app, ok := decl.Get(name)
	if !ok {
		return spec.ProcessSpec{}, errors.Newf("process %v is not declared in %v", name, declarationPath(c))
	}
	return app, nil
}
