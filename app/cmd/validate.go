package cmd

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/inswing/procspec/pkg/spec"
)

func ValidateCmd() cli.Command {
	return cli.Command{
		Name:  "validate",
		Usage: "Check that the declaration loads without schema or validation errors",
		Action: func(c *cli.Context) {
			if err := validateDeclaration(c); err != nil {
				logrus.WithError(err).Fatalf("Error running validate command")
			}
		},
	}
}

func validateDeclaration(c *cli.Context) error {
	decl, err := loadDeclaration(c)
	if err != nil {
		var validationErr *spec.ValidationError
		if errors.As(err, &validationErr) {
			for _, problem := range validationErr.Errors() {
				logrus.Errorf("Invalid process declaration: %v", problem)
			}
		}
		return err
	}

	fmt.Fprintf(c.App.Writer, "OK: %d process(es): %v\n", decl.Len(), strings.Join(decl.Names(), ", "))
	return nil
}
