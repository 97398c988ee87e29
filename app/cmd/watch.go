package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/inswing/procspec/pkg/spec"
	"github.com/inswing/procspec/pkg/watcher"
)

func WatchCmd() cli.Command {
	return cli.Command{
		Name:  "watch",
		Usage: "Reload and validate the declaration every time it changes",
		Action: func(c *cli.Context) {
			if err := watchDeclaration(c); err != nil {
				logrus.WithError(err).Fatalf("Error running watch command")
			}
		},
	}
}

func watchDeclaration(c *cli.Context) error {
	w, err := watcher.New(declarationPath(c), func(decl *spec.Declaration, err error) {
		if err != nil {
			logrus.WithError(err).Errorf("Declaration rejected, keep running the previous one")
			return
		}
		for _, app := range decl.Apps() {
			logrus.WithFields(logrus.Fields{
				"name":        app.Name,
				"instances":   app.Instances,
				"autorestart": app.Autorestart,
				"watch":       app.Watch,
				"maxMemory":   app.MemoryLimitString(),
			}).Info("Process declared")
		}
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logrus.Infof("Watching declaration %v", w.Path())
	return w.Run(ctx)
}
