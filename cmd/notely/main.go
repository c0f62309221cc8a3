// Command notely はノートAPIサーバーと運用サブコマンドを起動する。
//
//	notely [serve|migrate|cleanup|healthcheck]
package main

import (
	"log/slog"
	"os"

	"github.com/hitoshi/notely/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		slog.Error("notely exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
