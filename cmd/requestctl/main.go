// requestctl administers the request store directly: role changes, staff
// seeding from a roster file, and read-only inspection of requests.
//
//	requestctl set-role --id 42 --role master
//	requestctl seed --file staff.yaml
//	requestctl list [--status new] [--client 42] [--worker 7]
//	requestctl history --id 12
//
// The store is selected by the same environment variables as the server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/pflag"

	"github.com/99minutos/service-requests/internal/core/ports"
	"github.com/99minutos/service-requests/internal/infrastructure/config"
	"github.com/99minutos/service-requests/internal/infrastructure/db"
	"github.com/99minutos/service-requests/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" {
		printUsage(out)
		return nil
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	log := logger.Init(logger.Options{Level: "warn", Pretty: true, Output: os.Stderr})

	store, err := db.OpenStore(ctx, cfg.Store, cfg.Mongo, log)
	if err != nil {
		return err
	}
	defer store.Close()

	return dispatch(ctx, store, args, out)
}

// dispatch runs one subcommand against an open store.
func dispatch(ctx context.Context, store ports.Store, args []string, out io.Writer) error {
	switch args[0] {
	case "set-role":
		return setRoleCmd(ctx, store, args[1:], out)
	case "seed":
		return seedCmd(ctx, store, args[1:], out)
	case "list":
		return listCmd(ctx, store, args[1:], out)
	case "history":
		return historyCmd(ctx, store, args[1:], out)
	default:
		printUsage(out)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printUsage(out io.Writer) {
	fmt.Fprint(out, `usage: requestctl <command> [flags]

commands:
  set-role  --id N --role client|manager|master
  seed      --file staff.yaml
  list      [--status S] [--client N] [--worker N]
  history   --id N
`)
}
