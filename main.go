package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"monkeybet/cmd"
	"monkeybet/database"
)

const usage = `usage: monkeybet [command]

commands:
  run                                          start the HTTP server (default)
  migrate up|down [steps]|status               manage the database schema
  update-balance <user_id> <amount> [reason]   apply an admin balance correction
  simulate [rounds]                            estimate the return to player of every game`

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Failed to read .env file")
	}

	command := "run"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	var err error
	switch command {
	case "run":
		err = run()
	case "migrate":
		err = handleMigrationCommand(os.Args[2:])
	case "update-balance":
		err = handleUpdateBalance(os.Args[2:])
	case "simulate":
		err = handleSimulate(os.Args[2:])
	case "help", "-h", "--help":
		fmt.Println(usage)
	default:
		err = fmt.Errorf("unknown command %q\n%s", command, usage)
	}

	if err != nil {
		log.WithError(err).Fatalf("%s failed", command)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return cmd.Run(ctx)
}

func handleMigrationCommand(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: monkeybet migrate [up|down|status] [args...]")
	}

	switch args[0] {
	case "up":
		return database.MigrateUp()
	case "down":
		steps := "1"
		if len(args) > 1 {
			steps = args[1]
		}
		return database.MigrateDown(steps)
	case "status":
		return database.MigrateStatus()
	default:
		return fmt.Errorf("unknown migration command: %s", args[0])
	}
}

func handleUpdateBalance(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: monkeybet update-balance <user_id> <amount> [reason]")
	}

	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || userID <= 0 {
		return fmt.Errorf("invalid user id %q", args[0])
	}
	amount, err := decimal.NewFromString(args[1])
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", args[1], err)
	}
	reason := strings.Join(args[2:], " ")

	txn, err := cmd.UpdateBalance(context.Background(), userID, amount, reason)
	if err != nil {
		return err
	}

	fmt.Printf("user %d: %s applied, balance now %s\n", userID, amount.String(), txn.BalanceAfter.StringFixed(2))
	return nil
}
