package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"marrakech/internal/authority"
	"marrakech/internal/bot"
	"marrakech/internal/config"
	"marrakech/internal/domain"
	"marrakech/internal/logging"
)

type localOptions struct {
	players int
	bots    int
	level   string
	seed    uint64
}

func parseLocalFlags(args []string) (localOptions, error) {
	var opts localOptions
	fs := flag.NewFlagSet("local", flag.ContinueOnError)
	fs.IntVar(&opts.players, "players", 2, "seats at the table (2-4)")
	fs.IntVar(&opts.bots, "bots", 1, "computer seats, taken from the end")
	fs.StringVar(&opts.level, "level", "greedy", "computer strength: greedy or random")
	fs.Uint64Var(&opts.seed, "seed", 0, "dice seed; 0 draws one from the clock")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.players < domain.MinPlayers || opts.players > domain.MaxPlayers {
		return opts, fmt.Errorf("players must be between %d and %d", domain.MinPlayers, domain.MaxPlayers)
	}
	if opts.bots < 0 || opts.bots > opts.players {
		return opts, fmt.Errorf("bots must be between 0 and %d", opts.players)
	}
	return opts, nil
}

func runLocal(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	opts, err := parseLocalFlags(args)
	if err != nil {
		return err
	}
	logCfg, err := config.LoggingFromEnv()
	if err != nil {
		return err
	}
	log, err := logging.Init("marrakech-local", logCfg)
	if err != nil {
		return err
	}
	level, err := bot.ParseLevel(opts.level)
	if err != nil {
		return err
	}

	names := make([]string, opts.players)
	sessionOpts := []authority.LocalOption{authority.WithLogger(log)}
	for seat := opts.players - opts.bots; seat < opts.players; seat++ {
		identity := bot.NewIdentity(seat)
		agent, err := bot.NewAgent(identity, seat, level, opts.seed+uint64(seat))
		if err != nil {
			return err
		}
		names[seat] = identity.Name
		sessionOpts = append(sessionOpts, authority.WithBot(agent))
	}

	session, err := authority.NewLocal(names, domain.NewDice(opts.seed), sessionOpts...)
	if err != nil {
		return err
	}
	events, cancel := session.Subscribe()
	defer cancel()

	if err := session.Start(ctx); err != nil {
		return err
	}
	printEvents(out, events)

	scanner := bufio.NewScanner(in)
	for !session.State().Over {
		state := session.State()
		fmt.Fprint(out, renderBoard(state))
		fmt.Fprintln(out, describe(state))
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return err
			}
			return errors.New("input closed before the game ended")
		}
		action, err := parseCommand(scanner.Text())
		if errors.Is(err, errEmptyCommand) {
			continue
		}
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}
		if err := session.Submit(ctx, action); err != nil {
			fmt.Fprintln(out, "rejected:", err)
			continue
		}
		printEvents(out, events)
	}
	fmt.Fprint(out, renderBoard(session.State()))
	fmt.Fprint(out, describe(session.State()))
	return nil
}

func printEvents(out io.Writer, events <-chan authority.Notification) {
	for {
		select {
		case n := <-events:
			switch n.Kind {
			case authority.NotifyDice:
				fmt.Fprintf(out, "seat %d rolled %d\n", n.Seat, n.Dice.Value)
			case authority.NotifyYourTurn:
				fmt.Fprintf(out, "seat %d to play\n", n.Seat)
			}
		default:
			return
		}
	}
}
