// Command matchctl drives the match service from a terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/mcdev12/matchboard/go/internal/match"
	"github.com/mcdev12/matchboard/go/internal/models"
	"github.com/mcdev12/matchboard/go/internal/profiles"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type sender func(ctx context.Context, c *match.Client, id uuid.UUID, args []byte) (match.Result, error)

func send[C match.Command]() sender {
	return func(ctx context.Context, c *match.Client, id uuid.UUID, args []byte) (match.Result, error) {
		var cmd C
		if len(args) > 0 {
			if err := sonic.Unmarshal(args, &cmd); err != nil {
				return match.Result{}, errors.Wrap(err, "decode command arguments")
			}
		}
		return match.Send(ctx, c, id, cmd)
	}
}

var commands = map[string]sender{
	"StartPeriod":         send[match.StartPeriod](),
	"StopPeriod":          send[match.StopPeriod](),
	"AdvancePeriod":       send[match.AdvancePeriod](),
	"EndMatch":            send[match.EndMatch](),
	"ResetScoreboard":     send[match.ResetScoreboard](),
	"AddScore":            send[match.AddScore](),
	"SubtractScore":       send[match.SubtractScore](),
	"AddPenaltyStat":      send[match.AddPenaltyStat](),
	"SubtractPenaltyStat": send[match.SubtractPenaltyStat](),
	"AddCard":             send[match.AddCard](),
	"RemoveCard":          send[match.RemoveCard](),
	"UpdateFormat":        send[match.UpdateFormat](),
	"UpdateTeamBranding":  send[match.UpdateTeamBranding](),
	"UpdateDisplayFlags":  send[match.UpdateDisplayFlags](),
	"UpdateDescription":   send[match.UpdateDescription](),
	"RenameMatch":         send[match.RenameMatch](),
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	addr := flag.String("addr", envOr("MATCHBOARD_ADDR", "http://localhost:8080"), "match service base URL")
	token := flag.String("token", os.Getenv("MATCHBOARD_TOKEN"), "bearer token")
	owner := flag.String("owner", os.Getenv("MATCHBOARD_OWNER"), "owner id sent in development mode")
	timeout := flag.Duration("timeout", 10*time.Second, "request timeout")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	base := strings.TrimRight(*addr, "/")
	if flag.Arg(0) == "theme" {
		if err := runTheme(ctx, profiles.NewClient(nil, base, *token, *owner), *owner, flag.Args()[1:]); err != nil {
			log.Fatal().Err(err).Msg("matchctl")
		}
		return
	}

	client := match.NewClient(nil, base, *token, *owner)
	if err := run(ctx, client, flag.Args()); err != nil {
		log.Fatal().Err(err).Msg("matchctl")
	}
}

func run(ctx context.Context, client *match.Client, args []string) error {
	switch args[0] {
	case "create":
		name := ""
		if len(args) > 1 {
			name = strings.Join(args[1:], " ")
		}
		m, err := client.CreateMatch(ctx, name)
		if err != nil {
			return err
		}
		return printJSON(m)
	case "list":
		ms, err := client.ListMatches(ctx)
		if err != nil {
			return err
		}
		for _, m := range ms {
			fmt.Println(summary(m))
		}
		return nil
	case "latest":
		m, err := client.LatestMatch(ctx)
		if err != nil {
			return err
		}
		return printJSON(m)
	case "get", "delete":
		if len(args) < 2 {
			return errors.Newf("%s requires a match id", args[0])
		}
		id, err := uuid.Parse(args[1])
		if err != nil {
			return errors.Wrap(err, "parse match id")
		}
		if args[0] == "delete" {
			return client.DeleteMatch(ctx, id)
		}
		m, err := client.GetMatch(ctx, id)
		if err != nil {
			return err
		}
		return printJSON(m)
	case "send":
		if len(args) < 3 {
			return errors.New("send requires a match id and a command name")
		}
		id, err := uuid.Parse(args[1])
		if err != nil {
			return errors.Wrap(err, "parse match id")
		}
		s, ok := commands[args[2]]
		if !ok {
			return errors.Newf("unknown command %q", args[2])
		}
		var body []byte
		if len(args) > 3 {
			body = []byte(args[3])
		}
		res, err := s(ctx, client, id, body)
		if err != nil {
			return err
		}
		if !res.Applied {
			log.Info().Str("command", args[2]).Msg("command had no effect")
		}
		fmt.Println(summary(res.Match))
		return nil
	default:
		return errors.Newf("unknown subcommand %q", args[0])
	}
}

// runTheme reads or changes the operator's app theme. Match overlays keep
// their own scoreboard theme and are not affected.
func runTheme(ctx context.Context, client *profiles.Client, owner string, args []string) error {
	state := profiles.NewThemeState(client, owner)
	state.Init(ctx)
	state.OnChange(func(t models.Theme) {
		log.Info().Str("theme", string(t)).Msg("app theme changed")
	})

	var (
		p   *models.Profile
		err error
	)
	switch {
	case len(args) == 0:
	case args[0] == "toggle":
		p, err = client.ToggleTheme(ctx)
	default:
		p, err = client.SetTheme(ctx, models.Theme(args[0]))
	}
	if err != nil {
		return err
	}
	if p != nil {
		state.Apply(p.AppTheme)
	}
	fmt.Println(state.Current())
	return nil
}

func summary(m models.Match) string {
	state := "stopped"
	switch {
	case m.IsMatchEnded:
		state = "ended"
	case m.IsTimerRunning:
		state = "running"
	}
	return fmt.Sprintf("%s  %-20s  %s %d - %d %s  %s%d  %s  rev=%d",
		m.ID, m.Name,
		m.HomeTeam.NameAbbr, m.HomeTeam.Score, m.AwayTeam.Score, m.AwayTeam.NameAbbr,
		m.GameFormat.Type.Prefix(), m.CurrentPeriod, state, m.Revision)
}

func printJSON(v any) error {
	out, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func usage() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	w := flag.CommandLine.Output()
	fmt.Fprintln(w, "usage: matchctl [flags] <create|list|latest|get|delete|send|theme> [args]")
	fmt.Fprintln(w, "  matchctl theme [dark|light|toggle]")
	fmt.Fprintln(w, "  matchctl send <match-id> AddScore '{\"side\":\"home\",\"kind\":\"field_goal\"}'")
	fmt.Fprintf(w, "commands: %s\n", strings.Join(names, ", "))
	flag.PrintDefaults()
}
