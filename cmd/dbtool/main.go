// cmd/dbtool is the maintenance CLI for the synquiz database.
//
//	dbtool ping        connection test with row counts
//	dbtool users       list accounts with their aggregate stats
//	dbtool repair-pk   resync auto-increment sequences to MAX(id)
//	dbtool migrate     apply pending migrations and print the schema version
//	dbtool seed        load the word bank into an empty words table
//	dbtool words       list stored words with their answer counters
//
// Every subcommand accepts the server's config flags (--config, --db-driver,
// --db-path, --db-url, --seed-file, ...) and reads the same environment.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/robalobadob/synquiz/internal/config"
	"github.com/robalobadob/synquiz/internal/database"
	"github.com/robalobadob/synquiz/internal/quiz"
	"github.com/robalobadob/synquiz/internal/repository"
	"github.com/robalobadob/synquiz/internal/words"
)

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, cfg *config.Config, db *database.DB) error
}

var commands = []command{
	{"ping", "connection test with row counts", runPing},
	{"users", "list accounts with their stats", runUsers},
	{"repair-pk", "resync auto-increment sequences to MAX(id)", runRepair},
	{"migrate", "apply pending migrations and print the schema version", runMigrate},
	{"seed", "load the word bank into an empty words table", runSeed},
	{"words", "list stored words with their answer counters", runWords},
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}
	var cmd *command
	for i := range commands {
		if commands[i].name == os.Args[1] {
			cmd = &commands[i]
		}
	}
	if cmd == nil {
		printUsage()
		os.Exit(2)
	}

	fs := config.FlagSet("dbtool " + cmd.name)
	if err := fs.Parse(os.Args[2:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	config.SetupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	db, err := database.Open(ctx, cfg.DBDriver, cfg.DBPath, cfg.DBURL)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("failed to open database")
	}
	defer db.Close()

	if err := cmd.run(ctx, cfg, db); err != nil {
		log.Error().Err(err).Str("command", cmd.name).Msg("dbtool failed")
		db.Close()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: dbtool <command> [flags]")
	fmt.Fprintln(os.Stderr)
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-10s %s\n", c.name, c.usage)
	}
	fmt.Fprintln(os.Stderr)
	fmt.Fprint(os.Stderr, config.FlagSet("dbtool").FlagUsages())
}

func runPing(ctx context.Context, _ *config.Config, db *database.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rep, err := db.Ping(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("driver:  %s\nlatency: %s\nwords:   %d\nusers:   %d\n",
		rep.Driver, rep.Latency.Round(time.Microsecond), rep.Words, rep.Users)
	return nil
}

func runUsers(ctx context.Context, _ *config.Config, db *database.DB) error {
	users, err := repository.NewUserRepository(db).List(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSERNAME\tSESSIONS\tTOTAL SCORE\tBEST STREAK\tCREATED")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n",
			u.ID, u.Username, u.SessionsPlayed, u.TotalScore, u.BestStreak, u.CreatedAt.Format(time.RFC3339))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Printf("%d user(s)\n", len(users))
	return nil
}

func runRepair(ctx context.Context, _ *config.Config, db *database.DB) error {
	repairs, err := db.RepairSequences(ctx)
	for _, r := range repairs {
		fmt.Printf("%s: next id %d\n", r.Table, r.NextID)
	}
	return err
}

func runMigrate(_ context.Context, _ *config.Config, db *database.DB) error {
	if err := db.Migrate(); err != nil {
		return err
	}
	version, dirty, ok, err := db.MigrationVersion()
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("no migrations applied")
		return nil
	}
	fmt.Printf("schema version %d (dirty: %t)\n", version, dirty)
	return nil
}

func runSeed(ctx context.Context, cfg *config.Config, db *database.DB) error {
	if err := db.Migrate(); err != nil {
		return err
	}
	if err := words.Init(cfg.SeedFile); err != nil {
		return err
	}
	n, err := repository.NewWordRepository(db).Seed(ctx, words.Bank())
	if err != nil {
		return err
	}
	if n == 0 {
		fmt.Println("words table already populated; nothing inserted")
		return nil
	}
	stats := words.Stats()
	fmt.Printf("inserted %d words\n", n)
	for _, d := range []quiz.Difficulty{quiz.DifficultyEasy, quiz.DifficultyMedium, quiz.DifficultyHard} {
		fmt.Printf("  %-7s %d\n", d, stats[d])
	}
	return nil
}

func runWords(ctx context.Context, _ *config.Config, db *database.DB) error {
	ws, err := repository.NewWordRepository(db).List(ctx, 0)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WORD\tDIFFICULTY\tCATEGORY\tSYNONYMS\tCORRECT\tINCORRECT\tLAST REVIEWED")
	for _, w := range ws {
		last := "-"
		if w.LastReviewed != nil {
			last = w.LastReviewed.Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			w.Word, w.Difficulty, w.Category, len(w.Synonyms), w.CorrectCount, w.IncorrectCount, last)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Printf("%d word(s)\n", len(ws))
	return nil
}
