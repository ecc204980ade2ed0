package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mr1hm/cuya-bot/internal/geofence"
	"github.com/mr1hm/cuya-bot/internal/intent"
	"github.com/mr1hm/cuya-bot/internal/rules"
)

// migrateCmd applies schema migrations
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the report schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Opening the database runs migrations.
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		v, err := db.SchemaVersion(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: schema version %d\n", cfg.DB.Path, v)
		return nil
	},
}

// classifyCmd shows how the rules read a message
var classifyCmd = &cobra.Command{
	Use:   "classify <message>",
	Short: "Show the intent and geofence verdict for a message",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := rules.Load(cfg.Rules.Path)
		if err != nil {
			return err
		}

		text := strings.Join(args, " ")
		in := intent.NewClassifier(r).Classify(text)
		out := cmd.OutOrStdout()

		switch in.Kind {
		case intent.KindEmergency:
			fmt.Fprintf(out, "intent: emergency (%s, %s)\n", in.Category.ID, in.Category.Label)
		case intent.KindSmalltalk:
			fmt.Fprintf(out, "intent: smalltalk (%s)\n", in.Smalltalk)
		default:
			fmt.Fprintln(out, "intent: unknown")
		}

		if place, ok := geofence.NewMatcher(r.Gazetteer).Match(text); ok {
			fmt.Fprintf(out, "geofence: in area (%s)\n", place)
		} else {
			fmt.Fprintln(out, "geofence: out of area")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(classifyCmd)
}
