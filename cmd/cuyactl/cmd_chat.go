package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mr1hm/cuya-bot/internal/dialogue"
	"github.com/mr1hm/cuya-bot/internal/models"
	"github.com/mr1hm/cuya-bot/internal/rules"
)

// chatCmd runs a dialogue against stdin/stdout
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Report an emergency from the terminal",
	Long: `Start a dialogue on the terminal. Each input line is one message.
Completed reports are written to the configured database.
Type /quit or send EOF to exit.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	r, err := rules.Load(cfg.Rules.Path)
	if err != nil {
		return err
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	machine := dialogue.NewMachine(r, db, dialogue.WithMapSearchURL(cfg.Rules.MapSearchURL))
	session := models.NewSession("cli-" + uuid.NewString())

	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(cmd.InOrStdin())
	fmt.Fprint(out, "> ")
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "/quit" {
			break
		}

		reply, err := machine.Step(ctx, session, line)
		fmt.Fprintln(out, reply.Text)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
		}
		fmt.Fprint(out, "> ")
	}
	fmt.Fprintln(out)

	return scanner.Err()
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
