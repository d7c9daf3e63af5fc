package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/adagearchive/moderation/internal/challenge"
	"github.com/adagearchive/moderation/internal/database/query"
	"github.com/adagearchive/moderation/pkg/log"
	"github.com/dustin/go-humanize"
	"github.com/gofrs/uuid/v5"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var ErrInvalidFlag = errors.New("invalid flag value")

type transitionFunc func(ctx context.Context, lifecycle *challenge.Lifecycle, challengeID uuid.UUID,
	decision challenge.Decision, userID int64) (challenge.Result, error)

// challengeCmd groups the operator commands. They run the same lifecycle as the HTTP api, so every
// notification and audit entry is produced exactly as it would be from the website.
func challengeCmd() *cobra.Command {
	challengeGroup := &cobra.Command{
		Use:   "challenge",
		Short: "Decide challenges and appeals from the command line",
	}

	challengeGroup.AddCommand(transitionCmd("decide", "Accept or reject a pending challenge", "moderator",
		func(ctx context.Context, lifecycle *challenge.Lifecycle, challengeID uuid.UUID, decision challenge.Decision,
			userID int64,
		) (challenge.Result, error) {
			return lifecycle.Decide(ctx, challengeID, decision, userID)
		}))

	challengeGroup.AddCommand(transitionCmd("adjudicate", "Accept or reject the appeal of a challenge", "admin",
		func(ctx context.Context, lifecycle *challenge.Lifecycle, challengeID uuid.UUID, decision challenge.Decision,
			userID int64,
		) (challenge.Result, error) {
			return lifecycle.AdjudicateAppeal(ctx, challengeID, decision, userID)
		}))

	challengeGroup.AddCommand(listCmd())

	return challengeGroup
}

func listCmd() *cobra.Command {
	var (
		status string
		limit  uint64
	)

	command := &cobra.Command{
		Use:   "list",
		Short: "Show the moderation queue",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, errApp := NewApp()
			if errApp != nil {
				return errApp
			}

			defer app.Close()

			if errInit := app.Init(cmd.Context()); errInit != nil {
				return errInit
			}

			challenges, count, errQuery := app.lifecycle.Query(cmd.Context(), challenge.Query{
				Filter: query.Filter{Limit: limit, Desc: true},
				Status: challenge.Status(status),
			})
			if errQuery != nil {
				return errQuery
			}

			slog.Info("Matched challenges", slog.Int64("count", count))

			return renderChallenges(cmd.OutOrStdout(), challenges, time.Now())
		},
	}

	command.Flags().StringVarP(&status, "status", "s", string(challenge.StatusPending), "pending, accepted or rejected")
	command.Flags().Uint64VarP(&limit, "limit", "l", 25, "maximum rows to show")

	return command
}

func renderChallenges(writer io.Writer, challenges []challenge.Challenge, now time.Time) error {
	table := tablewriter.NewTable(writer)
	table.Header([]string{"ID", "Target", "Status", "Appeals", "Challenger", "Filed", "Reason"})

	for _, item := range challenges {
		if errAppend := table.Append([]string{
			item.ChallengeID.String(),
			item.Target.String(),
			string(item.Status),
			strconv.Itoa(item.AppealCount),
			strconv.FormatInt(item.ChallengerID, 10),
			humanize.RelTime(item.CreatedOn, now, "ago", "from now"),
			item.Reason,
		}); errAppend != nil {
			return errAppend
		}
	}

	return table.Render()
}

func transitionCmd(use string, short string, actor string, transition transitionFunc) *cobra.Command {
	var (
		challengeID string
		decision    string
		userID      int64
	)

	command := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			parsedID, errID := uuid.FromString(challengeID)
			if errID != nil {
				return errors.Join(errID, ErrInvalidFlag)
			}

			app, errApp := NewApp()
			if errApp != nil {
				return errApp
			}

			defer app.Close()

			if errInit := app.Init(cmd.Context()); errInit != nil {
				return errInit
			}

			result, errTransition := transition(cmd.Context(), app.lifecycle, parsedID, challenge.Decision(decision), userID)
			if errTransition != nil {
				slog.Error("Transition failed", log.ErrAttr(errTransition), slog.String("challenge_id", challengeID),
					slog.Bool("retryable", challenge.IsRetryable(errTransition)))

				return errTransition
			}

			for _, degraded := range result.Degraded {
				slog.Warn("Side effect failed", slog.String("effect", degraded.Effect),
					slog.Int64("user_id", degraded.UserID), slog.String("message", degraded.Message))
			}

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")

			return encoder.Encode(result)
		},
	}

	command.Flags().StringVarP(&challengeID, "id", "i", "", "challenge id")
	command.Flags().StringVarP(&decision, "decision", "d", "", "accepted or rejected")
	command.Flags().Int64VarP(&userID, "user", "u", 0, actor+" user id")

	for _, flag := range []string{"id", "decision", "user"} {
		_ = command.MarkFlagRequired(flag)
	}

	return command
}
