package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Backland-Labs/outreach/internal/dify"
	"github.com/Backland-Labs/outreach/internal/progress"
	"github.com/Backland-Labs/outreach/internal/workflow"
)

type reviewFlags struct {
	file     string
	platform string
	user     string
}

// newReviewCommand creates the review subcommand
func newReviewCommand(deps *Dependencies, configPath *string) *cobra.Command {
	flags := &reviewFlags{}

	cmd := &cobra.Command{
		Use:   "review [content]",
		Short: "Run the three-level content review on a draft",
		Long: `Run the three-level content review on a draft and print each stage's
verdict. The draft is the argument, or the contents of --file ("-" reads
standard input).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := reviewContent(cmd.InOrStdin(), flags.file, args)
			if err != nil {
				return err
			}

			a, err := setup(deps, *configPath, clientOptions{})
			if err != nil {
				return err
			}
			if !a.client.HasEndpoint(string(workflow.KindReview)) {
				return notConfigured(workflow.KindReview)
			}

			ctx, cancel := withInterrupt(cmd.Context(), a.printer)
			defer cancel()

			board := progress.NewStageBoard()
			hidden := progress.NewHiddenSet(a.cfg.Generate.HiddenNodes...)
			a.printer.Step("Reviewing %d characters", len([]rune(content)))

			report, err := workflow.RunReview(ctx, a.client, workflow.ReviewInput{
				Content:  content,
				Platform: flags.platform,
			}, board, progress.Hide(hidden, func(ev dify.ProgressEvent) {
				a.printer.ProgressEvent("", ev)
			}), flags.user)

			a.printer.Stages(board.Statuses())
			if err != nil {
				return fmt.Errorf("review failed: %s", dify.Message(err))
			}

			switch report.FinalStatus {
			case workflow.ReviewApproved:
				a.printer.Success("Approved (%d issues)", report.IssueCount)
			case workflow.ReviewRejected:
				a.printer.Error("Rejected (%d issues)", report.IssueCount)
			default:
				a.printer.Warning("%s (%d issues)", report.FinalStatus, report.IssueCount)
			}
			if report.Summary != "" {
				a.printer.Println(report.Summary)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&flags.file, "file", "f", "", "Read the draft from a file")
	cmd.Flags().StringVarP(&flags.platform, "platform", "p", "", "Platform the draft is meant for")
	cmd.Flags().StringVar(&flags.user, "user", "", "Caller identity (default from config)")

	return cmd
}

func reviewContent(stdin io.Reader, file string, args []string) (string, error) {
	if file != "" && len(args) > 0 {
		return "", errors.New("give the draft as an argument or with --file, not both")
	}

	content := ""
	switch {
	case file == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read draft: %w", err)
		}
		content = string(data)
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read draft: %w", err)
		}
		content = string(data)
	case len(args) > 0:
		content = args[0]
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return "", errors.New("nothing to review")
	}
	return content, nil
}
