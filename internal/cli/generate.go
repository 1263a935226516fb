package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Backland-Labs/outreach/internal/dify"
	"github.com/Backland-Labs/outreach/internal/fanout"
	"github.com/Backland-Labs/outreach/internal/progress"
	"github.com/Backland-Labs/outreach/internal/workflow"
)

type generateFlags struct {
	kind        string
	topic       string
	description string
	style       string
	reference   string
	platforms   []string
	numPlans    int
	duration    string
	scene       string
	aspectRatio string
	user        string
}

// newGenerateCommand creates the generate subcommand. Copywriting fans out
// over platforms; the other content types are a single call.
func newGenerateCommand(deps *Dependencies, configPath *string) *cobra.Command {
	flags := &generateFlags{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate campaign content for a topic",
		Long: `Generate campaign content for a topic.

--type copywriting (the default) writes copy for every --platform at once.
A platform that fails does not stop the others; failures are reported
together at the end. --type poster, video_script and image_gen make one call.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.topic == "" {
				return errors.New("--topic is required")
			}
			kind, err := workflow.ParseKind(flags.kind)
			if err != nil {
				return err
			}

			a, err := setup(deps, *configPath, clientOptions{})
			if err != nil {
				return err
			}
			if !a.client.HasEndpoint(string(kind)) {
				return notConfigured(kind)
			}
			if flags.style == "" {
				flags.style = a.cfg.Generate.DefaultStyle
			}

			ctx, cancel := withInterrupt(cmd.Context(), a.printer)
			defer cancel()

			switch kind {
			case workflow.KindCopywriting:
				return generateCopywriting(ctx, a, flags)
			case workflow.KindPoster:
				out, err := streamWithSteps(ctx, a, string(kind), func(ctx context.Context, opts dify.StreamOptions) (workflow.PosterOutput, error) {
					return workflow.Poster(a.client).RunStreaming(ctx, workflow.PosterInput{
						Topic:       flags.topic,
						Description: flags.description,
						Style:       flags.style,
						NumPlans:    flags.numPlans,
					}, opts, flags.user)
				})
				return printResult(a, kind, out, err)
			case workflow.KindVideoScript:
				out, err := streamWithSteps(ctx, a, string(kind), func(ctx context.Context, opts dify.StreamOptions) (workflow.VideoScriptOutput, error) {
					return workflow.VideoScript(a.client).RunStreaming(ctx, workflow.VideoScriptInput{
						Topic:       flags.topic,
						Description: flags.description,
						Style:       flags.style,
						Duration:    flags.duration,
						Platform:    firstPlatform(flags.platforms),
					}, opts, flags.user)
				})
				return printResult(a, kind, out, err)
			case workflow.KindImageGen:
				out, err := streamWithSteps(ctx, a, string(kind), func(ctx context.Context, opts dify.StreamOptions) (workflow.ImageGenOutput, error) {
					return workflow.ImageGen(a.client).RunStreaming(ctx, workflow.ImageGenInput{
						Topic:            flags.topic,
						Style:            flags.style,
						SceneDescription: flags.scene,
						AspectRatio:      flags.aspectRatio,
					}, opts, flags.user)
				})
				return printResult(a, kind, out, err)
			default:
				return fmt.Errorf("generate does not support %s; use run %s", kind, kind)
			}
		},
	}

	cmd.Flags().StringVarP(&flags.kind, "type", "t", string(workflow.KindCopywriting), "Content type: copywriting, poster, video_script or image_gen")
	cmd.Flags().StringVar(&flags.topic, "topic", "", "Campaign topic (required)")
	cmd.Flags().StringVarP(&flags.description, "description", "d", "", "Extra background for the topic")
	cmd.Flags().StringVar(&flags.style, "style", "", "Writing or visual style (default from config)")
	cmd.Flags().StringVar(&flags.reference, "reference", "", "Reference material for copywriting")
	cmd.Flags().StringSliceVarP(&flags.platforms, "platform", "p", workflow.Platforms, "Target platforms")
	cmd.Flags().IntVar(&flags.numPlans, "num-plans", 3, "Number of poster plans")
	cmd.Flags().StringVar(&flags.duration, "duration", "60s", "Video length")
	cmd.Flags().StringVar(&flags.scene, "scene", "", "Scene description for image generation")
	cmd.Flags().StringVar(&flags.aspectRatio, "aspect-ratio", "1:1", "Image aspect ratio")
	cmd.Flags().StringVar(&flags.user, "user", "", "Caller identity (default from config)")

	return cmd
}

func generateCopywriting(ctx context.Context, a *app, flags *generateFlags) error {
	tracker := progress.NewTracker()
	tracker.OnUpdate(a.printer.ProgressEvent)

	a.printer.Step("Writing copy for %d platform(s)", len(flags.platforms))
	res := workflow.GenerateCopywriting(ctx, a.client, workflow.CopywritingInput{
		Topic:       flags.topic,
		Description: flags.description,
		Style:       flags.style,
		Reference:   flags.reference,
	}, flags.platforms, workflow.GenerateOptions{
		Limit:   a.cfg.Generate.FanoutLimit,
		Hidden:  progress.NewHiddenSet(a.cfg.Generate.HiddenNodes...),
		Tracker: tracker,
		User:    flags.user,
	})

	for _, platform := range res.Targets {
		out, ok := res.Outputs[platform]
		if !ok {
			continue
		}
		a.printer.Success("%s", platform)
		a.printer.Println(out.Result)
		if out.AuditStatus != "" {
			a.printer.Detail("audit: %s", out.AuditStatus)
		}
		if out.NeedsRevision() && out.AuditReport != "" {
			a.printer.Detail("%s", out.AuditReport)
		}
	}

	var fe *fanout.Error
	if !errors.As(res.Err(), &fe) {
		return nil
	}
	for _, f := range fe.Failures {
		a.printer.Error("%s: %s", f.Target, dify.Message(f.Err))
	}
	if len(res.Outputs) == 0 {
		return fmt.Errorf("copywriting failed for every platform: %s", fe.Join(dify.Message))
	}
	a.printer.Warning("Missing platforms: %v", res.Missing())
	return nil
}

// printResult prints a typed workflow output as JSON
func printResult[T any](a *app, kind workflow.Kind, out T, err error) error {
	if err != nil {
		return fmt.Errorf("%s failed: %s", kind, dify.Message(err))
	}
	return a.printer.JSON(out)
}

func firstPlatform(platforms []string) string {
	if len(platforms) == 0 {
		return ""
	}
	return platforms[0]
}
