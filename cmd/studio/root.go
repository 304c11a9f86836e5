package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"ugc-studio/internal/apiclient"
	"ugc-studio/internal/config"
	"ugc-studio/internal/gallery"
	"ugc-studio/internal/log"
	"ugc-studio/internal/models"
	"ugc-studio/internal/notify"
	"ugc-studio/internal/result"
)

type App struct {
	cfg    *config.ClientConfig
	log    zerolog.Logger
	client *apiclient.Client
	notify notify.Notifier
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "studio",
		Short:         "Follow and manage generation projects",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.init(cmd.ErrOrStderr())
		},
	}
	cmd.AddCommand(
		newWatchCmd(app),
		newVideoCmd(app),
		newListCmd(app),
		newCommunityCmd(app),
		newPublishCmd(app),
		newDeleteCmd(app),
	)
	return cmd
}

func (a *App) init(stderr io.Writer) error {
	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = log.NewWithWriter(stderr, cfg.Environment)
	a.client = apiclient.New(cfg.API.BaseURL, cfg.API.Timeout, apiclient.StaticToken(cfg.API.Token))
	a.notify = notify.NewLogNotifier(a.log)
	return nil
}

func (a *App) newView(ctx context.Context) *result.View {
	return result.NewView(a.client, a.notify,
		result.WithSchedule(result.ScheduleFromConfig(a.cfg.Poll)),
		result.WithLogger(a.log),
		result.WithSignedIn(a.client.SignedIn(ctx)),
	)
}

func newWatchCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <project-id>",
		Short: "Follow a project until its generation settles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			view := app.newView(ctx)
			defer view.Close()

			if err := view.Open(ctx, args[0]); err != nil {
				return err
			}
			if err := view.WaitIdle(ctx); err != nil {
				return err
			}
			printProject(cmd.OutOrStdout(), view.State().Project)
			return nil
		},
	}
}

func newVideoCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "video <project-id>",
		Short: "Animate a project's generated image into a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			view := app.newView(ctx)
			defer view.Close()

			if err := view.Open(ctx, args[0]); err != nil {
				return err
			}
			if err := view.WaitIdle(ctx); err != nil {
				return err
			}
			if err := view.GenerateVideo(ctx); err != nil {
				return err
			}
			printProject(cmd.OutOrStdout(), view.State().Project)
			return nil
		},
	}
}

func newListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			listing := app.newListing(cmd, false)
			if err := listing.Load(cmd.Context()); err != nil {
				return err
			}
			printListing(cmd.OutOrStdout(), listing.Projects())
			return nil
		},
	}
}

func newCommunityCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "community",
		Short: "List published projects from every user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			listing := app.newListing(cmd, false)
			if err := listing.LoadCommunity(cmd.Context()); err != nil {
				return err
			}
			printListing(cmd.OutOrStdout(), listing.Projects())
			return nil
		},
	}
}

func newPublishCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "publish <project-id>",
		Short: "Publish or unpublish a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			listing := app.newListing(cmd, false)
			if err := listing.Load(cmd.Context()); err != nil {
				return err
			}
			return listing.TogglePublish(cmd.Context(), args[0])
		},
	}
}

func newDeleteCmd(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <project-id>",
		Short: "Delete a project and its artifacts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			listing := app.newListing(cmd, yes)
			if err := listing.Load(cmd.Context()); err != nil {
				return err
			}
			return listing.Delete(cmd.Context(), args[0])
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func (a *App) newListing(cmd *cobra.Command, assumeYes bool) *gallery.Listing {
	confirm := gallery.ConfirmFunc(func(prompt string) bool {
		if assumeYes {
			return true
		}
		return promptYes(cmd.InOrStdin(), cmd.ErrOrStderr(), prompt)
	})
	return gallery.NewListing(a.client, a.notify, confirm, gallery.WithLogger(a.log))
}

func promptYes(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N] ", prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func printListing(w io.Writer, projects []models.Project) {
	if len(projects) == 0 {
		fmt.Fprintln(w, "No projects")
		return
	}
	for _, p := range projects {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, p.ProductName, status(p), p.AspectRatio)
	}
}

func printProject(w io.Writer, p models.Project) {
	fmt.Fprintf(w, "Project:  %s\n", p.ID)
	fmt.Fprintf(w, "Product:  %s\n", p.ProductName)
	fmt.Fprintf(w, "Status:   %s\n", status(p))
	if p.HasImage() {
		fmt.Fprintf(w, "Image:    %s\n", p.GeneratedImage)
	}
	if p.HasVideo() {
		fmt.Fprintf(w, "Video:    %s\n", p.GeneratedVideo)
	}
	if p.Failed() {
		fmt.Fprintf(w, "Error:    %s\n", p.Error)
	}
}

func status(p models.Project) string {
	switch {
	case p.Failed():
		return "failed"
	case p.IsGenerating:
		return "generating"
	case p.HasVideo():
		return "video ready"
	case p.HasImage():
		return "image ready"
	default:
		return "pending"
	}
}
