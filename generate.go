package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"interview_protocol/config"
	"interview_protocol/export"
	"interview_protocol/generator"
	"interview_protocol/notify"
	"interview_protocol/render"
	"interview_protocol/server"
)

var generateCmd = &cobra.Command{
	Use:   "generate <topic>",
	Short: "Stream one drill document to the terminal",
	Long: `Generate sends the topic to the configured service and streams the document
to stdout. On a terminal the finished document is rendered with styling;
otherwise the raw markdown is streamed as it arrives. Status lines and
notifications go to stderr.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadRuntime(cmd)
		if err != nil {
			return err
		}
		opts := generateOptions{
			topic:  strings.ToUpper(strings.TrimSpace(strings.Join(args, " "))),
			pretty: isTerminal(os.Stdout),
		}
		opts.export, _ = cmd.Flags().GetBool("export")
		opts.copyCode, _ = cmd.Flags().GetInt("copy-code")
		if cmd.Flags().Changed("raw") {
			raw, _ := cmd.Flags().GetBool("raw")
			opts.pretty = !raw
		}
		if opts.topic == "" {
			return errors.New("topic required")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runGenerate(ctx, cfg, logger, opts, os.Stdout, os.Stderr)
	},
}

func init() {
	generateCmd.Flags().Bool("export", false, "export the finished document")
	generateCmd.Flags().Int("copy-code", -1, "copy the Nth code block (0-based) to the terminal clipboard")
	generateCmd.Flags().Bool("raw", false, "stream raw markdown even on a terminal")
	rootCmd.AddCommand(generateCmd)
}

type generateOptions struct {
	topic    string
	pretty   bool
	export   bool
	copyCode int
}

func runGenerate(ctx context.Context, cfg config.Config, logger *slog.Logger, opts generateOptions, stdout *os.File, stderr io.Writer) error {
	st := newStyles(novaTheme)

	producer, err := buildProducer(cfg.LLM)
	if err != nil {
		return err
	}
	agent, err := generator.NewAgent(producer)
	if err != nil {
		return err
	}

	toasts := notify.New()
	defer toasts.Close()
	toasts.Subscribe(newToastPrinter(stderr, st).observe)

	rotator := generator.NewStatusRotator(generator.StatusInterval, func(status string) {
		fmt.Fprintln(stderr, st.Status.Render(status))
	})
	acc, err := generator.NewAccumulator(agent, toasts,
		generator.WithLogger(logger),
		generator.WithStatusRotator(rotator),
	)
	if err != nil {
		return err
	}

	if !opts.pretty {
		var written int
		acc.Subscribe(func(s generator.State) {
			if len(s.Content) > written {
				io.WriteString(stdout, s.Content[written:])
				written = len(s.Content)
			}
		})
	}

	fmt.Fprintln(stderr, st.Banner.Render("NOVA-7 // INTERVIEW PROTOCOL: "+opts.topic))
	if err := acc.Start(ctx, opts.topic); err != nil {
		return errors.New(acc.State().Error)
	}

	interrupted := false
	select {
	case <-acc.Done():
	case <-ctx.Done():
		acc.Cancel()
		interrupted = true
	}

	state := acc.State()
	if opts.pretty && state.Content != "" {
		renderMarkdown, err := newMarkdownRenderer(stdout)
		if err != nil {
			return err
		}
		out, err := renderMarkdown(state.Content)
		if err != nil {
			return err
		}
		io.WriteString(stdout, out)
	} else if state.Content != "" && !strings.HasSuffix(state.Content, "\n") {
		io.WriteString(stdout, "\n")
	}
	fmt.Fprintln(stderr, st.Footer.Render(server.FooterLeft+"    "+server.FooterRight))

	if state.Error != "" {
		return errors.New(state.Error)
	}
	if interrupted {
		return ctx.Err()
	}
	doc := render.Render(state.Content)

	if opts.copyCode >= 0 {
		copier := render.NewCopier(osc52Clipboard{w: stderr}, toasts, logger)
		if _, err := copier.CopyAt(doc, opts.copyCode); err != nil {
			return fmt.Errorf("copy code block %d: %w", opts.copyCode, err)
		}
	}

	if opts.export {
		surface := &terminalSurface{}
		res, err := exportDocument(ctx, cfg.Export, logger, toasts, surface, state, doc)
		if err != nil {
			return err
		}
		fmt.Fprintln(stderr, st.Footer.Render("saved "+res.Path))
	}
	return nil
}

func exportDocument(ctx context.Context, cfg config.ExportConfig, logger *slog.Logger, toasts notify.Pusher, surface export.Surface, state generator.State, doc render.Document) (export.Result, error) {
	adapter, err := export.NewAdapter(buildCapture(cfg), surface, toasts,
		export.WithSettle(0),
		export.WithLogger(logger),
	)
	if err != nil {
		return export.Result{}, err
	}
	css, err := server.Stylesheet()
	if err != nil {
		return export.Result{}, err
	}
	summary := generator.Summarize(state.Content)
	return adapter.Export(ctx, export.Page{
		Title: summary.Title,
		HTML:  server.Sheet(render.HTML(doc, render.DefaultStyles), ""),
		CSS:   css,
	}, export.Metadata{Topic: state.Topic, Title: summary.Title})
}
