package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abelbrown/pubtrend/internal/api"
	"github.com/abelbrown/pubtrend/internal/article"
	"github.com/abelbrown/pubtrend/internal/fetch"
	"github.com/abelbrown/pubtrend/internal/logging"
	"github.com/abelbrown/pubtrend/internal/poller"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Run one search and print the results",
	Long: `search submits the query, waits for the backend to finish (checking every
5 seconds, giving up after 24 retries), and prints the ordered articles and
the publication trend. Ctrl-C cancels the search.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	f := searchCmd.Flags()
	f.Int("max-results", 0, "maximum number of articles (default from config)")
	f.String("sort", string(article.DefaultSort), "sort order: relevance, impact-desc, year-desc, citations-desc")
	f.String("format", "text", "output format: text, json, html")
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := logging.Init(os.Stderr, cfg.LogLevel); err != nil {
		return err
	}

	sortFlag, _ := cmd.Flags().GetString("sort")
	key, err := article.ParseSortKey(sortFlag)
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	write, ok := writers[format]
	if !ok {
		return fmt.Errorf("unknown format %q (want text, json or html)", format)
	}
	maxResults, _ := cmd.Flags().GetInt("max-results")
	if maxResults <= 0 {
		maxResults = cfg.MaxResults
	}

	session, err := poller.NewSession(api.Query{Text: strings.Join(args, " "), MaxResults: maxResults}, nil)
	if err != nil {
		return errors.New(poller.Alert(err))
	}

	client, err := fetch.NewClient(cfg.BackendURL, cfg.HTTPTimeout, fetch.WithRateLimit(cfg.RequestRate))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logging.WithPrefix("search")
	runner := &poller.Runner{
		Fetcher: client,
		OnStep: func(s *poller.Session, step poller.Step) {
			if step.Kind == poller.StepFetch && step.Delay > 0 {
				log.Info("backend still working", "attempt", step.Attempt, "next_check", step.Delay)
			}
		},
	}

	log.Debug("submitting", "query", session.Query.Text, "max_results", session.Query.MaxResults, "id", session.ID)
	out := runner.Run(ctx, session)
	if out.Err != nil {
		if errors.Is(out.Err, poller.ErrCancelled) {
			return errors.New("search cancelled")
		}
		return errors.New(poller.Alert(out.Err))
	}

	return write(cmd.OutOrStdout(), newReport(session.Query.Text, key, out))
}
