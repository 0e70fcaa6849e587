package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"boorufetch/pkg/auth"
	"boorufetch/pkg/config"
	"boorufetch/pkg/fetcher"
	"boorufetch/pkg/logger"
	"boorufetch/pkg/taglist"
	"boorufetch/pkg/ui"
	"boorufetch/pkg/ui/tui"
)

var (
	// Fetch command flags
	outputDir       string
	baseURL         string
	concurrent      int
	rateLimit       int
	accountName     string
	maxRetries      int
	downloadTimeout int
	tagListFile     string
	rating          string
	fetchLimit      int
	onlyInfo        bool
	useTUI          bool
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch <tag>...",
	Short: "Download all posts matching a tag search",
	Long: `Download every post matching one or more tag searches, together with
each post's tag list and full metadata record.

Tags are passed through to the board verbatim, so compound searches work:

  boorufetch fetch "landscape rating:general"

Credentials are optional; without them the board serves anonymous traffic at
a lower rate. To store credentials, run 'boorufetch auth login'.

A run is resumable: posts already on disk are detected and never downloaded
again, so interrupting and re-running a fetch is always safe.`,
	Example: `  # Download all posts for a tag
  boorufetch fetch landscape

  # Download to a specific directory with more workers
  boorufetch fetch landscape --output ./archive --concurrent 8

  # Restrict to one rating and cap the count
  boorufetch fetch landscape --rating g --limit 500

  # Batch mode from a tag list file
  boorufetch fetch --tag-list ./inputs/tags.txt

  # Metadata only, no asset files
  boorufetch fetch landscape --only-info`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		runFetch(cmd, args)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	// Local flags for fetch command
	fetchCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory for downloads (default: ./outputs)")
	fetchCmd.Flags().StringVar(&baseURL, "base-url", "", "board URL (default: https://danbooru.donmai.us)")
	fetchCmd.Flags().IntVar(&concurrent, "concurrent", 4, "number of concurrent downloads")
	fetchCmd.Flags().IntVar(&rateLimit, "rate-limit", 60, "requests per minute")
	fetchCmd.Flags().StringVarP(&accountName, "account", "a", "", "use specific stored account")
	fetchCmd.Flags().IntVar(&maxRetries, "max-retries", 5, "maximum number of retry attempts per asset")
	fetchCmd.Flags().IntVar(&downloadTimeout, "download-timeout", 60, "download timeout in seconds")
	fetchCmd.Flags().StringVarP(&tagListFile, "tag-list", "t", "", "file with one tag search per line")
	fetchCmd.Flags().StringVar(&rating, "rating", "", "restrict to one rating (g, s, q, e)")
	fetchCmd.Flags().IntVar(&fetchLimit, "limit", -1, "maximum posts per tag (default: everything new)")
	fetchCmd.Flags().BoolVar(&onlyInfo, "only-info", false, "save tag lists and metadata without downloading assets")
	fetchCmd.Flags().BoolVar(&useTUI, "tui", false, "use interactive terminal UI with real-time progress")
}

func runFetch(cmd *cobra.Command, args []string) {
	entries := collectEntries(args)
	if len(entries) == 0 {
		ui.PrintError("No tags given", "pass tags as arguments or use --tag-list")
		os.Exit(1)
	}

	// Build flags map from command line
	flags := make(map[string]interface{})
	if baseURL != "" {
		flags["base-url"] = baseURL
	}
	if outputDir != "" {
		flags["output"] = outputDir
	}
	if concurrent != 4 {
		flags["concurrent"] = concurrent
	}
	if rateLimit != 60 {
		flags["requests-per-minute"] = rateLimit
	}
	if downloadTimeout != 60 {
		flags["download-timeout"] = downloadTimeout
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}

	// Load configuration
	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}
	if maxRetries != 5 {
		cfg.RateLimit.MaxRetries = maxRetries
	}

	// Initialize logger
	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logger", err.Error())
		os.Exit(1)
	}
	logger.WithField("version", version).Info("boorufetch starting")

	resolveCredentials(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := fetcher.FetchOptions{
		Rating:   rating,
		Limit:    fetchLimit,
		OnlyInfo: onlyInfo,
	}

	f, err := fetcher.New(cfg)
	if err != nil {
		ui.PrintError("Failed to initialize fetcher", err.Error())
		os.Exit(1)
	}

	if err := f.VerifyCredentials(ctx); err != nil {
		logger.WithError(err).Error("Credential verification failed")
		ui.PrintError("Credential verification failed", err.Error())
		os.Exit(1)
	}

	if useTUI {
		runWithTUI(ctx, f, entries, opts)
		return
	}

	ui.PrintHighlight("[STARTING ACQUISITION RUN]")

	f.SetEvents(newConsoleEvents())
	if _, err := f.FetchList(ctx, entries, opts); err != nil {
		logger.WithError(err).Error("Acquisition run failed")
		ui.PrintError("ACQUISITION FAILED", err.Error())
		os.Exit(1)
	}

	logger.Info("Acquisition run completed successfully")
	ui.PrintSuccess("[ACQUISITION COMPLETED SUCCESSFULLY]")
}

// runWithTUI drives the fetch from a goroutine while the terminal UI owns
// the main thread.
func runWithTUI(ctx context.Context, f *fetcher.Fetcher, entries []taglist.Entry, opts fetcher.FetchOptions) {
	terminal := tui.New()
	f.SetEvents(&tuiEvents{terminal: terminal})

	fetchDone := make(chan error, 1)
	go func() {
		_, err := f.FetchList(ctx, entries, opts)
		fetchDone <- err
	}()

	tuiDone := make(chan error, 1)
	go func() {
		tuiDone <- terminal.Start()
	}()

	select {
	case err := <-fetchDone:
		terminal.Stop()
		<-tuiDone
		if err != nil {
			logger.WithError(err).Error("Acquisition run failed")
			os.Exit(1)
		}
	case err := <-tuiDone:
		if err != nil {
			logger.WithError(err).Error("TUI failed")
			os.Exit(1)
		}
	}

	logger.Info("Acquisition run completed successfully")
}

// collectEntries merges tag arguments and the tag list file. Arguments may
// carry the same leading asterisk the file format uses.
func collectEntries(args []string) []taglist.Entry {
	var entries []taglist.Entry

	for _, arg := range args {
		tag := strings.TrimSpace(arg)
		if tag == "" {
			continue
		}
		entry := taglist.Entry{Tag: tag}
		if strings.HasPrefix(tag, "*") {
			entry.Tag = strings.TrimSpace(strings.TrimPrefix(tag, "*"))
			entry.OnlyInfo = true
			if entry.Tag == "" {
				continue
			}
		}
		entries = append(entries, entry)
	}

	if tagListFile != "" {
		fromFile, err := taglist.Load(tagListFile)
		if err != nil {
			ui.PrintError("Failed to read tag list", err.Error())
			os.Exit(1)
		}
		entries = append(entries, fromFile...)
	}

	return entries
}

// resolveCredentials fills the board login from the credential store when the
// config does not already carry one. Missing credentials are not fatal.
func resolveCredentials(cfg *config.Config) {
	credManager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	var account *auth.Account

	if accountName != "" {
		account, err = credManager.Retrieve(accountName)
		if err != nil {
			ui.PrintError("Account not found", accountName)
			ui.PrintInfo("Available accounts", "Use 'boorufetch auth list' to see stored accounts")
			os.Exit(1)
		}
	} else if cfg.Booru.Username != "" && cfg.Booru.APIKey != "" {
		logger.Info("Using credentials from configuration")
	} else {
		account, err = credManager.RetrieveDefault()
		if err != nil {
			logger.Info("No stored credentials, fetching anonymously")
			fmt.Println("\nTo store credentials securely, run:")
			fmt.Println("  boorufetch auth login")
			fmt.Println("\nYou can also set environment variables:")
			fmt.Println("  export BOORUFETCH_USERNAME=your_username")
			fmt.Println("  export BOORUFETCH_API_KEY=your_api_key")
			return
		}
	}

	if account != nil {
		cfg.Booru.Username = account.Username
		cfg.Booru.APIKey = account.APIKey
		logger.WithField("account", account.Username).Info("Using stored credentials")
		ui.PrintInfo("Using account", account.Username)
	}
}

// Make fetch the default command when no subcommand is specified
func init() {
	origRunE := rootCmd.RunE
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		if origRunE != nil {
			return origRunE(cmd, args)
		}
		if len(args) > 0 && !isKnownCommand(args[0]) {
			// First argument is not a known command, treat it as a tag
			return fetchCmd.RunE(fetchCmd, args)
		}
		return cmd.Help()
	}

	rootCmd.Args = cobra.ArbitraryArgs
}

func isKnownCommand(arg string) bool {
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == arg || cmd.HasAlias(arg) {
			return true
		}
	}
	return false
}
