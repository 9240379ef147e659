package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/okian/wardrobe/internal/simulate"
	"github.com/okian/wardrobe/pkg/logger"
)

const (
	defaultRunTimeout    = 10 * time.Minute
	defaultFootwearShare = 0.5
	logFilePermission    = 0o600
)

func main() {
	var (
		baseURL   = flag.String("url", "http://localhost:9080", "Base URL of the service")
		users     = flag.String("users", "", "Comma separated user ids to act as (default: the demo user)")
		rounds    = flag.Int("rounds", simulate.DefaultRounds, "Like/dislike rounds per user")
		likes     = flag.Int("likes", simulate.DefaultLikesPerRound, "Likes recorded per round")
		footwear  = flag.Float64("footwear", defaultFootwearShare, "Fraction of users that mostly like footwear")
		workers   = flag.Int("workers", 0, "Users simulated concurrently (default: all)")
		limit     = flag.Int("limit", simulate.DefaultLimit, "Recommendation limit configured on the server")
		seed      = flag.Uint64("seed", uint64(time.Now().UnixNano()), "Seed for product selection")
		timeout   = flag.Duration("timeout", simulate.DefaultTimeout, "HTTP request timeout")
		report    = flag.String("report", "", "Write a JSON report to this file")
		logFile   = flag.String("log", "", "Also write logs to this file")
		logFormat = flag.String("log-format", "text", "Log format: text or json")
		verbose   = flag.Bool("verbose", false, "Log every invariant violation")
	)
	flag.Parse()

	var w io.Writer = os.Stdout
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			os.Stderr.WriteString("failed to open log file: " + err.Error() + "\n")
			os.Exit(1)
		}
		defer f.Close()
		w = io.MultiWriter(os.Stdout, f)
	}
	if err := logger.InitWithWriter(w, *logFormat); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get().Named("simulate")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)
	defer cancel()

	cfg := &simulate.Config{
		BaseURL:       strings.TrimRight(*baseURL, "/"),
		Users:         splitUsers(*users),
		Rounds:        *rounds,
		LikesPerRound: *likes,
		FootwearShare: *footwear,
		Workers:       *workers,
		Limit:         *limit,
		Seed:          *seed,
		Timeout:       *timeout,
		ReportFile:    *report,
		Verbose:       *verbose,
	}

	stats, err := simulate.Run(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "simulation failed", logger.Error(err))
		os.Exit(1)
	}
	if len(stats.Violations) > 0 {
		log.Error(ctx, "invariant violations found", logger.Int("count", len(stats.Violations)))
		os.Exit(2)
	}
}

func splitUsers(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, u := range strings.Split(s, ",") {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}
