package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"clipharvest/internal/export"
	"clipharvest/internal/history"
	"clipharvest/internal/httputil"
	"clipharvest/internal/media"
)

var (
	flagJSON   bool
	flagOutput string
)

var extractCmd = &cobra.Command{
	Use:   "extract [file|url]",
	Short: "Extract media asset URLs from a page's HTML source",
	Long: `Extract reads HTML source from a file, an https URL or stdin (when no
argument or "-" is given) and prints the ranked media assets it contains.`,
	Args: cobra.MaximumNArgs(1),
	RunE: extractRun,
}

func init() {
	extractCmd.Flags().BoolVarP(&flagJSON, "json", "j", false, "Print results as JSON")
	extractCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Write results to a .json, .csv, .yaml or .xlsx file")
}

func extractRun(cmd *cobra.Command, args []string) error {
	src := "-"
	if len(args) == 1 {
		src = args[0]
	}

	if flagOutput != "" {
		if _, err := export.FormatFromPath(flagOutput); err != nil {
			return err
		}
	}

	doc, err := readSource(cmd.Context(), src, cmd.InOrStdin())
	if err != nil {
		return err
	}
	logger.Debug("source loaded", zap.String("source", src), zap.Int("bytes", len(doc)))

	ex, err := newExtractor()
	if err != nil {
		return err
	}

	start := time.Now()
	rs, err := ex.Extract(doc)
	if err != nil {
		return fmt.Errorf("extracting: %w", err)
	}
	elapsed := time.Since(start)

	recordRun(cmd.Context(), len(doc), rs, elapsed)

	if flagOutput != "" {
		if err := export.Write(flagOutput, rs); err != nil {
			return fmt.Errorf("writing %s: %w", flagOutput, err)
		}
		logger.Info("results written", zap.String("path", flagOutput), zap.Int("count", rs.Len()))
	}

	out := cmd.OutOrStdout()
	if flagJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(export.NewDocument(rs))
	}

	styled := isTerminal(out)
	fmt.Fprintln(out, summaryLine(rs, styled))
	if rs.Len() > 0 {
		fmt.Fprintln(out, renderAssets(rs))
	}
	return nil
}

// readSource loads HTML from stdin ("-"), an https URL, or a file.
func readSource(ctx context.Context, src string, stdin io.Reader) (string, error) {
	limit := cfg.Server.MaxBodyBytes

	switch {
	case src == "-":
		data, err := io.ReadAll(io.LimitReader(stdin, limit))
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil

	case strings.HasPrefix(src, "https://") || strings.HasPrefix(src, "http://"):
		data, err := httputil.FetchPage(ctx, httputil.NewClient(), src, limit)
		if err != nil {
			return "", fmt.Errorf("fetching %s: %w", src, err)
		}
		return string(data), nil

	default:
		info, err := os.Stat(src)
		if err != nil {
			return "", fmt.Errorf("reading source: %w", err)
		}
		if info.Size() > limit {
			return "", fmt.Errorf("source %s is %d bytes, limit is %d", src, info.Size(), limit)
		}
		data, err := os.ReadFile(src)
		if err != nil {
			return "", fmt.Errorf("reading source: %w", err)
		}
		return string(data), nil
	}
}

// recordRun stores a CLI run in history. Failures are logged, not returned.
func recordRun(ctx context.Context, inputBytes int, rs *media.ResultSet, elapsed time.Duration) {
	store, err := openHistory()
	if err != nil {
		logger.Warn("history unavailable", zap.Error(err))
		return
	}
	if store == nil {
		return
	}
	defer store.Close()

	entry := history.Entry{
		Source:     history.SourceCLI,
		InputBytes: inputBytes,
		TotalFound: rs.TotalFound,
		Returned:   rs.Len(),
		DurationMS: elapsed.Milliseconds(),
	}
	if rs.Len() > 0 {
		entry.TopURL = rs.Assets[0].URL
	}
	if _, err := store.Record(ctx, entry); err != nil {
		logger.Warn("recording history failed", zap.Error(err))
	}
}
