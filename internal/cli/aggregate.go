package cli

import (
	"fmt"
	"time"

	"github.com/ppiankov/entagg/internal/model"
	"github.com/ppiankov/entagg/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	input              string
	models             []string
	properties         []string
	stream             bool
	recordsPath        string
	format             string
	outFile            string
	top                int
	permissiveBooleans bool
	timeout            time.Duration
	userAgent          string
	noCache            bool
	noRobots           bool
)

// aggregateCmd represents the aggregate command
var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Count property values across entity records",
	Long: `Aggregate loads a JSON array of entity records, coerces every property
value to its declared type, keeps the records matching the filters and
prints, for each property slug, its distinct values sorted by frequency.

Filters:
  --models      keep records whose model is any of the given names
  --properties  key:value1,value2; every key must match one of its values.
                Use null to match a null value.

Example:
  entagg aggregate -i entities.json -m person
  entagg aggregate -i entities.json -p year:2011,2004 --format json
  entagg aggregate -i https://example.com/export.json --records-path data.entities --stream`,
	Args: cobra.NoArgs,
	RunE: runAggregate,
}

func init() {
	rootCmd.AddCommand(aggregateCmd)
	defaults := model.DefaultConfig()

	// Input flags
	aggregateCmd.Flags().StringVarP(&input, "input", "i", defaults.Input.Path, "input JSON file or http(s) URL")
	aggregateCmd.Flags().BoolVar(&stream, "stream", false, "decode records incrementally instead of loading the whole document")
	aggregateCmd.Flags().StringVar(&recordsPath, "records-path", "", "dot-separated keys to the record array (default: document root)")

	// Filter flags
	aggregateCmd.Flags().StringSliceVarP(&models, "models", "m", nil, "model names to include (repeatable, comma-separated)")
	aggregateCmd.Flags().StringArrayVarP(&properties, "properties", "p", nil, "property filter key:value1,value2 (repeatable)")
	aggregateCmd.Flags().BoolVar(&permissiveBooleans, "permissive-booleans", false, "coerce any non-empty string to true")

	// Output flags
	aggregateCmd.Flags().StringVar(&format, "format", defaults.Output.Format, "output format: text, json, yaml, markdown")
	aggregateCmd.Flags().StringVarP(&outFile, "output", "o", "", "write output to a file instead of stdout")
	aggregateCmd.Flags().IntVar(&top, "top", 0, "keep the N most frequent values per slug (0 = all)")

	// HTTP flags
	aggregateCmd.Flags().DurationVar(&timeout, "timeout", defaults.HTTP.Timeout, "HTTP timeout for URL inputs")
	aggregateCmd.Flags().StringVar(&userAgent, "ua", defaults.HTTP.UserAgent, "HTTP User-Agent")
	aggregateCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh fetch)")
	aggregateCmd.Flags().BoolVar(&noRobots, "no-robots", false, "ignore robots.txt for URL inputs")
}

func runAggregate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyAggregateFlags(cmd, cfg)

	if cfg.Output.Top < 0 {
		return fmt.Errorf("--top must not be negative")
	}
	renderer, err := pipeline.NewRenderer(cfg.Output.Format, cfg.Output.Top)
	if err != nil {
		return err
	}

	logger, closer, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	p := pipeline.NewPipeline(cfg, logger)
	result, err := p.Aggregate(cmd.Context(), pipeline.RequestFromConfig(cfg, models, properties))
	if err != nil {
		return fmt.Errorf("aggregate failed: %w", err)
	}

	if outFile != "" {
		if err := renderer.RenderFile(outFile, result.Table); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		logger.Info("wrote output", "path", outFile, "format", cfg.Output.Format)
		return nil
	}

	if err := renderer.Render(cmd.OutOrStdout(), result.Table); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	return nil
}

// applyAggregateFlags overrides cfg with the flags set on the command line
func applyAggregateFlags(cmd *cobra.Command, cfg *model.Config) {
	flags := cmd.Flags()

	if flags.Changed("input") {
		cfg.Input.Path = input
	}
	if flags.Changed("stream") {
		cfg.Input.Stream = stream
	}
	if flags.Changed("records-path") {
		cfg.Input.RecordsPath = recordsPath
	}
	if flags.Changed("permissive-booleans") {
		cfg.Coercion.PermissiveBooleans = permissiveBooleans
	}
	if flags.Changed("format") {
		cfg.Output.Format = format
	}
	if flags.Changed("top") {
		cfg.Output.Top = top
	}
	if flags.Changed("timeout") {
		cfg.HTTP.Timeout = timeout
	}
	if flags.Changed("ua") {
		cfg.HTTP.UserAgent = userAgent
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if noRobots {
		cfg.HTTP.RespectRobots = false
	}
}
