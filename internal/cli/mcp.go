package cli

import (
	"github.com/mark3labs/mcp-go/server"
	entaggmcp "github.com/ppiankov/entagg/internal/mcp"
	"github.com/ppiankov/entagg/internal/pipeline"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the aggregation tool over MCP (stdio)",
	Long: `Start a Model Context Protocol server on stdin/stdout exposing the
aggregate_entities tool. Logs go to stderr or the configured log file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		logger, closer, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = closer.Close() }()

		s := entaggmcp.NewServer(version, pipeline.NewPipeline(cfg, logger), logger)

		logger.Info("starting MCP server", "transport", "stdio", "version", version)
		return server.ServeStdio(s)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
