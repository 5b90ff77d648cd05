package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arsalan924/trajlens/internal/api"
	"github.com/arsalan924/trajlens/internal/store"
	"github.com/arsalan924/trajlens/internal/trajectory"
	"github.com/arsalan924/trajlens/internal/viewer"
	"github.com/arsalan924/trajlens/pkg/types"
	"github.com/arsalan924/trajlens/tui"
)

var (
	trajDir  string
	apiPort  int
	showDemo bool
	debug    bool

	// view command flags
	viewAddr string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "trajlens",
		Short: "Agent trajectory viewer",
		Long:  `Serve, browse and inspect agent trajectory (.traj) files.`,
	}
	rootCmd.PersistentFlags().StringVar(&trajDir, "dir", ".", "Trajectory directory")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	// serve command
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the trajectory API server",
		RunE:  runServe,
	}
	serveCmd.Flags().IntVar(&apiPort, "api-port", 8009, "API server port")
	serveCmd.Flags().BoolVar(&showDemo, "show-demo", false, "Mark demo messages in rendered output")

	// view command
	viewCmd := &cobra.Command{
		Use:   "view",
		Short: "Browse trajectories in the terminal",
		RunE:  runView,
	}
	viewCmd.Flags().StringVar(&viewAddr, "connect", "", "Browse a running server (host:port) instead of a local directory")
	viewCmd.Flags().BoolVar(&showDemo, "show-demo", false, "Mark demo messages in rendered output")

	// list command
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List trajectory files",
		RunE:  runList,
	}

	// stats command
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show collection statistics",
		RunE:  runStats,
	}

	// render command
	renderCmd := &cobra.Command{
		Use:   "render <name>",
		Short: "Render one trajectory to stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  runRender,
	}
	renderCmd.Flags().BoolVar(&showDemo, "show-demo", false, "Mark demo messages in rendered output")

	rootCmd.AddCommand(serveCmd, viewCmd, listCmd, statsCmd, renderCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true
	return cfg.Build()
}

func newStore(logger *zap.Logger) (*store.Store, error) {
	dir, err := filepath.Abs(trajDir)
	if err != nil {
		return nil, fmt.Errorf("resolve dir: %w", err)
	}
	return store.New(dir, logger)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	config := types.DefaultConfig()
	config.TrajDir = trajDir
	config.APIPort = apiPort
	config.ShowDemo = showDemo
	config.Debug = debug
	config.Normalize()

	server, err := api.NewServer(config, logger)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	fmt.Printf("trajlens serving %s on http://%s\n", config.TrajDir, server.Addr())
	fmt.Println("Press Ctrl+C to stop...")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nShutting down...")
		server.Stop()
	}()

	return server.Start()
}

func runView(cmd *cobra.Command, args []string) error {
	opts := trajectory.RenderOptions{MarkDemo: showDemo}

	if viewAddr != "" {
		return tui.Run(viewer.NewHTTPSource(viewAddr), opts)
	}

	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	st, err := newStore(logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	return tui.Run(st, opts)
}

func runList(cmd *cobra.Command, args []string) error {
	logger := zap.NewNop()
	st, err := newStore(logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	files, err := st.List()
	if err != nil {
		return fmt.Errorf("list trajectories: %w", err)
	}

	if label := st.Label(); label != "" {
		fmt.Printf("%s (%d files)\n", label, len(files))
	}
	for _, name := range files {
		doc, err := st.Load(name)
		if err != nil {
			fmt.Printf("%-40s  (unreadable)\n", name)
			continue
		}
		exit := "-"
		if doc.Info != nil && doc.Info.ExitStatus != "" {
			exit = doc.Info.ExitStatus
		}
		fmt.Printf("%-40s  %4d steps  %s\n", name, len(doc.Trajectory), exit)
	}
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	logger := zap.NewNop()
	st, err := newStore(logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	stats, err := st.Stats()
	if err != nil {
		return fmt.Errorf("collect stats: %w", err)
	}

	fmt.Printf("Trajectories: %d\n", stats.Trajectories)
	if len(stats.ByExitStatus) > 0 {
		fmt.Println("Exit status:")
		statuses := make([]string, 0, len(stats.ByExitStatus))
		for status := range stats.ByExitStatus {
			statuses = append(statuses, status)
		}
		sort.Strings(statuses)
		for _, status := range statuses {
			fmt.Printf("  %-20s %d\n", status, stats.ByExitStatus[status])
		}
	}
	if stats.APICallsSampled > 0 {
		fmt.Printf("Avg API calls: %.1f (over %d files)\n", stats.AvgAPICalls, stats.APICallsSampled)
	}
	return nil
}

func runRender(cmd *cobra.Command, args []string) error {
	name := args[0]
	logger := zap.NewNop()
	st, err := newStore(logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	doc, err := st.Load(name)
	if err != nil {
		return fmt.Errorf("load %s: %w", name, err)
	}

	rendered := trajectory.RenderTrajectory(doc, trajectory.RenderOptions{MarkDemo: showDemo})
	title := strings.TrimSuffix(name, filepath.Ext(name))
	return viewer.WriteText(os.Stdout, title, rendered)
}
