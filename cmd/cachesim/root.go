package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/monitoring"
	"github.com/sarchlab/cachesim/simulation"
)

var (
	flagBlockSize        uint64
	flagCacheSize        uint64
	flagNumAccesses      uint64
	flagNumBlocks        uint64
	flagPrefetchDistance uint64
	flagHotProbability   float64
	flagPattern          string
	flagSeed             int64
	flagDBPath           string
	flagMonitor          bool
	flagMonitorPort      int
)

var rootCmd = &cobra.Command{
	Use:   "cachesim [ways...]",
	Short: "Simulate an N-way set-associative cache under different access patterns",
	Long: `cachesim drives a configurable address stream through a set-associative
cache with LRU replacement and sequential prefetch accounting. One report is
printed per requested associativity, and all reports are recorded to a
SQLite database. Failed configurations are reported and skipped; the
remaining configurations still run.`,
	Args: cobra.ArbitraryArgs,
	RunE: runSweep,

	SilenceUsage: true,
}

func init() {
	flags := rootCmd.Flags()
	flags.Uint64Var(&flagBlockSize, "block-size", 32,
		"elements per block")
	flags.Uint64Var(&flagCacheSize, "cache-size", 2048,
		"total cache capacity in elements")
	flags.Uint64Var(&flagNumAccesses, "num-accesses", 4096,
		"length of the access stream")
	flags.Uint64Var(&flagNumBlocks, "num-blocks", 0,
		"backing store size in blocks (0: num-accesses/block-size)")
	flags.Uint64Var(&flagPrefetchDistance, "prefetch-distance", 2,
		"successor blocks visited on each miss")
	flags.Float64Var(&flagHotProbability, "hot-probability", 0.5,
		"probability of drawing from the hot block range")
	flags.StringVar(&flagPattern, "pattern", simulation.PatternHotCold,
		"access pattern: sequential or hotcold")
	flags.Int64Var(&flagSeed, "seed", 1,
		"random seed for the hotcold pattern")
	flags.StringVar(&flagDBPath, "db", "",
		"database name for recorded results (default: generated)")
	flags.BoolVar(&flagMonitor, "monitor", false,
		"serve the reports over HTTP while the sweep runs")
	flags.IntVar(&flagMonitorPort, "monitor-port", 0,
		"port for the monitoring server (0: random)")
}

func runSweep(cmd *cobra.Command, args []string) error {
	applyEnvDefaults(cmd)

	ways, err := parseWays(args)
	if err != nil {
		return err
	}

	recorder := datarecording.New(flagDBPath)
	recorder.CreateTable("runs", simulation.Report{})

	var monitor *monitoring.Monitor
	if flagMonitor {
		monitor = monitoring.NewMonitor().WithPortNumber(flagMonitorPort)
		monitor.StartServer()
	}

	failed := 0

	for _, numWays := range ways {
		report, err := simulation.Run(simulation.Config{
			Pattern:          flagPattern,
			BlockSize:        flagBlockSize,
			CacheSize:        flagCacheSize,
			NumWays:          numWays,
			PrefetchDistance: flagPrefetchDistance,
			NumAccesses:      flagNumAccesses,
			NumBlocks:        flagNumBlocks,
			HotProbability:   flagHotProbability,
			Seed:             flagSeed,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "cachesim: %d-way %s run failed: %v\n",
				numWays, flagPattern, err)
			failed++

			continue
		}

		fmt.Println(report)
		fmt.Println()

		recorder.InsertData("runs", report)
		if monitor != nil {
			monitor.AddReport(report)
		}
	}

	recorder.Flush()

	if failed > 0 {
		return fmt.Errorf("%d of %d runs failed", failed, len(ways))
	}

	return nil
}

// applyEnvDefaults lets CACHESIM_* environment variables (possibly loaded
// from a .env file) stand in for flags the user did not pass.
func applyEnvDefaults(cmd *cobra.Command) {
	for _, name := range []string{"pattern", "db", "seed"} {
		key := "CACHESIM_" + toEnvSuffix(name)
		if value, ok := os.LookupEnv(key); ok && !cmd.Flags().Changed(name) {
			_ = cmd.Flags().Set(name, value)
		}
	}
}

func toEnvSuffix(flagName string) string {
	suffix := make([]byte, 0, len(flagName))
	for i := 0; i < len(flagName); i++ {
		c := flagName[i]
		if c == '-' {
			c = '_'
		}
		if 'a' <= c && c <= 'z' {
			c -= 'a' - 'A'
		}
		suffix = append(suffix, c)
	}

	return string(suffix)
}

func parseWays(args []string) ([]int, error) {
	if len(args) == 0 {
		return []int{2, 4, 8}, nil
	}

	ways := make([]int, 0, len(args))
	for _, arg := range args {
		numWays, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid way count %q", arg)
		}

		ways = append(ways, numWays)
	}

	return ways, nil
}
