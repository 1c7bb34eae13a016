package client

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cmdUtil "github.com/syedmoizurrehman/DistributedKVStore/cmd/util"
	"github.com/syedmoizurrehman/DistributedKVStore/ring/node"
)

var (
	perfCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for the ring",
		Long:    "Run a threaded write/read benchmark against the coordinator and report latency statistics.",
		PreRunE: processPerfConfig,
		RunE:    runPerf,
	}
	perfKeyPrefix  = "__perf"
	perfNumThreads = 10
	perfOpsPerT    = 100
	perfKeySpread  = 100
	perfCSVPath    = ""
)

func init() {
	// add flags
	key := "threads"
	perfCmd.Flags().Int(key, 10, cmdUtil.WrapString("Number of threads to use for the benchmark"))
	key = "ops"
	perfCmd.Flags().Int(key, 100, cmdUtil.WrapString("Operations per thread and benchmark"))
	key = "keys"
	perfCmd.Flags().Int(key, 100, cmdUtil.WrapString("How many different keys to use for the tests"))
	key = "csv"
	perfCmd.Flags().String(key, "", cmdUtil.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := cmdUtil.BindCommandFlags(cmd); err != nil {
		return err
	}

	perfNumThreads = viper.GetInt("threads")
	perfOpsPerT = viper.GetInt("ops")
	perfKeySpread = viper.GetInt("keys")
	perfCSVPath = viper.GetString("csv")
	return nil
}

func runPerf(_ *cobra.Command, _ []string) error {
	fmt.Println("Performance testing tool for the ring")
	fmt.Println(clientConfig.String())
	fmt.Printf("Threads: %d, ops/thread: %d, key spread: %d\n\n", perfNumThreads, perfOpsPerT, perfKeySpread)

	writeTimer := gometrics.NewTimer()
	readTimer := gometrics.NewTimer()

	// One client per thread; the transport holds no shared connection state.
	runBench := func(timer gometrics.Timer, op func(c *node.Client, i int) error) error {
		var wg sync.WaitGroup
		errCh := make(chan error, perfNumThreads)

		for t := 0; t < perfNumThreads; t++ {
			c, err := newClient()
			if err != nil {
				return err
			}

			wg.Add(1)
			go func(offset int) {
				defer wg.Done()
				for i := 0; i < perfOpsPerT; i++ {
					start := time.Now()
					if err := op(c, offset+i); err != nil {
						errCh <- err
						return
					}
					timer.UpdateSince(start)
				}
			}(t * perfOpsPerT)
		}

		wg.Wait()
		select {
		case err := <-errCh:
			return err
		default:
			return nil
		}
	}

	if err := runBench(writeTimer, func(c *node.Client, i int) error {
		key := perfKey(i)
		return c.Write(key, "benchmark-value-"+strconv.Itoa(i))
	}); err != nil {
		return fmt.Errorf("write benchmark failed: %v", err)
	}

	if err := runBench(readTimer, func(c *node.Client, i int) error {
		_, _, err := c.Read(perfKey(i))
		return err
	}); err != nil {
		return fmt.Errorf("read benchmark failed: %v", err)
	}

	printTimer("write", writeTimer)
	printTimer("read", readTimer)

	if perfCSVPath != "" {
		if err := saveCSV(perfCSVPath, writeTimer, readTimer); err != nil {
			return err
		}
		fmt.Printf("Results saved to %s\n", perfCSVPath)
	}
	return nil
}

func perfKey(i int) string {
	return perfKeyPrefix + "-" + strconv.Itoa(i%perfKeySpread)
}

func printTimer(name string, t gometrics.Timer) {
	ms := func(ns float64) float64 { return ns / float64(time.Millisecond) }
	fmt.Printf("%-6s count=%d mean=%.2fms p95=%.2fms p99=%.2fms max=%.2fms\n",
		name, t.Count(), ms(t.Mean()), ms(t.Percentile(0.95)), ms(t.Percentile(0.99)), ms(float64(t.Max())))
}

func saveCSV(path string, writeTimer, readTimer gometrics.Timer) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"benchmark", "count", "mean_ms", "p95_ms", "p99_ms", "max_ms"}); err != nil {
		return err
	}

	ms := func(ns float64) float64 { return ns / float64(time.Millisecond) }
	row := func(name string, t gometrics.Timer) []string {
		return []string{
			name,
			strconv.FormatInt(t.Count(), 10),
			strconv.FormatFloat(ms(t.Mean()), 'f', 3, 64),
			strconv.FormatFloat(ms(t.Percentile(0.95)), 'f', 3, 64),
			strconv.FormatFloat(ms(t.Percentile(0.99)), 'f', 3, 64),
			strconv.FormatFloat(ms(float64(t.Max())), 'f', 3, 64),
		}
	}

	if err := w.Write(row("write", writeTimer)); err != nil {
		return err
	}
	return w.Write(row("read", readTimer))
}
