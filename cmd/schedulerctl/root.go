package main

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
)

var (
	connectTimeout time.Duration
	launchTimeout  time.Duration
	killTimeout    time.Duration
	autoAdvance    time.Duration
	logLevel       string
)

var rootCmd = &cobra.Command{
	Use:   "schedulerctl",
	Short: "Drive a framework session against an in-process fake Mesos driver",
	Long: `schedulerctl exercises the session manager and task launcher end to end
against internal/driver.Fake, a deterministic stand-in for a real Mesos
SchedulerDriver.

Commands:
  schedulerctl demo    Connect, submit a batch of tasks, and watch them run
  schedulerctl submit  Connect, submit a batch of tasks, and print each outcome
  schedulerctl connect Connect and print the resulting framework registration`,
}

func init() {
	rootCmd.PersistentFlags().DurationVar(&connectTimeout, "connect-timeout", 5*time.Second, "connect() timeout")
	rootCmd.PersistentFlags().DurationVar(&launchTimeout, "launch-timeout", 10*time.Second, "per-task launch() timeout")
	rootCmd.PersistentFlags().DurationVar(&killTimeout, "kill-timeout", 5*time.Second, "kill() timeout")
	rootCmd.PersistentFlags().DurationVar(&autoAdvance, "auto-advance", 500*time.Millisecond, "delay between simulated Staging->Starting->Running transitions")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
}

func newLogger(name string) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:  name,
		Level: hclog.LevelFromString(logLevel),
	})
}

func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}
