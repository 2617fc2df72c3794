package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kessler-frost/mesos-scheduler/internal/config"
	"github.com/kessler-frost/mesos-scheduler/internal/driver"
	"github.com/kessler-frost/mesos-scheduler/internal/session"
	"github.com/kessler-frost/mesos-scheduler/pkg/mesos"
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Connect to the fake driver and print the resulting registration",
	RunE:  runConnect,
}

func init() {
	rootCmd.AddCommand(connectCmd)
}

func runConnect(cmd *cobra.Command, args []string) error {
	logger := newLogger("schedulerctl")
	fake := driver.NewFake(logger)
	mgr := session.New(logger, fake, config.New(
		config.WithConnectTimeout(connectTimeout),
		config.WithLaunchTimeout(launchTimeout),
		config.WithKillTimeout(killTimeout),
	))

	result := mgr.Connect()

	go func() {
		time.Sleep(50 * time.Millisecond)
		fake.SimulateRegistered(mesos.FrameworkID{Value: "schedulerctl-demo"}, mesos.MasterInfo{IP: "127.0.0.1", Port: 5050})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout+time.Second)
	defer cancel()

	got, err := result.Wait(ctx)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	fmt.Printf("registered as framework %q against master %s:%d\n", got.FrameworkID.Value, got.MasterInfo.IP, got.MasterInfo.Port)
	status := mgr.Terminate()
	_, _ = status.Wait(ctx)
	return nil
}
