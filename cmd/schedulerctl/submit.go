package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kessler-frost/mesos-scheduler/internal/config"
	"github.com/kessler-frost/mesos-scheduler/internal/driver"
	"github.com/kessler-frost/mesos-scheduler/internal/launcher"
	"github.com/kessler-frost/mesos-scheduler/internal/session"
	"github.com/kessler-frost/mesos-scheduler/pkg/mesos"
)

var submitTaskCount int

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Connect, submit a batch of tasks, and print each task's outcome",
	RunE:  runSubmit,
}

func init() {
	submitCmd.Flags().IntVar(&submitTaskCount, "tasks", 1, "number of tasks to submit")
	rootCmd.AddCommand(submitCmd)
}

func runSubmit(cmd *cobra.Command, args []string) error {
	logger := newLogger("schedulerctl")
	fake := driver.NewFake(logger, driver.WithAutoAdvance(autoAdvance))
	mgr := session.New(logger, fake, config.New(
		config.WithConnectTimeout(connectTimeout),
		config.WithLaunchTimeout(launchTimeout),
		config.WithKillTimeout(killTimeout),
	))

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout+launchTimeout+time.Second)
	defer cancel()

	connectResult := mgr.Connect()
	go func() {
		time.Sleep(50 * time.Millisecond)
		fake.SimulateRegistered(mesos.FrameworkID{Value: "schedulerctl-submit"}, mesos.MasterInfo{IP: "127.0.0.1", Port: 5050})
	}()
	if _, err := connectResult.Wait(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	descriptors := make([]mesos.TaskDescriptor, submitTaskCount)
	for i := range descriptors {
		descriptors[i] = mesos.TaskDescriptor{
			Name: fmt.Sprintf("task-%d", i+1),
			Resources: []mesos.Resource{
				{Name: "cpus", Type: mesos.ResourceScalar, Amount: 1},
			},
			Command: &mesos.CommandInfo{Value: "true"},
		}
	}

	l := launcher.New(logger, mgr)
	result := l.Submit(context.Background(), descriptors, nil)

	go offerDemoTasks(fake, len(descriptors))

	tasks, err := result.Wait(ctx)
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}

	for _, t := range tasks {
		fmt.Printf("launched %s as task %s on slave %s\n", t.Name, t.TaskID.Value, t.SlaveID.Value)
	}

	status := mgr.Terminate()
	_, _ = status.Wait(ctx)
	return nil
}
