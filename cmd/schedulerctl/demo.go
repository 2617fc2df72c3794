package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/kessler-frost/mesos-scheduler/internal/config"
	"github.com/kessler-frost/mesos-scheduler/internal/driver"
	"github.com/kessler-frost/mesos-scheduler/internal/eventbus"
	"github.com/kessler-frost/mesos-scheduler/internal/launcher"
	"github.com/kessler-frost/mesos-scheduler/internal/session"
	"github.com/kessler-frost/mesos-scheduler/internal/tui/watch"
	"github.com/kessler-frost/mesos-scheduler/pkg/mesos"
)

// taskNames is a concurrency-safe TaskID->name table, written once per
// launched task and read continuously by the watch view.
type taskNames struct {
	mu    sync.RWMutex
	names map[mesos.TaskID]string
}

func newTaskNames() *taskNames {
	return &taskNames{names: make(map[mesos.TaskID]string)}
}

func (t *taskNames) set(id mesos.TaskID, name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.names[id] = name
}

func (t *taskNames) lookup(id mesos.TaskID) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	name, ok := t.names[id]
	return name, ok
}

var demoTaskCount int

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Connect, submit a batch of demo tasks against synthetic offers, and watch them run",
	RunE:  runDemo,
}

func init() {
	demoCmd.Flags().IntVar(&demoTaskCount, "tasks", 3, "number of demo tasks to launch")
	rootCmd.AddCommand(demoCmd)
}

func runDemo(cmd *cobra.Command, args []string) error {
	logger := newLogger("schedulerctl")
	fake := driver.NewFake(logger, driver.WithAutoAdvance(autoAdvance))
	mgr := session.New(logger, fake, config.New(
		config.WithConnectTimeout(connectTimeout),
		config.WithLaunchTimeout(launchTimeout),
		config.WithKillTimeout(killTimeout),
	))

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout+time.Second)
	defer cancel()

	connectResult := mgr.Connect()
	go func() {
		time.Sleep(50 * time.Millisecond)
		fake.SimulateRegistered(mesos.FrameworkID{Value: "schedulerctl-demo"}, mesos.MasterInfo{IP: "127.0.0.1", Port: 5050})
	}()
	if _, err := connectResult.Wait(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	descriptors := make([]mesos.TaskDescriptor, demoTaskCount)
	for i := range descriptors {
		descriptors[i] = mesos.TaskDescriptor{
			Name: fmt.Sprintf("demo-task-%d", i+1),
			Resources: []mesos.Resource{
				{Name: "cpus", Type: mesos.ResourceScalar, Amount: 1},
				{Name: "mem", Type: mesos.ResourceScalar, Amount: 256},
			},
			Command: &mesos.CommandInfo{Value: "true"},
		}
	}

	l := launcher.New(logger, mgr)
	submitResult := l.Submit(context.Background(), descriptors, nil)

	go offerDemoTasks(fake, len(descriptors))

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	events := mgr.Events().Subscribe(watchCtx, eventbus.KindFilter(mesos.EventTaskEvent))

	names := newTaskNames()
	go func() {
		tasks, err := submitResult.Wait(context.Background())
		if err != nil {
			logger.Error("submit failed", "error", err)
			return
		}
		for _, t := range tasks {
			names.set(t.TaskID, t.Name)
		}
	}()

	program := tea.NewProgram(watch.New(events, names.lookup))
	_, err := program.Run()
	return err
}

// offerDemoTasks emits one synthetic offer per descriptor, each carrying
// enough resources to match any demo descriptor, on a distinct slave.
func offerDemoTasks(fake *driver.Fake, n int) {
	time.Sleep(100 * time.Millisecond)
	offers := make([]mesos.Offer, n)
	for i := range offers {
		offers[i] = mesos.Offer{
			OfferID: mesos.OfferID{Value: fmt.Sprintf("offer-%d", i+1)},
			SlaveID: mesos.SlaveID{Value: fmt.Sprintf("slave-%d", i+1)},
			Host:    fmt.Sprintf("10.0.0.%d", i+1),
			Resources: []mesos.Resource{
				{Name: "cpus", Type: mesos.ResourceScalar, Amount: 4},
				{Name: "mem", Type: mesos.ResourceScalar, Amount: 1024},
			},
		}
	}
	fake.SimulateOffers(offers...)
}
