package driver

import (
	"context"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"

	"github.com/kessler-frost/mesos-scheduler/pkg/mesos"
)

func TestFake_StartStopJoin(t *testing.T) {
	f := NewFake(hclog.NewNullLogger())

	status := f.Start()
	require.True(t, status.IsRunning)
	require.True(t, f.IsRunning())

	done := make(chan Status, 1)
	go func() {
		done <- f.Join(context.Background())
	}()

	f.Stop(true)

	select {
	case status := <-done:
		require.False(t, status.IsRunning)
	case <-time.After(time.Second):
		t.Fatal("Join did not return after Stop")
	}
}

func TestFake_LaunchErrorDoesNotRecordTask(t *testing.T) {
	f := NewFake(hclog.NewNullLogger(), WithLaunchError(mesos.ErrDriverFailure))

	err := f.LaunchTasks([]mesos.OfferID{{Value: "o1"}}, []mesos.TaskInfo{{TaskID: mesos.TaskID{Value: "t1"}}})
	require.ErrorIs(t, err, mesos.ErrDriverFailure)
	require.Len(t, f.LaunchCalls(), 1)
	require.Empty(t, f.tasks)
}

func TestFake_DeclineRecordsCall(t *testing.T) {
	f := NewFake(hclog.NewNullLogger())
	require.NoError(t, f.DeclineOffer(mesos.OfferID{Value: "x"}, mesos.Filters{}))
	require.Equal(t, []DeclineCall{{OfferID: mesos.OfferID{Value: "x"}}}, f.DeclineCalls())
}
