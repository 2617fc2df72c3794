package launcher

import (
	"context"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"

	"github.com/kessler-frost/mesos-scheduler/internal/config"
	"github.com/kessler-frost/mesos-scheduler/internal/driver"
	"github.com/kessler-frost/mesos-scheduler/internal/session"
	"github.com/kessler-frost/mesos-scheduler/pkg/mesos"
)

func connected(t *testing.T) (*session.Manager, *driver.Fake) {
	t.Helper()
	fake := driver.NewFake(hclog.NewNullLogger())
	mgr := session.New(hclog.NewNullLogger(), fake, config.New(
		config.WithConnectTimeout(200*time.Millisecond),
		config.WithLaunchTimeout(200*time.Millisecond),
	))
	result := mgr.Connect()
	fake.SimulateRegistered(mesos.FrameworkID{Value: "fw"}, mesos.MasterInfo{})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := result.Wait(ctx)
	require.NoError(t, err)
	return mgr, fake
}

func descriptor(name string, resources ...string) mesos.TaskDescriptor {
	rs := make([]mesos.Resource, len(resources))
	for i, r := range resources {
		rs[i] = mesos.Resource{Name: r, Type: mesos.ResourceScalar, Amount: 1}
	}
	return mesos.TaskDescriptor{Name: name, Resources: rs}
}

func offer(id string, slave string, resources ...string) mesos.Offer {
	rs := make([]mesos.Resource, len(resources))
	for i, r := range resources {
		rs[i] = mesos.Resource{Name: r, Type: mesos.ResourceScalar, Amount: 1}
	}
	return mesos.Offer{
		OfferID:   mesos.OfferID{Value: id},
		SlaveID:   mesos.SlaveID{Value: slave},
		Resources: rs,
	}
}

func await(t *testing.T, r *session.Result[[]mesos.TaskInfo]) ([]mesos.TaskInfo, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return r.Wait(ctx)
}

func TestSubmit_SingleDescriptorSingleMatchingOfferResolves(t *testing.T) {
	mgr, fake := connected(t)
	l := New(hclog.NewNullLogger(), mgr)

	result := l.Submit(context.Background(), []mesos.TaskDescriptor{descriptor("web", "cpus")}, nil)
	fake.SimulateOffers(offer("o1", "s1", "cpus"))

	require.Eventually(t, func() bool {
		return len(fake.LaunchCalls()) == 1
	}, time.Second, 5*time.Millisecond)
	for _, call := range fake.LaunchCalls() {
		for _, task := range call.Tasks {
			fake.SimulateTaskState(task.TaskID, mesos.TaskRunning, "")
		}
	}

	infos, err := await(t, result)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	require.Equal(t, "web", infos[0].Name)
	require.Equal(t, mesos.SlaveID{Value: "s1"}, infos[0].SlaveID)
}

func TestSubmit_EveryOfferLaunchedOrDeclinedNeverBothNeither(t *testing.T) {
	mgr, fake := connected(t)
	l := New(hclog.NewNullLogger(), mgr)

	result := l.Submit(context.Background(), []mesos.TaskDescriptor{descriptor("web", "cpus")}, nil)
	fake.SimulateOffers(offer("o1", "s1", "cpus"), offer("o2", "s2", "cpus", "mem"))

	require.Eventually(t, func() bool {
		return len(fake.LaunchCalls()) == 1
	}, time.Second, 5*time.Millisecond)

	launched := map[string]bool{}
	for _, call := range fake.LaunchCalls() {
		for _, id := range call.OfferIDs {
			launched[id.Value] = true
		}
		for _, task := range call.Tasks {
			fake.SimulateTaskState(task.TaskID, mesos.TaskRunning, "")
		}
	}
	declined := map[string]bool{}
	for _, call := range fake.DeclineCalls() {
		declined[call.OfferID.Value] = true
	}

	require.True(t, launched["o1"] != declined["o1"])
	require.False(t, launched["o2"] && declined["o2"])
	require.True(t, launched["o2"] || declined["o2"])

	_, err := await(t, result)
	require.NoError(t, err)
}

func TestSubmit_IncompleteAssignmentDeclinesAndWaitsForNextBatch(t *testing.T) {
	mgr, fake := connected(t)
	l := New(hclog.NewNullLogger(), mgr)

	result := l.Submit(context.Background(), []mesos.TaskDescriptor{
		descriptor("web", "cpus"),
		descriptor("db", "disk"),
	}, nil)

	fake.SimulateOffers(offer("o1", "s1", "cpus"))
	require.Eventually(t, func() bool {
		return len(fake.DeclineCalls()) == 1
	}, time.Second, 5*time.Millisecond)
	require.Empty(t, fake.LaunchCalls())

	select {
	case <-result.Done():
		t.Fatal("submit resolved on an incomplete batch")
	case <-time.After(50 * time.Millisecond):
	}

	fake.SimulateOffers(offer("o2", "s1", "cpus"), offer("o3", "s2", "disk"))
	require.Eventually(t, func() bool {
		return len(fake.LaunchCalls()) == 1
	}, time.Second, 5*time.Millisecond)
	for _, call := range fake.LaunchCalls() {
		for _, task := range call.Tasks {
			fake.SimulateTaskState(task.TaskID, mesos.TaskRunning, "")
		}
	}

	infos, err := await(t, result)
	require.NoError(t, err)
	require.Len(t, infos, 2)
}

func TestSubmit_FilterRejectionDeclinesWholeBatch(t *testing.T) {
	mgr, fake := connected(t)
	l := New(hclog.NewNullLogger(), mgr)

	reject := Filter(func(Assignment) bool { return false })
	result := l.Submit(context.Background(), []mesos.TaskDescriptor{descriptor("web", "cpus")}, reject)

	fake.SimulateOffers(offer("o1", "s1", "cpus"))
	require.Eventually(t, func() bool {
		return len(fake.DeclineCalls()) == 1
	}, time.Second, 5*time.Millisecond)
	require.Empty(t, fake.LaunchCalls())

	select {
	case <-result.Done():
		t.Fatal("submit resolved despite a rejecting filter")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubmit_FilterPanicTreatedAsReject(t *testing.T) {
	mgr, fake := connected(t)
	l := New(hclog.NewNullLogger(), mgr)

	panics := Filter(func(Assignment) bool { panic("boom") })
	result := l.Submit(context.Background(), []mesos.TaskDescriptor{descriptor("web", "cpus")}, panics)

	fake.SimulateOffers(offer("o1", "s1", "cpus"))
	require.Eventually(t, func() bool {
		return len(fake.DeclineCalls()) == 1
	}, time.Second, 5*time.Millisecond)

	select {
	case <-result.Done():
		t.Fatal("submit resolved despite a panicking filter")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubmit_EmptyDescriptorsResolvesImmediately(t *testing.T) {
	mgr, _ := connected(t)
	l := New(hclog.NewNullLogger(), mgr)

	result := l.Submit(context.Background(), nil, nil)
	infos, err := await(t, result)
	require.NoError(t, err)
	require.Empty(t, infos)
}

func TestSubmit_EmptyOfferBatchIgnored(t *testing.T) {
	mgr, fake := connected(t)
	l := New(hclog.NewNullLogger(), mgr)

	result := l.Submit(context.Background(), []mesos.TaskDescriptor{descriptor("web", "cpus")}, nil)
	fake.SimulateOffers()

	select {
	case <-result.Done():
		t.Fatal("submit resolved on an empty offer batch")
	case <-time.After(50 * time.Millisecond):
	}
	require.Empty(t, fake.DeclineCalls())
}

func TestSubmit_SynchronousLaunchErrorLeavesResultPending(t *testing.T) {
	fake := driver.NewFake(hclog.NewNullLogger(), driver.WithLaunchError(mesos.ErrDriverFailure))
	mgr := session.New(hclog.NewNullLogger(), fake, config.New(
		config.WithConnectTimeout(200*time.Millisecond),
	))
	result := mgr.Connect()
	fake.SimulateRegistered(mesos.FrameworkID{Value: "fw"}, mesos.MasterInfo{})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := result.Wait(ctx)
	require.NoError(t, err)

	l := New(hclog.NewNullLogger(), mgr)
	submit := l.Submit(context.Background(), []mesos.TaskDescriptor{descriptor("web", "cpus")}, nil)

	fake.SimulateOffers(offer("o1", "s1", "cpus"))

	select {
	case <-submit.Done():
		t.Fatal("submit resolved despite a synchronous launch failure")
	case <-time.After(100 * time.Millisecond):
	}
}
