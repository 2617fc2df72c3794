package mesos

// CommandInfo describes a task that runs a command directly on the agent.
type CommandInfo struct {
	Value       string
	Arguments   []string
	Environment map[string]string
}

// ContainerInfo describes a task that runs inside a container image, as an
// alternative to the command-spec form.
type ContainerInfo struct {
	Image   string
	Volumes []string
}

// TaskDescriptor is a caller-owned, pure value describing work a framework
// wants launched. It carries either a Command or a Container, never both.
type TaskDescriptor struct {
	Name      string
	Resources []Resource
	Command   *CommandInfo
	Container *ContainerInfo
}

// ResourceNames returns the distinct resource names this descriptor
// requires, for offer-matching purposes.
func (d TaskDescriptor) ResourceNames() []string {
	return Names(d.Resources)
}

// TaskInfo is produced by pairing a TaskDescriptor with the offer that will
// carry it; it is what actually gets launched against the master.
type TaskInfo struct {
	Name      string
	TaskID    TaskID
	SlaveID   SlaveID
	Resources []Resource
	Command   *CommandInfo
	Container *ContainerInfo
}
