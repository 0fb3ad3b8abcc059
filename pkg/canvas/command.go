package canvas

import (
	"fmt"

	"github.com/romartin/kie-wb-common-sub000/pkg/command"
	"github.com/romartin/kie-wb-common-sub000/pkg/graph"
)

// Command is a command run against the canvas handler.
type Command = command.Command[*Handler]

// GraphCommand runs a graph command against the handler's graph and
// publishes a Change once it succeeded.
type GraphCommand struct {
	cmd graph.Command
}

// FromGraph adapts a graph command to the canvas context.
func FromGraph(cmd graph.Command) *GraphCommand {
	return &GraphCommand{cmd: cmd}
}

// Unwrap returns the wrapped graph command.
func (c *GraphCommand) Unwrap() graph.Command { return c.cmd }

func (c *GraphCommand) Allow(h *Handler) command.Result {
	return c.cmd.Allow(h.Graph())
}

func (c *GraphCommand) Execute(h *Handler) command.Result {
	r := c.cmd.Execute(h.Graph())
	if !r.IsError() {
		h.notify(Applied, c.cmd)
	}
	return r
}

func (c *GraphCommand) Undo(h *Handler) command.Result {
	r := c.cmd.Undo(h.Graph())
	if !r.IsError() {
		h.notify(Reverted, c.cmd)
	}
	return r
}

func (c *GraphCommand) String() string {
	return fmt.Sprintf("canvas(%T)", c.cmd)
}

// Flatten lists the graph commands held by cmd in execution order, walking
// composites, resolved deferred composites and graph wrappers. Commands that
// do not wrap a graph command are skipped.
func Flatten(cmd Command) []graph.Command {
	var out []graph.Command
	flatten(cmd, &out)
	return out
}

func flatten(cmd Command, out *[]graph.Command) {
	switch c := cmd.(type) {
	case *GraphCommand:
		*out = append(*out, c.cmd)
	case *command.Composite[*Handler]:
		children := c.Commands()
		if c.Direction() == command.Reverse {
			for i := len(children) - 1; i >= 0; i-- {
				flatten(children[i], out)
			}
			return
		}
		for _, child := range children {
			flatten(child, out)
		}
	case *command.Deferred[*Handler]:
		for _, child := range c.Resolved() {
			flatten(child, out)
		}
	}
}
