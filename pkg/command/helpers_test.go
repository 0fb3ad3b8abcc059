package command

import "fmt"

// journal is the test context: every command appends what it did.
type journal struct {
	ops   []string
	value int
}

type step struct {
	name        string
	delta       int
	failAllow   bool
	failExecute bool
	failUndo    bool
}

func (s *step) Allow(j *journal) Result {
	j.ops = append(j.ops, "allow:"+s.name)
	if s.failAllow {
		return Failedf("%s not allowed", s.name)
	}
	return OK()
}

func (s *step) Execute(j *journal) Result {
	j.ops = append(j.ops, "execute:"+s.name)
	if s.failExecute {
		return Failedf("%s failed", s.name)
	}
	j.value += s.delta
	return OK()
}

func (s *step) Undo(j *journal) Result {
	j.ops = append(j.ops, "undo:"+s.name)
	if s.failUndo {
		return Failedf("%s undo failed", s.name)
	}
	j.value -= s.delta
	return OK()
}

func newStep(name string, delta int) *step {
	return &step{name: name, delta: delta}
}

func only(ops []string, prefix string) []string {
	var out []string
	for _, op := range ops {
		if len(op) > len(prefix) && op[:len(prefix)] == prefix {
			out = append(out, op)
		}
	}
	return out
}

func names(prefix string, steps ...string) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = fmt.Sprintf("%s:%s", prefix, s)
	}
	return out
}
