package settings

import "github.com/cockroachdb/errors"

// ErrInvalidMutation marks a mutation that can never be applied, no
// matter how often it is retried.
var ErrInvalidMutation = errors.New("settings: invalid mutation")

type Op uint8

const (
	OpPut Op = iota
	OpDelete
	OpReplace
)

func (o Op) String() string {
	switch o {
	case OpPut:
		return "put"
	case OpDelete:
		return "delete"
	case OpReplace:
		return "replace"
	default:
		return "unknown"
	}
}

func ParseOp(s string) (Op, error) {
	switch s {
	case "put":
		return OpPut, nil
	case "delete":
		return OpDelete, nil
	case "replace":
		return OpReplace, nil
	default:
		return 0, errors.Mark(errors.Newf("settings: unknown op %q", s), ErrInvalidMutation)
	}
}

// Mutation is one change request. Values is only used by OpReplace.
type Mutation struct {
	Op     Op
	Key    string
	Value  string
	Values map[string]string
}

func Put(key, value string) Mutation { return Mutation{Op: OpPut, Key: key, Value: value} }
func Delete(key string) Mutation     { return Mutation{Op: OpDelete, Key: key} }

func Replace(values map[string]string) Mutation {
	return Mutation{Op: OpReplace, Values: values}
}

func (m Mutation) Validate() error {
	switch m.Op {
	case OpPut, OpDelete:
		if m.Key == "" {
			return errors.Mark(errors.Newf("settings: %s requires a key", m.Op), ErrInvalidMutation)
		}
	case OpReplace:
	default:
		return errors.Mark(errors.Newf("settings: unknown op %d", m.Op), ErrInvalidMutation)
	}
	return nil
}
