package scheduler

import (
	"fmt"

	"github.com/viant/insitu/runtime/namemap"
	"github.com/viant/insitu/runtime/procmap"
	"github.com/vmihailenco/msgpack/v5"
)

// message tags on the scheduler communicator
const (
	tagAssign = 1
	tagStop   = 2
	tagDone   = 3
)

// failure codes carried by completions
const (
	codeFailed   = "failed"
	codeNotFound = "function_not_found"
)

// assignment tells a worker to run an item with the given workers.
type assignment struct {
	Item    Item            `msgpack:"item"`
	Groups  []procmap.Group `msgpack:"groups"`
	Workers []int           `msgpack:"workers"`
}

// completion reports one worker's outcome of an item.
type completion struct {
	ID     string        `msgpack:"id"`
	Worker int           `msgpack:"worker"`
	Value  namemap.Value `msgpack:"value"`
	Code   string        `msgpack:"code,omitempty"`
	Error  string        `msgpack:"error,omitempty"`
}

func encode(v interface{}) ([]byte, error) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %T: %w", v, err)
	}
	return data, nil
}

func decode(data []byte, v interface{}) error {
	if err := msgpack.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %T: %w", v, err)
	}
	return nil
}
