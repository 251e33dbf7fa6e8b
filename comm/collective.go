package comm

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
)

// Barrier blocks until every rank of c entered it. All ranks must call the
// same sequence of collectives.
func Barrier(ctx context.Context, c Communicator) error {
	if c.Rank() != 0 {
		if err := c.Send(ctx, 0, tagBarrier, nil); err != nil {
			return err
		}
		_, err := c.Recv(ctx, 0, tagBarrier)
		return err
	}
	for r := 1; r < c.Size(); r++ {
		if _, err := c.Recv(ctx, r, tagBarrier); err != nil {
			return err
		}
	}
	for r := 1; r < c.Size(); r++ {
		if err := c.Send(ctx, r, tagBarrier, nil); err != nil {
			return err
		}
	}
	return nil
}

// Broadcast returns root's payload on every rank.
func Broadcast(ctx context.Context, c Communicator, root int, payload []byte) ([]byte, error) {
	if root < 0 || root >= c.Size() {
		return nil, fmt.Errorf("broadcast root %d: %w", root, ErrInvalidRank)
	}
	if c.Rank() != root {
		msg, err := c.Recv(ctx, root, tagBcast)
		if err != nil {
			return nil, err
		}
		return msg.Payload, nil
	}
	for r := 0; r < c.Size(); r++ {
		if r == root {
			continue
		}
		if err := c.Send(ctx, r, tagBcast, payload); err != nil {
			return nil, err
		}
	}
	return payload, nil
}

// ReduceFloat64 sums value over all ranks. Root receives the sum, other ranks
// get their own value back.
func ReduceFloat64(ctx context.Context, c Communicator, root int, value float64) (float64, error) {
	if root < 0 || root >= c.Size() {
		return 0, fmt.Errorf("reduce root %d: %w", root, ErrInvalidRank)
	}
	if c.Rank() != root {
		if err := c.Send(ctx, root, tagReduce, encodeFloat(value)); err != nil {
			return 0, err
		}
		return value, nil
	}
	sum := value
	// receive in rank order so the sum is deterministic
	for r := 0; r < c.Size(); r++ {
		if r == root {
			continue
		}
		msg, err := c.Recv(ctx, r, tagReduce)
		if err != nil {
			return 0, err
		}
		v, err := decodeFloat(msg.Payload)
		if err != nil {
			return 0, err
		}
		sum += v
	}
	return sum, nil
}

// AllreduceFloat64 sums value over all ranks and returns the sum everywhere.
func AllreduceFloat64(ctx context.Context, c Communicator, value float64) (float64, error) {
	sum, err := ReduceFloat64(ctx, c, 0, value)
	if err != nil {
		return 0, err
	}
	var payload []byte
	if c.Rank() == 0 {
		payload = encodeFloat(sum)
	}
	payload, err = Broadcast(ctx, c, 0, payload)
	if err != nil {
		return 0, err
	}
	return decodeFloat(payload)
}

func encodeFloat(v float64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
	return buf
}

func decodeFloat(buf []byte) (float64, error) {
	if len(buf) != 8 {
		return 0, fmt.Errorf("comm: malformed float payload of %d bytes", len(buf))
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(buf)), nil
}
