package program

import (
	"fmt"
	"math/rand"
	"strconv"

	"github.com/viant/insitu/comm"
	"github.com/viant/insitu/runtime/puppet"
	"go.uber.org/zap"
)

const (
	defaultCount      = 50
	defaultIterations = 3
)

// Simulation implements "simulation [N [ITER]]". Every iteration fills N
// pseudo-random floats seeded by the rank, reduces their sum over the
// world, publishes "t" and "data" and yields.
func Simulation(env *puppet.Env) error {
	count, iterations, err := simulationArgs(env.Args())
	if err != nil {
		return err
	}
	world := env.World()
	rank := 0
	if world != nil {
		rank = world.Rank()
	}
	nm := env.NameMap()
	rng := rand.New(rand.NewSource(int64(rank) + 1))
	if env.StopRequested() {
		return nil
	}
	for t := 0; t < iterations; t++ {
		data := make([]float64, count)
		sum := 0.0
		for i := range data {
			data[i] = rng.Float64()
			sum += data[i]
		}
		total := sum
		if world != nil {
			if total, err = comm.AllreduceFloat64(env.Context(), world, sum); err != nil {
				return fmt.Errorf("failed to reduce iteration %d: %w", t, err)
			}
		}
		env.Logger().Debug("simulation", zap.Int("t", t), zap.Float64("sum", sum))
		if rank == 0 {
			env.Logger().Info("simulation", zap.Int("t", t), zap.Float64("total", total))
		}
		if err = nm.PublishInt("t", int64(t)); err != nil {
			return err
		}
		if err = nm.PublishFloats("data", data); err != nil {
			return err
		}
		if !env.Yield() {
			return nil
		}
	}
	return nil
}

func simulationArgs(args []string) (int, int, error) {
	count, iterations := defaultCount, defaultIterations
	var err error
	if len(args) > 0 {
		if count, err = strconv.Atoi(args[0]); err != nil || count < 0 {
			return 0, 0, fmt.Errorf("simulation: invalid count %q: %w", args[0], ErrUsage)
		}
	}
	if len(args) > 1 {
		if iterations, err = strconv.Atoi(args[1]); err != nil || iterations < 0 {
			return 0, 0, fmt.Errorf("simulation: invalid iterations %q: %w", args[1], ErrUsage)
		}
	}
	return count, iterations, nil
}
