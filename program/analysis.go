package program

import (
	"github.com/viant/insitu/runtime/puppet"
	"go.uber.org/zap"
)

// Analysis sums the "data" array published for step "t" and publishes the
// result as "sum". It runs once per step until stopped.
func Analysis(env *puppet.Env) error {
	nm := env.NameMap()
	if env.StopRequested() {
		return nil
	}
	for {
		t, err := nm.ReadInt("t")
		if err != nil {
			return err
		}
		data, err := nm.ReadFloats("data")
		if err != nil {
			return err
		}
		sum := 0.0
		for _, v := range data {
			sum += v
		}
		if err = nm.PublishFloat("sum", sum); err != nil {
			return err
		}
		env.Logger().Info("analysis", zap.Int64("t", t), zap.Float64("sum", sum))
		if !env.Yield() {
			return nil
		}
	}
}
