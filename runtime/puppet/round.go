package puppet

import (
	"context"
	"errors"
)

// Round advances every running puppet once, in order, and reports whether any
// of them is still running. Failures of individual puppets do not prevent the
// others from being stepped; they are joined into the returned error.
func Round(ctx context.Context, puppets ...*Puppet) (bool, error) {
	running := false
	var errs []error
	for _, p := range puppets {
		if !p.Running() {
			continue
		}
		still, err := p.Proceed(ctx)
		if err != nil {
			errs = append(errs, err)
		}
		running = running || still
	}
	return running, errors.Join(errs...)
}

// RunAll steps the puppets in rounds until none is running. When ctx is done
// the puppets left suspended are released.
func RunAll(ctx context.Context, puppets ...*Puppet) error {
	var errs []error
	for {
		running, err := Round(ctx, puppets...)
		if err != nil {
			errs = append(errs, err)
		}
		if !running {
			return errors.Join(errs...)
		}
		if err := ctx.Err(); err != nil {
			release(puppets)
			return errors.Join(append(errs, err)...)
		}
	}
}

// RunDriven steps the puppets in rounds for as long as the first one, the
// driver, runs. Once the driver stops, every other puppet is signalled to
// stop and stepped until it returns. A positive rounds bounds the number of
// rounds after which the driver itself is signalled. As with RunAll, a done
// ctx releases the puppets left suspended.
func RunDriven(ctx context.Context, rounds int, puppets ...*Puppet) error {
	if len(puppets) == 0 {
		return nil
	}
	driver := puppets[0]
	var errs []error
	for round := 1; ; round++ {
		if rounds > 0 && round > rounds {
			driver.SignalStop()
		}
		running := false
		for _, p := range puppets {
			if !p.Running() {
				continue
			}
			if p != driver && !driver.Running() {
				p.SignalStop()
			}
			still, err := p.Proceed(ctx)
			if err != nil {
				errs = append(errs, err)
			}
			running = running || still
		}
		if !running {
			return errors.Join(errs...)
		}
		if err := ctx.Err(); err != nil {
			release(puppets)
			return errors.Join(append(errs, err)...)
		}
	}
}

// release terminates the puppets still suspended at a yield.
func release(puppets []*Puppet) {
	for _, p := range puppets {
		p.release()
	}
}
