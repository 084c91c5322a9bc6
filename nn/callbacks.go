package nn

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/YuminosukeSato/denseflow/pkg/errors"
	"github.com/YuminosukeSato/denseflow/pkg/log"
)

// Stage tells a callback where in the epoch it is being called.
type Stage int

const (
	// BeforeEpoch runs before the first batch of an epoch. Logs is empty.
	BeforeEpoch Stage = iota
	// AfterEpoch runs after validation. Logs holds the epoch results.
	AfterEpoch
)

// CallbackEnv is the state handed to callbacks during Fit.
type CallbackEnv struct {
	Model     *Sequential
	Stage     Stage
	Epoch     int // zero-based
	BeginTime time.Time
	EndTime   time.Time

	// Logs holds loss and metric values for the finished epoch, with
	// validation results prefixed by "val_".
	Logs map[string]float64

	// StopTraining ends Fit after the current stage when set.
	StopTraining bool
}

// Callback is called twice per epoch, once per Stage.
type Callback func(env *CallbackEnv) error

// ProgressLogger logs the epoch results every period epochs.
func ProgressLogger(logger log.Logger, period int) Callback {
	if period < 1 {
		period = 1
	}
	return func(env *CallbackEnv) error {
		if env.Stage != AfterEpoch || (env.Epoch+1)%period != 0 {
			return nil
		}
		fields := []any{
			log.EpochKey, env.Epoch + 1,
			log.DurationMsKey, env.EndTime.Sub(env.BeginTime).Milliseconds(),
		}
		names := make([]string, 0, len(env.Logs))
		for name := range env.Logs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			key := name
			switch name {
			case "loss":
				key = log.LossKey
			case "accuracy":
				key = log.AccuracyKey
			}
			fields = append(fields, key, env.Logs[name])
		}
		logger.Info("Epoch finished", fields...)
		return nil
	}
}

// RecordHistory appends every epoch's results to history.
func RecordHistory(history *History) Callback {
	return func(env *CallbackEnv) error {
		if env.Stage == AfterEpoch {
			history.record(env.Epoch, env.Logs)
		}
		return nil
	}
}

// EarlyStopping stops training once monitor has not improved for patience
// epochs. minimize selects the direction of improvement.
func EarlyStopping(monitor string, patience int, minimize bool) Callback {
	best := math.Inf(1)
	if !minimize {
		best = math.Inf(-1)
	}
	bestEpoch := 0
	wait := 0

	return func(env *CallbackEnv) error {
		if env.Stage != AfterEpoch {
			return nil
		}
		value, ok := env.Logs[monitor]
		if !ok {
			return nil
		}
		improved := value > best
		if minimize {
			improved = value < best
		}
		if improved {
			best, bestEpoch, wait = value, env.Epoch, 0
			return nil
		}
		wait++
		if wait >= patience {
			errors.Warn(errors.NewConvergenceWarning("EarlyStopping", env.Epoch+1,
				fmt.Sprintf("%s has not improved for %d epochs, best %g at epoch %d", monitor, wait, best, bestEpoch+1)))
			env.StopTraining = true
		}
		return nil
	}
}

// TimeLimit stops training at the first epoch boundary after d has
// elapsed since the first call.
func TimeLimit(d time.Duration) Callback {
	var start time.Time
	return func(env *CallbackEnv) error {
		if start.IsZero() {
			start = time.Now()
		}
		if time.Since(start) > d {
			errors.Warn(errors.NewConvergenceWarning("TimeLimit", env.Epoch+1, "time limit of "+d.String()+" reached"))
			env.StopTraining = true
		}
		return nil
	}
}

// LearningRateScheduler sets the optimizer learning rate before every
// epoch to schedule(epoch, currentLR).
func LearningRateScheduler(schedule func(epoch int, lr float64) float64) Callback {
	return func(env *CallbackEnv) error {
		if env.Stage != BeforeEpoch || env.Model == nil || env.Model.optimizer == nil {
			return nil
		}
		opt := env.Model.optimizer
		lr := schedule(env.Epoch, opt.LearningRate())
		if lr != opt.LearningRate() {
			log.GetLoggerWithName("nn.callbacks").Debug("Learning rate updated",
				log.EpochKey, env.Epoch+1,
				log.LearningRateKey, lr,
			)
		}
		opt.SetLearningRate(lr)
		return nil
	}
}

// CallbackList runs callbacks in order and tracks the stop flag.
type CallbackList struct {
	callbacks []Callback
	env       *CallbackEnv
}

// NewCallbackList creates a CallbackList.
func NewCallbackList(callbacks ...Callback) *CallbackList {
	return &CallbackList{
		callbacks: callbacks,
		env:       &CallbackEnv{},
	}
}

// BeforeEpoch runs every callback at the start of epoch.
func (cl *CallbackList) BeforeEpoch(epoch int, m *Sequential) error {
	cl.env.Stage = BeforeEpoch
	cl.env.Epoch = epoch
	cl.env.Model = m
	cl.env.BeginTime = time.Now()
	cl.env.EndTime = time.Time{}
	cl.env.Logs = nil
	return cl.run()
}

// AfterEpoch runs every callback with the epoch results.
func (cl *CallbackList) AfterEpoch(epoch int, m *Sequential, logs map[string]float64) error {
	cl.env.Stage = AfterEpoch
	cl.env.Epoch = epoch
	cl.env.Model = m
	cl.env.EndTime = time.Now()
	cl.env.Logs = logs
	return cl.run()
}

func (cl *CallbackList) run() error {
	for _, cb := range cl.callbacks {
		if err := cb(cl.env); err != nil {
			return err
		}
	}
	return nil
}

// ShouldStop reports whether a callback asked to stop.
func (cl *CallbackList) ShouldStop() bool {
	return cl.env.StopTraining
}
