package nn

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/YuminosukeSato/denseflow/pkg/errors"
	"github.com/YuminosukeSato/denseflow/pkg/log"
)

func TestEarlyStopping(t *testing.T) {
	tests := []struct {
		name      string
		values    []float64
		patience  int
		minimize  bool
		stopAfter int // epoch index at which StopTraining is set, -1 for never
	}{
		{"improving", []float64{1.0, 0.9, 0.8, 0.7}, 2, true, -1},
		{"plateau", []float64{1.0, 0.9, 0.95, 0.92, 0.5}, 2, true, 3},
		{"maximize", []float64{0.5, 0.6, 0.55, 0.58}, 2, false, 3},
		{"patience one", []float64{0.5, 0.6}, 1, true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb := EarlyStopping("val_loss", tt.patience, tt.minimize)
			env := &CallbackEnv{Stage: AfterEpoch}
			stopped := -1
			for epoch, v := range tt.values {
				env.Epoch = epoch
				env.Logs = map[string]float64{"val_loss": v}
				if err := cb(env); err != nil {
					t.Fatal(err)
				}
				if env.StopTraining {
					stopped = epoch
					break
				}
			}
			if stopped != tt.stopAfter {
				t.Errorf("stopped at %d, want %d", stopped, tt.stopAfter)
			}
		})
	}
}

func TestStopCallbacksWarn(t *testing.T) {
	prev := log.GetLogger()
	logger, _ := log.NewTestLogger(log.LevelDebug)
	log.SetLogger(logger)
	defer log.SetLogger(prev)

	early := EarlyStopping("val_loss", 1, true)
	env := &CallbackEnv{Stage: AfterEpoch}
	for epoch, v := range []float64{0.5, 0.6} {
		env.Epoch = epoch
		env.Logs = map[string]float64{"val_loss": v}
		if err := early(env); err != nil {
			t.Fatal(err)
		}
	}
	if !env.StopTraining {
		t.Fatal("EarlyStopping did not stop training")
	}
	if !logger.ContainsMessage("EarlyStopping stopped after 2 epochs: val_loss has not improved for 1 epochs, best 0.5 at epoch 1") {
		t.Errorf("missing early stopping warning: %v", logger.CountMessages("EarlyStopping"))
	}

	limit := TimeLimit(0)
	env = &CallbackEnv{Stage: AfterEpoch, Epoch: 2}
	_ = limit(env)
	time.Sleep(time.Millisecond)
	_ = limit(env)
	if !env.StopTraining || !logger.ContainsMessage("TimeLimit stopped after 3 epochs: time limit of 0s reached") {
		t.Errorf("time limit stop=%v, warning missing", env.StopTraining)
	}
}

func TestEarlyStoppingIgnoresMissingMetric(t *testing.T) {
	cb := EarlyStopping("val_accuracy", 1, false)
	env := &CallbackEnv{Stage: AfterEpoch}
	for epoch := 0; epoch < 5; epoch++ {
		env.Epoch = epoch
		env.Logs = map[string]float64{"loss": 1}
		_ = cb(env)
	}
	if env.StopTraining {
		t.Error("stopped on a metric that was never logged")
	}
}

func TestTimeLimit(t *testing.T) {
	cb := TimeLimit(time.Nanosecond)
	env := &CallbackEnv{}
	_ = cb(env)
	time.Sleep(time.Millisecond)
	_ = cb(env)
	if !env.StopTraining {
		t.Error("TimeLimit did not stop training")
	}
}

func TestRecordHistory(t *testing.T) {
	history := NewHistory()
	cb := RecordHistory(history)

	_ = cb(&CallbackEnv{Stage: BeforeEpoch, Epoch: 0})
	_ = cb(&CallbackEnv{Stage: AfterEpoch, Epoch: 0, Logs: map[string]float64{"loss": 0.9, "accuracy": 0.7}})
	_ = cb(&CallbackEnv{Stage: AfterEpoch, Epoch: 1, Logs: map[string]float64{"loss": 0.4, "accuracy": 0.9}})

	if history.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", history.Len())
	}
	if last, ok := history.Last("loss"); !ok || last != 0.4 {
		t.Errorf("Last(loss) = %v, %v", last, ok)
	}
	if epoch, best, ok := history.Best("accuracy", false); !ok || epoch != 1 || best != 0.9 {
		t.Errorf("Best(accuracy) = %d, %v, %v", epoch, best, ok)
	}
	if _, ok := history.Last("val_loss"); ok {
		t.Error("Last(val_loss) reported a value")
	}
	if v, _ := history.Last("val_loss"); !math.IsNaN(v) {
		t.Errorf("missing metric = %v, want NaN", v)
	}
	if names := history.Names(); len(names) != 2 || names[0] != "accuracy" {
		t.Errorf("Names() = %v", names)
	}
}

func TestProgressLogger(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelInfo)
	cb := ProgressLogger(logger, 2)
	begin := time.Now()
	for epoch := 0; epoch < 4; epoch++ {
		env := &CallbackEnv{
			Stage:     AfterEpoch,
			Epoch:     epoch,
			BeginTime: begin,
			EndTime:   begin.Add(1500 * time.Millisecond),
			Logs:      map[string]float64{"loss": 0.25, "accuracy": 0.5, "val_loss": 0.3},
		}
		if err := cb(env); err != nil {
			t.Fatal(err)
		}
	}

	if n := logger.CountMessages("Epoch finished"); n != 2 {
		t.Errorf("logged %d epochs, want 2", n)
	}
	if !logger.ContainsField(log.LossKey, 0.25) || !logger.ContainsField(log.AccuracyKey, 0.5) {
		t.Error("missing loss or accuracy field")
	}
	if !logger.ContainsField("val_loss", 0.3) {
		t.Error("missing val_loss field")
	}
	if !logger.ContainsField(log.DurationMsKey, float64(1500)) {
		t.Error("missing duration field")
	}
}

func TestCallbacksDuringFit(t *testing.T) {
	x, y := blobs(10, 1)

	t.Run("early stopping", func(t *testing.T) {
		m := newClassifier(t, 4, 2)
		if err := m.Compile(WithLoss(SparseCategoricalCrossentropy)); err != nil {
			t.Fatal(err)
		}
		stopNow := func(env *CallbackEnv) error {
			if env.Stage == AfterEpoch && env.Epoch == 1 {
				env.StopTraining = true
			}
			return nil
		}
		history, err := m.Fit(context.Background(), x, y, WithEpochs(10), WithCallbacks(stopNow))
		if err != nil {
			t.Fatal(err)
		}
		if history.Len() != 2 {
			t.Errorf("ran %d epochs, want 2", history.Len())
		}
	})

	t.Run("callback error", func(t *testing.T) {
		m := newClassifier(t, 4, 2)
		if err := m.Compile(WithLoss(SparseCategoricalCrossentropy)); err != nil {
			t.Fatal(err)
		}
		boom := errors.New("boom")
		failing := func(env *CallbackEnv) error {
			if env.Stage == AfterEpoch {
				return boom
			}
			return nil
		}
		history, err := m.Fit(context.Background(), x, y, WithEpochs(3), WithCallbacks(failing))
		if !errors.Is(err, boom) {
			t.Errorf("Fit() = %v, want boom", err)
		}
		if history.Len() != 1 {
			t.Errorf("history has %d epochs, want 1", history.Len())
		}
	})

	t.Run("learning rate schedule", func(t *testing.T) {
		m := newClassifier(t, 4, 2)
		if err := m.Compile(WithOptimizer(SGDName), WithLoss(SparseCategoricalCrossentropy)); err != nil {
			t.Fatal(err)
		}
		var seen []float64
		schedule := LearningRateScheduler(func(epoch int, lr float64) float64 {
			return 0.1 / float64(epoch+1)
		})
		spy := func(env *CallbackEnv) error {
			if env.Stage == BeforeEpoch {
				seen = append(seen, env.Model.Optimizer().LearningRate())
			}
			return nil
		}
		if _, err := m.Fit(context.Background(), x, y, WithEpochs(3), WithCallbacks(schedule, spy)); err != nil {
			t.Fatal(err)
		}
		want := []float64{0.1, 0.05, 0.1 / 3}
		for i, lr := range want {
			if math.Abs(seen[i]-lr) > 1e-12 {
				t.Errorf("epoch %d lr = %v, want %v", i, seen[i], lr)
			}
		}
	})
}
