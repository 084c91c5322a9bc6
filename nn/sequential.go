package nn

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"

	"github.com/YuminosukeSato/denseflow/core/model"
	"github.com/YuminosukeSato/denseflow/core/parallel"
	"github.com/YuminosukeSato/denseflow/metrics"
	"github.com/YuminosukeSato/denseflow/performance"
	"github.com/YuminosukeSato/denseflow/pkg/errors"
	"github.com/YuminosukeSato/denseflow/pkg/log"
	"gonum.org/v1/gonum/mat"
)

const defaultBatchSize = 32

var (
	_ model.Classifier      = (*Sequential)(nil)
	_ model.ParameterGetter = (*Sequential)(nil)
	_ model.Persistable     = (*Sequential)(nil)
)

// Sequential is a linear stack of dense layers trained with mini-batch
// gradient descent.
type Sequential struct {
	name   string
	layers []*DenseLayer
	state  *model.StateManager
	seed   int64

	optimizer Optimizer
	loss      Loss
	metrics   []namedMetric
}

// NewSequential creates a model from layers, naming unnamed layers
// "dense", "dense_1", ...
//
//	m, err := nn.NewSequential(
//	    nn.Dense(512, nn.WithActivation("relu"), nn.WithInputDim(784)),
//	    nn.Dense(10, nn.WithActivation("softmax")),
//	)
func NewSequential(layers ...*DenseLayer) (*Sequential, error) {
	s := &Sequential{
		name:  "sequential",
		state: model.NewStateManager(),
	}
	for _, l := range layers {
		if err := s.Add(l); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add appends a layer. Layers cannot be added once the model is built.
func (s *Sequential) Add(l *DenseLayer) error {
	if l == nil {
		return errors.NewValueError("Sequential.Add", "nil layer")
	}
	if s.Built() {
		return errors.NewModelError("Sequential.Add", "cannot add layers to a built model", nil)
	}
	if err := l.validate(); err != nil {
		return err
	}
	if l.name == "" {
		l.name = s.nextLayerName()
	}
	for _, existing := range s.layers {
		if existing.name == l.name {
			return errors.NewValidationError("name", "duplicate layer name", l.name)
		}
	}
	s.layers = append(s.layers, l)
	return nil
}

func (s *Sequential) nextLayerName() string {
	taken := make(map[string]bool, len(s.layers))
	for _, l := range s.layers {
		taken[l.name] = true
	}
	name := "dense"
	for i := 1; taken[name]; i++ {
		name = "dense_" + strconv.Itoa(i)
	}
	return name
}

// Layers returns the model's layers in order.
func (s *Sequential) Layers() []*DenseLayer {
	return append([]*DenseLayer(nil), s.layers...)
}

// SetSeed sets the seed used for weight initialization and shuffling.
func (s *Sequential) SetSeed(seed int64) {
	s.seed = seed
}

// Built reports whether every layer has weights.
func (s *Sequential) Built() bool {
	if len(s.layers) == 0 {
		return false
	}
	for _, l := range s.layers {
		if !l.Built() {
			return false
		}
	}
	return true
}

// IsFitted reports whether the model has been trained or loaded with
// trained weights.
func (s *Sequential) IsFitted() bool {
	return s.state.IsFitted()
}

// Compiled reports whether Compile succeeded.
func (s *Sequential) Compiled() bool {
	return s.optimizer != nil && s.loss != nil
}

// Optimizer returns the compiled optimizer, or nil.
func (s *Sequential) Optimizer() Optimizer {
	return s.optimizer
}

// Loss returns the compiled loss, or nil.
func (s *Sequential) Loss() Loss {
	return s.loss
}

// MetricNames returns the names the compiled metrics report under.
func (s *Sequential) MetricNames() []string {
	names := make([]string, len(s.metrics))
	for i, m := range s.metrics {
		names[i] = m.name
	}
	return names
}

// CompileOption configures Compile.
type CompileOption func(*compileConfig)

type compileConfig struct {
	optimizer Optimizer
	loss      string
	metrics   []string
	err       error
}

// WithOptimizer selects an optimizer by name with its default settings:
// "rmsprop", "sgd" or "adam".
func WithOptimizer(name string) CompileOption {
	return func(c *compileConfig) {
		c.optimizer, c.err = NewOptimizer(name)
	}
}

// WithOptimizerInstance uses a configured optimizer such as
// NewAdam(3e-4, 0.9, 0.999, 1e-7).
func WithOptimizerInstance(opt Optimizer) CompileOption {
	return func(c *compileConfig) {
		c.optimizer = opt
	}
}

// WithLoss selects the loss by name.
func WithLoss(name string) CompileOption {
	return func(c *compileConfig) {
		c.loss = name
	}
}

// WithMetrics selects the metrics reported during Fit and Evaluate.
func WithMetrics(names ...string) CompileOption {
	return func(c *compileConfig) {
		c.metrics = append(c.metrics, names...)
	}
}

// Compile configures the model for training. The optimizer defaults to
// rmsprop; a loss is required.
//
//	err := m.Compile(
//	    nn.WithOptimizer("rmsprop"),
//	    nn.WithLoss("sparse_categorical_crossentropy"),
//	    nn.WithMetrics("accuracy"),
//	)
func (s *Sequential) Compile(opts ...CompileOption) error {
	cfg := compileConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.err != nil {
		return cfg.err
	}
	if cfg.optimizer == nil {
		cfg.optimizer, _ = NewOptimizer(RMSpropName)
	}
	if cfg.loss == "" {
		return errors.NewValidationError("loss", "is required", cfg.loss)
	}
	loss, err := LookupLoss(cfg.loss)
	if err != nil {
		return err
	}

	resolved := make([]namedMetric, 0, len(cfg.metrics))
	for _, name := range cfg.metrics {
		m, err := resolveMetric(name, loss)
		if err != nil {
			return err
		}
		resolved = append(resolved, m)
	}

	s.optimizer = cfg.optimizer
	s.loss = loss
	s.metrics = resolved
	return nil
}

// Build initializes every layer's weights for inputDim features.
func (s *Sequential) Build(inputDim int) error {
	if len(s.layers) == 0 {
		return errors.NewModelError("Sequential.Build", "model has no layers", nil)
	}
	if inputDim <= 0 {
		return errors.NewValidationError("input_dim", "must be positive", inputDim)
	}
	rng := rand.New(rand.NewSource(s.seed))
	dim := inputDim
	for _, l := range s.layers {
		if err := l.build(dim, rng); err != nil {
			return err
		}
		dim = l.units
	}
	s.state.Reset()
	s.state.SetDimensions(inputDim, 0)

	log.GetLoggerWithName("nn.sequential").Debug("Model built",
		log.ModelNameKey, s.name,
		log.FeaturesKey, inputDim,
		"params", s.CountParams(),
	)
	return nil
}

func (s *Sequential) ensureBuilt(op string, inputDim int) error {
	if s.Built() {
		return s.checkWidth(op, inputDim)
	}
	if len(s.layers) > 0 && s.layers[0].inputDim != 0 && s.layers[0].inputDim != inputDim {
		return errors.NewDimensionError(op, s.layers[0].inputDim, inputDim, 1)
	}
	return s.Build(inputDim)
}

func (s *Sequential) checkWidth(op string, inputDim int) error {
	return s.state.RequireFeatures(op, inputDim)
}

func (s *Sequential) outputDim() int {
	return s.layers[len(s.layers)-1].units
}

// CountParams returns the total number of trainable parameters, counting
// only layers whose input size is known.
func (s *Sequential) CountParams() int {
	total := 0
	dim := 0
	if len(s.layers) > 0 {
		dim = s.layers[0].inputDim
	}
	for _, l := range s.layers {
		if dim > 0 {
			total += dim*l.units + l.units
		}
		dim = l.units
	}
	return total
}

func (s *Sequential) params() []Parameter {
	params := make([]Parameter, 0, 2*len(s.layers))
	for _, l := range s.layers {
		params = append(params, l.params()...)
	}
	return params
}

// FitOption configures Fit.
type FitOption func(*fitConfig)

type fitConfig struct {
	epochs          int
	batchSize       int
	shuffle         bool
	seed            *int64
	validationX     mat.Matrix
	validationY     mat.Matrix
	validationSplit float64
	callbacks       []Callback
	verbose         bool
}

// WithEpochs sets the number of passes over the training data (default 1).
func WithEpochs(n int) FitOption {
	return func(c *fitConfig) { c.epochs = n }
}

// WithBatchSize sets the number of samples per gradient update (default 32).
func WithBatchSize(n int) FitOption {
	return func(c *fitConfig) { c.batchSize = n }
}

// WithShuffle toggles reshuffling the training samples every epoch
// (default true).
func WithShuffle(shuffle bool) FitOption {
	return func(c *fitConfig) { c.shuffle = shuffle }
}

// WithSeed seeds shuffling, and weight initialization if the model is not
// built yet.
func WithSeed(seed int64) FitOption {
	return func(c *fitConfig) { c.seed = &seed }
}

// WithValidationData evaluates the model on (x, y) after every epoch.
func WithValidationData(x, y mat.Matrix) FitOption {
	return func(c *fitConfig) {
		c.validationX = x
		c.validationY = y
	}
}

// WithValidationSplit holds out the last fraction of the training samples
// for validation. Ignored when WithValidationData is given.
func WithValidationSplit(fraction float64) FitOption {
	return func(c *fitConfig) { c.validationSplit = fraction }
}

// WithCallbacks registers callbacks run around every epoch.
func WithCallbacks(callbacks ...Callback) FitOption {
	return func(c *fitConfig) { c.callbacks = append(c.callbacks, callbacks...) }
}

// WithVerbose logs every epoch at info level.
func WithVerbose(verbose bool) FitOption {
	return func(c *fitConfig) { c.verbose = verbose }
}

func (c *fitConfig) validate() error {
	if c.epochs <= 0 {
		return errors.NewValidationError("epochs", "must be positive", c.epochs)
	}
	if c.batchSize <= 0 {
		return errors.NewValidationError("batch_size", "must be positive", c.batchSize)
	}
	if c.validationSplit < 0 || c.validationSplit >= 1 {
		return errors.NewValidationError("validation_split", "must be in [0, 1)", c.validationSplit)
	}
	if (c.validationX == nil) != (c.validationY == nil) {
		return errors.NewValueError("Sequential.Fit", "validation data needs both x and y")
	}
	return nil
}

// Fit trains the model on x and y. y is an (n, 1) column of class labels
// for sparse_categorical_crossentropy, otherwise it has one column per
// output unit. The returned History covers every completed epoch, also when
// Fit stops early with an error.
//
//	history, err := m.Fit(ctx, xTrain, yTrain,
//	    nn.WithEpochs(5),
//	    nn.WithBatchSize(128),
//	)
func (s *Sequential) Fit(ctx context.Context, x, y mat.Matrix, opts ...FitOption) (history *History, err error) {
	defer errors.Recover(&err, "Sequential.Fit")

	cfg := fitConfig{epochs: 1, batchSize: defaultBatchSize, shuffle: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if !s.Compiled() {
		return nil, errors.NewModelError("Sequential.Fit", "compile the model before fit", errors.ErrNotCompiled)
	}
	if cfg.seed != nil {
		s.seed = *cfg.seed
	}

	xTrain, yTrain, err := s.prepare("Sequential.Fit", x, y)
	if err != nil {
		return nil, err
	}
	var xVal, yVal *mat.Dense
	switch {
	case cfg.validationX != nil:
		if xVal, yVal, err = s.prepare("Sequential.Fit", cfg.validationX, cfg.validationY); err != nil {
			return nil, err
		}
	case cfg.validationSplit > 0:
		if xTrain, yTrain, xVal, yVal, err = splitTail(xTrain, yTrain, cfg.validationSplit); err != nil {
			return nil, err
		}
	}

	if err := errors.CheckMatrix("Sequential.Fit", xTrain, 0); err != nil {
		return nil, err
	}

	n, features := xTrain.Dims()
	if err := s.ensureBuilt("Sequential.Fit", features); err != nil {
		return nil, err
	}
	if err := s.checkTargets("Sequential.Fit", yTrain); err != nil {
		return nil, err
	}
	if xVal != nil {
		if err := s.checkWidth("Sequential.Fit", colsOf(xVal)); err != nil {
			return nil, err
		}
		if err := s.checkTargets("Sequential.Fit", yVal); err != nil {
			return nil, err
		}
	}

	logger := log.GetLoggerWithName("nn.sequential").With(log.ModelNameKey, s.name)
	history = NewHistory()
	callbacks := []Callback{RecordHistory(history)}
	if cfg.verbose {
		callbacks = append(callbacks, ProgressLogger(logger, 1))
	}
	cl := NewCallbackList(append(callbacks, cfg.callbacks...)...)

	logger.Info("Training started",
		log.SamplesKey, n,
		log.FeaturesKey, features,
		log.BatchSizeKey, cfg.batchSize,
		"epochs", cfg.epochs,
		log.OptimizerKey, s.optimizer.Name(),
		log.LearningRateKey, s.optimizer.LearningRate(),
	)

	rng := rand.New(rand.NewSource(s.seed))
	pool := performance.NewMatrixPool()
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	stepsPerEpoch := (n + cfg.batchSize - 1) / cfg.batchSize

	for epoch := 0; epoch < cfg.epochs; epoch++ {
		if err := cl.BeforeEpoch(epoch, s); err != nil {
			return history, errors.Wrapf(err, "callback error at epoch %d", epoch+1)
		}
		if cl.ShouldStop() {
			logger.Info("Training stopped by callback", log.EpochKey, epoch+1)
			break
		}
		if cfg.shuffle {
			rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
		}

		logs, err := s.runEpoch(ctx, xTrain, yTrain, order, cfg.batchSize, pool, epoch*stepsPerEpoch)
		if err != nil {
			logger.Error("Training failed", err, log.EpochKey, epoch+1)
			return history, errors.Wrapf(err, "epoch %d", epoch+1)
		}
		for _, p := range s.params() {
			if err := errors.CheckNumericalStability("Sequential.Fit: "+p.Name, p.Value, epoch+1); err != nil {
				logger.Error("Weights diverged", err, log.EpochKey, epoch+1)
				return history, err
			}
		}
		s.state.SetFitted()

		if xVal != nil {
			valLogs, err := s.evaluate(xVal, yVal, cfg.batchSize)
			if err != nil {
				return history, err
			}
			for name, v := range valLogs {
				logs["val_"+name] = v
			}
		}
		logger.Debug("Epoch finished", log.EpochKey, epoch+1, log.LossKey, logs["loss"])

		if err := cl.AfterEpoch(epoch, s, logs); err != nil {
			return history, errors.Wrapf(err, "callback error at epoch %d", epoch+1)
		}
		if cl.ShouldStop() {
			logger.Info("Training stopped by callback", log.EpochKey, epoch+1)
			break
		}
	}

	s.state.SetDimensions(features, n)
	stats := pool.GetStats()
	logger.Debug("Training finished",
		"epochs_run", history.Len(),
		"buffers_allocated", stats.TotalAllocated,
		"buffer_reuse_rate", stats.ReuseRate,
	)
	return history, nil
}

// runEpoch streams one shuffled pass of mini-batches through trainStep and
// returns the sample-weighted mean loss and metrics.
func (s *Sequential) runEpoch(ctx context.Context, x, y *mat.Dense, order []int, batchSize int,
	pool *performance.MatrixPool, firstStep int) (map[string]float64, error) {
	ctx, cancel := context.WithCancel(ctx)
	batches := model.StreamBatches(ctx, x, y, order, batchSize, pool)
	defer func() {
		cancel()
		for b := range batches {
			b.Release()
		}
	}()

	sums := make([]float64, 1+len(s.metrics))
	seen := 0
	for b := range batches {
		if err := ctx.Err(); err != nil {
			b.Release()
			return nil, errors.Wrap(err, "fit interrupted")
		}
		size := b.Len()
		values, err := s.trainStep(b.X, b.Y, firstStep+b.Step)
		b.Release()
		if err != nil {
			return nil, err
		}
		for i, v := range values {
			sums[i] += v * float64(size)
		}
		seen += size
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "fit interrupted")
	}

	logs := make(map[string]float64, len(sums))
	logs["loss"] = sums[0] / float64(seen)
	for i, m := range s.metrics {
		logs[m.name] = sums[i+1] / float64(seen)
	}
	return logs, nil
}

// trainStep runs forward and backward on one batch, applies the optimizer
// and returns the batch loss followed by the metric values measured before
// the update.
func (s *Sequential) trainStep(x, y *mat.Dense, step int) ([]float64, error) {
	out := x
	for _, l := range s.layers {
		out = l.forward(out, true)
	}

	loss, err := s.loss.Compute(y, out)
	if err != nil {
		return nil, err
	}
	if err := errors.CheckScalar("batch_loss", loss, step); err != nil {
		return nil, err
	}
	values := make([]float64, 1, 1+len(s.metrics))
	values[0] = loss
	for _, m := range s.metrics {
		v, err := m.fn(y, out)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}

	r, c := out.Dims()
	grad := mat.NewDense(r, c, nil)
	last := s.layers[len(s.layers)-1]
	if last.activation.name != Softmax || !softmaxCrossentropyGradient(s.loss, y, out, grad) {
		s.loss.Gradient(y, out, grad)
		last.activation.backward(out, grad)
	}
	for i := len(s.layers) - 1; i >= 0; i-- {
		dx := s.layers[i].backward(grad, i > 0)
		if i > 0 {
			prev := s.layers[i-1]
			prev.activation.backward(prev.output, dx)
			grad = dx
		}
	}

	s.optimizer.Apply(s.params())
	return values, nil
}

// Predict returns the model output for every row of x, computed batchSize
// rows at a time (32 when batchSize <= 0).
func (s *Sequential) Predict(x mat.Matrix, batchSize int) (out *mat.Dense, err error) {
	defer errors.Recover(&err, "Sequential.Predict")
	if !s.Built() {
		return nil, errors.NewNotFittedError("Sequential", "Predict")
	}
	xd, err := s.checkInput("Sequential.Predict", x)
	if err != nil {
		return nil, err
	}
	return s.predict(xd, batchSize)
}

// PredictClasses returns the index of the largest output per row.
func (s *Sequential) PredictClasses(x mat.Matrix, batchSize int) ([]int, error) {
	probs, err := s.Predict(x, batchSize)
	if err != nil {
		return nil, err
	}
	return metrics.Argmax(probs), nil
}

// predict runs the forward pass without keeping activations. Batches are
// independent, so they are spread across CPUs. A panic in a worker comes
// back as the first error.
func (s *Sequential) predict(x *mat.Dense, batchSize int) (*mat.Dense, error) {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	r, c := x.Dims()
	k := s.outputDim()
	out := mat.NewDense(r, k, nil)
	numBatches := (r + batchSize - 1) / batchSize

	var (
		mu       sync.Mutex
		firstErr error
	)
	parallel.Parallelize(numBatches, func(first, last int) {
		err := errors.SafeExecute("Sequential.predict", func() error {
			for b := first; b < last; b++ {
				start := b * batchSize
				end := min(start+batchSize, r)
				act := x.Slice(start, end, 0, c).(*mat.Dense)
				for _, l := range s.layers {
					act = l.forward(act, false)
				}
				out.Slice(start, end, 0, k).(*mat.Dense).Copy(act)
			}
			return nil
		})
		if err != nil {
			mu.Lock()
			if firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
		}
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

// Evaluate returns the loss and compiled metrics of the model on (x, y).
//
//	scores, err := m.Evaluate(xTest, yTest, 128)
//	fmt.Println(scores["loss"], scores["accuracy"])
func (s *Sequential) Evaluate(x, y mat.Matrix, batchSize int) (scores map[string]float64, err error) {
	defer errors.Recover(&err, "Sequential.Evaluate")
	if !s.Compiled() {
		return nil, errors.NewModelError("Sequential.Evaluate", "compile the model before evaluate", errors.ErrNotCompiled)
	}
	if !s.Built() {
		return nil, errors.NewNotFittedError("Sequential", "Evaluate")
	}
	xd, yd, err := s.prepare("Sequential.Evaluate", x, y)
	if err != nil {
		return nil, err
	}
	if err := s.checkWidth("Sequential.Evaluate", colsOf(xd)); err != nil {
		return nil, err
	}
	if err := s.checkTargets("Sequential.Evaluate", yd); err != nil {
		return nil, err
	}
	scores, err = s.evaluate(xd, yd, batchSize)
	if err != nil {
		return nil, err
	}
	log.GetLoggerWithName("nn.sequential").Debug("Evaluation finished",
		log.ModelNameKey, s.name,
		log.SamplesKey, rowsOf(xd),
		log.LossKey, scores["loss"],
	)
	return scores, nil
}

func (s *Sequential) evaluate(x, y *mat.Dense, batchSize int) (map[string]float64, error) {
	probs, err := s.predict(x, batchSize)
	if err != nil {
		return nil, err
	}
	loss, err := s.loss.Compute(y, probs)
	if err != nil {
		return nil, err
	}
	scores := map[string]float64{"loss": loss}
	for _, m := range s.metrics {
		v, err := m.fn(y, probs)
		if err != nil {
			return nil, err
		}
		scores[m.name] = v
	}
	return scores, nil
}

// checkInput converts x to a dense matrix and checks its width.
func (s *Sequential) checkInput(op string, x mat.Matrix) (*mat.Dense, error) {
	if x == nil {
		return nil, errors.NewValueError(op, "nil input")
	}
	r, c := x.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if err := s.checkWidth(op, c); err != nil {
		return nil, err
	}
	return asDense(x), nil
}

// prepare converts a sample/target pair to dense matrices with matching
// row counts.
func (s *Sequential) prepare(op string, x, y mat.Matrix) (*mat.Dense, *mat.Dense, error) {
	if x == nil || y == nil {
		return nil, nil, errors.NewValueError(op, "nil input")
	}
	r, c := x.Dims()
	yr, yc := y.Dims()
	if r == 0 || c == 0 || yr == 0 || yc == 0 {
		return nil, nil, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if yr != r {
		return nil, nil, errors.NewDimensionError(op, r, yr, 0)
	}
	return asDense(x), asDense(y), nil
}

func (s *Sequential) checkTargets(op string, y *mat.Dense) error {
	want := s.loss.TargetWidth(s.outputDim())
	if got := colsOf(y); got != want {
		return errors.NewDimensionError(op, want, got, 1)
	}
	if _, sparse := s.loss.(sparseCategoricalCrossentropy); sparse {
		for i := 0; i < rowsOf(y); i++ {
			if _, err := metrics.SparseLabel(y.At(i, 0), s.outputDim()); err != nil {
				return err
			}
		}
	}
	return nil
}

// splitTail moves the last fraction of rows into a validation set, the
// split Keras applies before shuffling.
func splitTail(x, y *mat.Dense, fraction float64) (xTrain, yTrain, xVal, yVal *mat.Dense, err error) {
	n, xc := x.Dims()
	_, yc := y.Dims()
	nVal := int(float64(n) * fraction)
	if nVal == 0 || nVal == n {
		return nil, nil, nil, nil, errors.NewValidationError("validation_split",
			"leaves an empty training or validation set for "+strconv.Itoa(n)+" samples", fraction)
	}
	cut := n - nVal
	return x.Slice(0, cut, 0, xc).(*mat.Dense), y.Slice(0, cut, 0, yc).(*mat.Dense),
		x.Slice(cut, n, 0, xc).(*mat.Dense), y.Slice(cut, n, 0, yc).(*mat.Dense), nil
}

func asDense(m mat.Matrix) *mat.Dense {
	if d, ok := m.(*mat.Dense); ok {
		return d
	}
	errors.Warn(errors.NewDataConversionWarning(fmt.Sprintf("%T", m), "*mat.Dense", "input copied into a dense matrix"))
	return mat.DenseCopyOf(m)
}

func rowsOf(m mat.Matrix) int {
	r, _ := m.Dims()
	return r
}

func colsOf(m mat.Matrix) int {
	_, c := m.Dims()
	return c
}

// Summary renders the layer table in the familiar Keras layout.
func (s *Sequential) Summary() string {
	var b strings.Builder
	rule := strings.Repeat("_", 65)
	double := strings.Repeat("=", 65)

	fmt.Fprintf(&b, "Model: %q\n", s.name)
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, " %-28s%-26s%s\n", "Layer (type)", "Output Shape", "Param #")
	b.WriteString(double + "\n")

	dim := 0
	if len(s.layers) > 0 {
		dim = s.layers[0].inputDim
	}
	for _, l := range s.layers {
		params := "0 (unbuilt)"
		if dim > 0 {
			params = strconv.Itoa(dim*l.units + l.units)
		}
		fmt.Fprintf(&b, " %-28s%-26s%s\n", l.name+" (Dense)", fmt.Sprintf("(None, %d)", l.units), params)
		dim = l.units
	}

	total := s.CountParams()
	b.WriteString(double + "\n")
	fmt.Fprintf(&b, "Total params: %s\n", groupThousands(total))
	fmt.Fprintf(&b, "Trainable params: %s\n", groupThousands(total))
	b.WriteString("Non-trainable params: 0\n")
	b.WriteString(rule + "\n")
	return b.String()
}

// groupThousands formats n with comma separators: 407050 -> "407,050".
func groupThousands(n int) string {
	digits := strconv.Itoa(n)
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// GetParams returns the model configuration.
func (s *Sequential) GetParams() map[string]interface{} {
	params := map[string]interface{}{
		"name":   s.name,
		"layers": len(s.layers),
		"seed":   s.seed,
	}
	if s.Compiled() {
		params["optimizer"] = s.optimizer.Name()
		params["learning_rate"] = s.optimizer.LearningRate()
		params["loss"] = s.loss.Name()
		params["metrics"] = s.MetricNames()
	}
	return params
}

func (s *Sequential) String() string {
	names := make([]string, len(s.layers))
	for i, l := range s.layers {
		names[i] = l.String()
	}
	return fmt.Sprintf("Sequential([%s])", strings.Join(names, ", "))
}
