// Package denseflow is a small deep-learning toolkit for Go built on gonum.
//
// It covers two walkthroughs. The first compares explicit-loop tensor
// operations with their vectorized gonum counterparts and shows how
// broadcasting lines up arrays of different shapes. The second trains a
// two-layer dense classifier on the MNIST handwritten digits with a
// Keras-like compile/fit/evaluate API.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "context"
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/denseflow/datasets/mnist"
//	    "github.com/YuminosukeSato/denseflow/nn"
//	    "github.com/YuminosukeSato/denseflow/preprocessing"
//	)
//
//	func main() {
//	    train, test, err := mnist.LoadData("./mnist")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    flat, _ := preprocessing.Flatten(train.Images)
//	    x, _ := preprocessing.NewPixelRescaler().Transform(flat)
//	    y, _ := preprocessing.LabelsToColumn(train.Labels)
//
//	    network, _ := nn.NewSequential(
//	        nn.Dense(512, nn.WithActivation(nn.ReLU), nn.WithInputDim(784)),
//	        nn.Dense(10, nn.WithActivation(nn.Softmax)),
//	    )
//	    _ = network.Compile(
//	        nn.WithOptimizer(nn.RMSpropName),
//	        nn.WithLoss(nn.SparseCategoricalCrossentropy),
//	        nn.WithMetrics(nn.Accuracy),
//	    )
//	    if _, err := network.Fit(context.Background(), x, y,
//	        nn.WithEpochs(5), nn.WithBatchSize(128)); err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(network.Summary(), test.Len())
//	}
//
// # Packages
//
//   - tensor: shapes, N-d arrays, broadcasting, naive and vectorized ops
//   - datasets/mnist: IDX reader and dataset loading
//   - preprocessing: flattening, rescaling, scalers, one-hot encoding
//   - nn: dense layers, losses, optimizers, the Sequential model, callbacks
//   - metrics: accuracy, crossentropy, confusion matrix, regression errors
//   - visualize: digit, training-curve and confusion-matrix plots
//   - core/model: state management, persistence and weight export
//   - core/parallel: CPU-parallel range splitting
//   - performance: pooled batch buffers
//   - pkg/errors, pkg/log: typed errors and structured logging
//
// Runnable programs live in examples/tensor_ops and examples/mnist_dense.
package denseflow
