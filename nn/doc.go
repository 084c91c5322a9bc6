// Package nn trains small fully connected networks on gonum matrices.
//
// A model is a stack of Dense layers. Compile picks the optimizer, loss and
// metrics by name, Fit runs mini-batch gradient descent with closed-form
// dense-layer gradients, and Predict/Evaluate run the forward pass:
//
//	m, err := nn.NewSequential(
//	    nn.Dense(512, nn.WithActivation("relu"), nn.WithInputDim(784)),
//	    nn.Dense(10, nn.WithActivation("softmax")),
//	)
//	if err != nil {
//	    return err
//	}
//	err = m.Compile(
//	    nn.WithOptimizer("rmsprop"),
//	    nn.WithLoss("sparse_categorical_crossentropy"),
//	    nn.WithMetrics("accuracy"),
//	)
//	history, err := m.Fit(ctx, xTrain, yTrain, nn.WithEpochs(5), nn.WithBatchSize(128))
//	scores, err := m.Evaluate(xTest, yTest, 128)
//
// There is no autodiff graph and no GPU backend. Matrix products go through
// gonum BLAS; bias broadcast and ReLU reuse the tensor package kernels.
package nn
