package services

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"
)

// Head architecture, mirrored from the production training setup:
// dense(256, relu) -> dropout(0.3) -> dense(128, relu) -> dropout(0.2) ->
// dense(4, softmax)
const (
	hiddenDim1 = 256
	hiddenDim2 = 128

	// NumDifficultyTiers is the output width of the head
	NumDifficultyTiers = 4

	dropoutRate1 = 0.3
	dropoutRate2 = 0.2

	trainBatchSize  = 32
	validationSplit = 0.2
	learningRate    = 0.01
)

// ClassifierHead is the feed-forward classification head that sits on top of
// the pooled encoder embedding. Not safe for concurrent Fit and Forward.
type ClassifierHead struct {
	inputDim   int
	w1, w2, w3 *mat.Dense
	b1, b2, b3 []float64
	rng        *rand.Rand
}

// TrainingReport summarizes one Fit run
type TrainingReport struct {
	Samples            int     `json:"samples"`
	TrainSamples       int     `json:"train_samples"`
	ValidationSamples  int     `json:"validation_samples"`
	Epochs             int     `json:"epochs"`
	TrainAccuracy      float64 `json:"train_accuracy"`
	ValidationAccuracy float64 `json:"validation_accuracy"`
}

// NewClassifierHead creates a freshly initialized, untrained head
func NewClassifierHead(inputDim int) *ClassifierHead {
	// Fixed seed keeps fresh-head behavior reproducible across restarts
	rng := rand.New(rand.NewSource(42))
	return &ClassifierHead{
		inputDim: inputDim,
		w1:       randomWeights(rng, inputDim, hiddenDim1),
		w2:       randomWeights(rng, hiddenDim1, hiddenDim2),
		w3:       randomWeights(rng, hiddenDim2, NumDifficultyTiers),
		b1:       make([]float64, hiddenDim1),
		b2:       make([]float64, hiddenDim2),
		b3:       make([]float64, NumDifficultyTiers),
		rng:      rng,
	}
}

// InputDim returns the embedding width the head expects
func (h *ClassifierHead) InputDim() int {
	return h.inputDim
}

// randomWeights draws Xavier-scaled initial weights
func randomWeights(rng *rand.Rand, rows, cols int) *mat.Dense {
	scale := math.Sqrt(2.0 / float64(rows))
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = rng.NormFloat64() * scale
	}
	return mat.NewDense(rows, cols, data)
}

// Forward runs inference for a single embedding and returns the softmax
// probabilities over the four tiers. Dropout is inference-disabled.
func (h *ClassifierHead) Forward(embedding []float32) []float64 {
	x := embeddingMatrix([][]float32{embedding})
	probs := h.forward(x, nil, nil)
	out := make([]float64, NumDifficultyTiers)
	for j := 0; j < NumDifficultyTiers; j++ {
		out[j] = probs.At(0, j)
	}
	return out
}

// Fit trains the head with mini-batch SGD and softmax cross-entropy, using
// an 80/20 train/validation split and batch size 32. No checkpointing or
// early stopping.
func (h *ClassifierHead) Fit(embeddings [][]float32, labels []int, epochs int) (*TrainingReport, error) {
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("no training samples")
	}
	if len(embeddings) != len(labels) {
		return nil, fmt.Errorf("sample/label count mismatch: %d vs %d", len(embeddings), len(labels))
	}
	for i, label := range labels {
		if label < 0 || label >= NumDifficultyTiers {
			return nil, fmt.Errorf("label %d out of range at index %d", label, i)
		}
	}

	indices := h.rng.Perm(len(embeddings))
	valCount := int(float64(len(indices)) * validationSplit)
	valIdx := indices[:valCount]
	trainIdx := indices[valCount:]

	for epoch := 0; epoch < epochs; epoch++ {
		h.rng.Shuffle(len(trainIdx), func(i, j int) {
			trainIdx[i], trainIdx[j] = trainIdx[j], trainIdx[i]
		})

		for start := 0; start < len(trainIdx); start += trainBatchSize {
			end := start + trainBatchSize
			if end > len(trainIdx) {
				end = len(trainIdx)
			}
			batch := trainIdx[start:end]

			batchEmb := make([][]float32, len(batch))
			batchLabels := make([]int, len(batch))
			for i, idx := range batch {
				batchEmb[i] = embeddings[idx]
				batchLabels[i] = labels[idx]
			}
			h.trainStep(batchEmb, batchLabels)
		}
	}

	report := &TrainingReport{
		Samples:           len(embeddings),
		TrainSamples:      len(trainIdx),
		ValidationSamples: len(valIdx),
		Epochs:            epochs,
		TrainAccuracy:     h.accuracy(embeddings, labels, trainIdx),
	}
	if len(valIdx) > 0 {
		report.ValidationAccuracy = h.accuracy(embeddings, labels, valIdx)
	}
	return report, nil
}

// trainStep runs one forward/backward pass on a mini-batch and applies the
// SGD update in place
func (h *ClassifierHead) trainStep(embeddings [][]float32, labels []int) {
	n := len(embeddings)
	x := embeddingMatrix(embeddings)

	mask1 := h.dropoutMask(n, hiddenDim1, dropoutRate1)
	mask2 := h.dropoutMask(n, hiddenDim2, dropoutRate2)

	// Forward with caches
	var z1 mat.Dense
	z1.Mul(x, h.w1)
	addBias(&z1, h.b1)
	a1 := applyRelu(&z1)
	hadamard(a1, mask1)

	var z2 mat.Dense
	z2.Mul(a1, h.w2)
	addBias(&z2, h.b2)
	a2 := applyRelu(&z2)
	hadamard(a2, mask2)

	var z3 mat.Dense
	z3.Mul(a2, h.w3)
	addBias(&z3, h.b3)
	probs := softmaxRows(&z3)

	// Backward: dZ3 = (probs - onehot) / n
	dz3 := mat.DenseCopyOf(probs)
	for i, label := range labels {
		dz3.Set(i, label, dz3.At(i, label)-1)
	}
	dz3.Scale(1/float64(n), dz3)

	var dw3 mat.Dense
	dw3.Mul(a2.T(), dz3)
	db3 := columnSums(dz3)

	var da2 mat.Dense
	da2.Mul(dz3, h.w3.T())
	hadamard(&da2, mask2)
	dz2 := reluBackward(&da2, &z2)

	var dw2 mat.Dense
	dw2.Mul(a1.T(), dz2)
	db2 := columnSums(dz2)

	var da1 mat.Dense
	da1.Mul(dz2, h.w2.T())
	hadamard(&da1, mask1)
	dz1 := reluBackward(&da1, &z1)

	var dw1 mat.Dense
	dw1.Mul(x.T(), dz1)
	db1 := columnSums(dz1)

	applyUpdate(h.w1, &dw1)
	applyUpdate(h.w2, &dw2)
	applyUpdate(h.w3, &dw3)
	updateBias(h.b1, db1)
	updateBias(h.b2, db2)
	updateBias(h.b3, db3)
}

// forward runs the plain inference path. Non-nil masks enable dropout (used
// only from trainStep, which needs its own caches anyway).
func (h *ClassifierHead) forward(x *mat.Dense, mask1, mask2 *mat.Dense) *mat.Dense {
	var z1 mat.Dense
	z1.Mul(x, h.w1)
	addBias(&z1, h.b1)
	a1 := applyRelu(&z1)
	if mask1 != nil {
		hadamard(a1, mask1)
	}

	var z2 mat.Dense
	z2.Mul(a1, h.w2)
	addBias(&z2, h.b2)
	a2 := applyRelu(&z2)
	if mask2 != nil {
		hadamard(a2, mask2)
	}

	var z3 mat.Dense
	z3.Mul(a2, h.w3)
	addBias(&z3, h.b3)
	return softmaxRows(&z3)
}

// accuracy computes argmax accuracy over the given sample indices
func (h *ClassifierHead) accuracy(embeddings [][]float32, labels []int, indices []int) float64 {
	if len(indices) == 0 {
		return 0
	}
	correct := 0
	for _, idx := range indices {
		probs := h.Forward(embeddings[idx])
		if argmax(probs) == labels[idx] {
			correct++
		}
	}
	return float64(correct) / float64(len(indices))
}

// dropoutMask builds an inverted-dropout mask: zero with probability rate,
// 1/(1-rate) otherwise
func (h *ClassifierHead) dropoutMask(rows, cols int, rate float64) *mat.Dense {
	keep := 1 - rate
	data := make([]float64, rows*cols)
	for i := range data {
		if h.rng.Float64() < keep {
			data[i] = 1 / keep
		}
	}
	return mat.NewDense(rows, cols, data)
}

// headBundle is the on-disk weight format
type headBundle struct {
	InputDim int       `json:"input_dim"`
	W1       []float64 `json:"w1"`
	B1       []float64 `json:"b1"`
	W2       []float64 `json:"w2"`
	B2       []float64 `json:"b2"`
	W3       []float64 `json:"w3"`
	B3       []float64 `json:"b3"`
}

// Save persists the head weights as a JSON bundle at path
func (h *ClassifierHead) Save(path string) error {
	bundle := headBundle{
		InputDim: h.inputDim,
		W1:       rawData(h.w1),
		B1:       h.b1,
		W2:       rawData(h.w2),
		B2:       h.b2,
		W3:       rawData(h.w3),
		B3:       h.b3,
	}

	data, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("failed to marshal head weights: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create model directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write head weights: %w", err)
	}
	return nil
}

// LoadClassifierHead reads a previously saved weight bundle
func LoadClassifierHead(path string) (*ClassifierHead, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read head weights: %w", err)
	}

	var bundle headBundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return nil, fmt.Errorf("failed to parse head weights: %w", err)
	}

	if bundle.InputDim <= 0 {
		return nil, fmt.Errorf("invalid input dimension %d in weight bundle", bundle.InputDim)
	}
	if len(bundle.W1) != bundle.InputDim*hiddenDim1 ||
		len(bundle.W2) != hiddenDim1*hiddenDim2 ||
		len(bundle.W3) != hiddenDim2*NumDifficultyTiers ||
		len(bundle.B1) != hiddenDim1 ||
		len(bundle.B2) != hiddenDim2 ||
		len(bundle.B3) != NumDifficultyTiers {
		return nil, fmt.Errorf("weight bundle shape mismatch")
	}

	return &ClassifierHead{
		inputDim: bundle.InputDim,
		w1:       mat.NewDense(bundle.InputDim, hiddenDim1, bundle.W1),
		w2:       mat.NewDense(hiddenDim1, hiddenDim2, bundle.W2),
		w3:       mat.NewDense(hiddenDim2, NumDifficultyTiers, bundle.W3),
		b1:       bundle.B1,
		b2:       bundle.B2,
		b3:       bundle.B3,
		rng:      rand.New(rand.NewSource(42)),
	}, nil
}

// matrix helpers

func rawData(m *mat.Dense) []float64 {
	return m.RawMatrix().Data
}

func embeddingMatrix(embeddings [][]float32) *mat.Dense {
	rows := len(embeddings)
	cols := len(embeddings[0])
	data := make([]float64, 0, rows*cols)
	for _, emb := range embeddings {
		for _, v := range emb {
			data = append(data, float64(v))
		}
	}
	return mat.NewDense(rows, cols, data)
}

func addBias(m *mat.Dense, bias []float64) {
	rows, cols := m.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			m.Set(i, j, m.At(i, j)+bias[j])
		}
	}
}

func applyRelu(m *mat.Dense) *mat.Dense {
	var out mat.Dense
	out.Apply(func(_, _ int, v float64) float64 {
		if v < 0 {
			return 0
		}
		return v
	}, m)
	return &out
}

// reluBackward zeroes upstream gradient where the pre-activation was negative
func reluBackward(grad, z *mat.Dense) *mat.Dense {
	var out mat.Dense
	out.Apply(func(i, j int, v float64) float64 {
		if z.At(i, j) <= 0 {
			return 0
		}
		return v
	}, grad)
	return &out
}

func hadamard(m, mask *mat.Dense) {
	m.MulElem(m, mask)
}

func softmaxRows(m *mat.Dense) *mat.Dense {
	rows, cols := m.Dims()
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		maxVal := m.At(i, 0)
		for j := 1; j < cols; j++ {
			if m.At(i, j) > maxVal {
				maxVal = m.At(i, j)
			}
		}
		sum := 0.0
		for j := 0; j < cols; j++ {
			e := math.Exp(m.At(i, j) - maxVal)
			out.Set(i, j, e)
			sum += e
		}
		for j := 0; j < cols; j++ {
			out.Set(i, j, out.At(i, j)/sum)
		}
	}
	return out
}

func columnSums(m *mat.Dense) []float64 {
	rows, cols := m.Dims()
	sums := make([]float64, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			sums[j] += m.At(i, j)
		}
	}
	return sums
}

func applyUpdate(w, grad *mat.Dense) {
	var scaled mat.Dense
	scaled.Scale(learningRate, grad)
	w.Sub(w, &scaled)
}

func updateBias(bias, grad []float64) {
	for i := range bias {
		bias[i] -= learningRate * grad[i]
	}
}

func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}
