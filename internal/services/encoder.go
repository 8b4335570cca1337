package services

import (
	"context"
	"fmt"
	"sync"

	tokenizers "github.com/amikos-tech/pure-tokenizers"
	ort "github.com/yalue/onnxruntime_go"
)

const (
	// MaxSequenceLength is the fixed tokenizer length; longer issue text is
	// truncated, shorter text is padded
	MaxSequenceLength = 512

	DefaultEncoderModelPath = "models/encoder.onnx"
	DefaultTokenizerPath    = "models/tokenizer.json"
	DefaultEmbeddingDim     = 384
)

// TextEncoder is the narrow capability the classifier needs from a
// pretrained encoder. Tests inject deterministic stand-ins.
type TextEncoder interface {
	Encode(ctx context.Context, text string) ([]float32, error)
	Dim() int
	Close() error
}

// ONNXEncoder runs a pretrained transformer encoder through onnxruntime and
// mean-pools the last hidden state into a fixed-width embedding
type ONNXEncoder struct {
	tokenizer *tokenizers.Tokenizer
	session   *ort.DynamicAdvancedSession
	dim       int

	// onnxruntime sessions are not safe for concurrent Run calls
	mu sync.Mutex
}

// NewONNXEncoder loads the tokenizer and encoder model from disk
func NewONNXEncoder(modelPath, tokenizerPath string, dim int) (*ONNXEncoder, error) {
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize onnxruntime: %w", err)
		}
	}

	tokenizer, err := tokenizers.FromFile(tokenizerPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer: %w", err)
	}

	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		[]string{"input_ids", "attention_mask"},
		[]string{"last_hidden_state"},
		nil,
	)
	if err != nil {
		tokenizer.Close()
		return nil, fmt.Errorf("failed to load encoder model: %w", err)
	}

	return &ONNXEncoder{
		tokenizer: tokenizer,
		session:   session,
		dim:       dim,
	}, nil
}

// Dim returns the embedding width
func (e *ONNXEncoder) Dim() int {
	return e.dim
}

// Encode tokenizes text at the fixed sequence length, runs the encoder, and
// returns the attention-masked mean of the last hidden state
func (e *ONNXEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	encoding, err := e.tokenizer.Encode(text, tokenizers.WithReturnAllAttributes())
	if err != nil {
		return nil, fmt.Errorf("failed to tokenize text: %w", err)
	}

	ids := make([]int64, MaxSequenceLength)
	mask := make([]int64, MaxSequenceLength)
	for i, id := range encoding.IDs {
		if i == MaxSequenceLength {
			break
		}
		ids[i] = int64(id)
		mask[i] = 1
	}

	inputShape := ort.NewShape(1, MaxSequenceLength)
	idsTensor, err := ort.NewTensor(inputShape, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer idsTensor.Destroy()

	maskTensor, err := ort.NewTensor(inputShape, mask)
	if err != nil {
		return nil, fmt.Errorf("failed to create mask tensor: %w", err)
	}
	defer maskTensor.Destroy()

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, MaxSequenceLength, int64(e.dim)))
	if err != nil {
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}
	defer outputTensor.Destroy()

	e.mu.Lock()
	err = e.session.Run(
		[]ort.Value{idsTensor, maskTensor},
		[]ort.Value{outputTensor},
	)
	e.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("encoder inference failed: %w", err)
	}

	return meanPool(outputTensor.GetData(), mask, e.dim), nil
}

// Close releases the tokenizer and the onnxruntime session
func (e *ONNXEncoder) Close() error {
	e.tokenizer.Close()
	return e.session.Destroy()
}

// meanPool averages hidden states over the attended positions
func meanPool(hidden []float32, mask []int64, dim int) []float32 {
	pooled := make([]float32, dim)
	count := 0
	for pos, m := range mask {
		if m == 0 {
			continue
		}
		count++
		base := pos * dim
		for j := 0; j < dim; j++ {
			pooled[j] += hidden[base+j]
		}
	}
	if count == 0 {
		return pooled
	}
	for j := range pooled {
		pooled[j] /= float32(count)
	}
	return pooled
}
