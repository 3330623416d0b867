package generation

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding - кодировка для приблизительного подсчета токенов.
// Для моделей Gemini точного токенизатора в tiktoken нет.
const DefaultEncoding = "cl100k_base"

// TokenEstimator оценивает число токенов в тексте.
type TokenEstimator interface {
	Estimate(text string) int
}

type tiktokenEstimator struct {
	enc *tiktoken.Tiktoken
}

var _ TokenEstimator = (*tiktokenEstimator)(nil)

// NewTiktokenEstimator загружает кодировку tiktoken.
// Загрузка может обращаться к сети, поэтому оценщик включается только вместе с метриками.
func NewTiktokenEstimator(encoding string) (TokenEstimator, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to load tiktoken encoding %s: %w", encoding, err)
	}
	return &tiktokenEstimator{enc: enc}, nil
}

func (e *tiktokenEstimator) Estimate(text string) int {
	return len(e.enc.Encode(text, nil, nil))
}

func estimateRequestTokens(estimator TokenEstimator, req Request) int {
	if estimator == nil {
		return 0
	}
	total := estimator.Estimate(req.SystemInstruction)
	for _, turn := range req.Contents {
		total += estimator.Estimate(turn.Text)
	}
	return total
}
