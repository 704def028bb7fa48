package domain

import (
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/crypto/blake2b"
)

// FieldType is a semantic profile field that gets its own embedding.
type FieldType string

const (
	FieldStrengths FieldType = "strengths"
	FieldNeeds     FieldType = "needs"
	FieldGoals     FieldType = "goals"
	FieldValues    FieldType = "values"
)

// FieldTypes lists every embedded field in a stable order.
var FieldTypes = []FieldType{FieldStrengths, FieldNeeds, FieldGoals, FieldValues}

func ParseFieldType(s string) (FieldType, error) {
	switch FieldType(s) {
	case FieldStrengths, FieldNeeds, FieldGoals, FieldValues:
		return FieldType(s), nil
	default:
		return "", Validationf("unknown field type %q", s)
	}
}

type Embedding struct {
	UserID     int       `json:"user_id"`
	FieldType  FieldType `json:"field_type"`
	Vector     []float32 `json:"-"`
	SourceText string    `json:"source_text"`
	SourceHash string    `json:"source_hash"`
	Model      string    `json:"model"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// IsFreshFor reports whether the embedding was generated from exactly this text.
func (e *Embedding) IsFreshFor(text string) bool {
	if e == nil || len(e.Vector) == 0 {
		return false
	}
	return e.SourceText == text && e.SourceHash == HashText(text)
}

// EmbeddingSet holds one user's embeddings by field.
type EmbeddingSet map[FieldType]*Embedding

func (s EmbeddingSet) Vector(field FieldType) []float32 {
	if e, ok := s[field]; ok && e != nil {
		return e.Vector
	}
	return nil
}

// HashText fingerprints source text for staleness checks and cache keys.
func HashText(text string) string {
	sum := blake2b.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// ValidateVector rejects vectors that are empty or of the wrong dimension.
func ValidateVector(v []float32, dim int) error {
	if len(v) == 0 {
		return fmt.Errorf("%w: empty vector", ErrInvalidResponseShape)
	}
	if dim > 0 && len(v) != dim {
		return fmt.Errorf("%w: expected dimension %d, got %d", ErrInvalidResponseShape, dim, len(v))
	}
	return nil
}
