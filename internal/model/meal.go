package model

import (
	"crypto/sha256"
	"fmt"
	"time"
)

// Nutrient is a single logged nutrient amount on a meal.
type Nutrient struct {
	Name   string  `json:"name"`
	Unit   string  `json:"unit"`
	Amount float64 `json:"amt"`
}

// Meal represents a historical meal as stored by the log store.
type Meal struct {
	Timestamp time.Time  `json:"timestamp"`
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Nutrients []Nutrient `json:"nutrients"`
}

// GenerateHash creates a unique hash for duplicate detection on import.
func (m *Meal) GenerateHash() string {
	data := fmt.Sprintf("%s:%s:%d",
		m.Timestamp.UTC().Format(time.RFC3339),
		m.Name,
		len(m.Nutrients))
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
