package models

import (
	"encoding/json"
	"fmt"
)

// Document payloads are stored as JSONB with the row ID kept outside the
// payload, so the encode/decode pair round-trips every field except ID.

// EncodePlanDoc serializes a plan payload for storage.
func EncodePlanDoc(p WorkoutPlan) ([]byte, error) {
	p.ID = ""
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encoding plan doc: %w", err)
	}
	return data, nil
}

// DecodePlanDoc deserializes a stored plan payload and reattaches its ID.
func DecodePlanDoc(id string, data []byte) (WorkoutPlan, error) {
	var p WorkoutPlan
	if err := json.Unmarshal(data, &p); err != nil {
		return WorkoutPlan{}, fmt.Errorf("decoding plan doc: %w", err)
	}
	p.ID = id
	if p.Exercises == nil {
		p.Exercises = []Exercise{}
	}
	return p, nil
}

// EncodeSessionDoc serializes a session payload for storage.
func EncodeSessionDoc(s WorkoutSession) ([]byte, error) {
	s.ID = ""
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encoding session doc: %w", err)
	}
	return data, nil
}

// DecodeSessionDoc deserializes a stored session payload and reattaches its ID.
func DecodeSessionDoc(id string, data []byte) (WorkoutSession, error) {
	var s WorkoutSession
	if err := json.Unmarshal(data, &s); err != nil {
		return WorkoutSession{}, fmt.Errorf("decoding session doc: %w", err)
	}
	s.ID = id
	if s.CompletedExercises == nil {
		s.CompletedExercises = []CompletedExercise{}
	}
	return s, nil
}
