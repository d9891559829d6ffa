package model

import "github.com/google/uuid"

// RequiredPiece is a single cut to be produced. Quantity expands into
// independent pieces before optimization; each expanded piece is atomic.
type RequiredPiece struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	LengthMm int    `json:"length_mm"`
	Quantity int    `json:"quantity"`
	Profile  string `json:"profile"`
	Grade    string `json:"grade"`
}

// NewRequiredPiece creates a piece with a generated ID.
func NewRequiredPiece(label string, lengthMm, quantity int, profile, grade string) RequiredPiece {
	return RequiredPiece{
		ID:       uuid.New().String()[:8],
		Label:    label,
		LengthMm: lengthMm,
		Quantity: quantity,
		Profile:  profile,
		Grade:    grade,
	}
}

// Key returns the profile/grade group key of the piece.
func (p RequiredPiece) Key() GroupKey {
	return GroupKey{Profile: p.Profile, Grade: p.Grade}
}

// Expand turns a quantity-N piece into N quantity-1 copies.
func (p RequiredPiece) Expand() []RequiredPiece {
	if p.Quantity <= 1 {
		cp := p
		cp.Quantity = 1
		return []RequiredPiece{cp}
	}
	out := make([]RequiredPiece, 0, p.Quantity)
	for i := 0; i < p.Quantity; i++ {
		cp := p
		cp.Quantity = 1
		out = append(out, cp)
	}
	return out
}

// SkippedPiece reports a piece excluded from optimization together with the
// reason, so callers can surface it instead of silently dropping the piece.
type SkippedPiece struct {
	Piece  RequiredPiece `json:"piece"`
	Reason string        `json:"reason"`
}
