package cutting

import "fmt"

// ValidationError reports malformed optimizer input: a non-positive piece
// length or a plan that no longer matches the stock snapshot. The offending
// piece or stock ID is carried so the operator can correct the input.
type ValidationError struct {
	PieceID string
	StockID string
	Reason  string
}

func (e *ValidationError) Error() string {
	switch {
	case e.PieceID != "":
		return fmt.Sprintf("invalid piece %s: %s", e.PieceID, e.Reason)
	case e.StockID != "":
		return fmt.Sprintf("invalid stock %s: %s", e.StockID, e.Reason)
	default:
		return e.Reason
	}
}
