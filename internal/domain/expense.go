package domain

// Expense categories produced by the transcript extractor.
const (
	ExpenseFood      = "food"
	ExpenseTransport = "transport"
	ExpenseShopping  = "shopping"
	ExpenseBills     = "bills"
	ExpenseOther     = "other"
)

// ExtractedExpense is the best-effort reading of one spoken expense.
// Nil fields are serialized as null.
type ExtractedExpense struct {
	Amount   *float64 `json:"amount"`
	Category string   `json:"category"`
	Item     *string  `json:"item"`
	Place    *string  `json:"place"`
}

// TranscriptRequest is the body of POST /v1/voice/text.
type TranscriptRequest struct {
	Text string `json:"text"`
}
