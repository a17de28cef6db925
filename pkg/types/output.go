package types

// Output receives the result of a memo operation. Implementations decide how
// the data is presented: printed to a console, kept in memory for a
// request/response front-end, and so on.
type Output interface {
	// Output delivers a success payload.
	Output(data map[string]any)

	// ErrorOutput delivers a recoverable failure as its numeric code and
	// human-readable message.
	ErrorOutput(code int, message string)
}

// Payload keys used by the memo service.
const (
	// KeyMemo holds the plain fields of a single memo.
	KeyMemo = "memo"
	// KeyList holds a []map[string]any of plain memo fields.
	KeyList = "list"
	// KeyError holds the rendered error text in sinks that store errors as
	// data.
	KeyError = "error"
)
