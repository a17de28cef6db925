// Package output provides the sinks that receive memo service results.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/mesh-intelligence/memonest/pkg/types"
)

// displayTime is the layout used for timestamps in human-readable output.
const displayTime = "2006-01-02 15:04:05"

// Compile-time interface checks.
var (
	_ types.Output = (*Console)(nil)
	_ types.Output = (*Memory)(nil)
)

// Console writes results to an io.Writer, either as indented JSON or as
// human-readable text.
type Console struct {
	mu       sync.Mutex
	w        io.Writer
	jsonMode bool
}

// NewConsole returns a console sink writing to w.
func NewConsole(w io.Writer, jsonMode bool) *Console {
	return &Console{w: w, jsonMode: jsonMode}
}

// Output renders a success payload.
func (c *Console) Output(data map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.jsonMode {
		out, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			fmt.Fprintln(c.w, "marshal JSON:", err)
			return
		}
		fmt.Fprintln(c.w, string(out))
		return
	}
	c.writeText(data)
}

// ErrorOutput renders a failure as "Error code N: message".
func (c *Console) ErrorOutput(code int, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.w, FormatError(code, message))
}

// FormatError returns the text form of an emitted error.
func FormatError(code int, message string) string {
	return fmt.Sprintf("Error code %d: %s", code, message)
}

func (c *Console) writeText(data map[string]any) {
	if memo, ok := data[types.KeyMemo].(map[string]any); ok {
		c.writeMemo(memo)
		return
	}
	if list, ok := data[types.KeyList].([]map[string]any); ok {
		if len(list) == 0 {
			fmt.Fprintln(c.w, "No memos")
			return
		}
		for i, memo := range list {
			if i > 0 {
				fmt.Fprintln(c.w)
			}
			c.writeMemo(memo)
		}
		return
	}
	if len(data) == 0 {
		fmt.Fprintln(c.w, "No memo found")
		return
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(c.w, "%s: %v\n", k, data[k])
	}
}

func (c *Console) writeMemo(memo map[string]any) {
	if id, ok := memo[types.FieldID]; ok {
		fmt.Fprintf(c.w, "ID:        %v\n", id)
	}
	fmt.Fprintf(c.w, "Title:     %v\n", memo[types.FieldTitle])
	if t, ok := memo[types.FieldCreatedAt].(time.Time); ok {
		fmt.Fprintf(c.w, "Created:   %s\n", t.Local().Format(displayTime))
	}
	if t, ok := memo[types.FieldUpdatedAt].(time.Time); ok {
		fmt.Fprintf(c.w, "Updated:   %s\n", t.Local().Format(displayTime))
	}
}
