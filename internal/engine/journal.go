package engine

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

const (
	ResultSkipped        = "skipped"
	ResultOrderSubmitted = "order_submitted"
	ResultOrderFailed    = "order_failed"
)

type Entry struct {
	RunID         string    `json:"run_id"`
	Timestamp     time.Time `json:"timestamp"`
	Tactic        string    `json:"tactic"`
	Side          string    `json:"side"`
	Result        string    `json:"result"`
	SkipReason    string    `json:"skip_reason,omitempty"`
	Symbol        string    `json:"symbol,omitempty"`
	Amount        float64   `json:"amount,omitempty"`
	AmountKind    string    `json:"amount_kind,omitempty"`
	OrderID       string    `json:"order_id,omitempty"`
	ClientOrderID string    `json:"client_order_id,omitempty"`
	Error         string    `json:"error,omitempty"`
}

// Journal appends one JSON line per rule outcome and order attempt.
type Journal struct {
	runID  string
	file   *os.File
	writer *bufio.Writer
	mu     sync.Mutex
}

func NewJournal(path string, runID string) (*Journal, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &Journal{
		runID:  runID,
		file:   file,
		writer: bufio.NewWriter(file),
	}, nil
}

func (j *Journal) RunID() string {
	if j == nil {
		return ""
	}
	return j.runID
}

// Append stamps the entry with the run id and time and writes it. A nil
// journal discards entries.
func (j *Journal) Append(entry Entry) {
	if j == nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	entry.RunID = j.runID
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to marshal journal entry: %v\n", err)
		return
	}
	if _, err := j.writer.Write(append(payload, '\n')); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write journal entry: %v\n", err)
		return
	}
	if err := j.writer.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to flush journal: %v\n", err)
	}
}

func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.writer.Flush(); err != nil {
		_ = j.file.Close()
		return err
	}
	return j.file.Close()
}
