package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"liquidityAgent/internal/model"
)

// Journal entry kinds.
const (
	KindSwap  = "swap"
	KindRange = "range"
)

// Entry is one JSONL line. Exactly one of Swap and Range is set.
type Entry struct {
	Kind  string             `json:"kind"`
	Swap  *model.SwapRecord  `json:"swap,omitempty"`
	Range *model.RangeRecord `json:"range,omitempty"`
}

// JsonlStorage appends journal entries to a JSONL file.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

func (s *JsonlStorage) RecordSwap(_ context.Context, record model.SwapRecord) error {
	return s.append(Entry{Kind: KindSwap, Swap: &record})
}

func (s *JsonlStorage) RecordRange(_ context.Context, record model.RangeRecord) error {
	return s.append(Entry{Kind: KindRange, Range: &record})
}

func (s *JsonlStorage) append(entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create journal dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, entry := range entries {
		line, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("marshal %s entry: %w", entry.Kind, err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write %s entry: %w", entry.Kind, err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush journal: %w", err)
	}
	return nil
}

// ReadEntries loads every entry of a journal file, oldest first.
func ReadEntries(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open journal: %w", err)
	}
	defer file.Close()

	var entries []Entry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			return nil, fmt.Errorf("journal line %d: %w", line, err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}
	return entries, nil
}

// RecentSwaps returns the latest outcomes of a wallet, newest first.
func (s *JsonlStorage) RecentSwaps(_ context.Context, chainID uint64, wallet string, limit int) ([]model.SwapOutcome, error) {
	if limit <= 0 {
		limit = 20
	}
	s.mu.Lock()
	entries, err := ReadEntries(s.path)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	var out []model.SwapOutcome
	for i := len(entries) - 1; i >= 0 && len(out) < limit; i-- {
		swap := entries[i].Swap
		if swap == nil || swap.ChainID != chainID || !strings.EqualFold(swap.Wallet, wallet) {
			continue
		}
		out = append(out, swap.Outcome)
	}
	return out, nil
}
