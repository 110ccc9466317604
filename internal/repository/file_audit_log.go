package repository

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go-auth-service/internal/model"
)

// FileAuditLog appends audit entries to a JSONL file. It backs development
// runs without postgres; queries scan the whole file.
type FileAuditLog struct {
	path string
	mu   sync.Mutex
}

func NewFileAuditLog(path string) (*FileAuditLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("prepare audit directory: %w", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, []byte{}, 0o644); err != nil {
			return nil, fmt.Errorf("initialize audit file: %w", err)
		}
	}

	return &FileAuditLog{path: path}, nil
}

func (l *FileAuditLog) Log(ctx context.Context, entry model.AuditEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

func (l *FileAuditLog) Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 50
	}
	if query.Limit > 200 {
		query.Limit = 200
	}

	from, err := parseOptionalAuditTime(query.From)
	if err != nil {
		return nil, model.Meta{}, fmt.Errorf("parse 'from' time: %w", err)
	}
	to, err := parseOptionalAuditTime(query.To)
	if err != nil {
		return nil, model.Meta{}, fmt.Errorf("parse 'to' time: %w", err)
	}

	action := strings.ToLower(strings.TrimSpace(query.Action))
	status := strings.ToLower(strings.TrimSpace(query.Status))
	subject := strings.ToLower(strings.TrimSpace(query.Subject))
	actorID := strings.TrimSpace(query.ActorID)

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		return nil, model.Meta{}, err
	}
	defer f.Close()

	items := make([]model.AuditEntry, 0, 128)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var entry model.AuditEntry
		if unmarshalErr := json.Unmarshal([]byte(line), &entry); unmarshalErr != nil {
			continue
		}

		if action != "" && strings.ToLower(strings.TrimSpace(entry.Action)) != action {
			continue
		}
		if status != "" && strings.ToLower(strings.TrimSpace(entry.Status)) != status {
			continue
		}
		if subject != "" && strings.ToLower(strings.TrimSpace(entry.Subject)) != subject {
			continue
		}
		if actorID != "" && strings.TrimSpace(entry.Actor.UserID) != actorID {
			continue
		}

		at, timeErr := parseAuditTime(entry.OccurredAt)
		if timeErr != nil {
			continue
		}
		if !from.IsZero() && at.Before(from) {
			continue
		}
		if !to.IsZero() && at.After(to) {
			continue
		}

		items = append(items, entry)
	}

	if scanErr := scanner.Err(); scanErr != nil {
		return nil, model.Meta{}, scanErr
	}

	sort.SliceStable(items, func(i int, j int) bool {
		left, leftErr := parseAuditTime(items[i].OccurredAt)
		right, rightErr := parseAuditTime(items[j].OccurredAt)
		if leftErr != nil || rightErr != nil {
			return items[i].OccurredAt > items[j].OccurredAt
		}
		return left.After(right)
	})

	total := len(items)
	start := (query.Page - 1) * query.Limit
	if start > total {
		start = total
	}
	end := start + query.Limit
	if end > total {
		end = total
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + query.Limit - 1) / query.Limit
	}

	meta := model.Meta{Page: query.Page, Limit: query.Limit, Total: total, TotalPages: totalPages}
	return items[start:end], meta, nil
}

func parseOptionalAuditTime(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, nil
	}

	return parseAuditTime(trimmed)
}

func parseAuditTime(raw string) (time.Time, error) {
	if value, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return value.UTC(), nil
	}

	value, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}

	return value.UTC(), nil
}
