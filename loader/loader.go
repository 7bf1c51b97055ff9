// Package loader reads batches of geometry requests from JSON, JSON-lines
// and CSV files.
package loader

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/TFMV/coordgeom/pkg/eval"
)

// LoadJSONFile reads the entire file and decodes it as either a JSON array or as
// newline–delimited JSON objects. Array elements that do not decode as
// requests are kept and marked invalid so evaluation reports them.
func LoadJSONFile(path string, logger *zap.Logger) ([]eval.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON file %s: %w", path, err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []json.RawMessage
		if err := sonic.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("failed to decode JSON array in %s: %w", path, err)
		}
		records := make([]eval.Request, 0, len(items))
		for i, item := range items {
			records = append(records, decodeRecord(item, logger, zap.Int("index", i)))
		}
		return records, nil
	}

	// Fallback to newline–delimited JSON
	var recs []eval.Request
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var r eval.Request
		if err := sonic.Unmarshal(line, &r); err != nil {
			logger.Warn("failed to parse JSON line", zap.String("line", scanner.Text()), zap.Error(err))
			continue
		}
		recs = append(recs, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed scanning JSON file %s: %w", path, err)
	}
	return recs, nil
}

// decodeRecord decodes one array element. On failure the id and op are
// recovered where possible and the request carries the decode error.
func decodeRecord(item json.RawMessage, logger *zap.Logger, where zap.Field) eval.Request {
	var r eval.Request
	err := sonic.Unmarshal(item, &r)
	if err == nil {
		return r
	}

	logger.Warn("failed to parse JSON record", where, zap.Error(err))
	var head struct {
		ID string         `json:"id"`
		Op eval.Operation `json:"op"`
	}
	_ = sonic.Unmarshal(item, &head)
	return eval.Request{ID: head.ID, Op: head.Op, Invalid: fmt.Sprintf("malformed record: %v", err)}
}

// LoadCSVFile reads a CSV file with the header id,op,args where the args
// column holds a JSON object of named arguments.
func LoadCSVFile(path string, logger *zap.Logger) ([]eval.Request, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header from %s: %w", path, err)
	}
	if len(header) != 3 || header[0] != "id" || header[1] != "op" || header[2] != "args" {
		return nil, fmt.Errorf("CSV file %s must have exactly three columns: id, op, args", path)
	}

	var records []eval.Request
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV file %s: %w", path, err)
		}

		var args eval.Args
		if err := sonic.UnmarshalString(row[2], &args); err != nil {
			logger.Warn("failed to parse args JSON", zap.String("id", row[0]), zap.String("value", row[2]), zap.Error(err))
			continue
		}

		records = append(records, eval.Request{ID: row[0], Op: eval.Operation(row[1]), Args: args})
	}

	return records, nil
}

// LoadFile dispatches on the file extension.
func LoadFile(path string, logger *zap.Logger) ([]eval.Request, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonl", ".ndjson":
		return LoadJSONFile(path, logger)
	case ".csv":
		return LoadCSVFile(path, logger)
	default:
		return nil, fmt.Errorf("unsupported file type %s", path)
	}
}

// FileResult holds the evaluated requests of one file.
type FileResult struct {
	Path    string        `json:"path"`
	Results []eval.Result `json:"results"`
}

// EvaluateDirectory loads every supported file in dir and evaluates its
// requests. Results are sorted by path.
func EvaluateDirectory(ctx context.Context, dir string, ev *eval.Evaluator, logger *zap.Logger) ([]FileResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var (
		mu  sync.Mutex
		out []FileResult
	)
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(10)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".json", ".jsonl", ".ndjson", ".csv":
		default:
			continue
		}
		filePath := filepath.Join(dir, entry.Name())

		eg.Go(func() error {
			logger.Info("Loading file", zap.String("file", filePath))

			records, err := LoadFile(filePath, logger)
			if err != nil {
				logger.Error("Failed to load file", zap.String("file", filePath), zap.Error(err))
				return err
			}

			results, err := ev.EvaluateAll(ctx, records)
			if err != nil {
				return fmt.Errorf("evaluating %s: %w", filePath, err)
			}

			mu.Lock()
			out = append(out, FileResult{Path: filePath, Results: results})
			mu.Unlock()

			logger.Info("Finished evaluating file", zap.String("file", filePath), zap.Int("records", len(records)))
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}
