package importers

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// readRows parses a CSV file into header-keyed rows after skipping a
// fixed number of preamble lines. Rows shorter than the header map the
// missing columns to ""; exports commonly end with ragged disclaimer
// lines, so record lengths are not enforced.
func readRows(path string, skipLines int) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	for i := 0; i < skipLines; i++ {
		if !scanner.Scan() {
			return nil, fmt.Errorf("file %s shorter than %d preamble lines", path, skipLines)
		}
	}

	var body strings.Builder
	for scanner.Scan() {
		body.WriteString(scanner.Text())
		body.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return parseRows(body.String())
}

// readRowsFrom parses a CSV file whose header line must first be
// located by prefix, as in Vanguard's multi-section exports. Parsing
// stops at the first blank line after the header, where the next
// section begins.
func readRowsFrom(path, headerPrefix string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)

	found := false
	var body strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		if !found {
			if strings.HasPrefix(line, headerPrefix) {
				found = true
				body.WriteString(line)
				body.WriteByte('\n')
			}
			continue
		}
		if strings.TrimSpace(line) == "" {
			break
		}
		body.WriteString(line)
		body.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if !found {
		return nil, fmt.Errorf("no header line starting with %q in %s", headerPrefix, path)
	}

	return parseRows(body.String())
}

func parseRows(body string) ([]map[string]string, error) {
	reader := csv.NewReader(strings.NewReader(body))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv has no header row")
	}

	header := records[0]
	for i, col := range header {
		header[i] = strings.TrimSpace(col)
	}

	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = strings.TrimSpace(record[i])
			} else {
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// headerLine returns the nth line of a file (0-based) for Identify
// sniffing.
func headerLine(path string, n int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	for i := 0; i <= n; i++ {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", err
			}
			return "", fmt.Errorf("file has fewer than %d lines", n+1)
		}
	}
	return scanner.Text(), nil
}
