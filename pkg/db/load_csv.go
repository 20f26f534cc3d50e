// --------------------------------------------------------------------------------
// Author: Thomas F McGeehan V
//
// This file is part of a software project developed by Thomas F McGeehan V.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.
//
// For more information about the MIT License, please visit:
// https://opensource.org/licenses/MIT
//
// Acknowledgment appreciated but not required.
// --------------------------------------------------------------------------------

package db

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// csvSource implements pgx.CopyFromSource over a streaming CSV reader.
type csvSource struct {
	reader *csv.Reader
	cols   []string
	err    error
}

func (s *csvSource) Next() bool {
	record, err := s.reader.Read()
	if err != nil {
		if err != io.EOF {
			s.err = err
		}
		return false
	}
	s.cols = record
	return true
}

func (s *csvSource) Values() ([]interface{}, error) {
	values := make([]interface{}, len(s.cols))
	for i, col := range s.cols {
		values[i] = col
	}
	return values, nil
}

func (s *csvSource) Err() error {
	return s.err
}

// LoadCSV streams a CSV file into the given staging table via COPY. The
// header row names the target columns.
func LoadCSV(ctx context.Context, pool *pgxpool.Pool, csvFilePath, table string) (int64, error) {
	file, err := os.Open(csvFilePath)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", csvFilePath, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	headers, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("reading CSV header: %w", err)
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Release()

	copyCount, err := conn.Conn().CopyFrom(ctx, pgx.Identifier{table}, headers, &csvSource{reader: reader})
	if err != nil {
		return 0, fmt.Errorf("copying data into %s: %w", table, err)
	}
	return copyCount, nil
}
