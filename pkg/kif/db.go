package kif

import (
	"fmt"
	"path/filepath"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"
)

const parquetBatch = 1024

// WriteParquet drains summaries into a snappy-compressed parquet file and
// reports how many rows were written. On error the channel is left
// undrained; callers stop their producers.
func WriteParquet(path string, summaries <-chan Summary, parallel int64) (written int, err error) {
	out, err := local.NewLocalFileWriter(path)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	pw, err := writer.NewParquetWriter(out, new(Summary), parallel)
	if err != nil {
		return 0, err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for s := range summaries {
		if err := pw.Write(s); err != nil {
			return written, fmt.Errorf("write %s: %w", s.GameID, err)
		}
		written++
	}
	if err := pw.WriteStop(); err != nil {
		return written, fmt.Errorf("finish %s: %w", path, err)
	}
	return written, nil
}

// ReadParquet loads every summary in an archive.
func ReadParquet(path string, parallel int64) ([]Summary, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	in, err := local.NewLocalFileReader(abs)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	pr, err := reader.NewParquetReader(in, new(Summary), parallel)
	if err != nil {
		return nil, err
	}
	defer pr.ReadStop()

	total := int(pr.GetNumRows())
	summaries := make([]Summary, 0, total)
	for len(summaries) < total {
		batch := make([]Summary, min(parquetBatch, total-len(summaries)))
		if err := pr.Read(&batch); err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		summaries = append(summaries, batch...)
	}
	return summaries, nil
}
