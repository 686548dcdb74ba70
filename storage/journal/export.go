package journal

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

const exportBatch = 1000

type exportRow struct {
	Seq        int64  `parquet:"name=seq, type=INT64"`
	ID         string `parquet:"name=id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Type       string `parquet:"name=type, type=BYTE_ARRAY, convertedtype=UTF8"`
	Attributes string `parquet:"name=attributes, type=BYTE_ARRAY, convertedtype=UTF8"`
	RecordedAt string `parquet:"name=recorded_at, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// ExportParquet writes every record with a sequence greater than after to a
// snappy-compressed parquet file at path and returns the number of rows.
func (j *Journal) ExportParquet(ctx context.Context, path string, after uint64) (int, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("journal: create parquet: %w", err)
	}
	pw, err := writer.NewParquetWriter(writerfile.NewWriterFile(file), new(exportRow), 1)
	if err != nil {
		file.Close()
		return 0, fmt.Errorf("journal: parquet schema: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	written := 0
	cursor := after
	for {
		batch, err := j.Since(ctx, cursor, exportBatch)
		if err != nil {
			pw.WriteStop()
			file.Close()
			return written, err
		}
		for _, rec := range batch {
			row := &exportRow{
				Seq:        int64(rec.Seq),
				ID:         rec.ID.String(),
				Type:       rec.Type,
				Attributes: rec.Attributes,
				RecordedAt: rec.RecordedAt.UTC().Format(time.RFC3339Nano),
			}
			if err := pw.Write(row); err != nil {
				pw.WriteStop()
				file.Close()
				return written, fmt.Errorf("journal: parquet write: %w", err)
			}
			written++
			cursor = rec.Seq
		}
		if len(batch) < exportBatch {
			break
		}
	}
	if err := pw.WriteStop(); err != nil {
		file.Close()
		return written, fmt.Errorf("journal: parquet flush: %w", err)
	}
	if err := file.Close(); err != nil {
		return written, fmt.Errorf("journal: close parquet file: %w", err)
	}
	return written, nil
}
