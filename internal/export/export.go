// Package export writes extraction results to JSON, CSV, YAML or XLSX files.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"clipharvest/internal/media"
)

// Format is an output file format.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatYAML Format = "yaml"
	FormatXLSX Format = "xlsx"
)

const sheetName = "Videos"

var columns = []string{
	"rank", "url", "quality", "resolution", "format", "format_code",
	"has_video", "has_audio", "content", "estimated_size", "score", "source",
}

// Document is the serialized shape of a result set.
type Document struct {
	Count      int           `json:"count" yaml:"count"`
	TotalFound int           `json:"totalFound" yaml:"total_found"`
	Filtered   int           `json:"filteredCount" yaml:"filtered_count"`
	Videos     []media.Asset `json:"videos" yaml:"videos"`
}

// NewDocument wraps a result set for serialization.
func NewDocument(rs *media.ResultSet) Document {
	videos := []media.Asset{}
	if rs != nil && rs.Assets != nil {
		videos = rs.Assets
	}
	return Document{
		Count:      rs.Len(),
		TotalFound: totalFound(rs),
		Filtered:   rs.Filtered(),
		Videos:     videos,
	}
}

func totalFound(rs *media.ResultSet) int {
	if rs == nil {
		return 0
	}
	return rs.TotalFound
}

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".csv":
		return FormatCSV, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported export extension %q (valid: .json, .csv, .yaml, .yml, .xlsx)", filepath.Ext(path))
	}
}

// Write exports rs to path, choosing the format from its extension.
// Uses atomic write (write to temp file, then rename) so readers never see a partial file.
func Write(path string, rs *media.ResultSet) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating export dir: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".export-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if err := Encode(tmpFile, format, rs); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return err
	}

	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming export file: %w", err)
	}
	return nil
}

// Encode writes rs to w in the given format.
func Encode(w io.Writer, format Format, rs *media.ResultSet) error {
	switch format {
	case FormatJSON:
		return encodeJSON(w, rs)
	case FormatCSV:
		return encodeCSV(w, rs)
	case FormatYAML:
		return encodeYAML(w, rs)
	case FormatXLSX:
		return encodeXLSX(w, rs)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

func encodeJSON(w io.Writer, rs *media.ResultSet) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(NewDocument(rs)); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

func encodeYAML(w io.Writer, rs *media.ResultSet) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewDocument(rs)); err != nil {
		return fmt.Errorf("encoding YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encoding YAML: %w", err)
	}
	return nil
}

func encodeCSV(w io.Writer, rs *media.ResultSet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for i, a := range NewDocument(rs).Videos {
		if err := cw.Write(row(i, a)); err != nil {
			return fmt.Errorf("writing CSV record: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("writing CSV: %w", err)
	}
	return nil
}

func encodeXLSX(w io.Writer, rs *media.ResultSet) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("writing XLSX header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(columns), 1)
	if err != nil {
		return fmt.Errorf("computing header range: %w", err)
	}
	if err := f.SetCellStyle(sheetName, "A1", last, bold); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}
	if err := f.SetColWidth(sheetName, "B", "B", 80); err != nil {
		return fmt.Errorf("sizing URL column: %w", err)
	}

	for i, a := range NewDocument(rs).Videos {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("computing cell: %w", err)
		}
		values := []interface{}{
			i + 1, a.URL, a.Quality, a.Resolution, a.Format, a.FormatCode,
			a.ContentType.HasVideo, a.ContentType.HasAudio, a.ContentType.Description,
			a.EstimatedSize, a.QualityScore, a.RuleID,
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("writing XLSX row %d: %w", i+1, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing XLSX: %w", err)
	}
	return nil
}

func row(i int, a media.Asset) []string {
	return []string{
		strconv.Itoa(i + 1),
		a.URL,
		a.Quality,
		a.Resolution,
		a.Format,
		a.FormatCode,
		strconv.FormatBool(a.ContentType.HasVideo),
		strconv.FormatBool(a.ContentType.HasAudio),
		a.ContentType.Description,
		a.EstimatedSize,
		strconv.Itoa(a.QualityScore),
		a.RuleID,
	}
}
