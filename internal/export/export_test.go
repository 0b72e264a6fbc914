package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"clipharvest/internal/media"
)

func sampleResult() *media.ResultSet {
	return &media.ResultSet{
		TotalFound: 3,
		Assets: []media.Asset{
			{
				URL:           "https://video.xx.fbcdn.net/o1/v/t2/f2/m412/abc.mp4?oh=1&_nc_cat=2",
				Quality:       "HD",
				Resolution:    "1080p",
				Format:        "mp4",
				FormatCode:    "m412",
				ContentType:   media.ContentType{HasVideo: true, HasAudio: true, Description: "Video with audio"},
				EstimatedSize: "~150 MB",
				QualityScore:  100,
				RuleID:        "json-url",
			},
			{
				URL:           "https://video.xx.fbcdn.net/o1/v/t2/f2/m78/def.mp4?oh=1",
				Quality:       "SD",
				Resolution:    "480p",
				Format:        "mp4",
				FormatCode:    "m78",
				ContentType:   media.ContentType{HasVideo: true, HasAudio: true, Description: "Video with audio"},
				EstimatedSize: "~60 MB",
				QualityScore:  60,
				RuleID:        "media-element",
			},
		},
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"out.json", FormatJSON, false},
		{"OUT.CSV", FormatCSV, false},
		{"a/b.yml", FormatYAML, false},
		{"b.yaml", FormatYAML, false},
		{"c.xlsx", FormatXLSX, false},
		{"d.txt", "", true},
		{"noext", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFromPath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FormatFromPath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("FormatFromPath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "videos.json")
	if err := Write(path, sampleResult()); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if doc.Count != 2 || doc.TotalFound != 3 || doc.Filtered != 1 {
		t.Errorf("counts = %d/%d/%d, want 2/3/1", doc.Count, doc.TotalFound, doc.Filtered)
	}
	if doc.Videos[0].RuleID != "json-url" {
		t.Errorf("source = %q, want json-url", doc.Videos[0].RuleID)
	}
	if bytes.Contains(data, []byte(`\u0026`)) {
		t.Error("URLs should not be HTML-escaped")
	}
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "videos.csv")
	if err := Write(path, sampleResult()); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(records))
	}
	if records[0][1] != "url" || records[1][0] != "1" || records[2][5] != "m78" {
		t.Errorf("unexpected rows: %v", records)
	}
}

func TestWriteYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "videos.yaml")
	if err := Write(path, sampleResult()); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("invalid YAML: %v", err)
	}
	if doc.Count != 2 || len(doc.Videos) != 2 || doc.Videos[1].QualityScore != 60 {
		t.Errorf("unexpected document: %+v", doc)
	}
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "videos.xlsx")
	if err := Write(path, sampleResult()); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("opening workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if rows[1][2] != "HD" {
		t.Errorf("quality cell = %q, want HD", rows[1][2])
	}
}

func TestWriteEmptyResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	if err := Write(path, &media.ResultSet{}); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte(`"videos": []`)) {
		t.Errorf("empty result should serialize an empty array:\n%s", data)
	}
}

func TestWriteUnsupportedLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	if err := Write(filepath.Join(dir, "videos.txt"), sampleResult()); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("unexpected files left behind: %v", entries)
	}
}
