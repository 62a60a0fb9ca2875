package ingestion_engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"
	"strings"
	"unicode/utf8"

	"code.sajari.com/docconv"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/autoprovider/fileparse/internal/core"
)

// plainTextExts go straight to the fallback decoder; the engine has nothing
// to add for them.
var plainTextExts = map[string]bool{
	"txt": true, "md": true, "csv": true, "json": true,
}

// EngineConverter implements core.Converter. Spreadsheets go through
// excelize so embedded pictures and sheet tables survive as artifacts;
// everything else goes through docconv via a temp-file handoff. When the
// engine fails or produces nothing, a best-effort text decode steps in, so
// Convert always yields some text.
type EngineConverter struct {
	log *zap.Logger
}

func NewEngineConverter(log *zap.Logger) *EngineConverter {
	return &EngineConverter{log: log}
}

var _ core.Converter = (*EngineConverter)(nil)

func (c *EngineConverter) Convert(ctx context.Context, data []byte, ext string) (*core.ConversionResult, error) {
	if plainTextExts[ext] {
		return &core.ConversionResult{Markdown: fallbackDecode(data, ext), Fallback: true}, nil
	}

	var (
		res *core.ConversionResult
		err error
	)
	switch ext {
	case "xlsx":
		res, err = c.convertWorkbook(data)
	default:
		res, err = c.convertWithDocconv(ctx, data, ext)
	}

	if err != nil || res == nil || strings.TrimSpace(res.Markdown) == "" {
		if err != nil {
			c.log.Warn("conversion engine failed, using fallback decoding",
				zap.String("ext", ext), zap.Error(err))
		}
		return &core.ConversionResult{Markdown: fallbackDecode(data, ext), Fallback: true}, nil
	}
	return res, nil
}

// convertWithDocconv hands the bytes to docconv through a temporary file.
// The temp file is removed on every exit path.
func (c *EngineConverter) convertWithDocconv(_ context.Context, data []byte, ext string) (*core.ConversionResult, error) {
	tmp, err := os.CreateTemp("", "parse-*."+ext)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close temp file: %w", err)
	}

	res, err := docconv.ConvertPath(tmp.Name())
	if err != nil {
		return nil, fmt.Errorf("docconv: %w", err)
	}
	if res == nil {
		return nil, errors.New("docconv returned no document")
	}
	return &core.ConversionResult{Markdown: res.Body}, nil
}

// convertWorkbook renders each sheet as a markdown table and collects the
// sheet grids plus any embedded pictures as artifacts, in sheet order.
func (c *EngineConverter) convertWorkbook(data []byte) (*core.ConversionResult, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	var artifacts []core.EmbeddedArtifact

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		if len(rows) == 0 {
			continue
		}

		b.WriteString("## " + sheet + "\n\n")
		writeMarkdownTable(&b, rows)
		artifacts = append(artifacts, core.EmbeddedArtifact{Kind: core.ArtifactTable, Cells: rows})

		cells, err := f.GetPictureCells(sheet)
		if err != nil {
			c.log.Warn("listing sheet pictures failed", zap.String("sheet", sheet), zap.Error(err))
			continue
		}
		for _, cell := range cells {
			pics, err := f.GetPictures(sheet, cell)
			if err != nil {
				c.log.Warn("reading picture failed", zap.String("cell", cell), zap.Error(err))
				continue
			}
			for _, pic := range pics {
				img, _, err := image.Decode(bytes.NewReader(pic.File))
				if err != nil {
					c.log.Warn("embedded picture not decodable", zap.String("cell", cell), zap.Error(err))
					continue
				}
				artifacts = append(artifacts, core.EmbeddedArtifact{Kind: core.ArtifactPicture, Image: img})
			}
		}
	}

	return &core.ConversionResult{Markdown: b.String(), Artifacts: artifacts}, nil
}

func writeMarkdownTable(b *strings.Builder, rows [][]string) {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	for i, row := range rows {
		b.WriteString("|")
		for j := 0; j < width; j++ {
			cell := ""
			if j < len(row) {
				cell = strings.ReplaceAll(row[j], "|", "\\|")
			}
			b.WriteString(" " + cell + " |")
		}
		b.WriteString("\n")
		if i == 0 {
			b.WriteString("|" + strings.Repeat(" --- |", width) + "\n")
		}
	}
	b.WriteString("\n")
}

// fallbackDecode is the best-effort decoder: lenient UTF-8, and for JSON a
// stable two-space re-indentation that degrades to the raw text when the
// payload does not parse. It never fails.
func fallbackDecode(data []byte, ext string) string {
	text := decodeText(data)
	if ext == "json" {
		var v any
		if err := json.Unmarshal([]byte(text), &v); err == nil {
			if pretty, err := json.MarshalIndent(v, "", "  "); err == nil {
				return string(pretty)
			}
		}
	}
	return text
}

func decodeText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	return strings.ToValidUTF8(string(data), string(utf8.RuneError))
}
