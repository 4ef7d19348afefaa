package service

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/cleberrangel/caregiver-fit-api/internal/model"
	"github.com/xuri/excelize/v2"
)

// Nomes das planilhas do relatório
const (
	SheetQuadrants = "象限矩陣"
	SheetHours     = "時數分配"
	SheetRadar     = "適性雷達"
	SheetAdvice    = "建議"
)

// XLSXMime é o content-type do relatório exportado
const XLSXMime = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExcelGenerator gera o relatório XLSX de uma avaliação
type ExcelGenerator struct{}

// NewExcelGenerator cria um novo gerador de Excel
func NewExcelGenerator() *ExcelGenerator {
	return &ExcelGenerator{}
}

type sheetStyles struct {
	header int
	odd    int
	even   int
	bold   int
}

// Generate monta o arquivo com as quatro planilhas
func (g *ExcelGenerator) Generate(a *model.Assessment) (*bytes.Buffer, error) {
	if a == nil || a.Report == nil {
		return nil, errors.New("avaliação sem relatório")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetQuadrants); err != nil {
		return nil, fmt.Errorf("renomear sheet: %w", err)
	}
	for _, name := range []string{SheetHours, SheetRadar, SheetAdvice} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("criar sheet %s: %w", name, err)
		}
	}

	st, err := g.newStyles(f)
	if err != nil {
		return nil, fmt.Errorf("criar estilos: %w", err)
	}

	steps := []struct {
		name string
		fn   func(*excelize.File, *model.Assessment, sheetStyles) error
	}{
		{SheetQuadrants, g.writeQuadrants},
		{SheetHours, g.writeHours},
		{SheetRadar, g.writeRadar},
		{SheetAdvice, g.writeAdvice},
	}
	for _, s := range steps {
		if err := s.fn(f, a, st); err != nil {
			return nil, fmt.Errorf("escrever %s: %w", s.name, err)
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("escrever buffer: %w", err)
	}

	return buf, nil
}

// FileName é o nome sugerido para download
func (g *ExcelGenerator) FileName(a *model.Assessment) string {
	return fmt.Sprintf("caregiver-assessment-%s.xlsx", a.ID)
}

func (g *ExcelGenerator) newStyles(f *excelize.File) (sheetStyles, error) {
	var st sheetStyles
	var err error

	st.header, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"B45309"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Border: border("000000"),
	})
	if err != nil {
		return st, err
	}

	st.odd, err = f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"F5F5F4"}, Pattern: 1},
		Border:    border("D9D9D9"),
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return st, err
	}

	st.even, err = f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"FFFFFF"}, Pattern: 1},
		Border:    border("D9D9D9"),
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return st, err
	}

	st.bold, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 12}})
	return st, err
}

func border(color string) []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: color, Style: 1},
		{Type: "top", Color: color, Style: 1},
		{Type: "bottom", Color: color, Style: 1},
		{Type: "right", Color: color, Style: 1},
	}
}

// writeTable escreve cabeçalho na linha startRow e as linhas com estilo alternado
func writeTable(f *excelize.File, sheet string, startRow int, headers []string, rows [][]interface{}, st sheetStyles) error {
	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, startRow)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, st.header); err != nil {
			return err
		}
	}

	for i, row := range rows {
		style := st.even
		if i%2 == 1 {
			style = st.odd
		}
		for col, v := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, startRow+i+1)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
			if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
				return err
			}
		}
	}

	return fitColumns(f, sheet, len(headers))
}

func fitColumns(f *excelize.File, sheet string, numCols int) error {
	for col := 1; col <= numCols; col++ {
		colName, _ := excelize.ColumnNumberToName(col)
		if err := f.SetColWidth(sheet, colName, colName, 24); err != nil {
			return err
		}
	}
	return nil
}

func (g *ExcelGenerator) writeQuadrants(f *excelize.File, a *model.Assessment, st sheetStyles) error {
	r := a.Report

	rows := make([][]interface{}, 0, len(r.Buckets))
	for _, b := range r.Buckets {
		names := make([]string, 0, len(b.Tasks))
		for _, t := range b.Tasks {
			names = append(names, t.Name)
		}
		rows = append(rows, []interface{}{b.Label, b.Weight, strings.Join(names, "\n"), b.Hours, b.Points})
	}

	if err := writeTable(f, SheetQuadrants, 1, []string{"象限", "權重", "任務", "時數", "分數"}, rows, st); err != nil {
		return err
	}

	footer := len(rows) + 3
	cells := [][2]interface{}{
		{"綜合分數", r.Composite},
		{"座標 X", r.Placement.X},
		{"座標 Y", r.Placement.Y},
	}
	for i, c := range cells {
		label, _ := excelize.CoordinatesToCellName(1, footer+i)
		value, _ := excelize.CoordinatesToCellName(2, footer+i)
		if err := f.SetCellValue(SheetQuadrants, label, c[0]); err != nil {
			return err
		}
		if err := f.SetCellStyle(SheetQuadrants, label, label, st.bold); err != nil {
			return err
		}
		if err := f.SetCellValue(SheetQuadrants, value, c[1]); err != nil {
			return err
		}
	}
	return nil
}

func (g *ExcelGenerator) writeHours(f *excelize.File, a *model.Assessment, st sheetStyles) error {
	r := a.Report

	rows := make([][]interface{}, 0, len(r.Pie))
	for _, p := range r.Pie {
		share := 0.0
		if r.PeriodTotal > 0 {
			share = p.Value * 100 / r.PeriodTotal
		}
		rows = append(rows, []interface{}{p.Name, p.Value, share})
	}

	if err := writeTable(f, SheetHours, 1, []string{"項目", "時數", "佔比 (%)"}, rows, st); err != nil {
		return err
	}

	footer := len(rows) + 3
	totals := [][2]interface{}{
		{"已記錄時數", r.TrackedHours},
		{"閒置時數", r.IdleHours},
		{"期間總時數", r.PeriodTotal},
	}
	for i, t := range totals {
		label, _ := excelize.CoordinatesToCellName(1, footer+i)
		value, _ := excelize.CoordinatesToCellName(2, footer+i)
		if err := f.SetCellValue(SheetHours, label, t[0]); err != nil {
			return err
		}
		if err := f.SetCellValue(SheetHours, value, t[1]); err != nil {
			return err
		}
	}
	return nil
}

func (g *ExcelGenerator) writeRadar(f *excelize.File, a *model.Assessment, st sheetStyles) error {
	rows := make([][]interface{}, 0, len(a.Radar))
	for _, p := range a.Radar {
		rows = append(rows, []interface{}{p.Subject, p.Value, p.FullMark})
	}
	return writeTable(f, SheetRadar, 1, []string{"維度", "分數", "滿分"}, rows, st)
}

func (g *ExcelGenerator) writeAdvice(f *excelize.File, a *model.Assessment, st sheetStyles) error {
	row := 1
	put := func(text string, style int) error {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		row++
		if err := f.SetCellValue(SheetAdvice, cell, text); err != nil {
			return err
		}
		if style != 0 {
			return f.SetCellStyle(SheetAdvice, cell, cell, style)
		}
		return nil
	}

	if err := f.SetColWidth(SheetAdvice, "A", "A", 100); err != nil {
		return err
	}

	if a.Analysis == nil {
		return put("尚無分析結果", st.bold)
	}

	if err := put("個人適性建議", st.bold); err != nil {
		return err
	}
	for _, p := range Paragraphs(a.Analysis.SuitabilityAdvice) {
		if err := put(p, st.even); err != nil {
			return err
		}
	}

	row++
	if err := put("AI 可以怎麼協助你", st.bold); err != nil {
		return err
	}
	for _, l := range a.Assistance {
		text := l.Text
		if l.ListItem {
			text = "• " + text
		}
		if err := put(text, 0); err != nil {
			return err
		}
	}
	return nil
}
