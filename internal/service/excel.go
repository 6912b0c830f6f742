package service

import (
	"bytes"
	"fmt"

	"github.com/cleberrangel/schedule-progress-api/internal/model"
	"github.com/cleberrangel/schedule-progress-api/internal/progress"
	"github.com/xuri/excelize/v2"
)

const (
	reportSheet = "Relatório"
	tasksSheet  = "Tarefas"
)

// ExcelGenerator gera arquivos Excel de relatórios e registros diários
type ExcelGenerator struct{}

// NewExcelGenerator cria um novo gerador de Excel
func NewExcelGenerator() *ExcelGenerator {
	return &ExcelGenerator{}
}

// GenerateReport escreve uma linha por dia com dados e uma linha de totais
func (g *ExcelGenerator) GenerateReport(report progress.Report) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), reportSheet); err != nil {
		return nil, fmt.Errorf("renomear sheet: %w", err)
	}

	headers := []string{"Data", "Concluídas", "Total", "Percentual"}
	if err := g.writeHeaders(f, reportSheet, headers); err != nil {
		return nil, fmt.Errorf("escrever headers: %w", err)
	}

	rows := make([][]interface{}, 0, len(report.Rows)+1)
	for _, r := range report.Rows {
		rows = append(rows, []interface{}{r.Date, r.CompletedCount, r.TotalCount, float64(r.Percentage) / 100})
	}
	if err := g.writeRows(f, reportSheet, rows, 4); err != nil {
		return nil, fmt.Errorf("escrever dados: %w", err)
	}

	if err := g.writeTotals(f, report, len(rows)+2); err != nil {
		return nil, fmt.Errorf("escrever totais: %w", err)
	}

	if err := g.autoFitColumns(f, reportSheet, len(headers)); err != nil {
		return nil, fmt.Errorf("ajustar colunas: %w", err)
	}

	return g.toBuffer(f)
}

// GenerateDay escreve as tarefas de um dia com seu estado de conclusão
func (g *ExcelGenerator) GenerateDay(record *model.DailyRecord) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), tasksSheet); err != nil {
		return nil, fmt.Errorf("renomear sheet: %w", err)
	}

	headers := []string{"#", "Horário", "Tarefa", "Concluída"}
	if err := g.writeHeaders(f, tasksSheet, headers); err != nil {
		return nil, fmt.Errorf("escrever headers: %w", err)
	}

	rows := make([][]interface{}, 0, len(record.Tasks))
	for _, t := range record.Tasks {
		done := "Não"
		if t.Completed {
			done = "Sim"
		}
		rows = append(rows, []interface{}{t.ID + 1, t.TimeRange, t.TaskName, done})
	}
	if err := g.writeRows(f, tasksSheet, rows, 0); err != nil {
		return nil, fmt.Errorf("escrever dados: %w", err)
	}

	if err := g.autoFitColumns(f, tasksSheet, len(headers)); err != nil {
		return nil, fmt.Errorf("ajustar colunas: %w", err)
	}

	return g.toBuffer(f)
}

func (g *ExcelGenerator) toBuffer(f *excelize.File) (*bytes.Buffer, error) {
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("escrever buffer: %w", err)
	}
	return buf, nil
}

// writeHeaders escreve os cabeçalhos no Excel
func (g *ExcelGenerator) writeHeaders(f *excelize.File, sheet string, headers []string) error {
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:  true,
			Size:  11,
			Color: "FFFFFF",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"4472C4"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Border: thinBorder("000000"),
	})
	if err != nil {
		return err
	}

	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return err
		}
	}

	return nil
}

// writeRows escreve linhas com fundo alternado. percentCol (1-based) recebe
// formato de porcentagem; 0 desliga.
func (g *ExcelGenerator) writeRows(f *excelize.File, sheet string, rows [][]interface{}, percentCol int) error {
	styleOdd, err := f.NewStyle(&excelize.Style{
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"F2F2F2"}, Pattern: 1},
		Border: thinBorder("D9D9D9"),
	})
	if err != nil {
		return err
	}
	styleEven, err := f.NewStyle(&excelize.Style{
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"FFFFFF"}, Pattern: 1},
		Border: thinBorder("D9D9D9"),
	})
	if err != nil {
		return err
	}
	// 9 = "0%"
	stylePercent, err := f.NewStyle(&excelize.Style{
		NumFmt: 9,
		Border: thinBorder("D9D9D9"),
	})
	if err != nil {
		return err
	}

	for i, values := range rows {
		excelRow := i + 2 // Linha 1 é header

		style := styleEven
		if i%2 == 1 {
			style = styleOdd
		}

		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, excelRow)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
			s := style
			if col+1 == percentCol {
				s = stylePercent
			}
			if err := f.SetCellStyle(sheet, cell, cell, s); err != nil {
				return err
			}
		}
	}

	return nil
}

func (g *ExcelGenerator) writeTotals(f *excelize.File, report progress.Report, row int) error {
	style, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Border: thinBorder("000000"),
	})
	if err != nil {
		return err
	}

	average := "N/A"
	if avg, ok := report.Average(); ok {
		average = fmt.Sprintf("%.0f%%", avg)
	}

	values := []interface{}{"Total", report.TotalCompleted, report.TotalTasks, average}
	for col, value := range values {
		cell, _ := excelize.CoordinatesToCellName(col+1, row)
		if err := f.SetCellValue(reportSheet, cell, value); err != nil {
			return err
		}
		if err := f.SetCellStyle(reportSheet, cell, cell, style); err != nil {
			return err
		}
	}
	return nil
}

// autoFitColumns ajusta a largura das colunas
func (g *ExcelGenerator) autoFitColumns(f *excelize.File, sheet string, numCols int) error {
	for col := 1; col <= numCols; col++ {
		colName, _ := excelize.ColumnNumberToName(col)
		width := 15.0
		if sheet == tasksSheet && col == 3 {
			width = 50
		}
		if err := f.SetColWidth(sheet, colName, colName, width); err != nil {
			return err
		}
	}
	return nil
}

func thinBorder(color string) []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: color, Style: 1},
		{Type: "top", Color: color, Style: 1},
		{Type: "bottom", Color: color, Style: 1},
		{Type: "right", Color: color, Style: 1},
	}
}
