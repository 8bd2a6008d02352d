package report

import (
	"context"
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"

	"stroy-calc/internal/service/calculator"
	"stroy-calc/internal/storage"
)

const (
	estimateSheet = "Расчёт"
	tipsSheet     = "Рекомендации"
)

type EstimateSource interface {
	GetCalculator(ctx context.Context, categoryID int64) (*calculator.CalculatorForm, error)
	Calculate(ctx context.Context, categoryID int64, values map[string]any) (*calculator.Calculation, error)
}

type EstimateService struct {
	source EstimateSource
}

func NewEstimateService(source EstimateSource) *EstimateService {
	return &EstimateService{source: source}
}

// GenerateEstimate считает категорию и отдаёт смету в xlsx вместе с именем файла.
func (s *EstimateService) GenerateEstimate(ctx context.Context, categoryID int64, values map[string]any) ([]byte, string, error) {
	const op = "service.report.GenerateEstimate"

	form, err := s.source.GetCalculator(ctx, categoryID)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	calc, err := s.source.Calculate(ctx, categoryID, values)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	b, err := BuildEstimate(form, calc)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	return b, FileName(form.Category, calc.ID), nil
}

// BuildEstimate рисует два листа: расчёт по товарам и рекомендации.
func BuildEstimate(form *calculator.CalculatorForm, calc *calculator.Calculation) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", estimateSheet); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"E0E0E0"}, Pattern: 1},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 2}},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("bold style: %w", err)
	}

	// шапка: категория и введённые значения
	row := 1
	f.SetCellValue(estimateSheet, cellName(1, row), form.Category.Name)
	f.SetCellStyle(estimateSheet, cellName(1, row), cellName(1, row), boldStyle)
	row++
	f.SetCellValue(estimateSheet, cellName(1, row), "Расчёт №")
	f.SetCellValue(estimateSheet, cellName(2, row), calc.ID)
	row++

	for _, def := range form.Inputs {
		v, ok := calc.Inputs.Value(def.Key)
		if !ok {
			continue
		}
		f.SetCellValue(estimateSheet, cellName(1, row), def.Label)
		f.SetCellValue(estimateSheet, cellName(2, row), v)
		f.SetCellValue(estimateSheet, cellName(3, row), def.Unit)
		row++
	}
	row++

	headers := []string{"Товар", "Количество", "Ед. изм.", "Упаковок", "Цена", "Стоимость", "Примечание"}
	headerRow := row
	for i, name := range headers {
		f.SetCellValue(estimateSheet, cellName(i+1, row), name)
	}
	f.SetCellStyle(estimateSheet, cellName(1, row), cellName(len(headers), row), headerStyle)
	row++

	prices := make(map[int64]float64, len(form.Products))
	for _, p := range form.Products {
		prices[p.ID] = p.Price
	}

	for _, r := range calc.Results {
		f.SetCellValue(estimateSheet, cellName(1, row), r.Name)
		f.SetCellValue(estimateSheet, cellName(5, row), prices[r.ProductID])

		if !r.OK() {
			f.SetCellValue(estimateSheet, cellName(2, row), "недоступно")
			if r.Error != nil {
				f.SetCellValue(estimateSheet, cellName(7, row), r.Error.Message)
			}
			row++
			continue
		}

		f.SetCellValue(estimateSheet, cellName(2, row), round2(r.RawQuantity))
		f.SetCellValue(estimateSheet, cellName(3, row), r.DisplayUnit)
		if r.Packaged {
			f.SetCellValue(estimateSheet, cellName(4, row), r.PackagedQuantity)
		}
		f.SetCellValue(estimateSheet, cellName(6, row), round2(r.TotalCost))
		row++
	}

	if best, ok := calc.Cheapest(); ok {
		row++
		f.SetCellValue(estimateSheet, cellName(1, row), "Самый выгодный вариант")
		f.SetCellValue(estimateSheet, cellName(2, row), best.Name)
		f.SetCellValue(estimateSheet, cellName(6, row), round2(best.TotalCost))
		f.SetCellStyle(estimateSheet, cellName(1, row), cellName(6, row), boldStyle)
	}

	f.SetPanes(estimateSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      headerRow,
		TopLeftCell: cellName(1, headerRow+1),
	})
	f.SetColWidth(estimateSheet, "A", "A", 30)
	f.SetColWidth(estimateSheet, "B", "F", 14)
	f.SetColWidth(estimateSheet, "G", "G", 40)

	if err := writeTips(f, calc, headerStyle); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeTips(f *excelize.File, calc *calculator.Calculation, headerStyle int) error {
	if _, err := f.NewSheet(tipsSheet); err != nil {
		return fmt.Errorf("new sheet: %w", err)
	}

	for i, name := range []string{"Товар", "Тип", "Текст"} {
		f.SetCellValue(tipsSheet, cellName(i+1, 1), name)
	}
	f.SetCellStyle(tipsSheet, "A1", "C1", headerStyle)

	row := 2
	for _, r := range calc.Results {
		if !r.OK() {
			continue
		}
		for _, tip := range r.Recommendations.Tips {
			f.SetCellValue(tipsSheet, cellName(1, row), r.Name)
			f.SetCellValue(tipsSheet, cellName(2, row), "совет")
			f.SetCellValue(tipsSheet, cellName(3, row), tip)
			row++
		}
		for _, warn := range r.Recommendations.Warnings {
			f.SetCellValue(tipsSheet, cellName(1, row), r.Name)
			f.SetCellValue(tipsSheet, cellName(2, row), "внимание")
			f.SetCellValue(tipsSheet, cellName(3, row), warn)
			row++
		}
	}

	f.SetColWidth(tipsSheet, "A", "A", 30)
	f.SetColWidth(tipsSheet, "C", "C", 80)
	return nil
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FileName - имя файла сметы для Content-Disposition.
func FileName(category storage.Category, id string) string {
	slug := category.Slug
	if slug == "" {
		slug = "estimate"
	}
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("%s_%s.xlsx", slug, id)
}
