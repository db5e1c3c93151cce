// Package pdf genera el kardex valorizado en PDF.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Producto + unidad    │  Rango + fecha de generación │
//	│  ─────────────────────────────────────────────────────────  │
//	│  SALDO INICIAL                                               │
//	│  TABLA: Fecha | Tipo | Cant | C.Unit | Valor | Saldo (3 col) │
//	│  ─────────────────────────────────────────────────────────  │
//	│  SALDO FINAL                                                 │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/kardex-api/internal/application/dto"
	"github.com/jhoicas/kardex-api/internal/application/inventory"
)

// Decimales de presentación: costos unitarios y cantidades a 6, valores a 2.
const (
	costPlaces  = 6
	valuePlaces = 2
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

// ── Generator ─────────────────────────────────────────────────────────────────

var _ inventory.KardexRenderer = (*KardexPDFGenerator)(nil)

// KardexPDFGenerator implementa inventory.KardexRenderer usando Maroto v2.
type KardexPDFGenerator struct{}

// NewKardexPDFGenerator construye el generador.
func NewKardexPDFGenerator() *KardexPDFGenerator { return &KardexPDFGenerator{} }

func (g *KardexPDFGenerator) ContentType() string { return "application/pdf" }
func (g *KardexPDFGenerator) Extension() string   { return "pdf" }

// Render genera el PDF y devuelve sus bytes.
func (g *KardexPDFGenerator) Render(_ context.Context, report *dto.KardexReportDTO) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("pdf: kardex vacío")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 8}).
		WithTitle("Kardex "+report.ProductName, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(report))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(balanceRow("SALDO INICIAL", report.Opening))
	m.AddRows(tableHeaderRow())
	m.AddRows(entryRows(report.Entries)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(balanceRow("SALDO FINAL", report.Closing))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: producto (izq) y rango + fecha de generación (der).
func headerRow(report *dto.KardexReportDTO) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New("KARDEX - PROMEDIO PONDERADO", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(report.ProductName, props.Text{
				Style: fontstyle.Bold, Size: 13, Top: 6,
			}),
			text.New(fmt.Sprintf("Código: %d   |   Unidad: %s", report.ProductID, nonEmpty(report.UnitMeasure, "-")), props.Text{
				Size: 8, Top: 13, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("Periodo: "+periodLabel(report), props.Text{
				Size: 8, Align: align.Right, Top: 6,
			}),
			text.New("Generado: "+report.GeneratedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 13, Color: colorGray,
			}),
		),
	)
}

func balanceRow(label string, b dto.KardexBalanceDTO) core.Row {
	return row.New(8).Add(
		col.New(4).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 2,
		})),
		col.New(8).Add(text.New(fmt.Sprintf("Cantidad: %s   |   Costo promedio: $%s   |   Valor: $%s",
			formatNumber(b.Qty, costPlaces),
			formatNumber(b.UnitCost, costPlaces),
			formatNumber(b.Value, valuePlaces),
		), props.Text{Size: 8, Align: align.Right, Top: 2})),
	)
}

// tableHeaderRow: cabecera de la tabla de movimientos.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 7, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Fecha", 2, align.Left),
		h("Tipo", 1, align.Center),
		h("Cant.", 1, align.Right),
		h("C. Unit.", 2, align.Right),
		h("Valor", 2, align.Right),
		h("Saldo", 1, align.Right),
		h("C. Prom.", 1, align.Right),
		h("Valor saldo", 2, align.Right),
	).WithStyle(&props.Cell{BackgroundColor: colorPrimary})
}

// entryRows: una fila por movimiento.
func entryRows(entries []dto.KardexEntryDTO) []core.Row {
	cell := func(s string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(s, props.Text{Size: 7, Align: a, Top: 1, Left: 1, Right: 1}))
	}
	result := make([]core.Row, 0, len(entries))
	for _, e := range entries {
		result = append(result, row.New(6).Add(
			cell(e.Date.Format("02/01/2006 15:04"), 2, align.Left),
			cell(e.Kind, 1, align.Center),
			cell(formatNumber(e.Quantity, 2), 1, align.Right),
			cell("$"+formatNumber(e.UnitCost, costPlaces), 2, align.Right),
			cell("$"+formatNumber(e.Value, valuePlaces), 2, align.Right),
			cell(formatNumber(e.BalanceQty, 2), 1, align.Right),
			cell(formatNumber(e.BalanceCost, valuePlaces), 1, align.Right),
			cell("$"+formatNumber(e.BalanceValue, valuePlaces), 2, align.Right),
		))
	}
	if len(result) == 0 {
		result = append(result, row.New(8).Add(col.New(12).Add(
			text.New("Sin movimientos en el periodo", props.Text{Size: 8, Align: align.Center, Top: 2, Color: colorGray}),
		)))
	}
	return result
}

// ── helpers ───────────────────────────────────────────────────────────────────

func periodLabel(report *dto.KardexReportDTO) string {
	from, to := "inicio", "hoy"
	if report.From != nil {
		from = report.From.Format("02/01/2006")
	}
	if report.To != nil {
		to = report.To.Format("02/01/2006")
	}
	return from + " - " + to
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatNumber redondea a places y usa punto de miles y coma decimal.
// Ej: 1234567.891 con 2 → "1.234.567,89"
func formatNumber(d decimal.Decimal, places int32) string {
	s := d.StringFixed(places)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")
	out := sign + formatThousands(intPart)
	if frac != "" {
		out += "," + frac
	}
	return out
}

// formatThousands inserta puntos de miles en un string numérico sin decimales.
// Ej: "25000" → "25.000", "1000000" → "1.000.000"
func formatThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return string(buf)
}
