package export

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/kardex-api/internal/application/dto"
	"github.com/jhoicas/kardex-api/internal/application/inventory"
)

// Decimales de presentación: costos unitarios y cantidades a 6, valores a 2.
const (
	costPlaces  = 6
	valuePlaces = 2
)

var _ inventory.KardexRenderer = (*KardexXMLBuilder)(nil)

// KardexXMLBuilder exporta el kardex como XML para contabilidad externa.
type KardexXMLBuilder struct{}

// NewKardexXMLBuilder crea el exportador.
func NewKardexXMLBuilder() *KardexXMLBuilder { return &KardexXMLBuilder{} }

func (b *KardexXMLBuilder) ContentType() string { return "application/xml" }
func (b *KardexXMLBuilder) Extension() string   { return "xml" }

// Render construye el documento <Kardex> con saldo inicial, movimientos y saldo final.
func (b *KardexXMLBuilder) Render(_ context.Context, report *dto.KardexReportDTO) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("export: kardex vacío")
	}
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("Kardex")
	root.CreateAttr("method", "promedio-ponderado")
	root.CreateAttr("generatedAt", report.GeneratedAt.Format(time.RFC3339))

	product := root.CreateElement("Product")
	product.CreateAttr("id", strconv.FormatInt(report.ProductID, 10))
	product.CreateElement("Name").SetText(report.ProductName)
	product.CreateElement("UnitMeasure").SetText(report.UnitMeasure)

	period := root.CreateElement("Period")
	if report.From != nil {
		period.CreateAttr("from", report.From.Format(time.RFC3339))
	}
	if report.To != nil {
		period.CreateAttr("to", report.To.Format(time.RFC3339))
	}

	addBalance(root, "Opening", report.Opening)

	entries := root.CreateElement("Entries")
	entries.CreateAttr("count", strconv.Itoa(len(report.Entries)))
	for _, e := range report.Entries {
		el := entries.CreateElement("Entry")
		el.CreateAttr("movementId", strconv.FormatInt(e.MovementID, 10))
		el.CreateAttr("kind", e.Kind)
		el.CreateElement("Date").SetText(e.Date.Format(time.RFC3339))
		if e.Reference != "" {
			el.CreateElement("Reference").SetText(e.Reference)
		}
		el.CreateElement("Quantity").SetText(fixed(e.Quantity, costPlaces))
		el.CreateElement("UnitCost").SetText(fixed(e.UnitCost, costPlaces))
		el.CreateElement("Value").SetText(fixed(e.Value, valuePlaces))
		addBalance(el, "Balance", dto.KardexBalanceDTO{Qty: e.BalanceQty, UnitCost: e.BalanceCost, Value: e.BalanceValue})
	}

	addBalance(root, "Closing", report.Closing)

	doc.Indent(2)
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("export: serializar xml: %w", err)
	}
	return out, nil
}

func addBalance(parent *etree.Element, tag string, b dto.KardexBalanceDTO) {
	el := parent.CreateElement(tag)
	el.CreateElement("Quantity").SetText(fixed(b.Qty, costPlaces))
	el.CreateElement("UnitCost").SetText(fixed(b.UnitCost, costPlaces))
	el.CreateElement("Value").SetText(fixed(b.Value, valuePlaces))
}

func fixed(d decimal.Decimal, places int32) string {
	return d.StringFixed(places)
}
