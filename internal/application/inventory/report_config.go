package inventory

import (
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/kardex-api/internal/domain"
)

const dateLayout = "2006-01-02"

// ReportConfig define la zona horaria de los reportes y el reloj.
// Los límites de día (from/to solo con fecha) se calculan en Location.
type ReportConfig struct {
	Location *time.Location
	Now      func() time.Time
}

// NewReportConfig construye la configuración con un desfase fijo respecto a UTC (p. ej. -5).
func NewReportConfig(utcOffsetHours int) ReportConfig {
	name := fmt.Sprintf("UTC%+03d:00", utcOffsetHours)
	return ReportConfig{
		Location: time.FixedZone(name, utcOffsetHours*3600),
		Now:      time.Now,
	}
}

func (r ReportConfig) location() *time.Location {
	if r.Location == nil {
		return time.UTC
	}
	return r.Location
}

func (r ReportConfig) now() time.Time {
	if r.Now == nil {
		return time.Now().In(r.location())
	}
	return r.Now().In(r.location())
}

// ParseBound interpreta un límite de rango. Acepta RFC3339 o YYYY-MM-DD; con solo fecha,
// endOfDay=false devuelve 00:00:00 y endOfDay=true el último instante del día local.
// Cadena vacía devuelve nil (sin límite).
func (r ReportConfig) ParseBound(s string, endOfDay bool) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	d, err := time.ParseInLocation(dateLayout, s, r.location())
	if err != nil {
		return nil, fmt.Errorf("%w: fecha inválida %q", domain.ErrInvalidInput, s)
	}
	if endOfDay {
		d = d.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return &d, nil
}
