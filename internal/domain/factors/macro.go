package factors

import (
	"sort"

	"github.com/alphascore/alphascore/internal/domain"
)

// evaluateMacro passes pre-normalized environment indicators through with
// equal weights and a clamp. The engine deliberately does no macro modeling
// of its own; that lives upstream.
func (l *Library) evaluateMacro(bundle *domain.RawSignalBundle, _ string) domain.CategoryScore {
	m := bundle.Macro
	if m == nil || len(m.Indicators) == 0 {
		return aggregate(domain.CategoryMacro, 1, []domain.FactorResult{
			absent("macro_composite", 1.0),
		})
	}

	names := make([]string, 0, len(m.Indicators))
	for name := range m.Indicators {
		names = append(names, name)
	}
	sort.Strings(names)

	weight := 1.0 / float64(len(names))
	factors := make([]domain.FactorResult, 0, len(names))
	for _, name := range names {
		raw := m.Indicators[name]
		f := scored(name, weight, raw, clamp01(raw))
		if raw < 0 || raw > 1 {
			f.Note = "clamped to [0,1]"
		}
		factors = append(factors, f)
	}

	return aggregate(domain.CategoryMacro, len(names), factors)
}
