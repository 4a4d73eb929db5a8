package bench

// DefaultTableConfig returns the built-in benchmark calibration. It mirrors
// config/benchmarks.yaml so the engine works with no config directory at all.
// Bands come from trailing twelve month sector distributions; recalibrate
// with the calibrate command rather than editing knots by hand.
func DefaultTableConfig() *TableConfig {
	return &TableConfig{
		Version: "2025.3",
		Curve:   DefaultCurveConfig(),
		Aliases: DefaultAliases(),
		Sectors: map[string]MetricBands{
			SectorEnergy: {
				MetricPE:       {P25: 8, Median: 12, P75: 18, Max: 30},
				MetricPB:       {P25: 1.0, Median: 1.5, P75: 2.2, Max: 4.0},
				MetricEVEBITDA: {P25: 4, Median: 6, P75: 8, Max: 14},
				MetricPS:       {P25: 0.6, Median: 1.0, P75: 1.6, Max: 3.0},
			},
			SectorMaterials: {
				MetricPE:       {P25: 10, Median: 14, P75: 20, Max: 35},
				MetricPB:       {P25: 1.2, Median: 1.8, P75: 2.6, Max: 4.5},
				MetricEVEBITDA: {P25: 5, Median: 7, P75: 9, Max: 15},
				MetricPS:       {P25: 0.8, Median: 1.2, P75: 1.8, Max: 3.5},
			},
			SectorIndustrials: {
				MetricPE:       {P25: 14, Median: 18, P75: 24, Max: 40},
				MetricPB:       {P25: 2.0, Median: 3.0, P75: 4.5, Max: 8.0},
				MetricEVEBITDA: {P25: 8, Median: 11, P75: 14, Max: 22},
				MetricPS:       {P25: 1.0, Median: 1.6, P75: 2.4, Max: 4.5},
			},
			SectorDiscretionary: {
				MetricPE:       {P25: 15, Median: 20, P75: 28, Max: 50},
				MetricPB:       {P25: 2.5, Median: 4.0, P75: 6.0, Max: 12.0},
				MetricEVEBITDA: {P25: 8, Median: 12, P75: 16, Max: 28},
				MetricPS:       {P25: 0.8, Median: 1.4, P75: 2.2, Max: 4.5},
			},
			SectorStaples: {
				MetricPE:       {P25: 16, Median: 20, P75: 25, Max: 38},
				MetricPB:       {P25: 2.5, Median: 3.5, P75: 5.0, Max: 9.0},
				MetricEVEBITDA: {P25: 10, Median: 13, P75: 16, Max: 24},
				MetricPS:       {P25: 0.8, Median: 1.2, P75: 1.8, Max: 3.0},
			},
			SectorHealthCare: {
				MetricPE:       {P25: 16, Median: 22, P75: 30, Max: 55},
				MetricPB:       {P25: 2.5, Median: 4.0, P75: 6.0, Max: 12.0},
				MetricEVEBITDA: {P25: 10, Median: 14, P75: 18, Max: 30},
				MetricPS:       {P25: 1.2, Median: 2.0, P75: 3.5, Max: 7.0},
			},
			SectorFinancials: {
				MetricPE:       {P25: 8, Median: 11, P75: 15, Max: 25},
				MetricPB:       {P25: 0.8, Median: 1.2, P75: 1.7, Max: 3.0},
				MetricEVEBITDA: {P25: 6, Median: 9, P75: 12, Max: 20},
				MetricPS:       {P25: 1.5, Median: 2.5, P75: 3.5, Max: 6.0},
			},
			SectorInfoTech: {
				MetricPE:       {P25: 20, Median: 28, P75: 40, Max: 60},
				MetricPB:       {P25: 4.0, Median: 6.0, P75: 9.0, Max: 18.0},
				MetricEVEBITDA: {P25: 12, Median: 18, P75: 25, Max: 40},
				MetricPS:       {P25: 3.0, Median: 5.0, P75: 8.0, Max: 15.0},
			},
			SectorCommunication: {
				MetricPE:       {P25: 14, Median: 18, P75: 26, Max: 45},
				MetricPB:       {P25: 1.8, Median: 2.8, P75: 4.0, Max: 8.0},
				MetricEVEBITDA: {P25: 6, Median: 9, P75: 13, Max: 22},
				MetricPS:       {P25: 1.5, Median: 2.5, P75: 4.0, Max: 8.0},
			},
			SectorUtilities: {
				MetricPE:       {P25: 14, Median: 17, P75: 21, Max: 30},
				MetricPB:       {P25: 1.4, Median: 1.8, P75: 2.3, Max: 3.5},
				MetricEVEBITDA: {P25: 8, Median: 10, P75: 12, Max: 17},
				MetricPS:       {P25: 1.2, Median: 1.8, P75: 2.5, Max: 4.0},
			},
			SectorRealEstate: {
				MetricPE:       {P25: 25, Median: 35, P75: 45, Max: 70},
				MetricPB:       {P25: 1.2, Median: 1.7, P75: 2.4, Max: 4.0},
				MetricEVEBITDA: {P25: 12, Median: 16, P75: 20, Max: 30},
				MetricPS:       {P25: 3.0, Median: 5.0, P75: 7.0, Max: 12.0},
			},
		},
		Default: MetricBands{
			MetricPE:       {P25: 12, Median: 18, P75: 26, Max: 45},
			MetricPB:       {P25: 1.5, Median: 2.5, P75: 4.0, Max: 8.0},
			MetricEVEBITDA: {P25: 7, Median: 11, P75: 15, Max: 25},
			MetricPS:       {P25: 1.0, Median: 2.0, P75: 3.5, Max: 7.0},
		},
	}
}

// DefaultAliases maps the provider labels seen in production feeds onto
// canonical sector keys. Lookup normalizes case and punctuation first, so
// "Health Care", "health-care" and "HEALTHCARE" need no separate entries.
func DefaultAliases() map[string]string {
	return map[string]string{
		"tech":               SectorInfoTech,
		"technology":         SectorInfoTech,
		"it":                 SectorInfoTech,
		"information_tech":   SectorInfoTech,
		"healthcare":         SectorHealthCare,
		"health":             SectorHealthCare,
		"pharma":             SectorHealthCare,
		"consumer_cyclical":  SectorDiscretionary,
		"cyclicals":          SectorDiscretionary,
		"retail":             SectorDiscretionary,
		"consumer_defensive": SectorStaples,
		"staples":            SectorStaples,
		"finance":            SectorFinancials,
		"financial":          SectorFinancials,
		"financial_services": SectorFinancials,
		"banks":              SectorFinancials,
		"insurance":          SectorFinancials,
		"telecom":            SectorCommunication,
		"telecommunications": SectorCommunication,
		"communication":      SectorCommunication,
		"communications":     SectorCommunication,
		"media":              SectorCommunication,
		"oil_gas":            SectorEnergy,
		"oil_and_gas":        SectorEnergy,
		"basic_materials":    SectorMaterials,
		"chemicals":          SectorMaterials,
		"industrial":         SectorIndustrials,
		"manufacturing":      SectorIndustrials,
		"utility":            SectorUtilities,
		"reit":               SectorRealEstate,
		"reits":              SectorRealEstate,
		"property":           SectorRealEstate,
	}
}
