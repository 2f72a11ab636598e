package engine

import (
	"fmt"
	"sort"

	"github.com/buildsense/ieqengine/internal/domain"
)

// deriveFindings turns failed tests into issue and recommendation strings.
// Strings carry no room identifiers so the hierarchy roll-up can de-duplicate
// the same finding across rooms.
func deriveFindings(results map[string]domain.ComplianceResult, passRate float64) (issues, recommendations []string) {
	ids := make([]string, 0, len(results))
	for id := range results {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	recommended := map[domain.Parameter]bool{}
	for _, id := range ids {
		cr := results[id]
		if cr.ComplianceRate >= passRate {
			continue
		}
		issues = append(issues, fmt.Sprintf("%s outside category %s limits (%s severity)",
			cr.Parameter, cr.Category, cr.Severity))
		if !recommended[cr.Parameter] {
			recommended[cr.Parameter] = true
			if rec := recommendationFor(cr.Parameter); rec != "" {
				recommendations = append(recommendations, rec)
			}
		}
	}
	return issues, recommendations
}

func recommendationFor(p domain.Parameter) string {
	switch p {
	case domain.ParamCO2:
		return "Increase outdoor air supply or reduce occupancy density"
	case domain.ParamTemperature:
		return "Review heating/cooling setpoints and solar shading"
	case domain.ParamHumidity:
		return "Check humidification and dehumidification capacity"
	case domain.ParamIlluminance:
		return "Review lighting controls and daylight availability"
	case domain.ParamRadon:
		return "Improve sub-slab ventilation and sealing"
	case domain.ParamVOC:
		return "Identify emission sources and increase ventilation"
	default:
		return ""
	}
}
