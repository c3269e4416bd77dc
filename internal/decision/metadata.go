package decision

// urgencyMultipliers weight impact level by decision type. Types outside
// the table use 1.0.
var urgencyMultipliers = map[Type]float64{
	TypeSecurity:      1.2,
	TypePerformance:   0.9,
	TypeArchitectural: 0.8,
	TypeBusiness:      0.7,
	TypeDesign:        0.6,
}

// deriveConfidence starts at 50 and rewards a substantial rationale and a
// high stated impact: +20 past 100 chars, +10 more past 200, plus
// impact x 5, capped at 100.
func deriveConfidence(rationale string, impact int) int {
	confidence := 50
	if len(rationale) > 100 {
		confidence += 20
	}
	if len(rationale) > 200 {
		confidence += 10
	}
	confidence += impact * 5
	if confidence > 100 {
		confidence = 100
	}
	return confidence
}

// deriveUrgency is impact scaled by the type multiplier, capped at 5.
func deriveUrgency(typ Type, impact int) float64 {
	mult, ok := urgencyMultipliers[typ]
	if !ok {
		mult = 1.0
	}
	urgency := float64(impact) * mult
	if urgency > 5 {
		urgency = 5
	}
	return urgency
}

// deriveReversibility generally decreases as impact grows, except design
// decisions: those become more reversible at higher stated impact, an
// asymmetry inherited from the original scoring and kept on purpose.
func deriveReversibility(typ Type, impact int) int {
	switch typ {
	case TypeArchitectural:
		return maxInt(1, 5-impact)
	case TypeDatabase, TypeDeployment:
		return maxInt(1, 4-impact)
	case TypeDesign:
		return minInt(5, 3+impact)
	default:
		return 3
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
