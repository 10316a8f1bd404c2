package camera

// Quality grades a calibration by its RMS reprojection error.
type Quality string

const (
	QualityExcellent Quality = "excellent"
	QualityGood      Quality = "good"
	QualityFair      Quality = "fair"
	QualityPoor      Quality = "poor"
	QualityUnknown   Quality = "unknown"
)

// Reprojection error thresholds (pixels).
const (
	RMSThresholdExcellent = 0.3
	RMSThresholdGood      = 0.6
	RMSThresholdFair      = 1.0
)

// GradeReprojectionError maps an RMS reprojection error to a Quality. Zero
// means the error was not computed.
func GradeReprojectionError(rms float64) Quality {
	switch {
	case rms <= 0:
		return QualityUnknown
	case rms < RMSThresholdExcellent:
		return QualityExcellent
	case rms < RMSThresholdGood:
		return QualityGood
	case rms < RMSThresholdFair:
		return QualityFair
	default:
		return QualityPoor
	}
}

// Usable reports whether a model of this quality should drive the vision loop.
func (q Quality) Usable() bool {
	return q != QualityPoor
}

// String returns a human-readable description of the quality.
func (q Quality) String() string {
	switch q {
	case QualityExcellent:
		return "excellent (RMS < 0.3px)"
	case QualityGood:
		return "good (RMS 0.3-0.6px)"
	case QualityFair:
		return "fair (RMS 0.6-1.0px)"
	case QualityPoor:
		return "poor (RMS > 1.0px)"
	case QualityUnknown:
		return "unknown (RMS not computed)"
	default:
		return string(q)
	}
}
