package insight

import (
	"fmt"

	"github.com/KaramelBytes/surveyloom/internal/survey"
)

// Dimensions are the dataset-level quality scores, each 0-100.
type Dimensions struct {
	Completeness           float64 `json:"completeness"`
	Consistency            float64 `json:"consistency"`
	ClassificationAccuracy float64 `json:"classification_accuracy"`
}

// ColumnQuality scores one column.
type ColumnQuality struct {
	Column                   string   `json:"column"`
	Completeness             float64  `json:"completeness"`
	Consistency              float64  `json:"consistency"`
	ClassificationConfidence float64  `json:"classification_confidence"`
	OverallScore             float64  `json:"overall_score"`
	Issues                   []string `json:"issues"`
}

// QualityRecommendation points at a weak quality dimension.
type QualityRecommendation struct {
	Area           string   `json:"area"`
	Issue          string   `json:"issue"`
	Recommendation string   `json:"recommendation"`
	Priority       Priority `json:"priority"`
}

// QualityReport is the data quality assessment of a survey.
type QualityReport struct {
	OverallScore    float64                 `json:"overall_quality_score"`
	Level           string                  `json:"quality_level"`
	Dimensions      Dimensions              `json:"quality_dimensions"`
	Columns         []ColumnQuality         `json:"column_quality"`
	Recommendations []QualityRecommendation `json:"recommendations"`
	Summary         string                  `json:"summary"`
}

// BuildQualityReport scores every profiled column against its classification.
// Columns without a classification count with confidence 0.
func BuildQualityReport(dc survey.DatasetClassification, profiles []survey.ColumnProfile) QualityReport {
	r := QualityReport{Columns: []ColumnQuality{}, Recommendations: []QualityRecommendation{}}
	var comp, cons, acc []float64
	for _, p := range profiles {
		cq := ColumnQuality{
			Column:                   p.Name,
			Completeness:             p.ResponseRate(),
			Consistency:              consistencyScore(p.UniqueRatio),
			ClassificationConfidence: dc.Classifications[p.Name].Confidence * 100,
			Issues:                   []string{},
		}
		cq.OverallScore = (cq.Completeness + cq.Consistency + cq.ClassificationConfidence) / 3
		if cq.Completeness < 70 {
			cq.Issues = append(cq.Issues, "Low completion rate")
		}
		if cq.ClassificationConfidence < 60 {
			cq.Issues = append(cq.Issues, "Uncertain data type classification")
		}
		comp = append(comp, cq.Completeness)
		cons = append(cons, cq.Consistency)
		acc = append(acc, cq.ClassificationConfidence)
		r.Columns = append(r.Columns, cq)
	}
	r.Dimensions = Dimensions{
		Completeness:           survey.Mean(comp),
		Consistency:            survey.Mean(cons),
		ClassificationAccuracy: survey.Mean(acc),
	}
	r.OverallScore = (r.Dimensions.Completeness + r.Dimensions.Consistency + r.Dimensions.ClassificationAccuracy) / 3

	if r.Dimensions.Completeness < 80 {
		r.Recommendations = append(r.Recommendations, QualityRecommendation{
			Area:           "Data Completeness",
			Issue:          "Low response rates detected",
			Recommendation: "Review survey design and distribution methods",
			Priority:       High,
		})
	}
	if r.Dimensions.ClassificationAccuracy < 70 {
		r.Recommendations = append(r.Recommendations, QualityRecommendation{
			Area:           "Data Classification",
			Issue:          "Uncertain data type classifications",
			Recommendation: "Review data formats and consider manual validation",
			Priority:       Medium,
		})
	}
	r.Level = qualityLevel(r.OverallScore)
	r.Summary = fmt.Sprintf("Overall data quality: %s (%.1f/100). Completeness: %.1f%%, Consistency: %.1f%%, Classification Accuracy: %.1f%%.",
		r.Level, r.OverallScore, r.Dimensions.Completeness, r.Dimensions.Consistency, r.Dimensions.ClassificationAccuracy)
	return r
}

func consistencyScore(uniqueRatio float64) float64 {
	switch {
	case uniqueRatio < 0.1:
		return 90
	case uniqueRatio < 0.5:
		return 70
	default:
		return 50
	}
}

func qualityLevel(score float64) string {
	switch {
	case score > 90:
		return "Excellent"
	case score > 75:
		return "Good"
	case score > 60:
		return "Fair"
	default:
		return "Poor"
	}
}
