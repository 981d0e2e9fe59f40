package queue

const (
	TypeAssessmentAnalyze = "assessment:analyze"
)

type AssessmentAnalyzePayload struct {
	AssessmentID string `json:"assessment_id"`
}
