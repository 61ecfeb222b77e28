package dto

// GenerateAssignmentRequest asks for an AI-generated assignment.
type GenerateAssignmentRequest struct {
	SubjectID    int64  `json:"subject_id" binding:"required"`
	Title        string `json:"title" binding:"required,max=200"`
	GradeLevel   int    `json:"grade_level" binding:"required,min=1,max=13"`
	QuestionType string `json:"question_type" binding:"required,oneof=MCQ Structured FreeResponse"`
	Topic        string `json:"topic" binding:"max=200"`
	Count        int    `json:"count" binding:"min=1,max=20"`
}

// GenerateAssignmentResponse returns the stored assignment and what is left
// of the quota after the call.
type GenerateAssignmentResponse struct {
	AssignmentID   int64  `json:"assignment_id"`
	Content        string `json:"content"`
	QuotaRemaining int    `json:"quota_remaining"` // -1 = unlimited
}
