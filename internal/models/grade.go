package models

// CourseGrade is a student's final grade for a course run, exported through
// the asynchronous grade job.
type CourseGrade struct {
	CourseKey   string  `db:"course_key" json:"course_id"`
	StudentKey  string  `db:"student_key" json:"student_key"`
	LetterGrade string  `db:"letter_grade" json:"letter_grade"`
	Percent     float64 `db:"percent" json:"percent"`
	Passed      bool    `db:"passed" json:"passed"`
}
