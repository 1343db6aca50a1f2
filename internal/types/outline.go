package types

// Pure JSON contract for the course outline a conversation converges on.
// Not a DB model; it lives inside the session context until published.

type CourseOutline struct {
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Sections    []OutlineSection `json:"sections"`
}

type OutlineSection struct {
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Lessons     []OutlineLesson `json:"lessons"`
}

type OutlineLesson struct {
	Title    string `json:"title"`
	Duration string `json:"duration,omitempty"`
	Content  string `json:"content,omitempty"`
}

func (o *CourseOutline) LessonCount() int {
	n := 0
	for _, s := range o.Sections {
		n += len(s.Lessons)
	}
	return n
}
