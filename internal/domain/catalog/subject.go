package catalog

import "strings"

// SubjectKind names the entity a learner enrolls in and is certified for.
type SubjectKind string

const (
	SubjectCourse   SubjectKind = "course"
	SubjectTraining SubjectKind = "training"
)

func (k SubjectKind) Valid() bool {
	return k == SubjectCourse || k == SubjectTraining
}

func ParseSubjectKind(s string) (SubjectKind, bool) {
	k := SubjectKind(strings.ToLower(strings.TrimSpace(s)))
	return k, k.Valid()
}
