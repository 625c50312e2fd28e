package domain

import "github.com/google/uuid"

// LinkEnrollment records the bidirectional enrollment between a user and a
// course on the in-memory entities. Both sides are idempotent unions: calling
// this any number of times leaves exactly one entry in each collection.
// Callers persist through the store's atomic enrollment transaction; this
// helper keeps already-loaded copies consistent with what was written.
func LinkEnrollment(user *User, course *Course) {
	if !containsCourse(user.EnrolledCourses, course.ID) {
		user.EnrolledCourses = append(user.EnrolledCourses, course.ID)
	}
	if !containsStudent(course.EnrolledStudents, user.ID) {
		course.EnrolledStudents = append(course.EnrolledStudents, user.ID)
	}
}

func containsCourse(courses []uuid.UUID, id uuid.UUID) bool {
	for _, c := range courses {
		if c == id {
			return true
		}
	}
	return false
}

func containsStudent(students []string, id string) bool {
	for _, s := range students {
		if s == id {
			return true
		}
	}
	return false
}
