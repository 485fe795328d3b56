package submission

import "github.com/stretchr/testify/mock"

// MatchSubmission creates a custom matcher for submission arguments in mocks
func MatchSubmission(matcher func(Submission) bool) interface{} {
	return mock.MatchedBy(matcher)
}

// MatchAttempt creates a custom matcher for attempt arguments in mocks
func MatchAttempt(matcher func(Attempt) bool) interface{} {
	return mock.MatchedBy(matcher)
}
