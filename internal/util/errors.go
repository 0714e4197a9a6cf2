package util

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailRegistered    = errors.New("email already registered")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrStageNotFound      = errors.New("stage not found")
	ErrStageLocked        = errors.New("stage is locked")
	ErrQuickTestNotFound  = errors.New("quick test not found")
	ErrTestNotPublished   = errors.New("test not published or not accessible")
	ErrSessionNotFound    = errors.New("quiz session not found or expired")
	ErrSessionNotReady    = errors.New("quiz session is still counting down")
	ErrNoOptionSelected   = errors.New("an option must be selected")
	ErrNothingToSkip      = errors.New("current question is the only one left unanswered")
	ErrCertificateExists  = errors.New("certificate already issued for this user")
	ErrNotEligible        = errors.New("user is not eligible for a certificate")
	ErrCertNotFound       = errors.New("certificate not found")
	ErrQuestionNoCorrect  = errors.New("question must have exactly one correct option")
	ErrTimerCheckpointOld = errors.New("checkpoint ignored, stored remaining time is lower")
)
