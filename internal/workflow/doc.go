// Package workflow computes admission state transitions.
//
// Every function in this package is pure: it receives the current Applicant
// and Payment by value, plus any clock or sequence input it needs, and
// returns either the next values or a *errors.DomainError. Nothing here
// performs I/O, and a returned error always means nothing changed. Callers
// own persistence and must serialize read-modify-write cycles per applicant.
//
// State is the pair (Applicant.Status, Applicant.PaymentStatus). The initial
// state is (draft, pending); (accepted, *) and (rejected, *) are terminal.
package workflow
