// Package types contains common types used across the application
package types

// CaseView is the externally observable projection of a review case.
type CaseView struct {
	CaseID  string   `json:"case_id"`
	State   string   `json:"state"`
	Label   string   `json:"label,omitempty"`
	Reasons []string `json:"reasons,omitempty"`
}
