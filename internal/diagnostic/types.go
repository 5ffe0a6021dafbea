package diagnostic

import (
	"errors"
	"fmt"
	"strings"

	"mdm-migrate/internal/common"
)

// Findings holds all findings accumulated by a pipeline stage.
type Findings struct {
	Errors   []Finding `json:"errors,omitempty"`
	Warnings []Finding `json:"warnings,omitempty"`
	Infos    []Finding `json:"infos,omitempty"`
}

// Finding represents a single structured finding.
type Finding struct {
	// Severity of the finding.
	Severity Severity `json:"severity"`
	// Code is a unique identifier for this type of finding.
	Code string `json:"code"`
	// Message is the human-readable description.
	Message string `json:"message"`
	// FormID identifies which form this relates to (if any).
	FormID string `json:"formId,omitempty"`
	// FieldID identifies which field this relates to (if any).
	FieldID string `json:"fieldId,omitempty"`
}

// Severity represents the severity level of a finding.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// String returns a human-readable severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return common.UnknownStr
	}
}

// AddError adds an error finding.
func (f *Findings) AddError(code, message, formID, fieldID string) {
	f.Errors = append(f.Errors, Finding{
		Severity: SeverityError,
		Code:     code,
		Message:  message,
		FormID:   formID,
		FieldID:  fieldID,
	})
}

// AddWarning adds a warning finding.
func (f *Findings) AddWarning(code, message, formID, fieldID string) {
	f.Warnings = append(f.Warnings, Finding{
		Severity: SeverityWarning,
		Code:     code,
		Message:  message,
		FormID:   formID,
		FieldID:  fieldID,
	})
}

// AddInfo adds an info finding.
func (f *Findings) AddInfo(code, message, formID, fieldID string) {
	f.Infos = append(f.Infos, Finding{
		Severity: SeverityInfo,
		Code:     code,
		Message:  message,
		FormID:   formID,
		FieldID:  fieldID,
	})
}

// HasErrors returns true if there are any error findings.
func (f *Findings) HasErrors() bool {
	return len(f.Errors) > 0
}

// IsClean returns true if there are no findings of any severity.
func (f *Findings) IsClean() bool {
	return len(f.Errors) == 0 && len(f.Warnings) == 0 && len(f.Infos) == 0
}

// Merge merges another Findings instance into this one.
func (f *Findings) Merge(other Findings) {
	f.Errors = append(f.Errors, other.Errors...)
	f.Warnings = append(f.Warnings, other.Warnings...)
	f.Infos = append(f.Infos, other.Infos...)
}

// ByCode returns all findings (any severity) with the given code.
func (f *Findings) ByCode(code string) []Finding {
	var out []Finding

	for _, list := range [][]Finding{f.Errors, f.Warnings, f.Infos} {
		for _, fd := range list {
			if fd.Code == code {
				out = append(out, fd)
			}
		}
	}

	return out
}

// Error returns a combined error from all error findings, or nil if clean.
func (f *Findings) Error() error {
	if !f.HasErrors() {
		return nil
	}

	var parts []string
	for _, e := range f.Errors {
		parts = append(parts, e.String())
	}

	return errors.New(strings.Join(parts, "; "))
}

// String returns a formatted finding string.
func (f Finding) String() string {
	var prefix []string
	if f.FormID != "" {
		prefix = append(prefix, "["+f.FormID+"]")
	}

	if f.FieldID != "" {
		prefix = append(prefix, f.FieldID)
	}

	msg := f.Message
	if f.Code != "" {
		msg = fmt.Sprintf("[%s] %s", f.Code, msg)
	}

	if len(prefix) > 0 {
		return strings.Join(prefix, " ") + ": " + msg
	}

	return msg
}
