package wizard

// CheckStatus is the verdict of one validation check.
type CheckStatus string

const (
	CheckPass    CheckStatus = "PASS"
	CheckWarning CheckStatus = "WARNING"
	CheckFail    CheckStatus = "FAIL"
)

// ValidationCheck is one line of the model health report. Some model outputs
// put the explanation under "message" instead of "detail"; both are kept.
type ValidationCheck struct {
	Name    string      `json:"name"`
	Status  CheckStatus `json:"status"`
	Detail  string      `json:"detail,omitempty"`
	Message string      `json:"message,omitempty"`
}

// Text returns the check's explanation, whichever field carries it.
func (c ValidationCheck) Text() string {
	if c.Detail != "" {
		return c.Detail
	}
	return c.Message
}

// Fixable reports whether the check may trigger a targeted fix call.
func (c ValidationCheck) Fixable() bool {
	return c.Status == CheckWarning || c.Status == CheckFail
}

// ValidationReport is the structured output of the validate stage, alongside
// its (possibly corrected) element set.
type ValidationReport struct {
	Summary struct {
		OverallHealth string `json:"overallHealth"`
	} `json:"summary"`
	Checks []ValidationCheck `json:"checks"`
}
