package lint

// OutcomeKind classifies the result of one rule on one resource.
type OutcomeKind int

// Outcome kinds are mutually exclusive.
const (
	OutcomePass OutcomeKind = iota
	OutcomeViolation
	OutcomeError
)

// String returns the report label of the kind.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeViolation:
		return "WARN"
	case OutcomeError:
		return "ERR"
	default:
		return "OK"
	}
}

// Outcome is the result of one rule on one resource.
type Outcome struct {
	Rule      Rule
	Violation *Violation
	// Err is set when the rule failed to run.
	Err error
}

// Kind returns the outcome kind. An error wins over a violation.
func (o Outcome) Kind() OutcomeKind {
	switch {
	case o.Err != nil:
		return OutcomeError
	case o.Violation != nil:
		return OutcomeViolation
	default:
		return OutcomePass
	}
}

// Message returns the violation message or the error text.
func (o Outcome) Message() string {
	switch o.Kind() {
	case OutcomeError:
		return o.Err.Error()
	case OutcomeViolation:
		return o.Violation.Message
	default:
		return ""
	}
}
