package chat

// FailureKind categorizes why a provider call did not produce text.
type FailureKind int

const (
	// FailureUnknown is any failure that matched no other category.
	FailureUnknown FailureKind = iota
	// FailureInvalidKey means the credentials were rejected.
	FailureInvalidKey
	// FailureQuota means the provider rate limited the call or the quota ran out.
	FailureQuota
	// FailureNetwork means the provider could not be reached or returned a 5xx.
	FailureNetwork
	// FailureEmptyResponse means the call succeeded but carried no text.
	FailureEmptyResponse
	// FailureLocal means the input could not be prepared (e.g. unreadable image).
	FailureLocal
)

// String returns a stable snake_case name used in logs, metrics and JSON.
func (k FailureKind) String() string {
	switch k {
	case FailureInvalidKey:
		return "invalid_key"
	case FailureQuota:
		return "quota"
	case FailureNetwork:
		return "network"
	case FailureEmptyResponse:
		return "empty_response"
	case FailureLocal:
		return "local"
	default:
		return "unknown"
	}
}

// Failure is a typed, non-fatal provider failure.
type Failure struct {
	Kind    FailureKind
	Message string
}

// Result is the outcome of one describe or summarize call: either text or a
// Failure. It lets callers tell provider errors from successful output
// without inspecting strings.
type Result struct {
	Text    string
	Failure *Failure
}

// Success wraps provider output.
func Success(text string) Result {
	return Result{Text: text}
}

// Failed converts an error into a Result, classifying it with Classify.
func Failed(err error) Result {
	return Result{Failure: &Failure{Kind: Classify(err), Message: err.Error()}}
}

// LocalFailure records a failure that happened before the provider was called.
func LocalFailure(err error) Result {
	return Result{Failure: &Failure{Kind: FailureLocal, Message: err.Error()}}
}

// OK reports whether the call produced text.
func (r Result) OK() bool {
	return r.Failure == nil
}

// String renders the result the way it appears in the transcript and the UI:
// the text on success, "Error: <details>" otherwise.
func (r Result) String() string {
	if r.Failure != nil {
		return "Error: " + r.Failure.Message
	}
	return r.Text
}
