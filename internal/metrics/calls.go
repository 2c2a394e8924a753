package metrics

import "time"

// ProviderCall records one describe or summarize call. outcome is "ok" or a
// failure kind such as "quota".
func ProviderCall(operation, provider, model, outcome string, duration time.Duration) {
	rec := New(Namespace).
		Dimension("Operation", operation).
		Dimension("Provider", provider).
		Metric("ProviderLatencyMs", float64(duration.Milliseconds()), UnitMilliseconds).
		Count("ProviderCalls").
		Property("model", model).
		Property("outcome", outcome)
	if outcome != "ok" {
		rec.Count("ProviderFailures")
	}
	rec.Flush()
}

// SlideRun records the totals of one processed batch.
func SlideRun(provider string, slides, failures int, slideOrder bool, duration time.Duration) {
	New(Namespace).
		Dimension("Operation", "process").
		Dimension("Provider", provider).
		Metric("SlidesProcessed", float64(slides), UnitCount).
		Metric("SlideFailures", float64(failures), UnitCount).
		Metric("RunDurationMs", float64(duration.Milliseconds()), UnitMilliseconds).
		Property("slideOrder", slideOrder).
		Flush()
}
