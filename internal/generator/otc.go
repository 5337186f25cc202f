package generator

import (
	"fmt"
	"maps"
	"slices"

	"github.com/th3rrry/minees/internal/model"
)

const (
	otcConfidencePenalty = 5
	otcConfidenceFloor   = 50
)

// Overlay derives an OTC signal from its base forex signal without
// recomputing anything. The base signal is not modified.
func Overlay(base model.Signal, otcID string, now int64) model.Signal {
	sig := base
	sig.ID = fmt.Sprintf("%s-%d", otcID, now)
	sig.Pair = otcID
	sig.Timestamp = now
	sig.Confidence = max(otcConfidenceFloor, base.Confidence-otcConfidencePenalty)
	sig.AnalysisType = model.PathOTC
	sig.Path = model.PathOTC

	params := make(map[string]any, len(base.ExplanationParams)+1)
	maps.Copy(params, base.ExplanationParams)
	params["otcContext"] = true
	sig.ExplanationParams = params
	sig.Reasoning = slices.Clone(base.Reasoning)
	return sig
}
