// Package validator promotes reasoning provider responses to RCA results only when they are
// complete, in bounds, and grounded in the evidence the provider was shown.
package validator

import (
	"fmt"
	"strings"

	"github.com/miradorstack/incident-rca/internal/models"
	"github.com/miradorstack/incident-rca/internal/utils"
)

const (
	fieldSummary            = "summary"
	fieldRootCause          = "root_cause"
	fieldCausalChain        = "causal_chain"
	fieldEvidenceIDs        = "supporting_evidence_ids"
	fieldEvidenceIDsAlias   = "evidence_ids"
	fieldRecommendedActions = "recommended_actions"
	fieldConfidence         = "confidence"
)

// CheckSchema runs the completeness, type and bounds checks, in order, stopping at the
// first failure. It does not look at evidence ids' validity.
func CheckSchema(resp models.ProviderResponse) error {
	if resp == nil {
		return reject("response is empty")
	}

	_, hasRoot := resp[fieldRootCause]
	evidenceField, hasEvidence := citationField(resp)
	_, hasConfidence := resp[fieldConfidence]
	var missing []string
	if !hasRoot {
		missing = append(missing, fieldRootCause)
	}
	if !hasEvidence {
		missing = append(missing, fieldEvidenceIDs)
	}
	if !hasConfidence {
		missing = append(missing, fieldConfidence)
	}
	if len(missing) > 0 {
		return reject("missing required fields: " + strings.Join(missing, ", "))
	}

	if resp[evidenceField] == nil {
		return reject(fmt.Sprintf("%s must be a list, got null", evidenceField))
	}
	if _, err := stringList(resp[evidenceField]); err != nil {
		return reject(fmt.Sprintf("%s %s", evidenceField, err.Error()))
	}

	confidence, ok := resp[fieldConfidence].(float64)
	if !ok {
		return reject(fmt.Sprintf("confidence must be numeric, got %T", resp[fieldConfidence]))
	}
	if confidence < 0 || confidence > 1 {
		return reject(fmt.Sprintf("confidence %v outside [0.0, 1.0]", confidence))
	}

	rootCause, ok := resp[fieldRootCause].(string)
	if !ok || strings.TrimSpace(rootCause) == "" {
		return reject("root_cause must be a non-empty string")
	}
	if v, ok := resp[fieldSummary]; ok && v != nil {
		if _, isString := v.(string); !isString {
			return reject("summary must be a string")
		}
	}
	for _, field := range []string{fieldCausalChain, fieldRecommendedActions} {
		if v, ok := resp[field]; ok && v != nil {
			if _, err := stringList(v); err != nil {
				return reject(fmt.Sprintf("%s %s", field, err.Error()))
			}
		}
	}
	return nil
}

// Validate runs CheckSchema and then the grounding check: every cited id must belong to
// ranked. Any unknown id rejects the whole response.
func Validate(resp models.ProviderResponse, ranked []models.RankedSignal) (models.RCAResult, error) {
	if err := CheckSchema(resp); err != nil {
		return models.RCAResult{}, err
	}

	field, _ := citationField(resp)
	cited, _ := stringList(resp[field])

	known := make(map[string]struct{}, len(ranked))
	for _, r := range ranked {
		known[r.ID] = struct{}{}
	}

	ids := make([]string, 0, len(cited))
	seen := make(map[string]struct{}, len(cited))
	for _, id := range cited {
		if _, ok := known[id]; !ok {
			return models.RCAResult{}, reject(fmt.Sprintf("invalid evidence reference: %s", id))
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	rootCause := strings.TrimSpace(resp[fieldRootCause].(string))
	if rootCause != models.InsufficientEvidence && len(ids) == 0 {
		return models.RCAResult{}, reject("root cause cites no evidence")
	}

	summary, _ := resp[fieldSummary].(string)
	chain, _ := stringList(resp[fieldCausalChain])
	actions, _ := stringList(resp[fieldRecommendedActions])

	return models.RCAResult{
		Summary:               summary,
		RootCause:             rootCause,
		CausalChain:           chain,
		SupportingEvidenceIDs: ids,
		RecommendedActions:    actions,
		Confidence:            resp[fieldConfidence].(float64),
	}, nil
}

// citationField returns the key holding evidence citations, preferring the canonical name.
func citationField(resp models.ProviderResponse) (string, bool) {
	if _, ok := resp[fieldEvidenceIDs]; ok {
		return fieldEvidenceIDs, true
	}
	if _, ok := resp[fieldEvidenceIDsAlias]; ok {
		return fieldEvidenceIDsAlias, true
	}
	return "", false
}

func stringList(v any) ([]string, error) {
	if v == nil {
		return []string{}, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("must be a list, got %T", v)
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("item %d must be a string, got %T", i, item)
		}
		out = append(out, s)
	}
	return out, nil
}

func reject(reason string) error {
	return utils.NewAppError(utils.KindInvalidRCAResponse, "validate", reason, nil)
}
