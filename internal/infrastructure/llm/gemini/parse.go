package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/medassure/claims-backoffice/internal/core/domain"
)

// parseFindings validates a classification reply: a JSON array where
// every element is an object carrying a MedicalReportName. The elements
// themselves stay opaque.
func parseFindings(operation, raw string) ([]domain.DocFinding, error) {
	cleaned := stripFences(raw)

	var elements []json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &elements); err != nil {
		return nil, domain.WrapError(domain.ErrUpstreamGeneration, operation, fmt.Errorf("reply is not a JSON list: %w", err))
	}

	findings := make([]domain.DocFinding, 0, len(elements))
	for i, element := range elements {
		var probe struct {
			MedicalReportName string `json:"MedicalReportName"`
		}
		if err := json.Unmarshal(element, &probe); err != nil {
			return nil, domain.WrapError(domain.ErrUpstreamGeneration, operation, fmt.Errorf("element %d is not a JSON object: %w", i, err))
		}
		if probe.MedicalReportName == "" {
			return nil, domain.WrapError(domain.ErrUpstreamGeneration, operation, fmt.Errorf("element %d has no MedicalReportName", i))
		}
		findings = append(findings, domain.DocFinding(element))
	}
	return findings, nil
}

// parseSingleObject validates a one-object reply carrying the given
// field, then returns the raw text with newlines stripped. The stored
// artifact is the model's text, not a re-serialization.
func parseSingleObject(operation, raw, field string) (string, error) {
	cleaned := stripFences(raw)

	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &probe); err != nil {
		return "", domain.WrapError(domain.ErrUpstreamGeneration, operation, fmt.Errorf("reply is not a JSON object: %w", err))
	}
	if _, ok := probe[field]; !ok {
		return "", domain.WrapError(domain.ErrUpstreamGeneration, operation, fmt.Errorf("reply has no %s field", field))
	}
	return stripNewlines(cleaned), nil
}

// stripFences removes a markdown code fence the model was told not to
// emit but sometimes does anyway.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func stripNewlines(s string) string {
	return strings.ReplaceAll(s, "\n", "")
}
