package store

import (
	"encoding/json"
	"fmt"

	"github.com/hunkreview/hunkreview/internal/domain"
)

// migrateState decodes a persisted payload, upgrading any of the legacy
// schema shapes this tool has written over time, and validates the result.
// Steps run in order over the raw document before the final unmarshal.
func migrateState(data []byte, comparisonKey, now string) (*domain.ReviewState, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode review state: %w", err)
	}

	if err := migrateComparison(raw, comparisonKey); err != nil {
		return nil, err
	}
	migrateReviewedHunks(raw)
	migrateClassifications(raw)

	hunks, _ := raw["hunks"].(map[string]any)
	if hunks == nil {
		hunks = map[string]any{}
	}
	for _, v := range hunks {
		hunk, ok := v.(map[string]any)
		if !ok {
			continue
		}
		migrateHunk(hunk)
	}
	raw["hunks"] = hunks

	if _, ok := raw["created_at"]; !ok {
		raw["created_at"] = now
	}
	if _, ok := raw["updated_at"]; !ok {
		raw["updated_at"] = now
	}

	upgraded, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode review state: %w", err)
	}
	var state domain.ReviewState
	if err := json.Unmarshal(upgraded, &state); err != nil {
		return nil, fmt.Errorf("failed to decode review state: %w", err)
	}
	if err := validateState(&state); err != nil {
		return nil, err
	}
	return &state, nil
}

// migrateComparison upgrades the legacy scalar comparisonKey field and
// backfills a missing or partial comparison object.
func migrateComparison(raw map[string]any, comparisonKey string) error {
	if legacy, ok := raw["comparisonKey"].(string); ok {
		delete(raw, "comparisonKey")
		if _, has := raw["comparison"]; !has {
			comparisonKey = legacy
		}
	}

	comp, ok := raw["comparison"].(map[string]any)
	if !ok {
		parsed, err := domain.ParseComparisonKey(comparisonKey)
		if err != nil {
			return err
		}
		raw["comparison"] = map[string]any{
			"old":          parsed.Old,
			"new":          parsed.New,
			"working_tree": parsed.WorkingTree,
			"key":          parsed.Key,
		}
		return nil
	}
	// Older files could store a null compare ref.
	if comp["new"] == nil {
		comp["new"] = "HEAD"
	}
	return nil
}

// migrateReviewedHunks converts the legacy flat list of approved hunk keys
// into per-hunk approved_via entries.
func migrateReviewedHunks(raw map[string]any) {
	var legacy []any
	for _, field := range []string{"reviewedHunks", "reviewed_hunks"} {
		if list, ok := raw[field].([]any); ok && legacy == nil {
			legacy = list
		}
		delete(raw, field)
	}
	if legacy == nil {
		return
	}

	hunks, _ := raw["hunks"].(map[string]any)
	if hunks == nil {
		hunks = map[string]any{}
	}
	for _, v := range legacy {
		key, ok := v.(string)
		if !ok {
			continue
		}
		hunk, ok := hunks[key].(map[string]any)
		if !ok {
			hunk = map[string]any{}
		}
		hunk["approved_via"] = domain.ApprovedViaReview
		hunks[key] = hunk
	}
	raw["hunks"] = hunks
}

// migrateClassifications folds the legacy top-level classifications dict
// into per-hunk label fields.
func migrateClassifications(raw map[string]any) {
	classifications, ok := raw["classifications"].(map[string]any)
	if !ok {
		return
	}
	delete(raw, "classifications")

	hunks, _ := raw["hunks"].(map[string]any)
	if hunks == nil {
		hunks = map[string]any{}
	}
	for key, v := range classifications {
		c, ok := v.(map[string]any)
		if !ok {
			continue
		}
		hunk, ok := hunks[key].(map[string]any)
		if !ok {
			hunk = map[string]any{}
		}
		hunk["label"] = c["reason"]
		hunks[key] = hunk
	}
	raw["hunks"] = hunks
}

// migrateHunk upgrades a single hunk record in place.
func migrateHunk(hunk map[string]any) {
	// reason was the pre-rename name for label.
	if reason, ok := hunk["reason"]; ok {
		hunk["label"] = reason
		delete(hunk, "reason")
	}

	// reviewed was a plain bool before approved_via existed.
	if reviewed, ok := hunk["reviewed"]; ok {
		delete(hunk, "reviewed")
		if _, has := hunk["approved_via"]; !has {
			if b, _ := reviewed.(bool); b {
				hunk["approved_via"] = domain.ApprovedViaReview
			} else {
				hunk["approved_via"] = nil
			}
		}
	}

	// reviewed_by recorded who approved: agent meant trust, human meant review.
	if by, ok := hunk["reviewed_by"]; ok {
		delete(hunk, "reviewed_by")
		if _, has := hunk["approved_via"]; !has {
			switch by {
			case "agent":
				hunk["approved_via"] = "trust"
			case "human":
				hunk["approved_via"] = domain.ApprovedViaReview
			default:
				hunk["approved_via"] = nil
			}
		}
	}

	// A scalar label was free-form text, which is now reasoning.
	if label, ok := hunk["label"]; ok {
		if _, isList := label.([]any); !isList {
			if _, has := hunk["reasoning"]; !has {
				hunk["reasoning"] = label
			}
			delete(hunk, "label")
		}
	}

	// trust was the pre-rename name for the label list.
	if trust, ok := hunk["trust"]; ok {
		hunk["label"] = trust
		delete(hunk, "trust")
	}

	if _, ok := hunk["label"]; !ok {
		hunk["label"] = []any{}
	}

	if count, ok := hunk["expected_count"]; ok {
		hunk["count"] = count
		delete(hunk, "expected_count")
	}

	// Trust approval is computed dynamically now, never stored.
	if hunk["approved_via"] == "trust" {
		hunk["approved_via"] = nil
	}

	for _, stale := range []string{"suggested", "review", "trivial", "human"} {
		delete(hunk, stale)
	}
}

// validateState rejects payloads the migration pipeline could not bring
// into the current schema. Callers treat the error as a corrupt file.
func validateState(state *domain.ReviewState) error {
	if state.Comparison.Key == "" {
		return fmt.Errorf("review state missing comparison key")
	}
	for key, hunk := range state.Hunks {
		if hunk == nil {
			return fmt.Errorf("review state has null hunk entry %q", key)
		}
		if hunk.ApprovedVia != nil && *hunk.ApprovedVia != domain.ApprovedViaReview {
			return fmt.Errorf("hunk %q has invalid approved_via %q", key, *hunk.ApprovedVia)
		}
		if hunk.Label == nil {
			hunk.Label = []string{}
		}
	}
	if state.Hunks == nil {
		state.Hunks = map[string]*domain.HunkState{}
	}
	if state.TrustLabel == nil {
		state.TrustLabel = []string{}
	}
	return nil
}
