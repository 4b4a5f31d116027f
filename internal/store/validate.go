package store

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"crossposter/internal/platform"
)

// ValidateDraft checks a draft before it is persisted. It is also used by
// the edit operation to re-check a patched post.
func ValidateDraft(d Draft) error {
	err := validation.ValidateStruct(&d,
		validation.Field(&d.Platforms,
			validation.Required.Error("at least one platform is required"),
			validation.By(knownPlatforms),
		),
		validation.Field(&d.ScheduledTime,
			validation.Required.Error("scheduled time is required"),
		),
		validation.Field(&d.Text,
			validation.Required.When(d.Media == "").Error("text is required when no media is attached"),
		),
	)
	if err != nil {
		return &ValidationError{Err: err}
	}
	return nil
}

func knownPlatforms(value interface{}) error {
	ids, _ := value.([]platform.ID)
	for _, id := range ids {
		if !platform.Known(id) {
			return fmt.Errorf("unknown platform %q", id)
		}
	}
	return nil
}

// NormalizePlatforms drops duplicates while preserving order.
func NormalizePlatforms(ids []platform.ID) []platform.ID {
	seen := make(map[platform.ID]struct{}, len(ids))
	out := make([]platform.ID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
