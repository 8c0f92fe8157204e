package schemas

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/jonathan/resume-tracker/internal/types"
)

// isEmptyDocument reports whether a stored blob carries no value at all.
func isEmptyDocument(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// ParseProfile validates a stored profile blob and decodes it. An empty or
// null blob is an empty profile. A blob that fails validation returns a
// *ValidationError and no profile.
func ParseProfile(data []byte) (*types.Profile, error) {
	if isEmptyDocument(data) {
		return types.EmptyProfile(), nil
	}
	if err := Validate(ProfileSchema, data); err != nil {
		return nil, err
	}
	var profile types.Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	profile.Normalize()
	return &profile, nil
}

// ParseAttachments validates and decodes a stored attachments array.
func ParseAttachments(data []byte) ([]types.JobAttachment, error) {
	if isEmptyDocument(data) {
		return []types.JobAttachment{}, nil
	}
	if err := Validate(AttachmentsSchema, data); err != nil {
		return nil, err
	}
	var attachments []types.JobAttachment
	if err := json.Unmarshal(data, &attachments); err != nil {
		return nil, fmt.Errorf("failed to decode attachments: %w", err)
	}
	return attachments, nil
}

// ParseSettings validates and decodes stored user settings.
func ParseSettings(data []byte) (types.Settings, error) {
	var settings types.Settings
	if isEmptyDocument(data) {
		return settings, nil
	}
	if err := Validate(SettingsSchema, data); err != nil {
		return settings, err
	}
	if err := json.Unmarshal(data, &settings); err != nil {
		return settings, fmt.Errorf("failed to decode settings: %w", err)
	}
	return settings, nil
}
