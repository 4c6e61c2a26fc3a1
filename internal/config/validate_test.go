package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_NoTasks_StillValid(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, Validate(cfg))
}

func TestValidate_Task_MissingLocalRoot(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tasks = map[string]Task{
		"default": {BaseURL: "https://example.com"},
	}

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "local_root")
}

func TestValidate_Task_MissingBaseURL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tasks = map[string]Task{
		"default": {LocalRoot: "/home/user/sync"},
	}

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base_url")
}

func TestValidate_Task_InvalidMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tasks = map[string]Task{
		"default": {
			BaseURL:   "https://example.com",
			LocalRoot: "/home/user/sync",
			Mode:      "sideways",
		},
	}

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mode")
}

func TestValidate_Task_DuplicateLocalRoot(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tasks = map[string]Task{
		"one": {BaseURL: "https://a.example.com", LocalRoot: "/home/user/sync"},
		"two": {BaseURL: "https://b.example.com", LocalRoot: "/home/user/sync"},
	}

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conflicts with")
}

func TestValidate_Task_OverrideValidationError(t *testing.T) {
	badFilter := FilterConfig{IgnoreMarker: ""}

	cfg := DefaultConfig()
	cfg.Tasks = map[string]Task{
		"default": {
			BaseURL:   "https://example.com",
			LocalRoot: "/home/user/sync",
			Filter:    &badFilter,
		},
	}

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ignore_marker")
}

func TestValidateResolved_RequiresAbsoluteLocalRoot(t *testing.T) {
	rt := &ResolvedTask{
		LocalRoot: "relative/path",
		BaseURL:   "https://example.com",
		Token:     "tok",
		Mode:      ModeBidirectional,
		PollInterval: "30s",
	}

	err := ValidateResolved(rt)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "local_root")
}

func TestValidateResolved_RequiresTokenOrTokenFile(t *testing.T) {
	rt := &ResolvedTask{
		LocalRoot:    "/home/user/sync",
		BaseURL:      "https://example.com",
		Mode:         ModeBidirectional,
		PollInterval: "30s",
	}

	err := ValidateResolved(rt)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token")
}

func TestValidateResolved_RejectsShortPollInterval(t *testing.T) {
	rt := &ResolvedTask{
		LocalRoot:    "/home/user/sync",
		BaseURL:      "https://example.com",
		Token:        "tok",
		Mode:         ModeBidirectional,
		PollInterval: "1s",
	}

	err := ValidateResolved(rt)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "poll_interval")
}

func TestValidateResolved_Valid(t *testing.T) {
	rt := &ResolvedTask{
		LocalRoot:    "/home/user/sync",
		BaseURL:      "https://example.com",
		Token:        "tok",
		Mode:         ModeBidirectional,
		PollInterval: "30s",
	}

	assert.NoError(t, ValidateResolved(rt))
}

func TestValidateChunkSize_MustBeAligned(t *testing.T) {
	errs := validateChunkSize("10485761")
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "multiple of 320 KiB")
}

func TestValidateBandwidthSchedule_MustBeSorted(t *testing.T) {
	errs := validateBandwidthSchedule([]BandwidthScheduleEntry{
		{Time: "09:00", Limit: "1MB"},
		{Time: "08:00", Limit: "0"},
	})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "sorted by time")
}
