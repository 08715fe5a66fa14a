package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfigIsValid(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestValidate_RejectsNonPositiveBlockSize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Prepare.BlockSize = 0
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsNonPositiveBlockWindow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Prepare.BlockWindow = -1
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsEvenBlockWindow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Prepare.BlockWindow = 4
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsRatioToleranceOutOfRange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Detect.RatioTolerance = 0
	assert.Error(t, cfg.Validate())

	cfg.Detect.RatioTolerance = 1
	assert.Error(t, cfg.Validate())

	cfg.Detect.RatioTolerance = 1.5
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsPortOutOfRange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate())

	cfg.Server.Port = 70000
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsNonPositiveMaxUploadMB(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.MaxUploadMB = 0
	assert.Error(t, cfg.Validate())
}
