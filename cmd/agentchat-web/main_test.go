package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentchat/config"
)

func TestRootCmd_MissingConfig(t *testing.T) {
	t.Setenv(config.EnvProjectEndpoint, "")
	t.Setenv(config.EnvModelDeploymentName, "")
	t.Setenv(config.EnvUseMock, "")
	t.Setenv(config.EnvConfigFile, "")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrMissingConfig)
}

func TestRootCmd_UnknownConfigFile(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--config", "does-not-exist.yaml"})

	assert.Error(t, cmd.Execute())
}
