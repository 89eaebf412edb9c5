package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNodesCommandStructure(t *testing.T) {
	assert.NotNil(t, nodesCmd)
	assert.Equal(t, "nodes", nodesCmd.Use)
	assert.NotEmpty(t, nodesCmd.Short)
	assert.NotEmpty(t, nodesCmd.Long)
	assert.NotNil(t, nodesCmd.RunE)
}

func TestNodesIsAddedToRoot(t *testing.T) {
	found := false
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == "nodes" {
			found = true
			break
		}
	}
	assert.True(t, found, "nodes command should be added to root command")
}

func TestNodesCommandExample(t *testing.T) {
	assert.Contains(t, nodesCmd.Long, "Example:")
	assert.Contains(t, nodesCmd.Long, "keyscope nodes")
}

// TestNodesCmd_Execute_InvalidConfig tests execution with a config that
// fails validation before any connection is attempted
func TestNodesCmd_Execute_InvalidConfig(t *testing.T) {
	origCfgFile := cfgFile
	defer func() {
		cfgFile = origCfgFile
		rootCmd.SetArgs(nil)
	}()

	configFile := createTempTestConfig(t, map[string]interface{}{
		"target": map[string]interface{}{
			"seeds": []string{"not-an-address"},
		},
	})

	rootCmd.SetArgs([]string{"nodes", "--config", configFile})
	err := rootCmd.Execute()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}
