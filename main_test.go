package main

import (
	"os/exec"
	"strings"
	"testing"
)

func TestVersionFlag(t *testing.T) {
	// Build the binary first
	buildCmd := exec.Command("go", "build", "-o", "banbridge_test")
	if err := buildCmd.Run(); err != nil {
		t.Fatalf("Failed to build binary: %v", err)
	}
	defer exec.Command("rm", "banbridge_test").Run()

	// Test -v flag
	cmd := exec.Command("./banbridge_test", "-v")
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("Failed to run with -v flag: %v", err)
	}

	outputStr := strings.TrimSpace(string(output))

	if !strings.HasPrefix(outputStr, "banbridge v") {
		t.Errorf("Expected output to start with 'banbridge v', got: %s", outputStr)
	}

	version := strings.TrimPrefix(outputStr, "banbridge v")
	versionParts := strings.Split(version, ".")
	if len(versionParts) != 3 {
		t.Errorf("Expected semantic version format X.Y.Z, got: %s", version)
	}
}

func TestGenTokenFlag(t *testing.T) {
	buildCmd := exec.Command("go", "build", "-o", "banbridge_test")
	if err := buildCmd.Run(); err != nil {
		t.Fatalf("Failed to build binary: %v", err)
	}
	defer exec.Command("rm", "banbridge_test").Run()

	cmd := exec.Command("./banbridge_test", "-gentoken")
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("Failed to run with -gentoken flag: %v", err)
	}

	token := strings.TrimSpace(string(output))
	if len(token) != 36 || strings.Count(token, "-") != 4 {
		t.Errorf("Expected a uuid token, got: %s", token)
	}
}
