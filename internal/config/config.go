// Package config provides configuration helpers for the example commands.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Default controller endpoints.
const (
	DefaultRobotPort   = 1337
	DefaultGripperPort = 1338
)

func init() {
	// A missing .env file is fine; env vars and defaults still apply.
	_ = godotenv.Load()
}

// RobotHost returns the controller host from ROBOT_HOST.
// Falls back to the provided default if not set.
func RobotHost(defaultHost string) string {
	if host := os.Getenv("ROBOT_HOST"); host != "" {
		return host
	}
	return defaultHost
}

// RobotHostRequired returns the controller host from ROBOT_HOST.
// Exits with a usage message if not set.
func RobotHostRequired() string {
	host := os.Getenv("ROBOT_HOST")
	if host == "" {
		fmt.Fprintln(os.Stderr, "Error: ROBOT_HOST environment variable is required")
		fmt.Fprintln(os.Stderr, "Usage: ROBOT_HOST=172.16.0.2 go run ./cmd/...")
		os.Exit(1)
	}
	return host
}

// RobotPort returns the controller TCP port from ROBOT_PORT or the default.
func RobotPort() int {
	return intEnv("ROBOT_PORT", DefaultRobotPort)
}

// GripperPort returns the gripper TCP port from GRIPPER_PORT or the default.
func GripperPort() int {
	return intEnv("GRIPPER_PORT", DefaultGripperPort)
}

func intEnv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: invalid %s=%q, using %d\n", key, v, def)
		return def
	}
	return n
}
