// Exercises the gripper: homing, a grasp attempt, and release.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/MMintLab/libfranka/internal/config"
	"github.com/MMintLab/libfranka/pkg/gripper"
)

func main() {
	host := flag.String("host", config.RobotHost("172.16.0.2"), "Gripper host")
	width := flag.Float64("width", 0.02, "Grasp width in meters")
	speed := flag.Float64("speed", 0.1, "Finger speed in m/s")
	force := flag.Float64("force", 20, "Grasp force in N")
	flag.Parse()

	fmt.Printf("🤖 Gripper demo on %s\n", *host)

	g, err := gripper.Connect(context.Background(), *host,
		gripper.Config{Port: config.GripperPort()})
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer g.Close()

	fmt.Printf("✅ Connected (server version %d)\n", g.ServerVersion())

	fmt.Println("🏠 Homing...")
	if err := g.Homing(); err != nil {
		log.Fatalf("Homing failed: %v", err)
	}

	state, err := g.ReadOnce()
	if err != nil {
		log.Fatalf("Reading gripper state failed: %v", err)
	}
	fmt.Printf("   Max width: %.3f m, temperature: %.1f°C\n", state.MaxWidth, state.Temperature)

	fmt.Printf("✊ Grasping at %.3f m...\n", *width)
	grasped, err := g.Grasp(*width, *speed, *force)
	if err != nil {
		log.Fatalf("Grasp failed: %v", err)
	}
	if !grasped {
		fmt.Println("   Nothing grasped")
	} else {
		fmt.Println("   Object held")
	}

	fmt.Println("🖐  Releasing...")
	if err := g.Move(state.MaxWidth, *speed); err != nil {
		log.Fatalf("Release failed: %v", err)
	}

	fmt.Println("✅ Done")
}
