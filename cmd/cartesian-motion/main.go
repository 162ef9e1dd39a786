// Moves the end effector through one vertical circle and back to the start
// pose.
//
// ⚠️  The robot will move! Keep the workspace clear.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/MMintLab/libfranka/internal/config"
	"github.com/MMintLab/libfranka/pkg/motion"
	"github.com/MMintLab/libfranka/pkg/robot"
	"github.com/MMintLab/libfranka/pkg/session"
)

func main() {
	host := flag.String("host", config.RobotHost("172.16.0.2"), "Controller host")
	radius := flag.Float64("radius", 0.05, "Circle radius in meters")
	duration := flag.Duration("duration", 10*time.Second, "Motion duration")
	flag.Parse()

	fmt.Println("🤖 Cartesian circle motion")
	fmt.Printf("   Robot:    %s\n", *host)
	fmt.Printf("   Radius:   %.3f m\n", *radius)
	fmt.Printf("   Duration: %s\n", *duration)
	fmt.Println("⚠️  The robot will move! Press Ctrl+C now to abort.")
	time.Sleep(3 * time.Second)

	ctx := context.Background()
	r, err := robot.Connect(ctx, *host,
		robot.WithSessionConfig(session.Config{Port: config.RobotPort()}))
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer r.Close()

	err = r.Control(ctx, motion.CircularMotion(*radius, *duration))
	if err != nil {
		var ce *robot.ControlError
		if errors.As(err, &ce) {
			log.Fatalf("Motion aborted after %d logged cycles: %v", len(ce.Log), err)
		}
		log.Fatalf("Motion failed: %v", err)
	}

	fmt.Println("✅ Motion finished")
}
