// Prints robot state snapshots without ever commanding motion.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/MMintLab/libfranka/internal/config"
	"github.com/MMintLab/libfranka/pkg/robot"
	"github.com/MMintLab/libfranka/pkg/session"
)

func main() {
	host := flag.String("host", config.RobotHost("172.16.0.2"), "Controller host")
	count := flag.Int("count", 10, "Number of states to read")
	flag.Parse()

	fmt.Printf("🤖 Reading %d states from %s\n\n", *count, *host)

	ctx := context.Background()
	r, err := robot.Connect(ctx, *host,
		robot.WithSessionConfig(session.Config{Port: config.RobotPort()}))
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer r.Close()

	fmt.Printf("✅ Connected (server version %d)\n", r.ServerVersion())

	for i := 0; i < *count; i++ {
		state, err := r.ReadOnce(ctx)
		if err != nil {
			log.Fatalf("Reading state failed: %v", err)
		}
		fmt.Printf("seq=%-8d t=%dus q=%.4v\n", state.Seq, state.Time, state.Q)
	}
}
