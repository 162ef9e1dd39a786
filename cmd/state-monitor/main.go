// Serves a read-only dashboard feed of robot state over HTTP and websocket.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MMintLab/libfranka/internal/config"
	"github.com/MMintLab/libfranka/pkg/monitor"
	"github.com/MMintLab/libfranka/pkg/robot"
	"github.com/MMintLab/libfranka/pkg/session"
)

func main() {
	host := flag.String("host", config.RobotHost("172.16.0.2"), "Controller host")
	listen := flag.String("listen", ":8080", "HTTP listen address")
	interval := flag.Duration("interval", monitor.DefaultPollInterval, "State polling interval")
	flag.Parse()

	fmt.Println("📡 Robot state monitor")
	fmt.Printf("   Robot:     %s\n", *host)
	fmt.Printf("   Dashboard: http://localhost%s/api/state\n", *listen)
	fmt.Printf("   Feed:      ws://localhost%s/ws/state\n", *listen)

	r, err := robot.Connect(context.Background(), *host,
		robot.WithSessionConfig(session.Config{Port: config.RobotPort()}))
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer r.Close()

	srv := monitor.NewServer(r, monitor.WithPollInterval(*interval))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n👋 Shutting down...")
		srv.Shutdown()
		time.Sleep(100 * time.Millisecond)
	}()

	if err := srv.Listen(*listen); err != nil {
		log.Fatalf("Monitor server failed: %v", err)
	}
}
