// Runs a standalone simulated robot controller on loopback, for developing
// against the client without hardware.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/MMintLab/libfranka/internal/config"
	"github.com/MMintLab/libfranka/internal/simctl"
)

func main() {
	port := flag.Int("port", config.DefaultRobotPort, "TCP handshake port")
	rate := flag.Int("rate", 1000, "State streaming rate in Hz")
	flag.Parse()

	ctl, err := simctl.Start(simctl.Config{
		Port:   *port,
		RateHz: uint16(*rate),
	})
	if err != nil {
		log.Fatalf("Failed to start controller: %v", err)
	}
	defer ctl.Close()

	fmt.Println("🤖 Simulated robot controller")
	fmt.Printf("   Handshake: %s:%d\n", ctl.Host(), ctl.Port())
	fmt.Printf("   Rate:      %d Hz\n", *rate)
	fmt.Println("   Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	fmt.Println("\n👋 Shutting down...")
}
