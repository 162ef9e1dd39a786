// Runs a joint velocity wave with an active damping torque controller. On a
// control failure the diagnostic ring buffer is written to a CSV file for
// offline analysis.
//
// ⚠️  The robot will move! Keep the workspace clear.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/MMintLab/libfranka/internal/config"
	"github.com/MMintLab/libfranka/pkg/motion"
	"github.com/MMintLab/libfranka/pkg/ringlog"
	"github.com/MMintLab/libfranka/pkg/robot"
	"github.com/MMintLab/libfranka/pkg/session"
)

func main() {
	host := flag.String("host", config.RobotHost("172.16.0.2"), "Controller host")
	amplitude := flag.Float64("amplitude", 0.1, "Velocity wave amplitude in rad/s")
	period := flag.Duration("period", 5*time.Second, "Velocity wave period")
	filterWindow := flag.Int("filter", 5, "Velocity filter window in cycles")
	flag.Parse()

	fmt.Println("🤖 Joint velocity motion with damping control")
	fmt.Printf("   Robot: %s\n", *host)
	fmt.Println("⚠️  The robot will move! Press Ctrl+C now to abort.")
	time.Sleep(3 * time.Second)

	ctx := context.Background()
	r, err := robot.Connect(ctx, *host,
		robot.WithSessionConfig(session.Config{Port: config.RobotPort()}))
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer r.Close()

	damping := [7]float64{30, 30, 30, 30, 10, 10, 5}
	err = r.Control(ctx,
		motion.JointVelocityWave(*amplitude, *period),
		robot.WithTorqueControl(motion.Damper(damping, *filterWindow)),
	)
	if err != nil {
		var ce *robot.ControlError
		if errors.As(err, &ce) {
			name := ringlog.LogFileName(ce.Activation, time.Now())
			if werr := writeLog(name, ce.Log); werr != nil {
				log.Printf("Writing diagnostic log failed: %v", werr)
			} else {
				fmt.Printf("📄 Diagnostic log written to %s\n", name)
			}
		}
		log.Fatalf("Control failed: %v", err)
	}

	fmt.Println("✅ Motion finished")
}

func writeLog(name string, records []ringlog.Record) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := ringlog.WriteCSV(f, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
